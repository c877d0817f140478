package main

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Noofbiz/mriCohort/cohort"
)

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <tsv>",
		Short: "Report subject, row and diagnosis counts of a table and its split",
		Long: `Print the composition of the source table, then of every set of its
configured split (generating the split if needed).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := args[0]
			table, err := cohort.Load(source)
			if err != nil {
				return err
			}

			cache, closeCache, err := openCache()
			if err != nil {
				return err
			}
			defer closeCache()

			all, err := resolveAll(cmd.Context(), cache, source, viper.GetInt("split.n_splits"), viper.GetFloat64("split.val_size"))
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ITERATION\tSET\tSUBJECTS\tROWS\tDIAGNOSES")
			writeSummary(w, "-", "source", table)
			for i, paths := range all {
				tables, err := loadRoles(paths)
				if err != nil {
					return err
				}
				for _, role := range roles {
					if t, ok := tables[role]; ok {
						writeSummary(w, fmt.Sprint(i), string(role), t)
					}
				}
			}
			return w.Flush()
		},
	}
}

func writeSummary(w io.Writer, iteration, set string, t *cohort.Table) {
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", iteration, set,
		humanize.Comma(int64(len(t.Subjects()))), humanize.Comma(int64(t.Len())), formatCounts(t.DiagnosisCounts()))
}

// formatCounts renders counts as "AD=3 CN=5", sorted by diagnosis.
func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%s", k, humanize.Comma(int64(counts[k])))
	}
	return strings.Join(parts, " ")
}
