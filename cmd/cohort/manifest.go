package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Noofbiz/mriCohort/caps"
)

func manifestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "manifest <tsv>",
		Short: "List the split files recorded for a source table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if viper.GetString("manifest.path") == "" {
				return fmt.Errorf("%w: no manifest configured (--manifest or manifest.path)", caps.ErrInvalidArgument)
			}
			cache, closeCache, err := openCache()
			if err != nil {
				return err
			}
			defer closeCache()

			entries, err := cache.Manifest.Entries(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "N_SPLITS\tVAL_SIZE\tITERATION\tSET\tSUBJECTS\tROWS\tCREATED\tPATH")
			for _, e := range entries {
				fmt.Fprintf(w, "%d\t%g\t%d\t%s\t%d\t%d\t%s\t%s\n",
					e.NSplits, e.ValSize, e.Iteration, e.Role, e.Subjects, e.Rows, humanize.Time(e.CreatedAt), e.Path)
			}
			return w.Flush()
		},
	}
}

