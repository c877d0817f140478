package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Noofbiz/mriCohort/cohort"
)

func baselineCmd() *cobra.Command {
	var out string
	var diagnoses []string

	cmd := &cobra.Command{
		Use:   "baseline <tsv>",
		Short: "Extract the earliest session of every subject",
		Long: `Reduce a longitudinal table to one row per participant, its earliest
session, relabelled with the canonical session id. The table is written to
stdout unless --out is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			table, err := cohort.Load(args[0])
			if err != nil {
				return err
			}
			if len(diagnoses) > 0 {
				if table, err = table.FilterByDiagnosis(diagnoses...); err != nil {
					return err
				}
			}
			baseline, err := table.Baseline()
			if err != nil {
				return err
			}
			slog.Debug("Extracted baseline", "source", args[0], "rows", table.Len(), "subjects", baseline.Len())

			if out == "" {
				return baseline.Write(os.Stdout)
			}
			if err := baseline.WriteTSV(out); err != nil {
				return err
			}
			slog.Info("Wrote baseline table", "path", out, "subjects", baseline.Len())
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "write the baseline table to this path")
	cmd.Flags().StringSliceVar(&diagnoses, "diagnosis", nil, "keep only these diagnoses (comma-separated)")
	return cmd
}
