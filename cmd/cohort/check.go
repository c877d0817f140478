package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Noofbiz/mriCohort/cohort"
	"github.com/Noofbiz/mriCohort/datasets"
)

func checkCmd() *cobra.Command {
	var session string

	cmd := &cobra.Command{
		Use:   "check <tsv>",
		Short: "Load every image artifact a table refers to",
		Long: `Resolve and load the CAPS artifact of every row, reporting the ones that
are missing. Exits with an error if any artifact is missing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := newDataset(args[0], session)
			if err != nil {
				return err
			}

			bar := progressbar.NewOptions(ds.Len(),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionShowCount(),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("Loading artifacts"),
			)

			var missing int
			var bytes uint64
			for i := range ds.Len() {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				sample, err := ds.Get(i)
				_ = bar.Add(1)
				switch {
				case errors.Is(err, datasets.ErrMissingArtifact):
					missing++
					path, _ := ds.Path(i)
					slog.Debug("Missing artifact", "path", path)
					continue
				case err != nil:
					_ = bar.Finish()
					return err
				}
				bytes += uint64(sample.Image.Shape().Memory())
			}
			_ = bar.Finish()
			fmt.Fprintln(cmd.ErrOrStderr())

			slog.Info("Checked artifacts",
				"samples", ds.Len(),
				"missing", missing,
				"loaded", humanize.Bytes(bytes))
			if missing > 0 {
				return fmt.Errorf("%w: %d of %d artifacts", datasets.ErrMissingArtifact, missing, ds.Len())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&session, "session", cohort.AllSessions, "only check this session (e.g. ses-M00)")
	return cmd
}
