package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Noofbiz/mriCohort/cohort"
	"github.com/Noofbiz/mriCohort/datasets"
)

func loadCmd() *cobra.Command {
	var session string

	cmd := &cobra.Command{
		Use:   "load <tsv>",
		Short: "Run one epoch of batches over a table",
		Long: `Build the dataset of a table, order it with the configured sampler and
stack it into batches the way a training loop would, reporting batch shapes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := newDataset(args[0], session)
			if err != nil {
				return err
			}
			sampler, err := datasets.NewSampler(ds, viper.GetString("sampler.mode"))
			if err != nil {
				return err
			}
			loader, err := datasets.NewLoader(args[0], ds, sampler, viper.GetInt("sampler.batch_size"), viper.GetInt64("split.seed"))
			if err != nil {
				return err
			}

			var batches, samples int
			var bytes uint64
			for {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				_, inputs, labels, err := loader.Yield()
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return err
				}
				batches++
				samples += labels[0].Shape().Dimensions[0]
				bytes += uint64(inputs[0].Shape().Memory())
				slog.Debug("Batch", "index", batches, "images", inputs[0].Shape(), "labels", labels[0].Shape())
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s batches, %s samples, %s of images (%s sampler)\n",
				loader.Name(), humanize.Comma(int64(batches)), humanize.Comma(int64(samples)),
				humanize.Bytes(bytes), sampler.Mode())
			return nil
		},
	}

	cmd.Flags().StringVar(&session, "session", cohort.AllSessions, "only load this session (e.g. ses-M00)")
	cmd.Flags().String("sampler", datasets.RandomMode, "sampler mode (random, weighted)")
	cmd.Flags().Int("batch-size", 8, "samples per batch")
	_ = viper.BindPFlag("sampler.mode", cmd.Flags().Lookup("sampler"))
	_ = viper.BindPFlag("sampler.batch_size", cmd.Flags().Lookup("batch-size"))
	return cmd
}
