package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func splitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split <tsv>",
		Short: "Materialize a stratified subject-level split",
		Long: `Write train/valid TSV files (and test files with --n-splits) next to the
source table, unless they already exist, and print where they are.

Subjects never appear in more than one set. Each set keeps every session of
its subjects.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := args[0]
			valSize := viper.GetFloat64("split.val_size")
			nSplits := viper.GetInt("split.n_splits")
			fold, _ := cmd.Flags().GetInt("fold")

			cache, closeCache, err := openCache()
			if err != nil {
				return err
			}
			defer closeCache()

			ctx := cmd.Context()
			if nSplits > 0 && fold >= 0 {
				paths, err := cache.ResolveFold(ctx, source, nSplits, valSize, fold)
				if err != nil {
					return err
				}
				printPaths(cmd, fold, paths.Train, paths.Valid, paths.Test)
				return nil
			}

			all, err := resolveAll(ctx, cache, source, nSplits, valSize)
			if err != nil {
				return err
			}
			for i, paths := range all {
				printPaths(cmd, i, paths.Train, paths.Valid, paths.Test)
			}
			slog.Debug("Split resolved", "source", source, "val_size", valSize, "n_splits", nSplits)
			return nil
		},
	}

	cmd.Flags().Int("fold", -1, "only resolve this fold (with --n-splits)")
	return cmd
}

func printPaths(cmd *cobra.Command, iteration int, train, valid, test string) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d\ttrain\t%s\n", iteration, train)
	fmt.Fprintf(out, "%d\tvalid\t%s\n", iteration, valid)
	if test != "" {
		fmt.Fprintf(out, "%d\ttest\t%s\n", iteration, test)
	}
}
