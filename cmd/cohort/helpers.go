package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gomlx/gomlx/pkg/support/fsutil"
	"github.com/spf13/viper"

	"github.com/Noofbiz/mriCohort/caps"
	"github.com/Noofbiz/mriCohort/cohort"
	"github.com/Noofbiz/mriCohort/datasets"
	"github.com/Noofbiz/mriCohort/split"
)

// roles lists split roles in display order.
var roles = []split.Role{split.Train, split.Valid, split.Test}

// openCache builds a split cache from the configuration. The returned close
// function releases the manifest, if any.
func openCache() (*split.Cache, func(), error) {
	splitter := split.Splitter{Seed: viper.GetInt64("split.seed")}

	manifestPath := viper.GetString("manifest.path")
	if manifestPath == "" {
		return split.NewCache(splitter, nil), func() {}, nil
	}
	manifestPath, err := fsutil.ReplaceTildeInDir(manifestPath)
	if err != nil {
		return nil, nil, err
	}
	manifest, err := split.OpenManifest(manifestPath)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := manifest.Close(); err != nil {
			slog.Warn("Failed to close manifest", "error", err)
		}
	}
	return split.NewCache(splitter, manifest), closeFn, nil
}

// resolveAll returns the paths of every iteration of the configured split of
// source, generating missing files.
func resolveAll(ctx context.Context, cache *split.Cache, source string, nSplits int, valSize float64) ([]split.Paths, error) {
	if nSplits == 0 {
		paths, err := cache.Resolve(ctx, source, valSize)
		if err != nil {
			return nil, err
		}
		return []split.Paths{paths}, nil
	}
	all := make([]split.Paths, nSplits)
	for fold := range nSplits {
		paths, err := cache.ResolveFold(ctx, source, nSplits, valSize, fold)
		if err != nil {
			return nil, err
		}
		all[fold] = paths
	}
	return all, nil
}

// loadRoles reads the tables of one split iteration.
func loadRoles(paths split.Paths) (map[split.Role]*cohort.Table, error) {
	tables := make(map[split.Role]*cohort.Table)
	for _, role := range roles {
		path := paths.Get(role)
		if path == "" {
			continue
		}
		t, err := cohort.Load(path)
		if err != nil {
			return nil, err
		}
		tables[role] = t
	}
	return tables, nil
}

// newDataset wraps the table at path with the configured CAPS settings,
// optionally restricted to one session.
func newDataset(path, session string) (*datasets.MRIDataset, error) {
	table, err := cohort.Load(path)
	if err != nil {
		return nil, err
	}
	root := viper.GetString("caps.root")
	if root == "" {
		return nil, fmt.Errorf("%w: a CAPS root is required (--caps or caps.root)", caps.ErrInvalidArgument)
	}
	root, err = fsutil.ReplaceTildeInDir(root)
	if err != nil {
		return nil, err
	}
	preprocessing, err := caps.ParsePreprocessing(viper.GetString("caps.preprocessing"))
	if err != nil {
		return nil, err
	}

	ds, err := datasets.NewMRIDataset(table, datasets.Config{
		CAPSDir:       root,
		Preprocessing: preprocessing,
		Group:         viper.GetString("caps.group"),
		Transforms:    []datasets.Transform{datasets.NaNToNum},
	})
	if err != nil {
		return nil, err
	}
	return ds.RestrictToSession(session)
}
