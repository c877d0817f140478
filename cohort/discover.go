package cohort

import (
	"fmt"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/Noofbiz/mriCohort/caps"
)

// Glob loads every TSV matching pattern, in lexical order, and concatenates
// them. A directory is treated as <dir>/*.tsv.
func Glob(pattern string) (*Table, error) {
	if matches, err := filepath.Glob(filepath.Join(pattern, "*.tsv")); err == nil && len(matches) > 0 {
		pattern = filepath.Join(pattern, "*.tsv")
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no TSV files match %s", ErrEmptyResult, pattern)
	}
	slices.Sort(matches)
	return loadAll(matches)
}

// LoadDiagnoses reads one table per diagnosis from dir and concatenates them
// in the given order. With baseline set it reads <diagnosis>_baseline.tsv,
// otherwise <diagnosis>.tsv.
func LoadDiagnoses(dir string, baseline bool, diagnoses ...string) (*Table, error) {
	if len(diagnoses) == 0 {
		return nil, fmt.Errorf("%w: no diagnoses requested", ErrEmptyResult)
	}
	paths := make([]string, len(diagnoses))
	for i, d := range diagnoses {
		name := d + ".tsv"
		if baseline {
			name = d + "_baseline.tsv"
		}
		paths[i] = filepath.Join(dir, name)
	}
	return loadAll(paths)
}

// LoadTrainValid reads the train and validation tables of a per-diagnosis
// decomposition rooted at dir:
//
//	<dir>/train[/SPM]/<diagnosis>[_baseline].tsv
//	<dir>/validation[/SPM]/<diagnosis>_baseline.tsv
//
// With nSplits > 0 the directories become train_splits-<n>/split-<fold> and
// validation_splits-<n>/split-<fold>. The SPM level is used for the mni and
// dartel preprocessings. Validation always uses baseline tables.
func LoadTrainValid(dir string, nSplits, fold int, baseline bool, p caps.Preprocessing, diagnoses ...string) (train, valid *Table, err error) {
	trainDir := filepath.Join(dir, "train")
	validDir := filepath.Join(dir, "validation")
	if nSplits > 0 {
		if fold < 0 || fold >= nSplits {
			return nil, nil, fmt.Errorf("%w: split %d with n_splits=%d", caps.ErrInvalidArgument, fold, nSplits)
		}
		sub := "split-" + strconv.Itoa(fold)
		trainDir = filepath.Join(dir, "train_splits-"+strconv.Itoa(nSplits), sub)
		validDir = filepath.Join(dir, "validation_splits-"+strconv.Itoa(nSplits), sub)
	}
	if p == caps.MNI || p == caps.Dartel {
		trainDir = filepath.Join(trainDir, "SPM")
		validDir = filepath.Join(validDir, "SPM")
	}

	if train, err = LoadDiagnoses(trainDir, baseline, diagnoses...); err != nil {
		return nil, nil, err
	}
	if valid, err = LoadDiagnoses(validDir, true, diagnoses...); err != nil {
		return nil, nil, err
	}
	return train, valid, nil
}

func loadAll(paths []string) (*Table, error) {
	tables := make([]*Table, len(paths))
	for i, p := range paths {
		t, err := Load(p)
		if err != nil {
			return nil, err
		}
		tables[i] = t
	}
	return Concat(tables...)
}
