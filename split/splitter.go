// Package split partitions a longitudinal cohort into train, validation and
// optionally test tables at subject granularity, stratified by each subject's
// baseline diagnosis, and caches the resulting TSV files next to the source
// table.
package split

import (
	"math/rand"

	"github.com/Noofbiz/mriCohort/cohort"
)

// DefaultSeed keeps splits reproducible across runs.
const DefaultSeed = 2

// Role names one table of a split.
type Role string

const (
	Train Role = "train"
	Valid Role = "valid"
	Test  Role = "test"
)

// Result holds the tables of one split iteration. Test is nil for a simple
// two-way split.
type Result struct {
	Iteration int
	Train     *cohort.Table
	Valid     *cohort.Table
	Test      *cohort.Table
}

// Tables returns the non-nil tables keyed by role.
func (r Result) Tables() map[Role]*cohort.Table {
	out := map[Role]*cohort.Table{Train: r.Train, Valid: r.Valid}
	if r.Test != nil {
		out[Test] = r.Test
	}
	return out
}

// Splitter runs stratified subject-level splits. Every call starts from a
// fresh generator seeded with Seed, so identical inputs give identical splits.
type Splitter struct {
	Seed int64
}

// NewSplitter returns a Splitter using DefaultSeed.
func NewSplitter() Splitter {
	return Splitter{Seed: DefaultSeed}
}

func (s Splitter) rand() *rand.Rand {
	return rand.New(rand.NewSource(s.Seed))
}

// partition holds baseline-table positions for one iteration.
type partition struct {
	train, valid, test []int
}

// partitions is the shared algorithm behind Split and SplitKFold. With
// nSplits == 0 it yields a single train/valid partition of all subjects.
// Otherwise each of the nSplits stratified folds is held out once as test and
// validation is carved from the remaining subjects.
func (s Splitter) partitions(y []int, nSplits int, valFraction float64) ([]partition, error) {
	if err := checkFraction(valFraction); err != nil {
		return nil, err
	}

	if nSplits == 0 {
		train, valid, err := stratifiedShuffle(y, valFraction, s.rand())
		if err != nil {
			return nil, err
		}
		return []partition{{train: train, valid: valid}}, nil
	}

	folds, err := stratifiedFolds(y, nSplits, s.rand())
	if err != nil {
		return nil, err
	}
	parts := make([]partition, 0, nSplits)
	for _, test := range folds {
		rest := complement(len(y), test)
		yRest := make([]int, len(rest))
		for i, pos := range rest {
			yRest[i] = y[pos]
		}
		localTrain, localValid, err := stratifiedShuffle(yRest, valFraction, s.rand())
		if err != nil {
			return nil, err
		}
		parts = append(parts, partition{
			train: pick(rest, localTrain),
			valid: pick(rest, localValid),
			test:  test,
		})
	}
	return parts, nil
}

func pick(from, positions []int) []int {
	out := make([]int, len(positions))
	for i, p := range positions {
		out[i] = from[p]
	}
	return out
}

// Split reduces table to baseline rows, splits subjects into train and
// validation, and expands both sides back to every timepoint of table.
func (s Splitter) Split(table *cohort.Table, valFraction float64) (Result, error) {
	results, err := s.run(table, 0, valFraction)
	if err != nil {
		return Result{}, err
	}
	return results[0], nil
}

// SplitKFold returns nSplits iterations, each holding out a different
// stratified fold of subjects as test.
func (s Splitter) SplitKFold(table *cohort.Table, nSplits int, valFraction float64) ([]Result, error) {
	if nSplits < 2 {
		return nil, errNSplits(nSplits)
	}
	return s.run(table, nSplits, valFraction)
}

func (s Splitter) run(table *cohort.Table, nSplits int, valFraction float64) ([]Result, error) {
	baseline, err := table.Baseline()
	if err != nil {
		return nil, err
	}
	y, _ := stratificationLabels(baseline)

	parts, err := s.partitions(y, nSplits, valFraction)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(parts))
	for i, part := range parts {
		res := Result{Iteration: i}
		if res.Train, err = expand(table, baseline, part.train); err != nil {
			return nil, err
		}
		if res.Valid, err = expand(table, baseline, part.valid); err != nil {
			return nil, err
		}
		if part.test != nil {
			if res.Test, err = expand(table, baseline, part.test); err != nil {
				return nil, err
			}
		}
		results[i] = res
	}
	return results, nil
}

func expand(table, baseline *cohort.Table, positions []int) (*cohort.Table, error) {
	subjects, err := baseline.Select(positions)
	if err != nil {
		return nil, err
	}
	return cohort.ExpandTimepoints(table, subjects)
}
