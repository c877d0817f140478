package datasets

import (
	"fmt"
	"math/rand"
	"slices"
	"sort"

	"github.com/Noofbiz/mriCohort/cohort"
)

// Sampler modes.
const (
	RandomMode   = "random"
	WeightedMode = "weighted"
)

// Sampler orders dataset indices for one epoch.
type Sampler struct {
	mode    string
	weights []float64
}

// ClassWeights returns, for every row of table, the inverse of the number of
// rows sharing its diagnosis code. Unlabeled rows get weight 0. A class that
// never occurs has no rows, so no weight is ever derived from a zero count.
func ClassWeights(table *cohort.Table) ([]float64, error) {
	codes := make([]int, table.Len())
	var count [2]int
	for i := range codes {
		code, err := cohort.EncodeDiagnosis(table.Record(i).Diagnosis)
		if err != nil {
			return nil, err
		}
		codes[i] = code
		if code != cohort.Unlabeled {
			count[code]++
		}
	}

	weights := make([]float64, len(codes))
	for i, code := range codes {
		if code != cohort.Unlabeled {
			weights[i] = 1 / float64(count[code])
		}
	}
	return weights, nil
}

// NewSampler builds a sampler over ds in mode RandomMode or WeightedMode.
func NewSampler(ds Dataset, mode string) (*Sampler, error) {
	switch mode {
	case RandomMode, WeightedMode:
	default:
		return nil, fmt.Errorf("%w: %q (use %s or %s)", ErrUnsupportedMode, mode, RandomMode, WeightedMode)
	}

	weights, err := ClassWeights(ds.Table())
	if err != nil {
		return nil, err
	}
	if mode == WeightedMode && !slices.ContainsFunc(weights, func(w float64) bool { return w > 0 }) {
		return nil, fmt.Errorf("%w: no labeled samples to weight", cohort.ErrEmptyResult)
	}
	return &Sampler{mode: mode, weights: weights}, nil
}

// Mode returns the sampling mode.
func (s *Sampler) Mode() string { return s.mode }

// Len is the number of indices Order returns.
func (s *Sampler) Len() int { return len(s.weights) }

// Weights returns a copy of the per-sample weights.
func (s *Sampler) Weights() []float64 { return slices.Clone(s.weights) }

// Order returns one epoch of indices: a permutation in RandomMode, or Len
// draws with replacement proportional to Weights in WeightedMode.
func (s *Sampler) Order(rng *rand.Rand) []int {
	n := len(s.weights)
	if s.mode == RandomMode {
		return rng.Perm(n)
	}

	cum := make([]float64, n)
	total := 0.0
	for i, w := range s.weights {
		total += w
		cum[i] = total
	}
	order := make([]int, n)
	for i := range order {
		u := rng.Float64() * total
		order[i] = sort.Search(n, func(j int) bool { return cum[j] > u })
	}
	return order
}
