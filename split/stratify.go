package split

import (
	"cmp"
	"fmt"
	"math"
	"math/rand"
	"slices"

	"github.com/Noofbiz/mriCohort/cohort"
)

// stratificationLabels maps each row's diagnosis to the rank of that
// diagnosis among the sorted distinct diagnoses of the table. It is local to
// splitting and unrelated to cohort.EncodeDiagnosis.
func stratificationLabels(table *cohort.Table) (y []int, classes []string) {
	counts := table.DiagnosisCounts()
	for d := range counts {
		classes = append(classes, d)
	}
	slices.Sort(classes)

	y = make([]int, table.Len())
	for i := range y {
		y[i], _ = slices.BinarySearch(classes, table.Record(i).Diagnosis)
	}
	return y, classes
}

// groupByClass returns, for each label 0..max(y), the positions holding it.
func groupByClass(y []int) [][]int {
	var groups [][]int
	for i, label := range y {
		for len(groups) <= label {
			groups = append(groups, nil)
		}
		groups[label] = append(groups[label], i)
	}
	return groups
}

// allocate distributes total draws over classes proportionally to their
// sizes. Floors are taken first and the leftover draws go to the largest
// fractional parts, lower class first on ties.
func allocate(groups [][]int, n, total int) []int {
	alloc := make([]int, len(groups))
	type rem struct {
		class int
		frac  float64
	}
	rems := make([]rem, len(groups))
	assigned := 0
	for k, members := range groups {
		exact := float64(len(members)) * float64(total) / float64(n)
		alloc[k] = int(math.Floor(exact))
		assigned += alloc[k]
		rems[k] = rem{class: k, frac: exact - float64(alloc[k])}
	}
	slices.SortStableFunc(rems, func(a, b rem) int {
		return cmp.Compare(b.frac, a.frac)
	})
	for i := 0; assigned < total; i++ {
		k := rems[i%len(rems)].class
		if alloc[k] < len(groups[k]) {
			alloc[k]++
			assigned++
		}
	}
	return alloc
}

// stratifiedShuffle draws ceil(testFraction*n) positions into test while
// keeping every class's share within one sample of its proportion. Both
// returned slices are sorted.
func stratifiedShuffle(y []int, testFraction float64, rng *rand.Rand) (train, test []int, err error) {
	if err := checkFraction(testFraction); err != nil {
		return nil, nil, err
	}
	n := len(y)
	nTest := int(math.Ceil(testFraction * float64(n)))
	if nTest < 1 || n-nTest < 1 {
		return nil, nil, fmt.Errorf("%w: %d subjects cannot be split with fraction %v", ErrInvalidArgument, n, testFraction)
	}

	groups := groupByClass(y)
	alloc := allocate(groups, n, nTest)
	for k, members := range groups {
		perm := rng.Perm(len(members))
		for j, p := range perm {
			if j < alloc[k] {
				test = append(test, members[p])
			} else {
				train = append(train, members[p])
			}
		}
	}
	slices.Sort(train)
	slices.Sort(test)
	return train, test, nil
}

// stratifiedFolds deals the positions of each class, shuffled, round robin
// across k folds. The dealing offset carries over between classes so fold
// sizes differ by at most one. Each fold is sorted.
func stratifiedFolds(y []int, k int, rng *rand.Rand) ([][]int, error) {
	if k < 2 {
		return nil, fmt.Errorf("%w: n_splits must be at least 2, got %d", ErrInvalidArgument, k)
	}
	if k > len(y) {
		return nil, fmt.Errorf("%w: n_splits=%d exceeds the %d subjects", ErrInvalidArgument, k, len(y))
	}

	folds := make([][]int, k)
	offset := 0
	for _, members := range groupByClass(y) {
		for _, p := range rng.Perm(len(members)) {
			fold := offset % k
			folds[fold] = append(folds[fold], members[p])
			offset++
		}
	}
	for _, fold := range folds {
		slices.Sort(fold)
	}
	return folds, nil
}

// complement returns 0..n-1 minus the sorted positions in exclude.
func complement(n int, exclude []int) []int {
	out := make([]int, 0, n-len(exclude))
	for i := range n {
		if _, found := slices.BinarySearch(exclude, i); !found {
			out = append(out, i)
		}
	}
	return out
}

func checkFraction(f float64) error {
	if !(f > 0 && f < 1) {
		return fmt.Errorf("%w: validation fraction must be in (0, 1), got %v", ErrInvalidArgument, f)
	}
	return nil
}
