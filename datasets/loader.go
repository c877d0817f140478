package datasets

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/gomlx/gomlx/pkg/core/tensors"
)

// Loader yields batches of a Dataset in Sampler order. It has the
// Name/Yield/Reset methods of gomlx's train.Dataset, so it can feed a gomlx
// training loop directly.
type Loader struct {
	name      string
	ds        Dataset
	sampler   *Sampler
	batchSize int
	rng       *rand.Rand

	order []int
	pos   int
}

// NewLoader returns a loader drawing epochs from sampler with a generator
// seeded by seed.
func NewLoader(name string, ds Dataset, sampler *Sampler, batchSize int, seed int64) (*Loader, error) {
	if batchSize < 1 {
		return nil, fmt.Errorf("batch size must be >= 1, got %d", batchSize)
	}
	if sampler.Len() != ds.Len() {
		return nil, fmt.Errorf("sampler covers %d samples, dataset has %d", sampler.Len(), ds.Len())
	}
	return &Loader{
		name:      name,
		ds:        ds,
		sampler:   sampler,
		batchSize: batchSize,
		rng:       rand.New(rand.NewSource(seed)),
	}, nil
}

// Name returns the loader name.
func (l *Loader) Name() string { return l.name }

// Yield returns the next batch: inputs holds the stacked images, labels the
// int32 labels. It returns io.EOF once the epoch is exhausted; the last batch
// may be short.
func (l *Loader) Yield() (spec any, inputs []*tensors.Tensor, labels []*tensors.Tensor, err error) {
	if l.order == nil {
		l.order = l.sampler.Order(l.rng)
	}
	if l.pos >= len(l.order) {
		return nil, nil, nil, io.EOF
	}
	end := min(l.pos+l.batchSize, len(l.order))
	images, labelT, err := batch(l.ds, l.order[l.pos:end])
	if err != nil {
		return nil, nil, nil, err
	}
	l.pos = end
	return l, []*tensors.Tensor{images}, []*tensors.Tensor{labelT}, nil
}

// Reset starts a new epoch with a fresh ordering.
func (l *Loader) Reset() {
	l.order = nil
	l.pos = 0
}
