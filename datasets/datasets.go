package datasets

import (
	"errors"

	"github.com/gomlx/gomlx/pkg/core/tensors"

	"github.com/Noofbiz/mriCohort/cohort"
)

// This package turns cohort tables into training samples.
//
// Datasets are lazy: they keep the cohort table and resolve, load and
// transform one image per Get call. Nothing is cached, so Get may be called
// from several goroutines at once as long as nobody rewrites the artifacts
// underneath.
//
// Layout and intended usage:
//
// MRIDataset
//   - Wraps a cohort.Table and a CAPS directory
//   - Get(i) resolves the artifact of row i, loads it as a gomlx tensor,
//     applies the transform pipeline and encodes the diagnosis
//   - Batch(indices) stacks several samples into [batch, ...] tensors
//
// Sampler
//   - Orders dataset indices uniformly at random or with inverse class
//     frequency weights
//
// Loader
//   - Walks a Sampler ordering in fixed size batches and yields gomlx tensors
//     with the Name/Yield/Reset methods of gomlx's train.Dataset.

var (
	// ErrMissingArtifact reports a resolved image path that does not exist.
	ErrMissingArtifact = errors.New("missing image artifact")

	// ErrUnimplementedVariant reports a preprocessing whose artifacts have
	// not been computed.
	ErrUnimplementedVariant = errors.New("preprocessing variant not implemented")

	// ErrUnsupportedMode reports an unknown sampler mode.
	ErrUnsupportedMode = errors.New("unsupported sampler mode")
)

// Sample is one dataset item.
type Sample struct {
	Image         *tensors.Tensor
	Label         int
	ParticipantID string
	SessionID     string
}

// Dataset is the interface samplers and loaders need.
type Dataset interface {
	Len() int
	Get(i int) (Sample, error)

	// Table is the cohort table backing the dataset, one row per index.
	Table() *cohort.Table
}
