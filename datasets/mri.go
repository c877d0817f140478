package datasets

import (
	"fmt"
	"slices"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gomlx/pkg/support/fsutil"

	"github.com/Noofbiz/mriCohort/caps"
	"github.com/Noofbiz/mriCohort/cohort"
)

// ImageLoader reads the image stored at path. MRIDataset only calls it for
// paths that exist.
type ImageLoader interface {
	Load(path string) (*tensors.Tensor, error)
}

// TensorLoader loads artifacts written by (*tensors.Tensor).Save.
type TensorLoader struct{}

// Load implements ImageLoader.
func (TensorLoader) Load(path string) (*tensors.Tensor, error) {
	t, err := tensors.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load image %s: %w", path, err)
	}
	return t, nil
}

// Config selects where and how images are read.
type Config struct {
	// CAPSDir is the root of the CAPS hierarchy.
	CAPSDir string

	// Preprocessing picks the artifact template. Defaults to caps.Linear.
	Preprocessing caps.Preprocessing

	// Group is required by caps.Dartel.
	Group string

	// Resolver builds artifact paths. The zero value uses caps.DefaultExtension.
	Resolver caps.Resolver

	// Loader reads images. Defaults to TensorLoader.
	Loader ImageLoader

	// Transforms are applied in order to every loaded image.
	Transforms []Transform
}

// MRIDataset serves one Sample per row of a cohort table.
type MRIDataset struct {
	table *cohort.Table
	cfg   Config
}

// NewMRIDataset validates cfg and wraps table.
func NewMRIDataset(table *cohort.Table, cfg Config) (*MRIDataset, error) {
	if table == nil {
		return nil, fmt.Errorf("%w: nil table", caps.ErrInvalidArgument)
	}
	if cfg.Preprocessing == "" {
		cfg.Preprocessing = caps.Linear
	}
	if _, err := caps.ParsePreprocessing(string(cfg.Preprocessing)); err != nil {
		return nil, err
	}
	if cfg.Loader == nil {
		cfg.Loader = TensorLoader{}
	}
	cfg.Transforms = slices.Clone(cfg.Transforms)
	return &MRIDataset{table: table, cfg: cfg}, nil
}

// Len returns the number of rows.
func (d *MRIDataset) Len() int {
	return d.table.Len()
}

// Table returns the backing table.
func (d *MRIDataset) Table() *cohort.Table {
	return d.table
}

// Path returns the artifact path of row i.
func (d *MRIDataset) Path(i int) (string, error) {
	if i < 0 || i >= d.table.Len() {
		return "", fmt.Errorf("index %d out of range [0, %d)", i, d.table.Len())
	}
	rec := d.table.Record(i)
	return d.cfg.Resolver.Resolve(d.cfg.CAPSDir, rec.ParticipantID, rec.SessionID, d.cfg.Preprocessing, d.cfg.Group)
}

// Get loads row i.
func (d *MRIDataset) Get(i int) (Sample, error) {
	path, err := d.Path(i)
	if err != nil {
		return Sample{}, err
	}
	if d.cfg.Preprocessing == caps.Dartel {
		return Sample{}, fmt.Errorf("%w: dartel output has not been computed yet (%s)", ErrUnimplementedVariant, path)
	}

	ok, err := fsutil.FileExists(path)
	if err != nil {
		return Sample{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if !ok {
		return Sample{}, fmt.Errorf("%w: %s", ErrMissingArtifact, path)
	}

	rec := d.table.Record(i)
	image, err := d.cfg.Loader.Load(path)
	if err != nil {
		return Sample{}, err
	}
	for _, tr := range d.cfg.Transforms {
		if image, err = tr.Apply(image); err != nil {
			return Sample{}, fmt.Errorf("transform %s %s: %w", rec.ParticipantID, rec.SessionID, err)
		}
	}
	label, err := cohort.EncodeDiagnosis(rec.Diagnosis)
	if err != nil {
		return Sample{}, fmt.Errorf("%s %s: %w", rec.ParticipantID, rec.SessionID, err)
	}

	return Sample{
		Image:         image,
		Label:         label,
		ParticipantID: rec.ParticipantID,
		SessionID:     rec.SessionID,
	}, nil
}

// RestrictToSession returns a dataset over the rows of one session, or d
// itself for cohort.AllSessions.
func (d *MRIDataset) RestrictToSession(session string) (*MRIDataset, error) {
	table, err := d.table.FilterBySession(session)
	if err != nil {
		return nil, err
	}
	if table == d.table {
		return d, nil
	}
	return &MRIDataset{table: table, cfg: d.cfg}, nil
}

// Batch loads the given rows and stacks them into an image tensor shaped
// [len(indices), ...image dims] and an int32 label tensor.
func (d *MRIDataset) Batch(indices []int) (images, labels *tensors.Tensor, err error) {
	return batch(d, indices)
}

func batch(ds Dataset, indices []int) (*tensors.Tensor, *tensors.Tensor, error) {
	if len(indices) == 0 {
		return nil, nil, fmt.Errorf("%w: empty batch", caps.ErrInvalidArgument)
	}

	var dims []int
	var buf []float32
	labels := make([]int32, len(indices))
	for pos, idx := range indices {
		sample, err := ds.Get(idx)
		if err != nil {
			return nil, nil, err
		}
		sampleDims := sample.Image.Shape().Dimensions
		if pos == 0 {
			dims = slices.Clone(sampleDims)
		} else if !slices.Equal(dims, sampleDims) {
			return nil, nil, fmt.Errorf("inconsistent image shapes: sample %d has %v, sample %d has %v",
				indices[0], dims, idx, sampleDims)
		}
		flat, err := flatFloat32(sample.Image)
		if err != nil {
			return nil, nil, err
		}
		buf = append(buf, flat...)
		labels[pos] = int32(sample.Label)
	}

	batchDims := append([]int{len(indices)}, dims...)
	return tensors.FromFlatDataAndDimensions(buf, batchDims...), tensors.FromValue(labels), nil
}
