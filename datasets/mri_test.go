package datasets_test

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Noofbiz/mriCohort/caps"
	"github.com/Noofbiz/mriCohort/cohort"
	"github.com/Noofbiz/mriCohort/datasets"
)

var columns = []string{"participant_id", "session_id", "diagnosis"}

// newTable builds a cohort table from (participant, session, diagnosis) rows.
func newTable(t *testing.T, rows ...[]string) *cohort.Table {
	t.Helper()
	table, err := cohort.New("test", columns, rows)
	require.NoError(t, err)
	return table
}

// cube returns a 2x2x2 float32 image whose voxels are offset, offset+1, ...
func cube(offset float32) *tensors.Tensor {
	flat := make([]float32, 8)
	for i := range flat {
		flat[i] = offset + float32(i)
	}
	return tensors.FromFlatDataAndDimensions(flat, 2, 2, 2)
}

func flat(t *testing.T, image *tensors.Tensor) []float32 {
	t.Helper()
	var out []float32
	tensors.ConstFlatData[float32](image, func(data []float32) {
		out = append(out, data...)
	})
	return out
}

// fakeLoader serves a cube per path, keyed by the order paths are first seen.
type fakeLoader struct {
	images map[string]*tensors.Tensor
}

func (f *fakeLoader) Load(path string) (*tensors.Tensor, error) {
	if img, ok := f.images[path]; ok {
		return img, nil
	}
	if f.images == nil {
		f.images = make(map[string]*tensors.Tensor)
	}
	img := cube(float32(10 * len(f.images)))
	f.images[path] = img
	return img, nil
}

// touchArtifacts creates an empty linear artifact for every row of table
// under a fresh CAPS root, for use with fakeLoader.
func touchArtifacts(t *testing.T, table *cohort.Table) string {
	t.Helper()
	root := t.TempDir()
	for i := range table.Len() {
		rec := table.Record(i)
		path, err := caps.Resolve(root, rec.ParticipantID, rec.SessionID, caps.Linear, "")
		require.NoError(t, err)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o644))
	}
	return root
}

func saveImage(t *testing.T, path string, image *tensors.Tensor) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, image.Save(path))
}

func TestMRIDataset_GetLoadsSavedTensor(t *testing.T) {
	root := t.TempDir()
	table := newTable(t,
		[]string{"sub-01", "ses-M00", "AD"},
		[]string{"sub-02", "ses-M00", "CN"},
	)
	for i, pid := range []string{"sub-01", "sub-02"} {
		path, err := caps.Resolve(root, pid, "ses-M00", caps.Linear, "")
		require.NoError(t, err)
		saveImage(t, path, cube(float32(100*i)))
	}

	ds, err := datasets.NewMRIDataset(table, datasets.Config{CAPSDir: root})
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())

	s, err := ds.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "sub-01", s.ParticipantID)
	assert.Equal(t, "ses-M00", s.SessionID)
	assert.Equal(t, 1, s.Label)
	assert.Equal(t, []int{2, 2, 2}, s.Image.Shape().Dimensions)
	assert.Equal(t, []float32{0, 1, 2, 3, 4, 5, 6, 7}, flat(t, s.Image))

	s, err = ds.Get(1)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Label)
	assert.Equal(t, float32(100), flat(t, s.Image)[0])
}

func TestMRIDataset_Errors(t *testing.T) {
	root := t.TempDir()
	table := newTable(t, []string{"sub-01", "ses-M00", "AD"})

	t.Run("missing artifact", func(t *testing.T) {
		ds, err := datasets.NewMRIDataset(table, datasets.Config{CAPSDir: root})
		require.NoError(t, err)
		_, err = ds.Get(0)
		assert.ErrorIs(t, err, datasets.ErrMissingArtifact)
	})

	t.Run("missing artifact with a custom loader", func(t *testing.T) {
		loader := &fakeLoader{}
		ds, err := datasets.NewMRIDataset(table, datasets.Config{CAPSDir: root, Loader: loader})
		require.NoError(t, err)
		_, err = ds.Get(0)
		assert.ErrorIs(t, err, datasets.ErrMissingArtifact)
		assert.Empty(t, loader.images, "loader must not be called for a missing path")
	})

	t.Run("index out of range", func(t *testing.T) {
		ds, err := datasets.NewMRIDataset(table, datasets.Config{CAPSDir: root, Loader: &fakeLoader{}})
		require.NoError(t, err)
		_, err = ds.Get(1)
		assert.Error(t, err)
		_, err = ds.Get(-1)
		assert.Error(t, err)
	})

	t.Run("dartel has no artifacts yet", func(t *testing.T) {
		ds, err := datasets.NewMRIDataset(table, datasets.Config{
			CAPSDir: root, Preprocessing: caps.Dartel, Group: "AD-CN", Loader: &fakeLoader{},
		})
		require.NoError(t, err)
		_, err = ds.Get(0)
		assert.ErrorIs(t, err, datasets.ErrUnimplementedVariant)
	})

	t.Run("dartel without group", func(t *testing.T) {
		ds, err := datasets.NewMRIDataset(table, datasets.Config{CAPSDir: root, Preprocessing: caps.Dartel})
		require.NoError(t, err)
		_, err = ds.Get(0)
		assert.ErrorIs(t, err, caps.ErrInvalidArgument)
	})

	t.Run("unknown preprocessing", func(t *testing.T) {
		_, err := datasets.NewMRIDataset(table, datasets.Config{CAPSDir: root, Preprocessing: "smoothed"})
		assert.ErrorIs(t, err, caps.ErrInvalidArgument)
	})

	t.Run("nil table", func(t *testing.T) {
		_, err := datasets.NewMRIDataset(nil, datasets.Config{CAPSDir: root})
		assert.ErrorIs(t, err, caps.ErrInvalidArgument)
	})

	t.Run("unknown diagnosis", func(t *testing.T) {
		bad := newTable(t, []string{"sub-01", "ses-M00", "FTD"})
		ds, err := datasets.NewMRIDataset(bad, datasets.Config{CAPSDir: touchArtifacts(t, bad), Loader: &fakeLoader{}})
		require.NoError(t, err)
		_, err = ds.Get(0)
		assert.ErrorIs(t, err, cohort.ErrUnknownDiagnosis)
	})
}

func TestMRIDataset_Path(t *testing.T) {
	table := newTable(t, []string{"sub-01", "ses-M12", "CN"})
	ds, err := datasets.NewMRIDataset(table, datasets.Config{
		CAPSDir:       "/caps",
		Preprocessing: caps.MNI,
		Resolver:      caps.Resolver{Extension: ".nii.gz"},
	})
	require.NoError(t, err)

	path, err := ds.Path(0)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/caps", "subjects", "sub-01", "ses-M12", "t1",
		"spm", "segmentation", "normalized_space", "sub-01_ses-M12_space-Ixi549Space_T1w.nii.gz"), path)
}

func TestMRIDataset_Transforms(t *testing.T) {
	table := newTable(t, []string{"sub-01", "ses-M00", "unlabeled"})
	ds, err := datasets.NewMRIDataset(table, datasets.Config{
		CAPSDir:    touchArtifacts(t, table),
		Loader:     &fakeLoader{},
		Transforms: []datasets.Transform{datasets.NaNToNum, datasets.MinMaxNormalize},
	})
	require.NoError(t, err)

	s, err := ds.Get(0)
	require.NoError(t, err)
	assert.Equal(t, cohort.Unlabeled, s.Label)
	got := flat(t, s.Image)
	assert.Equal(t, float32(0), got[0])
	assert.Equal(t, float32(1), got[7])
	assert.InDelta(t, 1.0/7, got[1], 1e-6)
}

func TestMRIDataset_RestrictToSession(t *testing.T) {
	table := newTable(t,
		[]string{"sub-01", "ses-M00", "AD"},
		[]string{"sub-01", "ses-M12", "AD"},
		[]string{"sub-02", "ses-M00", "CN"},
	)
	ds, err := datasets.NewMRIDataset(table, datasets.Config{CAPSDir: "/caps"})
	require.NoError(t, err)

	all, err := ds.RestrictToSession(cohort.AllSessions)
	require.NoError(t, err)
	assert.Same(t, ds, all)

	m12, err := ds.RestrictToSession("ses-M12")
	require.NoError(t, err)
	require.Equal(t, 1, m12.Len())
	assert.Equal(t, "sub-01", m12.Table().Record(0).ParticipantID)

	_, err = ds.RestrictToSession("ses-M48")
	assert.ErrorIs(t, err, cohort.ErrEmptyResult)
}

func TestMRIDataset_Batch(t *testing.T) {
	var rows [][]string
	for i := range 4 {
		d := "CN"
		if i%2 == 1 {
			d = "pMCI"
		}
		rows = append(rows, []string{fmt.Sprintf("sub-%02d", i), "ses-M00", d})
	}
	table := newTable(t, rows...)
	ds, err := datasets.NewMRIDataset(table, datasets.Config{CAPSDir: touchArtifacts(t, table), Loader: &fakeLoader{}})
	require.NoError(t, err)

	images, labels, err := ds.Batch([]int{3, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2, 2, 2}, images.Shape().Dimensions)
	assert.Equal(t, []int{3}, labels.Shape().Dimensions)
	assert.Equal(t, []int32{1, 0, 1}, labels.Value())

	_, _, err = ds.Batch(nil)
	assert.ErrorIs(t, err, caps.ErrInvalidArgument)
}

func TestTransforms(t *testing.T) {
	t.Run("nan to num", func(t *testing.T) {
		in := tensors.FromFlatDataAndDimensions([]float32{
			float32(math.NaN()), float32(math.Inf(1)), float32(math.Inf(-1)), 2,
		}, 4)
		out, err := datasets.NaNToNum.Apply(in)
		require.NoError(t, err)
		assert.Equal(t, []float32{0, math.MaxFloat32, -math.MaxFloat32, 2}, flat(t, out))
		assert.True(t, math.IsNaN(float64(flat(t, in)[0])), "input must be left untouched")
	})

	t.Run("constant image normalizes to zeros", func(t *testing.T) {
		in := tensors.FromFlatDataAndDimensions([]float32{3, 3, 3, 3}, 2, 2)
		out, err := datasets.MinMaxNormalize.Apply(in)
		require.NoError(t, err)
		assert.Equal(t, []float32{0, 0, 0, 0}, flat(t, out))
		assert.Equal(t, []int{2, 2}, out.Shape().Dimensions)
	})

	t.Run("compose applies left to right", func(t *testing.T) {
		double := datasets.TransformFunc(func(img *tensors.Tensor) (*tensors.Tensor, error) {
			data := flat(t, img)
			for i := range data {
				data[i] *= 2
			}
			return tensors.FromFlatDataAndDimensions(data, img.Shape().Dimensions...), nil
		})
		in := tensors.FromFlatDataAndDimensions([]float32{1, 2, 5}, 3)
		out, err := datasets.Compose(datasets.MinMaxNormalize, double).Apply(in)
		require.NoError(t, err)
		assert.Equal(t, []float32{0, 0.5, 2}, flat(t, out))
	})

	t.Run("rejects non float32 images", func(t *testing.T) {
		_, err := datasets.MinMaxNormalize.Apply(tensors.FromValue([]int32{1, 2}))
		assert.Error(t, err)
	})
}
