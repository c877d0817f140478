package caps

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_Templates(t *testing.T) {
	root := filepath.Join("data", "caps")
	base := filepath.Join(root, "subjects", "sub-01", "ses-M00", "t1")

	tests := []struct {
		name  string
		p     Preprocessing
		group string
		want  string
	}{
		{
			name: "linear",
			p:    Linear,
			want: filepath.Join(base, "preprocessing_dl", "sub-01_ses-M00_space-MNI_res-1x1x1.tensor"),
		},
		{
			name: "mni",
			p:    MNI,
			want: filepath.Join(base, "spm", "segmentation", "normalized_space", "sub-01_ses-M00_space-Ixi549Space_T1w.tensor"),
		},
		{
			name: "extensive",
			p:    Extensive,
			want: filepath.Join(base, "spm", "segmentation", "normalized_space",
				"sub-01_ses-M00_T1w_segm-graymatter_space-Ixi549Space_modulated-off_probability.tensor"),
		},
		{
			name:  "dartel with group",
			p:     Dartel,
			group: "group-ADNIbl",
			want: filepath.Join(base, "spm", "dartel", "group-ADNIbl",
				"sub-01_ses-M00_T1w_segm-graymatter_space-Ixi549Space_modulated-on_probability.tensor"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(root, "sub-01", "ses-M00", tt.p, tt.group)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_DartelWithoutGroup(t *testing.T) {
	_, err := Resolve("caps", "sub-01", "ses-M00", Dartel, "")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestResolve_UnknownPreprocessing(t *testing.T) {
	_, err := Resolve("caps", "sub-01", "ses-M00", Preprocessing("fancy"), "")
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = ParsePreprocessing("fancy")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestResolver_Extension(t *testing.T) {
	got, err := Resolver{Extension: ".pt"}.Resolve("caps", "sub-02", "ses-M12", Linear, "")
	require.NoError(t, err)
	assert.Equal(t, "sub-02_ses-M12_space-MNI_res-1x1x1.pt", filepath.Base(got))
}

func TestParsePreprocessing(t *testing.T) {
	for _, name := range []string{"linear", "mni", "extensive", "dartel"} {
		p, err := ParsePreprocessing(name)
		require.NoError(t, err)
		assert.Equal(t, Preprocessing(name), p)
	}
}
