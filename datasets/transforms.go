package datasets

import (
	"fmt"
	"math"
	"slices"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gopjrt/dtypes"
)

// Transform maps one image to another. Implementations must not modify their
// input.
type Transform interface {
	Apply(image *tensors.Tensor) (*tensors.Tensor, error)
}

// TransformFunc adapts a function to Transform.
type TransformFunc func(image *tensors.Tensor) (*tensors.Tensor, error)

// Apply implements Transform.
func (f TransformFunc) Apply(image *tensors.Tensor) (*tensors.Tensor, error) {
	return f(image)
}

// Compose chains transforms left to right.
func Compose(ts ...Transform) Transform {
	return TransformFunc(func(image *tensors.Tensor) (*tensors.Tensor, error) {
		var err error
		for _, t := range ts {
			if image, err = t.Apply(image); err != nil {
				return nil, err
			}
		}
		return image, nil
	})
}

// NaNToNum replaces NaN with 0 and infinities with the largest finite float32
// of the same sign.
var NaNToNum = TransformFunc(func(image *tensors.Tensor) (*tensors.Tensor, error) {
	return mapFloat32(image, func(flat []float32) {
		for i, v := range flat {
			switch {
			case math.IsNaN(float64(v)):
				flat[i] = 0
			case math.IsInf(float64(v), 1):
				flat[i] = math.MaxFloat32
			case math.IsInf(float64(v), -1):
				flat[i] = -math.MaxFloat32
			}
		}
	})
})

// MinMaxNormalize rescales voxels to [0, 1]. A constant image becomes all
// zeros.
var MinMaxNormalize = TransformFunc(func(image *tensors.Tensor) (*tensors.Tensor, error) {
	return mapFloat32(image, func(flat []float32) {
		if len(flat) == 0 {
			return
		}
		lo, hi := slices.Min(flat), slices.Max(flat)
		span := hi - lo
		for i, v := range flat {
			if span == 0 {
				flat[i] = 0
			} else {
				flat[i] = (v - lo) / span
			}
		}
	})
})

// mapFloat32 copies the voxels of image, lets fn rewrite them in place and
// returns a new tensor of the same shape.
func mapFloat32(image *tensors.Tensor, fn func(flat []float32)) (*tensors.Tensor, error) {
	flat, err := flatFloat32(image)
	if err != nil {
		return nil, err
	}
	fn(flat)
	return tensors.FromFlatDataAndDimensions(flat, image.Shape().Dimensions...), nil
}

// flatFloat32 returns a copy of the voxels of a float32 tensor.
func flatFloat32(image *tensors.Tensor) ([]float32, error) {
	if image == nil {
		return nil, fmt.Errorf("nil image tensor")
	}
	if dtype := image.Shape().DType; dtype != dtypes.Float32 {
		return nil, fmt.Errorf("image tensor %s: want dtype %s, got %s", image.Shape(), dtypes.Float32, dtype)
	}
	var data []float32
	tensors.ConstFlatData[float32](image, func(flat []float32) {
		data = slices.Clone(flat)
	})
	return data, nil
}
