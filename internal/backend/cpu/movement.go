package cpu

import (
	"fmt"

	"github.com/x448/float16"

	"github.com/ebb-ml/ebb/internal/parallel"
	"github.com/ebb-ml/ebb/internal/tensor"
)

// Transpose permutes the axes of x. axes must be a permutation of
// 0..ndim-1; axes[i] names the source axis that becomes output axis i.
func (c *CPUBackend) Transpose(x *tensor.Handle, axes []int) (*tensor.Handle, error) {
	ndim := len(x.Shape())
	if len(axes) != ndim {
		return nil, fmt.Errorf("transpose: got %d axes for a %d-d tensor", len(axes), ndim)
	}
	seen := make([]bool, ndim)
	for _, ax := range axes {
		if ax < 0 || ax >= ndim {
			return nil, fmt.Errorf("transpose: axis %d out of range for %d-d tensor", ax, ndim)
		}
		if seen[ax] {
			return nil, fmt.Errorf("transpose: duplicate axis %d", ax)
		}
		seen[ax] = true
	}

	outShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		outShape[i] = x.Shape()[ax]
	}
	out, err := tensor.New(outShape, x.DType(), c.alloc)
	if err != nil {
		return nil, fmt.Errorf("transpose: %w", err)
	}

	// Walk output positions and gather from the permuted source strides.
	// Elements move as raw bytes so one loop serves every dtype.
	srcStrides := x.Strides()
	permStrides := make([]int, ndim)
	for i, ax := range axes {
		permStrides[i] = srcStrides[ax]
	}
	outStrides := out.Strides()

	esize := x.DType().Size()
	src := x.Data()
	dst := out.Data()
	parallel.For(out.NumElements(), func(o int) {
		i := flatIndex(o, outStrides, permStrides)
		copy(dst[o*esize:(o+1)*esize], src[i*esize:(i+1)*esize])
	}, c.par)
	return out, nil
}

// Reshape copies x into a new handle with the given shape. The element
// count must be unchanged.
func (c *CPUBackend) Reshape(x *tensor.Handle, shape tensor.Shape) (*tensor.Handle, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("reshape: %w", err)
	}
	if shape.NumElements() != x.NumElements() {
		return nil, fmt.Errorf("reshape: cannot view %v (%d elements) as %v (%d elements)",
			x.Shape(), x.NumElements(), shape, shape.NumElements())
	}
	out, err := tensor.New(shape, x.DType(), c.alloc)
	if err != nil {
		return nil, fmt.Errorf("reshape: %w", err)
	}
	copy(out.Data(), x.Data())
	return out, nil
}

func fillValue[T any](dst []T, v T) {
	for i := range dst {
		dst[i] = v
	}
}

// Fill creates a tensor of the given shape and dtype with every element
// set to value, converted to the target dtype.
func (c *CPUBackend) Fill(shape tensor.Shape, dtype tensor.DataType, value float64) (*tensor.Handle, error) {
	out, err := tensor.New(shape, dtype, c.alloc)
	if err != nil {
		return nil, fmt.Errorf("fill: %w", err)
	}

	switch dtype {
	case tensor.Float32:
		fillValue(out.AsFloat32(), float32(value))
	case tensor.Float64:
		fillValue(out.AsFloat64(), value)
	case tensor.Float16:
		fillValue(out.AsFloat16(), float16.Fromfloat32(float32(value)))
	case tensor.Int32:
		fillValue(out.AsInt32(), int32(value))
	case tensor.Int64:
		fillValue(out.AsInt64(), int64(value))
	case tensor.Uint8:
		fillValue(out.AsUint8(), uint8(value))
	case tensor.Bool:
		fillValue(out.AsBool(), value != 0)
	default:
		out.Release()
		return nil, fmt.Errorf("fill: unsupported dtype %s", dtype)
	}
	return out, nil
}
