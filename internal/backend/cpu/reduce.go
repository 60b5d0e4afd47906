package cpu

import (
	"fmt"

	"golang.org/x/exp/constraints"

	"github.com/ebb-ml/ebb/internal/parallel"
	"github.com/ebb-ml/ebb/internal/tensor"
)

// Reductions collapse the trailing n axes in a single stride-free pass:
// the input is viewed as rows × size, with one output element per row.
// Callers that reduce arbitrary axes permute them innermost first.

// reducePrep validates n and allocates the reduced-shape output.
func (c *CPUBackend) reducePrep(name string, x *tensor.Handle, n int) (*tensor.Handle, int, int, error) {
	ndim := len(x.Shape())
	if n < 0 || n > ndim {
		return nil, 0, 0, fmt.Errorf("%s: cannot reduce %d trailing axes of a %d-d tensor", name, n, ndim)
	}

	outShape := x.Shape()[:ndim-n].Clone()
	out, err := tensor.New(outShape, x.DType(), c.alloc)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%s: %w", name, err)
	}

	rows := outShape.NumElements()
	size := x.NumElements() / rows
	return out, rows, size, nil
}

func reduceMaxRows[T constraints.Ordered](dst, src []T, size int, cfg parallel.Config) {
	parallel.For(len(dst), func(r int) {
		base := r * size
		best := src[base]
		for i := 1; i < size; i++ {
			if v := src[base+i]; v > best {
				best = v
			}
		}
		dst[r] = best
	}, cfg)
}

func reduceMinRows[T constraints.Ordered](dst, src []T, size int, cfg parallel.Config) {
	parallel.For(len(dst), func(r int) {
		base := r * size
		best := src[base]
		for i := 1; i < size; i++ {
			if v := src[base+i]; v < best {
				best = v
			}
		}
		dst[r] = best
	}, cfg)
}

func reduceSumRows[T number](dst, src []T, size int, cfg parallel.Config) {
	parallel.For(len(dst), func(r int) {
		base := r * size
		var sum T
		for i := 0; i < size; i++ {
			sum += src[base+i]
		}
		dst[r] = sum
	}, cfg)
}

// ReduceMax computes the maximum over the trailing n axes.
func (c *CPUBackend) ReduceMax(x *tensor.Handle, n int) (*tensor.Handle, error) {
	out, _, size, err := c.reducePrep("reduce_max", x, n)
	if err != nil {
		return nil, err
	}

	switch x.DType() {
	case tensor.Float32:
		reduceMaxRows(out.AsFloat32(), x.AsFloat32(), size, c.par)
	case tensor.Float64:
		reduceMaxRows(out.AsFloat64(), x.AsFloat64(), size, c.par)
	case tensor.Float16:
		staged := make([]float32, out.NumElements())
		reduceMaxRows(staged, f16ToF32(x.AsFloat16()), size, c.par)
		f32IntoF16(out.AsFloat16(), staged)
	case tensor.Int32:
		reduceMaxRows(out.AsInt32(), x.AsInt32(), size, c.par)
	case tensor.Int64:
		reduceMaxRows(out.AsInt64(), x.AsInt64(), size, c.par)
	case tensor.Uint8:
		reduceMaxRows(out.AsUint8(), x.AsUint8(), size, c.par)
	default:
		out.Release()
		return nil, fmt.Errorf("reduce_max: unsupported dtype %s", x.DType())
	}
	return out, nil
}

// ReduceMin computes the minimum over the trailing n axes.
func (c *CPUBackend) ReduceMin(x *tensor.Handle, n int) (*tensor.Handle, error) {
	out, _, size, err := c.reducePrep("reduce_min", x, n)
	if err != nil {
		return nil, err
	}

	switch x.DType() {
	case tensor.Float32:
		reduceMinRows(out.AsFloat32(), x.AsFloat32(), size, c.par)
	case tensor.Float64:
		reduceMinRows(out.AsFloat64(), x.AsFloat64(), size, c.par)
	case tensor.Float16:
		staged := make([]float32, out.NumElements())
		reduceMinRows(staged, f16ToF32(x.AsFloat16()), size, c.par)
		f32IntoF16(out.AsFloat16(), staged)
	case tensor.Int32:
		reduceMinRows(out.AsInt32(), x.AsInt32(), size, c.par)
	case tensor.Int64:
		reduceMinRows(out.AsInt64(), x.AsInt64(), size, c.par)
	case tensor.Uint8:
		reduceMinRows(out.AsUint8(), x.AsUint8(), size, c.par)
	default:
		out.Release()
		return nil, fmt.Errorf("reduce_min: unsupported dtype %s", x.DType())
	}
	return out, nil
}

// ReduceSum computes the sum over the trailing n axes, accumulating in
// the source dtype.
func (c *CPUBackend) ReduceSum(x *tensor.Handle, n int) (*tensor.Handle, error) {
	out, _, size, err := c.reducePrep("reduce_sum", x, n)
	if err != nil {
		return nil, err
	}

	switch x.DType() {
	case tensor.Float32:
		reduceSumRows(out.AsFloat32(), x.AsFloat32(), size, c.par)
	case tensor.Float64:
		reduceSumRows(out.AsFloat64(), x.AsFloat64(), size, c.par)
	case tensor.Float16:
		staged := make([]float32, out.NumElements())
		reduceSumRows(staged, f16ToF32(x.AsFloat16()), size, c.par)
		f32IntoF16(out.AsFloat16(), staged)
	case tensor.Int32:
		reduceSumRows(out.AsInt32(), x.AsInt32(), size, c.par)
	case tensor.Int64:
		reduceSumRows(out.AsInt64(), x.AsInt64(), size, c.par)
	default:
		out.Release()
		return nil, fmt.Errorf("reduce_sum: unsupported dtype %s", x.DType())
	}
	return out, nil
}
