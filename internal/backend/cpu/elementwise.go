package cpu

import (
	"fmt"

	"golang.org/x/exp/constraints"

	"github.com/ebb-ml/ebb/internal/parallel"
	"github.com/ebb-ml/ebb/internal/tensor"
)

// number covers the element types the arithmetic kernels operate on.
type number interface {
	constraints.Float | constraints.Integer
}

// binaryApply computes dst[i] = f(a[i], b[i]) with a chunked fast path
// for same-shape inputs and a stride walk for broadcasting.
func binaryApply[T number](dst, a, b []T, aShape, bShape, outShape tensor.Shape, needsBC bool, f func(T, T) T, cfg parallel.Config) {
	if !needsBC {
		parallel.Chunks(len(dst), func(s, e int) {
			for i := s; i < e; i++ {
				dst[i] = f(a[i], b[i])
			}
		}, cfg)
		return
	}

	outStrides := outShape.ComputeStrides()
	aStrides := broadcastStrides(aShape, outShape)
	bStrides := broadcastStrides(bShape, outShape)
	for i := range dst {
		dst[i] = f(a[flatIndex(i, outStrides, aStrides)], b[flatIndex(i, outStrides, bStrides)])
	}
}

// binary runs one element-wise arithmetic kernel across the supported
// dtypes. Float16 inputs are staged through the float32 path.
func (c *CPUBackend) binary(name string, a, b *tensor.Handle,
	f32 func(float32, float32) float32,
	f64 func(float64, float64) float64,
	i32 func(int32, int32) int32,
	i64 func(int64, int64) int64,
) (*tensor.Handle, error) {
	if a.DType() != b.DType() {
		return nil, fmt.Errorf("%s: dtype mismatch: %s vs %s", name, a.DType(), b.DType())
	}

	outShape, needsBC, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	out, err := tensor.New(outShape, a.DType(), c.alloc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	switch a.DType() {
	case tensor.Float32:
		binaryApply(out.AsFloat32(), a.AsFloat32(), b.AsFloat32(), a.Shape(), b.Shape(), outShape, needsBC, f32, c.par)
	case tensor.Float64:
		binaryApply(out.AsFloat64(), a.AsFloat64(), b.AsFloat64(), a.Shape(), b.Shape(), outShape, needsBC, f64, c.par)
	case tensor.Float16:
		staged := make([]float32, out.NumElements())
		binaryApply(staged, f16ToF32(a.AsFloat16()), f16ToF32(b.AsFloat16()), a.Shape(), b.Shape(), outShape, needsBC, f32, c.par)
		f32IntoF16(out.AsFloat16(), staged)
	case tensor.Int32:
		binaryApply(out.AsInt32(), a.AsInt32(), b.AsInt32(), a.Shape(), b.Shape(), outShape, needsBC, i32, c.par)
	case tensor.Int64:
		binaryApply(out.AsInt64(), a.AsInt64(), b.AsInt64(), a.Shape(), b.Shape(), outShape, needsBC, i64, c.par)
	default:
		out.Release()
		return nil, fmt.Errorf("%s: unsupported dtype %s", name, a.DType())
	}

	return out, nil
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (c *CPUBackend) Add(a, b *tensor.Handle) (*tensor.Handle, error) {
	return c.binary("add", a, b,
		func(x, y float32) float32 { return x + y },
		func(x, y float64) float64 { return x + y },
		func(x, y int32) int32 { return x + y },
		func(x, y int64) int64 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (c *CPUBackend) Sub(a, b *tensor.Handle) (*tensor.Handle, error) {
	return c.binary("sub", a, b,
		func(x, y float32) float32 { return x - y },
		func(x, y float64) float64 { return x - y },
		func(x, y int32) int32 { return x - y },
		func(x, y int64) int64 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (c *CPUBackend) Mul(a, b *tensor.Handle) (*tensor.Handle, error) {
	return c.binary("mul", a, b,
		func(x, y float32) float32 { return x * y },
		func(x, y float64) float64 { return x * y },
		func(x, y int32) int32 { return x * y },
		func(x, y int64) int64 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (c *CPUBackend) Div(a, b *tensor.Handle) (*tensor.Handle, error) {
	return c.binary("div", a, b,
		func(x, y float32) float32 { return x / y },
		func(x, y float64) float64 { return x / y },
		func(x, y int32) int32 { return x / y },
		func(x, y int64) int64 { return x / y })
}
