package cpu

import (
	"fmt"
	"math"

	"github.com/ebb-ml/ebb/internal/parallel"
	"github.com/ebb-ml/ebb/internal/tensor"
)

// unaryApply computes dst[i] = f(src[i]) in parallel chunks.
func unaryApply[T number](dst, src []T, f func(T) T, cfg parallel.Config) {
	parallel.Chunks(len(dst), func(s, e int) {
		for i := s; i < e; i++ {
			dst[i] = f(src[i])
		}
	}, cfg)
}

// unaryFloat runs a float-only unary kernel, staging Float16 through
// the float32 path.
func (c *CPUBackend) unaryFloat(name string, x *tensor.Handle,
	f32 func(float32) float32,
	f64 func(float64) float64,
) (*tensor.Handle, error) {
	out, err := tensor.New(x.Shape(), x.DType(), c.alloc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	switch x.DType() {
	case tensor.Float32:
		unaryApply(out.AsFloat32(), x.AsFloat32(), f32, c.par)
	case tensor.Float64:
		unaryApply(out.AsFloat64(), x.AsFloat64(), f64, c.par)
	case tensor.Float16:
		staged := make([]float32, out.NumElements())
		unaryApply(staged, f16ToF32(x.AsFloat16()), f32, c.par)
		f32IntoF16(out.AsFloat16(), staged)
	default:
		out.Release()
		return nil, fmt.Errorf("%s: unsupported dtype %s (only float types supported)", name, x.DType())
	}

	return out, nil
}

// Neg computes element-wise negation: -x.
func (c *CPUBackend) Neg(x *tensor.Handle) (*tensor.Handle, error) {
	switch x.DType() {
	case tensor.Int32, tensor.Int64:
		out, err := tensor.New(x.Shape(), x.DType(), c.alloc)
		if err != nil {
			return nil, fmt.Errorf("neg: %w", err)
		}
		if x.DType() == tensor.Int32 {
			unaryApply(out.AsInt32(), x.AsInt32(), func(v int32) int32 { return -v }, c.par)
		} else {
			unaryApply(out.AsInt64(), x.AsInt64(), func(v int64) int64 { return -v }, c.par)
		}
		return out, nil
	default:
		return c.unaryFloat("neg", x,
			func(v float32) float32 { return -v },
			func(v float64) float64 { return -v })
	}
}

// Exp computes element-wise exponential: exp(x).
func (c *CPUBackend) Exp(x *tensor.Handle) (*tensor.Handle, error) {
	return c.unaryFloat("exp", x,
		func(v float32) float32 { return float32(math.Exp(float64(v))) },
		math.Exp)
}

// Log computes element-wise natural logarithm: ln(x).
// Non-positive inputs yield -Inf or NaN, matching math.Log.
func (c *CPUBackend) Log(x *tensor.Handle) (*tensor.Handle, error) {
	return c.unaryFloat("log", x,
		func(v float32) float32 { return float32(math.Log(float64(v))) },
		math.Log)
}

// Sqrt computes element-wise square root: sqrt(x).
func (c *CPUBackend) Sqrt(x *tensor.Handle) (*tensor.Handle, error) {
	return c.unaryFloat("sqrt", x,
		func(v float32) float32 { return float32(math.Sqrt(float64(v))) },
		math.Sqrt)
}

// ReLU computes element-wise max(0, x).
func (c *CPUBackend) ReLU(x *tensor.Handle) (*tensor.Handle, error) {
	return c.unaryFloat("relu", x,
		func(v float32) float32 { return max(v, 0) },
		func(v float64) float64 { return max(v, 0) })
}
