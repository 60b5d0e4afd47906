//go:build windows

package webgpu

import (
	"github.com/ebb-ml/ebb/internal/tensor"
)

// gpuBinary reports whether a two-operand float32 shader can serve
// this call: matching float32 operands, no broadcasting.
func gpuBinary(a, b *tensor.Handle) bool {
	return a.DType() == tensor.Float32 && b.DType() == tensor.Float32 &&
		a.Shape().Equal(b.Shape())
}

// Add computes a + b, on GPU for same-shape float32 operands.
func (b *Backend) Add(x, y *tensor.Handle) (*tensor.Handle, error) {
	if gpuBinary(x, y) {
		return b.runElementwise("add", addShader, x.Shape(), x, y)
	}
	return b.host.Add(x, y)
}

// Sub computes a - b, on GPU for same-shape float32 operands.
func (b *Backend) Sub(x, y *tensor.Handle) (*tensor.Handle, error) {
	if gpuBinary(x, y) {
		return b.runElementwise("sub", subShader, x.Shape(), x, y)
	}
	return b.host.Sub(x, y)
}

// Mul computes a * b, on GPU for same-shape float32 operands.
func (b *Backend) Mul(x, y *tensor.Handle) (*tensor.Handle, error) {
	if gpuBinary(x, y) {
		return b.runElementwise("mul", mulShader, x.Shape(), x, y)
	}
	return b.host.Mul(x, y)
}

// Div computes a / b, on GPU for same-shape float32 operands.
func (b *Backend) Div(x, y *tensor.Handle) (*tensor.Handle, error) {
	if gpuBinary(x, y) {
		return b.runElementwise("div", divShader, x.Shape(), x, y)
	}
	return b.host.Div(x, y)
}

// MatMul multiplies two float32 matrices on GPU; other dtypes fall
// back to the host backend.
func (b *Backend) MatMul(x, y *tensor.Handle) (*tensor.Handle, error) {
	if x.DType() != tensor.Float32 || y.DType() != tensor.Float32 ||
		len(x.Shape()) != 2 || len(y.Shape()) != 2 || x.Shape()[1] != y.Shape()[0] {
		return b.host.MatMul(x, y)
	}

	m, k, n := x.Shape()[0], x.Shape()[1], y.Shape()[1]
	groupsX := uint32((n + 15) / 16)
	groupsY := uint32((m + 15) / 16)
	raw, err := b.dispatch("matmul", matmulShader,
		[][]byte{x.Data(), y.Data()}, m*n*4, groupsX, groupsY,
		uint32(m), uint32(k), uint32(n))
	if err != nil {
		return nil, err
	}

	out, err := tensor.New(tensor.Shape{m, n}, tensor.Float32, b.Allocator())
	if err != nil {
		return nil, err
	}
	copy(out.Data(), raw)
	return out, nil
}

// Neg negates x, on GPU for float32.
func (b *Backend) Neg(x *tensor.Handle) (*tensor.Handle, error) {
	if x.DType() == tensor.Float32 {
		return b.runElementwise("neg", negShader, x.Shape(), x)
	}
	return b.host.Neg(x)
}

// Exp computes e**x, on GPU for float32.
func (b *Backend) Exp(x *tensor.Handle) (*tensor.Handle, error) {
	if x.DType() == tensor.Float32 {
		return b.runElementwise("exp", expShader, x.Shape(), x)
	}
	return b.host.Exp(x)
}

// Log computes the natural logarithm, on GPU for float32.
func (b *Backend) Log(x *tensor.Handle) (*tensor.Handle, error) {
	if x.DType() == tensor.Float32 {
		return b.runElementwise("log", logShader, x.Shape(), x)
	}
	return b.host.Log(x)
}

// Sqrt computes the square root, on GPU for float32.
func (b *Backend) Sqrt(x *tensor.Handle) (*tensor.Handle, error) {
	if x.DType() == tensor.Float32 {
		return b.runElementwise("sqrt", sqrtShader, x.Shape(), x)
	}
	return b.host.Sqrt(x)
}

// ReLU computes max(x, 0), on GPU for float32.
func (b *Backend) ReLU(x *tensor.Handle) (*tensor.Handle, error) {
	if x.DType() == tensor.Float32 {
		return b.runElementwise("relu", reluShader, x.Shape(), x)
	}
	return b.host.ReLU(x)
}

// Transpose permutes axes. The 2-D float32 swap runs on GPU; general
// permutations use the host stride walk.
func (b *Backend) Transpose(x *tensor.Handle, axes []int) (*tensor.Handle, error) {
	if x.DType() == tensor.Float32 && len(x.Shape()) == 2 &&
		len(axes) == 2 && axes[0] == 1 && axes[1] == 0 {
		rows, cols := x.Shape()[0], x.Shape()[1]
		groupsX := uint32((cols + 15) / 16)
		groupsY := uint32((rows + 15) / 16)
		raw, err := b.dispatch("transpose", transposeShader,
			[][]byte{x.Data()}, rows*cols*4, groupsX, groupsY,
			uint32(rows), uint32(cols))
		if err != nil {
			return nil, err
		}
		out, err := tensor.New(tensor.Shape{cols, rows}, tensor.Float32, b.Allocator())
		if err != nil {
			return nil, err
		}
		copy(out.Data(), raw)
		return out, nil
	}
	return b.host.Transpose(x, axes)
}

// Host-only kernels. Comparisons, reductions, movement and fills are
// memory-bound, so the upload cost outweighs the shader.

func (b *Backend) Greater(x, y *tensor.Handle) (*tensor.Handle, error) {
	return b.host.Greater(x, y)
}

func (b *Backend) Equal(x, y *tensor.Handle) (*tensor.Handle, error) {
	return b.host.Equal(x, y)
}

func (b *Backend) Select(cond, x, y *tensor.Handle) (*tensor.Handle, error) {
	return b.host.Select(cond, x, y)
}

func (b *Backend) ReduceMax(x *tensor.Handle, n int) (*tensor.Handle, error) {
	return b.host.ReduceMax(x, n)
}

func (b *Backend) ReduceMin(x *tensor.Handle, n int) (*tensor.Handle, error) {
	return b.host.ReduceMin(x, n)
}

func (b *Backend) ReduceSum(x *tensor.Handle, n int) (*tensor.Handle, error) {
	return b.host.ReduceSum(x, n)
}

func (b *Backend) Reshape(x *tensor.Handle, shape tensor.Shape) (*tensor.Handle, error) {
	return b.host.Reshape(x, shape)
}

func (b *Backend) Cast(x *tensor.Handle, to tensor.DataType) (*tensor.Handle, error) {
	return b.host.Cast(x, to)
}

func (b *Backend) Fill(shape tensor.Shape, dtype tensor.DataType, value float64) (*tensor.Handle, error) {
	return b.host.Fill(shape, dtype, value)
}
