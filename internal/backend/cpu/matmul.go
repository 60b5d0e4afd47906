package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/ebb-ml/ebb/internal/parallel"
	"github.com/ebb-ml/ebb/internal/tensor"
)

// matmulRows multiplies row-major m×k by k×n into dst using an i-k-j
// loop order so the inner loop streams both dst and b.
func matmulRows[T number](dst, a, b []T, m, k, n int, cfg parallel.Config) {
	parallel.For(m, func(i int) {
		dstRow := dst[i*n : (i+1)*n]
		for p := 0; p < k; p++ {
			aip := a[i*k+p]
			if aip == 0 {
				continue
			}
			bRow := b[p*n : (p+1)*n]
			for j, bv := range bRow {
				dstRow[j] += aip * bv
			}
		}
	}, cfg)
}

// MatMul computes the 2-D matrix product a @ b.
func (c *CPUBackend) MatMul(a, b *tensor.Handle) (*tensor.Handle, error) {
	if a.DType() != b.DType() {
		return nil, fmt.Errorf("matmul: dtype mismatch: %s vs %s", a.DType(), b.DType())
	}
	if len(a.Shape()) != 2 || len(b.Shape()) != 2 {
		return nil, fmt.Errorf("matmul: expected 2-d operands, got %v and %v", a.Shape(), b.Shape())
	}
	m, k := a.Shape()[0], a.Shape()[1]
	if b.Shape()[0] != k {
		return nil, fmt.Errorf("matmul: inner dimensions do not match: %v @ %v", a.Shape(), b.Shape())
	}
	n := b.Shape()[1]

	out, err := tensor.New(tensor.Shape{m, n}, a.DType(), c.alloc)
	if err != nil {
		return nil, fmt.Errorf("matmul: %w", err)
	}

	switch a.DType() {
	case tensor.Float32:
		matmulRows(out.AsFloat32(), a.AsFloat32(), b.AsFloat32(), m, k, n, c.par)
	case tensor.Float64:
		// gonum's Dense.Mul is considerably faster than the naive loop
		// for float64; the Dense views share the handles' backing arrays.
		dst := mat.NewDense(m, n, out.AsFloat64())
		dst.Mul(mat.NewDense(m, k, a.AsFloat64()), mat.NewDense(k, n, b.AsFloat64()))
	case tensor.Float16:
		staged := make([]float32, m*n)
		matmulRows(staged, f16ToF32(a.AsFloat16()), f16ToF32(b.AsFloat16()), m, k, n, c.par)
		f32IntoF16(out.AsFloat16(), staged)
	case tensor.Int32:
		matmulRows(out.AsInt32(), a.AsInt32(), b.AsInt32(), m, k, n, c.par)
	case tensor.Int64:
		matmulRows(out.AsInt64(), a.AsInt64(), b.AsInt64(), m, k, n, c.par)
	default:
		out.Release()
		return nil, fmt.Errorf("matmul: unsupported dtype %s", a.DType())
	}
	return out, nil
}
