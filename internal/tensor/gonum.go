package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ToGonum copies a 2-D Float64 handle into a gonum dense matrix.
// The returned matrix owns its data, so the handle can be released
// independently.
func ToGonum(h *Handle) (*mat.Dense, error) {
	shape := h.Shape()
	if len(shape) != 2 {
		return nil, fmt.Errorf("gonum interop requires a 2-D handle, got shape %v", shape)
	}
	if h.DType() != Float64 {
		return nil, fmt.Errorf("gonum interop requires Float64, got %s", h.DType())
	}

	data := make([]float64, h.NumElements())
	copy(data, h.AsFloat64())
	return mat.NewDense(shape[0], shape[1], data), nil
}

// FromGonum copies a gonum matrix into a new 2-D Float64 handle.
func FromGonum(m mat.Matrix, alloc Allocator) (*Handle, error) {
	rows, cols := m.Dims()
	h, err := New(Shape{rows, cols}, Float64, alloc)
	if err != nil {
		return nil, err
	}

	dst := h.AsFloat64()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			dst[i*cols+j] = m.At(i, j)
		}
	}
	return h, nil
}
