package tensor

import (
	"fmt"
	"unsafe"

	"github.com/x448/float16"
)

// FromSlice creates a handle from a Go slice with the given shape.
// The data is copied into freshly allocated storage.
func FromSlice[T DType](data []T, shape Shape, alloc Allocator) (*Handle, error) {
	var dummy T
	dtype := inferDataType(dummy)

	if len(data) != shape.NumElements() {
		return nil, fmt.Errorf("data length %d does not match shape %v (%d elements)",
			len(data), shape, shape.NumElements())
	}

	h, err := New(shape, dtype, alloc)
	if err != nil {
		return nil, err
	}

	if len(data) > 0 {
		raw := h.Data()
		//nolint:gosec // unsafe.Slice for zero-copy view, length equals NumElements()
		dst := unsafe.Slice((*T)(unsafe.Pointer(&raw[0])), len(data))
		copy(dst, data)
	}
	return h, nil
}

// Zeros creates a zero-filled handle of the given shape.
func Zeros[T DType](shape Shape, alloc Allocator) (*Handle, error) {
	var dummy T
	return New(shape, inferDataType(dummy), alloc)
}

// Ones creates a handle of the given shape filled with ones
// (true for Bool).
func Ones[T DType](shape Shape, alloc Allocator) (*Handle, error) {
	return Full(oneValue[T](), shape, alloc)
}

// Full creates a handle of the given shape with every element set to
// value.
func Full[T DType](value T, shape Shape, alloc Allocator) (*Handle, error) {
	var dummy T
	h, err := New(shape, inferDataType(dummy), alloc)
	if err != nil {
		return nil, err
	}

	n := h.NumElements()
	if n > 0 {
		raw := h.Data()
		//nolint:gosec // unsafe.Slice for zero-copy view, length equals NumElements()
		dst := unsafe.Slice((*T)(unsafe.Pointer(&raw[0])), n)
		for i := range dst {
			dst[i] = value
		}
	}
	return h, nil
}

// Scalar creates a zero-dimensional handle holding a single value.
func Scalar[T DType](value T, alloc Allocator) (*Handle, error) {
	return Full(value, Shape{}, alloc)
}

// oneValue returns the multiplicative identity for T
// (true for bool, the float16 encoding of 1 for ~uint16).
func oneValue[T DType]() T {
	var v T
	switch p := any(&v).(type) {
	case *float32:
		*p = 1
	case *float64:
		*p = 1
	case *float16.Float16:
		*p = float16.Fromfloat32(1)
	case *uint16:
		*p = uint16(float16.Fromfloat32(1))
	case *int32:
		*p = 1
	case *int64:
		*p = 1
	case *uint8:
		*p = 1
	case *bool:
		*p = true
	default:
		panic("unsupported type")
	}
	return v
}
