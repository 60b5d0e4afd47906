// Copyright 2025 The Ebb Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/ebb-ml/ebb/internal/tensor"
)

// Type aliases for public API

// DType is a constraint for tensor element types.
// Supported types: float32, float64, float16.Float16, int32, int64,
// uint8, bool.
type DType = tensor.DType

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Float16 DataType = tensor.Float16
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
	Uint8   DataType = tensor.Uint8
	Bool    DataType = tensor.Bool
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
// An empty Shape is a scalar.
type Shape = tensor.Shape

// Handle is a reference-counted tensor.
//
// A handle carries a unique id, a shape, a dtype and one backend
// storage allocation. It starts with a single reference owned by the
// creator; Retain and Release adjust the count, and the storage is
// freed exactly once when the count reaches zero.
//
// Example:
//
//	b := cpu.New()
//	x, _ := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, b.Allocator())
//	defer x.Release()
type Handle = tensor.Handle

// Creation functions

// New creates a zero-filled handle with the given shape and dtype.
//
// This is the untyped creation path; most users should use the generic
// functions Zeros, Ones, Full or FromSlice instead.
func New(shape Shape, dtype DataType, alloc Allocator) (*Handle, error) {
	return tensor.New(shape, dtype, alloc)
}

// FromSlice creates a handle from a Go slice.
//
// data must hold exactly shape.NumElements() values; it is copied into
// fresh storage.
//
// Example:
//
//	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, b.Allocator())
func FromSlice[T DType](data []T, shape Shape, alloc Allocator) (*Handle, error) {
	return tensor.FromSlice(data, shape, alloc)
}

// Zeros creates a handle filled with zeros.
//
// Example:
//
//	x, _ := tensor.Zeros[float32](tensor.Shape{2, 3}, b.Allocator())
func Zeros[T DType](shape Shape, alloc Allocator) (*Handle, error) {
	return tensor.Zeros[T](shape, alloc)
}

// Ones creates a handle filled with ones.
//
// Example:
//
//	x, _ := tensor.Ones[float32](tensor.Shape{2, 3}, b.Allocator())
func Ones[T DType](shape Shape, alloc Allocator) (*Handle, error) {
	return tensor.Ones[T](shape, alloc)
}

// Full creates a handle filled with a specific value.
//
// Example:
//
//	x, _ := tensor.Full(float32(3.14), tensor.Shape{2, 3}, b.Allocator())
func Full[T DType](value T, shape Shape, alloc Allocator) (*Handle, error) {
	return tensor.Full(value, shape, alloc)
}

// Scalar creates a zero-dimensional handle holding one value.
//
// Example:
//
//	lr, _ := tensor.Scalar(float32(0.01), b.Allocator())
func Scalar[T DType](value T, alloc Allocator) (*Handle, error) {
	return tensor.Scalar(value, alloc)
}

// Utility functions

// BroadcastShapes computes the broadcast shape for two shapes following
// NumPy broadcasting rules. Returns the resulting shape and a flag
// indicating whether either operand needs broadcasting.
//
// Example:
//
//	out, needsBC, err := tensor.BroadcastShapes(tensor.Shape{3, 1}, tensor.Shape{3, 4})
//	// out = [3 4], needsBC = true
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}
