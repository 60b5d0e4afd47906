// Copyright 2025 The Ebb Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides reference-counted tensor handles for the Ebb
// compute engine.
//
// # Overview
//
// Handles are the fundamental value type in Ebb. This package provides:
//   - Handle: an immutable tensor descriptor with explicit reference counting
//   - Shape and DataType: dimension and element-type descriptions
//   - Storage and Allocator: the backend memory contract
//   - NumPy-style broadcast shape computation
//
// # Basic Usage
//
//	import (
//	    "github.com/ebb-ml/ebb/backend/cpu"
//	    "github.com/ebb-ml/ebb/tensor"
//	)
//
//	func main() {
//	    b := cpu.New()
//
//	    x, _ := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, b.Allocator())
//	    defer x.Release()
//
//	    fmt.Println(x.Shape(), x.DType()) // [2 3] float32
//	}
//
// # Supported Data Types
//
// The DType constraint covers the element types a handle can hold:
//   - float32, float64 (floating point)
//   - float16.Float16 (half precision, stored as uint16)
//   - int32, int64 (signed integers)
//   - uint8 (unsigned integers, useful for images)
//   - bool (comparison masks)
//
// # Memory Management
//
// Every handle starts with one reference owned by its creator. Retain
// adds a reference, Release drops one. When the count reaches zero the
// backing storage is freed exactly once and the handle becomes dead;
// further Release calls are no-ops. Functions that return handles
// transfer ownership of one reference to the caller.
//
//	y, _ := tensor.Ones[float32](tensor.Shape{4}, b.Allocator())
//	y.Retain() // second owner
//	y.Release()
//	y.Release() // storage freed here
package tensor
