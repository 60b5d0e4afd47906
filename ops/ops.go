// Copyright 2025 The Ebb Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ops

import (
	"github.com/ebb-ml/ebb/engine"
	"github.com/ebb-ml/ebb/internal/ops"
	"github.com/ebb-ml/ebb/tensor"
)

// Elementwise arithmetic. Operands broadcast following NumPy rules;
// both must share a dtype.

// Add returns a + b.
func Add(e *engine.Engine, a, b *tensor.Handle) (*tensor.Handle, error) {
	return ops.Add(e, a, b)
}

// Sub returns a - b.
func Sub(e *engine.Engine, a, b *tensor.Handle) (*tensor.Handle, error) {
	return ops.Sub(e, a, b)
}

// Mul returns the elementwise product a * b.
func Mul(e *engine.Engine, a, b *tensor.Handle) (*tensor.Handle, error) {
	return ops.Mul(e, a, b)
}

// Div returns the elementwise quotient a / b.
func Div(e *engine.Engine, a, b *tensor.Handle) (*tensor.Handle, error) {
	return ops.Div(e, a, b)
}

// Unary math.

// Neg returns -x.
func Neg(e *engine.Engine, x *tensor.Handle) (*tensor.Handle, error) {
	return ops.Neg(e, x)
}

// Exp returns e**x. Float dtypes only.
func Exp(e *engine.Engine, x *tensor.Handle) (*tensor.Handle, error) {
	return ops.Exp(e, x)
}

// Log returns the natural logarithm of x. Float dtypes only.
func Log(e *engine.Engine, x *tensor.Handle) (*tensor.Handle, error) {
	return ops.Log(e, x)
}

// Sqrt returns the square root of x. Float dtypes only.
func Sqrt(e *engine.Engine, x *tensor.Handle) (*tensor.Handle, error) {
	return ops.Sqrt(e, x)
}

// ReLU returns max(x, 0) elementwise.
func ReLU(e *engine.Engine, x *tensor.Handle) (*tensor.Handle, error) {
	return ops.ReLU(e, x)
}

// MatMul multiplies two 2-D operands of matching inner dimension.
func MatMul(e *engine.Engine, a, b *tensor.Handle) (*tensor.Handle, error) {
	return ops.MatMul(e, a, b)
}

// Reductions. A nil axes slice reduces over every axis; negative axes
// count from the last dimension. With keepDims the reduced axes stay
// in the result with size one, otherwise they are dropped.

// Max reduces x by maximum over the given axes.
//
// Example:
//
//	m, err := ops.Max(eng, x, []int{-1}, true) // innermost axis, kept
func Max(e *engine.Engine, x *tensor.Handle, axes []int, keepDims bool) (*tensor.Handle, error) {
	return ops.Max(e, x, axes, keepDims)
}

// Min reduces x by minimum over the given axes.
func Min(e *engine.Engine, x *tensor.Handle, axes []int, keepDims bool) (*tensor.Handle, error) {
	return ops.Min(e, x, axes, keepDims)
}

// Sum reduces x by addition over the given axes.
func Sum(e *engine.Engine, x *tensor.Handle, axes []int, keepDims bool) (*tensor.Handle, error) {
	return ops.Sum(e, x, axes, keepDims)
}

// Mean reduces x by arithmetic mean over the given axes. Float dtypes
// only.
func Mean(e *engine.Engine, x *tensor.Handle, axes []int, keepDims bool) (*tensor.Handle, error) {
	return ops.Mean(e, x, axes, keepDims)
}

// Movement.

// Reshape returns x with a new shape holding the same number of
// elements.
func Reshape(e *engine.Engine, x *tensor.Handle, shape tensor.Shape) (*tensor.Handle, error) {
	return ops.Reshape(e, x, shape)
}

// Transpose permutes the axes of x. A nil axes slice reverses all
// dimensions.
func Transpose(e *engine.Engine, x *tensor.Handle, axes []int) (*tensor.Handle, error) {
	return ops.Transpose(e, x, axes)
}

// Utilities without gradient rules.

// Cast converts x to the given dtype. Gradients do not flow through a
// cast.
func Cast(e *engine.Engine, x *tensor.Handle, to tensor.DataType) (*tensor.Handle, error) {
	return ops.Cast(e, x, to)
}

// Greater returns the elementwise Bool mask a > b.
func Greater(e *engine.Engine, a, b *tensor.Handle) (*tensor.Handle, error) {
	return ops.Greater(e, a, b)
}

// Equal returns the elementwise Bool mask a == b.
func Equal(e *engine.Engine, a, b *tensor.Handle) (*tensor.Handle, error) {
	return ops.Equal(e, a, b)
}
