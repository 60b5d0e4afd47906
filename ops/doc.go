// Copyright 2025 The Ebb Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package ops provides the built-in differentiable operators of the
// Ebb engine.
//
// # Overview
//
// Every function here validates its arguments, assembles a kernel
// invocation and dispatches it through the engine, so calls made
// inside a recording session land on the tape and participate in
// gradient evaluation. The operator set covers:
//   - Elementwise arithmetic with broadcasting: Add, Sub, Mul, Div
//   - Unary math: Neg, Exp, Log, Sqrt, ReLU
//   - Matrix multiplication: MatMul
//   - Reductions over arbitrary axes: Max, Min, Sum, Mean
//   - Movement: Reshape, Transpose
//   - Non-differentiable utilities: Cast, Greater, Equal
//
// # Basic Usage
//
//	eng := engine.New(cpu.New())
//	alloc := eng.Backend().Allocator()
//
//	x, _ := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, alloc)
//	defer x.Release()
//
//	eng.BeginRecording()
//	m, _ := ops.Max(eng, x, []int{1}, false) // row maxima, shape [2]
//	loss, _ := ops.Sum(eng, m, nil, false)   // scalar
//	tape, _ := eng.EndRecording()
//	defer tape.Discard()
//	defer m.Release()
//	defer loss.Release()
//
//	grads, _ := eng.Gradients(tape, loss, x)
//	defer grads.Release()
//
// # Axes
//
// Reduction and transpose axes may be negative, counting from the last
// dimension, so -1 always names the innermost axis. Out-of-range or
// duplicate axes fail with engine.ErrInvalidAxis. A nil axes slice
// reduces over every axis (for reductions) or reverses all dimensions
// (for Transpose).
//
// # Gradients
//
// Differentiable operators carry gradient rules registered alongside
// their kernels. Gradients are computed in the operand's dtype; ties
// in Max and Min propagate the full upstream gradient to every tied
// position. Cast, Greater and Equal have no gradient rule: recording
// them is fine, but a gradient walk that needs to pass through one
// fails with engine.ErrNoGradient.
package ops
