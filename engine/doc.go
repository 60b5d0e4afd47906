// Copyright 2025 The Ebb Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package engine provides the Ebb execution engine: kernel dispatch,
// tape recording and reverse-mode gradient evaluation.
//
// # Overview
//
// An Engine owns a backend and dispatches registered kernels against
// it. While a recording session is open, every dispatch appends an
// immutable record to a tape; walking the tape backwards evaluates
// gradients. This package provides:
//   - Engine: explicit engine context, one per backend (no globals)
//   - Tape and Record: the append-only invocation log
//   - GradientMap: the result of a reverse gradient walk
//   - The engine error taxonomy (ErrInvalidAxis, ErrKernelExecution, ...)
//
// # Basic Usage
//
//	import (
//	    "github.com/ebb-ml/ebb/backend/cpu"
//	    "github.com/ebb-ml/ebb/engine"
//	    "github.com/ebb-ml/ebb/ops"
//	    "github.com/ebb-ml/ebb/tensor"
//	)
//
//	func main() {
//	    eng := engine.New(cpu.New())
//
//	    x, _ := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, eng.Backend().Allocator())
//	    defer x.Release()
//
//	    eng.BeginRecording()
//	    y, _ := ops.Max(eng, x, nil, false) // scalar max
//	    tape, _ := eng.EndRecording()
//	    defer tape.Discard()
//	    defer y.Release()
//
//	    grads, _ := eng.Gradients(tape, y, x)
//	    defer grads.Release()
//
//	    dx, _ := grads.Get(x)
//	    fmt.Println(dx.AsFloat32()) // [0 0 1]
//	}
//
// # Recording Sessions
//
// The engine is a two-state machine: idle or recording. BeginRecording
// opens a session and fails with ErrNestedRecording if one is already
// open; EndRecording closes it and hands the tape to the caller. Tapes
// pin the tensors gradient rules need, so callers must Discard a tape
// once they are done with it.
//
// # Memory Discipline
//
// Dispatch never steals references: the engine retains inputs for the
// duration of a kernel call and releases them afterwards, and returns
// outputs owned by the caller. A failed dispatch rolls back completely,
// leaving tape length and every input refcount unchanged.
//
// # Concurrency
//
// An Engine serializes all its public methods with an internal mutex.
// Handles themselves are safe to retain and release concurrently.
package engine
