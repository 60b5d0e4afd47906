// Copyright 2025 The Ebb Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package engine

import (
	"github.com/ebb-ml/ebb/internal/backend"
	"github.com/ebb-ml/ebb/internal/engine"
	"github.com/ebb-ml/ebb/internal/tensor"
)

// Engine dispatches kernels against a backend and records them on a
// tape while a session is open.
//
// Example:
//
//	eng := engine.New(cpu.New())
//	eng.BeginRecording()
//	y, err := ops.Mul(eng, a, b)
//	tape, _ := eng.EndRecording()
//	defer tape.Discard()
type Engine = engine.Engine

// New creates an engine bound to the given backend.
func New(b backend.Backend) *Engine {
	return engine.New(b)
}

// Tape is the append-only log of kernel invocations recorded during
// one session. Discard releases the tensors it pins.
type Tape = engine.Tape

// Record is one immutable tape entry: kernel name, named input ids in
// call order, output ids, saved tensor ids and the invocation config.
type Record = engine.Record

// GradientMap holds the gradients produced by a reverse walk, keyed by
// forward tensor id. Release frees all contained handles.
type GradientMap = engine.GradientMap

// Evaluate walks the tape backwards from the seed gradients and
// returns gradients for the requested target ids.
//
// Records that cannot influence any seed, or that receive no upstream
// gradient, are skipped. A reachable record that carries no gradient
// rule fails the walk with ErrNoGradient. Most callers should use
// Engine.Gradients, which seeds a ones tensor for a scalar output.
func Evaluate(b backend.Backend, t *Tape, seeds map[uint64]*tensor.Handle, targets []uint64) (GradientMap, error) {
	return engine.Evaluate(b, t, seeds, targets)
}
