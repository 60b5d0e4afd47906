// Copyright 2025 The Ebb Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package engine

import (
	"github.com/ebb-ml/ebb/internal/engine"
)

// Sentinel errors returned by the engine. Match them with errors.Is;
// returned errors usually wrap them with call detail.
var (
	// ErrInvalidAxis reports an out-of-range or duplicate reduction axis.
	ErrInvalidAxis = engine.ErrInvalidAxis

	// ErrKernelExecution marks a kernel forward that failed. The engine
	// rolls the dispatch back: tape length and input refcounts are
	// unchanged.
	ErrKernelExecution = engine.ErrKernelExecution

	// ErrNoGradient reports a gradient walk that reached a kernel
	// without a gradient rule.
	ErrNoGradient = engine.ErrNoGradient

	// ErrNestedRecording reports BeginRecording while a session is
	// already open.
	ErrNestedRecording = engine.ErrNestedRecording

	// ErrNotRecording reports EndRecording without an open session.
	ErrNotRecording = engine.ErrNotRecording

	// ErrNonScalarOutput reports a gradient request whose seed output
	// holds more than one element.
	ErrNonScalarOutput = engine.ErrNonScalarOutput

	// ErrUnknownKernel reports dispatch of a name missing from the
	// kernel registry.
	ErrUnknownKernel = engine.ErrUnknownKernel
)

// KernelError wraps a kernel forward failure with the kernel name.
// errors.Is(err, ErrKernelExecution) matches it; errors.As recovers
// the kernel name.
type KernelError = engine.KernelError
