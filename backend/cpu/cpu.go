// Copyright 2025 The Ebb Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"github.com/ebb-ml/ebb/backend"
	internalcpu "github.com/ebb-ml/ebb/internal/backend/cpu"
)

// Backend is the CPU backend implementation.
type Backend = internalcpu.CPUBackend

// Allocator is the pooled host allocator backing CPU tensors. Its
// Stats and LiveBuffers methods expose allocation accounting; reach it
// through Backend.HostAllocator.
type Allocator = internalcpu.Allocator

// Compile-time check that Backend implements backend.Backend.
var _ backend.Backend = (*Backend)(nil)

// New creates a CPU backend with one worker per CPU core.
//
// Example:
//
//	b := cpu.New()
//	eng := engine.New(b)
func New() *Backend {
	return internalcpu.New()
}

// NewWithConfig creates a CPU backend from a registry config string.
// An empty config uses defaults; "serial" disables the worker pool; a
// number sets the worker count.
func NewWithConfig(config string) (*Backend, error) {
	return internalcpu.NewWithConfig(config)
}
