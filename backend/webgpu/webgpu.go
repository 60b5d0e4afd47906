// Copyright 2025 The Ebb Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU backend for GPU-accelerated
// kernels.
//
// Float32 arithmetic runs as WGSL compute shaders; every other kernel
// and dtype transparently falls back to the CPU backend, so an engine
// bound to this backend supports the full operator set. The native
// wgpu library ships for windows; on other platforms construction
// fails with an error.
//
// Importing the package registers the "webgpu" backend:
//
//	import _ "github.com/ebb-ml/ebb/backend/webgpu"
//
// Example:
//
//	if webgpu.IsAvailable() {
//	    b, err := webgpu.New()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    eng := engine.New(b)
//	    // ...
//	} else {
//	    eng := engine.New(cpu.New())
//	}
package webgpu

import (
	"github.com/ebb-ml/ebb/backend"
	internalwebgpu "github.com/ebb-ml/ebb/internal/backend/webgpu"
)

// New creates a WebGPU backend with default host fallback settings.
// It fails when no compatible adapter or native library is present.
func New() (backend.Backend, error) {
	return backend.NewWithConfig("webgpu")
}

// NewWithConfig creates a WebGPU backend; the config string configures
// the host fallback the same way it configures the cpu backend
// ("serial" or a worker count).
func NewWithConfig(config string) (backend.Backend, error) {
	return backend.NewWithConfig("webgpu:" + config)
}

// IsAvailable reports whether a WebGPU adapter can be acquired. Useful
// for graceful fallback to the CPU backend.
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
