// Package webgpu implements a GPU backend on top of wgpu-native via
// the zero-CGO go-webgpu bindings.
//
// Float32 arithmetic (binary elementwise, unary math, 2-D matmul and
// matrix transpose) runs as WGSL compute shaders; every other kernel
// and dtype falls back to an embedded CPU backend, so the full backend
// contract holds on any input. Tensor storage stays in host memory and
// each dispatch uploads its operands and reads the result back.
//
// The native wgpu library currently ships for windows only, so the
// real implementation is build-tagged; other platforms get a stub that
// fails construction.
package webgpu

import (
	"github.com/ebb-ml/ebb/internal/backend"
)

func init() {
	backend.Register("webgpu", newBackend)
}

// IsAvailable reports whether a WebGPU adapter can be acquired on this
// system. Useful for graceful fallback to the CPU backend.
func IsAvailable() bool {
	return available()
}
