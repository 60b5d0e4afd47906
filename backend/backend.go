// Copyright 2025 The Ebb Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package backend defines the compute backend contract and the backend
// registry.
//
// A Backend implements one method per engine kernel over tensor
// handles. Backends register a constructor under a name; callers pick
// one by config string, so the compute device is swappable without
// touching engine code.
//
// Example:
//
//	import (
//	    "github.com/ebb-ml/ebb/backend"
//	    _ "github.com/ebb-ml/ebb/backend/cpu" // register the cpu backend
//	)
//
//	func main() {
//	    b, err := backend.New() // honors EBB_BACKEND, defaults to cpu
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(b.Name(), b.Description())
//	}
//
// Config strings take the form "name" or "name:options", where the
// options part is passed to the backend constructor. The cpu backend
// accepts "cpu", "cpu:serial" and "cpu:<workers>".
package backend

import (
	"github.com/ebb-ml/ebb/internal/backend"
)

// Backend is the capability surface a compute device implements: one
// method per kernel, plus identity and an allocator for tensor
// storage. All methods return freshly owned handles.
type Backend = backend.Backend

// Device identifies the hardware class a backend computes on.
type Device = backend.Device

// Device constants.
const (
	CPU    Device = backend.CPU
	WebGPU Device = backend.WebGPU
)

// Constructor builds a backend from the options part of a config
// string.
type Constructor = backend.Constructor

// Register adds a backend constructor under a name. Backends call it
// from init; registering a duplicate name panics.
func Register(name string, constructor Constructor) {
	backend.Register(name, constructor)
}

// Registered returns the sorted names of all registered backends.
func Registered() []string {
	return backend.Registered()
}

// EnvVar is the environment variable New consults for the default
// backend config.
const EnvVar = backend.EnvVar

// New creates a backend from the EBB_BACKEND environment variable,
// falling back to the first registered backend.
func New() (Backend, error) {
	return backend.New()
}

// NewWithConfig creates a backend from an explicit config string such
// as "cpu" or "cpu:serial".
func NewWithConfig(config string) (Backend, error) {
	return backend.NewWithConfig(config)
}
