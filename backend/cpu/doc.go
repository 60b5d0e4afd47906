// Copyright 2025 The Ebb Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go CPU backend for the Ebb engine.
//
// # Overview
//
// This package implements every engine kernel on the host CPU:
//   - Pure Go, no CGO
//   - All seven element types, with float16 staged through float32
//   - NumPy-compatible broadcasting for binary kernels
//   - Parallel execution across a worker pool, tunable per backend
//   - Pooled host allocations with live-buffer accounting
//
// Importing the package registers the "cpu" backend, so a blank import
// is enough for backend.New to find it:
//
//	import _ "github.com/ebb-ml/ebb/backend/cpu"
//
// # Basic Usage
//
//	import (
//	    "github.com/ebb-ml/ebb/backend/cpu"
//	    "github.com/ebb-ml/ebb/engine"
//	)
//
//	func main() {
//	    b := cpu.New()
//	    eng := engine.New(b)
//	    // ...
//	}
//
// # Configuration
//
// The registry config string selects the execution mode: "cpu" uses
// one worker per CPU core, "cpu:serial" disables parallelism and
// "cpu:<n>" uses n workers. The same options are available directly
// through NewWithConfig and WithParallel.
package cpu
