// Copyright 2025 The Ebb Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/ebb-ml/ebb/internal/tensor"

// Storage is a single backend allocation holding tensor data.
//
// Each handle owns exactly one storage and frees it when the handle's
// reference count reaches zero. Backends decide what a storage is: the
// CPU backend hands out pooled host buffers, a GPU backend would wrap
// device memory.
type Storage = tensor.Storage

// Allocator hands out zeroed storage for new handles.
//
// Every backend provides one via its Allocator method, keeping
// allocation policy (pooling, accounting, device placement) a backend
// concern. Creation functions in this package take an Allocator so
// callers choose where tensor data lives:
//
//	b := cpu.New()
//	x, _ := tensor.Zeros[float32](tensor.Shape{8}, b.Allocator())
type Allocator = tensor.Allocator
