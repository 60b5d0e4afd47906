// Copyright 2025 The Ebb Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"gonum.org/v1/gonum/mat"

	"github.com/ebb-ml/ebb/internal/tensor"
)

// ToGonum copies a 2-D Float64 handle into a gonum dense matrix.
//
// The returned matrix owns its data; mutating it does not affect the
// handle.
//
// Example:
//
//	m, err := tensor.ToGonum(x) // x has shape [rows, cols], dtype Float64
//	svd := new(mat.SVD)
//	svd.Factorize(m, mat.SVDThin)
func ToGonum(h *Handle) (*mat.Dense, error) {
	return tensor.ToGonum(h)
}

// FromGonum creates a Float64 handle from any gonum matrix.
//
// The matrix data is copied; the handle does not alias it.
func FromGonum(m mat.Matrix, alloc Allocator) (*Handle, error) {
	return tensor.FromGonum(m, alloc)
}
