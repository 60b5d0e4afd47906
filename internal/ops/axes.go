// Package ops implements the built-in kernels and their gradient
// rules, and exposes one dispatch function per operation. Kernels
// register themselves by name; an engine executes them and records
// them on its tape.
package ops

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/ebb-ml/ebb/internal/engine"
)

// normalizeAxes resolves reduction axes against ndim: nil means all
// axes, negatives count from the end. The result is sorted ascending.
// Out-of-range and duplicate axes fail with ErrInvalidAxis.
func normalizeAxes(ndim int, axes []int) ([]int, error) {
	if axes == nil {
		all := make([]int, ndim)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}
	norm := make([]int, len(axes))
	seen := make(map[int]bool, len(axes))
	for i, ax := range axes {
		if ax < -ndim || ax >= ndim {
			return nil, errors.Wrapf(engine.ErrInvalidAxis, "axis %d out of range for %d-d tensor", ax, ndim)
		}
		if ax < 0 {
			ax += ndim
		}
		if seen[ax] {
			return nil, errors.Wrapf(engine.ErrInvalidAxis, "axis %d appears more than once", ax)
		}
		seen[ax] = true
		norm[i] = ax
	}
	sort.Ints(norm)
	return norm, nil
}

// reducePermutation orders the kept axes first and the reduced axes
// innermost, both ascending, so a trailing-axis reduction sees them
// contiguously. axes must be sorted and in range.
func reducePermutation(ndim int, axes []int) []int {
	reduced := make(map[int]bool, len(axes))
	for _, ax := range axes {
		reduced[ax] = true
	}
	perm := make([]int, 0, ndim)
	for i := 0; i < ndim; i++ {
		if !reduced[i] {
			perm = append(perm, i)
		}
	}
	perm = append(perm, axes...)
	return perm
}

// inversePermutation returns the permutation that undoes perm.
func inversePermutation(perm []int) []int {
	inv := make([]int, len(perm))
	for i, ax := range perm {
		inv[ax] = i
	}
	return inv
}

func isIdentity(perm []int) bool {
	for i, ax := range perm {
		if i != ax {
			return false
		}
	}
	return true
}
