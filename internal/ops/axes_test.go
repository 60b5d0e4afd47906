package ops

import (
	"reflect"
	"testing"

	"github.com/pkg/errors"

	"github.com/ebb-ml/ebb/internal/engine"
)

func TestNormalizeAxes(t *testing.T) {
	tests := []struct {
		name    string
		ndim    int
		axes    []int
		want    []int
		wantErr bool
	}{
		{"nil means all", 3, nil, []int{0, 1, 2}, false},
		{"explicit", 3, []int{2, 0}, []int{0, 2}, false},
		{"negative from end", 3, []int{-1}, []int{2}, false},
		{"negative full range", 2, []int{-2}, []int{0}, false},
		{"empty stays empty", 2, []int{}, []int{}, false},
		{"out of range", 2, []int{2}, nil, true},
		{"far negative", 2, []int{-3}, nil, true},
		{"duplicate", 3, []int{1, 1}, nil, true},
		{"duplicate via negative", 3, []int{1, -2}, nil, true},
	}
	for _, tt := range tests {
		got, err := normalizeAxes(tt.ndim, tt.axes)
		if tt.wantErr {
			if !errors.Is(err, engine.ErrInvalidAxis) {
				t.Errorf("%s: err = %v, want ErrInvalidAxis", tt.name, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %v", tt.name, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: normalizeAxes = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestReducePermutation(t *testing.T) {
	tests := []struct {
		ndim int
		axes []int
		want []int
	}{
		{3, []int{2}, []int{0, 1, 2}},
		{3, []int{0}, []int{1, 2, 0}},
		{3, []int{1}, []int{0, 2, 1}},
		{4, []int{0, 2}, []int{1, 3, 0, 2}},
		{2, []int{0, 1}, []int{0, 1}},
	}
	for _, tt := range tests {
		got := reducePermutation(tt.ndim, tt.axes)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("reducePermutation(%d, %v) = %v, want %v", tt.ndim, tt.axes, got, tt.want)
		}
	}
}

func TestInversePermutation(t *testing.T) {
	perms := [][]int{
		{0, 1, 2},
		{2, 0, 1},
		{1, 3, 0, 2},
		{1, 0},
	}
	for _, perm := range perms {
		inv := inversePermutation(perm)
		for i, ax := range perm {
			if inv[ax] != i {
				t.Errorf("inversePermutation(%v) = %v: inv[%d] = %d, want %d", perm, inv, ax, inv[ax], i)
			}
		}
	}
}

func TestPermutationAxes(t *testing.T) {
	got, err := permutationAxes(3, nil)
	if err != nil || !reflect.DeepEqual(got, []int{2, 1, 0}) {
		t.Errorf("permutationAxes(3, nil) = %v, %v, want [2 1 0]", got, err)
	}

	got, err = permutationAxes(2, []int{-1, -2})
	if err != nil || !reflect.DeepEqual(got, []int{1, 0}) {
		t.Errorf("permutationAxes(2, [-1 -2]) = %v, %v, want [1 0]", got, err)
	}

	for _, axes := range [][]int{{0}, {0, 0}, {0, 2}} {
		if _, err := permutationAxes(2, axes); !errors.Is(err, engine.ErrInvalidAxis) {
			t.Errorf("permutationAxes(2, %v) = %v, want ErrInvalidAxis", axes, err)
		}
	}
}
