package ops

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/ebb-ml/ebb/internal/engine"
	"github.com/ebb-ml/ebb/internal/tensor"
)

func TestMaxShapes(t *testing.T) {
	e, c := newEngine(t)
	x := f32(t, c, tensor.Shape{2, 3, 4}, make([]float32, 24))
	defer x.Release()

	tests := []struct {
		name     string
		axes     []int
		keepDims bool
		want     tensor.Shape
	}{
		{"last axis", []int{2}, false, tensor.Shape{2, 3}},
		{"last axis kept", []int{2}, true, tensor.Shape{2, 3, 1}},
		{"middle axis", []int{1}, false, tensor.Shape{2, 4}},
		{"middle axis kept", []int{1}, true, tensor.Shape{2, 1, 4}},
		{"two axes", []int{0, 2}, false, tensor.Shape{3}},
		{"two axes kept", []int{0, 2}, true, tensor.Shape{1, 3, 1}},
		{"all axes", nil, false, tensor.Shape{}},
		{"all axes kept", nil, true, tensor.Shape{1, 1, 1}},
		{"negative axis", []int{-1}, false, tensor.Shape{2, 3}},
	}
	for _, tt := range tests {
		out, err := Max(e, x, tt.axes, tt.keepDims)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if !out.Shape().Equal(tt.want) {
			t.Errorf("%s: shape = %v, want %v", tt.name, out.Shape(), tt.want)
		}
		out.Release()
	}
}

func TestMaxValues(t *testing.T) {
	e, c := newEngine(t)
	// [[1 5 3] [4 2 6]]
	x := f32(t, c, tensor.Shape{2, 3}, []float32{1, 5, 3, 4, 2, 6})
	defer x.Release()

	rows, err := Max(e, x, []int{1}, false)
	if err != nil {
		t.Fatalf("Max rows: %v", err)
	}
	wantF32(t, rows, tensor.Shape{2}, []float32{5, 6}, 0)
	rows.Release()

	cols, err := Max(e, x, []int{0}, false)
	if err != nil {
		t.Fatalf("Max cols: %v", err)
	}
	wantF32(t, cols, tensor.Shape{3}, []float32{4, 5, 6}, 0)
	cols.Release()

	all, err := Max(e, x, nil, false)
	if err != nil {
		t.Fatalf("Max all: %v", err)
	}
	wantF32(t, all, tensor.Shape{}, []float32{6}, 0)
	all.Release()
}

func TestMaxInvalidAxes(t *testing.T) {
	e, c := newEngine(t)
	x := f32(t, c, tensor.Shape{2, 3}, make([]float32, 6))
	defer x.Release()

	for _, axes := range [][]int{{2}, {-3}, {0, 0}, {1, -1}} {
		if _, err := Max(e, x, axes, false); !errors.Is(err, engine.ErrInvalidAxis) {
			t.Errorf("Max(axes=%v) = %v, want ErrInvalidAxis", axes, err)
		}
	}
}

func TestMaxGradientVector(t *testing.T) {
	e, c := newEngine(t)
	x := f32(t, c, tensor.Shape{3}, []float32{1, 2, 3})
	defer x.Release()

	var out *tensor.Handle
	tape := record(t, e, func() {
		var err error
		out, err = Max(e, x, nil, false)
		if err != nil {
			t.Fatalf("Max: %v", err)
		}
	})
	defer tape.Discard()
	defer out.Release()

	gm, err := e.Gradients(tape, out, x)
	if err != nil {
		t.Fatalf("Gradients: %v", err)
	}
	defer gm.Release()

	g, ok := gm.Get(x)
	if !ok {
		t.Fatal("no gradient for x")
	}
	wantF32(t, g, tensor.Shape{3}, []float32{0, 0, 1}, 0)
}

func TestMaxGradientTies(t *testing.T) {
	e, c := newEngine(t)
	x := f32(t, c, tensor.Shape{4}, []float32{7, 3, 7, 1})
	defer x.Release()

	var out *tensor.Handle
	tape := record(t, e, func() {
		var err error
		out, err = Max(e, x, nil, false)
		if err != nil {
			t.Fatalf("Max: %v", err)
		}
	})
	defer tape.Discard()
	defer out.Release()

	gm, err := e.Gradients(tape, out, x)
	if err != nil {
		t.Fatalf("Gradients: %v", err)
	}
	defer gm.Release()

	// Every position tied for the maximum receives the full upstream.
	g, _ := gm.Get(x)
	wantF32(t, g, tensor.Shape{4}, []float32{1, 0, 1, 0}, 0)
}

func TestMaxGradientPermutedAxis(t *testing.T) {
	e, c := newEngine(t)
	// [[1 5 3] [4 2 6]]: max over axis 0 permutes before reducing and
	// the gradient must land back in original orientation.
	x := f32(t, c, tensor.Shape{2, 3}, []float32{1, 5, 3, 4, 2, 6})
	defer x.Release()

	var loss *tensor.Handle
	tape := record(t, e, func() {
		m, err := Max(e, x, []int{0}, false) // [4 5 6]
		if err != nil {
			t.Fatalf("Max: %v", err)
		}
		defer m.Release()
		loss, err = Sum(e, m, nil, false) // 15
		if err != nil {
			t.Fatalf("Sum: %v", err)
		}
	})
	defer tape.Discard()
	defer loss.Release()

	if got := loss.AsFloat32()[0]; got != 15 {
		t.Fatalf("loss = %v, want 15", got)
	}

	gm, err := e.Gradients(tape, loss, x)
	if err != nil {
		t.Fatalf("Gradients: %v", err)
	}
	defer gm.Release()

	g, _ := gm.Get(x)
	wantF32(t, g, tensor.Shape{2, 3}, []float32{0, 1, 0, 1, 0, 1}, 0)
}

func TestMaxGradientKeepDims(t *testing.T) {
	e, c := newEngine(t)
	x := f32(t, c, tensor.Shape{2, 3}, []float32{1, 5, 3, 4, 2, 6})
	defer x.Release()

	var loss *tensor.Handle
	tape := record(t, e, func() {
		m, err := Max(e, x, []int{1}, true) // [[5] [6]]
		if err != nil {
			t.Fatalf("Max: %v", err)
		}
		defer m.Release()
		if !m.Shape().Equal(tensor.Shape{2, 1}) {
			t.Fatalf("keepdims shape = %v, want [2 1]", m.Shape())
		}
		loss, err = Sum(e, m, nil, false)
		if err != nil {
			t.Fatalf("Sum: %v", err)
		}
	})
	defer tape.Discard()
	defer loss.Release()

	gm, err := e.Gradients(tape, loss, x)
	if err != nil {
		t.Fatalf("Gradients: %v", err)
	}
	defer gm.Release()

	g, _ := gm.Get(x)
	wantF32(t, g, tensor.Shape{2, 3}, []float32{0, 1, 0, 0, 0, 1}, 0)
}

func TestMinGradient(t *testing.T) {
	e, c := newEngine(t)
	x := f32(t, c, tensor.Shape{3}, []float32{4, 2, 9})
	defer x.Release()

	var out *tensor.Handle
	tape := record(t, e, func() {
		var err error
		out, err = Min(e, x, nil, false)
		if err != nil {
			t.Fatalf("Min: %v", err)
		}
	})
	defer tape.Discard()
	defer out.Release()

	if got := out.AsFloat32()[0]; got != 2 {
		t.Fatalf("Min = %v, want 2", got)
	}

	gm, err := e.Gradients(tape, out, x)
	if err != nil {
		t.Fatalf("Gradients: %v", err)
	}
	defer gm.Release()

	g, _ := gm.Get(x)
	wantF32(t, g, tensor.Shape{3}, []float32{0, 1, 0}, 0)
}

func TestSumForwardAndGradient(t *testing.T) {
	e, c := newEngine(t)
	x := f32(t, c, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	defer x.Release()

	var loss *tensor.Handle
	tape := record(t, e, func() {
		var err error
		loss, err = Sum(e, x, nil, false)
		if err != nil {
			t.Fatalf("Sum: %v", err)
		}
	})
	defer tape.Discard()
	defer loss.Release()

	if got := loss.AsFloat32()[0]; got != 21 {
		t.Fatalf("Sum = %v, want 21", got)
	}

	gm, err := e.Gradients(tape, loss, x)
	if err != nil {
		t.Fatalf("Gradients: %v", err)
	}
	defer gm.Release()

	g, _ := gm.Get(x)
	wantF32(t, g, tensor.Shape{2, 3}, []float32{1, 1, 1, 1, 1, 1}, 0)
}

func TestSumAxisValues(t *testing.T) {
	e, c := newEngine(t)
	x := f32(t, c, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	defer x.Release()

	cols, err := Sum(e, x, []int{0}, false)
	if err != nil {
		t.Fatalf("Sum axis 0: %v", err)
	}
	defer cols.Release()
	wantF32(t, cols, tensor.Shape{3}, []float32{5, 7, 9}, 0)

	kept, err := Sum(e, x, []int{0}, true)
	if err != nil {
		t.Fatalf("Sum axis 0 keepdims: %v", err)
	}
	defer kept.Release()
	wantF32(t, kept, tensor.Shape{1, 3}, []float32{5, 7, 9}, 0)
}

func TestMeanForwardAndGradient(t *testing.T) {
	e, c := newEngine(t)
	x := f32(t, c, tensor.Shape{4}, []float32{1, 2, 3, 6})
	defer x.Release()

	var out *tensor.Handle
	tape := record(t, e, func() {
		var err error
		out, err = Mean(e, x, nil, false)
		if err != nil {
			t.Fatalf("Mean: %v", err)
		}
	})
	defer tape.Discard()
	defer out.Release()

	if got := out.AsFloat32()[0]; got != 3 {
		t.Fatalf("Mean = %v, want 3", got)
	}

	gm, err := e.Gradients(tape, out, x)
	if err != nil {
		t.Fatalf("Gradients: %v", err)
	}
	defer gm.Release()

	g, _ := gm.Get(x)
	wantF32(t, g, tensor.Shape{4}, []float32{0.25, 0.25, 0.25, 0.25}, 1e-7)
}

func TestMeanRejectsInt(t *testing.T) {
	e, c := newEngine(t)
	x, err := tensor.FromSlice([]int32{1, 2}, tensor.Shape{2}, c.Allocator())
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	defer x.Release()

	if _, err := Mean(e, x, nil, false); !errors.Is(err, engine.ErrKernelExecution) {
		t.Fatalf("Mean(int32) = %v, want ErrKernelExecution", err)
	}
}

func TestReduceDisposalReturnsToZero(t *testing.T) {
	e, c := newEngine(t)
	x := f32(t, c, tensor.Shape{2, 3}, []float32{1, 5, 3, 4, 2, 6})

	var loss *tensor.Handle
	tape := record(t, e, func() {
		m, err := Max(e, x, []int{0}, true)
		if err != nil {
			t.Fatalf("Max: %v", err)
		}
		defer m.Release()
		loss, err = Sum(e, m, nil, false)
		if err != nil {
			t.Fatalf("Sum: %v", err)
		}
	})

	gm, err := e.Gradients(tape, loss, x)
	if err != nil {
		t.Fatalf("Gradients: %v", err)
	}

	gm.Release()
	tape.Discard()
	loss.Release()
	x.Release()
	if got := c.HostAllocator().LiveBuffers(); got != 0 {
		t.Errorf("live buffers after full disposal = %d, want 0", got)
	}
}
