package ops

import (
	"testing"

	"github.com/ebb-ml/ebb/internal/tensor"
)

func TestAddForward(t *testing.T) {
	e, c := newEngine(t)
	a := f32(t, c, tensor.Shape{2, 2}, []float32{1, 2, 3, 4})
	b := f32(t, c, tensor.Shape{2, 2}, []float32{5, 6, 7, 8})
	defer a.Release()
	defer b.Release()

	out, err := Add(e, a, b)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	defer out.Release()
	wantF32(t, out, tensor.Shape{2, 2}, []float32{6, 8, 10, 12}, 0)
}

func TestAddGradientBroadcast(t *testing.T) {
	e, c := newEngine(t)
	a := f32(t, c, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	bias := f32(t, c, tensor.Shape{3}, []float32{10, 20, 30})
	defer a.Release()
	defer bias.Release()

	var loss *tensor.Handle
	tape := record(t, e, func() {
		z, err := Add(e, a, bias)
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		defer z.Release()
		loss, err = Sum(e, z, nil, false)
		if err != nil {
			t.Fatalf("Sum: %v", err)
		}
	})
	defer tape.Discard()
	defer loss.Release()

	gm, err := e.Gradients(tape, loss, a, bias)
	if err != nil {
		t.Fatalf("Gradients: %v", err)
	}
	defer gm.Release()

	ga, _ := gm.Get(a)
	wantF32(t, ga, tensor.Shape{2, 3}, []float32{1, 1, 1, 1, 1, 1}, 0)
	// The bias was broadcast over two rows; its gradient sums them.
	gb, _ := gm.Get(bias)
	wantF32(t, gb, tensor.Shape{3}, []float32{2, 2, 2}, 0)
}

func TestSubGradient(t *testing.T) {
	e, c := newEngine(t)
	a := f32(t, c, tensor.Shape{2}, []float32{5, 7})
	b := f32(t, c, tensor.Shape{2}, []float32{1, 2})
	defer a.Release()
	defer b.Release()

	var loss *tensor.Handle
	tape := record(t, e, func() {
		z, err := Sub(e, a, b)
		if err != nil {
			t.Fatalf("Sub: %v", err)
		}
		defer z.Release()
		loss, err = Sum(e, z, nil, false)
		if err != nil {
			t.Fatalf("Sum: %v", err)
		}
	})
	defer tape.Discard()
	defer loss.Release()

	gm, err := e.Gradients(tape, loss, a, b)
	if err != nil {
		t.Fatalf("Gradients: %v", err)
	}
	defer gm.Release()

	ga, _ := gm.Get(a)
	wantF32(t, ga, tensor.Shape{2}, []float32{1, 1}, 0)
	gb, _ := gm.Get(b)
	wantF32(t, gb, tensor.Shape{2}, []float32{-1, -1}, 0)
}

func TestMulGradient(t *testing.T) {
	e, c := newEngine(t)
	a := f32(t, c, tensor.Shape{2}, []float32{2, 3})
	b := f32(t, c, tensor.Shape{2}, []float32{10, 100})
	defer a.Release()
	defer b.Release()

	var loss *tensor.Handle
	tape := record(t, e, func() {
		z, err := Mul(e, a, b)
		if err != nil {
			t.Fatalf("Mul: %v", err)
		}
		defer z.Release()
		loss, err = Sum(e, z, nil, false)
		if err != nil {
			t.Fatalf("Sum: %v", err)
		}
	})
	defer tape.Discard()
	defer loss.Release()

	gm, err := e.Gradients(tape, loss, a, b)
	if err != nil {
		t.Fatalf("Gradients: %v", err)
	}
	defer gm.Release()

	ga, _ := gm.Get(a)
	wantF32(t, ga, tensor.Shape{2}, []float32{10, 100}, 0)
	gb, _ := gm.Get(b)
	wantF32(t, gb, tensor.Shape{2}, []float32{2, 3}, 0)
}

func TestDivGradient(t *testing.T) {
	e, c := newEngine(t)
	a := f32(t, c, tensor.Shape{2}, []float32{6, 8})
	b := f32(t, c, tensor.Shape{2}, []float32{2, 4})
	defer a.Release()
	defer b.Release()

	var loss *tensor.Handle
	tape := record(t, e, func() {
		z, err := Div(e, a, b)
		if err != nil {
			t.Fatalf("Div: %v", err)
		}
		defer z.Release()
		loss, err = Sum(e, z, nil, false)
		if err != nil {
			t.Fatalf("Sum: %v", err)
		}
	})
	defer tape.Discard()
	defer loss.Release()

	gm, err := e.Gradients(tape, loss, a, b)
	if err != nil {
		t.Fatalf("Gradients: %v", err)
	}
	defer gm.Release()

	// d(a/b)/da = 1/b; d(a/b)/db = -a/b^2.
	ga, _ := gm.Get(a)
	wantF32(t, ga, tensor.Shape{2}, []float32{0.5, 0.25}, 1e-7)
	gb, _ := gm.Get(b)
	wantF32(t, gb, tensor.Shape{2}, []float32{-1.5, -0.5}, 1e-7)
}

func TestMulGradientBroadcastScalar(t *testing.T) {
	e, c := newEngine(t)
	x := f32(t, c, tensor.Shape{3}, []float32{1, 2, 3})
	s := f32(t, c, tensor.Shape{}, []float32{2})
	defer x.Release()
	defer s.Release()

	var loss *tensor.Handle
	tape := record(t, e, func() {
		z, err := Mul(e, x, s)
		if err != nil {
			t.Fatalf("Mul: %v", err)
		}
		defer z.Release()
		loss, err = Sum(e, z, nil, false)
		if err != nil {
			t.Fatalf("Sum: %v", err)
		}
	})
	defer tape.Discard()
	defer loss.Release()

	gm, err := e.Gradients(tape, loss, x, s)
	if err != nil {
		t.Fatalf("Gradients: %v", err)
	}
	defer gm.Release()

	gx, _ := gm.Get(x)
	wantF32(t, gx, tensor.Shape{3}, []float32{2, 2, 2}, 0)
	// The scalar was broadcast across all three positions; its gradient
	// collapses back to a scalar sum.
	gs, _ := gm.Get(s)
	wantF32(t, gs, tensor.Shape{}, []float32{6}, 0)
}
