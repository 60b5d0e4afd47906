package ops

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/ebb-ml/ebb/internal/engine"
	"github.com/ebb-ml/ebb/internal/tensor"
)

func TestReshapeGradient(t *testing.T) {
	e, c := newEngine(t)
	x := f32(t, c, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	defer x.Release()

	var loss *tensor.Handle
	tape := record(t, e, func() {
		flat, err := Reshape(e, x, tensor.Shape{6})
		if err != nil {
			t.Fatalf("Reshape: %v", err)
		}
		defer flat.Release()
		if !flat.Shape().Equal(tensor.Shape{6}) {
			t.Fatalf("reshape shape = %v", flat.Shape())
		}
		loss, err = Sum(e, flat, nil, false)
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
	wantF32(t, g, tensor.Shape{2, 3}, []float32{1, 1, 1, 1, 1, 1}, 0)
}

func TestTransposeForwardAndGradient(t *testing.T) {
	e, c := newEngine(t)
	x := f32(t, c, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	w := f32(t, c, tensor.Shape{3, 2}, []float32{1, 0, 0, 1, 1, 1})
	defer x.Release()
	defer w.Release()

	var loss *tensor.Handle
	tape := record(t, e, func() {
		xt, err := Transpose(e, x, nil) // [3 2]
		if err != nil {
			t.Fatalf("Transpose: %v", err)
		}
		defer xt.Release()
		wantF32(t, xt, tensor.Shape{3, 2}, []float32{1, 4, 2, 5, 3, 6}, 0)

		z, err := Mul(e, xt, w)
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

	gm, err := e.Gradients(tape, loss, x)
	if err != nil {
		t.Fatalf("Gradients: %v", err)
	}
	defer gm.Release()

	// d(loss)/dx is w^T: the transpose gradient permutes back with the
	// exact inverse.
	g, _ := gm.Get(x)
	wantF32(t, g, tensor.Shape{2, 3}, []float32{1, 0, 1, 0, 1, 1}, 0)
}

func TestTransposeInvalidAxes(t *testing.T) {
	e, c := newEngine(t)
	x := f32(t, c, tensor.Shape{2, 3}, make([]float32, 6))
	defer x.Release()

	for _, axes := range [][]int{{0}, {0, 0}, {0, 2}} {
		if _, err := Transpose(e, x, axes); !errors.Is(err, engine.ErrInvalidAxis) {
			t.Errorf("Transpose(%v) = %v, want ErrInvalidAxis", axes, err)
		}
	}
}

func TestCastStopsGradients(t *testing.T) {
	e, c := newEngine(t)
	x := f32(t, c, tensor.Shape{2}, []float32{1.5, 2.5})
	defer x.Release()

	var out *tensor.Handle
	tape := record(t, e, func() {
		i, err := Cast(e, x, tensor.Int32)
		if err != nil {
			t.Fatalf("Cast: %v", err)
		}
		defer i.Release()
		back, err := Cast(e, i, tensor.Float32)
		if err != nil {
			t.Fatalf("Cast back: %v", err)
		}
		defer back.Release()
		out, err = Sum(e, back, nil, false)
		if err != nil {
			t.Fatalf("Sum: %v", err)
		}
	})
	defer tape.Discard()
	defer out.Release()

	if _, err := e.Gradients(tape, out, x); !errors.Is(err, engine.ErrNoGradient) {
		t.Fatalf("Gradients through cast = %v, want ErrNoGradient", err)
	}
}

func TestGreaterEqualForward(t *testing.T) {
	e, c := newEngine(t)
	a := f32(t, c, tensor.Shape{3}, []float32{1, 5, 3})
	b := f32(t, c, tensor.Shape{3}, []float32{2, 5, 1})
	defer a.Release()
	defer b.Release()

	gt, err := Greater(e, a, b)
	if err != nil {
		t.Fatalf("Greater: %v", err)
	}
	defer gt.Release()
	if gt.DType() != tensor.Bool {
		t.Fatalf("Greater dtype = %s", gt.DType())
	}
	wantBool := []bool{false, false, true}
	for i, v := range gt.AsBool() {
		if v != wantBool[i] {
			t.Errorf("Greater[%d] = %v, want %v", i, v, wantBool[i])
		}
	}

	eq, err := Equal(e, a, b)
	if err != nil {
		t.Fatalf("Equal: %v", err)
	}
	defer eq.Release()
	wantEq := []bool{false, true, false}
	for i, v := range eq.AsBool() {
		if v != wantEq[i] {
			t.Errorf("Equal[%d] = %v, want %v", i, v, wantEq[i])
		}
	}
}

func TestCastValues(t *testing.T) {
	e, c := newEngine(t)
	x := f32(t, c, tensor.Shape{3}, []float32{1.9, -1.9, 0})
	defer x.Release()

	i, err := Cast(e, x, tensor.Int64)
	if err != nil {
		t.Fatalf("Cast: %v", err)
	}
	defer i.Release()

	want := []int64{1, -1, 0}
	for k, v := range i.AsInt64() {
		if v != want[k] {
			t.Errorf("Cast[%d] = %d, want %d", k, v, want[k])
		}
	}
}
