package ops

import (
	"testing"

	"github.com/ebb-ml/ebb/internal/backend/cpu"
	"github.com/ebb-ml/ebb/internal/engine"
	"github.com/ebb-ml/ebb/internal/tensor"
)

func newEngine(t *testing.T) (*engine.Engine, *cpu.CPUBackend) {
	t.Helper()
	c := cpu.New()
	return engine.New(c), c
}

func f32(t *testing.T, c *cpu.CPUBackend, shape tensor.Shape, data []float32) *tensor.Handle {
	t.Helper()
	h, err := tensor.FromSlice(data, shape, c.Allocator())
	if err != nil {
		t.Fatalf("FromSlice(%v): %v", shape, err)
	}
	return h
}

// record runs fn inside a recording session and returns the tape.
func record(t *testing.T, e *engine.Engine, fn func()) *engine.Tape {
	t.Helper()
	if err := e.BeginRecording(); err != nil {
		t.Fatalf("BeginRecording: %v", err)
	}
	fn()
	tape, err := e.EndRecording()
	if err != nil {
		t.Fatalf("EndRecording: %v", err)
	}
	return tape
}

func wantF32(t *testing.T, h *tensor.Handle, shape tensor.Shape, want []float32, tol float32) {
	t.Helper()
	if !h.Shape().Equal(shape) {
		t.Fatalf("shape = %v, want %v", h.Shape(), shape)
	}
	got := h.AsFloat32()
	if len(got) != len(want) {
		t.Fatalf("got %d elements, want %d", len(got), len(want))
	}
	for i := range want {
		d := got[i] - want[i]
		if d < 0 {
			d = -d
		}
		if d > tol {
			t.Fatalf("values = %v, want %v (mismatch at %d)", got, want, i)
		}
	}
}
