package engine

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/ebb-ml/ebb/internal/backend"
	"github.com/ebb-ml/ebb/internal/backend/cpu"
	"github.com/ebb-ml/ebb/internal/kernels"
	"github.com/ebb-ml/ebb/internal/tensor"
)

// addDef adds two operands; both slots pass the upstream through.
var addDef = kernels.Def{
	Name: "test_add",
	Forward: func(b backend.Backend, in kernels.Inputs, cfg kernels.Config) ([]*tensor.Handle, error) {
		out, err := b.Add(in.Get("a"), in.Get("b"))
		if err != nil {
			return nil, err
		}
		return []*tensor.Handle{out}, nil
	},
	Gradient: func(b backend.Backend, upstreams []*tensor.Handle, saved kernels.Saved, cfg kernels.Config) (map[string]*tensor.Handle, error) {
		u := upstreams[0]
		u.Retain()
		u.Retain()
		return map[string]*tensor.Handle{"a": u, "b": u}, nil
	},
}

// mulDef multiplies two operands and saves both for the product rule.
var mulDef = kernels.Def{
	Name: "test_mul",
	Forward: func(b backend.Backend, in kernels.Inputs, cfg kernels.Config) ([]*tensor.Handle, error) {
		out, err := b.Mul(in.Get("a"), in.Get("b"))
		if err != nil {
			return nil, err
		}
		return []*tensor.Handle{out}, nil
	},
	Gradient: func(b backend.Backend, upstreams []*tensor.Handle, saved kernels.Saved, cfg kernels.Config) (map[string]*tensor.Handle, error) {
		da, err := b.Mul(upstreams[0], saved.Inputs["b"])
		if err != nil {
			return nil, err
		}
		db, err := b.Mul(upstreams[0], saved.Inputs["a"])
		if err != nil {
			da.Release()
			return nil, err
		}
		return map[string]*tensor.Handle{"a": da, "b": db}, nil
	},
	SaveInputs: []string{"a", "b"},
}

// noGradDef negates without a gradient rule.
var noGradDef = kernels.Def{
	Name: "test_no_grad",
	Forward: func(b backend.Backend, in kernels.Inputs, cfg kernels.Config) ([]*tensor.Handle, error) {
		out, err := b.Neg(in.Get("x"))
		if err != nil {
			return nil, err
		}
		return []*tensor.Handle{out}, nil
	},
}

// failDef always fails its forward.
var failDef = kernels.Def{
	Name: "test_fail",
	Forward: func(b backend.Backend, in kernels.Inputs, cfg kernels.Config) ([]*tensor.Handle, error) {
		return nil, errors.New("injected failure")
	},
	Gradient: addDef.Gradient,
}

func newTestEngine(t *testing.T) (*Engine, *cpu.CPUBackend) {
	t.Helper()
	c := cpu.New()
	return New(c), c
}

func scalar(t *testing.T, c *cpu.CPUBackend, v float32) *tensor.Handle {
	t.Helper()
	h, err := tensor.Scalar(v, c.Allocator())
	if err != nil {
		t.Fatalf("Scalar(%v): %v", v, err)
	}
	return h
}

func vec(t *testing.T, c *cpu.CPUBackend, data []float32) *tensor.Handle {
	t.Helper()
	h, err := tensor.FromSlice(data, tensor.Shape{len(data)}, c.Allocator())
	if err != nil {
		t.Fatalf("FromSlice(%v): %v", data, err)
	}
	return h
}

func TestRunKernelUnknown(t *testing.T) {
	e, _ := newTestEngine(t)
	if _, err := e.RunKernel("definitely_missing", nil, nil); !errors.Is(err, ErrUnknownKernel) {
		t.Fatalf("RunKernel(missing) = %v, want ErrUnknownKernel", err)
	}
}

func TestRunDefIdle(t *testing.T) {
	e, c := newTestEngine(t)
	x := scalar(t, c, 2)
	y := scalar(t, c, 3)
	defer x.Release()
	defer y.Release()

	outs, err := e.RunDef(addDef, kernels.Inputs{{Name: "a", Handle: x}, {Name: "b", Handle: y}}, nil)
	if err != nil {
		t.Fatalf("RunDef: %v", err)
	}
	if len(outs) != 1 {
		t.Fatalf("RunDef produced %d outputs, want 1", len(outs))
	}
	defer outs[0].Release()

	if got := outs[0].AsFloat32()[0]; got != 5 {
		t.Errorf("add = %v, want 5", got)
	}
	if e.Recording() {
		t.Error("engine recording without a session")
	}
}

func TestSessionStateMachine(t *testing.T) {
	e, _ := newTestEngine(t)

	if e.Recording() {
		t.Fatal("new engine is recording")
	}
	if _, err := e.EndRecording(); !errors.Is(err, ErrNotRecording) {
		t.Fatalf("EndRecording while idle = %v, want ErrNotRecording", err)
	}

	if err := e.BeginRecording(); err != nil {
		t.Fatalf("BeginRecording: %v", err)
	}
	if !e.Recording() {
		t.Fatal("engine idle after BeginRecording")
	}
	if err := e.BeginRecording(); !errors.Is(err, ErrNestedRecording) {
		t.Fatalf("nested BeginRecording = %v, want ErrNestedRecording", err)
	}

	tape, err := e.EndRecording()
	if err != nil {
		t.Fatalf("EndRecording: %v", err)
	}
	defer tape.Discard()
	if e.Recording() {
		t.Error("engine still recording after EndRecording")
	}
	if _, err := e.EndRecording(); !errors.Is(err, ErrNotRecording) {
		t.Errorf("second EndRecording = %v, want ErrNotRecording", err)
	}
}

func TestEmptySession(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.BeginRecording(); err != nil {
		t.Fatalf("BeginRecording: %v", err)
	}
	tape, err := e.EndRecording()
	if err != nil {
		t.Fatalf("EndRecording: %v", err)
	}
	defer tape.Discard()

	if tape.Len() != 0 {
		t.Fatalf("empty session tape has %d records", tape.Len())
	}

	gm, err := Evaluate(e.Backend(), tape, nil, nil)
	if err != nil {
		t.Fatalf("Evaluate over empty tape: %v", err)
	}
	if gm.Len() != 0 {
		t.Errorf("empty session gradients = %d entries, want 0", gm.Len())
	}
}

func TestDispatchRecords(t *testing.T) {
	e, c := newTestEngine(t)
	x := scalar(t, c, 2)
	y := scalar(t, c, 3)
	defer x.Release()
	defer y.Release()

	if err := e.BeginRecording(); err != nil {
		t.Fatalf("BeginRecording: %v", err)
	}
	outs, err := e.RunDef(mulDef, kernels.Inputs{{Name: "a", Handle: x}, {Name: "b", Handle: y}}, kernels.Config{"why": "test"})
	if err != nil {
		t.Fatalf("RunDef: %v", err)
	}
	defer outs[0].Release()
	tape, err := e.EndRecording()
	if err != nil {
		t.Fatalf("EndRecording: %v", err)
	}
	defer tape.Discard()

	if tape.Len() != 1 {
		t.Fatalf("tape has %d records, want 1", tape.Len())
	}
	r := tape.At(0)
	if r.Kernel != "test_mul" {
		t.Errorf("record kernel = %q, want test_mul", r.Kernel)
	}
	if len(r.InputNames) != 2 || r.InputNames[0] != "a" || r.InputNames[1] != "b" {
		t.Errorf("record input names = %v, want [a b]", r.InputNames)
	}
	if r.InputIDs[0] != x.ID() || r.InputIDs[1] != y.ID() {
		t.Errorf("record input ids = %v, want [%d %d]", r.InputIDs, x.ID(), y.ID())
	}
	if len(r.OutputIDs) != 1 || r.OutputIDs[0] != outs[0].ID() {
		t.Errorf("record output ids = %v, want [%d]", r.OutputIDs, outs[0].ID())
	}
	if len(r.SavedIDs) != 2 {
		t.Errorf("record saved ids = %v, want both operands", r.SavedIDs)
	}
	if !r.Differentiable() {
		t.Error("mul record reports no gradient rule")
	}
	if r.Config["why"] != "test" {
		t.Errorf("record config = %v", r.Config)
	}
}

func TestFailedDispatchRollsBack(t *testing.T) {
	e, c := newTestEngine(t)
	x := scalar(t, c, 2)
	y := scalar(t, c, 3)
	defer x.Release()
	defer y.Release()

	if err := e.BeginRecording(); err != nil {
		t.Fatalf("BeginRecording: %v", err)
	}
	outs, err := e.RunDef(addDef, kernels.Inputs{{Name: "a", Handle: x}, {Name: "b", Handle: y}}, nil)
	if err != nil {
		t.Fatalf("RunDef(add): %v", err)
	}
	defer outs[0].Release()

	refsX, refsY := x.Refs(), y.Refs()
	live := c.HostAllocator().LiveBuffers()

	_, err = e.RunDef(failDef, kernels.Inputs{{Name: "a", Handle: x}, {Name: "b", Handle: y}}, nil)
	if !errors.Is(err, ErrKernelExecution) {
		t.Fatalf("RunDef(fail) = %v, want ErrKernelExecution", err)
	}
	var kerr *KernelError
	if !errors.As(err, &kerr) || kerr.Kernel != "test_fail" {
		t.Errorf("error does not identify the kernel: %v", err)
	}

	tape, err := e.EndRecording()
	if err != nil {
		t.Fatalf("EndRecording: %v", err)
	}
	defer tape.Discard()

	if tape.Len() != 1 {
		t.Errorf("tape has %d records after failed dispatch, want 1", tape.Len())
	}
	if x.Refs() != refsX || y.Refs() != refsY {
		t.Errorf("input refcounts changed across failed dispatch: x %d->%d, y %d->%d",
			refsX, x.Refs(), refsY, y.Refs())
	}
	if got := c.HostAllocator().LiveBuffers(); got != live {
		t.Errorf("live buffers changed across failed dispatch: %d -> %d", live, got)
	}
}

func TestSavedPinsOutliveCallerReleases(t *testing.T) {
	e, c := newTestEngine(t)
	x := scalar(t, c, 2)
	y := scalar(t, c, 3)

	if err := e.BeginRecording(); err != nil {
		t.Fatalf("BeginRecording: %v", err)
	}
	outs, err := e.RunDef(mulDef, kernels.Inputs{{Name: "a", Handle: x}, {Name: "b", Handle: y}}, nil)
	if err != nil {
		t.Fatalf("RunDef: %v", err)
	}
	tape, err := e.EndRecording()
	if err != nil {
		t.Fatalf("EndRecording: %v", err)
	}

	outs[0].Release()
	x.Release()
	y.Release()
	if !x.Alive() || !y.Alive() {
		t.Fatal("saved operands died while the tape still pins them")
	}

	tape.Discard()
	if x.Alive() || y.Alive() {
		t.Error("saved operands alive after tape discard")
	}
	if got := c.HostAllocator().LiveBuffers(); got != 0 {
		t.Errorf("live buffers after full disposal = %d, want 0", got)
	}
	tape.Discard() // second discard is a no-op
}

func TestSetBackendWhileRecording(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.BeginRecording(); err != nil {
		t.Fatalf("BeginRecording: %v", err)
	}
	if err := e.SetBackend(cpu.New()); err == nil {
		t.Error("SetBackend while recording: expected error")
	}
	tape, err := e.EndRecording()
	if err != nil {
		t.Fatalf("EndRecording: %v", err)
	}
	tape.Discard()
	if err := e.SetBackend(cpu.New()); err != nil {
		t.Errorf("SetBackend while idle: %v", err)
	}
}
