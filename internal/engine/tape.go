package engine

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/ebb-ml/ebb/internal/kernels"
	"github.com/ebb-ml/ebb/internal/tensor"
)

// Record is one appended tape entry: a kernel invocation described by
// plain identifiers plus pinned copies of the tensors its gradient rule
// asked to keep. Records are immutable once appended; callers must not
// modify the exported slices.
type Record struct {
	// Kernel is the dispatched kernel name.
	Kernel string
	// InputNames and InputIDs describe the operands in call order.
	InputNames []string
	InputIDs   []uint64
	// OutputIDs lists the produced handles in output order.
	OutputIDs []uint64
	// SavedIDs lists the pinned tensor ids, ascending.
	SavedIDs []uint64
	// Config is the non-tensor argument map of the call.
	Config kernels.Config

	// Pins held until the tape is discarded. The gradient rule is a
	// stateless function resolved at dispatch; it never captures
	// tensors, those travel through the saved pins.
	savedInputs  map[string]*tensor.Handle
	savedOutputs []*tensor.Handle
	gradFn       kernels.GradientFunc
}

// Differentiable reports whether the record carries a gradient rule.
func (r *Record) Differentiable() bool { return r.gradFn != nil }

// inputIDFor maps a gradient slot name back to the operand id.
func (r *Record) inputIDFor(name string) (uint64, bool) {
	for i, n := range r.InputNames {
		if n == name {
			return r.InputIDs[i], true
		}
	}
	return 0, false
}

func (r *Record) saved() kernels.Saved {
	return kernels.Saved{Inputs: r.savedInputs, Outputs: r.savedOutputs}
}

func (r *Record) releasePins() {
	for _, h := range r.savedInputs {
		h.Release()
	}
	r.savedInputs = nil
	for _, h := range r.savedOutputs {
		if h != nil {
			h.Release()
		}
	}
	r.savedOutputs = nil
}

// Tape is the append-only invocation log of one recording session. It
// owns one reference to every saved tensor; Discard drops them.
type Tape struct {
	records []*Record
}

// Len returns the number of records.
func (t *Tape) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// Records returns the records in append order. The returned slice is a
// copy; the records are shared and read-only.
func (t *Tape) Records() []*Record {
	if t == nil {
		return nil
	}
	out := make([]*Record, len(t.records))
	copy(out, t.records)
	return out
}

// At returns the i-th record.
func (t *Tape) At(i int) *Record { return t.records[i] }

func (t *Tape) append(r *Record) {
	t.records = append(t.records, r)
}

// Discard releases every pinned tensor and empties the tape. Calling
// it again is a no-op.
func (t *Tape) Discard() {
	if t == nil {
		return
	}
	for _, r := range t.records {
		r.releasePins()
	}
	t.records = nil
}

// newRecord pins the saved tensors and freezes the call description.
func newRecord(def kernels.Def, in kernels.Inputs, cfg kernels.Config, outs []*tensor.Handle) (*Record, error) {
	r := &Record{
		Kernel:     def.Name,
		InputNames: make([]string, len(in)),
		InputIDs:   make([]uint64, len(in)),
		OutputIDs:  make([]uint64, len(outs)),
		Config:     cfg,
		gradFn:     def.Gradient,
	}
	for i, input := range in {
		r.InputNames[i] = input.Name
		r.InputIDs[i] = input.Handle.ID()
	}
	for i, out := range outs {
		r.OutputIDs[i] = out.ID()
	}

	if len(def.SaveInputs) > 0 {
		r.savedInputs = make(map[string]*tensor.Handle, len(def.SaveInputs))
		for _, name := range def.SaveInputs {
			h := in.Get(name)
			if h == nil {
				r.releasePins()
				return nil, errors.Errorf("kernel %q saves unknown input %q", def.Name, name)
			}
			h.Retain()
			r.savedInputs[name] = h
			r.SavedIDs = append(r.SavedIDs, h.ID())
		}
	}
	if len(def.SaveOutputs) > 0 {
		r.savedOutputs = make([]*tensor.Handle, len(outs))
		for _, idx := range def.SaveOutputs {
			if idx < 0 || idx >= len(outs) {
				r.releasePins()
				return nil, errors.Errorf("kernel %q saves output %d of %d", def.Name, idx, len(outs))
			}
			outs[idx].Retain()
			r.savedOutputs[idx] = outs[idx]
			r.SavedIDs = append(r.SavedIDs, outs[idx].ID())
		}
	}
	sort.Slice(r.SavedIDs, func(i, j int) bool { return r.SavedIDs[i] < r.SavedIDs[j] })
	return r, nil
}
