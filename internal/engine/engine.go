// Package engine executes kernels against a pluggable backend and
// records invocations on a tape for reverse-mode gradient evaluation.
package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ebb-ml/ebb/internal/backend"
	"github.com/ebb-ml/ebb/internal/kernels"
	"github.com/ebb-ml/ebb/internal/logging"
	"github.com/ebb-ml/ebb/internal/metrics"
	"github.com/ebb-ml/ebb/internal/tensor"
)

// Engine dispatches kernels to a backend and, while a recording
// session is open, appends one record per invocation to the session
// tape. It is an explicit context: programs may hold several engines
// with different backends. A single mutex serializes all calls.
type Engine struct {
	mu        sync.Mutex
	backend   backend.Backend
	tape      *Tape
	recording bool
	session   string
}

// New creates an engine bound to the given backend.
func New(b backend.Backend) *Engine {
	return &Engine{backend: b}
}

// Backend returns the engine's current backend.
func (e *Engine) Backend() backend.Backend {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.backend
}

// SetBackend swaps the compute backend. Swapping is only allowed while
// idle; tensors recorded on an open tape live in the old backend's
// storage.
func (e *Engine) SetBackend(b backend.Backend) error {
	if b == nil {
		return errors.New("engine: nil backend")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.recording {
		return errors.New("engine: cannot swap backend while recording")
	}
	e.backend = b
	return nil
}

// Recording reports whether a recording session is open.
func (e *Engine) Recording() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recording
}

// BeginRecording opens a recording session with a fresh tape. Sessions
// do not nest; a second call before EndRecording returns
// ErrNestedRecording.
func (e *Engine) BeginRecording() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.recording {
		return ErrNestedRecording
	}
	e.tape = &Tape{}
	e.recording = true
	e.session = uuid.NewString()
	metrics.RecordingSessions.Inc()
	metrics.TapeLength.Set(0)
	logging.Log.Debug("recording started", "session", e.session)
	return nil
}

// EndRecording closes the session and hands the tape to the caller,
// who owns its pins and must Discard it when finished. Without an open
// session it returns ErrNotRecording.
func (e *Engine) EndRecording() (*Tape, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.recording {
		return nil, ErrNotRecording
	}
	t := e.tape
	e.tape = nil
	e.recording = false
	metrics.TapeLength.Set(0)
	logging.Log.Debug("recording ended", "session", e.session, "records", t.Len())
	e.session = ""
	return t, nil
}

// RunKernel dispatches the named registered kernel.
func (e *Engine) RunKernel(name string, in kernels.Inputs, cfg kernels.Config) ([]*tensor.Handle, error) {
	def, ok := kernels.Lookup(name)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownKernel, "%q", name)
	}
	return e.RunDef(def, in, cfg)
}

// RunDef dispatches a kernel definition directly, bypassing the
// registry. The definition still lands on the tape under its name.
//
// On success the returned handles are owned by the caller. On failure
// the dispatch rolls back completely: the tape keeps its length and
// every input keeps its refcount.
func (e *Engine) RunDef(def kernels.Def, in kernels.Inputs, cfg kernels.Config) ([]*tensor.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, input := range in {
		if input.Handle == nil {
			return nil, errors.Errorf("kernel %q: nil input %q", def.Name, input.Name)
		}
		if !input.Handle.Alive() {
			return nil, errors.Errorf("kernel %q: input %q (id %d) already released", def.Name, input.Name, input.Handle.ID())
		}
	}

	// Hold the operands across the forward call.
	for _, input := range in {
		input.Handle.Retain()
	}
	releaseRetains := func() {
		for _, input := range in {
			input.Handle.Release()
		}
	}

	start := time.Now()
	outs, err := def.Forward(e.backend, in, cfg)
	if err != nil {
		releaseRetains()
		metrics.KernelFailures.WithLabelValues(def.Name).Inc()
		return nil, &KernelError{Kernel: def.Name, Err: err}
	}
	for _, out := range outs {
		if out == nil {
			for _, o := range outs {
				if o != nil {
					o.Release()
				}
			}
			releaseRetains()
			metrics.KernelFailures.WithLabelValues(def.Name).Inc()
			return nil, &KernelError{Kernel: def.Name, Err: errors.New("forward returned a nil output")}
		}
	}

	if e.recording {
		rec, err := newRecord(def, in, cfg, outs)
		if err != nil {
			for _, out := range outs {
				out.Release()
			}
			releaseRetains()
			return nil, err
		}
		e.tape.append(rec)
		metrics.TapeLength.Set(float64(e.tape.Len()))
	}

	releaseRetains()
	metrics.KernelDispatches.WithLabelValues(def.Name).Inc()
	metrics.KernelDuration.WithLabelValues(def.Name).Observe(time.Since(start).Seconds())
	logging.Log.Debug("kernel dispatched",
		"kernel", def.Name, "inputs", len(in), "outputs", len(outs), "recorded", e.recording)
	return outs, nil
}
