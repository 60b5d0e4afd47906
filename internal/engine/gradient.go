package engine

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/ebb-ml/ebb/internal/backend"
	"github.com/ebb-ml/ebb/internal/metrics"
	"github.com/ebb-ml/ebb/internal/tensor"
)

// GradientMap holds the evaluated gradients keyed by tensor id. The
// map owns its handles; Release drops them all.
type GradientMap struct {
	grads map[uint64]*tensor.Handle
}

// Get returns the gradient for the given tensor.
func (m GradientMap) Get(h *tensor.Handle) (*tensor.Handle, bool) {
	if h == nil {
		return nil, false
	}
	return m.ByID(h.ID())
}

// ByID returns the gradient for the given tensor id.
func (m GradientMap) ByID(id uint64) (*tensor.Handle, bool) {
	g, ok := m.grads[id]
	return g, ok
}

// Len returns the number of gradients held.
func (m GradientMap) Len() int { return len(m.grads) }

// IDs returns the tensor ids with gradients, ascending.
func (m GradientMap) IDs() []uint64 {
	ids := make([]uint64, 0, len(m.grads))
	for id := range m.grads {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Release drops every held gradient. Calling it again is a no-op.
func (m *GradientMap) Release() {
	for _, g := range m.grads {
		g.Release()
	}
	m.grads = nil
}

// Evaluate walks the tape backwards and accumulates gradients for the
// target ids, starting from the given seed gradients (keyed by output
// tensor id; the caller keeps ownership of the seeds).
//
// Only records on a seed-to-target path participate. Of those, records
// whose outputs received no upstream gradient are skipped; records
// that did receive one but carry no gradient rule fail the walk with
// ErrNoGradient. Contributions for a tensor reached through several
// paths are summed with the backend's Add in the tensor's forward
// dtype. Targets not connected to any seed are simply absent from the
// result.
func Evaluate(b backend.Backend, t *Tape, seeds map[uint64]*tensor.Handle, targets []uint64) (GradientMap, error) {
	metrics.GradientEvaluations.Inc()
	result := GradientMap{grads: make(map[uint64]*tensor.Handle)}
	if t.Len() == 0 || len(seeds) == 0 {
		return result, nil
	}

	targetSet := make(map[uint64]struct{}, len(targets))
	for _, id := range targets {
		targetSet[id] = struct{}{}
	}

	// desc: ids computed from a target, walking forward.
	desc := make(map[uint64]struct{}, len(targets))
	for _, id := range targets {
		desc[id] = struct{}{}
	}
	for _, r := range t.records {
		for _, id := range r.InputIDs {
			if _, ok := desc[id]; ok {
				for _, out := range r.OutputIDs {
					desc[out] = struct{}{}
				}
				break
			}
		}
	}

	// anc: ids a seed depends on, walking backward. A record is on a
	// live path when gradient can enter it (an output in anc) and leave
	// it toward a target (an input in desc).
	anc := make(map[uint64]struct{}, len(seeds))
	for id := range seeds {
		anc[id] = struct{}{}
	}
	live := make(map[*Record]struct{})
	for i := t.Len() - 1; i >= 0; i-- {
		r := t.records[i]
		entering := false
		for _, id := range r.OutputIDs {
			if _, ok := anc[id]; ok {
				entering = true
				break
			}
		}
		if !entering {
			continue
		}
		for _, id := range r.InputIDs {
			anc[id] = struct{}{}
		}
		for _, id := range r.InputIDs {
			if _, ok := desc[id]; ok {
				live[r] = struct{}{}
				break
			}
		}
	}

	// acc owns every accumulated gradient, including retained copies of
	// the seeds.
	acc := make(map[uint64]*tensor.Handle, len(seeds))
	for id, seed := range seeds {
		if seed == nil {
			continue
		}
		seed.Retain()
		acc[id] = seed
	}
	fail := func(err error) (GradientMap, error) {
		for _, g := range acc {
			g.Release()
		}
		return GradientMap{}, err
	}

	for i := t.Len() - 1; i >= 0; i-- {
		r := t.records[i]
		if _, ok := live[r]; !ok {
			continue
		}

		upstreams := make([]*tensor.Handle, len(r.OutputIDs))
		hasUpstream := false
		for j, id := range r.OutputIDs {
			if g, ok := acc[id]; ok {
				upstreams[j] = g
				hasUpstream = true
			}
		}
		if !hasUpstream {
			continue
		}
		if r.gradFn == nil {
			return fail(errors.Wrapf(ErrNoGradient, "%q", r.Kernel))
		}

		grads, err := r.gradFn(b, upstreams, r.saved(), r.Config)
		if err != nil {
			for _, g := range grads {
				if g != nil {
					g.Release()
				}
			}
			return fail(errors.Wrapf(err, "gradient of kernel %q", r.Kernel))
		}

		for slot, g := range grads {
			if g == nil {
				continue
			}
			id, ok := r.inputIDFor(slot)
			if !ok {
				g.Release()
				return fail(errors.Errorf("kernel %q produced a gradient for unknown slot %q", r.Kernel, slot))
			}
			existing, ok := acc[id]
			if !ok {
				acc[id] = g
				continue
			}
			sum, err := b.Add(existing, g)
			existing.Release()
			g.Release()
			if err != nil {
				delete(acc, id)
				return fail(errors.Wrapf(err, "accumulating gradient for id %d", id))
			}
			acc[id] = sum
		}

		// This record's outputs cannot receive further contributions;
		// earlier records could not have consumed handles created here.
		for _, id := range r.OutputIDs {
			if _, isTarget := targetSet[id]; isTarget {
				continue
			}
			if g, ok := acc[id]; ok {
				g.Release()
				delete(acc, id)
			}
		}
	}

	for id, g := range acc {
		if _, ok := targetSet[id]; ok {
			result.grads[id] = g
		} else {
			g.Release()
		}
	}
	return result, nil
}

// Gradients evaluates d(output)/d(wrt...) over the given tape, seeding
// with ones. The output must hold a single element; use Evaluate
// directly to seed wider outputs.
func (e *Engine) Gradients(t *Tape, output *tensor.Handle, wrt ...*tensor.Handle) (GradientMap, error) {
	if output == nil {
		return GradientMap{}, errors.New("engine: nil gradient output")
	}
	if output.NumElements() != 1 {
		return GradientMap{}, errors.Wrapf(ErrNonScalarOutput, "id %d has shape %v", output.ID(), output.Shape())
	}
	b := e.Backend()

	seed, err := b.Fill(output.Shape().Clone(), output.DType(), 1)
	if err != nil {
		return GradientMap{}, errors.Wrap(err, "engine: seeding gradient")
	}
	defer seed.Release()

	targets := make([]uint64, len(wrt))
	for i, h := range wrt {
		if h == nil {
			return GradientMap{}, errors.New("engine: nil gradient target")
		}
		targets[i] = h.ID()
	}
	return Evaluate(b, t, map[uint64]*tensor.Handle{output.ID(): seed}, targets)
}
