package ops

import (
	"github.com/pkg/errors"

	"github.com/ebb-ml/ebb/internal/backend"
	"github.com/ebb-ml/ebb/internal/engine"
	"github.com/ebb-ml/ebb/internal/kernels"
	"github.com/ebb-ml/ebb/internal/tensor"
)

func init() {
	kernels.Register(kernels.Def{
		Name:     "add",
		Forward:  binaryForward(backend.Backend.Add),
		Gradient: addGradient,
	})
	kernels.Register(kernels.Def{
		Name:     "sub",
		Forward:  binaryForward(backend.Backend.Sub),
		Gradient: subGradient,
	})
	kernels.Register(kernels.Def{
		Name:       "mul",
		Forward:    binaryForward(backend.Backend.Mul),
		Gradient:   mulGradient,
		SaveInputs: []string{"a", "b"},
	})
	kernels.Register(kernels.Def{
		Name:       "div",
		Forward:    binaryForward(backend.Backend.Div),
		Gradient:   divGradient,
		SaveInputs: []string{"a", "b"},
	})
}

// binaryForward adapts one backend binary kernel to the forward
// signature. The method expression keeps the def free of closures over
// state.
func binaryForward(apply func(backend.Backend, *tensor.Handle, *tensor.Handle) (*tensor.Handle, error)) kernels.ForwardFunc {
	return func(b backend.Backend, in kernels.Inputs, cfg kernels.Config) ([]*tensor.Handle, error) {
		out, err := apply(b, in.Get("a"), in.Get("b"))
		if err != nil {
			return nil, err
		}
		return []*tensor.Handle{out}, nil
	}
}

// reduceGradient sums a broadcast gradient back down to the operand
// shape: leading broadcast dims disappear, stretched size-1 dims are
// summed in place. The result is always a fresh handle.
func reduceGradient(b backend.Backend, g *tensor.Handle, want tensor.Shape) (*tensor.Handle, error) {
	if g.Shape().Equal(want) {
		return b.Reshape(g, want.Clone())
	}

	gs := g.Shape()
	lead := len(gs) - len(want)
	axes := make([]int, 0, len(gs))
	for i := 0; i < lead; i++ {
		axes = append(axes, i)
	}
	for i, dim := range want {
		if dim == 1 && gs[lead+i] != 1 {
			axes = append(axes, lead+i)
		}
	}

	red, err := applyReduce(b, g, axes, false, b.ReduceSum)
	if err != nil {
		return nil, err
	}
	if red.Shape().Equal(want) {
		return red, nil
	}
	out, err := b.Reshape(red, want.Clone())
	red.Release()
	return out, err
}

func operandShapes(cfg kernels.Config) (tensor.Shape, tensor.Shape, error) {
	as, ok := cfg.Shape("ashape")
	if !ok {
		return nil, nil, errors.New("missing operand shapes in config")
	}
	bs, ok := cfg.Shape("bshape")
	if !ok {
		return nil, nil, errors.New("missing operand shapes in config")
	}
	return as, bs, nil
}

func addGradient(b backend.Backend, upstreams []*tensor.Handle, saved kernels.Saved, cfg kernels.Config) (map[string]*tensor.Handle, error) {
	as, bs, err := operandShapes(cfg)
	if err != nil {
		return nil, err
	}
	u := upstreams[0]

	da, err := reduceGradient(b, u, as)
	if err != nil {
		return nil, err
	}
	db, err := reduceGradient(b, u, bs)
	if err != nil {
		da.Release()
		return nil, err
	}
	return map[string]*tensor.Handle{"a": da, "b": db}, nil
}

func subGradient(b backend.Backend, upstreams []*tensor.Handle, saved kernels.Saved, cfg kernels.Config) (map[string]*tensor.Handle, error) {
	as, bs, err := operandShapes(cfg)
	if err != nil {
		return nil, err
	}
	u := upstreams[0]

	da, err := reduceGradient(b, u, as)
	if err != nil {
		return nil, err
	}
	neg, err := b.Neg(u)
	if err != nil {
		da.Release()
		return nil, err
	}
	db, err := reduceGradient(b, neg, bs)
	neg.Release()
	if err != nil {
		da.Release()
		return nil, err
	}
	return map[string]*tensor.Handle{"a": da, "b": db}, nil
}

func mulGradient(b backend.Backend, upstreams []*tensor.Handle, saved kernels.Saved, cfg kernels.Config) (map[string]*tensor.Handle, error) {
	as, bs, err := operandShapes(cfg)
	if err != nil {
		return nil, err
	}
	u := upstreams[0]
	a, bb := saved.Inputs["a"], saved.Inputs["b"]

	ub, err := b.Mul(u, bb)
	if err != nil {
		return nil, err
	}
	da, err := reduceGradient(b, ub, as)
	ub.Release()
	if err != nil {
		return nil, err
	}

	ua, err := b.Mul(u, a)
	if err != nil {
		da.Release()
		return nil, err
	}
	db, err := reduceGradient(b, ua, bs)
	ua.Release()
	if err != nil {
		da.Release()
		return nil, err
	}
	return map[string]*tensor.Handle{"a": da, "b": db}, nil
}

func divGradient(b backend.Backend, upstreams []*tensor.Handle, saved kernels.Saved, cfg kernels.Config) (map[string]*tensor.Handle, error) {
	as, bs, err := operandShapes(cfg)
	if err != nil {
		return nil, err
	}
	u := upstreams[0]
	a, bb := saved.Inputs["a"], saved.Inputs["b"]

	// d(a/b)/da = u/b
	ub, err := b.Div(u, bb)
	if err != nil {
		return nil, err
	}
	da, err := reduceGradient(b, ub, as)
	ub.Release()
	if err != nil {
		return nil, err
	}

	// d(a/b)/db = -u*a/b^2
	fail := func(err error) (map[string]*tensor.Handle, error) {
		da.Release()
		return nil, err
	}
	bsq, err := b.Mul(bb, bb)
	if err != nil {
		return fail(err)
	}
	ua, err := b.Mul(u, a)
	if err != nil {
		bsq.Release()
		return fail(err)
	}
	quot, err := b.Div(ua, bsq)
	ua.Release()
	bsq.Release()
	if err != nil {
		return fail(err)
	}
	negq, err := b.Neg(quot)
	quot.Release()
	if err != nil {
		return fail(err)
	}
	db, err := reduceGradient(b, negq, bs)
	negq.Release()
	if err != nil {
		return fail(err)
	}
	return map[string]*tensor.Handle{"a": da, "b": db}, nil
}

// Add computes a + b with NumPy-style broadcasting.
func Add(e *engine.Engine, a, b *tensor.Handle) (*tensor.Handle, error) {
	return dispatchBinary(e, "add", a, b)
}

// Sub computes a - b with broadcasting.
func Sub(e *engine.Engine, a, b *tensor.Handle) (*tensor.Handle, error) {
	return dispatchBinary(e, "sub", a, b)
}

// Mul computes the elementwise product a * b with broadcasting.
func Mul(e *engine.Engine, a, b *tensor.Handle) (*tensor.Handle, error) {
	return dispatchBinary(e, "mul", a, b)
}

// Div computes the elementwise quotient a / b with broadcasting.
func Div(e *engine.Engine, a, b *tensor.Handle) (*tensor.Handle, error) {
	return dispatchBinary(e, "div", a, b)
}

func dispatchBinary(e *engine.Engine, kernel string, a, b *tensor.Handle) (*tensor.Handle, error) {
	if a == nil || b == nil {
		return nil, errors.Errorf("ops: %s of nil tensor", kernel)
	}
	cfg := kernels.Config{"ashape": a.Shape().Clone(), "bshape": b.Shape().Clone()}
	outs, err := e.RunKernel(kernel, kernels.Inputs{{Name: "a", Handle: a}, {Name: "b", Handle: b}}, cfg)
	if err != nil {
		return nil, err
	}
	return outs[0], nil
}
