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
		Name:        "max",
		Forward:     maxForward,
		Gradient:    reduceMaskGradient,
		SaveInputs:  []string{"x"},
		SaveOutputs: []int{0},
	})
	kernels.Register(kernels.Def{
		Name:        "min",
		Forward:     minForward,
		Gradient:    reduceMaskGradient,
		SaveInputs:  []string{"x"},
		SaveOutputs: []int{0},
	})
	kernels.Register(kernels.Def{
		Name:     "sum",
		Forward:  sumForward,
		Gradient: sumGradient,
	})
	kernels.Register(kernels.Def{
		Name:     "mean",
		Forward:  meanForward,
		Gradient: meanGradient,
	})
}

// applyReduce permutes the reduced axes innermost, applies the
// backend's trailing-axis reduction, and restores size-1 dims when
// keepdims is set. axes must be normalized and sorted.
func applyReduce(b backend.Backend, x *tensor.Handle, axes []int, keep bool, reduce func(*tensor.Handle, int) (*tensor.Handle, error)) (*tensor.Handle, error) {
	perm := reducePermutation(len(x.Shape()), axes)
	cur, owned := x, false
	if !isIdentity(perm) {
		p, err := b.Transpose(x, perm)
		if err != nil {
			return nil, err
		}
		cur, owned = p, true
	}

	red, err := reduce(cur, len(axes))
	if owned {
		cur.Release()
	}
	if err != nil {
		return nil, err
	}
	if !keep {
		return red, nil
	}

	out, err := b.Reshape(red, x.Shape().Reduce(axes, true))
	red.Release()
	return out, err
}

func reduceArgs(cfg kernels.Config) ([]int, bool, error) {
	axes, ok := cfg.Ints("axes")
	if !ok {
		return nil, false, errors.New("missing normalized axes in config")
	}
	return axes, cfg.BoolOr("keepdims", false), nil
}

func maxForward(b backend.Backend, in kernels.Inputs, cfg kernels.Config) ([]*tensor.Handle, error) {
	axes, keep, err := reduceArgs(cfg)
	if err != nil {
		return nil, err
	}
	out, err := applyReduce(b, in.Get("x"), axes, keep, b.ReduceMax)
	if err != nil {
		return nil, err
	}
	return []*tensor.Handle{out}, nil
}

func minForward(b backend.Backend, in kernels.Inputs, cfg kernels.Config) ([]*tensor.Handle, error) {
	axes, keep, err := reduceArgs(cfg)
	if err != nil {
		return nil, err
	}
	out, err := applyReduce(b, in.Get("x"), axes, keep, b.ReduceMin)
	if err != nil {
		return nil, err
	}
	return []*tensor.Handle{out}, nil
}

// reduceMaskGradient routes the upstream gradient to every position
// holding the extremal value: positions tied for the extremum each
// receive the full upstream, mirroring the equality mask. The walk
// re-applies the forward's permutation and undoes it with the exact
// inverse at the end.
func reduceMaskGradient(b backend.Backend, upstreams []*tensor.Handle, saved kernels.Saved, cfg kernels.Config) (map[string]*tensor.Handle, error) {
	u := upstreams[0]
	x := saved.Inputs["x"]
	y := saved.Outputs[0]
	if u == nil || x == nil || y == nil {
		return nil, errors.New("reduce gradient: missing upstream or saved tensors")
	}
	axes, ok := cfg.Ints("axes")
	if !ok {
		return nil, errors.New("reduce gradient: missing normalized axes in config")
	}

	ndim := len(x.Shape())
	perm := reducePermutation(ndim, axes)
	needPerm := !isIdentity(perm)

	var temps []*tensor.Handle
	drop := func() {
		for _, t := range temps {
			t.Release()
		}
	}
	keepTemp := func(h *tensor.Handle) *tensor.Handle {
		temps = append(temps, h)
		return h
	}

	xP := x
	if needPerm {
		p, err := b.Transpose(x, perm)
		if err != nil {
			return nil, err
		}
		xP = keepTemp(p)
	}

	// Kept dims followed by size-1 reduced dims, in permuted order.
	// Reshaping y and u here works whether or not the forward kept dims.
	kShape := make(tensor.Shape, 0, ndim)
	for _, ax := range perm[:ndim-len(axes)] {
		kShape = append(kShape, x.Shape()[ax])
	}
	for range axes {
		kShape = append(kShape, 1)
	}

	yP, err := b.Reshape(y, kShape)
	if err != nil {
		drop()
		return nil, err
	}
	keepTemp(yP)
	uP, err := b.Reshape(u, kShape)
	if err != nil {
		drop()
		return nil, err
	}
	keepTemp(uP)

	mask, err := b.Equal(xP, yP)
	if err != nil {
		drop()
		return nil, err
	}
	keepTemp(mask)
	maskF, err := b.Cast(mask, x.DType())
	if err != nil {
		drop()
		return nil, err
	}
	keepTemp(maskF)

	gP, err := b.Mul(maskF, uP)
	if err != nil {
		drop()
		return nil, err
	}
	if !needPerm {
		drop()
		return map[string]*tensor.Handle{"x": gP}, nil
	}

	keepTemp(gP)
	g, err := b.Transpose(gP, inversePermutation(perm))
	drop()
	if err != nil {
		return nil, err
	}
	return map[string]*tensor.Handle{"x": g}, nil
}

func sumForward(b backend.Backend, in kernels.Inputs, cfg kernels.Config) ([]*tensor.Handle, error) {
	axes, keep, err := reduceArgs(cfg)
	if err != nil {
		return nil, err
	}
	out, err := applyReduce(b, in.Get("x"), axes, keep, b.ReduceSum)
	if err != nil {
		return nil, err
	}
	return []*tensor.Handle{out}, nil
}

// sumGradient broadcasts the upstream back over the reduced axes. The
// input never needs saving; its shape travels in the config.
func sumGradient(b backend.Backend, upstreams []*tensor.Handle, saved kernels.Saved, cfg kernels.Config) (map[string]*tensor.Handle, error) {
	u := upstreams[0]
	xshape, ok := cfg.Shape("xshape")
	if !ok {
		return nil, errors.New("sum gradient: missing input shape in config")
	}
	axes, _ := cfg.Ints("axes")

	uK, err := b.Reshape(u, xshape.Reduce(axes, true))
	if err != nil {
		return nil, err
	}
	zeros, err := b.Fill(xshape.Clone(), u.DType(), 0)
	if err != nil {
		uK.Release()
		return nil, err
	}
	g, err := b.Add(zeros, uK)
	uK.Release()
	zeros.Release()
	if err != nil {
		return nil, err
	}
	return map[string]*tensor.Handle{"x": g}, nil
}

func reducedCount(shape tensor.Shape, axes []int) int {
	count := 1
	for _, ax := range axes {
		count *= shape[ax]
	}
	return count
}

func meanForward(b backend.Backend, in kernels.Inputs, cfg kernels.Config) ([]*tensor.Handle, error) {
	x := in.Get("x")
	if !x.DType().IsFloat() {
		return nil, errors.Errorf("mean requires a floating dtype, got %s", x.DType())
	}
	axes, keep, err := reduceArgs(cfg)
	if err != nil {
		return nil, err
	}

	s, err := applyReduce(b, x, axes, keep, b.ReduceSum)
	if err != nil {
		return nil, err
	}
	scale, err := b.Fill(tensor.Shape{}, x.DType(), float64(reducedCount(x.Shape(), axes)))
	if err != nil {
		s.Release()
		return nil, err
	}
	out, err := b.Div(s, scale)
	s.Release()
	scale.Release()
	if err != nil {
		return nil, err
	}
	return []*tensor.Handle{out}, nil
}

func meanGradient(b backend.Backend, upstreams []*tensor.Handle, saved kernels.Saved, cfg kernels.Config) (map[string]*tensor.Handle, error) {
	grads, err := sumGradient(b, upstreams, saved, cfg)
	if err != nil {
		return nil, err
	}
	g := grads["x"]
	xshape, _ := cfg.Shape("xshape")
	axes, _ := cfg.Ints("axes")

	scale, err := b.Fill(tensor.Shape{}, g.DType(), float64(reducedCount(xshape, axes)))
	if err != nil {
		g.Release()
		return nil, err
	}
	scaled, err := b.Div(g, scale)
	g.Release()
	scale.Release()
	if err != nil {
		return nil, err
	}
	return map[string]*tensor.Handle{"x": scaled}, nil
}

// Max reduces x to its maximum over the given axes. Nil axes reduce
// over all of them; negative axes count from the end. With keepDims the
// reduced axes stay as size-1 dims.
func Max(e *engine.Engine, x *tensor.Handle, axes []int, keepDims bool) (*tensor.Handle, error) {
	return dispatchReduce(e, "max", x, axes, keepDims, false)
}

// Min reduces x to its minimum over the given axes.
func Min(e *engine.Engine, x *tensor.Handle, axes []int, keepDims bool) (*tensor.Handle, error) {
	return dispatchReduce(e, "min", x, axes, keepDims, false)
}

// Sum reduces x to its sum over the given axes.
func Sum(e *engine.Engine, x *tensor.Handle, axes []int, keepDims bool) (*tensor.Handle, error) {
	return dispatchReduce(e, "sum", x, axes, keepDims, true)
}

// Mean reduces x to its arithmetic mean over the given axes. It
// requires a floating dtype.
func Mean(e *engine.Engine, x *tensor.Handle, axes []int, keepDims bool) (*tensor.Handle, error) {
	return dispatchReduce(e, "mean", x, axes, keepDims, true)
}

func dispatchReduce(e *engine.Engine, kernel string, x *tensor.Handle, axes []int, keepDims, wantShape bool) (*tensor.Handle, error) {
	if x == nil {
		return nil, errors.Errorf("ops: %s of nil tensor", kernel)
	}
	norm, err := normalizeAxes(len(x.Shape()), axes)
	if err != nil {
		return nil, err
	}
	cfg := kernels.Config{"axes": norm, "keepdims": keepDims}
	if wantShape {
		cfg["xshape"] = x.Shape().Clone()
	}
	outs, err := e.RunKernel(kernel, kernels.Inputs{{Name: "x", Handle: x}}, cfg)
	if err != nil {
		return nil, err
	}
	return outs[0], nil
}
