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
		Name:     "reshape",
		Forward:  reshapeForward,
		Gradient: reshapeGradient,
	})
	kernels.Register(kernels.Def{
		Name:     "transpose",
		Forward:  transposeForward,
		Gradient: transposeGradient,
	})
}

func reshapeForward(b backend.Backend, in kernels.Inputs, cfg kernels.Config) ([]*tensor.Handle, error) {
	shape, ok := cfg.Shape("shape")
	if !ok {
		return nil, errors.New("missing target shape in config")
	}
	out, err := b.Reshape(in.Get("x"), shape)
	if err != nil {
		return nil, err
	}
	return []*tensor.Handle{out}, nil
}

func reshapeGradient(b backend.Backend, upstreams []*tensor.Handle, saved kernels.Saved, cfg kernels.Config) (map[string]*tensor.Handle, error) {
	xshape, ok := cfg.Shape("xshape")
	if !ok {
		return nil, errors.New("reshape gradient: missing input shape in config")
	}
	g, err := b.Reshape(upstreams[0], xshape)
	if err != nil {
		return nil, err
	}
	return map[string]*tensor.Handle{"x": g}, nil
}

func transposeForward(b backend.Backend, in kernels.Inputs, cfg kernels.Config) ([]*tensor.Handle, error) {
	axes, ok := cfg.Ints("axes")
	if !ok {
		return nil, errors.New("missing axes in config")
	}
	out, err := b.Transpose(in.Get("x"), axes)
	if err != nil {
		return nil, err
	}
	return []*tensor.Handle{out}, nil
}

// transposeGradient permutes the upstream with the exact inverse of
// the forward permutation.
func transposeGradient(b backend.Backend, upstreams []*tensor.Handle, saved kernels.Saved, cfg kernels.Config) (map[string]*tensor.Handle, error) {
	axes, ok := cfg.Ints("axes")
	if !ok {
		return nil, errors.New("transpose gradient: missing axes in config")
	}
	g, err := b.Transpose(upstreams[0], inversePermutation(axes))
	if err != nil {
		return nil, err
	}
	return map[string]*tensor.Handle{"x": g}, nil
}

// permutationAxes resolves transpose axes: nil reverses all dims,
// negatives count from the end, and the result must be a permutation
// of 0..ndim-1.
func permutationAxes(ndim int, axes []int) ([]int, error) {
	if axes == nil {
		rev := make([]int, ndim)
		for i := range rev {
			rev[i] = ndim - 1 - i
		}
		return rev, nil
	}
	if len(axes) != ndim {
		return nil, errors.Wrapf(engine.ErrInvalidAxis, "got %d axes for a %d-d tensor", len(axes), ndim)
	}
	norm := make([]int, ndim)
	seen := make([]bool, ndim)
	for i, ax := range axes {
		if ax < -ndim || ax >= ndim {
			return nil, errors.Wrapf(engine.ErrInvalidAxis, "axis %d out of range for %d-d tensor", ax, ndim)
		}
		if ax < 0 {
			ax += ndim
		}
		if seen[ax] {
			return nil, errors.Wrapf(engine.ErrInvalidAxis, "axis %d appears more than once", ax)
		}
		seen[ax] = true
		norm[i] = ax
	}
	return norm, nil
}

// Reshape returns x viewed as the given shape; the element count must
// be unchanged.
func Reshape(e *engine.Engine, x *tensor.Handle, shape tensor.Shape) (*tensor.Handle, error) {
	if x == nil {
		return nil, errors.New("ops: reshape of nil tensor")
	}
	cfg := kernels.Config{"shape": shape.Clone(), "xshape": x.Shape().Clone()}
	outs, err := e.RunKernel("reshape", kernels.Inputs{{Name: "x", Handle: x}}, cfg)
	if err != nil {
		return nil, err
	}
	return outs[0], nil
}

// Transpose permutes the axes of x. Nil axes reverse them all;
// negative axes count from the end.
func Transpose(e *engine.Engine, x *tensor.Handle, axes []int) (*tensor.Handle, error) {
	if x == nil {
		return nil, errors.New("ops: transpose of nil tensor")
	}
	norm, err := permutationAxes(len(x.Shape()), axes)
	if err != nil {
		return nil, err
	}
	outs, err := e.RunKernel("transpose", kernels.Inputs{{Name: "x", Handle: x}}, kernels.Config{"axes": norm})
	if err != nil {
		return nil, err
	}
	return outs[0], nil
}
