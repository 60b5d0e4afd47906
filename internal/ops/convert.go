package ops

import (
	"github.com/pkg/errors"

	"github.com/ebb-ml/ebb/internal/backend"
	"github.com/ebb-ml/ebb/internal/engine"
	"github.com/ebb-ml/ebb/internal/kernels"
	"github.com/ebb-ml/ebb/internal/tensor"
)

// cast, greater and equal carry no gradient rules: casting is not
// differentiable and comparisons produce booleans. Recording them is
// fine; the gradient walk only fails if one sits on a needed path.
func init() {
	kernels.Register(kernels.Def{
		Name:    "cast",
		Forward: castForward,
	})
	kernels.Register(kernels.Def{
		Name:    "greater",
		Forward: binaryForward(backend.Backend.Greater),
	})
	kernels.Register(kernels.Def{
		Name:    "equal",
		Forward: binaryForward(backend.Backend.Equal),
	})
}

func castForward(b backend.Backend, in kernels.Inputs, cfg kernels.Config) ([]*tensor.Handle, error) {
	to, ok := cfg.DType("dtype")
	if !ok {
		return nil, errors.New("missing target dtype in config")
	}
	out, err := b.Cast(in.Get("x"), to)
	if err != nil {
		return nil, err
	}
	return []*tensor.Handle{out}, nil
}

// Cast converts x to the target dtype.
func Cast(e *engine.Engine, x *tensor.Handle, to tensor.DataType) (*tensor.Handle, error) {
	if x == nil {
		return nil, errors.New("ops: cast of nil tensor")
	}
	outs, err := e.RunKernel("cast", kernels.Inputs{{Name: "x", Handle: x}}, kernels.Config{"dtype": to})
	if err != nil {
		return nil, err
	}
	return outs[0], nil
}

// Greater computes a > b elementwise, producing a bool tensor.
func Greater(e *engine.Engine, a, b *tensor.Handle) (*tensor.Handle, error) {
	if a == nil || b == nil {
		return nil, errors.New("ops: greater of nil tensor")
	}
	outs, err := e.RunKernel("greater", kernels.Inputs{{Name: "a", Handle: a}, {Name: "b", Handle: b}}, nil)
	if err != nil {
		return nil, err
	}
	return outs[0], nil
}

// Equal computes a == b elementwise, producing a bool tensor.
func Equal(e *engine.Engine, a, b *tensor.Handle) (*tensor.Handle, error) {
	if a == nil || b == nil {
		return nil, errors.New("ops: equal of nil tensor")
	}
	outs, err := e.RunKernel("equal", kernels.Inputs{{Name: "a", Handle: a}, {Name: "b", Handle: b}}, nil)
	if err != nil {
		return nil, err
	}
	return outs[0], nil
}
