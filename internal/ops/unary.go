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
		Name:     "neg",
		Forward:  unaryForward(backend.Backend.Neg),
		Gradient: negGradient,
	})
	kernels.Register(kernels.Def{
		Name:        "exp",
		Forward:     unaryForward(backend.Backend.Exp),
		Gradient:    expGradient,
		SaveOutputs: []int{0},
	})
	kernels.Register(kernels.Def{
		Name:       "log",
		Forward:    unaryForward(backend.Backend.Log),
		Gradient:   logGradient,
		SaveInputs: []string{"x"},
	})
	kernels.Register(kernels.Def{
		Name:        "sqrt",
		Forward:     unaryForward(backend.Backend.Sqrt),
		Gradient:    sqrtGradient,
		SaveOutputs: []int{0},
	})
	kernels.Register(kernels.Def{
		Name:       "relu",
		Forward:    unaryForward(backend.Backend.ReLU),
		Gradient:   reluGradient,
		SaveInputs: []string{"x"},
	})
}

func unaryForward(apply func(backend.Backend, *tensor.Handle) (*tensor.Handle, error)) kernels.ForwardFunc {
	return func(b backend.Backend, in kernels.Inputs, cfg kernels.Config) ([]*tensor.Handle, error) {
		out, err := apply(b, in.Get("x"))
		if err != nil {
			return nil, err
		}
		return []*tensor.Handle{out}, nil
	}
}

func negGradient(b backend.Backend, upstreams []*tensor.Handle, saved kernels.Saved, cfg kernels.Config) (map[string]*tensor.Handle, error) {
	g, err := b.Neg(upstreams[0])
	if err != nil {
		return nil, err
	}
	return map[string]*tensor.Handle{"x": g}, nil
}

// expGradient reuses the saved output: d(e^x)/dx = e^x.
func expGradient(b backend.Backend, upstreams []*tensor.Handle, saved kernels.Saved, cfg kernels.Config) (map[string]*tensor.Handle, error) {
	g, err := b.Mul(upstreams[0], saved.Outputs[0])
	if err != nil {
		return nil, err
	}
	return map[string]*tensor.Handle{"x": g}, nil
}

func logGradient(b backend.Backend, upstreams []*tensor.Handle, saved kernels.Saved, cfg kernels.Config) (map[string]*tensor.Handle, error) {
	g, err := b.Div(upstreams[0], saved.Inputs["x"])
	if err != nil {
		return nil, err
	}
	return map[string]*tensor.Handle{"x": g}, nil
}

// sqrtGradient reuses the saved output: d(sqrt x)/dx = 1/(2*sqrt x).
func sqrtGradient(b backend.Backend, upstreams []*tensor.Handle, saved kernels.Saved, cfg kernels.Config) (map[string]*tensor.Handle, error) {
	y := saved.Outputs[0]
	two, err := b.Fill(tensor.Shape{}, y.DType(), 2)
	if err != nil {
		return nil, err
	}
	denom, err := b.Mul(y, two)
	two.Release()
	if err != nil {
		return nil, err
	}
	g, err := b.Div(upstreams[0], denom)
	denom.Release()
	if err != nil {
		return nil, err
	}
	return map[string]*tensor.Handle{"x": g}, nil
}

// reluGradient passes the upstream through where the input was
// positive. The boundary at zero gets gradient zero.
func reluGradient(b backend.Backend, upstreams []*tensor.Handle, saved kernels.Saved, cfg kernels.Config) (map[string]*tensor.Handle, error) {
	x := saved.Inputs["x"]
	zero, err := b.Fill(tensor.Shape{}, x.DType(), 0)
	if err != nil {
		return nil, err
	}
	mask, err := b.Greater(x, zero)
	zero.Release()
	if err != nil {
		return nil, err
	}
	zeros, err := b.Fill(x.Shape().Clone(), x.DType(), 0)
	if err != nil {
		mask.Release()
		return nil, err
	}
	g, err := b.Select(mask, upstreams[0], zeros)
	mask.Release()
	zeros.Release()
	if err != nil {
		return nil, err
	}
	return map[string]*tensor.Handle{"x": g}, nil
}

// Neg computes -x.
func Neg(e *engine.Engine, x *tensor.Handle) (*tensor.Handle, error) {
	return dispatchUnary(e, "neg", x)
}

// Exp computes e^x elementwise. It requires a floating dtype.
func Exp(e *engine.Engine, x *tensor.Handle) (*tensor.Handle, error) {
	return dispatchUnary(e, "exp", x)
}

// Log computes the natural logarithm elementwise. It requires a
// floating dtype; non-positive inputs follow math.Log.
func Log(e *engine.Engine, x *tensor.Handle) (*tensor.Handle, error) {
	return dispatchUnary(e, "log", x)
}

// Sqrt computes the square root elementwise. It requires a floating
// dtype.
func Sqrt(e *engine.Engine, x *tensor.Handle) (*tensor.Handle, error) {
	return dispatchUnary(e, "sqrt", x)
}

// ReLU clamps negative elements to zero. It requires a floating dtype.
func ReLU(e *engine.Engine, x *tensor.Handle) (*tensor.Handle, error) {
	return dispatchUnary(e, "relu", x)
}

func dispatchUnary(e *engine.Engine, kernel string, x *tensor.Handle) (*tensor.Handle, error) {
	if x == nil {
		return nil, errors.Errorf("ops: %s of nil tensor", kernel)
	}
	outs, err := e.RunKernel(kernel, kernels.Inputs{{Name: "x", Handle: x}}, nil)
	if err != nil {
		return nil, err
	}
	return outs[0], nil
}
