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
		Name:       "matmul",
		Forward:    binaryForward(backend.Backend.MatMul),
		Gradient:   matmulGradient,
		SaveInputs: []string{"a", "b"},
	})
}

var swap2D = []int{1, 0}

// matmulGradient: for z = a @ b, da = u @ b^T and db = a^T @ u.
func matmulGradient(b backend.Backend, upstreams []*tensor.Handle, saved kernels.Saved, cfg kernels.Config) (map[string]*tensor.Handle, error) {
	u := upstreams[0]
	a, bb := saved.Inputs["a"], saved.Inputs["b"]

	bt, err := b.Transpose(bb, swap2D)
	if err != nil {
		return nil, err
	}
	da, err := b.MatMul(u, bt)
	bt.Release()
	if err != nil {
		return nil, err
	}

	at, err := b.Transpose(a, swap2D)
	if err != nil {
		da.Release()
		return nil, err
	}
	db, err := b.MatMul(at, u)
	at.Release()
	if err != nil {
		da.Release()
		return nil, err
	}
	return map[string]*tensor.Handle{"a": da, "b": db}, nil
}

// MatMul computes the 2-D matrix product a @ b.
func MatMul(e *engine.Engine, a, b *tensor.Handle) (*tensor.Handle, error) {
	if a == nil || b == nil {
		return nil, errors.New("ops: matmul of nil tensor")
	}
	outs, err := e.RunKernel("matmul", kernels.Inputs{{Name: "a", Handle: a}, {Name: "b", Handle: b}}, nil)
	if err != nil {
		return nil, err
	}
	return outs[0], nil
}
