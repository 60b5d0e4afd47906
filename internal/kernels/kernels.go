// Package kernels defines the kernel registry: named operations with a
// forward implementation and an optional gradient rule. The engine
// dispatches by name, so kernels stay plain data and never capture
// closures over live tensors.
package kernels

import (
	"github.com/ebb-ml/ebb/internal/backend"
	"github.com/ebb-ml/ebb/internal/tensor"
)

// Input is one named kernel operand.
type Input struct {
	Name   string
	Handle *tensor.Handle
}

// Inputs is the ordered operand list of a kernel call. Order is
// preserved on the tape; names identify slots for gradient routing.
type Inputs []Input

// Get returns the operand with the given name, or nil.
func (in Inputs) Get(name string) *tensor.Handle {
	for _, i := range in {
		if i.Name == name {
			return i.Handle
		}
	}
	return nil
}

// Handles returns the operand handles in call order.
func (in Inputs) Handles() []*tensor.Handle {
	hs := make([]*tensor.Handle, len(in))
	for i, input := range in {
		hs[i] = input.Handle
	}
	return hs
}

// Config carries the non-tensor arguments of a kernel call (axes,
// flags, target dtypes). It is recorded on the tape as-is, so callers
// must not mutate it after dispatch.
type Config map[string]any

// Ints returns an []int config value.
func (c Config) Ints(key string) ([]int, bool) {
	v, ok := c[key].([]int)
	return v, ok
}

// IntOr returns an int config value, or def when absent.
func (c Config) IntOr(key string, def int) int {
	if v, ok := c[key].(int); ok {
		return v
	}
	return def
}

// BoolOr returns a bool config value, or def when absent.
func (c Config) BoolOr(key string, def bool) bool {
	if v, ok := c[key].(bool); ok {
		return v
	}
	return def
}

// FloatOr returns a float64 config value, or def when absent.
func (c Config) FloatOr(key string, def float64) float64 {
	if v, ok := c[key].(float64); ok {
		return v
	}
	return def
}

// DType returns a tensor.DataType config value.
func (c Config) DType(key string) (tensor.DataType, bool) {
	v, ok := c[key].(tensor.DataType)
	return v, ok
}

// Shape returns a tensor.Shape config value.
func (c Config) Shape(key string) (tensor.Shape, bool) {
	v, ok := c[key].(tensor.Shape)
	return v, ok
}

// Saved holds the tensors a kernel asked to keep for its gradient rule:
// inputs by slot name and outputs by slot index. Unsaved output slots
// are nil.
type Saved struct {
	Inputs  map[string]*tensor.Handle
	Outputs []*tensor.Handle
}

// ForwardFunc computes a kernel's outputs from its operands. It returns
// fresh handles owned by the caller; on error it must release anything
// it allocated.
type ForwardFunc func(b backend.Backend, in Inputs, cfg Config) ([]*tensor.Handle, error)

// GradientFunc computes input gradients from output gradients.
// upstreams aligns with the forward outputs; entries may be nil for
// outputs that received no gradient. The result maps input slot names
// to owned gradient handles; slots without a gradient are simply
// absent.
type GradientFunc func(b backend.Backend, upstreams []*tensor.Handle, saved Saved, cfg Config) (map[string]*tensor.Handle, error)

// Def describes a registered kernel: its forward implementation, the
// optional gradient rule, and which tensors the rule needs saved.
// Gradient may be nil for kernels that are not differentiable.
type Def struct {
	Name     string
	Forward  ForwardFunc
	Gradient GradientFunc

	// SaveInputs names the input slots to pin for the gradient rule.
	SaveInputs []string
	// SaveOutputs lists the output slot indices to pin.
	SaveOutputs []int
}

// Differentiable reports whether the kernel carries a gradient rule.
func (d Def) Differentiable() bool {
	return d.Gradient != nil
}
