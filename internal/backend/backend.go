// Package backend defines the kernel executor interface and the backend
// registry used to select one at runtime.
package backend

import (
	"github.com/ebb-ml/ebb/internal/tensor"
)

// Device identifies the compute device a backend executes on.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
	WebGPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case WebGPU:
		return "WebGPU"
	default:
		return "Unknown"
	}
}

// Backend executes tensor kernels on a device, one method per kernel
// name. Every kernel returns a fresh handle owned by the caller and an
// error instead of panicking, so the engine can roll a failed dispatch
// back cleanly. Inputs are never mutated.
//
// Reductions operate on the trailing axes: callers permute the axes to
// reduce innermost first, then reduce the last n of them in one pass.
type Backend interface {
	// Name returns the registry name of the backend, e.g. "cpu".
	Name() string

	// Description is a longer description of the backend for pretty-printing.
	Description() string

	// Device returns the compute device.
	Device() Device

	// Allocator returns the storage allocator backing this device.
	Allocator() tensor.Allocator

	// Element-wise binary kernels with NumPy-style broadcasting.
	Add(a, b *tensor.Handle) (*tensor.Handle, error)
	Sub(a, b *tensor.Handle) (*tensor.Handle, error)
	Mul(a, b *tensor.Handle) (*tensor.Handle, error)
	Div(a, b *tensor.Handle) (*tensor.Handle, error)

	// MatMul performs 2-D matrix multiplication: (M,K) @ (K,N) -> (M,N).
	MatMul(a, b *tensor.Handle) (*tensor.Handle, error)

	// Element-wise unary kernels.
	Neg(x *tensor.Handle) (*tensor.Handle, error)
	Exp(x *tensor.Handle) (*tensor.Handle, error)
	Log(x *tensor.Handle) (*tensor.Handle, error)
	Sqrt(x *tensor.Handle) (*tensor.Handle, error)
	ReLU(x *tensor.Handle) (*tensor.Handle, error)

	// Comparisons produce Bool handles, broadcasting like the binary
	// kernels.
	Greater(a, b *tensor.Handle) (*tensor.Handle, error)
	Equal(a, b *tensor.Handle) (*tensor.Handle, error)

	// Select picks a[i] where cond[i] is true, else b[i]. cond must be
	// Bool; all three shapes broadcast together.
	Select(cond, a, b *tensor.Handle) (*tensor.Handle, error)

	// Reductions over the trailing n axes.
	ReduceMax(x *tensor.Handle, n int) (*tensor.Handle, error)
	ReduceMin(x *tensor.Handle, n int) (*tensor.Handle, error)
	ReduceSum(x *tensor.Handle, n int) (*tensor.Handle, error)

	// Movement kernels.
	Transpose(x *tensor.Handle, axes []int) (*tensor.Handle, error)
	Reshape(x *tensor.Handle, shape tensor.Shape) (*tensor.Handle, error)

	// Cast converts to another data type.
	Cast(x *tensor.Handle, to tensor.DataType) (*tensor.Handle, error)

	// Fill creates a handle with every element set to value
	// (rounded/converted per dtype; nonzero means true for Bool).
	Fill(shape tensor.Shape, dtype tensor.DataType, value float64) (*tensor.Handle, error)
}
