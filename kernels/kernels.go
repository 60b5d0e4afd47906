// Copyright 2025 The Ebb Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package kernels provides the public kernel registry for the Ebb
// engine.
//
// A kernel is a named operation definition: a forward function, an
// optional gradient rule, and declarations of which tensors the
// gradient needs saved. The engine dispatches kernels by name, so
// registering a definition makes it available to every Engine in the
// process.
//
// Example:
//
//	kernels.Register(kernels.Def{
//	    Name: "scale",
//	    Forward: func(b backend.Backend, in kernels.Inputs, cfg kernels.Config) ([]*tensor.Handle, error) {
//	        x := in.Get("x")
//	        c, err := b.Fill(tensor.Shape{}, x.DType(), cfg.FloatOr("factor", 1))
//	        if err != nil {
//	            return nil, err
//	        }
//	        defer c.Release()
//	        y, err := b.Mul(x, c)
//	        if err != nil {
//	            return nil, err
//	        }
//	        return []*tensor.Handle{y}, nil
//	    },
//	})
//
//	outs, err := eng.RunKernel("scale", kernels.Inputs{{Name: "x", Handle: x}},
//	    kernels.Config{"factor": 2.0})
package kernels

import (
	"github.com/ebb-ml/ebb/internal/kernels"
)

// Input is one named kernel argument.
type Input = kernels.Input

// Inputs is the ordered argument list of a kernel invocation.
//
// Order is significant: it is what the tape records and what gradient
// accumulation keys on. Get looks arguments up by slot name.
type Inputs = kernels.Inputs

// Config carries the non-tensor arguments of an invocation, such as
// reduction axes or a keep-dims flag. Values must stay immutable once
// dispatched; the tape stores the map as-is.
type Config = kernels.Config

// Saved is the set of tensors a kernel asked the tape to pin for its
// gradient rule: inputs by slot name, outputs by position.
type Saved = kernels.Saved

// ForwardFunc executes a kernel on a backend and returns newly owned
// output handles.
type ForwardFunc = kernels.ForwardFunc

// GradientFunc computes input gradients from upstream output gradients
// and the saved tensors. It returns one owned handle per contributing
// input slot.
type GradientFunc = kernels.GradientFunc

// Def is a complete kernel definition.
type Def = kernels.Def

// Register adds a kernel definition to the global registry. It panics
// on an empty name, a nil forward function, or a duplicate name;
// kernels are expected to register from init functions.
func Register(def Def) {
	kernels.Register(def)
}

// Lookup returns the definition registered under name.
func Lookup(name string) (Def, bool) {
	return kernels.Lookup(name)
}

// Registered returns the sorted names of all registered kernels.
func Registered() []string {
	return kernels.Registered()
}
