// Package cpu implements the reference CPU backend with pooled host
// memory and chunked parallel kernels.
package cpu

import (
	"fmt"
	"strconv"

	"github.com/ebb-ml/ebb/internal/backend"
	"github.com/ebb-ml/ebb/internal/parallel"
	"github.com/ebb-ml/ebb/internal/tensor"
)

func init() {
	backend.Register("cpu", func(config string) (backend.Backend, error) {
		return NewWithConfig(config)
	})
}

var _ backend.Backend = (*CPUBackend)(nil)

// CPUBackend implements tensor kernels on the host CPU.
type CPUBackend struct {
	alloc *Allocator
	par   parallel.Config
}

// Option configures a CPU backend.
type Option func(*CPUBackend)

// WithParallel overrides the worker pool configuration.
func WithParallel(cfg parallel.Config) Option {
	return func(c *CPUBackend) { c.par = cfg }
}

// New creates a new CPU backend with default parallelism.
func New(opts ...Option) *CPUBackend {
	c := &CPUBackend{
		alloc: NewAllocator(),
		par:   parallel.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewWithConfig creates a CPU backend from a registry config string.
// An empty config uses defaults; "serial" disables the worker pool; a
// number sets the worker count.
func NewWithConfig(config string) (*CPUBackend, error) {
	switch config {
	case "":
		return New(), nil
	case "serial":
		return New(WithParallel(parallel.Serial())), nil
	default:
		workers, err := strconv.Atoi(config)
		if err != nil || workers < 1 {
			return nil, fmt.Errorf("cpu: invalid config %q (want empty, \"serial\" or a worker count)", config)
		}
		cfg := parallel.DefaultConfig()
		cfg.Enabled = workers > 1
		cfg.NumWorkers = workers
		return New(WithParallel(cfg)), nil
	}
}

// Name returns the backend registry name.
func (c *CPUBackend) Name() string {
	return "cpu"
}

// Description returns a human-readable backend description.
func (c *CPUBackend) Description() string {
	if !c.par.Enabled {
		return "pure Go CPU backend (serial)"
	}
	return fmt.Sprintf("pure Go CPU backend (%d workers)", c.par.NumWorkers)
}

// Device returns the compute device.
func (c *CPUBackend) Device() backend.Device {
	return backend.CPU
}

// Allocator returns the pooled host allocator.
func (c *CPUBackend) Allocator() tensor.Allocator {
	return c.alloc
}

// HostAllocator returns the concrete allocator for stats access.
func (c *CPUBackend) HostAllocator() *Allocator {
	return c.alloc
}
