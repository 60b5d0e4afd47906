//go:build windows

package webgpu

import (
	"fmt"
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/ebb-ml/ebb/internal/backend"
	"github.com/ebb-ml/ebb/internal/backend/cpu"
	"github.com/ebb-ml/ebb/internal/logging"
	"github.com/ebb-ml/ebb/internal/tensor"
)

var _ backend.Backend = (*Backend)(nil)

// Backend runs float32 arithmetic as WGSL compute shaders and
// delegates every other kernel to an embedded host CPU backend.
// Tensor storage lives in host memory; each GPU dispatch uploads its
// operands and reads the result back.
type Backend struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	// Compiled shader and pipeline caches, keyed by kernel name.
	mu        sync.RWMutex
	shaders   map[string]*wgpu.ShaderModule
	pipelines map[string]*wgpu.ComputePipeline

	adapterName string
	vendorName  string

	// Host backend for kernels and dtypes without a shader. It also
	// provides the allocator, so all handles share one accounting.
	host *cpu.CPUBackend
}

// newBackend is the registry constructor. The config string configures
// the host fallback the same way it configures the cpu backend.
func newBackend(config string) (backend.Backend, error) {
	host, err := cpu.NewWithConfig(config)
	if err != nil {
		return nil, fmt.Errorf("webgpu: host fallback: %w", err)
	}
	return newWithHost(host)
}

// New creates a WebGPU backend with a default host fallback. Call
// Release when done to free the GPU device.
func New() (*Backend, error) {
	return newWithHost(cpu.New())
}

func newWithHost(host *cpu.CPUBackend) (b *Backend, err error) {
	// RequestAdapter panics when the wgpu native library is missing.
	defer func() {
		if r := recover(); r != nil {
			b = nil
			err = fmt.Errorf("webgpu: native library not available: %v", r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, fmt.Errorf("webgpu: request adapter: %w", adapterErr)
	}

	info := adapter.GetInfo()

	device, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: request device: %w", deviceErr)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: no device queue")
	}

	b = &Backend{
		instance:    instance,
		adapter:     adapter,
		device:      device,
		queue:       queue,
		shaders:     make(map[string]*wgpu.ShaderModule),
		pipelines:   make(map[string]*wgpu.ComputePipeline),
		adapterName: info.Name,
		vendorName:  info.VendorName,
		host:        host,
	}
	logging.Log.Debug("webgpu backend initialized", "adapter", b.adapterName, "vendor", b.vendorName)
	return b, nil
}

func available() (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()
	return true
}

// Name returns the backend registry name.
func (b *Backend) Name() string {
	return "webgpu"
}

// Description returns a human-readable backend description.
func (b *Backend) Description() string {
	if b.adapterName == "" {
		return "WebGPU backend"
	}
	return fmt.Sprintf("WebGPU backend (%s %s)", b.adapterName, b.vendorName)
}

// Device returns the compute device.
func (b *Backend) Device() backend.Device {
	return backend.WebGPU
}

// Allocator returns the host allocator shared with the CPU fallback.
func (b *Backend) Allocator() tensor.Allocator {
	return b.host.Allocator()
}

// HostAllocator returns the concrete allocator for stats access.
func (b *Backend) HostAllocator() *cpu.Allocator {
	return b.host.HostAllocator()
}

// Release frees the GPU device and every cached shader and pipeline.
// The backend must not be used afterwards.
func (b *Backend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, p := range b.pipelines {
		p.Release()
	}
	b.pipelines = nil
	for _, s := range b.shaders {
		s.Release()
	}
	b.shaders = nil

	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}
