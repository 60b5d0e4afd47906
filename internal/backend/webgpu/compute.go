//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/ebb-ml/ebb/internal/tensor"
)

// pipeline returns the cached compute pipeline for a kernel, compiling
// its WGSL source on first use.
func (b *Backend) pipeline(name, code string) *wgpu.ComputePipeline {
	b.mu.RLock()
	p, ok := b.pipelines[name]
	b.mu.RUnlock()
	if ok {
		return p
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if p, ok := b.pipelines[name]; ok {
		return p
	}

	shader := b.device.CreateShaderModuleWGSL(code)
	b.shaders[name] = shader
	p = b.device.CreateComputePipelineSimple(nil, shader, "main")
	b.pipelines[name] = p
	return p
}

// uploadBuffer creates a storage buffer initialized with data.
func (b *Backend) uploadBuffer(data []byte) *wgpu.Buffer {
	size := uint64(len(data))
	buf := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})
	ptr := buf.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice over the mapped range for the upload copy
	copy(unsafe.Slice((*byte)(ptr), size), data)
	buf.Unmap()
	return buf
}

// paramsBuffer creates a 16-byte aligned uniform buffer from u32
// parameters.
func (b *Backend) paramsBuffer(params ...uint32) *wgpu.Buffer {
	size := (uint64(len(params))*4 + 15) &^ 15
	data := make([]byte, size)
	for i, p := range params {
		binary.LittleEndian.PutUint32(data[i*4:], p)
	}

	buf := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})
	ptr := buf.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice over the mapped range for the upload copy
	copy(unsafe.Slice((*byte)(ptr), size), data)
	buf.Unmap()
	return buf
}

// readBuffer copies a storage buffer back to host memory through a
// staging buffer; storage buffers cannot be mapped directly.
func (b *Backend) readBuffer(src *wgpu.Buffer, size uint64) ([]byte, error) {
	staging := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer staging.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(src, 0, staging, 0, size)
	b.queue.Submit(encoder.Finish(nil))

	if err := staging.MapAsync(b.device, wgpu.MapModeRead, 0, size); err != nil {
		return nil, fmt.Errorf("map staging buffer: %w", err)
	}
	ptr := staging.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice over the mapped range for the readback copy
	out := make([]byte, size)
	copy(out, unsafe.Slice((*byte)(ptr), size))
	staging.Unmap()
	return out, nil
}

// dispatch binds the inputs, an output buffer of outBytes and the
// parameter uniform to the named pipeline, runs it over the given
// workgroup grid and returns the output bytes.
func (b *Backend) dispatch(name, code string, inputs [][]byte, outBytes int, groupsX, groupsY uint32, params ...uint32) ([]byte, error) {
	p := b.pipeline(name, code)

	bufs := make([]*wgpu.Buffer, 0, len(inputs)+2)
	release := func() {
		for _, buf := range bufs {
			buf.Release()
		}
	}
	defer release()

	entries := make([]wgpu.BindGroupEntry, 0, len(inputs)+2)
	binding := uint32(0)
	for _, in := range inputs {
		buf := b.uploadBuffer(in)
		bufs = append(bufs, buf)
		entries = append(entries, wgpu.BufferBindingEntry(binding, buf, 0, uint64(len(in))))
		binding++
	}

	out := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  uint64(outBytes),
	})
	bufs = append(bufs, out)
	entries = append(entries, wgpu.BufferBindingEntry(binding, out, 0, uint64(outBytes)))
	binding++

	pb := b.paramsBuffer(params...)
	bufs = append(bufs, pb)
	entries = append(entries, wgpu.BufferBindingEntry(binding, pb, 0, (uint64(len(params))*4+15)&^15))

	bindGroup := b.device.CreateBindGroupSimple(p.GetBindGroupLayout(0), entries)
	defer bindGroup.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(p)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(groupsX, groupsY, 1)
	pass.End()
	b.queue.Submit(encoder.Finish(nil))

	return b.readBuffer(out, uint64(outBytes))
}

// runElementwise executes a flat one-dimensional shader over float32
// operands of identical shape and returns a fresh result handle.
func (b *Backend) runElementwise(name, code string, out tensor.Shape, inputs ...*tensor.Handle) (*tensor.Handle, error) {
	n := out.NumElements()
	data := make([][]byte, len(inputs))
	for i, in := range inputs {
		data[i] = in.Data()
	}

	groups := uint32((n + workgroupSize - 1) / workgroupSize)
	raw, err := b.dispatch(name, code, data, n*4, groups, 1, uint32(n))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	h, err := tensor.New(out.Clone(), tensor.Float32, b.Allocator())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	copy(h.Data(), raw)
	return h, nil
}
