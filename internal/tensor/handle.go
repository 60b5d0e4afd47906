package tensor

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/x448/float16"
)

// nextID is the process-wide handle id counter.
var nextID atomic.Uint64

// Handle is a reference-counted tensor value.
//
// A handle pairs immutable metadata (id, shape, dtype) with one backend
// storage allocation. New handles start with a single reference owned
// by the creator; Retain and Release adjust the count, and the storage
// is freed exactly once when the count reaches zero. Releasing an
// already-dead handle is a no-op, so disposal is idempotent.
type Handle struct {
	id      uint64
	shape   Shape
	stride  []int
	dtype   DataType
	storage Storage
	refs    atomic.Int32
}

// New creates a zero-filled handle with the given shape and dtype,
// backed by storage from alloc.
func New(shape Shape, dtype DataType, alloc Allocator) (*Handle, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	h := &Handle{
		id:      nextID.Add(1),
		shape:   shape.Clone(),
		stride:  shape.ComputeStrides(),
		dtype:   dtype,
		storage: alloc.Allocate(shape.NumElements() * dtype.Size()),
	}
	h.refs.Store(1)
	return h, nil
}

// ID returns the process-unique handle id.
func (h *Handle) ID() uint64 {
	return h.id
}

// Shape returns the handle's shape.
func (h *Handle) Shape() Shape {
	return h.shape
}

// Strides returns the handle's row-major memory strides.
func (h *Handle) Strides() []int {
	return h.stride
}

// DType returns the handle's data type.
func (h *Handle) DType() DataType {
	return h.dtype
}

// NumElements returns the total number of elements.
func (h *Handle) NumElements() int {
	return h.shape.NumElements()
}

// ByteSize returns the total memory size in bytes.
func (h *Handle) ByteSize() int {
	return h.NumElements() * h.dtype.Size()
}

// Refs returns the current reference count. Zero means the storage has
// been freed.
func (h *Handle) Refs() int {
	return int(h.refs.Load())
}

// Alive reports whether the handle still owns its storage.
func (h *Handle) Alive() bool {
	return h.refs.Load() > 0
}

// Retain increments the reference count. Every Retain must be paired
// with exactly one Release.
func (h *Handle) Retain() {
	h.refs.Add(1)
}

// Release decrements the reference count and frees the storage when it
// reaches zero. Releasing a handle whose count is already zero is a
// no-op; the count is never observable below zero.
func (h *Handle) Release() {
	for {
		n := h.refs.Load()
		if n <= 0 {
			return
		}
		if h.refs.CompareAndSwap(n, n-1) {
			if n == 1 {
				h.storage.Free()
			}
			return
		}
	}
}

// Data returns the raw byte slice of the backing storage.
// WARNING: direct access to underlying memory. Use with caution.
func (h *Handle) Data() []byte {
	return h.storage.Bytes()
}

// AsFloat32 interprets the data as []float32.
// Panics if the handle's dtype is not Float32.
func (h *Handle) AsFloat32() []float32 {
	if h.dtype != Float32 {
		panic(fmt.Sprintf("tensor dtype is %s, not float32", h.dtype))
	}
	data := h.storage.Bytes()
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*float32)(unsafe.Pointer(&data[0])), h.NumElements())
}

// AsFloat64 interprets the data as []float64.
// Panics if the handle's dtype is not Float64.
func (h *Handle) AsFloat64() []float64 {
	if h.dtype != Float64 {
		panic(fmt.Sprintf("tensor dtype is %s, not float64", h.dtype))
	}
	data := h.storage.Bytes()
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*float64)(unsafe.Pointer(&data[0])), h.NumElements())
}

// AsFloat16 interprets the data as []float16.Float16.
// Panics if the handle's dtype is not Float16.
func (h *Handle) AsFloat16() []float16.Float16 {
	if h.dtype != Float16 {
		panic(fmt.Sprintf("tensor dtype is %s, not float16", h.dtype))
	}
	data := h.storage.Bytes()
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*float16.Float16)(unsafe.Pointer(&data[0])), h.NumElements())
}

// AsInt32 interprets the data as []int32.
// Panics if the handle's dtype is not Int32.
func (h *Handle) AsInt32() []int32 {
	if h.dtype != Int32 {
		panic(fmt.Sprintf("tensor dtype is %s, not int32", h.dtype))
	}
	data := h.storage.Bytes()
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*int32)(unsafe.Pointer(&data[0])), h.NumElements())
}

// AsInt64 interprets the data as []int64.
// Panics if the handle's dtype is not Int64.
func (h *Handle) AsInt64() []int64 {
	if h.dtype != Int64 {
		panic(fmt.Sprintf("tensor dtype is %s, not int64", h.dtype))
	}
	data := h.storage.Bytes()
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*int64)(unsafe.Pointer(&data[0])), h.NumElements())
}

// AsUint8 interprets the data as []uint8.
// Panics if the handle's dtype is not Uint8.
func (h *Handle) AsUint8() []uint8 {
	if h.dtype != Uint8 {
		panic(fmt.Sprintf("tensor dtype is %s, not uint8", h.dtype))
	}
	return h.storage.Bytes()[:h.NumElements()]
}

// AsBool interprets the data as []bool.
// Panics if the handle's dtype is not Bool.
func (h *Handle) AsBool() []bool {
	if h.dtype != Bool {
		panic(fmt.Sprintf("tensor dtype is %s, not bool", h.dtype))
	}
	data := h.storage.Bytes()
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*bool)(unsafe.Pointer(&data[0])), h.NumElements())
}

// String returns a short description for logs and errors.
func (h *Handle) String() string {
	return fmt.Sprintf("Handle(id=%d, shape=%v, dtype=%s, refs=%d)", h.id, h.shape, h.dtype, h.refs.Load())
}
