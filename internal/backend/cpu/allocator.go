package cpu

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"

	"github.com/ebb-ml/ebb/internal/metrics"
	"github.com/ebb-ml/ebb/internal/tensor"
)

// Allocator hands out pooled host memory and keeps live-buffer
// accounting. Freed buffers return to a per-size pool; allocations are
// zeroed before reuse so fresh handles always read as zeros.
type Allocator struct {
	pools sync.Map // nbytes -> *sync.Pool

	liveBuffers atomic.Int64
	liveBytes   atomic.Int64
	totalAllocs atomic.Int64
	peakBytes   atomic.Int64
}

// NewAllocator creates an empty pooled allocator.
func NewAllocator() *Allocator {
	return &Allocator{}
}

type hostStorage struct {
	data  []byte
	alloc *Allocator
}

func (s *hostStorage) Bytes() []byte { return s.data }

func (s *hostStorage) Free() {
	s.alloc.free(s.data)
	s.data = nil
}

// Allocate returns zeroed storage of the given byte size.
func (a *Allocator) Allocate(nbytes int) tensor.Storage {
	var data []byte
	if pool := a.poolFor(nbytes); pool != nil {
		if v := pool.Get(); v != nil {
			data = v.([]byte)
			clear(data)
		}
	}
	if data == nil {
		data = make([]byte, nbytes)
	}

	a.totalAllocs.Add(1)
	a.liveBuffers.Add(1)
	live := a.liveBytes.Add(int64(nbytes))
	for {
		peak := a.peakBytes.Load()
		if live <= peak || a.peakBytes.CompareAndSwap(peak, live) {
			break
		}
	}
	metrics.LiveTensors.Inc()
	metrics.LiveTensorBytes.Add(float64(nbytes))

	return &hostStorage{data: data, alloc: a}
}

func (a *Allocator) free(data []byte) {
	nbytes := len(data)
	if pool := a.poolFor(nbytes); pool != nil {
		pool.Put(data) //nolint:staticcheck // []byte header copy is deliberate here
	}
	a.liveBuffers.Add(-1)
	a.liveBytes.Add(int64(-nbytes))
	metrics.LiveTensors.Dec()
	metrics.LiveTensorBytes.Sub(float64(nbytes))
}

func (a *Allocator) poolFor(nbytes int) *sync.Pool {
	if nbytes == 0 {
		return nil
	}
	if p, ok := a.pools.Load(nbytes); ok {
		return p.(*sync.Pool)
	}
	p, _ := a.pools.LoadOrStore(nbytes, &sync.Pool{})
	return p.(*sync.Pool)
}

// LiveBuffers returns the number of storages currently allocated and
// not yet freed.
func (a *Allocator) LiveBuffers() int64 {
	return a.liveBuffers.Load()
}

// Stats is a point-in-time snapshot of allocator accounting.
type Stats struct {
	LiveBuffers int64
	LiveBytes   int64
	TotalAllocs int64
	PeakBytes   int64
}

// Stats returns a snapshot of the allocator counters.
func (a *Allocator) Stats() Stats {
	return Stats{
		LiveBuffers: a.liveBuffers.Load(),
		LiveBytes:   a.liveBytes.Load(),
		TotalAllocs: a.totalAllocs.Load(),
		PeakBytes:   a.peakBytes.Load(),
	}
}

// String renders the snapshot in human-readable form.
func (s Stats) String() string {
	return fmt.Sprintf("live=%s buffers=%s allocs=%s peak=%s",
		humanize.Bytes(uint64(max(s.LiveBytes, 0))),
		humanize.Comma(s.LiveBuffers),
		humanize.Comma(s.TotalAllocs),
		humanize.Bytes(uint64(max(s.PeakBytes, 0))))
}
