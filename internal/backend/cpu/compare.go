package cpu

import (
	"fmt"

	"github.com/ebb-ml/ebb/internal/parallel"
	"github.com/ebb-ml/ebb/internal/tensor"
)

// compareApply evaluates f elementwise into a bool destination,
// broadcasting a and b against outShape when needed.
func compareApply[T number](dst []bool, a, b []T, aShape, bShape, outShape tensor.Shape, needsBC bool, f func(T, T) bool, cfg parallel.Config) {
	if !needsBC {
		parallel.Chunks(len(dst), func(start, end int) {
			for i := start; i < end; i++ {
				dst[i] = f(a[i], b[i])
			}
		}, cfg)
		return
	}

	outStrides := outShape.ComputeStrides()
	aStrides := broadcastStrides(aShape, outShape)
	bStrides := broadcastStrides(bShape, outShape)
	parallel.For(len(dst), func(i int) {
		dst[i] = f(a[flatIndex(i, outStrides, aStrides)], b[flatIndex(i, outStrides, bStrides)])
	}, cfg)
}

// compare runs a broadcasting comparison kernel producing a Bool tensor.
func (c *CPUBackend) compare(name string, a, b *tensor.Handle,
	f32 func(float32, float32) bool,
	f64 func(float64, float64) bool,
	i32 func(int32, int32) bool,
	i64 func(int64, int64) bool,
	u8 func(uint8, uint8) bool,
) (*tensor.Handle, error) {
	if a.DType() != b.DType() {
		return nil, fmt.Errorf("%s: dtype mismatch: %s vs %s", name, a.DType(), b.DType())
	}
	outShape, needsBC, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	out, err := tensor.New(outShape, tensor.Bool, c.alloc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	dst := out.AsBool()
	switch a.DType() {
	case tensor.Float32:
		compareApply(dst, a.AsFloat32(), b.AsFloat32(), a.Shape(), b.Shape(), outShape, needsBC, f32, c.par)
	case tensor.Float64:
		compareApply(dst, a.AsFloat64(), b.AsFloat64(), a.Shape(), b.Shape(), outShape, needsBC, f64, c.par)
	case tensor.Float16:
		compareApply(dst, f16ToF32(a.AsFloat16()), f16ToF32(b.AsFloat16()), a.Shape(), b.Shape(), outShape, needsBC, f32, c.par)
	case tensor.Int32:
		compareApply(dst, a.AsInt32(), b.AsInt32(), a.Shape(), b.Shape(), outShape, needsBC, i32, c.par)
	case tensor.Int64:
		compareApply(dst, a.AsInt64(), b.AsInt64(), a.Shape(), b.Shape(), outShape, needsBC, i64, c.par)
	case tensor.Uint8:
		compareApply(dst, a.AsUint8(), b.AsUint8(), a.Shape(), b.Shape(), outShape, needsBC, u8, c.par)
	default:
		out.Release()
		return nil, fmt.Errorf("%s: unsupported dtype %s", name, a.DType())
	}
	return out, nil
}

// Greater computes a > b elementwise, producing a Bool tensor.
func (c *CPUBackend) Greater(a, b *tensor.Handle) (*tensor.Handle, error) {
	return c.compare("greater", a, b,
		func(x, y float32) bool { return x > y },
		func(x, y float64) bool { return x > y },
		func(x, y int32) bool { return x > y },
		func(x, y int64) bool { return x > y },
		func(x, y uint8) bool { return x > y },
	)
}

// Equal computes a == b elementwise, producing a Bool tensor.
func (c *CPUBackend) Equal(a, b *tensor.Handle) (*tensor.Handle, error) {
	return c.compare("equal", a, b,
		func(x, y float32) bool { return x == y },
		func(x, y float64) bool { return x == y },
		func(x, y int32) bool { return x == y },
		func(x, y int64) bool { return x == y },
		func(x, y uint8) bool { return x == y },
	)
}

// Select picks a[i] where cond[i] is true and b[i] otherwise. cond must
// be Bool and all three operands must share one shape; elements move as
// raw bytes so every dtype is supported.
func (c *CPUBackend) Select(cond, a, b *tensor.Handle) (*tensor.Handle, error) {
	if cond.DType() != tensor.Bool {
		return nil, fmt.Errorf("select: condition must be %s, got %s", tensor.Bool, cond.DType())
	}
	if a.DType() != b.DType() {
		return nil, fmt.Errorf("select: dtype mismatch: %s vs %s", a.DType(), b.DType())
	}
	if !cond.Shape().Equal(a.Shape()) || !a.Shape().Equal(b.Shape()) {
		return nil, fmt.Errorf("select: shapes must match: cond %v, a %v, b %v", cond.Shape(), a.Shape(), b.Shape())
	}

	out, err := tensor.New(a.Shape().Clone(), a.DType(), c.alloc)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}

	esize := a.DType().Size()
	mask := cond.AsBool()
	dst, av, bv := out.Data(), a.Data(), b.Data()
	parallel.For(a.NumElements(), func(i int) {
		lo, hi := i*esize, (i+1)*esize
		if mask[i] {
			copy(dst[lo:hi], av[lo:hi])
		} else {
			copy(dst[lo:hi], bv[lo:hi])
		}
	}, c.par)
	return out, nil
}
