package cpu

import (
	"fmt"

	"github.com/x448/float16"

	"github.com/ebb-ml/ebb/internal/tensor"
)

// Cast converts x to the target dtype. The result is always a fresh
// handle, even when the dtype is unchanged. Values stage through
// float64, so int64 values above 2^53 round.
func (c *CPUBackend) Cast(x *tensor.Handle, to tensor.DataType) (*tensor.Handle, error) {
	out, err := tensor.New(x.Shape().Clone(), to, c.alloc)
	if err != nil {
		return nil, fmt.Errorf("cast: %w", err)
	}
	if to == x.DType() {
		copy(out.Data(), x.Data())
		return out, nil
	}

	staged := make([]float64, x.NumElements())
	switch x.DType() {
	case tensor.Float32:
		for i, v := range x.AsFloat32() {
			staged[i] = float64(v)
		}
	case tensor.Float64:
		copy(staged, x.AsFloat64())
	case tensor.Float16:
		for i, v := range x.AsFloat16() {
			staged[i] = float64(v.Float32())
		}
	case tensor.Int32:
		for i, v := range x.AsInt32() {
			staged[i] = float64(v)
		}
	case tensor.Int64:
		for i, v := range x.AsInt64() {
			staged[i] = float64(v)
		}
	case tensor.Uint8:
		for i, v := range x.AsUint8() {
			staged[i] = float64(v)
		}
	case tensor.Bool:
		for i, v := range x.AsBool() {
			if v {
				staged[i] = 1
			}
		}
	default:
		out.Release()
		return nil, fmt.Errorf("cast: unsupported source dtype %s", x.DType())
	}

	switch to {
	case tensor.Float32:
		dst := out.AsFloat32()
		for i, v := range staged {
			dst[i] = float32(v)
		}
	case tensor.Float64:
		copy(out.AsFloat64(), staged)
	case tensor.Float16:
		dst := out.AsFloat16()
		for i, v := range staged {
			dst[i] = float16.Fromfloat32(float32(v))
		}
	case tensor.Int32:
		dst := out.AsInt32()
		for i, v := range staged {
			dst[i] = int32(v)
		}
	case tensor.Int64:
		dst := out.AsInt64()
		for i, v := range staged {
			dst[i] = int64(v)
		}
	case tensor.Uint8:
		dst := out.AsUint8()
		for i, v := range staged {
			dst[i] = uint8(v)
		}
	case tensor.Bool:
		dst := out.AsBool()
		for i, v := range staged {
			dst[i] = v != 0
		}
	default:
		out.Release()
		return nil, fmt.Errorf("cast: unsupported target dtype %s", to)
	}
	return out, nil
}
