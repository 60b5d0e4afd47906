package cpu

import (
	"github.com/x448/float16"
)

// Float16 kernels run through float32 staging: convert in, compute with
// the float32 path, convert back out.

func f16ToF32(src []float16.Float16) []float32 {
	dst := make([]float32, len(src))
	for i, v := range src {
		dst[i] = v.Float32()
	}
	return dst
}

func f32IntoF16(dst []float16.Float16, src []float32) {
	for i, v := range src {
		dst[i] = float16.Fromfloat32(v)
	}
}
