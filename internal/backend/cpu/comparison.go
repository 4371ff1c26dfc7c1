package cpu

import (
	"fmt"

	"github.com/born-ml/hseq/internal/tensor"
)

// EqualScalar returns x == scalar element-wise as a bool tensor.
func (cpu *CPUBackend) EqualScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.compareScalar("equalscalar", x, toFloat64(scalar), false)
}

// NotEqualScalar returns x != scalar element-wise as a bool tensor.
func (cpu *CPUBackend) NotEqualScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.compareScalar("notequalscalar", x, toFloat64(scalar), true)
}

func (cpu *CPUBackend) compareScalar(name string, x *tensor.RawTensor, s float64, negate bool) *tensor.RawTensor {
	out := tensor.MustRaw(x.Shape(), tensor.Bool, cpu.device)
	dst := out.AsBool()
	switch x.DType() {
	case tensor.Float32:
		equalKernel(dst, tensor.AsSlice[float32](x), float32(s), negate)
	case tensor.Float64:
		equalKernel(dst, tensor.AsSlice[float64](x), s, negate)
	case tensor.Int32:
		equalKernel(dst, tensor.AsSlice[int32](x), int32(s), negate)
	case tensor.Int64:
		equalKernel(dst, tensor.AsSlice[int64](x), int64(s), negate)
	case tensor.Uint8:
		equalKernel(dst, tensor.AsSlice[uint8](x), uint8(s), negate)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, x.DType()))
	}
	return out
}

func equalKernel[T number](dst []bool, src []T, s T, negate bool) {
	for i, v := range src {
		dst[i] = (v == s) != negate
	}
}
