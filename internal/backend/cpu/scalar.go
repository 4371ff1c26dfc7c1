package cpu

import (
	"fmt"

	"github.com/born-ml/hseq/internal/tensor"
)

// MulScalar multiplies every element by a scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	s := toFloat64(scalar)
	return cpu.scalarOp("mulscalar", x, func(v float64) float64 { return v * s })
}

// AddScalar adds a scalar to every element.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	s := toFloat64(scalar)
	return cpu.scalarOp("addscalar", x, func(v float64) float64 { return v + s })
}

func (cpu *CPUBackend) scalarOp(name string, x *tensor.RawTensor, f func(float64) float64) *tensor.RawTensor {
	out := tensor.MustRaw(x.Shape(), x.DType(), cpu.device)
	switch x.DType() {
	case tensor.Float32:
		mapKernel(tensor.AsSlice[float32](out), tensor.AsSlice[float32](x), f)
	case tensor.Float64:
		mapKernel(tensor.AsSlice[float64](out), tensor.AsSlice[float64](x), f)
	case tensor.Int32:
		mapKernel(tensor.AsSlice[int32](out), tensor.AsSlice[int32](x), f)
	case tensor.Int64:
		mapKernel(tensor.AsSlice[int64](out), tensor.AsSlice[int64](x), f)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, x.DType()))
	}
	return out
}

func mapKernel[T number](dst, src []T, f func(float64) float64) {
	for i, v := range src {
		dst[i] = T(f(float64(v)))
	}
}

// toFloat64 converts a Go scalar of any supported element type.
func toFloat64(v any) float64 {
	switch s := v.(type) {
	case float32:
		return float64(s)
	case float64:
		return s
	case int:
		return float64(s)
	case int32:
		return float64(s)
	case int64:
		return float64(s)
	case uint8:
		return float64(s)
	case bool:
		if s {
			return 1
		}
		return 0
	default:
		panic(fmt.Sprintf("unsupported scalar type %T", v))
	}
}
