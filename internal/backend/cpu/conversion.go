package cpu

import (
	"fmt"

	"github.com/born-ml/hseq/internal/tensor"
)

// Cast converts x to dtype. Bool input becomes 0/1; bool output is x != 0.
func (cpu *CPUBackend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	if x.DType() == dtype {
		return x.Clone()
	}

	values := toFloat64s(x)
	out := tensor.MustRaw(x.Shape(), dtype, cpu.device)
	switch dtype {
	case tensor.Float32:
		fromFloat64s(tensor.AsSlice[float32](out), values)
	case tensor.Float64:
		copy(tensor.AsSlice[float64](out), values)
	case tensor.Int32:
		fromFloat64s(tensor.AsSlice[int32](out), values)
	case tensor.Int64:
		fromFloat64s(tensor.AsSlice[int64](out), values)
	case tensor.Uint8:
		fromFloat64s(tensor.AsSlice[uint8](out), values)
	case tensor.Bool:
		dst := out.AsBool()
		for i, v := range values {
			dst[i] = v != 0
		}
	default:
		panic(fmt.Sprintf("cast: unsupported target dtype %s", dtype))
	}
	return out
}

func toFloat64s(x *tensor.RawTensor) []float64 {
	switch x.DType() {
	case tensor.Float32:
		return widen(tensor.AsSlice[float32](x))
	case tensor.Float64:
		return tensor.AsSlice[float64](x)
	case tensor.Int32:
		return widen(tensor.AsSlice[int32](x))
	case tensor.Int64:
		return widen(tensor.AsSlice[int64](x))
	case tensor.Uint8:
		return widen(tensor.AsSlice[uint8](x))
	case tensor.Bool:
		src := x.AsBool()
		vals := make([]float64, len(src))
		for i, b := range src {
			if b {
				vals[i] = 1
			}
		}
		return vals
	default:
		panic(fmt.Sprintf("cast: unsupported source dtype %s", x.DType()))
	}
}

func widen[T number](src []T) []float64 {
	vals := make([]float64, len(src))
	for i, v := range src {
		vals[i] = float64(v)
	}
	return vals
}

func fromFloat64s[T number](dst []T, src []float64) {
	for i, v := range src {
		dst[i] = T(v)
	}
}
