package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/hseq/internal/tensor"
)

// Exp computes e^x element-wise.
func (cpu *CPUBackend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("exp", x, math.Exp)
}

// Sqrt computes the square root element-wise.
func (cpu *CPUBackend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("sqrt", x, math.Sqrt)
}

// Rsqrt computes 1/sqrt(x) element-wise.
func (cpu *CPUBackend) Rsqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("rsqrt", x, func(v float64) float64 { return 1 / math.Sqrt(v) })
}

// Tanh applies the hyperbolic tangent.
func (cpu *CPUBackend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("tanh", x, math.Tanh)
}

// Sigmoid applies 1 / (1 + e^-x).
func (cpu *CPUBackend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("sigmoid", x, func(v float64) float64 {
		if v >= 0 {
			return 1 / (1 + math.Exp(-v))
		}
		e := math.Exp(v)
		return e / (1 + e)
	})
}

// ReLU applies max(0, x).
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("relu", x, func(v float64) float64 { return math.Max(v, 0) })
}

func (cpu *CPUBackend) unary(name string, x *tensor.RawTensor, f func(float64) float64) *tensor.RawTensor {
	out := tensor.MustRaw(x.Shape(), x.DType(), cpu.device)
	switch x.DType() {
	case tensor.Float32:
		unaryKernel(tensor.AsSlice[float32](out), tensor.AsSlice[float32](x), f)
	case tensor.Float64:
		unaryKernel(tensor.AsSlice[float64](out), tensor.AsSlice[float64](x), f)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, x.DType()))
	}
	return out
}

func unaryKernel[T float](dst, src []T, f func(float64) float64) {
	for i, v := range src {
		dst[i] = T(f(float64(v)))
	}
}

// Softmax normalizes along dim with max subtraction for stability.
// A row whose entries are all -Inf produces zeros instead of NaN.
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	dim = tensor.NormalizeDim(dim, len(shape))
	outer, inner := splitAt(shape, dim)

	out := tensor.MustRaw(shape, x.DType(), cpu.device)
	switch x.DType() {
	case tensor.Float32:
		softmaxKernel(tensor.AsSlice[float32](out), tensor.AsSlice[float32](x), outer, shape[dim], inner)
	case tensor.Float64:
		softmaxKernel(tensor.AsSlice[float64](out), tensor.AsSlice[float64](x), outer, shape[dim], inner)
	default:
		panic(fmt.Sprintf("softmax: unsupported dtype %s", x.DType()))
	}
	return out
}

func softmaxKernel[T float](dst, src []T, outer, size, inner int) {
	negInf := math.Inf(-1)
	for o := 0; o < outer; o++ {
		base := o * size * inner
		for in := 0; in < inner; in++ {
			maxVal := negInf
			for s := 0; s < size; s++ {
				maxVal = math.Max(maxVal, float64(src[base+s*inner+in]))
			}
			if math.IsInf(maxVal, -1) {
				// dst is freshly allocated, already zero.
				continue
			}

			sum := 0.0
			for s := 0; s < size; s++ {
				idx := base + s*inner + in
				e := math.Exp(float64(src[idx]) - maxVal)
				dst[idx] = T(e)
				sum += e
			}
			for s := 0; s < size; s++ {
				idx := base + s*inner + in
				dst[idx] = T(float64(dst[idx]) / sum)
			}
		}
	}
}
