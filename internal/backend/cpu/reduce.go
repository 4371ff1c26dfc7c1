package cpu

import (
	"fmt"

	"github.com/born-ml/hseq/internal/tensor"
)

type reduceOp int

const (
	reduceSum reduceOp = iota
	reduceMean
	reduceMax
)

func (op reduceOp) String() string {
	return [...]string{"sumdim", "meandim", "maxdim"}[op]
}

// SumDim sums along dim.
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return cpu.reduce(reduceSum, x, dim, keepDim)
}

// MeanDim averages along dim.
func (cpu *CPUBackend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return cpu.reduce(reduceMean, x, dim, keepDim)
}

// MaxDim takes the maximum along dim.
func (cpu *CPUBackend) MaxDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return cpu.reduce(reduceMax, x, dim, keepDim)
}

func (cpu *CPUBackend) reduce(op reduceOp, x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := x.Shape()
	dim = tensor.NormalizeDim(dim, len(shape))
	outer, inner := splitAt(shape, dim)

	out := tensor.MustRaw(reducedShape(shape, dim, keepDim), x.DType(), cpu.device)
	switch x.DType() {
	case tensor.Float32:
		reduceKernel(op, tensor.AsSlice[float32](out), tensor.AsSlice[float32](x), outer, shape[dim], inner)
	case tensor.Float64:
		reduceKernel(op, tensor.AsSlice[float64](out), tensor.AsSlice[float64](x), outer, shape[dim], inner)
	case tensor.Int32:
		reduceKernel(op, tensor.AsSlice[int32](out), tensor.AsSlice[int32](x), outer, shape[dim], inner)
	case tensor.Int64:
		reduceKernel(op, tensor.AsSlice[int64](out), tensor.AsSlice[int64](x), outer, shape[dim], inner)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", op, x.DType()))
	}
	return out
}

func reducedShape(shape tensor.Shape, dim int, keepDim bool) tensor.Shape {
	out := make(tensor.Shape, 0, len(shape))
	for i, d := range shape {
		switch {
		case i != dim:
			out = append(out, d)
		case keepDim:
			out = append(out, 1)
		}
	}
	return out
}

func reduceKernel[T number](op reduceOp, dst, src []T, outer, size, inner int) {
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*size*inner + in
			acc := src[base]
			for s := 1; s < size; s++ {
				v := src[base+s*inner]
				if op == reduceMax {
					acc = max(acc, v)
				} else {
					acc += v
				}
			}
			if op == reduceMean {
				acc = T(float64(acc) / float64(size))
			}
			dst[o*inner+in] = acc
		}
	}
}
