package cpu

import (
	"fmt"

	"github.com/born-ml/hseq/internal/tensor"
)

// Embedding gathers rows of a 2D weight table: indices [...] -> [..., D].
// Indices must be int32 or int64 and lie in [0, rows).
func (cpu *CPUBackend) Embedding(weight, indices *tensor.RawTensor) *tensor.RawTensor {
	wShape := weight.Shape()
	if len(wShape) != 2 {
		panic(fmt.Sprintf("embedding: weight must be 2D, got %v", wShape))
	}
	rows, dim := wShape[0], wShape[1]

	var ids []int64
	switch indices.DType() {
	case tensor.Int32:
		for _, v := range indices.AsInt32() {
			ids = append(ids, int64(v))
		}
	case tensor.Int64:
		ids = indices.AsInt64()
	default:
		panic(fmt.Sprintf("embedding: indices must be int32 or int64, got %s", indices.DType()))
	}

	outShape := append(indices.Shape().Clone(), dim)
	out := tensor.MustRaw(outShape, weight.DType(), cpu.device)
	rowBytes := dim * weight.DType().Size()
	src, dst := weight.Data(), out.Data()
	for i, id := range ids {
		if id < 0 || id >= int64(rows) {
			panic(fmt.Sprintf("embedding: index %d out of range [0, %d)", id, rows))
		}
		copy(dst[i*rowBytes:(i+1)*rowBytes], src[int(id)*rowBytes:(int(id)+1)*rowBytes])
	}
	return out
}

// Where selects x where condition is true, y elsewhere, broadcasting all three.
func (cpu *CPUBackend) Where(condition, x, y *tensor.RawTensor) *tensor.RawTensor {
	if condition.DType() != tensor.Bool {
		panic(fmt.Sprintf("where: condition must be bool, got %s", condition.DType()))
	}
	if x.DType() != y.DType() {
		panic(fmt.Sprintf("where: dtype mismatch %s vs %s", x.DType(), y.DType()))
	}
	shape, _, err := tensor.BroadcastShapes(x.Shape(), y.Shape())
	if err == nil {
		shape, _, err = tensor.BroadcastShapes(condition.Shape(), shape)
	}
	if err != nil {
		panic(fmt.Sprintf("where: %v", err))
	}

	out := tensor.MustRaw(shape, x.DType(), cpu.device)
	es := x.DType().Size()
	cond := condition.AsBool()
	dst, xs, ys := out.Data(), x.Data(), y.Data()
	broadcastWalk(shape, []tensor.Shape{condition.Shape(), x.Shape(), y.Shape()}, func(o int, offs []int) {
		if cond[offs[0]] {
			copy(dst[o*es:(o+1)*es], xs[offs[1]*es:(offs[1]+1)*es])
		} else {
			copy(dst[o*es:(o+1)*es], ys[offs[2]*es:(offs[2]+1)*es])
		}
	})
	return out
}

// MaskedFill copies x and writes value wherever mask, broadcast to x's
// shape, is true.
func (cpu *CPUBackend) MaskedFill(x, mask *tensor.RawTensor, value any) *tensor.RawTensor {
	if mask.DType() != tensor.Bool {
		panic(fmt.Sprintf("maskedfill: mask must be bool, got %s", mask.DType()))
	}
	got, _, err := tensor.BroadcastShapes(mask.Shape(), x.Shape())
	if err != nil || !got.Equal(x.Shape()) {
		panic(fmt.Sprintf("maskedfill: mask %v does not broadcast to %v", mask.Shape(), x.Shape()))
	}

	out := x.Clone()
	v := toFloat64(value)
	switch x.DType() {
	case tensor.Float32:
		maskedFillKernel(tensor.AsSlice[float32](out), mask, float32(v), x.Shape())
	case tensor.Float64:
		maskedFillKernel(tensor.AsSlice[float64](out), mask, v, x.Shape())
	case tensor.Int32:
		maskedFillKernel(tensor.AsSlice[int32](out), mask, int32(v), x.Shape())
	case tensor.Int64:
		maskedFillKernel(tensor.AsSlice[int64](out), mask, int64(v), x.Shape())
	default:
		panic(fmt.Sprintf("maskedfill: unsupported dtype %s", x.DType()))
	}
	return out
}

func maskedFillKernel[T number](dst []T, mask *tensor.RawTensor, v T, shape tensor.Shape) {
	m := mask.AsBool()
	broadcastWalk(shape, []tensor.Shape{mask.Shape()}, func(o int, offs []int) {
		if m[offs[0]] {
			dst[o] = v
		}
	})
}
