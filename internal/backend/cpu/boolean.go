package cpu

import (
	"fmt"

	"github.com/born-ml/hseq/internal/tensor"
)

// Or computes element-wise logical OR with broadcasting.
func (cpu *CPUBackend) Or(a, b *tensor.RawTensor) *tensor.RawTensor {
	if a.DType() != tensor.Bool || b.DType() != tensor.Bool {
		panic(fmt.Sprintf("or: both tensors must be bool, got %s and %s", a.DType(), b.DType()))
	}
	outShape, _, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("or: %v", err))
	}

	out := tensor.MustRaw(outShape, tensor.Bool, cpu.device)
	dst, x, y := out.AsBool(), a.AsBool(), b.AsBool()
	if a.Shape().Equal(b.Shape()) {
		for i := range dst {
			dst[i] = x[i] || y[i]
		}
		return out
	}
	broadcastWalk(outShape, []tensor.Shape{a.Shape(), b.Shape()}, func(o int, offs []int) {
		dst[o] = x[offs[0]] || y[offs[1]]
	})
	return out
}

// Not computes element-wise logical NOT.
func (cpu *CPUBackend) Not(x *tensor.RawTensor) *tensor.RawTensor {
	if x.DType() != tensor.Bool {
		panic(fmt.Sprintf("not: tensor must be bool, got %s", x.DType()))
	}
	out := tensor.MustRaw(x.Shape(), tensor.Bool, cpu.device)
	dst := out.AsBool()
	for i, v := range x.AsBool() {
		dst[i] = !v
	}
	return out
}
