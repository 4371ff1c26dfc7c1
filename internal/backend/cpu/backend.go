// Package cpu implements the pure Go CPU backend.
package cpu

import (
	"fmt"

	"github.com/born-ml/hseq/internal/parallel"
	"github.com/born-ml/hseq/internal/tensor"
)

// float and number are the element constraints used by the kernels.
type float interface {
	~float32 | ~float64
}

type number interface {
	float | ~int32 | ~int64 | ~uint8
}

// CPUBackend implements tensor.Backend on the host CPU.
//
// Row-oriented kernels (matmul) fan out over rows according to the parallel
// config; everything else runs on the calling goroutine.
type CPUBackend struct {
	device   tensor.Device
	parallel parallel.Config
}

// New creates a CPU backend with the default parallel config.
func New() *CPUBackend {
	return NewWithConfig(parallel.DefaultConfig())
}

// NewWithConfig creates a CPU backend with an explicit parallel config.
func NewWithConfig(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{
		device:   tensor.CPU,
		parallel: cfg,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

type binaryOp int

const (
	opAdd binaryOp = iota
	opSub
	opMul
	opDiv
)

func (op binaryOp) String() string {
	return [...]string{"add", "sub", "mul", "div"}[op]
}

func arith[T number](op binaryOp) func(x, y T) T {
	switch op {
	case opAdd:
		return func(x, y T) T { return x + y }
	case opSub:
		return func(x, y T) T { return x - y }
	case opMul:
		return func(x, y T) T { return x * y }
	default:
		return func(x, y T) T { return x / y }
	}
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary(opAdd, a, b)
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary(opSub, a, b)
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary(opMul, a, b)
}

// Div performs element-wise division with broadcasting.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary(opDiv, a, b)
}

func (cpu *CPUBackend) binary(op binaryOp, a, b *tensor.RawTensor) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch %s vs %s", op, a.DType(), b.DType()))
	}
	outShape, _, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}

	out := tensor.MustRaw(outShape, a.DType(), cpu.device)
	switch a.DType() {
	case tensor.Float32:
		binaryKernel(out, a, b, arith[float32](op))
	case tensor.Float64:
		binaryKernel(out, a, b, arith[float64](op))
	case tensor.Int32:
		binaryKernel(out, a, b, arith[int32](op))
	case tensor.Int64:
		binaryKernel(out, a, b, arith[int64](op))
	case tensor.Uint8:
		binaryKernel(out, a, b, arith[uint8](op))
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", op, a.DType()))
	}
	return out
}

func binaryKernel[T number](out, a, b *tensor.RawTensor, f func(x, y T) T) {
	dst := tensor.AsSlice[T](out)
	x := tensor.AsSlice[T](a)
	y := tensor.AsSlice[T](b)

	if a.Shape().Equal(b.Shape()) {
		for i := range dst {
			dst[i] = f(x[i], y[i])
		}
		return
	}

	broadcastWalk(out.Shape(), []tensor.Shape{a.Shape(), b.Shape()}, func(o int, offs []int) {
		dst[o] = f(x[offs[0]], y[offs[1]])
	})
}
