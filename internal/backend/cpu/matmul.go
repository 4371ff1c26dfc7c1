package cpu

import (
	"fmt"

	"github.com/born-ml/hseq/internal/parallel"
	"github.com/born-ml/hseq/internal/tensor"
)

// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) -> (M, N).
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: only 2D tensors supported, got %dD and %dD", len(aShape), len(bShape)))
	}
	m, k := aShape[0], aShape[1]
	if bShape[0] != k {
		panic(fmt.Sprintf("matmul: shape mismatch [%d,%d] @ [%d,%d]", m, k, bShape[0], bShape[1]))
	}
	return cpu.gemm("matmul", a, b, tensor.Shape{m, bShape[1]}, 1, m, k, bShape[1])
}

// BatchMatMul multiplies matrices over identical leading dimensions.
//
//	[B, M, K] @ [B, K, N] -> [B, M, N]
//	[B, H, M, K] @ [B, H, K, N] -> [B, H, M, N]
func (cpu *CPUBackend) BatchMatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	rank := len(aShape)
	if rank < 3 || len(bShape) != rank {
		panic(fmt.Sprintf("batchmatmul: expected matching ranks >= 3, got %v and %v", aShape, bShape))
	}
	if !aShape[:rank-2].Equal(bShape[:rank-2]) {
		panic(fmt.Sprintf("batchmatmul: batch dimensions differ: %v vs %v", aShape, bShape))
	}
	m, k := aShape[rank-2], aShape[rank-1]
	if bShape[rank-2] != k {
		panic(fmt.Sprintf("batchmatmul: inner dimensions differ: %v @ %v", aShape, bShape))
	}
	n := bShape[rank-1]

	outShape := append(aShape[:rank-2].Clone(), m, n)
	batches := aShape[:rank-2].NumElements()
	return cpu.gemm("batchmatmul", a, b, outShape, batches, m, k, n)
}

func (cpu *CPUBackend) gemm(name string, a, b *tensor.RawTensor, outShape tensor.Shape, batches, m, k, n int) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch %s vs %s", name, a.DType(), b.DType()))
	}
	out := tensor.MustRaw(outShape, a.DType(), cpu.device)
	switch a.DType() {
	case tensor.Float32:
		gemmKernel(tensor.AsSlice[float32](out), tensor.AsSlice[float32](a), tensor.AsSlice[float32](b),
			batches, m, k, n, cpu.parallel)
	case tensor.Float64:
		gemmKernel(tensor.AsSlice[float64](out), tensor.AsSlice[float64](a), tensor.AsSlice[float64](b),
			batches, m, k, n, cpu.parallel)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, a.DType()))
	}
	return out
}

// gemmKernel computes C[bi] = A[bi] @ B[bi] for each batch, one output row
// per work item. The i-p-j loop order keeps the inner loop contiguous.
func gemmKernel[T float](c, a, b []T, batches, m, k, n int, cfg parallel.Config) {
	parallel.For(batches*m, func(r int) {
		bi, i := r/m, r%m
		aRow := a[bi*m*k+i*k : bi*m*k+(i+1)*k]
		cRow := c[bi*m*n+i*n : bi*m*n+(i+1)*n]
		bMat := b[bi*k*n : (bi+1)*k*n]
		for p, av := range aRow {
			if av == 0 {
				continue
			}
			bRow := bMat[p*n : (p+1)*n]
			for j := range cRow {
				cRow[j] += av * bRow[j]
			}
		}
	}, cfg)
}
