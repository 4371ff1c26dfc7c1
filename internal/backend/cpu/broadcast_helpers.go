package cpu

import (
	"github.com/born-ml/hseq/internal/tensor"
)

// stridedWalk visits every flat index of out in row-major order and passes
// the matching flat offset of each input, given per-input strides laid out
// against out's dimensions.
func stridedWalk(out tensor.Shape, strides [][]int, visit func(o int, offs []int)) {
	offs := make([]int, len(strides))
	coord := make([]int, len(out))
	n := out.NumElements()

	for o := 0; o < n; o++ {
		visit(o, offs)
		for d := len(out) - 1; d >= 0; d-- {
			coord[d]++
			for k := range offs {
				offs[k] += strides[k][d]
			}
			if coord[d] < out[d] {
				break
			}
			for k := range offs {
				offs[k] -= strides[k][d] * out[d]
			}
			coord[d] = 0
		}
	}
}

// broadcastWalk is stridedWalk for inputs broadcast to out.
func broadcastWalk(out tensor.Shape, inputs []tensor.Shape, visit func(o int, offs []int)) {
	strides := make([][]int, len(inputs))
	for k, s := range inputs {
		strides[k] = tensor.BroadcastStrides(s, out)
	}
	stridedWalk(out, strides, visit)
}

// splitAt returns the element counts before and after dim.
func splitAt(shape tensor.Shape, dim int) (outer, inner int) {
	outer, inner = 1, 1
	for i, d := range shape {
		switch {
		case i < dim:
			outer *= d
		case i > dim:
			inner *= d
		}
	}
	return outer, inner
}
