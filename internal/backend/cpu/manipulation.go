package cpu

import (
	"fmt"

	"github.com/born-ml/hseq/internal/tensor"
)

// Reshape returns a view with a new shape. At most one dimension may be -1.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	shape := newShape.Clone()
	infer, known := -1, 1
	for i, d := range shape {
		switch {
		case d == -1 && infer < 0:
			infer = i
		case d <= 0:
			panic(fmt.Sprintf("reshape: invalid shape %v", newShape))
		default:
			known *= d
		}
	}
	if infer >= 0 {
		if known == 0 || t.NumElements()%known != 0 {
			panic(fmt.Sprintf("reshape: cannot infer -1 in %v for %d elements", newShape, t.NumElements()))
		}
		shape[infer] = t.NumElements() / known
	}
	if shape.NumElements() != t.NumElements() {
		panic(fmt.Sprintf("reshape: cannot reshape %v (%d elements) to %v", t.Shape(), t.NumElements(), newShape))
	}
	return t.View(shape)
}

// Transpose permutes dimensions. With no axes the last two are swapped.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	rank := len(shape)
	if len(axes) == 0 {
		if rank < 2 {
			panic(fmt.Sprintf("transpose: need at least 2 dimensions, got %v", shape))
		}
		axes = make([]int, rank)
		for i := range axes {
			axes[i] = i
		}
		axes[rank-2], axes[rank-1] = rank-1, rank-2
	}
	if len(axes) != rank {
		panic(fmt.Sprintf("transpose: %d axes given for rank %d", len(axes), rank))
	}

	seen := make([]bool, rank)
	outShape := make(tensor.Shape, rank)
	inStrides := t.Strides()
	permuted := make([]int, rank)
	for i, ax := range axes {
		ax = tensor.NormalizeDim(ax, rank)
		if seen[ax] {
			panic(fmt.Sprintf("transpose: repeated axis %d in %v", ax, axes))
		}
		seen[ax] = true
		outShape[i] = shape[ax]
		permuted[i] = inStrides[ax]
	}

	out := tensor.MustRaw(outShape, t.DType(), cpu.device)
	gatherBytes(out, t, [][]int{permuted})
	return out
}

// Unsqueeze inserts a size-1 dimension at dim (view, no copy).
func (cpu *CPUBackend) Unsqueeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	dim = tensor.NormalizeDim(dim, len(shape)+1)
	out := make(tensor.Shape, 0, len(shape)+1)
	out = append(out, shape[:dim]...)
	out = append(out, 1)
	out = append(out, shape[dim:]...)
	return x.View(out)
}

// Expand broadcasts x to shape and materializes the result.
func (cpu *CPUBackend) Expand(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	got, _, err := tensor.BroadcastShapes(x.Shape(), shape)
	if err != nil || !got.Equal(shape) {
		panic(fmt.Sprintf("expand: cannot expand %v to %v", x.Shape(), shape))
	}
	out := tensor.MustRaw(shape, x.DType(), cpu.device)
	gatherBytes(out, x, [][]int{tensor.BroadcastStrides(x.Shape(), shape)})
	return out
}

// gatherBytes fills out element by element from src using src strides laid
// out against out's dimensions. Works for any dtype.
func gatherBytes(out, src *tensor.RawTensor, strides [][]int) {
	es := src.DType().Size()
	dst, from := out.Data(), src.Data()
	stridedWalk(out.Shape(), strides, func(o int, offs []int) {
		copy(dst[o*es:(o+1)*es], from[offs[0]*es:(offs[0]+1)*es])
	})
}

// Narrow selects length entries starting at start along dim.
func (cpu *CPUBackend) Narrow(x *tensor.RawTensor, dim, start, length int) *tensor.RawTensor {
	shape := x.Shape()
	dim = tensor.NormalizeDim(dim, len(shape))
	if start < 0 || length <= 0 || start+length > shape[dim] {
		panic(fmt.Sprintf("narrow: range [%d, %d) out of bounds for dimension %d of %v",
			start, start+length, dim, shape))
	}

	outShape := shape.Clone()
	outShape[dim] = length
	out := tensor.MustRaw(outShape, x.DType(), cpu.device)

	outer, inner := splitAt(shape, dim)
	rowBytes := inner * x.DType().Size()
	src, dst := x.Data(), out.Data()
	for o := 0; o < outer; o++ {
		from := (o*shape[dim] + start) * rowBytes
		copy(dst[o*length*rowBytes:(o+1)*length*rowBytes], src[from:from+length*rowBytes])
	}
	return out
}

// Cat concatenates tensors along dim. Non-concatenated dimensions must match.
func (cpu *CPUBackend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cat: at least one tensor required")
	}
	first := tensors[0].Shape()
	dim = tensor.NormalizeDim(dim, len(first))

	outShape := first.Clone()
	outShape[dim] = 0
	for _, t := range tensors {
		s := t.Shape()
		if len(s) != len(first) || t.DType() != tensors[0].DType() {
			panic(fmt.Sprintf("cat: incompatible tensors %v (%s) and %v (%s)", first, tensors[0].DType(), s, t.DType()))
		}
		for i := range s {
			if i != dim && s[i] != first[i] {
				panic(fmt.Sprintf("cat: shapes %v and %v differ outside dimension %d", first, s, dim))
			}
		}
		outShape[dim] += s[dim]
	}

	out := tensor.MustRaw(outShape, tensors[0].DType(), cpu.device)
	outer, inner := splitAt(first, dim)
	es := tensors[0].DType().Size()
	dst := out.Data()
	pos := 0
	for o := 0; o < outer; o++ {
		for _, t := range tensors {
			n := t.Shape()[dim] * inner * es
			copy(dst[pos:pos+n], t.Data()[o*n:(o+1)*n])
			pos += n
		}
	}
	return out
}
