package tensor

import "fmt"

// Shape represents the dimensions of a tensor.
type Shape []int

// NumElements returns the total number of elements. A scalar has one.
func (s Shape) NumElements() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks that every dimension is positive.
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal reports whether two shapes have the same dimensions.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	return append(Shape(nil), s...)
}

// ComputeStrides returns row-major strides, stride[i] being the product of
// all dimensions after i.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	acc := 1
	for i := len(s) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= s[i]
	}
	return strides
}

// NormalizeDim resolves a possibly negative dimension index against rank.
// Panics when the index is out of range.
func NormalizeDim(dim, rank int) int {
	if dim < 0 {
		dim += rank
	}
	if dim < 0 || dim >= rank {
		panic(fmt.Sprintf("dimension %d out of range for rank %d", dim, rank))
	}
	return dim
}

// BroadcastShapes applies NumPy broadcasting rules right to left.
//
// It returns the broadcast shape and whether either input needs expanding.
//
//	(3, 1) + (3, 5) -> (3, 5), true
//	(3, 5) + (3, 5) -> (3, 5), false
//	(3, 4) + (3, 5) -> error
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	rank := max(len(a), len(b))
	out := make(Shape, rank)
	expanded := false

	for i := 1; i <= rank; i++ {
		da, db := 1, 1
		if i <= len(a) {
			da = a[len(a)-i]
		}
		if i <= len(b) {
			db = b[len(b)-i]
		}

		switch {
		case da == db:
			out[rank-i] = da
		case da == 1:
			out[rank-i] = db
			expanded = true
		case db == 1:
			out[rank-i] = da
			expanded = true
		default:
			return nil, false, fmt.Errorf("shapes not compatible for broadcasting: %v vs %v (dimension %d: %d vs %d)",
				a, b, rank-i, da, db)
		}
	}
	if len(a) != len(b) {
		expanded = true
	}

	return out, expanded, nil
}

// BroadcastStrides returns strides that walk a tensor of shape in as if it
// had shape out. Broadcast dimensions get stride 0.
func BroadcastStrides(in, out Shape) []int {
	strides := make([]int, len(out))
	orig := in.ComputeStrides()
	offset := len(out) - len(in)
	for i := range out {
		j := i - offset
		if j < 0 || in[j] == 1 {
			continue
		}
		strides[i] = orig[j]
	}
	return strides
}
