package tensor

import "fmt"

// Tensor is a typed tensor with element type T computed on backend B.
//
// Example:
//
//	backend := cpu.New()
//	t := tensor.Zeros[float32](Shape{3, 4}, backend)
//	s := t.Add(t)
type Tensor[T DType, B Backend] struct {
	raw     *RawTensor
	backend B
}

// New wraps a RawTensor. The raw dtype must match T.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	if want := DataTypeOf[T](); raw.DType() != want {
		panic(fmt.Sprintf("tensor.New: raw dtype %s does not match %s", raw.DType(), want))
	}
	return &Tensor[T, B]{raw: raw, backend: b}
}

// FromSlice copies data into a new tensor of the given shape.
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	raw, err := NewRaw(shape, DataTypeOf[T](), b.Device())
	if err != nil {
		return nil, err
	}
	t := New[T, B](raw, b)
	copy(t.Data(), data)
	return t, nil
}

// MustFromSlice is FromSlice that panics on a shape mismatch.
func MustFromSlice[T DType, B Backend](data []T, shape Shape, b B) *Tensor[T, B] {
	t, err := FromSlice(data, shape, b)
	if err != nil {
		panic(err)
	}
	return t
}

// Shape returns the tensor's shape.
func (t *Tensor[T, B]) Shape() Shape {
	return t.raw.Shape()
}

// Dim returns the size of one dimension, accepting negative indices.
func (t *Tensor[T, B]) Dim(i int) int {
	s := t.raw.Shape()
	return s[NormalizeDim(i, len(s))]
}

// DType returns the element type tag.
func (t *Tensor[T, B]) DType() DataType {
	return t.raw.DType()
}

// NumElements returns the element count.
func (t *Tensor[T, B]) NumElements() int {
	return t.raw.NumElements()
}

// Raw returns the underlying RawTensor.
func (t *Tensor[T, B]) Raw() *RawTensor {
	return t.raw
}

// Backend returns the computation backend.
func (t *Tensor[T, B]) Backend() B {
	return t.backend
}

// Data returns a zero-copy typed view of the elements.
//
// WARNING: writes through the slice modify the tensor and every view of it.
func (t *Tensor[T, B]) Data() []T {
	return AsSlice[T](t.raw)
}

// At returns the element at the given indices.
func (t *Tensor[T, B]) At(indices ...int) T {
	return t.Data()[t.offset(indices)]
}

// Set writes the element at the given indices.
func (t *Tensor[T, B]) Set(value T, indices ...int) {
	t.Data()[t.offset(indices)] = value
}

func (t *Tensor[T, B]) offset(indices []int) int {
	shape := t.Shape()
	if len(indices) != len(shape) {
		panic(fmt.Sprintf("expected %d indices, got %d", len(shape), len(indices)))
	}
	off := 0
	for i, idx := range indices {
		if idx < 0 || idx >= shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", idx, i, shape[i]))
		}
		off += idx * t.raw.Strides()[i]
	}
	return off
}

// Clone returns a deep copy.
func (t *Tensor[T, B]) Clone() *Tensor[T, B] {
	return &Tensor[T, B]{raw: t.raw.Clone(), backend: t.backend}
}

// CopyFrom overwrites the tensor's elements in place with src's.
// Shapes must match.
func (t *Tensor[T, B]) CopyFrom(src *Tensor[T, B]) {
	if !t.Shape().Equal(src.Shape()) {
		panic(fmt.Sprintf("CopyFrom: shape mismatch %v vs %v", t.Shape(), src.Shape()))
	}
	copy(t.Data(), src.Data())
}

// String returns a short description such as "Tensor[float32][2 3] on CPU".
func (t *Tensor[T, B]) String() string {
	return fmt.Sprintf("Tensor[%s]%v on %s", t.raw.DType(), t.raw.Shape(), t.raw.Device())
}
