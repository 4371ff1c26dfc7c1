package tensor

func (t *Tensor[T, B]) wrap(raw *RawTensor) *Tensor[T, B] {
	return New[T, B](raw, t.backend)
}

// Add performs element-wise addition with broadcasting.
//
// Example:
//
//	a := tensor.Ones[float32](Shape{3, 1}, backend)
//	b := tensor.Ones[float32](Shape{3, 5}, backend)
//	c := a.Add(b) // [3, 5]
func (t *Tensor[T, B]) Add(other *Tensor[T, B]) *Tensor[T, B] {
	return t.wrap(t.backend.Add(t.raw, other.raw))
}

// Sub performs element-wise subtraction with broadcasting.
func (t *Tensor[T, B]) Sub(other *Tensor[T, B]) *Tensor[T, B] {
	return t.wrap(t.backend.Sub(t.raw, other.raw))
}

// Mul performs element-wise multiplication with broadcasting.
func (t *Tensor[T, B]) Mul(other *Tensor[T, B]) *Tensor[T, B] {
	return t.wrap(t.backend.Mul(t.raw, other.raw))
}

// Div performs element-wise division with broadcasting.
func (t *Tensor[T, B]) Div(other *Tensor[T, B]) *Tensor[T, B] {
	return t.wrap(t.backend.Div(t.raw, other.raw))
}

// MatMul multiplies 2D matrices: (M, K) @ (K, N) -> (M, N).
func (t *Tensor[T, B]) MatMul(other *Tensor[T, B]) *Tensor[T, B] {
	return t.wrap(t.backend.MatMul(t.raw, other.raw))
}

// BatchMatMul multiplies over matching leading dimensions.
func (t *Tensor[T, B]) BatchMatMul(other *Tensor[T, B]) *Tensor[T, B] {
	return t.wrap(t.backend.BatchMatMul(t.raw, other.raw))
}

// Reshape returns a view with a new shape. One dimension may be -1.
func (t *Tensor[T, B]) Reshape(newShape ...int) *Tensor[T, B] {
	return t.wrap(t.backend.Reshape(t.raw, Shape(newShape)))
}

// Transpose permutes dimensions. With no axes the last two are swapped.
func (t *Tensor[T, B]) Transpose(axes ...int) *Tensor[T, B] {
	return t.wrap(t.backend.Transpose(t.raw, axes...))
}

// Unsqueeze inserts a dimension of size 1.
func (t *Tensor[T, B]) Unsqueeze(dim int) *Tensor[T, B] {
	return t.wrap(t.backend.Unsqueeze(t.raw, dim))
}

// Expand broadcasts the tensor to shape, materializing the result.
func (t *Tensor[T, B]) Expand(shape Shape) *Tensor[T, B] {
	return t.wrap(t.backend.Expand(t.raw, shape))
}

// Narrow returns length entries along dim starting at start.
//
// Example:
//
//	seq.Narrow(1, 0, seq.Dim(1)-1) // drop the last time step
func (t *Tensor[T, B]) Narrow(dim, start, length int) *Tensor[T, B] {
	return t.wrap(t.backend.Narrow(t.raw, dim, start, length))
}

// Cat concatenates tensors along dim.
func Cat[T DType, B Backend](tensors []*Tensor[T, B], dim int) *Tensor[T, B] {
	if len(tensors) == 0 {
		panic("cat: at least one tensor required")
	}
	raws := make([]*RawTensor, len(tensors))
	for i, t := range tensors {
		raws[i] = t.raw
	}
	return tensors[0].wrap(tensors[0].backend.Cat(raws, dim))
}

// MulScalar multiplies every element by scalar.
func (t *Tensor[T, B]) MulScalar(scalar T) *Tensor[T, B] {
	return t.wrap(t.backend.MulScalar(t.raw, scalar))
}

// AddScalar adds scalar to every element.
func (t *Tensor[T, B]) AddScalar(scalar T) *Tensor[T, B] {
	return t.wrap(t.backend.AddScalar(t.raw, scalar))
}

// Exp computes e^x element-wise.
func (t *Tensor[T, B]) Exp() *Tensor[T, B] { return t.wrap(t.backend.Exp(t.raw)) }

// Sqrt computes the square root element-wise.
func (t *Tensor[T, B]) Sqrt() *Tensor[T, B] { return t.wrap(t.backend.Sqrt(t.raw)) }

// Rsqrt computes 1/sqrt(x) element-wise.
func (t *Tensor[T, B]) Rsqrt() *Tensor[T, B] { return t.wrap(t.backend.Rsqrt(t.raw)) }

// Tanh applies the hyperbolic tangent.
func (t *Tensor[T, B]) Tanh() *Tensor[T, B] { return t.wrap(t.backend.Tanh(t.raw)) }

// Sigmoid applies the logistic function.
func (t *Tensor[T, B]) Sigmoid() *Tensor[T, B] { return t.wrap(t.backend.Sigmoid(t.raw)) }

// ReLU applies max(0, x).
func (t *Tensor[T, B]) ReLU() *Tensor[T, B] { return t.wrap(t.backend.ReLU(t.raw)) }

// Softmax normalizes along dim. Fully masked (-Inf) rows become zeros.
func (t *Tensor[T, B]) Softmax(dim int) *Tensor[T, B] {
	return t.wrap(t.backend.Softmax(t.raw, dim))
}

// SumDim sums along dim.
func (t *Tensor[T, B]) SumDim(dim int, keepDim bool) *Tensor[T, B] {
	return t.wrap(t.backend.SumDim(t.raw, dim, keepDim))
}

// MeanDim averages along dim.
func (t *Tensor[T, B]) MeanDim(dim int, keepDim bool) *Tensor[T, B] {
	return t.wrap(t.backend.MeanDim(t.raw, dim, keepDim))
}

// MaxDim takes the element-wise maximum along dim.
func (t *Tensor[T, B]) MaxDim(dim int, keepDim bool) *Tensor[T, B] {
	return t.wrap(t.backend.MaxDim(t.raw, dim, keepDim))
}

// EqualScalar returns a bool tensor that is true where t == scalar.
func (t *Tensor[T, B]) EqualScalar(scalar T) *Tensor[bool, B] {
	return New[bool, B](t.backend.EqualScalar(t.raw, scalar), t.backend)
}

// NotEqualScalar returns a bool tensor that is true where t != scalar.
func (t *Tensor[T, B]) NotEqualScalar(scalar T) *Tensor[bool, B] {
	return New[bool, B](t.backend.NotEqualScalar(t.raw, scalar), t.backend)
}

// Or computes the element-wise logical OR with broadcasting.
func Or[B Backend](a, b *Tensor[bool, B]) *Tensor[bool, B] {
	return a.wrap(a.backend.Or(a.raw, b.raw))
}

// Not computes the element-wise logical NOT.
func Not[B Backend](a *Tensor[bool, B]) *Tensor[bool, B] {
	return a.wrap(a.backend.Not(a.raw))
}

// Embedding gathers rows of the 2D tensor t by indices: [...] -> [..., D].
func (t *Tensor[T, B]) Embedding(indices *Tensor[int32, B]) *Tensor[T, B] {
	return t.wrap(t.backend.Embedding(t.raw, indices.raw))
}

// Where selects x where cond is true and y elsewhere.
func Where[T DType, B Backend](cond *Tensor[bool, B], x, y *Tensor[T, B]) *Tensor[T, B] {
	return x.wrap(x.backend.Where(cond.raw, x.raw, y.raw))
}

// MaskedFill replaces elements where mask (broadcast to t) is true.
func (t *Tensor[T, B]) MaskedFill(mask *Tensor[bool, B], value T) *Tensor[T, B] {
	return t.wrap(t.backend.MaskedFill(t.raw, mask.raw, value))
}

// Float32 casts to float32.
func (t *Tensor[T, B]) Float32() *Tensor[float32, B] {
	return New[float32, B](t.backend.Cast(t.raw, Float32), t.backend)
}

// Int32 casts to int32.
func (t *Tensor[T, B]) Int32() *Tensor[int32, B] {
	return New[int32, B](t.backend.Cast(t.raw, Int32), t.backend)
}
