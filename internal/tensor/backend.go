package tensor

// Backend defines the operations a compute backend must provide.
//
// Backends panic on shape or dtype errors; callers are expected to validate
// inputs at construction time. Operations never modify their inputs.
type Backend interface {
	// Element-wise binary operations with broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// MatMul multiplies 2D matrices: [M, K] @ [K, N] -> [M, N].
	MatMul(a, b *RawTensor) *RawTensor

	// BatchMatMul multiplies over matching leading dimensions:
	// [..., M, K] @ [..., K, N] -> [..., M, N].
	BatchMatMul(a, b *RawTensor) *RawTensor

	// Shape operations.
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor
	Unsqueeze(x *RawTensor, dim int) *RawTensor
	Expand(x *RawTensor, shape Shape) *RawTensor
	Narrow(x *RawTensor, dim, start, length int) *RawTensor
	Cat(tensors []*RawTensor, dim int) *RawTensor

	// Scalar operations.
	MulScalar(x *RawTensor, scalar any) *RawTensor
	AddScalar(x *RawTensor, scalar any) *RawTensor

	// Element-wise math on float tensors.
	Exp(x *RawTensor) *RawTensor
	Sqrt(x *RawTensor) *RawTensor
	Rsqrt(x *RawTensor) *RawTensor
	Tanh(x *RawTensor) *RawTensor
	Sigmoid(x *RawTensor) *RawTensor
	ReLU(x *RawTensor) *RawTensor

	// Softmax along dim. Rows where every entry is -Inf yield zeros.
	Softmax(x *RawTensor, dim int) *RawTensor

	// Reductions.
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	MaxDim(x *RawTensor, dim int, keepDim bool) *RawTensor

	// Comparisons against a scalar; the result is a bool tensor.
	EqualScalar(x *RawTensor, scalar any) *RawTensor
	NotEqualScalar(x *RawTensor, scalar any) *RawTensor

	// Boolean operations.
	Or(a, b *RawTensor) *RawTensor
	Not(x *RawTensor) *RawTensor

	// Indexing.
	Embedding(weight, indices *RawTensor) *RawTensor
	Where(condition, x, y *RawTensor) *RawTensor
	MaskedFill(x, mask *RawTensor, value any) *RawTensor

	// Cast converts element types. Bool converts to 0/1.
	Cast(x *RawTensor, dtype DataType) *RawTensor

	// Metadata.
	Name() string
	Device() Device
}
