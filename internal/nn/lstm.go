package nn

import (
	"fmt"
	"math"

	"github.com/born-ml/hseq/internal/tensor"
)

// LSTMCell is a single long short-term memory step.
//
//	[i f g o] = x W_ih^T + b_ih + h W_hh^T + b_hh
//	c' = sigmoid(f) * c + sigmoid(i) * tanh(g)
//	h' = sigmoid(o) * tanh(c')
//
// All weights and biases start from U(-1/sqrt(hidden), 1/sqrt(hidden)).
type LSTMCell[B tensor.Backend] struct {
	WeightIH   *Parameter[B] // [4*hidden, input]
	WeightHH   *Parameter[B] // [4*hidden, hidden]
	BiasIH     *Parameter[B] // [4*hidden]
	BiasHH     *Parameter[B] // [4*hidden]
	InputSize  int
	HiddenSize int
}

// NewLSTMCell creates an LSTM cell.
func NewLSTMCell[B tensor.Backend](inputSize, hiddenSize int, backend B) *LSTMCell[B] {
	if inputSize <= 0 || hiddenSize <= 0 {
		panic(fmt.Sprintf("LSTMCell: sizes must be positive, got input=%d hidden=%d", inputSize, hiddenSize))
	}
	k := 1 / math.Sqrt(float64(hiddenSize))
	gates := 4 * hiddenSize
	return &LSTMCell[B]{
		WeightIH:   NewParameter("weight_ih", Uniform(tensor.Shape{gates, inputSize}, -k, k, backend)),
		WeightHH:   NewParameter("weight_hh", Uniform(tensor.Shape{gates, hiddenSize}, -k, k, backend)),
		BiasIH:     NewParameter("bias_ih", Uniform(tensor.Shape{gates}, -k, k, backend)),
		BiasHH:     NewParameter("bias_hh", Uniform(tensor.Shape{gates}, -k, k, backend)),
		InputSize:  inputSize,
		HiddenSize: hiddenSize,
	}
}

// Forward runs one step: x [batch, input], h and c [batch, hidden].
// It returns the new hidden and cell states; inputs are not modified.
func (l *LSTMCell[B]) Forward(x, h, c *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	batch := x.Dim(0)
	if x.Dim(1) != l.InputSize {
		panic(fmt.Sprintf("LSTMCell.Forward: expected input [batch, %d], got %v", l.InputSize, x.Shape()))
	}
	want := tensor.Shape{batch, l.HiddenSize}
	if !h.Shape().Equal(want) || !c.Shape().Equal(want) {
		panic(fmt.Sprintf("LSTMCell.Forward: expected state %v, got h %v c %v", want, h.Shape(), c.Shape()))
	}

	gates := x.MatMul(l.WeightIH.Tensor().Transpose()).Add(l.BiasIH.Tensor()).
		Add(h.MatMul(l.WeightHH.Tensor().Transpose())).Add(l.BiasHH.Tensor())

	hs := l.HiddenSize
	i := gates.Narrow(1, 0, hs).Sigmoid()
	f := gates.Narrow(1, hs, hs).Sigmoid()
	g := gates.Narrow(1, 2*hs, hs).Tanh()
	o := gates.Narrow(1, 3*hs, hs).Sigmoid()

	cNext := f.Mul(c).Add(i.Mul(g))
	hNext := o.Mul(cNext.Tanh())
	return hNext, cNext
}

// Parameters returns the cell's weights and biases.
func (l *LSTMCell[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.WeightIH, l.WeightHH, l.BiasIH, l.BiasHH}
}
