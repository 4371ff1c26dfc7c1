package nn

import (
	"github.com/born-ml/hseq/internal/tensor"
)

// PositionwiseFeedForward applies the same two-layer MLP at every position,
// with its own residual and post-norm:
//
//	out = LayerNorm(dropout(W2 relu(W1 x)) + x)
//
// Example:
//
//	ffn := nn.NewPositionwiseFeedForward(512, 2048, 0.1, backend)
//	y := ffn.Forward(x) // [batch, seq, 512]
type PositionwiseFeedForward[B tensor.Backend] struct {
	W1      *Linear[B] // [d_in] -> [d_hid]
	W2      *Linear[B] // [d_hid] -> [d_in]
	Norm    *LayerNorm[B]
	Dropout *Dropout[B]
}

// NewPositionwiseFeedForward creates the feed-forward block.
func NewPositionwiseFeedForward[B tensor.Backend](dIn, dHid int, dropout float64, backend B) *PositionwiseFeedForward[B] {
	return &PositionwiseFeedForward[B]{
		W1:      NewLinear(dIn, dHid, true, backend),
		W2:      NewLinear(dHid, dIn, true, backend),
		Norm:    NewLayerNorm(dIn, DefaultLayerNormEps, backend),
		Dropout: NewDropout(dropout, backend),
	}
}

// Forward transforms x [..., d_in].
func (f *PositionwiseFeedForward[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	out := f.W2.Forward(f.W1.Forward(x).ReLU())
	return f.Norm.Forward(f.Dropout.Forward(out).Add(x))
}

// SetTraining toggles dropout.
func (f *PositionwiseFeedForward[B]) SetTraining(training bool) {
	f.Dropout.SetTraining(training)
}

// Parameters returns both projections and the norm parameters.
func (f *PositionwiseFeedForward[B]) Parameters() []*Parameter[B] {
	params := append(f.W1.Parameters(), f.W2.Parameters()...)
	return append(params, f.Norm.Parameters()...)
}
