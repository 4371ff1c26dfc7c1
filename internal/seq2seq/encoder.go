package seq2seq

import (
	"fmt"

	"github.com/born-ml/hseq/internal/nn"
	"github.com/born-ml/hseq/internal/tensor"
)

// EncoderLayer is self-attention followed by a position-wise feed-forward
// block. Outputs at PAD positions are zeroed after each sub-layer.
type EncoderLayer[B tensor.Backend] struct {
	SelfAttn *nn.MultiHeadAttention[B]
	FFN      *nn.PositionwiseFeedForward[B]
}

// NewEncoderLayer creates one encoder layer.
func NewEncoderLayer[B tensor.Backend](dModel, dInner, nHead, dK, dV int, dropout float64, backend B) *EncoderLayer[B] {
	return &EncoderLayer[B]{
		SelfAttn: nn.NewMultiHeadAttention(nHead, dModel, dK, dV, dropout, backend),
		FFN:      nn.NewPositionwiseFeedForward(dModel, dInner, dropout, backend),
	}
}

// Forward runs the layer over x [batch, len, d_model]. nonPad is
// [batch, len, 1] and mask is the [batch, len, len] key-padding mask.
func (l *EncoderLayer[B]) Forward(
	x, nonPad *tensor.Tensor[float32, B],
	mask *tensor.Tensor[bool, B],
) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	out, attn := l.SelfAttn.Forward(x, x, x, mask)
	out = out.Mul(nonPad)
	out = l.FFN.Forward(out).Mul(nonPad)
	return out, attn
}

// SetTraining toggles dropout in both sub-layers.
func (l *EncoderLayer[B]) SetTraining(training bool) {
	nn.SetTraining(training, l.SelfAttn, l.FFN)
}

// Parameters returns the sub-layer parameters.
func (l *EncoderLayer[B]) Parameters() []*nn.Parameter[B] {
	return append(l.SelfAttn.Parameters(), l.FFN.Parameters()...)
}

// Encoder embeds source tokens, adds sinusoid positions and runs a stack
// of EncoderLayers.
type Encoder[B tensor.Backend] struct {
	WordEmb *nn.Embedding[B]
	PosEmb  *nn.Embedding[B] // frozen, [max_seq_len+1, d_word_vec]
	Layers  []*EncoderLayer[B]
}

// NewEncoder creates an encoder. wordEmb is either a fresh embedding or a
// pretrained table; its width must be d_word_vec.
func NewEncoder[B tensor.Backend](cfg Config, wordEmb *nn.Embedding[B], backend B) *Encoder[B] {
	if wordEmb.EmbedDim != cfg.DWordVec {
		panic(fmt.Sprintf("Encoder: word embedding width %d, want %d", wordEmb.EmbedDim, cfg.DWordVec))
	}
	e := &Encoder[B]{
		WordEmb: wordEmb,
		PosEmb:  nn.NewPositionEmbedding(cfg.MaxSeqLen+1, cfg.DWordVec, backend),
		Layers:  make([]*EncoderLayer[B], cfg.NLayers),
	}
	for i := range e.Layers {
		e.Layers[i] = NewEncoderLayer(cfg.DModel, cfg.DInner, cfg.NHead, cfg.DK, cfg.DV, cfg.Dropout, backend)
	}
	return e
}

// Forward encodes src [batch, len] with positions srcPos [batch, len].
// It returns [batch, len, d_model] and the self-attention weights of every
// layer, each [batch, n_head, len, len].
func (e *Encoder[B]) Forward(src, srcPos *tensor.Tensor[int32, B]) (*tensor.Tensor[float32, B], []*tensor.Tensor[float32, B]) {
	if !src.Shape().Equal(srcPos.Shape()) {
		panic(fmt.Sprintf("Encoder.Forward: tokens %v and positions %v differ", src.Shape(), srcPos.Shape()))
	}
	mask := KeyPadMask(src, src)
	nonPad := NonPadMask(src)

	out := e.WordEmb.Forward(src).Add(e.PosEmb.Forward(srcPos))
	attns := make([]*tensor.Tensor[float32, B], 0, len(e.Layers))
	for _, layer := range e.Layers {
		var attn *tensor.Tensor[float32, B]
		out, attn = layer.Forward(out, nonPad, mask)
		attns = append(attns, attn)
	}
	return out, attns
}

// SetTraining toggles dropout in every layer.
func (e *Encoder[B]) SetTraining(training bool) {
	for _, l := range e.Layers {
		l.SetTraining(training)
	}
}

// Parameters returns embedding, position and layer parameters.
func (e *Encoder[B]) Parameters() []*nn.Parameter[B] {
	params := append(e.WordEmb.Parameters(), e.PosEmb.Parameters()...)
	for _, l := range e.Layers {
		params = append(params, l.Parameters()...)
	}
	return params
}
