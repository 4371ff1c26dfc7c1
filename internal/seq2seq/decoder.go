package seq2seq

import (
	"fmt"

	"github.com/born-ml/hseq/internal/nn"
	"github.com/born-ml/hseq/internal/tensor"
)

// DecoderLayer is masked self-attention, cross-attention over the
// (session-infused) encoder output, then a feed-forward block. PAD
// positions are zeroed after each sub-layer.
type DecoderLayer[B tensor.Backend] struct {
	SelfAttn *nn.MultiHeadAttention[B]
	EncAttn  *nn.MultiHeadAttention[B]
	FFN      *nn.PositionwiseFeedForward[B]
}

// NewDecoderLayer creates one decoder layer.
func NewDecoderLayer[B tensor.Backend](dModel, dInner, nHead, dK, dV int, dropout float64, backend B) *DecoderLayer[B] {
	return &DecoderLayer[B]{
		SelfAttn: nn.NewMultiHeadAttention(nHead, dModel, dK, dV, dropout, backend),
		EncAttn:  nn.NewMultiHeadAttention(nHead, dModel, dK, dV, dropout, backend),
		FFN:      nn.NewPositionwiseFeedForward(dModel, dInner, dropout, backend),
	}
}

// Forward runs the layer. It returns the output and the self- and
// cross-attention weights.
func (l *DecoderLayer[B]) Forward(
	x, memory, nonPad *tensor.Tensor[float32, B],
	selfMask, encMask *tensor.Tensor[bool, B],
) (out, selfAttn, encAttn *tensor.Tensor[float32, B]) {
	out, selfAttn = l.SelfAttn.Forward(x, x, x, selfMask)
	out = out.Mul(nonPad)
	out, encAttn = l.EncAttn.Forward(out, memory, memory, encMask)
	out = out.Mul(nonPad)
	out = l.FFN.Forward(out).Mul(nonPad)
	return out, selfAttn, encAttn
}

// SetTraining toggles dropout in all sub-layers.
func (l *DecoderLayer[B]) SetTraining(training bool) {
	nn.SetTraining(training, l.SelfAttn, l.EncAttn, l.FFN)
}

// Parameters returns the sub-layer parameters.
func (l *DecoderLayer[B]) Parameters() []*nn.Parameter[B] {
	params := append(l.SelfAttn.Parameters(), l.EncAttn.Parameters()...)
	return append(params, l.FFN.Parameters()...)
}

// Decoder embeds target tokens and runs a stack of DecoderLayers under a
// causal plus key-padding mask.
type Decoder[B tensor.Backend] struct {
	WordEmb *nn.Embedding[B]
	PosEmb  *nn.Embedding[B]
	Layers  []*DecoderLayer[B]
}

// NewDecoder creates a decoder around the target word embedding.
func NewDecoder[B tensor.Backend](cfg Config, wordEmb *nn.Embedding[B], backend B) *Decoder[B] {
	if wordEmb.EmbedDim != cfg.DWordVec {
		panic(fmt.Sprintf("Decoder: word embedding width %d, want %d", wordEmb.EmbedDim, cfg.DWordVec))
	}
	d := &Decoder[B]{
		WordEmb: wordEmb,
		PosEmb:  nn.NewPositionEmbedding(cfg.MaxSeqLen+1, cfg.DWordVec, backend),
		Layers:  make([]*DecoderLayer[B], cfg.NLayers),
	}
	for i := range d.Layers {
		d.Layers[i] = NewDecoderLayer(cfg.DModel, cfg.DInner, cfg.NHead, cfg.DK, cfg.DV, cfg.Dropout, backend)
	}
	return d
}

// DecoderOutput is the decoder result with per-layer attention weights.
type DecoderOutput[B tensor.Backend] struct {
	Output   *tensor.Tensor[float32, B]   // [batch, tgt_len, d_model]
	SelfAttn []*tensor.Tensor[float32, B] // each [batch, n_head, tgt_len, tgt_len]
	EncAttn  []*tensor.Tensor[float32, B] // each [batch, n_head, tgt_len, src_len]
}

// Forward decodes tgt [batch, tgt_len] against memory [batch, src_len, d_model].
// src supplies the padding mask for the cross-attention keys.
func (d *Decoder[B]) Forward(tgt, tgtPos, src *tensor.Tensor[int32, B], memory *tensor.Tensor[float32, B]) *DecoderOutput[B] {
	if !tgt.Shape().Equal(tgtPos.Shape()) {
		panic(fmt.Sprintf("Decoder.Forward: tokens %v and positions %v differ", tgt.Shape(), tgtPos.Shape()))
	}
	if memory.Dim(0) != tgt.Dim(0) || memory.Dim(1) != src.Dim(1) {
		panic(fmt.Sprintf("Decoder.Forward: memory %v does not match target %v and source %v",
			memory.Shape(), tgt.Shape(), src.Shape()))
	}

	nonPad := NonPadMask(tgt)
	selfMask := DecoderSelfMask(tgt)
	encMask := KeyPadMask(src, tgt)

	res := &DecoderOutput[B]{
		Output: d.WordEmb.Forward(tgt).Add(d.PosEmb.Forward(tgtPos)),
	}
	for _, layer := range d.Layers {
		out, selfAttn, encAttn := layer.Forward(res.Output, memory, nonPad, selfMask, encMask)
		res.Output = out
		res.SelfAttn = append(res.SelfAttn, selfAttn)
		res.EncAttn = append(res.EncAttn, encAttn)
	}
	return res
}

// SetTraining toggles dropout in every layer.
func (d *Decoder[B]) SetTraining(training bool) {
	for _, l := range d.Layers {
		l.SetTraining(training)
	}
}

// Parameters returns embedding, position and layer parameters.
func (d *Decoder[B]) Parameters() []*nn.Parameter[B] {
	params := append(d.WordEmb.Parameters(), d.PosEmb.Parameters()...)
	for _, l := range d.Layers {
		params = append(params, l.Parameters()...)
	}
	return params
}
