// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/hseq/internal/nn"
	"github.com/born-ml/hseq/internal/tensor"
)

// Module is implemented by every layer that owns parameters.
type Module[B tensor.Backend] = nn.Module[B]

// Trainable is implemented by layers whose behavior depends on training mode.
type Trainable = nn.Trainable

// Parameter is a named weight tensor.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// Initializer creates a weight tensor from fan-in and fan-out.
type Initializer[B tensor.Backend] = nn.Initializer[B]

// NoPadding disables the padding row of an Embedding.
const NoPadding = nn.NoPadding

// DefaultLayerNormEps is the epsilon used by the model's layer norms.
const DefaultLayerNormEps = nn.DefaultLayerNormEps

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// CollectParameters gathers the parameters of mods, each distinct one once.
func CollectParameters[B tensor.Backend](mods ...Module[B]) []*Parameter[B] {
	return nn.CollectParameters(mods...)
}

// CountParameters sums the element counts of params.
func CountParameters[B tensor.Backend](params []*Parameter[B]) int {
	return nn.CountParameters(params)
}

// SetSeed reseeds weight initialization and dropout.
func SetSeed(seed int64) {
	nn.SetSeed(seed)
}

// Layers

// Linear represents a fully connected (dense) layer.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a new linear layer with Xavier uniform initialization.
//
// Example:
//
//	backend := cpu.New()
//	layer := nn.NewLinear(512, 2048, true, backend)
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, bias bool, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, bias, backend)
}

// Embedding is a learned lookup table.
type Embedding[B tensor.Backend] = nn.Embedding[B]

// NewEmbedding creates an embedding table. The paddingIdx row starts at zero.
func NewEmbedding[B tensor.Backend](numEmbeddings, embeddingDim, paddingIdx int, backend B) *Embedding[B] {
	return nn.NewEmbedding(numEmbeddings, embeddingDim, paddingIdx, backend)
}

// NewPositionEmbedding creates the frozen sinusoid position table with a
// zero row at position 0.
func NewPositionEmbedding[B tensor.Backend](nPosition, dim int, backend B) *Embedding[B] {
	return nn.NewPositionEmbedding(nPosition, dim, backend)
}

// SinusoidTable returns the [nPosition, dim] sinusoid encoding, row-major.
func SinusoidTable(nPosition, dim, paddingIdx int) []float32 {
	return nn.SinusoidTable(nPosition, dim, paddingIdx)
}

// LayerNorm normalizes over the last dimension.
type LayerNorm[B tensor.Backend] = nn.LayerNorm[B]

// NewLayerNorm creates a layer norm over normalizedShape features.
func NewLayerNorm[B tensor.Backend](normalizedShape int, epsilon float32, backend B) *LayerNorm[B] {
	return nn.NewLayerNorm(normalizedShape, epsilon, backend)
}

// Dropout zeroes elements with probability p in training mode.
type Dropout[B tensor.Backend] = nn.Dropout[B]

// NewDropout creates a dropout layer in evaluation mode.
func NewDropout[B tensor.Backend](p float64, backend B) *Dropout[B] {
	return nn.NewDropout(p, backend)
}

// MultiHeadAttention is multi-head scaled dot-product attention.
type MultiHeadAttention[B tensor.Backend] = nn.MultiHeadAttention[B]

// NewMultiHeadAttention creates an attention block of nHead heads.
func NewMultiHeadAttention[B tensor.Backend](nHead, dModel, dK, dV int, dropout float64, backend B) *MultiHeadAttention[B] {
	return nn.NewMultiHeadAttention(nHead, dModel, dK, dV, dropout, backend)
}

// PositionwiseFeedForward is the per-position two-layer block.
type PositionwiseFeedForward[B tensor.Backend] = nn.PositionwiseFeedForward[B]

// NewPositionwiseFeedForward creates a feed-forward block.
func NewPositionwiseFeedForward[B tensor.Backend](dIn, dHid int, dropout float64, backend B) *PositionwiseFeedForward[B] {
	return nn.NewPositionwiseFeedForward(dIn, dHid, dropout, backend)
}

// LSTMCell computes one LSTM step.
type LSTMCell[B tensor.Backend] = nn.LSTMCell[B]

// NewLSTMCell creates an LSTM cell.
func NewLSTMCell[B tensor.Backend](inputSize, hiddenSize int, backend B) *LSTMCell[B] {
	return nn.NewLSTMCell(inputSize, hiddenSize, backend)
}
