// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package seq2seq

import (
	"go.uber.org/zap"

	"github.com/born-ml/hseq/internal/seq2seq"
	"github.com/born-ml/hseq/internal/tensor"
)

// Reserved token ids.
const (
	PAD = seq2seq.PAD
	UNK = seq2seq.UNK
	BOS = seq2seq.BOS
	EOS = seq2seq.EOS
)

// Words for the reserved ids.
const (
	PADWord = seq2seq.PADWord
	UNKWord = seq2seq.UNKWord
	BOSWord = seq2seq.BOSWord
	EOSWord = seq2seq.EOSWord
)

// Errors returned (wrapped) by New, Config.Validate and NewBatch.
var (
	ErrDimMismatch   = seq2seq.ErrDimMismatch
	ErrVocabMismatch = seq2seq.ErrVocabMismatch
	ErrInvalidConfig = seq2seq.ErrInvalidConfig
	ErrEmbeddingFile = seq2seq.ErrEmbeddingFile
	ErrInvalidBatch  = seq2seq.ErrInvalidBatch
)

// Config holds the model hyperparameters.
type Config = seq2seq.Config

// Model is the hierarchical encoder-decoder.
type Model[B tensor.Backend] = seq2seq.Seq2Seq[B]

// Attentions collects the attention weights of one forward pass.
type Attentions[B tensor.Backend] = seq2seq.Attentions[B]

// Batch holds padded token ids and positions.
type Batch[B tensor.Backend] = seq2seq.Batch[B]

// SessionState is a snapshot of the dialogue state.
type SessionState[B tensor.Backend] = seq2seq.SessionState[B]

// Summary describes a built model.
type Summary = seq2seq.Summary

// Option configures model construction.
type Option = seq2seq.Option

// DefaultConfig returns the reference hyperparameters.
func DefaultConfig(srcVocab, tgtVocab, maxSeqLen int) Config {
	return seq2seq.DefaultConfig(srcVocab, tgtVocab, maxSeqLen)
}

// New builds a model from cfg. See Model for the forward contract.
func New[B tensor.Backend](cfg Config, backend B, opts ...Option) (*Model[B], error) {
	return seq2seq.New(cfg, backend, opts...)
}

// WithLogger sets the construction logger.
func WithLogger(logger *zap.Logger) Option {
	return seq2seq.WithLogger(logger)
}

// NewBatch pads src and tgt and derives positions.
func NewBatch[B tensor.Backend](src, tgt [][]int32, backend B) (*Batch[B], error) {
	return seq2seq.NewBatch(src, tgt, backend)
}

// Positions returns 1-based positions with 0 at PAD tokens.
func Positions[B tensor.Backend](seq *tensor.Tensor[int32, B]) *tensor.Tensor[int32, B] {
	return seq2seq.Positions(seq)
}

// NonPadMask returns [batch, len, 1] with 1 at non-PAD tokens.
func NonPadMask[B tensor.Backend](seq *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	return seq2seq.NonPadMask(seq)
}

// KeyPadMask returns [batch, len_q, len_k], true at PAD keys.
func KeyPadMask[B tensor.Backend](seqK, seqQ *tensor.Tensor[int32, B]) *tensor.Tensor[bool, B] {
	return seq2seq.KeyPadMask(seqK, seqQ)
}

// SubsequentMask returns [batch, len, len], true where j > i.
func SubsequentMask[B tensor.Backend](seq *tensor.Tensor[int32, B]) *tensor.Tensor[bool, B] {
	return seq2seq.SubsequentMask(seq)
}
