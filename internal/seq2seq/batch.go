package seq2seq

import (
	"fmt"

	"github.com/born-ml/hseq/internal/tensor"
)

// Batch holds padded token ids and their positions for one forward step.
type Batch[B tensor.Backend] struct {
	Src    *tensor.Tensor[int32, B] // [batch, src_len]
	SrcPos *tensor.Tensor[int32, B] // [batch, src_len]
	Tgt    *tensor.Tensor[int32, B] // [batch, tgt_len]
	TgtPos *tensor.Tensor[int32, B] // [batch, tgt_len]
}

// Size returns the batch size.
func (b *Batch[B]) Size() int {
	return b.Src.Dim(0)
}

// NewBatch right-pads src and tgt with PAD to their longest sequence and
// derives positions. Both must hold the same number of non-empty
// sequences, and every target needs at least two tokens because the last
// one is dropped in the forward pass.
func NewBatch[B tensor.Backend](src, tgt [][]int32, backend B) (*Batch[B], error) {
	if len(src) == 0 || len(src) != len(tgt) {
		return nil, fmt.Errorf("%w: %d source and %d target sequences", ErrInvalidBatch, len(src), len(tgt))
	}
	for i, t := range tgt {
		if len(t) < 2 {
			return nil, fmt.Errorf("%w: target %d has %d tokens, need at least 2", ErrInvalidBatch, i, len(t))
		}
	}

	srcIDs, err := PadSequences(src, backend)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	tgtIDs, err := PadSequences(tgt, backend)
	if err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}

	return &Batch[B]{
		Src:    srcIDs,
		SrcPos: Positions(srcIDs),
		Tgt:    tgtIDs,
		TgtPos: Positions(tgtIDs),
	}, nil
}

// PadSequences stacks seqs into [len(seqs), maxLen] with trailing PAD.
func PadSequences[B tensor.Backend](seqs [][]int32, backend B) (*tensor.Tensor[int32, B], error) {
	maxLen := 0
	for i, s := range seqs {
		if len(s) == 0 {
			return nil, fmt.Errorf("%w: sequence %d is empty", ErrInvalidBatch, i)
		}
		for _, id := range s {
			if id < 0 {
				return nil, fmt.Errorf("%w: sequence %d has negative id %d", ErrInvalidBatch, i, id)
			}
		}
		maxLen = max(maxLen, len(s))
	}
	if len(seqs) == 0 {
		return nil, fmt.Errorf("%w: no sequences", ErrInvalidBatch)
	}

	ids := tensor.Zeros[int32](tensor.Shape{len(seqs), maxLen}, backend)
	data := ids.Data()
	for i, s := range seqs {
		copy(data[i*maxLen:], s)
	}
	return ids, nil
}

// CheckBatch reports whether b fits the model: every source id must index
// the source embedding, every target id the target embedding, and no
// position may exceed MaxSeqLen. The last target token is dropped before
// decoding, so targets may be one token longer than MaxSeqLen.
func (m *Seq2Seq[B]) CheckBatch(b *Batch[B]) error {
	maxLen := m.cfg.MaxSeqLen
	if n := b.Src.Dim(1); n > maxLen {
		return fmt.Errorf("%w: source length %d exceeds max_seq_len %d", ErrInvalidBatch, n, maxLen)
	}
	if n := b.Tgt.Dim(1) - 1; n > maxLen {
		return fmt.Errorf("%w: target length %d exceeds max_seq_len %d", ErrInvalidBatch, n+1, maxLen+1)
	}
	if err := checkVocab("source", b.Src, m.Encoder.WordEmb.NumEmbed); err != nil {
		return err
	}
	return checkVocab("target", b.Tgt, m.Decoder.WordEmb.NumEmbed)
}

func checkVocab[B tensor.Backend](side string, ids *tensor.Tensor[int32, B], vocab int) error {
	width := ids.Dim(1)
	for i, id := range ids.Data() {
		if id < 0 || int(id) >= vocab {
			return fmt.Errorf("%w: %s sequence %d has id %d outside vocabulary of %d",
				ErrInvalidBatch, side, i/width, id, vocab)
		}
	}
	return nil
}
