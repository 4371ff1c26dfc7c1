package seq2seq

import (
	"fmt"

	"github.com/born-ml/hseq/internal/tensor"
)

// NonPadMask returns 1.0 at non-PAD positions and 0.0 at PAD positions.
//
//	seq [batch, len] int32 -> [batch, len, 1] float32
func NonPadMask[B tensor.Backend](seq *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	mustBe2D("NonPadMask", seq)
	return seq.NotEqualScalar(PAD).Float32().Unsqueeze(-1)
}

// KeyPadMask marks the PAD keys of seqK for every query of seqQ.
//
//	seqK [batch, len_k], seqQ [batch, len_q] -> [batch, len_q, len_k] bool
//
// true means the key must not be attended.
func KeyPadMask[B tensor.Backend](seqK, seqQ *tensor.Tensor[int32, B]) *tensor.Tensor[bool, B] {
	mustBe2D("KeyPadMask", seqK)
	mustBe2D("KeyPadMask", seqQ)
	batch, lenQ, lenK := seqK.Dim(0), seqQ.Dim(1), seqK.Dim(1)
	if seqQ.Dim(0) != batch {
		panic(fmt.Sprintf("KeyPadMask: batch mismatch %v vs %v", seqK.Shape(), seqQ.Shape()))
	}
	return seqK.EqualScalar(PAD).Unsqueeze(1).Expand(tensor.Shape{batch, lenQ, lenK})
}

// SubsequentMask blocks attention to future positions: entry [b, i, j] is
// true exactly when j > i.
//
//	seq [batch, len] -> [batch, len, len] bool
func SubsequentMask[B tensor.Backend](seq *tensor.Tensor[int32, B]) *tensor.Tensor[bool, B] {
	mustBe2D("SubsequentMask", seq)
	batch, n := seq.Dim(0), seq.Dim(1)

	upper := tensor.Zeros[bool](tensor.Shape{1, n, n}, seq.Backend())
	data := upper.Data()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			data[i*n+j] = true
		}
	}
	return upper.Expand(tensor.Shape{batch, n, n})
}

// DecoderSelfMask combines the causal mask with the target key-padding mask.
func DecoderSelfMask[B tensor.Backend](tgt *tensor.Tensor[int32, B]) *tensor.Tensor[bool, B] {
	return tensor.Or(KeyPadMask(tgt, tgt), SubsequentMask(tgt))
}

// Positions returns position ids for seq: i+1 at non-PAD position i and 0
// at PAD positions.
func Positions[B tensor.Backend](seq *tensor.Tensor[int32, B]) *tensor.Tensor[int32, B] {
	mustBe2D("Positions", seq)
	n := seq.Dim(1)
	pos := tensor.Zeros[int32](seq.Shape(), seq.Backend())
	out, ids := pos.Data(), seq.Data()
	for k, id := range ids {
		if id != PAD {
			out[k] = int32(k%n + 1) //nolint:gosec // G115: bounded by the sequence length
		}
	}
	return pos
}

func mustBe2D[B tensor.Backend](op string, seq *tensor.Tensor[int32, B]) {
	if len(seq.Shape()) != 2 {
		panic(fmt.Sprintf("%s: expected [batch, len] token ids, got %v", op, seq.Shape()))
	}
}
