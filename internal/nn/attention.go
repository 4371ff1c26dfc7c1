package nn

import (
	"fmt"
	"math"

	"github.com/born-ml/hseq/internal/tensor"
)

// ScaledDotProductAttention computes
//
//	Attention(Q, K, V) = dropout(softmax(mask(Q K^T / temperature))) V
//
// Shapes:
//   - q: [batch, heads, seq_q, d_k]
//   - k: [batch, heads, seq_k, d_k]
//   - v: [batch, heads, seq_k, d_v]
//   - mask: bool, broadcastable to [batch, heads, seq_q, seq_k]; true marks
//     positions that must not be attended. May be nil.
//
// A query row whose keys are all masked gets zero weights.
type ScaledDotProductAttention[B tensor.Backend] struct {
	Temperature float64
	Dropout     *Dropout[B]
}

// NewScaledDotProductAttention creates the attention primitive with the given
// temperature (usually sqrt(d_k)) and dropout on the attention weights.
func NewScaledDotProductAttention[B tensor.Backend](temperature, dropout float64, backend B) *ScaledDotProductAttention[B] {
	if temperature <= 0 {
		panic(fmt.Sprintf("ScaledDotProductAttention: temperature must be positive, got %v", temperature))
	}
	return &ScaledDotProductAttention[B]{
		Temperature: temperature,
		Dropout:     NewDropout(dropout, backend),
	}
}

// Forward returns the attended values [batch, heads, seq_q, d_v] and the
// attention weights [batch, heads, seq_q, seq_k].
func (a *ScaledDotProductAttention[B]) Forward(
	q, k, v *tensor.Tensor[float32, B],
	mask *tensor.Tensor[bool, B],
) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	validateAttentionInputs(q, k, v)

	scores := q.BatchMatMul(k.Transpose()).MulScalar(float32(1 / a.Temperature))
	if mask != nil {
		scores = scores.MaskedFill(mask, float32(math.Inf(-1)))
	}

	attn := a.Dropout.Forward(scores.Softmax(-1))
	return attn.BatchMatMul(v), attn
}

// SetTraining toggles dropout on the attention weights.
func (a *ScaledDotProductAttention[B]) SetTraining(training bool) {
	a.Dropout.SetTraining(training)
}

func validateAttentionInputs[B tensor.Backend](q, k, v *tensor.Tensor[float32, B]) {
	qs, ks, vs := q.Shape(), k.Shape(), v.Shape()
	if len(qs) != 4 || len(ks) != 4 || len(vs) != 4 {
		panic(fmt.Sprintf("ScaledDotProductAttention: q, k, v must be 4D, got %v %v %v", qs, ks, vs))
	}
	if qs[3] != ks[3] {
		panic(fmt.Sprintf("ScaledDotProductAttention: query and key head dims differ: %v vs %v", qs, ks))
	}
	if ks[2] != vs[2] {
		panic(fmt.Sprintf("ScaledDotProductAttention: key and value lengths differ: %v vs %v", ks, vs))
	}
}
