package nn

import (
	"fmt"
	"math"

	"github.com/born-ml/hseq/internal/tensor"
)

// MultiHeadAttention is post-norm multi-head attention with its own residual:
//
//	head_i = SDPA(q W_Q_i, k W_K_i, v W_V_i)
//	out    = LayerNorm(dropout(Concat(head_1..head_h) W_O) + q)
//
// Queries and keys are projected to d_k per head, values to d_v per head.
// W_Q, W_K and W_V are drawn from N(0, sqrt(2/(d_model+d_k))) (d_v for W_V),
// W_O is Xavier normal.
//
// Example:
//
//	mha := nn.NewMultiHeadAttention(8, 512, 64, 64, 0.1, backend)
//	out, attn := mha.Forward(x, x, x, padMask)  // self-attention
//	out, attn = mha.Forward(y, enc, enc, srcMask) // cross-attention
type MultiHeadAttention[B tensor.Backend] struct {
	WQ        *Linear[B] // [d_model] -> [n_head*d_k]
	WK        *Linear[B] // [d_model] -> [n_head*d_k]
	WV        *Linear[B] // [d_model] -> [n_head*d_v]
	FC        *Linear[B] // [n_head*d_v] -> [d_model]
	Attention *ScaledDotProductAttention[B]
	Norm      *LayerNorm[B]
	Dropout   *Dropout[B]
	NumHeads  int
	DK        int
	DV        int
	DModel    int
}

// NewMultiHeadAttention creates a multi-head attention block.
func NewMultiHeadAttention[B tensor.Backend](nHead, dModel, dK, dV int, dropout float64, backend B) *MultiHeadAttention[B] {
	if nHead <= 0 || dModel <= 0 || dK <= 0 || dV <= 0 {
		panic(fmt.Sprintf("MultiHeadAttention: sizes must be positive, got n_head=%d d_model=%d d_k=%d d_v=%d",
			nHead, dModel, dK, dV))
	}

	return &MultiHeadAttention[B]{
		WQ:        NewLinearWithInit(dModel, nHead*dK, true, NormalInit[B](math.Sqrt(2.0/float64(dModel+dK))), backend),
		WK:        NewLinearWithInit(dModel, nHead*dK, true, NormalInit[B](math.Sqrt(2.0/float64(dModel+dK))), backend),
		WV:        NewLinearWithInit(dModel, nHead*dV, true, NormalInit[B](math.Sqrt(2.0/float64(dModel+dV))), backend),
		FC:        NewLinearWithInit(nHead*dV, dModel, true, XavierNormal[B], backend),
		Attention: NewScaledDotProductAttention(math.Sqrt(float64(dK)), dropout, backend),
		Norm:      NewLayerNorm(dModel, DefaultLayerNormEps, backend),
		Dropout:   NewDropout(dropout, backend),
		NumHeads:  nHead,
		DK:        dK,
		DV:        dV,
		DModel:    dModel,
	}
}

// Forward computes attention of q over k/v.
//
// Shapes:
//   - q: [batch, seq_q, d_model]
//   - k, v: [batch, seq_k, d_model]
//   - mask: bool [batch, seq_q, seq_k] (true = blocked), or nil
//
// Returns the output [batch, seq_q, d_model] and attention weights
// [batch, n_head, seq_q, seq_k].
func (m *MultiHeadAttention[B]) Forward(
	q, k, v *tensor.Tensor[float32, B],
	mask *tensor.Tensor[bool, B],
) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	batch, seqQ, seqK := q.Dim(0), q.Dim(1), k.Dim(1)
	if k.Dim(0) != batch || v.Dim(0) != batch || v.Dim(1) != seqK {
		panic(fmt.Sprintf("MultiHeadAttention.Forward: incompatible q %v, k %v, v %v", q.Shape(), k.Shape(), v.Shape()))
	}
	residual := q

	qh := m.WQ.Forward(q).Reshape(batch, seqQ, m.NumHeads, m.DK).Transpose(0, 2, 1, 3)
	kh := m.WK.Forward(k).Reshape(batch, seqK, m.NumHeads, m.DK).Transpose(0, 2, 1, 3)
	vh := m.WV.Forward(v).Reshape(batch, seqK, m.NumHeads, m.DV).Transpose(0, 2, 1, 3)

	var headMask *tensor.Tensor[bool, B]
	if mask != nil {
		headMask = mask.Unsqueeze(1) // [batch, 1, seq_q, seq_k]
	}
	out, attn := m.Attention.Forward(qh, kh, vh, headMask)

	out = out.Transpose(0, 2, 1, 3).Reshape(batch, seqQ, m.NumHeads*m.DV)
	out = m.Dropout.Forward(m.FC.Forward(out))
	return m.Norm.Forward(out.Add(residual)), attn
}

// SetTraining toggles both dropout sites.
func (m *MultiHeadAttention[B]) SetTraining(training bool) {
	m.Attention.SetTraining(training)
	m.Dropout.SetTraining(training)
}

// Parameters returns all projection and normalization parameters.
func (m *MultiHeadAttention[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	params = append(params, m.WQ.Parameters()...)
	params = append(params, m.WK.Parameters()...)
	params = append(params, m.WV.Parameters()...)
	params = append(params, m.FC.Parameters()...)
	params = append(params, m.Norm.Parameters()...)
	return params
}
