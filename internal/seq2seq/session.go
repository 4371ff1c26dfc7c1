package seq2seq

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/born-ml/hseq/internal/nn"
	"github.com/born-ml/hseq/internal/tensor"
)

// SessionState is the recurrent state carried across the turns of a dialogue.
//
// H and C are replaced, never written in place, so a copied SessionState is
// a stable snapshot.
type SessionState[B tensor.Backend] struct {
	ID uuid.UUID
	H  *tensor.Tensor[float32, B] // [batch, d_hidden]
	C  *tensor.Tensor[float32, B] // [batch, d_hidden]
}

// Batch returns the batch size the state was created for.
func (s SessionState[B]) Batch() int {
	return s.H.Dim(0)
}

// SessionAttention attends from the session hidden state over the encoder
// output and broadcasts the context back over time.
//
//	q    = W_q h                                  [batch, d_model]
//	attn = softmax(mask(q . enc_t / sqrt(d_model))) over t
//	out  = dropout(W_o (sum_t attn_t enc_t))      broadcast to [batch, len, d_model]
type SessionAttention[B tensor.Backend] struct {
	Query    *nn.Linear[B] // [d_hidden] -> [d_model]
	Out      *nn.Linear[B] // [d_model] -> [d_model]
	AttnDrop *nn.Dropout[B]
	Dropout  *nn.Dropout[B]
	dModel   int
}

// NewSessionAttention creates the session attention layer.
func NewSessionAttention[B tensor.Backend](dHidden, dModel int, dropout float64, backend B) *SessionAttention[B] {
	return &SessionAttention[B]{
		Query:    nn.NewLinear(dHidden, dModel, true, backend),
		Out:      nn.NewLinear(dModel, dModel, true, backend),
		AttnDrop: nn.NewDropout(dropout, backend),
		Dropout:  nn.NewDropout(dropout, backend),
		dModel:   dModel,
	}
}

// Forward attends h [batch, d_hidden] over enc [batch, len, d_model].
// padMask [batch, 1, len] marks PAD keys. It returns the broadcast context
// [batch, len, d_model] and the weights [batch, 1, len]; a sequence that is
// all PAD gets zero weights.
func (a *SessionAttention[B]) Forward(
	enc, h *tensor.Tensor[float32, B],
	padMask *tensor.Tensor[bool, B],
) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	q := a.Query.Forward(h).Unsqueeze(1) // [batch, 1, d_model]

	scores := q.BatchMatMul(enc.Transpose(0, 2, 1)).MulScalar(float32(1 / math.Sqrt(float64(a.dModel))))
	scores = scores.MaskedFill(padMask, float32(math.Inf(-1)))
	attn := a.AttnDrop.Forward(scores.Softmax(-1))

	ctx := a.Dropout.Forward(a.Out.Forward(attn.BatchMatMul(enc))) // [batch, 1, d_model]
	return ctx.Expand(enc.Shape()), attn
}

// SetTraining toggles both dropout sites.
func (a *SessionAttention[B]) SetTraining(training bool) {
	nn.SetTraining(training, a.AttnDrop, a.Dropout)
}

// Parameters returns the query and output projections.
func (a *SessionAttention[B]) Parameters() []*nn.Parameter[B] {
	return append(a.Query.Parameters(), a.Out.Parameters()...)
}

// Session compresses each encoded turn into an LSTM state and infuses it
// back into the encoder output:
//
//	features = max_t(enc * nonPad)
//	h, c     = LSTMCell(features, h, c)
//	out      = LayerNorm(SessionAttention(enc, h) + enc * nonPad)
//
// The state persists across Forward calls until Reset or Restore. A Session
// is not safe for concurrent use.
type Session[B tensor.Backend] struct {
	Memory *nn.LSTMCell[B]
	Attn   *SessionAttention[B]
	Norm   *nn.LayerNorm[B]

	state   *SessionState[B]
	dHidden int
	backend B
}

// NewSession creates a session over d_model features with a d_hidden LSTM.
func NewSession[B tensor.Backend](dModel, dHidden int, dropout float64, backend B) *Session[B] {
	return &Session[B]{
		Memory:  nn.NewLSTMCell(dModel, dHidden, backend),
		Attn:    NewSessionAttention(dHidden, dModel, dropout, backend),
		Norm:    nn.NewLayerNorm(dModel, nn.DefaultLayerNormEps, backend),
		dHidden: dHidden,
		backend: backend,
	}
}

// Reset starts a new dialogue: hidden and cell state become zeros for
// batch rows and a fresh session id is assigned.
func (s *Session[B]) Reset(batch int) uuid.UUID {
	if batch <= 0 {
		panic(fmt.Sprintf("Session.Reset: batch must be positive, got %d", batch))
	}
	s.state = &SessionState[B]{
		ID: uuid.New(),
		H:  tensor.Zeros[float32](tensor.Shape{batch, s.dHidden}, s.backend),
		C:  tensor.Zeros[float32](tensor.Shape{batch, s.dHidden}, s.backend),
	}
	return s.state.ID
}

// Active reports whether Reset or Restore has been called.
func (s *Session[B]) Active() bool {
	return s.state != nil
}

// State returns a snapshot of the current state. It panics before Reset.
func (s *Session[B]) State() SessionState[B] {
	s.mustBeActive("State")
	return *s.state
}

// Restore replaces the current state with a snapshot.
func (s *Session[B]) Restore(state SessionState[B]) error {
	if state.H == nil || state.C == nil {
		return fmt.Errorf("%w: session state has no hidden or cell tensor", ErrDimMismatch)
	}
	want := tensor.Shape{state.H.Dim(0), s.dHidden}
	if !state.H.Shape().Equal(want) || !state.C.Shape().Equal(want) {
		return fmt.Errorf("%w: session state h %v c %v, want %v",
			ErrDimMismatch, state.H.Shape(), state.C.Shape(), want)
	}
	s.state = &state
	return nil
}

// Features max-pools the PAD-masked encoder output over time:
// enc [batch, len, d_model] -> [batch, d_model]. PAD positions contribute
// zeros, so an all-PAD sequence yields a zero vector.
func (s *Session[B]) Features(enc *tensor.Tensor[float32, B], src *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	return enc.Mul(NonPadMask(src)).MaxDim(1, false)
}

// Forward advances the session by one turn and returns the session-infused
// sequence [batch, len, d_model] and the attention weights [batch, 1, len].
// It panics if the state was never initialized or has another batch size.
func (s *Session[B]) Forward(enc *tensor.Tensor[float32, B], src *tensor.Tensor[int32, B]) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	s.mustBeActive("Forward")
	if enc.Dim(0) != s.state.Batch() {
		panic(fmt.Sprintf("Session.Forward: batch %d does not match session state batch %d; call Reset",
			enc.Dim(0), s.state.Batch()))
	}
	if enc.Dim(0) != src.Dim(0) || enc.Dim(1) != src.Dim(1) {
		panic(fmt.Sprintf("Session.Forward: encoder output %v does not match source %v", enc.Shape(), src.Shape()))
	}

	masked := enc.Mul(NonPadMask(src))
	features := masked.MaxDim(1, false)

	h, c := s.Memory.Forward(features, s.state.H, s.state.C)
	s.state = &SessionState[B]{ID: s.state.ID, H: h, C: c}

	padMask := src.EqualScalar(PAD).Unsqueeze(1) // [batch, 1, len]
	ctx, attn := s.Attn.Forward(masked, h, padMask)
	return s.Norm.Forward(ctx.Add(masked)), attn
}

// SetTraining toggles dropout in the attention layer.
func (s *Session[B]) SetTraining(training bool) {
	s.Attn.SetTraining(training)
}

// Parameters returns LSTM, attention and norm parameters.
func (s *Session[B]) Parameters() []*nn.Parameter[B] {
	params := append(s.Memory.Parameters(), s.Attn.Parameters()...)
	return append(params, s.Norm.Parameters()...)
}

func (s *Session[B]) mustBeActive(op string) {
	if s.state == nil {
		panic(fmt.Sprintf("Session.%s: session state not initialized; call Reset first", op))
	}
}
