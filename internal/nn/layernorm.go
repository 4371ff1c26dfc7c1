package nn

import (
	"fmt"

	"github.com/born-ml/hseq/internal/tensor"
)

// DefaultLayerNormEps is the epsilon used by the attention and session layers.
const DefaultLayerNormEps = 1e-5

// LayerNorm normalizes over the last dimension:
//
//	y = gamma * (x - mean(x)) / sqrt(var(x) + eps) + beta
//
// gamma starts at ones and beta at zeros.
type LayerNorm[B tensor.Backend] struct {
	Gamma   *Parameter[B] // scale [d_model]
	Beta    *Parameter[B] // shift [d_model]
	Epsilon float32
	dim     int
}

// NewLayerNorm creates a LayerNorm over a last dimension of size normalizedShape.
func NewLayerNorm[B tensor.Backend](normalizedShape int, epsilon float32, backend B) *LayerNorm[B] {
	if normalizedShape <= 0 {
		panic(fmt.Sprintf("LayerNorm: normalized shape must be positive, got %d", normalizedShape))
	}
	return &LayerNorm[B]{
		Gamma:   NewParameter("gamma", tensor.Ones[float32](tensor.Shape{normalizedShape}, backend)),
		Beta:    NewParameter("beta", tensor.Zeros[float32](tensor.Shape{normalizedShape}, backend)),
		Epsilon: epsilon,
		dim:     normalizedShape,
	}
}

// Forward normalizes x [..., d_model].
func (l *LayerNorm[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if x.Dim(-1) != l.dim {
		panic(fmt.Sprintf("LayerNorm.Forward: expected last dimension %d, got %v", l.dim, x.Shape()))
	}

	mean := x.MeanDim(-1, true)
	centered := x.Sub(mean)
	variance := centered.Mul(centered).MeanDim(-1, true)
	norm := centered.Mul(variance.AddScalar(l.Epsilon).Rsqrt())

	// [d_model] broadcasts against [..., d_model].
	return norm.Mul(l.Gamma.Tensor()).Add(l.Beta.Tensor())
}

// Parameters returns gamma and beta.
func (l *LayerNorm[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.Gamma, l.Beta}
}
