package nn

import (
	"fmt"

	"github.com/born-ml/hseq/internal/tensor"
)

// Initializer produces an initial weight tensor for a layer with the given fans.
// XavierUniform and XavierNormal satisfy it.
type Initializer[B tensor.Backend] func(fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B]

// NormalInit returns an Initializer drawing from N(0, std).
func NormalInit[B tensor.Backend](std float64) Initializer[B] {
	return func(_, _ int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
		return Normal(shape, 0, std, backend)
	}
}

// Linear implements y = x @ W^T + b over the last dimension of x.
//
// Input may have any rank >= 1: [..., in_features] -> [..., out_features].
type Linear[B tensor.Backend] struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter[B] // [out_features, in_features]
	bias        *Parameter[B] // [out_features], nil without bias
}

// NewLinear creates a Linear layer with Xavier uniform weights and zero bias.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, bias bool, backend B) *Linear[B] {
	return NewLinearWithInit(inFeatures, outFeatures, bias, XavierUniform[B], backend)
}

// NewLinearWithInit creates a Linear layer whose weight comes from init.
func NewLinearWithInit[B tensor.Backend](inFeatures, outFeatures int, bias bool, init Initializer[B], backend B) *Linear[B] {
	if inFeatures <= 0 || outFeatures <= 0 {
		panic(fmt.Sprintf("Linear: features must be positive, got in=%d out=%d", inFeatures, outFeatures))
	}
	l := &Linear[B]{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter("weight", init(inFeatures, outFeatures, tensor.Shape{outFeatures, inFeatures}, backend)),
	}
	if bias {
		l.bias = NewParameter("bias", tensor.Zeros[float32](tensor.Shape{outFeatures}, backend))
	}
	return l
}

// Forward applies the affine map to the last dimension of input.
func (l *Linear[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) == 0 || shape[len(shape)-1] != l.inFeatures {
		panic(fmt.Sprintf("Linear.Forward: expected input [..., %d], got %v", l.inFeatures, shape))
	}

	output := input.Reshape(-1, l.inFeatures).MatMul(l.weight.Tensor().Transpose())
	if l.bias != nil {
		output = output.Add(l.bias.Tensor().Reshape(1, l.outFeatures))
	}

	outShape := append(shape[:len(shape)-1].Clone(), l.outFeatures)
	return output.Reshape(outShape...)
}

// TieWeight replaces the weight with p, so both owners share one tensor.
// p must have shape [out_features, in_features].
func (l *Linear[B]) TieWeight(p *Parameter[B]) {
	want := tensor.Shape{l.outFeatures, l.inFeatures}
	if !p.Shape().Equal(want) {
		panic(fmt.Sprintf("Linear.TieWeight: expected weight %v, got %v", want, p.Shape()))
	}
	l.weight = p
}

// Parameters returns weight and, if present, bias.
func (l *Linear[B]) Parameters() []*Parameter[B] {
	if l.bias != nil {
		return []*Parameter[B]{l.weight, l.bias}
	}
	return []*Parameter[B]{l.weight}
}

// Weight returns the weight parameter [out_features, in_features].
func (l *Linear[B]) Weight() *Parameter[B] {
	return l.weight
}

// Bias returns the bias parameter, or nil.
func (l *Linear[B]) Bias() *Parameter[B] {
	return l.bias
}

// InFeatures returns the input feature count.
func (l *Linear[B]) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the output feature count.
func (l *Linear[B]) OutFeatures() int {
	return l.outFeatures
}
