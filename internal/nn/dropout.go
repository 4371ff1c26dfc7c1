package nn

import (
	"fmt"

	"github.com/born-ml/hseq/internal/tensor"
)

// Dropout zeroes elements with probability P during training and scales the
// survivors by 1/(1-P). In evaluation mode it is the identity.
//
// New layers start in evaluation mode.
type Dropout[B tensor.Backend] struct {
	P        float64
	training bool
	backend  B
}

// NewDropout creates a dropout layer with drop probability p in [0, 1).
func NewDropout[B tensor.Backend](p float64, backend B) *Dropout[B] {
	if p < 0 || p >= 1 {
		panic(fmt.Sprintf("Dropout: probability must be in [0, 1), got %v", p))
	}
	return &Dropout[B]{P: p, backend: backend}
}

// SetTraining enables or disables dropout.
func (d *Dropout[B]) SetTraining(training bool) {
	d.training = training
}

// Training reports whether dropout is active.
func (d *Dropout[B]) Training() bool {
	return d.training
}

// Forward applies dropout to x.
func (d *Dropout[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !d.training || d.P == 0 {
		return x
	}

	keep := Uniform(x.Shape(), 0, 1, d.backend)
	scale := float32(1 / (1 - d.P))
	data := keep.Data()
	for i, u := range data {
		if float64(u) < d.P {
			data[i] = 0
		} else {
			data[i] = scale
		}
	}
	return x.Mul(keep)
}

// Parameters returns nil; dropout has no parameters.
func (d *Dropout[B]) Parameters() []*Parameter[B] {
	return nil
}
