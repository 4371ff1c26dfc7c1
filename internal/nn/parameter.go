package nn

import (
	"github.com/born-ml/hseq/internal/tensor"
)

// Parameter is a named float32 tensor owned by a layer.
//
// Two layers that hold the same *Parameter share one storage buffer: writes
// through either are visible to both. This is how weight tying is expressed.
//
// Example:
//
//	emb := nn.NewEmbedding(vocab, dim, padIdx, backend)
//	prj := nn.NewLinear(dim, vocab, false, backend)
//	prj.TieWeight(emb.Weight) // prj and emb now alias one table
type Parameter[B tensor.Backend] struct {
	name   string
	tensor *tensor.Tensor[float32, B]
	frozen bool
}

// NewParameter creates a trainable parameter over an initialized tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{name: name, tensor: t}
}

// NewFrozenParameter creates a parameter excluded from training, such as a
// fixed position table.
func NewFrozenParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{name: name, tensor: t, frozen: true}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}

// Frozen reports whether the parameter is excluded from training.
func (p *Parameter[B]) Frozen() bool {
	return p.frozen
}

// Shape returns the parameter tensor's shape.
func (p *Parameter[B]) Shape() tensor.Shape {
	return p.tensor.Shape()
}
