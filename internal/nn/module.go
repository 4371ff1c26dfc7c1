// Package nn implements the neural network building blocks of the hseq model.
//
// This package provides forward-only layers over tensor.Backend:
//   - Parameter: named, shareable float32 tensors (weight tying aliases one Parameter)
//   - Linear, Embedding, LayerNorm, Dropout
//   - Scaled dot-product and multi-head attention with boolean masks
//   - PositionwiseFeedForward, LSTMCell
//   - Sinusoid position tables and initializers
//
// Layers panic on invalid construction arguments and on shape mismatches at
// forward time, like the backend they run on.
package nn

import (
	"github.com/born-ml/hseq/internal/tensor"
)

// Module is implemented by every component that owns parameters.
//
// Forward signatures differ per layer (token ids, masks, recurrent state),
// so only parameter enumeration is shared.
type Module[B tensor.Backend] interface {
	// Parameters returns the parameters owned by the module and its children.
	// A tied parameter may appear more than once; use CollectParameters to dedup.
	Parameters() []*Parameter[B]
}

// Trainable is implemented by modules whose forward behavior differs between
// training and evaluation (dropout).
type Trainable interface {
	SetTraining(training bool)
}

// CollectParameters flattens the parameters of mods, keeping the first
// occurrence of each Parameter. Tied parameters are therefore counted once.
func CollectParameters[B tensor.Backend](mods ...Module[B]) []*Parameter[B] {
	seen := make(map[*Parameter[B]]struct{})
	var out []*Parameter[B]
	for _, m := range mods {
		for _, p := range m.Parameters() {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// CountParameters returns the total number of scalar values in params.
func CountParameters[B tensor.Backend](params []*Parameter[B]) int {
	n := 0
	for _, p := range params {
		n += p.Tensor().NumElements()
	}
	return n
}

// SetTraining switches every Trainable in mods.
func SetTraining(training bool, mods ...Trainable) {
	for _, m := range mods {
		m.SetTraining(training)
	}
}
