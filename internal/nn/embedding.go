package nn

import (
	"fmt"

	"github.com/born-ml/hseq/internal/tensor"
)

// NoPadding disables the padding row of an Embedding.
const NoPadding = -1

// Embedding is a lookup table mapping token ids to dense vectors.
//
// When PaddingIdx >= 0 the corresponding row is zero at construction.
//
// Example:
//
//	emb := nn.NewEmbedding(10000, 512, 0, backend)
//	ids := tensor.MustFromSlice([]int32{5, 0, 7}, tensor.Shape{1, 3}, backend)
//	vecs := emb.Forward(ids) // [1, 3, 512], vecs[0,1,:] == 0
type Embedding[B tensor.Backend] struct {
	Weight     *Parameter[B] // [NumEmbed, EmbedDim]
	NumEmbed   int
	EmbedDim   int
	PaddingIdx int
}

// NewEmbedding creates an embedding with N(0, 1) rows and a zeroed padding row.
func NewEmbedding[B tensor.Backend](numEmbeddings, embeddingDim, paddingIdx int, backend B) *Embedding[B] {
	if numEmbeddings <= 0 || embeddingDim <= 0 {
		panic(fmt.Sprintf("Embedding: sizes must be positive, got %dx%d", numEmbeddings, embeddingDim))
	}
	if paddingIdx >= numEmbeddings {
		panic(fmt.Sprintf("Embedding: padding index %d out of range for %d embeddings", paddingIdx, numEmbeddings))
	}

	weight := Normal(tensor.Shape{numEmbeddings, embeddingDim}, 0, 1, backend)
	if paddingIdx >= 0 {
		row := weight.Data()[paddingIdx*embeddingDim : (paddingIdx+1)*embeddingDim]
		clear(row)
	}

	return &Embedding[B]{
		Weight:     NewParameter("weight", weight),
		NumEmbed:   numEmbeddings,
		EmbedDim:   embeddingDim,
		PaddingIdx: paddingIdx,
	}
}

// NewEmbeddingFromPretrained wraps an existing 2D table. The padding row is
// left as given. A frozen embedding reports its parameter as frozen.
func NewEmbeddingFromPretrained[B tensor.Backend](weight *tensor.Tensor[float32, B], freeze bool) *Embedding[B] {
	shape := weight.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("Embedding: weight must be 2D, got shape %v", shape))
	}

	p := NewParameter("weight", weight)
	if freeze {
		p = NewFrozenParameter("weight", weight)
	}
	return &Embedding[B]{
		Weight:     p,
		NumEmbed:   shape[0],
		EmbedDim:   shape[1],
		PaddingIdx: NoPadding,
	}
}

// Forward looks up indices: [...] -> [..., EmbedDim].
func (e *Embedding[B]) Forward(indices *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	return e.Weight.Tensor().Embedding(indices)
}

// TieWeight makes the embedding use p as its table. Shapes must match.
func (e *Embedding[B]) TieWeight(p *Parameter[B]) {
	if !p.Shape().Equal(e.Weight.Shape()) {
		panic(fmt.Sprintf("Embedding.TieWeight: expected table %v, got %v", e.Weight.Shape(), p.Shape()))
	}
	e.Weight = p
}

// Parameters returns the embedding table.
func (e *Embedding[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{e.Weight}
}
