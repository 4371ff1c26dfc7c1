package nn

import (
	"fmt"
	"math"

	"github.com/born-ml/hseq/internal/tensor"
)

// SinusoidTable builds the fixed sinusoid position table [nPosition, dim]:
//
//	angle(pos, j) = pos / 10000^(2*floor(j/2)/dim)
//	table[pos, j] = sin(angle) for even j, cos(angle) for odd j
//
// If paddingIdx >= 0 that row is all zeros. Row 0 is the padding position
// in the hseq models, so real positions start at 1.
func SinusoidTable(nPosition, dim, paddingIdx int) []float32 {
	if nPosition <= 0 || dim <= 0 {
		panic(fmt.Sprintf("SinusoidTable: sizes must be positive, got %dx%d", nPosition, dim))
	}

	table := make([]float32, nPosition*dim)
	for pos := 0; pos < nPosition; pos++ {
		if pos == paddingIdx {
			continue
		}
		for j := 0; j < dim; j++ {
			angle := float64(pos) / math.Pow(10000.0, float64(2*(j/2))/float64(dim))
			if j%2 == 0 {
				table[pos*dim+j] = float32(math.Sin(angle))
			} else {
				table[pos*dim+j] = float32(math.Cos(angle))
			}
		}
	}
	return table
}

// NewPositionEmbedding returns a frozen Embedding over SinusoidTable with
// row 0 zeroed. Indices are position ids where 0 marks padding.
//
// Example:
//
//	pe := nn.NewPositionEmbedding(maxLen+1, 512, backend)
//	pos := pe.Forward(positionIDs) // [batch, seq, 512]
func NewPositionEmbedding[B tensor.Backend](nPosition, dim int, backend B) *Embedding[B] {
	table := tensor.MustFromSlice(SinusoidTable(nPosition, dim, 0), tensor.Shape{nPosition, dim}, backend)
	emb := NewEmbeddingFromPretrained(table, true)
	emb.PaddingIdx = 0
	return emb
}
