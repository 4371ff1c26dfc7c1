package nn_test

import (
	"math"
	"testing"

	"github.com/born-ml/hseq/internal/backend/cpu"
	"github.com/born-ml/hseq/internal/nn"
	"github.com/born-ml/hseq/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaledDotProductAttention_Uniform(t *testing.T) {
	b := cpu.New()
	attn := nn.NewScaledDotProductAttention(2, 0, b)

	q := tensor.Zeros[float32](tensor.Shape{1, 1, 2, 4}, b)
	k := nn.Normal(tensor.Shape{1, 1, 3, 4}, 0, 1, b)
	v := tensor.MustFromSlice([]float32{1, 1, 2, 2, 3, 3}, tensor.Shape{1, 1, 3, 2}, b)

	out, weights := attn.Forward(q, k, v, nil)
	require.Equal(t, tensor.Shape{1, 1, 2, 2}, out.Shape())
	require.Equal(t, tensor.Shape{1, 1, 2, 3}, weights.Shape())

	// Zero queries attend uniformly.
	for _, w := range weights.Data() {
		assert.InDelta(t, 1.0/3, w, 1e-6)
	}
	assert.InDeltaSlice(t, []float32{2, 2, 2, 2}, out.Data(), 1e-5)
}

func TestScaledDotProductAttention_Mask(t *testing.T) {
	b := cpu.New()
	attn := nn.NewScaledDotProductAttention(1, 0, b)

	q := nn.Normal(tensor.Shape{1, 1, 2, 2}, 0, 1, b)
	k := nn.Normal(tensor.Shape{1, 1, 2, 2}, 0, 1, b)
	v := nn.Normal(tensor.Shape{1, 1, 2, 2}, 0, 1, b)
	// Row 0 blocks key 1; row 1 blocks everything.
	mask := tensor.MustFromSlice([]bool{false, true, true, true}, tensor.Shape{1, 1, 2, 2}, b)

	out, weights := attn.Forward(q, k, v, mask)
	w := weights.Data()
	assert.InDelta(t, 1.0, w[0], 1e-6)
	assert.Equal(t, []float32{0, 0, 0}, w[1:])
	for _, x := range out.Data() {
		assert.False(t, math.IsNaN(float64(x)))
	}
	assert.Equal(t, []float32{0, 0}, out.Data()[2:])
}

func TestMultiHeadAttention_Shapes(t *testing.T) {
	b := cpu.New()
	mha := nn.NewMultiHeadAttention(2, 8, 4, 3, 0.1, b)

	q := nn.Normal(tensor.Shape{2, 5, 8}, 0, 1, b)
	kv := nn.Normal(tensor.Shape{2, 7, 8}, 0, 1, b)

	out, attn := mha.Forward(q, kv, kv, nil)
	assert.Equal(t, tensor.Shape{2, 5, 8}, out.Shape())
	assert.Equal(t, tensor.Shape{2, 2, 5, 7}, attn.Shape())
	assert.Equal(t, tensor.Shape{8, 8}, mha.WQ.Weight().Shape())
	assert.Equal(t, tensor.Shape{6, 8}, mha.WV.Weight().Shape())
	assert.Equal(t, tensor.Shape{8, 6}, mha.FC.Weight().Shape())
	assert.Len(t, mha.Parameters(), 10)
}

func TestMultiHeadAttention_KeyMask(t *testing.T) {
	b := cpu.New()
	mha := nn.NewMultiHeadAttention(2, 8, 4, 4, 0, b)
	x := nn.Normal(tensor.Shape{1, 3, 8}, 0, 1, b)

	// Block the last key for every query.
	mask := tensor.MustFromSlice([]bool{
		false, false, true,
		false, false, true,
		false, false, true,
	}, tensor.Shape{1, 3, 3}, b)

	_, attn := mha.Forward(x, x, x, mask)
	data := attn.Data()
	for row := 0; row < 2*3; row++ {
		assert.Equal(t, float32(0), data[row*3+2])
		assert.InDelta(t, 1.0, data[row*3]+data[row*3+1], 1e-5)
	}
}

func TestMultiHeadAttention_Eval_Deterministic(t *testing.T) {
	b := cpu.New()
	mha := nn.NewMultiHeadAttention(2, 8, 4, 4, 0.5, b)
	x := nn.Normal(tensor.Shape{1, 3, 8}, 0, 1, b)

	a, _ := mha.Forward(x, x, x, nil)
	c, _ := mha.Forward(x, x, x, nil)
	assert.Equal(t, a.Data(), c.Data())
}
