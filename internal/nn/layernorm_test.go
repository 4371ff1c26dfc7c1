package nn_test

import (
	"testing"

	"github.com/born-ml/hseq/internal/backend/cpu"
	"github.com/born-ml/hseq/internal/nn"
	"github.com/born-ml/hseq/internal/tensor"
	"github.com/stretchr/testify/assert"
)

func TestLayerNorm_Forward(t *testing.T) {
	b := cpu.New()
	ln := nn.NewLayerNorm(4, 1e-5, b)
	x := tensor.MustFromSlice([]float32{1, 2, 3, 4, 10, 10, 10, 10}, tensor.Shape{2, 4}, b)

	out := ln.Forward(x).Data()
	// mean 2.5, var 1.25
	assert.InDeltaSlice(t, []float32{-1.3416, -0.4472, 0.4472, 1.3416}, out[:4], 1e-3)
	// Constant rows normalize to beta.
	assert.InDeltaSlice(t, []float32{0, 0, 0, 0}, out[4:], 1e-6)
}

func TestLayerNorm_GammaBeta(t *testing.T) {
	b := cpu.New()
	ln := nn.NewLayerNorm(2, 1e-5, b)
	ln.Gamma.Tensor().CopyFrom(tensor.MustFromSlice([]float32{2, 2}, tensor.Shape{2}, b))
	ln.Beta.Tensor().CopyFrom(tensor.MustFromSlice([]float32{1, -1}, tensor.Shape{2}, b))

	x := tensor.MustFromSlice([]float32{0, 2}, tensor.Shape{1, 1, 2}, b)
	out := ln.Forward(x)
	assert.Equal(t, tensor.Shape{1, 1, 2}, out.Shape())
	assert.InDeltaSlice(t, []float32{-1, 1}, out.Data(), 1e-4)

	assert.Panics(t, func() { ln.Forward(tensor.Zeros[float32](tensor.Shape{1, 3}, b)) })
}
