package nn

import (
	"math"
	"math/rand"
	"sync"

	"github.com/born-ml/hseq/internal/tensor"
)

var (
	rngMu sync.Mutex
	rng   = rand.New(rand.NewSource(1)) //nolint:gosec // weight init, not crypto
)

// SetSeed reseeds the generator used by every initializer in this package.
func SetSeed(seed int64) {
	rngMu.Lock()
	defer rngMu.Unlock()
	rng = rand.New(rand.NewSource(seed)) //nolint:gosec // weight init, not crypto
}

// Normal returns a tensor drawn from N(mean, std).
func Normal[B tensor.Backend](shape tensor.Shape, mean, std float64, backend B) *tensor.Tensor[float32, B] {
	rngMu.Lock()
	defer rngMu.Unlock()
	return tensor.RandnFrom(shape, mean, std, rng, backend)
}

// Uniform returns a tensor drawn from U(lo, hi).
func Uniform[B tensor.Backend](shape tensor.Shape, lo, hi float64, backend B) *tensor.Tensor[float32, B] {
	rngMu.Lock()
	defer rngMu.Unlock()
	return tensor.UniformFrom(shape, lo, hi, rng, backend)
}

// XavierUniform initializes with U(-a, a), a = sqrt(6 / (fanIn + fanOut)).
func XavierUniform[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	return Uniform(shape, -bound, bound, backend)
}

// XavierNormal initializes with N(0, sqrt(2 / (fanIn + fanOut))).
func XavierNormal[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return Normal(shape, 0, math.Sqrt(2.0/float64(fanIn+fanOut)), backend)
}
