package seq2seq

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/born-ml/hseq/internal/backend/cpu"
	"github.com/born-ml/hseq/internal/nn"
	"github.com/born-ml/hseq/internal/tensor"
)

type testBackend = *cpu.CPUBackend

func smallConfig() Config {
	cfg := DefaultConfig(12, 12, 10)
	cfg.DWordVec, cfg.DModel = 8, 8
	cfg.DInner = 16
	cfg.DHidden = 6
	cfg.NLayers = 2
	cfg.NHead = 2
	cfg.DK, cfg.DV = 4, 4
	return cfg
}

func newTestModel(t *testing.T, cfg Config) *Seq2Seq[testBackend] {
	t.Helper()
	nn.SetSeed(42)
	m, err := New(cfg, cpu.New())
	require.NoError(t, err)
	return m
}

func ids(b testBackend, rows ...[]int32) *tensor.Tensor[int32, testBackend] {
	t, err := PadSequences(rows, b)
	if err != nil {
		panic(err)
	}
	return t
}

func testBatch(t *testing.T, b testBackend) *Batch[testBackend] {
	t.Helper()
	batch, err := NewBatch(
		[][]int32{{2, 5, 6, 7, 3}, {2, 8, 3}},
		[][]int32{{2, 9, 10, 3}, {2, 11, 3}},
		b,
	)
	require.NoError(t, err)
	return batch
}

func requireFinite(t *testing.T, data []float32) {
	t.Helper()
	for i, v := range data {
		require.Falsef(t, math.IsNaN(float64(v)) || math.IsInf(float64(v), 0), "value %d is %v", i, v)
	}
}
