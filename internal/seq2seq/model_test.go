package seq2seq

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/born-ml/hseq/internal/backend/cpu"
	"github.com/born-ml/hseq/internal/nn"
	"github.com/born-ml/hseq/internal/tensor"
)

func TestSeq2Seq_ForwardShape(t *testing.T) {
	cfg := DefaultConfig(20, 20, 16)
	cfg.NLayers = 1
	cfg.DInner = 64
	cfg.DHidden = 16
	cfg.NHead = 2
	cfg.DK, cfg.DV = 32, 32
	m := newTestModel(t, cfg)

	b := cpu.New()
	src := ids(b, []int32{2, 5, 6, 7, 3}, []int32{2, 8, 9, 3, 0})
	tgt := ids(b, []int32{2, 10, 11, 3}, []int32{2, 12, 3, 0})

	m.ResetSession(2)
	logits := m.Forward(src, Positions(src), tgt, Positions(tgt))
	assert.Equal(t, tensor.Shape{6, 20}, logits.Shape())
	requireFinite(t, logits.Data())
}

func TestSeq2Seq_ForwardWithAttention(t *testing.T) {
	m := newTestModel(t, smallConfig())
	batch := testBatch(t, cpu.New())

	m.ResetSession(batch.Size())
	logits, attn := m.ForwardWithAttention(batch.Src, batch.SrcPos, batch.Tgt, batch.TgtPos)
	assert.Equal(t, tensor.Shape{6, 12}, logits.Shape())

	require.Len(t, attn.Encoder, 2)
	assert.Equal(t, tensor.Shape{2, 2, 5, 5}, attn.Encoder[0].Shape())
	assert.Equal(t, tensor.Shape{2, 1, 5}, attn.Session.Shape())
	require.Len(t, attn.DecoderSelf, 2)
	assert.Equal(t, tensor.Shape{2, 2, 3, 3}, attn.DecoderSelf[1].Shape())
	require.Len(t, attn.DecoderCross, 2)
	assert.Equal(t, tensor.Shape{2, 2, 3, 5}, attn.DecoderCross[1].Shape())

	// Causal: the first target position only sees itself.
	self := attn.DecoderSelf[0].Data()
	assert.InDelta(t, 1.0, float64(self[0]), 1e-6)
	assert.Zero(t, self[1])
	assert.Zero(t, self[2])
}

func TestSeq2Seq_MMI(t *testing.T) {
	b := cpu.New()
	batch := testBatch(t, b)

	plain := newTestModel(t, smallConfig())
	cfg := smallConfig()
	cfg.MMIFactor = 0.5
	mmi := newTestModel(t, cfg)
	assert.InDelta(t, 0.5, mmi.MMIFactor(), 1e-12)

	plain.ResetSession(2)
	mmi.ResetSession(2)
	want := plain.Forward(batch.Src, batch.SrcPos, batch.Tgt, batch.TgtPos)
	logits, attn := mmi.ForwardWithAttention(batch.Src, batch.SrcPos, batch.Tgt, batch.TgtPos)

	assert.Equal(t, tensor.Shape{6, 12}, want.Shape())
	assert.Equal(t, tensor.Shape{12, 12}, logits.Shape())
	assert.Equal(t, tensor.Shape{4, 2, 3, 5}, attn.DecoderCross[0].Shape())
	assert.InDeltaSlice(t, want.Data(), logits.Data()[:6*12], 1e-5, "session rows come first")

	// The second half is the decoder run over the raw encoder output.
	enc, _ := mmi.Encoder.Forward(batch.Src, batch.SrcPos)
	tgt, tgtPos := batch.Tgt.Narrow(1, 0, 3), batch.TgtPos.Narrow(1, 0, 3)
	dec := mmi.Decoder.Forward(tgt, tgtPos, batch.Src, enc)
	free := mmi.Projection.Forward(dec.Output).MulScalar(mmi.LogitScale()).Reshape(-1, 12)
	assert.InDeltaSlice(t, free.Data(), logits.Data()[6*12:], 1e-5, "session-free rows come second")
	assert.NotEqual(t, logits.Data()[:6*12], logits.Data()[6*12:])
}

func TestSeq2Seq_WeightSharing(t *testing.T) {
	cfg := smallConfig()
	m := newTestModel(t, cfg)

	emb := m.Decoder.WordEmb.Weight
	assert.Same(t, emb, m.Projection.Weight())
	assert.Same(t, emb, m.Encoder.WordEmb.Weight)
	assert.InDelta(t, 1/math.Sqrt(8), float64(m.LogitScale()), 1e-7)

	m.Projection.Weight().Tensor().Set(42, 5, 3)
	assert.Equal(t, float32(42), m.Encoder.WordEmb.Weight.Tensor().At(5, 3))

	s := m.Summary()
	assert.True(t, s.TgtEmbPrjShared)
	assert.True(t, s.SrcTgtEmbShared)
}

func TestSeq2Seq_Untied(t *testing.T) {
	tied := newTestModel(t, smallConfig())

	cfg := smallConfig()
	cfg.TieTgtEmbPrj = false
	cfg.TieSrcTgtEmb = false
	m := newTestModel(t, cfg)

	assert.NotSame(t, m.Decoder.WordEmb.Weight, m.Projection.Weight())
	assert.NotSame(t, m.Decoder.WordEmb.Weight, m.Encoder.WordEmb.Weight)
	assert.Equal(t, float32(1), m.LogitScale())
	assert.Equal(t, tied.NumParameters()+2*12*8, m.NumParameters())

	s := m.Summary()
	assert.False(t, s.TgtEmbPrjShared)
	assert.False(t, s.SrcTgtEmbShared)
}

func TestSeq2Seq_ParametersUnique(t *testing.T) {
	m := newTestModel(t, smallConfig())

	seen := make(map[*nn.Parameter[testBackend]]bool)
	total := 0
	for _, p := range m.Parameters() {
		require.False(t, seen[p], "parameter %s listed twice", p.Name())
		seen[p] = true
		total += p.Tensor().NumElements()
	}
	assert.Equal(t, total, m.NumParameters())

	// Two frozen [max_seq_len+1, d_word_vec] position tables.
	assert.Equal(t, m.NumParameters()-2*11*8, m.NumTrainableParameters())

	s := m.Summary()
	assert.Equal(t, m.NumParameters(), s.Parameters)
	assert.Equal(t, 12, s.VocabSize)
	assert.Len(t, s.Components, 4)
}

func TestSeq2Seq_DropsLastTarget(t *testing.T) {
	m := newTestModel(t, smallConfig())
	b := cpu.New()
	src := ids(b, []int32{2, 5, 3})

	m.ResetSession(1)
	a := m.Forward(src, Positions(src), ids(b, []int32{2, 6, 7}), Positions(ids(b, []int32{2, 6, 7})))
	m.ResetSession(1)
	c := m.Forward(src, Positions(src), ids(b, []int32{2, 6, 9}), Positions(ids(b, []int32{2, 6, 9})))

	assert.Equal(t, tensor.Shape{2, 12}, a.Shape())
	assert.Equal(t, a.Data(), c.Data(), "the final target token is never read")
}

func TestSeq2Seq_SessionAcrossTurns(t *testing.T) {
	m := newTestModel(t, smallConfig())
	batch := testBatch(t, cpu.New())

	m.ResetSession(2)
	first := m.Forward(batch.Src, batch.SrcPos, batch.Tgt, batch.TgtPos)
	second := m.Forward(batch.Src, batch.SrcPos, batch.Tgt, batch.TgtPos)
	assert.NotEqual(t, first.Data(), second.Data())

	m.ResetSession(2)
	assert.Equal(t, first.Data(), m.Forward(batch.Src, batch.SrcPos, batch.Tgt, batch.TgtPos).Data())
}

func TestSeq2Seq_TrainingMode(t *testing.T) {
	m := newTestModel(t, smallConfig())
	batch := testBatch(t, cpu.New())
	assert.False(t, m.Training())

	m.Train(true)
	require.True(t, m.Training())
	m.ResetSession(2)
	a := m.Forward(batch.Src, batch.SrcPos, batch.Tgt, batch.TgtPos)
	m.ResetSession(2)
	b := m.Forward(batch.Src, batch.SrcPos, batch.Tgt, batch.TgtPos)
	assert.NotEqual(t, a.Data(), b.Data(), "dropout is active")

	m.Train(false)
	m.ResetSession(2)
	a = m.Forward(batch.Src, batch.SrcPos, batch.Tgt, batch.TgtPos)
	m.ResetSession(2)
	b = m.Forward(batch.Src, batch.SrcPos, batch.Tgt, batch.TgtPos)
	assert.Equal(t, a.Data(), b.Data())
}

func TestSeq2Seq_AllPadSource(t *testing.T) {
	m := newTestModel(t, smallConfig())
	batch, err := NewBatch([][]int32{{2, 5, 3}, {0, 0, 0}}, [][]int32{{2, 6, 3}, {2, 7, 3}}, cpu.New())
	require.NoError(t, err)

	m.ResetSession(2)
	requireFinite(t, m.Forward(batch.Src, batch.SrcPos, batch.Tgt, batch.TgtPos).Data())
}

func TestSeq2Seq_ForwardPanics(t *testing.T) {
	m := newTestModel(t, smallConfig())
	b := cpu.New()
	batch := testBatch(t, b)

	assert.Panics(t, func() { m.Forward(batch.Src, batch.SrcPos, batch.Tgt, batch.TgtPos) }, "no reset")

	m.ResetSession(2)
	short := ids(b, []int32{2}, []int32{2})
	assert.Panics(t, func() { m.Forward(batch.Src, batch.SrcPos, short, Positions(short)) })
	assert.Panics(t, func() { m.Forward(batch.Src, batch.TgtPos, batch.Tgt, batch.TgtPos) })
}

func TestNew_ConfigErrors(t *testing.T) {
	b := cpu.New()

	cfg := smallConfig()
	cfg.DModel = 16
	_, err := New(cfg, b)
	assert.ErrorIs(t, err, ErrDimMismatch)

	cfg = smallConfig()
	cfg.SrcVocabSize = 30
	_, err = New(cfg, b)
	assert.ErrorIs(t, err, ErrVocabMismatch)
}

func TestNew_Logger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	nn.SetSeed(1)
	_, err := New(smallConfig(), cpu.New(), WithLogger(zap.New(core)))
	require.NoError(t, err)

	entries := logs.FilterMessage("seq2seq model constructed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(12), entries[0].ContextMap()["vocab"])
}

// writeNPY writes a little-endian float32 matrix in NPY v1 format.
func writeNPY(t *testing.T, rows, cols int, data []float32) string {
	t.Helper()
	header := fmt.Sprintf("{'descr': '<f4', 'fortran_order': False, 'shape': (%d, %d), }", rows, cols)
	for (10+len(header)+1)%64 != 0 {
		header += " "
	}
	header += "\n"

	var buf bytes.Buffer
	buf.WriteString("\x93NUMPY\x01\x00")
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(len(header))))
	buf.WriteString(header)
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, data))

	path := filepath.Join(t.TempDir(), "emb.npy")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func TestNew_PretrainedEmbedding(t *testing.T) {
	rows := 15
	data := make([]float32, rows*8)
	for i := range data {
		data[i] = float32(i) / 100
	}
	path := writeNPY(t, rows, 8, data)

	cfg := smallConfig()
	cfg.SrcEmbFile, cfg.TgtEmbFile = path, path
	m := newTestModel(t, cfg)

	assert.Equal(t, rows, m.VocabSize(), "table rows define the vocabulary")
	assert.Equal(t, data, m.Decoder.WordEmb.Weight.Tensor().Data())
	assert.Same(t, m.Decoder.WordEmb.Weight, m.Encoder.WordEmb.Weight)

	src, tgt := m.EmbeddingTables()
	require.NotNil(t, src)
	require.NotNil(t, tgt)
	assert.Equal(t, src.Fingerprint, tgt.Fingerprint)
	assert.Contains(t, m.Summary().Embeddings, "target")

	batch := testBatch(t, cpu.New())
	m.ResetSession(2)
	assert.Equal(t, tensor.Shape{6, rows}, m.Forward(batch.Src, batch.SrcPos, batch.Tgt, batch.TgtPos).Shape())
}

func TestNew_PretrainedEmbeddingErrors(t *testing.T) {
	b := cpu.New()

	cfg := smallConfig()
	cfg.TgtEmbFile = writeNPY(t, 12, 5, make([]float32, 60))
	_, err := New(cfg, b)
	assert.ErrorIs(t, err, ErrEmbeddingFile)
	assert.ErrorIs(t, err, ErrDimMismatch)

	cfg = smallConfig()
	cfg.TgtEmbFile = filepath.Join(t.TempDir(), "missing.npy")
	_, err = New(cfg, b)
	assert.ErrorIs(t, err, ErrEmbeddingFile)

	cfg = smallConfig()
	cfg.TgtEmbFile = writeNPY(t, 15, 8, make([]float32, 120))
	_, err = New(cfg, b)
	assert.ErrorIs(t, err, ErrVocabMismatch, "15-row target table cannot share with a 12-row source")
}
