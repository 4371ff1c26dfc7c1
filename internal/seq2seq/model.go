package seq2seq

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/born-ml/hseq/internal/loader"
	"github.com/born-ml/hseq/internal/nn"
	"github.com/born-ml/hseq/internal/tensor"
)

// Seq2Seq wires encoder, session, decoder and the output projection.
//
// Forward drops the last target token, encodes the source, advances the
// session, decodes, and returns unnormalized logits flattened to
// [batch*(tgt_len-1), vocab]. With MMIFactor > 0 the decoder also runs
// against the session-free encoder output, doubling the rows.
//
// Example:
//
//	cfg := seq2seq.DefaultConfig(vocab, vocab, 64)
//	model, err := seq2seq.New(cfg, cpu.New(), seq2seq.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	model.ResetSession(batch.Size())
//	logits := model.Forward(batch.Src, batch.SrcPos, batch.Tgt, batch.TgtPos)
type Seq2Seq[B tensor.Backend] struct {
	Encoder    *Encoder[B]
	Session    *Session[B]
	Decoder    *Decoder[B]
	Projection *nn.Linear[B] // [d_model] -> [vocab], no bias

	cfg        Config
	logitScale float32
	training   bool
	srcTable   *loader.Table
	tgtTable   *loader.Table
	logger     *zap.Logger
}

// Attentions collects the attention weights of one forward pass.
type Attentions[B tensor.Backend] struct {
	Encoder      []*tensor.Tensor[float32, B] // per layer [batch, n_head, src_len, src_len]
	Session      *tensor.Tensor[float32, B]   // [batch, 1, src_len]
	DecoderSelf  []*tensor.Tensor[float32, B] // per layer [batch', n_head, tgt_len-1, tgt_len-1]
	DecoderCross []*tensor.Tensor[float32, B] // per layer [batch', n_head, tgt_len-1, src_len]
}

// New validates cfg, loads any pretrained tables, builds the model and
// applies weight sharing. The model starts in evaluation mode.
func New[B tensor.Backend](cfg Config, backend B, opts ...Option) (*Seq2Seq[B], error) {
	o := buildOptions(opts)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("seq2seq config: %w", err)
	}

	tgtEmb, tgtTable, err := buildWordEmbedding(cfg, "target", cfg.TgtVocabSize, cfg.TgtEmbFile, backend)
	if err != nil {
		return nil, err
	}
	srcEmb, srcTable, err := buildWordEmbedding(cfg, "source", cfg.SrcVocabSize, cfg.SrcEmbFile, backend)
	if err != nil {
		return nil, err
	}

	m := &Seq2Seq[B]{
		Encoder:    NewEncoder(cfg, srcEmb, backend),
		Session:    NewSession(cfg.DModel, cfg.DHidden, cfg.Dropout, backend),
		Decoder:    NewDecoder(cfg, tgtEmb, backend),
		Projection: nn.NewLinearWithInit(cfg.DModel, tgtEmb.NumEmbed, false, nn.XavierNormal[B], backend),
		cfg:        cfg,
		logitScale: 1,
		srcTable:   srcTable,
		tgtTable:   tgtTable,
		logger:     o.logger,
	}

	if cfg.TieTgtEmbPrj {
		m.Projection.TieWeight(m.Decoder.WordEmb.Weight)
		m.logitScale = float32(1 / math.Sqrt(float64(cfg.DModel)))
	}
	if cfg.TieSrcTgtEmb {
		src, tgt := m.Encoder.WordEmb.Weight.Shape(), m.Decoder.WordEmb.Weight.Shape()
		if !src.Equal(tgt) {
			return nil, fmt.Errorf("%w: cannot share source table %v with target table %v", ErrVocabMismatch, src, tgt)
		}
		m.Encoder.WordEmb.TieWeight(m.Decoder.WordEmb.Weight)
	}

	m.logConstruction()
	return m, nil
}

func buildWordEmbedding[B tensor.Backend](cfg Config, side string, vocab int, path string, backend B) (*nn.Embedding[B], *loader.Table, error) {
	if path == "" {
		return nn.NewEmbedding(vocab, cfg.DWordVec, int(PAD), backend), nil, nil
	}

	table, err := loader.LoadEmbedding(path, cfg.EmbeddingTensor)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrEmbeddingFile, side, err)
	}
	if table.Dim != cfg.DWordVec {
		return nil, nil, fmt.Errorf("%w: %s table %s is %dx%d, want width d_word_vec=%d: %w",
			ErrEmbeddingFile, side, path, table.Rows, table.Dim, cfg.DWordVec, ErrDimMismatch)
	}

	weight := tensor.MustFromSlice(table.Data, tensor.Shape{table.Rows, table.Dim}, backend)
	return nn.NewEmbeddingFromPretrained(weight, false), table, nil
}

func (m *Seq2Seq[B]) logConstruction() {
	fields := []zap.Field{
		zap.Int("parameters", m.NumParameters()),
		zap.Int("vocab", m.VocabSize()),
		zap.Int("d_model", m.cfg.DModel),
		zap.Int("n_layers", m.cfg.NLayers),
		zap.Bool("tgt_emb_prj_shared", m.cfg.TieTgtEmbPrj),
		zap.Bool("src_tgt_emb_shared", m.cfg.TieSrcTgtEmb),
		zap.Float32("logit_scale", m.logitScale),
		zap.Float64("mmi_factor", m.cfg.MMIFactor),
	}
	for _, t := range []struct {
		side  string
		table *loader.Table
	}{{"source", m.srcTable}, {"target", m.tgtTable}} {
		if t.table == nil {
			continue
		}
		m.logger.Debug("pretrained embedding loaded",
			zap.String("side", t.side),
			zap.String("source", t.table.Source),
			zap.Int("rows", t.table.Rows),
			zap.Int("dim", t.table.Dim),
			zap.String("fingerprint", fmt.Sprintf("%016x", t.table.Fingerprint)),
		)
	}
	m.logger.Info("seq2seq model constructed", fields...)
}

// ResetSession zeroes the session state for a new dialogue of batch rows
// and returns the new session id.
func (m *Seq2Seq[B]) ResetSession(batch int) uuid.UUID {
	return m.Session.Reset(batch)
}

// Forward computes flattened logits [rows, vocab] without softmax, where
// rows = batch*(tgt_len-1), doubled when MMIFactor > 0.
//
// src and srcPos are [batch, src_len]; tgt and tgtPos are [batch, tgt_len]
// with tgt_len >= 2. The session must have been reset for this batch size.
// Shape violations panic.
func (m *Seq2Seq[B]) Forward(src, srcPos, tgt, tgtPos *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	logits, _ := m.ForwardWithAttention(src, srcPos, tgt, tgtPos)
	return logits
}

// ForwardWithAttention is Forward that also returns every attention map.
func (m *Seq2Seq[B]) ForwardWithAttention(src, srcPos, tgt, tgtPos *tensor.Tensor[int32, B]) (*tensor.Tensor[float32, B], *Attentions[B]) {
	checkInputs(src, srcPos, tgt, tgtPos)

	n := tgt.Dim(1) - 1
	tgt, tgtPos = tgt.Narrow(1, 0, n), tgtPos.Narrow(1, 0, n)

	enc, encAttn := m.Encoder.Forward(src, srcPos)
	ses, sesAttn := m.Session.Forward(enc, src)

	memory, decSrc := ses, src
	if m.cfg.MMIFactor > 0 {
		// Session-infused rows first, then the session-free rows. The
		// encoder output is already zero at PAD positions.
		memory = tensor.Cat([]*tensor.Tensor[float32, B]{ses, enc}, 0)
		decSrc = tensor.Cat([]*tensor.Tensor[int32, B]{src, src}, 0)
		tgt = tensor.Cat([]*tensor.Tensor[int32, B]{tgt, tgt}, 0)
		tgtPos = tensor.Cat([]*tensor.Tensor[int32, B]{tgtPos, tgtPos}, 0)
	}

	dec := m.Decoder.Forward(tgt, tgtPos, decSrc, memory)
	logits := m.Projection.Forward(dec.Output)
	if m.logitScale != 1 {
		logits = logits.MulScalar(m.logitScale)
	}

	return logits.Reshape(-1, m.VocabSize()), &Attentions[B]{
		Encoder:      encAttn,
		Session:      sesAttn,
		DecoderSelf:  dec.SelfAttn,
		DecoderCross: dec.EncAttn,
	}
}

func checkInputs[B tensor.Backend](src, srcPos, tgt, tgtPos *tensor.Tensor[int32, B]) {
	for _, t := range []*tensor.Tensor[int32, B]{src, srcPos, tgt, tgtPos} {
		if len(t.Shape()) != 2 {
			panic(fmt.Sprintf("Seq2Seq.Forward: inputs must be [batch, len], got %v", t.Shape()))
		}
	}
	if !src.Shape().Equal(srcPos.Shape()) || !tgt.Shape().Equal(tgtPos.Shape()) {
		panic(fmt.Sprintf("Seq2Seq.Forward: positions must match tokens: src %v/%v tgt %v/%v",
			src.Shape(), srcPos.Shape(), tgt.Shape(), tgtPos.Shape()))
	}
	if src.Dim(0) != tgt.Dim(0) {
		panic(fmt.Sprintf("Seq2Seq.Forward: source batch %d != target batch %d", src.Dim(0), tgt.Dim(0)))
	}
	if tgt.Dim(1) < 2 {
		panic(fmt.Sprintf("Seq2Seq.Forward: target length must be at least 2, got %d", tgt.Dim(1)))
	}
}

// Train switches dropout on (true) or off (false) in every layer.
func (m *Seq2Seq[B]) Train(training bool) {
	m.training = training
	nn.SetTraining(training, m.Encoder, m.Session, m.Decoder)
}

// Training reports whether the model is in training mode.
func (m *Seq2Seq[B]) Training() bool {
	return m.training
}

// Parameters returns every parameter once, even when tied.
func (m *Seq2Seq[B]) Parameters() []*nn.Parameter[B] {
	return nn.CollectParameters[B](m.Encoder, m.Session, m.Decoder, m.Projection)
}

// NumParameters counts scalar values over Parameters, including the frozen
// position tables.
func (m *Seq2Seq[B]) NumParameters() int {
	return nn.CountParameters(m.Parameters())
}

// NumTrainableParameters is NumParameters without frozen parameters.
func (m *Seq2Seq[B]) NumTrainableParameters() int {
	n := 0
	for _, p := range m.Parameters() {
		if !p.Frozen() {
			n += p.Tensor().NumElements()
		}
	}
	return n
}

// Config returns the configuration the model was built from.
func (m *Seq2Seq[B]) Config() Config {
	return m.cfg
}

// LogitScale returns 1/sqrt(d_model) with projection sharing, else 1.
func (m *Seq2Seq[B]) LogitScale() float32 {
	return m.logitScale
}

// MMIFactor returns the configured MMI blending factor.
func (m *Seq2Seq[B]) MMIFactor() float64 {
	return m.cfg.MMIFactor
}

// VocabSize returns the number of output logits per row.
func (m *Seq2Seq[B]) VocabSize() int {
	return m.Projection.OutFeatures()
}

// EmbeddingTables returns the pretrained source and target tables, nil
// where the embedding was randomly initialized.
func (m *Seq2Seq[B]) EmbeddingTables() (src, tgt *loader.Table) {
	return m.srcTable, m.tgtTable
}
