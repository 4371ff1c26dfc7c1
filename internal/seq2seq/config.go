package seq2seq

import (
	"errors"
	"fmt"
)

// Config holds the hyperparameters of a Seq2Seq model.
type Config struct {
	SrcVocabSize int `yaml:"src_vocab_size" json:"src_vocab_size"`
	TgtVocabSize int `yaml:"tgt_vocab_size" json:"tgt_vocab_size"`
	MaxSeqLen    int `yaml:"max_seq_len" json:"max_seq_len"`

	DWordVec int `yaml:"d_word_vec" json:"d_word_vec"`
	DModel   int `yaml:"d_model" json:"d_model"`
	DInner   int `yaml:"d_inner" json:"d_inner"`
	DHidden  int `yaml:"d_hidden" json:"d_hidden"`
	NLayers  int `yaml:"n_layers" json:"n_layers"`
	NHead    int `yaml:"n_head" json:"n_head"`
	DK       int `yaml:"d_k" json:"d_k"`
	DV       int `yaml:"d_v" json:"d_v"`

	Dropout float64 `yaml:"dropout" json:"dropout"`

	// TieTgtEmbPrj shares the target embedding with the output projection
	// and scales logits by 1/sqrt(d_model).
	TieTgtEmbPrj bool `yaml:"tgt_emb_prj_weight_sharing" json:"tgt_emb_prj_weight_sharing"`
	// TieSrcTgtEmb shares one table between source and target embeddings.
	TieSrcTgtEmb bool `yaml:"emb_src_tgt_weight_sharing" json:"emb_src_tgt_weight_sharing"`

	// MMIFactor > 0 enables the doubled-batch forward pass.
	MMIFactor float64 `yaml:"mmi_factor" json:"mmi_factor"`

	// Optional pretrained tables (.npy or .safetensors).
	SrcEmbFile string `yaml:"src_emb_file,omitempty" json:"src_emb_file,omitempty"`
	TgtEmbFile string `yaml:"tgt_emb_file,omitempty" json:"tgt_emb_file,omitempty"`
	// EmbeddingTensor names the tensor inside SafeTensors embedding files.
	EmbeddingTensor string `yaml:"embedding_tensor,omitempty" json:"embedding_tensor,omitempty"`
}

// DefaultConfig returns the reference hyperparameters for the given
// vocabulary sizes and maximum sequence length.
func DefaultConfig(srcVocab, tgtVocab, maxSeqLen int) Config {
	return Config{
		SrcVocabSize: srcVocab,
		TgtVocabSize: tgtVocab,
		MaxSeqLen:    maxSeqLen,
		DWordVec:     512,
		DModel:       512,
		DInner:       2048,
		DHidden:      512,
		NLayers:      6,
		NHead:        8,
		DK:           64,
		DV:           64,
		Dropout:      0.1,
		TieTgtEmbPrj: true,
		TieSrcTgtEmb: true,
	}
}

// Validate reports every problem with c, joined. Vocabulary sizes of
// pretrained tables are checked again once the files are read.
func (c Config) Validate() error {
	var errs []error
	positive := []struct {
		name  string
		value int
	}{
		{"src_vocab_size", c.SrcVocabSize},
		{"tgt_vocab_size", c.TgtVocabSize},
		{"max_seq_len", c.MaxSeqLen},
		{"d_word_vec", c.DWordVec},
		{"d_model", c.DModel},
		{"d_inner", c.DInner},
		{"d_hidden", c.DHidden},
		{"n_layers", c.NLayers},
		{"n_head", c.NHead},
		{"d_k", c.DK},
		{"d_v", c.DV},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errs = append(errs, fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidConfig, p.name, p.value))
		}
	}
	if c.Dropout < 0 || c.Dropout >= 1 {
		errs = append(errs, fmt.Errorf("%w: dropout must be in [0, 1), got %v", ErrInvalidConfig, c.Dropout))
	}
	if c.MMIFactor < 0 {
		errs = append(errs, fmt.Errorf("%w: mmi_factor must be >= 0, got %v", ErrInvalidConfig, c.MMIFactor))
	}
	if c.DModel != c.DWordVec {
		errs = append(errs, fmt.Errorf("%w: d_model (%d) must equal d_word_vec (%d) for the residual connections",
			ErrDimMismatch, c.DModel, c.DWordVec))
	}
	if c.TieSrcTgtEmb && c.SrcVocabSize != c.TgtVocabSize {
		errs = append(errs, fmt.Errorf("%w: sharing source/target embeddings needs equal vocabularies, got %d and %d",
			ErrVocabMismatch, c.SrcVocabSize, c.TgtVocabSize))
	}
	return errors.Join(errs...)
}
