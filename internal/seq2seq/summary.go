package seq2seq

import (
	"fmt"

	"github.com/born-ml/hseq/internal/nn"
	"github.com/born-ml/hseq/internal/tensor"
)

// Summary describes a built model: sizes, sharing and parameter counts.
type Summary struct {
	Parameters          int               `json:"parameters"`
	TrainableParameters int               `json:"trainable_parameters"`
	Components          map[string]int    `json:"components"`
	VocabSize           int               `json:"vocab_size"`
	DModel              int               `json:"d_model"`
	DHidden             int               `json:"d_hidden"`
	NLayers             int               `json:"n_layers"`
	NHead               int               `json:"n_head"`
	TgtEmbPrjShared     bool              `json:"tgt_emb_prj_shared"`
	SrcTgtEmbShared     bool              `json:"src_tgt_emb_shared"`
	LogitScale          float32           `json:"logit_scale"`
	MMIFactor           float64           `json:"mmi_factor"`
	Embeddings          map[string]string `json:"embeddings,omitempty"`
}

// Summary reports the model's structure. Shared flags reflect the actual
// tensor identity, not just the config.
func (m *Seq2Seq[B]) Summary() Summary {
	s := Summary{
		Parameters:          m.NumParameters(),
		TrainableParameters: m.NumTrainableParameters(),
		Components: map[string]int{
			"encoder":    countOf[B](m.Encoder),
			"session":    countOf[B](m.Session),
			"decoder":    countOf[B](m.Decoder),
			"projection": countOf[B](m.Projection),
		},
		VocabSize:       m.VocabSize(),
		DModel:          m.cfg.DModel,
		DHidden:         m.cfg.DHidden,
		NLayers:         m.cfg.NLayers,
		NHead:           m.cfg.NHead,
		TgtEmbPrjShared: m.Projection.Weight() == m.Decoder.WordEmb.Weight,
		SrcTgtEmbShared: m.Encoder.WordEmb.Weight == m.Decoder.WordEmb.Weight,
		LogitScale:      m.logitScale,
		MMIFactor:       m.cfg.MMIFactor,
	}
	if m.srcTable != nil || m.tgtTable != nil {
		s.Embeddings = make(map[string]string)
		if m.srcTable != nil {
			s.Embeddings["source"] = fmt.Sprintf("%s (%016x)", m.srcTable.Source, m.srcTable.Fingerprint)
		}
		if m.tgtTable != nil {
			s.Embeddings["target"] = fmt.Sprintf("%s (%016x)", m.tgtTable.Source, m.tgtTable.Fingerprint)
		}
	}
	return s
}

func countOf[B tensor.Backend](mod nn.Module[B]) int {
	return nn.CountParameters(nn.CollectParameters(mod))
}
