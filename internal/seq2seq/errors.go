package seq2seq

import "errors"

// Construction errors returned (wrapped) by New and Config.Validate.
var (
	// ErrDimMismatch reports incompatible model dimensions, such as
	// d_model != d_word_vec or a pretrained table of the wrong width.
	ErrDimMismatch = errors.New("dimension mismatch")

	// ErrVocabMismatch reports that source/target embedding sharing was
	// requested for vocabularies of different sizes.
	ErrVocabMismatch = errors.New("vocabulary size mismatch")

	// ErrInvalidConfig reports a non-positive size or out-of-range rate.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrEmbeddingFile reports a pretrained embedding file that could not be used.
	ErrEmbeddingFile = errors.New("embedding file")

	// ErrInvalidBatch reports token sequences that cannot form a batch.
	ErrInvalidBatch = errors.New("invalid batch")
)
