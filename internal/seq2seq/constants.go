package seq2seq

// Reserved token ids shared by source and target vocabularies.
const (
	PAD int32 = 0
	UNK int32 = 1
	BOS int32 = 2
	EOS int32 = 3
)

// Words for the reserved ids.
const (
	PADWord = "<blank>"
	UNKWord = "<unk>"
	BOSWord = "<s>"
	EOSWord = "</s>"
)
