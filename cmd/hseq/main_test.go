package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/hseq/seq2seq"
)

const testConfig = `
src_vocab_size: 16
tgt_vocab_size: 16
max_seq_len: 12
d_word_vec: 8
d_model: 8
d_inner: 16
d_hidden: 8
n_layers: 1
n_head: 2
d_k: 4
d_v: 4
seed: 3
log_level: error
`

const testDialogue = `{
  "turns": [
    {"src": [[2, 5, 6, 3], [2, 7, 3]], "tgt": [[2, 8, 9, 3], [2, 10, 3]]},
    {"src": [[2, 11, 3], [2, 12, 13, 3]], "tgt": [[2, 14, 3], [2, 15, 3]]}
  ]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) ([]byte, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	err := app.Run(context.Background(), append([]string{"hseq"}, args...))
	return out.Bytes(), err
}

func TestForwardCommand(t *testing.T) {
	cfg := writeFile(t, "model.yaml", testConfig)
	dialogue := writeFile(t, "dialogue.json", testDialogue)

	out, err := run(t, "forward", "--config", cfg, "--batch", dialogue, "--no-progress")
	require.NoError(t, err)

	var report forwardReport
	require.NoError(t, json.Unmarshal(out, &report))
	assert.Equal(t, 2, report.Batch)
	assert.False(t, report.MMI)
	assert.NotEmpty(t, report.RunID)
	assert.NotEmpty(t, report.SessionID)
	require.Len(t, report.Turns, 2)

	assert.Equal(t, 2*3, report.Turns[0].Rows)
	assert.Equal(t, 2*2, report.Turns[1].Rows)
	assert.Equal(t, 16, report.Turns[0].Vocab)
	assert.Len(t, report.Turns[0].Argmax, 4)
	for _, id := range report.Turns[0].Argmax {
		assert.Less(t, id, 16)
	}
}

func TestForwardCommand_MMI(t *testing.T) {
	cfg := writeFile(t, "model.yaml", testConfig)
	dialogue := writeFile(t, "dialogue.json", testDialogue)

	out, err := run(t, "forward", "--config", cfg, "--batch", dialogue, "--mmi", "0.5", "--rows", "100", "--no-progress")
	require.NoError(t, err)

	var report forwardReport
	require.NoError(t, json.Unmarshal(out, &report))
	assert.True(t, report.MMI)
	assert.Equal(t, 2*2*3, report.Turns[0].Rows)
	assert.Len(t, report.Turns[0].Argmax, 12, "capped at the row count")
}

func TestForwardCommand_BadDialogue(t *testing.T) {
	cfg := writeFile(t, "model.yaml", testConfig)

	tests := []struct {
		name     string
		dialogue string
	}{
		{"NoTurns", `{"turns": []}`},
		{"BatchChanges", `{"turns": [
			{"src": [[2, 3]], "tgt": [[2, 3]]},
			{"src": [[2, 3], [2, 3]], "tgt": [[2, 3], [2, 3]]}
		]}`},
		{"ShortTarget", `{"turns": [{"src": [[2, 3]], "tgt": [[2]]}]}`},
		{"Malformed", `{"turns": [`},
		{"SourceIDOutOfVocab", `{"turns": [{"src": [[2, 50, 3]], "tgt": [[2, 5, 3]]}]}`},
		{"TargetIDOutOfVocab", `{"turns": [{"src": [[2, 5, 3]], "tgt": [[2, 16, 3]]}]}`},
		{"SourceTooLong", `{"turns": [{"src": [[2, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 3]], "tgt": [[2, 5, 3]]}]}`},
		{"TargetTooLong", `{"turns": [{"src": [[2, 5, 3]], "tgt": [[2, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 3]]}]}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, "dialogue.json", tc.dialogue)
			_, err := run(t, "forward", "--config", cfg, "--batch", path, "--no-progress")
			assert.ErrorIs(t, err, errDialogue)
		})
	}
}

func TestForwardCommand_NegativeRows(t *testing.T) {
	cfg := writeFile(t, "model.yaml", testConfig)
	dialogue := writeFile(t, "dialogue.json", testDialogue)

	_, err := run(t, "forward", "--config", cfg, "--batch", dialogue, "--rows=-1", "--no-progress")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--rows")
}

func TestInspectCommand(t *testing.T) {
	cfg := writeFile(t, "model.yaml", testConfig)

	out, err := run(t, "inspect", "--config", cfg, "--vocab", "20", "--n-layers", "2")
	require.NoError(t, err)

	var report inspectReport
	require.NoError(t, json.Unmarshal(out, &report))
	assert.Equal(t, 20, report.Config.SrcVocabSize, "flags override the file")
	assert.Equal(t, 2, report.Config.NLayers)
	assert.Equal(t, 12, report.Config.MaxSeqLen)
	assert.Equal(t, 20, report.Summary.VocabSize)
	assert.True(t, report.Summary.TgtEmbPrjShared)
	assert.Positive(t, report.Summary.Parameters)
}

func TestInspectCommand_InvalidConfig(t *testing.T) {
	cfg := writeFile(t, "model.yaml", strings.Replace(testConfig, "d_model: 8", "d_model: 16", 1))
	_, err := run(t, "inspect", "--config", cfg)
	assert.ErrorIs(t, err, seq2seq.ErrDimMismatch)
}

func TestLoadConfig(t *testing.T) {
	fc, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 512, fc.DModel)
	assert.Nil(t, fc.Seed)

	fc, err = loadConfig(writeFile(t, "model.yaml", testConfig))
	require.NoError(t, err)
	assert.Equal(t, 8, fc.DModel)
	require.NotNil(t, fc.Seed)
	assert.Equal(t, int64(3), *fc.Seed)
	assert.Equal(t, "error", fc.LogLevel)
	assert.True(t, fc.TieSrcTgtEmb, "unset keys keep defaults")

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		logger, err := newLogger("warn", format, false)
		require.NoError(t, err)
		assert.False(t, logger.Core().Enabled(-1), "debug disabled at warn")
	}

	logger, err := newLogger("warn", "json", true)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))

	_, err = newLogger("loud", "json", false)
	assert.Error(t, err)
	_, err = newLogger("info", "xml", false)
	assert.Error(t, err)
}

func TestArgmaxRows(t *testing.T) {
	data := []float32{
		0.1, 0.9, -1,
		3, 2, 1,
		-5, -4, -3,
	}
	idx, best := argmaxRows(data, 3, 3)
	assert.Equal(t, []int{1, 0, 2}, idx)
	assert.Equal(t, float32(3), best)

	idx, _ = argmaxRows(data, 3, 0)
	assert.Empty(t, idx)
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, string(out), version)
}
