package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/born-ml/hseq/seq2seq"
)

// fileConfig is the YAML config file. Model keys sit at the top level next
// to the CLI settings.
type fileConfig struct {
	seq2seq.Config `yaml:",inline"`

	Seed      *int64 `yaml:"seed"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// loadConfig reads path over the model defaults. An empty path yields the
// defaults alone.
func loadConfig(path string) (fileConfig, error) {
	cfg := fileConfig{Config: seq2seq.DefaultConfig(0, 0, 0)}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// resolveModelConfig applies flags that were explicitly set over the file.
// A max_seq_len missing from the file takes the flag default.
func resolveModelConfig(c *cli.Command, f *modelFlags) (seq2seq.Config, int64, error) {
	fc, err := loadConfig(f.configPath)
	if err != nil {
		return seq2seq.Config{}, 0, err
	}
	cfg := fc.Config

	if c.IsSet("vocab") {
		cfg.SrcVocabSize, cfg.TgtVocabSize = f.vocab, f.vocab
	}
	if c.IsSet("max-seq-len") || cfg.MaxSeqLen == 0 {
		cfg.MaxSeqLen = f.maxSeqLen
	}
	if c.IsSet("n-layers") {
		cfg.NLayers = f.nLayers
	}
	if c.IsSet("mmi") {
		cfg.MMIFactor = f.mmi
	}

	seed := f.seed
	if fc.Seed != nil && !c.IsSet("seed") {
		seed = *fc.Seed
	}
	if fc.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = fc.LogLevel
	}
	if fc.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = fc.LogFormat
	}
	return cfg, seed, nil
}
