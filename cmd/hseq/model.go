package main

import (
	"fmt"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/born-ml/hseq/backend/cpu"
	"github.com/born-ml/hseq/nn"
	"github.com/born-ml/hseq/seq2seq"
)

type cpuModel = seq2seq.Model[*cpu.Backend]

// buildModel resolves the config, creates the logger and constructs the
// model on the CPU backend. The caller owns the returned logger.
func buildModel(c *cli.Command, f *modelFlags) (*cpuModel, *zap.Logger, error) {
	cfg, seed, err := resolveModelConfig(c, f)
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(logLevel, logFormat, debugLog)
	if err != nil {
		return nil, nil, err
	}

	nn.SetSeed(seed)
	model, err := seq2seq.New(cfg, cpu.New(), seq2seq.WithLogger(logger))
	if err != nil {
		_ = logger.Sync()
		return nil, nil, fmt.Errorf("build model: %w", err)
	}
	return model, logger, nil
}
