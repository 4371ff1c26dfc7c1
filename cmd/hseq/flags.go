package main

import "github.com/urfave/cli/v3"

var (
	logLevel  string
	logFormat string
	debugLog  bool
)

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (console, json)",
			Value:       "console",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debugLog,
		},
	}
}

// modelFlags are shared by every command that builds a model.
type modelFlags struct {
	configPath string
	vocab      int
	maxSeqLen  int
	nLayers    int
	mmi        float64
	seed       int64
}

func (f *modelFlags) flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "path to the model YAML config",
			Destination: &f.configPath,
		},
		&cli.IntFlag{
			Name:        "vocab",
			Usage:       "source and target vocabulary size",
			Destination: &f.vocab,
		},
		&cli.IntFlag{
			Name:        "max-seq-len",
			Usage:       "maximum sequence length",
			Value:       64,
			Destination: &f.maxSeqLen,
		},
		&cli.IntFlag{
			Name:        "n-layers",
			Usage:       "encoder and decoder depth",
			Destination: &f.nLayers,
		},
		&cli.Float64Flag{
			Name:        "mmi",
			Usage:       "MMI factor; > 0 doubles the decoder batch",
			Destination: &f.mmi,
		},
		&cli.Int64Flag{
			Name:        "seed",
			Usage:       "weight initialization seed",
			Value:       1,
			Destination: &f.seed,
		},
	}
}
