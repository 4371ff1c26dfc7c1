package main

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/born-ml/hseq/seq2seq"
)

type inspectReport struct {
	Config  seq2seq.Config  `json:"config"`
	Summary seq2seq.Summary `json:"summary"`
}

func inspectCmd() *cli.Command {
	f := &modelFlags{}
	return &cli.Command{
		Name:  "inspect",
		Usage: "Build the model and print its structure as JSON",
		Flags: f.flags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			model, logger, err := buildModel(cmd, f)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			enc := json.NewEncoder(cmd.Root().Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(inspectReport{Config: model.Config(), Summary: model.Summary()})
		},
	}
}
