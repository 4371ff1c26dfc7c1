// Package main provides the hseq CLI: build a hierarchical seq2seq model
// from a YAML config and run it over multi-turn dialogue batches.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "hseq",
		Usage: "Hierarchical seq2seq dialogue model",
		Flags: loggingFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			forwardCmd(),
			inspectCmd(),
			versionCmd(),
		},
	}
}
