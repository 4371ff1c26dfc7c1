package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/born-ml/hseq/backend/cpu"
	"github.com/born-ml/hseq/internal/parallel"
	"github.com/born-ml/hseq/seq2seq"
)

var errDialogue = errors.New("dialogue")

// dialogueFile is the JSON input of forward: one batch of aligned
// conversations, turn by turn. Every turn must have the same batch size.
type dialogueFile struct {
	Turns []struct {
		Src [][]int32 `json:"src"`
		Tgt [][]int32 `json:"tgt"`
	} `json:"turns"`
}

type turnReport struct {
	Turn   int     `json:"turn"`
	Rows   int     `json:"rows"`
	Vocab  int     `json:"vocab"`
	Argmax []int   `json:"argmax"`
	Max    float32 `json:"max_logit"`
}

type forwardReport struct {
	RunID     string       `json:"run_id"`
	SessionID string       `json:"session_id"`
	Batch     int          `json:"batch"`
	MMI       bool         `json:"mmi"`
	Training  bool         `json:"training"`
	Turns     []turnReport `json:"turns"`
}

func forwardCmd() *cli.Command {
	f := &modelFlags{}
	var (
		batchPath  string
		train      bool
		topRows    int
		noProgress bool
	)
	flags := append(f.flags(),
		&cli.StringFlag{
			Name:        "batch",
			Aliases:     []string{"b"},
			Usage:       "path to the dialogue JSON file",
			Destination: &batchPath,
			Required:    true,
		},
		&cli.BoolFlag{
			Name:        "train",
			Usage:       "run with dropout enabled",
			Destination: &train,
		},
		&cli.IntFlag{
			Name:        "rows",
			Usage:       "number of logit rows to report argmax for per turn",
			Value:       4,
			Destination: &topRows,
		},
		&cli.BoolFlag{
			Name:        "no-progress",
			Usage:       "disable the progress bar",
			Destination: &noProgress,
		},
	)

	return &cli.Command{
		Name:  "forward",
		Usage: "Run the model over every turn of a dialogue batch",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if topRows < 0 {
				return fmt.Errorf("--rows must be >= 0, got %d", topRows)
			}
			model, logger, err := buildModel(cmd, f)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			batches, err := readDialogue(ctx, batchPath, model)
			if err != nil {
				return err
			}

			var progress io.Writer = cmd.Root().ErrWriter
			if progress == nil {
				progress = os.Stderr
			}
			if noProgress {
				progress = io.Discard
			}

			report, err := runDialogue(ctx, model, batches, runOptions{
				train:    train,
				topRows:  topRows,
				progress: progress,
				logger:   logger,
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.Root().Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
}

// readDialogue decodes path and builds one Batch per turn, rejecting turns
// whose ids or lengths do not fit model.
func readDialogue(ctx context.Context, path string, model *cpuModel) ([]*seq2seq.Batch[*cpu.Backend], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dialogue: %w", err)
	}
	var file dialogueFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", errDialogue, path, err)
	}
	if len(file.Turns) == 0 {
		return nil, fmt.Errorf("%w: %s has no turns", errDialogue, path)
	}

	backend := cpu.New()
	batches := make([]*seq2seq.Batch[*cpu.Backend], len(file.Turns))
	err = parallel.ForErr(ctx, len(file.Turns), func(i int) error {
		turn := file.Turns[i]
		b, err := seq2seq.NewBatch(turn.Src, turn.Tgt, backend)
		if err != nil {
			return fmt.Errorf("%w: turn %d: %w", errDialogue, i, err)
		}
		if err := model.CheckBatch(b); err != nil {
			return fmt.Errorf("%w: turn %d: %w", errDialogue, i, err)
		}
		batches[i] = b
		return nil
	}, parallel.DefaultConfig())
	if err != nil {
		return nil, err
	}

	for i, b := range batches {
		if b.Size() != batches[0].Size() {
			return nil, fmt.Errorf("%w: turn %d has batch %d, turn 0 has %d",
				errDialogue, i, b.Size(), batches[0].Size())
		}
	}
	return batches, nil
}

type runOptions struct {
	train    bool
	topRows  int
	progress io.Writer
	logger   *zap.Logger
}

// runDialogue resets the session once and feeds the turns in order so the
// session state carries across them.
func runDialogue(ctx context.Context, model *cpuModel, batches []*seq2seq.Batch[*cpu.Backend], opts runOptions) (*forwardReport, error) {
	runID := uuid.New()
	logger := opts.logger.With(zap.String("run", runID.String()))

	model.Train(opts.train)
	sessionID := model.ResetSession(batches[0].Size())
	logger.Info("dialogue started",
		zap.String("session", sessionID.String()),
		zap.Int("turns", len(batches)),
		zap.Int("batch", batches[0].Size()),
	)

	bar := progressbar.NewOptions(len(batches),
		progressbar.OptionSetDescription("Turns"),
		progressbar.OptionSetWriter(opts.progress),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	report := &forwardReport{
		RunID:     runID.String(),
		SessionID: sessionID.String(),
		Batch:     batches[0].Size(),
		MMI:       model.MMIFactor() > 0,
		Training:  opts.train,
		Turns:     make([]turnReport, 0, len(batches)),
	}
	for i, b := range batches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		logits := model.Forward(b.Src, b.SrcPos, b.Tgt, b.TgtPos)
		rows, vocab := logits.Dim(0), logits.Dim(1)

		tr := turnReport{Turn: i, Rows: rows, Vocab: vocab}
		tr.Argmax, tr.Max = argmaxRows(logits.Data(), vocab, min(opts.topRows, rows))
		report.Turns = append(report.Turns, tr)

		logger.Debug("turn done", zap.Int("turn", i), zap.Int("rows", rows), zap.Int("vocab", vocab))
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	return report, nil
}

// argmaxRows returns the argmax of the first n rows of a row-major
// [rows, vocab] matrix and the largest logit among them.
func argmaxRows(data []float32, vocab, n int) ([]int, float32) {
	out := make([]int, n)
	var best float32
	for r := 0; r < n; r++ {
		row := data[r*vocab : (r+1)*vocab]
		for j, v := range row {
			if v > row[out[r]] {
				out[r] = j
			}
		}
		if r == 0 || row[out[r]] > best {
			best = row[out[r]]
		}
	}
	return out, best
}
