package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/matthid/transformers/internal/generation"
	"github.com/matthid/transformers/pkg/stopping"
)

func benchCmd() *cli.Command {
	var (
		rows      int64
		steps     int64
		seed      int64
		maxTimeMS int64
	)

	return &cli.Command{
		Name:  "bench",
		Usage: "Drive a synthetic generation loop and report throughput",
		Flags: append(loggingFlags(),
			&cli.Int64Flag{
				Name:        "rows",
				Usage:       "batch rows",
				Value:       8,
				Destination: &rows,
			},
			&cli.Int64Flag{
				Name:        "steps",
				Usage:       "maximum steps per row",
				Value:       512,
				Destination: &steps,
			},
			&cli.Int64Flag{
				Name:        "seed",
				Usage:       "toy model seed",
				Value:       42,
				Destination: &seed,
			},
			&cli.Int64Flag{
				Name:        "max-time-ms",
				Usage:       "wall-clock budget for the whole batch",
				Destination: &maxTimeMS,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := LoadConfig()
			applyCommonConfig(cmd, cfg)
			log := buildLogger()

			vocab := benchVocab()
			matcher, err := stopping.NewStopStrings(vocab, []string{"stop"})
			if err != nil {
				return err
			}
			criteria := stopping.CriterionList{matcher}
			if maxTimeMS > 0 {
				criteria = append(criteria, stopping.NewMaxTime(time.Duration(maxTimeMS)*time.Millisecond))
			}

			prompt := make([][]int, rows)
			for i := range prompt {
				prompt[i] = []int{1}
			}
			loop := &generation.Loop{
				Model:    &generation.ToyModel{VocabSize: vocab.Size(), Seed: seed},
				Criteria: criteria,
				Log:      log,
			}

			out, stats, err := loop.Run(ctx, prompt, int(steps))
			if err != nil {
				return err
			}
			stopped := 0
			for _, row := range out {
				if len(row) < len(prompt[0])+int(steps) {
					stopped++
				}
			}
			fmt.Printf("rows:      %d (%d hit a criterion)\n", len(out), stopped)
			fmt.Printf("steps:     %d\n", stats.Steps)
			fmt.Printf("tokens:    %d\n", stats.TokensGenerated)
			fmt.Printf("duration:  %s\n", stats.Duration.Round(time.Millisecond))
			fmt.Printf("tokens/s:  %.0f\n", stats.TPS)
			return nil
		},
	}
}

// benchVocab is a synthetic byte-level vocabulary plus the fragments of the
// benchmark stop string, so the matcher has realistic work to do.
func benchVocab() stopping.SliceVocab {
	tokens := []string{"<pad>", "st", "op", "sto", "top", "stop", "s", "t", "o", "p"}
	for b := 'a'; b <= 'z'; b++ {
		tokens = append(tokens, string(b))
	}
	return stopping.SliceVocab{Tokens: tokens, PadID: 0}
}
