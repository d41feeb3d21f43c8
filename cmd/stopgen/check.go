package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/matthid/transformers/internal/logger"
	"github.com/matthid/transformers/internal/tokenizer"
	"github.com/matthid/transformers/pkg/stopping"
)

func checkCmd() *cli.Command {
	var (
		stops     []string
		maxLength int64
		maxTimeMS int64
	)

	return &cli.Command{
		Name:      "check",
		Usage:     "Tokenize texts and report which ones hit a stopping criterion",
		ArgsUsage: "TEXT [TEXT...]",
		Flags: append(append(tokenizerFlags(), loggingFlags()...),
			&cli.StringSliceFlag{
				Name:        "stop",
				Usage:       "stop string to match (repeatable)",
				Destination: &stops,
			},
			&cli.Int64Flag{
				Name:        "max-length",
				Usage:       "stop once a sequence reaches this many tokens",
				Destination: &maxLength,
			},
			&cli.Int64Flag{
				Name:        "max-time-ms",
				Usage:       "stop once this wall-clock budget is spent",
				Destination: &maxTimeMS,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := LoadConfig()
			applyCommonConfig(cmd, cfg)
			applyStopConfig(cmd, cfg, &stops, &maxLength, &maxTimeMS)
			log := buildLogger()

			texts := cmd.Args().Slice()
			if len(texts) == 0 {
				return errors.New("no texts given")
			}

			vocab, err := loadVocabFromFlags()
			if err != nil {
				return err
			}
			criteria, err := buildCriteria(log, vocab, stops, maxLength, maxTimeMS)
			if err != nil {
				return err
			}
			enc := tokenizer.NewEncoder(vocab)

			for _, text := range texts {
				ids, err := enc.Encode(text)
				if err != nil {
					return fmt.Errorf("encode %q: %w", text, err)
				}
				verdict := criteria.Evaluate([][]int{ids}, nil)
				fmt.Printf("%-5v %4d tokens  %q\n", verdict[0], len(ids), text)
			}
			return nil
		},
	}
}

func loadVocabFromFlags() (*tokenizer.Vocab, error) {
	if tokenizerJSONPath == "" {
		return nil, errors.New("--tokenizer-json is required (or set tokenizer_json in the config file)")
	}
	return tokenizer.LoadVocab(tokenizerJSONPath, tokenizerConfig)
}

func buildCriteria(log logger.Logger, vocab stopping.Vocab, stops []string, maxLength, maxTimeMS int64) (stopping.CriterionList, error) {
	var list stopping.CriterionList
	if len(stops) > 0 {
		crit, err := stopping.NewStopStrings(vocab, stops)
		if err != nil {
			return nil, err
		}
		list = append(list, crit)
	}
	if maxTimeMS > 0 {
		list = append(list, stopping.NewMaxTime(time.Duration(maxTimeMS)*time.Millisecond))
	}
	if maxLength > 0 {
		validated, warn, err := stopping.Validate(list, int(maxLength))
		if err != nil {
			return nil, err
		}
		if warn != nil {
			log.Warn(warn.String())
		}
		list = validated
	}
	if len(list) == 0 {
		return nil, errors.New("no criteria configured; pass --stop, --max-length or --max-time-ms")
	}
	return list, nil
}
