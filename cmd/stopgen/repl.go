package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/chzyer/readline"
	"github.com/urfave/cli/v3"

	"github.com/matthid/transformers/internal/tokenizer"
	"github.com/matthid/transformers/pkg/stopping"
)

func replCmd() *cli.Command {
	var stops []string

	return &cli.Command{
		Name:  "repl",
		Usage: "Interactively test texts against the stop strings",
		Flags: append(append(tokenizerFlags(), loggingFlags()...),
			&cli.StringSliceFlag{
				Name:        "stop",
				Usage:       "stop string to match (repeatable)",
				Destination: &stops,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := LoadConfig()
			applyCommonConfig(cmd, cfg)
			if len(cfg.StopStrings) > 0 && !cmd.IsSet("stop") {
				stops = cfg.StopStrings
			}
			log := buildLogger()

			vocab, err := loadVocabFromFlags()
			if err != nil {
				return err
			}
			criteria, err := buildCriteria(log, vocab, stops, 0, 0)
			if err != nil {
				return err
			}
			enc := tokenizer.NewEncoder(vocab)

			fmt.Printf("matching %d stop string(s); empty line or Ctrl-D exits\n", len(stops))
			rl, err := readline.New("text> ")
			if err != nil {
				return err
			}
			defer func() {
				_ = rl.Close()
			}()

			for {
				line, err := rl.Readline()
				if err != nil { // io.EOF or interrupt
					break
				}
				line = strings.TrimRight(line, "\r\n")
				if line == "" {
					break
				}
				ids, err := enc.Encode(line)
				if err != nil {
					fmt.Println(err)
					continue
				}
				verdict := criteria.Evaluate([][]int{ids}, nil)
				describeVerdict(line, ids, verdict[0], stops)
			}
			return nil
		},
	}
}

func describeVerdict(text string, ids []int, stop bool, stops []string) {
	if !stop {
		fmt.Printf("continue  (%d tokens)\n", len(ids))
		return
	}
	for _, s := range stops {
		if strings.HasSuffix(text, stopping.NormalizeSurface(s)) {
			fmt.Printf("stop      (%d tokens, suffix %q)\n", len(ids), s)
			return
		}
	}
	fmt.Printf("stop      (%d tokens)\n", len(ids))
}
