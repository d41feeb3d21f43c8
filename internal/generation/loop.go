// Package generation drives batched step-by-step decoding against a model,
// consulting stopping criteria every step and halting rows independently.
package generation

import (
	"context"
	"fmt"
	"time"

	"github.com/matthid/transformers/internal/logger"
	"github.com/matthid/transformers/pkg/stopping"
)

// Model produces the next token id for one row given its current tokens.
type Model interface {
	Next(row int, ids []int) (int, error)
}

// StreamFunc observes every generated token as it is appended to a row.
type StreamFunc func(row, id int)

type Stats struct {
	Steps           int
	TokensGenerated int
	Duration        time.Duration
	TPS             float64
}

type Loop struct {
	Model    Model
	Criteria stopping.CriterionList
	Log      logger.Logger
	Stream   StreamFunc
}

// Run grows every row by one token per step until all rows have stopped or
// maxSteps is reached (maxSteps < 0 means unbounded). Prompt rows must
// share one length; active rows then always stay rectangular, which is what
// the criteria expect. Stopped rows keep their tokens while the rest
// continue.
func (l *Loop) Run(ctx context.Context, prompt [][]int, maxSteps int) ([][]int, Stats, error) {
	var stats Stats
	start := time.Now()

	rows := make([][]int, len(prompt))
	active := make([]int, 0, len(prompt))
	for i, row := range prompt {
		rows[i] = append([]int(nil), row...)
		active = append(active, i)
	}

	// a prompt can already satisfy a criterion
	active = l.filterStopped(rows, active)

	for step := 0; len(active) > 0 && (maxSteps < 0 || step < maxSteps); step++ {
		if err := ctx.Err(); err != nil {
			return rows, l.finish(stats, start), err
		}
		for _, r := range active {
			next, err := l.Model.Next(r, rows[r])
			if err != nil {
				return rows, l.finish(stats, start), fmt.Errorf("model step %d row %d: %w", step, r, err)
			}
			rows[r] = append(rows[r], next)
			if l.Stream != nil {
				l.Stream(r, next)
			}
			stats.TokensGenerated++
		}
		stats.Steps++
		active = l.filterStopped(rows, active)
	}

	return rows, l.finish(stats, start), nil
}

// filterStopped evaluates the criteria over the still-active rows and drops
// the ones whose verdict is true.
func (l *Loop) filterStopped(rows [][]int, active []int) []int {
	if len(active) == 0 || len(l.Criteria) == 0 {
		return active
	}
	sub := make([][]int, len(active))
	for i, r := range active {
		sub[i] = rows[r]
	}
	verdicts := l.Criteria.Evaluate(sub, nil)
	kept := active[:0]
	for i, r := range active {
		if verdicts[i] {
			if l.Log != nil {
				l.Log.Debug("row stopped", "row", r, "length", len(rows[r]))
			}
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

func (l *Loop) finish(stats Stats, start time.Time) Stats {
	stats.Duration = time.Since(start)
	if secs := stats.Duration.Seconds(); secs > 0 {
		stats.TPS = float64(stats.TokensGenerated) / secs
	}
	return stats
}
