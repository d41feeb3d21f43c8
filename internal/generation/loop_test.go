package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matthid/transformers/pkg/stopping"
)

// tokens: 0 pad, 1 "st", 2 "op", 3 "x", 4 "<eos>"
var loopVocab = stopping.SliceVocab{
	Tokens: []string{"<pad>", "st", "op", "x", "<eos>"},
	PadID:  0,
}

func TestRunHaltsRowsIndependently(t *testing.T) {
	t.Parallel()

	stops, err := stopping.NewStopStrings(loopVocab, []string{"stop"})
	if err != nil {
		t.Fatalf("NewStopStrings: %v", err)
	}
	model := &ScriptModel{Script: [][]int{
		{1, 2, 3, 3, 3}, // "stop" after two steps, then filler
		{3, 3, 3, 1, 2}, // "stop" on the last two steps
	}}
	loop := &Loop{
		Model:    model,
		Criteria: stopping.CriterionList{stops},
	}

	rows, stats, err := loop.Run(context.Background(), [][]int{{3}, {3}}, 10)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// row 0 halts at "x st op", row 1 needs the full script
	if got, want := len(rows[0]), 3; got != want {
		t.Fatalf("row 0 length got %d, want %d", got, want)
	}
	if got, want := len(rows[1]), 6; got != want {
		t.Fatalf("row 1 length got %d, want %d", got, want)
	}
	if stats.Steps != 5 {
		t.Fatalf("steps got %d, want 5", stats.Steps)
	}
	// 2 tokens while both rows were active per step 1-2, then row 1 alone
	if stats.TokensGenerated != 7 {
		t.Fatalf("tokens got %d, want 7", stats.TokensGenerated)
	}
}

func TestRunMaxStepsBound(t *testing.T) {
	t.Parallel()

	model := &ToyModel{VocabSize: 5, Seed: 1}
	loop := &Loop{Model: model}

	rows, stats, err := loop.Run(context.Background(), [][]int{{3}}, 4)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rows[0]) != 5 {
		t.Fatalf("row length got %d, want 5", len(rows[0]))
	}
	if stats.Steps != 4 || stats.TokensGenerated != 4 {
		t.Fatalf("stats got %+v, want 4 steps / 4 tokens", stats)
	}
}

func TestRunStopsOnSatisfiedPrompt(t *testing.T) {
	t.Parallel()

	length, err := stopping.NewMaxLength(2)
	if err != nil {
		t.Fatalf("NewMaxLength: %v", err)
	}
	loop := &Loop{
		Model:    &ToyModel{VocabSize: 5, Seed: 1},
		Criteria: stopping.CriterionList{length},
	}

	rows, stats, err := loop.Run(context.Background(), [][]int{{3, 3}}, 10)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rows[0]) != 2 || stats.TokensGenerated != 0 {
		t.Fatalf("prompt already at bound should generate nothing, got %v %+v", rows, stats)
	}
}

func TestRunStopTokenCriterion(t *testing.T) {
	t.Parallel()

	model := &ScriptModel{Script: [][]int{{3, 4, 3, 3}}}
	loop := &Loop{
		Model:    model,
		Criteria: stopping.CriterionList{stopping.NewStopTokens([]int{4})},
	}

	rows, _, err := loop.Run(context.Background(), [][]int{{3}}, 10)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := rows[0]; len(got) != 3 || got[2] != 4 {
		t.Fatalf("row should end at the eos token, got %v", got)
	}
}

func TestRunContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loop := &Loop{Model: &ToyModel{VocabSize: 5, Seed: 1}}
	_, _, err := loop.Run(ctx, [][]int{{3}}, 10)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

func TestRunStreamsTokens(t *testing.T) {
	t.Parallel()

	var streamed []int
	loop := &Loop{
		Model:  &ScriptModel{Script: [][]int{{1, 2}}},
		Stream: func(row, id int) { streamed = append(streamed, id) },
	}
	_, _, err := loop.Run(context.Background(), [][]int{{3}}, 2)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(streamed) != 2 || streamed[0] != 1 || streamed[1] != 2 {
		t.Fatalf("streamed got %v, want [1 2]", streamed)
	}
}

func TestRunTimeCriterion(t *testing.T) {
	t.Parallel()

	expired := stopping.NewMaxTimeAt(50*time.Millisecond, time.Now().Add(-time.Second))
	loop := &Loop{
		Model:    &ToyModel{VocabSize: 5, Seed: 1},
		Criteria: stopping.CriterionList{expired},
	}
	rows, _, err := loop.Run(context.Background(), [][]int{{3}}, 100)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rows[0]) != 1 {
		t.Fatalf("expired budget should stop before the first step, got %v", rows[0])
	}
}
