package stopping

import (
	"fmt"
	"slices"
	"time"
)

// MaxLengthCriterion stops every row once the time dimension of the token
// matrix reaches the bound. All rows in a batch share one time dimension,
// so the verdict is batch-uniform.
type MaxLengthCriterion struct {
	maxLength int
}

func NewMaxLength(maxLength int) (*MaxLengthCriterion, error) {
	if maxLength <= 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidMaxLength, maxLength)
	}
	return &MaxLengthCriterion{maxLength: maxLength}, nil
}

func (c *MaxLengthCriterion) MaxLength() int { return c.maxLength }

func (c *MaxLengthCriterion) Evaluate(ids [][]int, _ [][]float32) []bool {
	return uniform(len(ids), seqLen(ids) >= c.maxLength)
}

// MaxNewTokensCriterion stops every row once maxNewTokens tokens have been
// generated past the prompt. Equivalent to a MaxLengthCriterion with bound
// startLength+maxNewTokens; kept for ergonomics at call sites that think in
// terms of generated tokens.
type MaxNewTokensCriterion struct {
	startLength  int
	maxNewTokens int
}

func NewMaxNewTokens(startLength, maxNewTokens int) (*MaxNewTokensCriterion, error) {
	if startLength < 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidStartLength, startLength)
	}
	if maxNewTokens < 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidMaxNewTokens, maxNewTokens)
	}
	return &MaxNewTokensCriterion{startLength: startLength, maxNewTokens: maxNewTokens}, nil
}

func (c *MaxNewTokensCriterion) MaxLength() int { return c.startLength + c.maxNewTokens }

func (c *MaxNewTokensCriterion) Evaluate(ids [][]int, _ [][]float32) []bool {
	return uniform(len(ids), seqLen(ids) >= c.startLength+c.maxNewTokens)
}

// MaxTimeCriterion stops every row once the wall-clock budget is spent.
type MaxTimeCriterion struct {
	maxTime time.Duration
	start   time.Time
}

func NewMaxTime(maxTime time.Duration) *MaxTimeCriterion {
	return NewMaxTimeAt(maxTime, time.Now())
}

// NewMaxTimeAt sets an explicit start instant. Useful in tests and when the
// budget should cover work done before the criterion was built.
func NewMaxTimeAt(maxTime time.Duration, start time.Time) *MaxTimeCriterion {
	return &MaxTimeCriterion{maxTime: maxTime, start: start}
}

func (c *MaxTimeCriterion) Evaluate(ids [][]int, _ [][]float32) []bool {
	return uniform(len(ids), time.Since(c.start) >= c.maxTime)
}

// StopTokenCriterion stops a row once its newest token is one of the
// configured stop ids (typically EOS and chat end-of-turn markers). Unlike
// the batch-uniform counters this one is per-row.
type StopTokenCriterion struct {
	stopIDs []int
}

func NewStopTokens(ids []int) *StopTokenCriterion {
	return &StopTokenCriterion{stopIDs: slices.Clone(ids)}
}

func (c *StopTokenCriterion) Evaluate(ids [][]int, _ [][]float32) []bool {
	out := make([]bool, len(ids))
	for i, row := range ids {
		if len(row) == 0 {
			continue
		}
		out[i] = slices.Contains(c.stopIDs, row[len(row)-1])
	}
	return out
}
