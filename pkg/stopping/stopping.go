// Package stopping decides, per sequence in a batch of in-progress token
// generation, whether decoding must halt. A generation loop consults a
// CriterionList every step with the running token matrix and halts each row
// whose verdict is true. Length, elapsed-time and stop-token criteria are
// trivial counters; StopStringCriterion detects textual stop markers that
// tokenizers may split across token boundaries, without re-decoding the
// full sequence every step.
package stopping

// Criterion is one independent stopping rule consulted every generation step.
type Criterion interface {
	// Evaluate inspects the token matrix (rows x time) and returns one
	// verdict per row. scores may be nil; the shipped criteria ignore it,
	// it is part of the signature so score-based rules can slot in.
	Evaluate(ids [][]int, scores [][]float32) []bool
}

// CriterionList combines criteria: a row stops once any member says so.
// Every member is evaluated on every call, the OR is not short-circuited,
// so criteria with internal clocks or counters advance uniformly.
type CriterionList []Criterion

func (l CriterionList) Evaluate(ids [][]int, scores [][]float32) []bool {
	out := make([]bool, len(ids))
	for _, crit := range l {
		for i, stop := range crit.Evaluate(ids, scores) {
			if i >= len(out) {
				break
			}
			if stop {
				out[i] = true
			}
		}
	}
	return out
}

// MaxLength reports the smallest sequence-length bound enforced by the list.
// ok is false when no member bounds the length.
func (l CriterionList) MaxLength() (bound int, ok bool) {
	for _, crit := range l {
		var b int
		switch c := crit.(type) {
		case *MaxLengthCriterion:
			b = c.MaxLength()
		case *MaxNewTokensCriterion:
			b = c.MaxLength()
		default:
			continue
		}
		if !ok || b < bound {
			bound = b
			ok = true
		}
	}
	return bound, ok
}

func seqLen(ids [][]int) int {
	if len(ids) == 0 {
		return 0
	}
	return len(ids[0])
}

func uniform(rows int, stop bool) []bool {
	out := make([]bool, rows)
	if stop {
		for i := range out {
			out[i] = true
		}
	}
	return out
}
