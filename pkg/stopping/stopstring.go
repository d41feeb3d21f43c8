package stopping

import (
	"fmt"
	"slices"
	"strings"
)

// Tokenizers do not align token boundaries with stop-marker boundaries: the
// marker "stop" may arrive as "st"+"op", or buried at the end of a longer
// token. StopStringCriterion answers "does the decoded text currently end
// with any stop string" without decoding, by precomputing once per
// (vocabulary, stop-string set) how every token can line up against the
// tail of every stop string, then walking only the trailing tokens of each
// row at evaluation time.
//
// The verdict is exactly equivalent to decoding the row and testing
// strings.HasSuffix against each stop string. A marker followed by trailing
// characters inside the same token is not a match; only a true suffix of
// the text generated so far counts.

// Vocabularies mark word-initial whitespace with placeholder runes; they are
// rewritten to plain spaces before any alignment is computed, on both sides.
var spaceMarkers = strings.NewReplacer("▁", " ", "Ġ", " ") // SentencePiece, byte-BPE

// NormalizeSurface rewrites tokenizer whitespace markers to plain spaces.
// Matching applies this to every surface form and stop string; decoders that
// want their text to line up with match verdicts should apply it too.
func NormalizeSurface(s string) string { return spaceMarkers.Replace(s) }

// tokenOverlap records every way one token's surface text can take part in
// a match against one stop string. Boundaries are byte offsets into the
// stop string counted from its start: a token "ends at boundary p" when the
// text it contributed is immediately followed by the stop bytes [p:] in the
// decoded sequence.
type tokenOverlap struct {
	// interior holds boundaries p with surface == stop[p-len(surface):p].
	// The token sits wholly inside the stop string and moves a partial
	// match's boundary down to p-len(surface).
	interior []int
	// completes holds boundaries p where the surface ends with stop[:p].
	// The token supplies the whole remaining head of the stop string
	// (anything before it in the same token is ordinary text), so a
	// partial match at p is finished.
	completes []int
}

// stopProfile is the precomputed table for one stop string.
type stopProfile struct {
	text     string
	overlaps []tokenOverlap // indexed by token id
}

// StopStringCriterion matches textual stop markers against the trailing
// tokens of each row. The table built at construction is never mutated, so
// one criterion may be shared freely across sequences and goroutines.
type StopStringCriterion struct {
	surfaces []string // normalized surface per token id
	stops    []stopProfile
	byLast   map[byte][]int // final stop byte -> candidate indices into stops
	maxLen   int            // longest stop string, bytes
	padID    int
	leftPad  bool
}

// NewStopStrings precomputes the overlap table for the given vocabulary and
// stop strings. The stop-string set must be non-empty and free of empty
// strings; the vocabulary must be non-empty.
func NewStopStrings(vocab Vocab, stopStrings []string) (*StopStringCriterion, error) {
	if vocab == nil || vocab.Size() == 0 {
		return nil, ErrEmptyVocab
	}
	if len(stopStrings) == 0 {
		return nil, ErrNoStopStrings
	}

	surfaces := make([]string, vocab.Size())
	for id := range surfaces {
		surfaces[id] = spaceMarkers.Replace(vocab.TokenString(id))
	}

	c := &StopStringCriterion{
		surfaces: surfaces,
		stops:    make([]stopProfile, 0, len(stopStrings)),
		byLast:   make(map[byte][]int),
		padID:    vocab.PadTokenID(),
		leftPad:  vocab.PaddingSide() != PadRight,
	}
	for si, stop := range stopStrings {
		stop = spaceMarkers.Replace(stop)
		if stop == "" {
			return nil, fmt.Errorf("%w at index %d", ErrEmptyStopString, si)
		}
		prof := stopProfile{
			text:     stop,
			overlaps: make([]tokenOverlap, len(surfaces)),
		}
		for id, surface := range surfaces {
			if surface == "" || !sharesBytes(surface, stop) {
				continue
			}
			prof.overlaps[id] = overlapFor(surface, stop)
		}
		c.stops = append(c.stops, prof)
		c.byLast[stop[len(stop)-1]] = append(c.byLast[stop[len(stop)-1]], si)
		if len(stop) > c.maxLen {
			c.maxLen = len(stop)
		}
	}
	return c, nil
}

// StopStrings returns the normalized stop strings in construction order.
func (c *StopStringCriterion) StopStrings() []string {
	out := make([]string, len(c.stops))
	for i := range c.stops {
		out[i] = c.stops[i].text
	}
	return out
}

// MaxStopLen returns the byte length of the longest stop string. Generation
// loops use it to size the trailing window worth re-inspecting per step.
func (c *StopStringCriterion) MaxStopLen() int { return c.maxLen }

func (c *StopStringCriterion) Evaluate(ids [][]int, _ [][]float32) []bool {
	out := make([]bool, len(ids))
	for i, row := range ids {
		out[i] = c.EvaluateRow(row)
	}
	return out
}

// EvaluateRow reports whether the decoded text of one row currently ends
// with any stop string. Rows are independent; EvaluateRow is safe for
// concurrent use, so callers with large batches may fan rows out themselves.
func (c *StopStringCriterion) EvaluateRow(row []int) bool {
	row = c.content(row)

	// The newest token with visible text fixes the final byte of the
	// decoded tail; only stop strings sharing that byte can match.
	end := len(row) - 1
	for end >= 0 && c.surface(row[end]) == "" {
		end--
	}
	if end < 0 {
		return false
	}
	tail := c.surface(row[end])
	for _, si := range c.byLast[tail[len(tail)-1]] {
		if c.matchTail(row[:end+1], &c.stops[si]) {
			return true
		}
	}
	return false
}

// matchTail walks the row backward against one stop string. p counts the
// stop bytes still unmatched; every visited token must either complete the
// head stop[:p] outright or be exactly the slice of the stop string ending
// at p. The walk is bounded: p only decreases and never revisits a token.
func (c *StopStringCriterion) matchTail(row []int, prof *stopProfile) bool {
	p := len(prof.text)
	for i := len(row) - 1; i >= 0; i-- {
		id := row[i]
		if id < 0 || id >= len(c.surfaces) {
			return false
		}
		surface := c.surfaces[id]
		if surface == "" {
			// invisible in decoded text, does not break adjacency
			continue
		}
		ov := &prof.overlaps[id]
		if slices.Contains(ov.completes, p) {
			return true
		}
		if !slices.Contains(ov.interior, p) {
			return false
		}
		p -= len(surface)
	}
	return false
}

// content strips padding from a row. Padding is left-aligned by default:
// walking back, everything at or before the last pad id is filler. With
// right padding the filler trails the content instead.
func (c *StopStringCriterion) content(row []int) []int {
	if c.padID < 0 {
		return row
	}
	if c.leftPad {
		for i := len(row) - 1; i >= 0; i-- {
			if row[i] == c.padID {
				return row[i+1:]
			}
		}
		return row
	}
	for len(row) > 0 && row[len(row)-1] == c.padID {
		row = row[:len(row)-1]
	}
	return row
}

func (c *StopStringCriterion) surface(id int) string {
	if id < 0 || id >= len(c.surfaces) {
		return ""
	}
	return c.surfaces[id]
}

// overlapFor scans every alignment of surface against stop and records the
// boundaries at which the token can extend or complete a suffix match.
func overlapFor(surface, stop string) tokenOverlap {
	var ov tokenOverlap
	for p := len(surface); p <= len(stop); p++ {
		if stop[p-len(surface):p] == surface {
			ov.interior = append(ov.interior, p)
		}
	}
	for p := 1; p <= len(stop) && p <= len(surface); p++ {
		if strings.HasSuffix(surface, stop[:p]) {
			ov.completes = append(ov.completes, p)
		}
	}
	return ov
}

// sharesBytes is a cheap prefilter: a token whose text has no byte in
// common with the stop string cannot take part in any alignment.
func sharesBytes(surface, stop string) bool {
	for i := 0; i < len(surface); i++ {
		if strings.IndexByte(stop, surface[i]) >= 0 {
			return true
		}
	}
	return false
}
