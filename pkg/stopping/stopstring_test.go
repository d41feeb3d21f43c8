package stopping

import (
	"errors"
	"strings"
	"testing"
)

// fragmentTokens splits every marker across several tokens, so matches must
// be reassembled over token boundaries.
var fragmentTokens = []string{
	"<pad>", "<|", "im", "_start", "_end", "|>", ">>", "st", "op", "stop",
	"<", "|", "i", "m", "_", "s", "t", "a", "r", "e", "n", "d", ">", "o", "p",
}

// specialTokens additionally carries the markers as single tokens, the way
// a chat tokenizer registers them.
var specialTokens = append(append([]string(nil), fragmentTokens...), "<|im_start|>", "<|im_end|>")

func greedyEncode(t *testing.T, tokens []string, text string) []int {
	t.Helper()
	var ids []int
	for len(text) > 0 {
		best := -1
		for id, tok := range tokens {
			if tok == "<pad>" || tok == "" || !strings.HasPrefix(text, tok) {
				continue
			}
			if best < 0 || len(tok) > len(tokens[best]) {
				best = id
			}
		}
		if best < 0 {
			t.Fatalf("cannot encode %q", text)
		}
		ids = append(ids, best)
		text = text[len(tokens[best]):]
	}
	return ids
}

func leftPad(row []int, padID, length int) []int {
	out := make([]int, 0, length)
	for i := len(row); i < length; i++ {
		out = append(out, padID)
	}
	return append(out, row...)
}

func newMatcher(t *testing.T, tokens []string, stops []string) *StopStringCriterion {
	t.Helper()
	crit, err := NewStopStrings(SliceVocab{Tokens: tokens, PadID: 0, Side: PadLeft}, stops)
	if err != nil {
		t.Fatalf("NewStopStrings: %v", err)
	}
	return crit
}

func TestStopStringScenarios(t *testing.T) {
	t.Parallel()

	stops := []string{"<|im_end|>", "stop"}
	trueTexts := []string{
		"<|im_start|><|im_end|>",
		"<|im_start|><|im_end|<|im_end|>",
		">><|im_start|>>stop",
		"stop",
	}
	falseTexts := []string{
		"<|im_start|><|im_end|",
		"<|im_start|><|im_end|<|im_end|",
		"<|im_end|><|im_start|>",
		"<|im_end|<>stop<|im_end|",
	}
	tooShort := []string{"<|im_end|", "|im_end|>", "s", "end"}

	// identical verdicts whether markers arrive fragmented or as
	// dedicated special tokens
	for _, vocab := range [][]string{fragmentTokens, specialTokens} {
		crit := newMatcher(t, vocab, stops)
		for _, text := range trueTexts {
			if !crit.EvaluateRow(greedyEncode(t, vocab, text)) {
				t.Fatalf("%q should match", text)
			}
		}
		for _, text := range falseTexts {
			if crit.EvaluateRow(greedyEncode(t, vocab, text)) {
				t.Fatalf("%q should not match", text)
			}
		}
		for _, text := range tooShort {
			if crit.EvaluateRow(greedyEncode(t, vocab, text)) {
				t.Fatalf("too-short %q should not match", text)
			}
		}
	}
}

func TestStopStringBatchWithPadding(t *testing.T) {
	t.Parallel()

	crit := newMatcher(t, fragmentTokens, []string{"<|im_end|>", "stop"})

	rows := [][]int{
		greedyEncode(t, fragmentTokens, "<|im_start|><|im_end|>"),
		greedyEncode(t, fragmentTokens, "<|im_end|><|im_start|>"),
		greedyEncode(t, fragmentTokens, "stop"),
		{},
	}
	longest := 0
	for _, row := range rows {
		longest = max(longest, len(row))
	}
	ids := make([][]int, len(rows))
	for i, row := range rows {
		ids[i] = leftPad(row, 0, longest)
	}

	want := []bool{true, false, true, false}
	got := crit.Evaluate(ids, nil)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("row %d got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestStopStringRightPadding(t *testing.T) {
	t.Parallel()

	vocab := SliceVocab{Tokens: fragmentTokens, PadID: 0, Side: PadRight}
	crit, err := NewStopStrings(vocab, []string{"stop"})
	if err != nil {
		t.Fatalf("NewStopStrings: %v", err)
	}

	row := greedyEncode(t, fragmentTokens, ">>stop")
	padded := append(append([]int{}, row...), 0, 0, 0)
	if !crit.EvaluateRow(padded) {
		t.Fatalf("trailing padding should be ignored")
	}
	if crit.EvaluateRow([]int{0, 0, 0}) {
		t.Fatalf("all-padding row should not match")
	}
}

// Every way of splitting a matching text into vocabulary tokens must match,
// and every split of a non-matching text must not.
func TestStopStringAllSegmentations(t *testing.T) {
	t.Parallel()

	crit := newMatcher(t, fragmentTokens, []string{"stop"})

	var segment func(text string, prefix []int, emit func([]int))
	segment = func(text string, prefix []int, emit func([]int)) {
		if text == "" {
			emit(append([]int(nil), prefix...))
			return
		}
		for id, tok := range fragmentTokens {
			if tok == "<pad>" || !strings.HasPrefix(text, tok) {
				continue
			}
			segment(text[len(tok):], append(prefix, id), emit)
		}
	}

	checked := 0
	segment(">stop", nil, func(row []int) {
		checked++
		if !crit.EvaluateRow(row) {
			t.Fatalf("segmentation %v of %q should match", row, ">stop")
		}
	})
	if checked < 2 {
		t.Fatalf("expected multiple segmentations, got %d", checked)
	}
	segment("stop>", nil, func(row []int) {
		if crit.EvaluateRow(row) {
			t.Fatalf("segmentation %v of %q should not match", row, "stop>")
		}
	})
}

func TestStopStringEmbeddedInToken(t *testing.T) {
	t.Parallel()

	vocab := []string{"<pad>", "foo<|im_end|>", "<|im_end|>!", "sto", "p", "top"}
	crit := newMatcher(t, vocab, []string{"<|im_end|>", "top"})

	cases := []struct {
		name string
		row  []int
		want bool
	}{
		{name: "marker is token suffix", row: []int{1}, want: true},
		{name: "marker with trailing byte", row: []int{2}, want: false},
		{name: "suffix spans token boundary", row: []int{3, 4}, want: true},
		{name: "whole-token marker", row: []int{5}, want: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := crit.EvaluateRow(tc.row); got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestStopStringOverlappingCandidates(t *testing.T) {
	t.Parallel()

	// "top" is a suffix of "stop"; each candidate is checked by full
	// comparison, so the shorter one must not be mistaken for the longer
	vocab := []string{"<pad>", "a", "s", "t", "o", "p", "top", "stop", "sto"}
	crit := newMatcher(t, vocab, []string{"stop", "top"})

	if !crit.EvaluateRow(greedyEncode(t, vocab, "top")) {
		t.Fatalf("\"top\" should match the shorter candidate")
	}
	if !crit.EvaluateRow(greedyEncode(t, vocab, "atop")) {
		t.Fatalf("\"atop\" should match \"top\"")
	}
	if crit.EvaluateRow(greedyEncode(t, vocab, "sto")) {
		t.Fatalf("\"sto\" matches nothing")
	}
}

func TestStopStringWhitespaceMarkers(t *testing.T) {
	t.Parallel()

	// "Ġstop" decodes to " stop"; the marker is normalized away
	// before alignment
	vocab := []string{"<pad>", "Hello", "Ġstop", "▁halt"}
	crit := newMatcher(t, vocab, []string{"stop", " halt"})

	if !crit.EvaluateRow([]int{1, 2}) {
		t.Fatalf("byte-BPE space marker should not block the match")
	}
	if !crit.EvaluateRow([]int{1, 3}) {
		t.Fatalf("sentencepiece marker should normalize to a space")
	}
}

func TestStopStringSkipsEmptySurfaces(t *testing.T) {
	t.Parallel()

	// id 2 is a pure control token with no surface text; it is invisible
	// in the decoded text and must not break adjacency
	vocab := []string{"<pad>", "st", "", "op"}
	crit, err := NewStopStrings(SliceVocab{Tokens: vocab, PadID: 0}, []string{"stop"})
	if err != nil {
		t.Fatalf("NewStopStrings: %v", err)
	}
	if !crit.EvaluateRow([]int{1, 2, 3}) {
		t.Fatalf("empty surface between fragments should be skipped")
	}
	if crit.EvaluateRow([]int{2, 2}) {
		t.Fatalf("row with only invisible tokens should not match")
	}
}

func TestStopStringOutOfRangeIDs(t *testing.T) {
	t.Parallel()

	crit := newMatcher(t, fragmentTokens, []string{"stop"})
	row := greedyEncode(t, fragmentTokens, "stop")
	// evaluation never fails; ids outside the vocabulary simply cannot
	// contribute text
	if crit.EvaluateRow([]int{len(fragmentTokens) + 5}) {
		t.Fatalf("unknown id should not match")
	}
	if !crit.EvaluateRow(append([]int{len(fragmentTokens) + 5}, row...)) {
		t.Fatalf("unknown id before the marker should not block the match")
	}
}

func TestStopStringConstructionErrors(t *testing.T) {
	t.Parallel()

	vocab := SliceVocab{Tokens: fragmentTokens, PadID: 0}

	if _, err := NewStopStrings(vocab, nil); !errors.Is(err, ErrNoStopStrings) {
		t.Fatalf("empty set got %v, want ErrNoStopStrings", err)
	}
	if _, err := NewStopStrings(vocab, []string{"stop", ""}); !errors.Is(err, ErrEmptyStopString) {
		t.Fatalf("empty string got %v, want ErrEmptyStopString", err)
	}
	if _, err := NewStopStrings(SliceVocab{}, []string{"stop"}); !errors.Is(err, ErrEmptyVocab) {
		t.Fatalf("empty vocab got %v, want ErrEmptyVocab", err)
	}
	if _, err := NewStopStrings(nil, []string{"stop"}); !errors.Is(err, ErrEmptyVocab) {
		t.Fatalf("nil vocab got %v, want ErrEmptyVocab", err)
	}
}

func TestStopStringAccessors(t *testing.T) {
	t.Parallel()

	crit := newMatcher(t, fragmentTokens, []string{"<|im_end|>", "stop"})
	got := crit.StopStrings()
	want := []string{"<|im_end|>", "stop"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("StopStrings got %v, want %v", got, want)
	}
	if crit.MaxStopLen() != len("<|im_end|>") {
		t.Fatalf("MaxStopLen got %d, want %d", crit.MaxStopLen(), len("<|im_end|>"))
	}
}
