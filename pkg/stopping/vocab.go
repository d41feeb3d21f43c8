package stopping

// PaddingSide tells the matcher where filler tokens sit in a batch row.
type PaddingSide string

const (
	PadLeft  PaddingSide = "left"
	PadRight PaddingSide = "right"
)

// Vocab is the tokenizer surface consumed by stop-string matching: a total
// mapping from token id to surface text plus the padding convention used to
// square off batch rows. Implementations must be stable for the lifetime of
// a criterion built on them.
type Vocab interface {
	// Size returns the number of token ids; valid ids are [0, Size).
	Size() int
	// TokenString returns the surface text for a token id. It may be
	// empty for pure control tokens.
	TokenString(id int) string
	// PadTokenID returns the designated padding id, or a negative value
	// when the vocabulary has none.
	PadTokenID() int
	// PaddingSide reports whether padding precedes or follows row content.
	PaddingSide() PaddingSide
}

// SliceVocab is a Vocab backed by a dense token table. The zero value of
// Side means left padding.
type SliceVocab struct {
	Tokens []string
	PadID  int
	Side   PaddingSide
}

func (v SliceVocab) Size() int { return len(v.Tokens) }

func (v SliceVocab) TokenString(id int) string {
	if id < 0 || id >= len(v.Tokens) {
		return ""
	}
	return v.Tokens[id]
}

func (v SliceVocab) PadTokenID() int { return v.PadID }

func (v SliceVocab) PaddingSide() PaddingSide {
	if v.Side == PadRight {
		return PadRight
	}
	return PadLeft
}
