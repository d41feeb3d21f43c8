// Package tokenizer supplies the vocabulary surface the stopping package
// consumes: token id to surface text, pad id, and padding side. It can load
// the vocabulary from a HuggingFace-style tokenizer.json and offers a
// greedy encoder good enough for the CLI and the test tooling; it is not a
// full BPE implementation.
package tokenizer

import (
	"github.com/matthid/transformers/pkg/stopping"
)

// Vocab is a dense token table with the padding convention attached.
type Vocab struct {
	Tokens []string
	PadID  int
	EOSID  int
	Side   stopping.PaddingSide
}

func (v *Vocab) Size() int { return len(v.Tokens) }

func (v *Vocab) TokenString(id int) string {
	if id < 0 || id >= len(v.Tokens) {
		return ""
	}
	return v.Tokens[id]
}

func (v *Vocab) PadTokenID() int { return v.PadID }

func (v *Vocab) PaddingSide() stopping.PaddingSide {
	if v.Side == stopping.PadRight {
		return stopping.PadRight
	}
	return stopping.PadLeft
}
