package tokenizer

import (
	"fmt"

	"github.com/matthid/transformers/pkg/stopping"
)

// Encoder tokenizes text by greedy longest match over the normalized
// vocabulary. Real deployments feed the stopping criteria token ids straight
// from their own tokenizer; this encoder exists so the CLI and tests can
// turn sample text into ids without one.
type Encoder struct {
	vocab  *Vocab
	byLen  [][]tokenEntry // entries grouped by surface length, longest first
	maxLen int
}

type tokenEntry struct {
	text string
	id   int
}

func NewEncoder(v *Vocab) *Encoder {
	maxLen := 0
	for _, tok := range v.Tokens {
		if n := len(stopping.NormalizeSurface(tok)); n > maxLen {
			maxLen = n
		}
	}
	byLen := make([][]tokenEntry, maxLen+1)
	for id, tok := range v.Tokens {
		text := stopping.NormalizeSurface(tok)
		if text == "" || id == v.PadID {
			continue
		}
		byLen[len(text)] = append(byLen[len(text)], tokenEntry{text: text, id: id})
	}
	return &Encoder{vocab: v, byLen: byLen, maxLen: maxLen}
}

// Encode maps text to token ids, preferring the longest surface at every
// position. Fails when no vocabulary entry covers the next byte.
func (e *Encoder) Encode(text string) ([]int, error) {
	var ids []int
	offset := 0
	for offset < len(text) {
		id, n := e.longestAt(text[offset:])
		if n == 0 {
			return nil, fmt.Errorf("cannot encode text at byte %d (%q)", offset, text[offset:])
		}
		ids = append(ids, id)
		offset += n
	}
	return ids, nil
}

func (e *Encoder) longestAt(rest string) (id, length int) {
	limit := min(e.maxLen, len(rest))
	for n := limit; n >= 1; n-- {
		for _, entry := range e.byLen[n] {
			if rest[:n] == entry.text {
				return entry.id, n
			}
		}
	}
	return 0, 0
}

// Decode concatenates normalized surface forms, skipping padding.
func (e *Encoder) Decode(ids []int) (string, error) {
	var out []byte
	for _, id := range ids {
		if id == e.vocab.PadID {
			continue
		}
		if id < 0 || id >= len(e.vocab.Tokens) {
			return "", fmt.Errorf("token id %d out of range", id)
		}
		out = append(out, stopping.NormalizeSurface(e.vocab.Tokens[id])...)
	}
	return string(out), nil
}
