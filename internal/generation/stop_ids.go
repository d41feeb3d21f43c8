package generation

import (
	"slices"
	"strings"

	"github.com/matthid/transformers/internal/tokenizer"
)

// endMarkers are surface forms that terminate a turn across common model
// families. Vocabularies frequently register these without wiring them as
// the configured EOS.
var endMarkers = []string{
	"</s>",
	"<|endoftext|>",
	"<|end_of_text|>",
	"<|im_end|>",
	"<|eot_id|>",
	"<|end|>",
	"<end_of_turn>",
	"<|end_of_turn|>",
	"<|return|>",
}

// StopTokenIDs collects the token ids that should halt a row outright: the
// configured EOS plus every vocabulary entry whose surface is a known
// end-of-turn marker. Feed the result to stopping.NewStopTokens.
func StopTokenIDs(v *tokenizer.Vocab) []int {
	ids := make([]int, 0, 4)
	if v.EOSID >= 0 {
		ids = append(ids, v.EOSID)
	}
	for id, tok := range v.Tokens {
		if id == v.EOSID {
			continue
		}
		if slices.Contains(endMarkers, strings.ToLower(strings.TrimSpace(tok))) {
			ids = append(ids, id)
		}
	}
	return ids
}
