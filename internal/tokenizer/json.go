package tokenizer

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"

	"github.com/matthid/transformers/pkg/stopping"
)

type tokenizerJSON struct {
	Model struct {
		Vocab map[string]int `json:"vocab"`
	} `json:"model"`
	AddedTokens []struct {
		ID      int    `json:"id"`
		Content string `json:"content"`
	} `json:"added_tokens"`
}

type tokenizerConfigJSON struct {
	PadToken    string `json:"pad_token"`
	EOSToken    string `json:"eos_token"`
	PaddingSide string `json:"padding_side"`
}

// LoadVocab reads a HuggingFace tokenizer.json plus an optional
// tokenizer_config.json naming the pad/eos tokens and the padding side.
func LoadVocab(tokenizerPath, configPath string) (*Vocab, error) {
	data, err := os.ReadFile(tokenizerPath)
	if err != nil {
		return nil, err
	}
	var cfg []byte
	if configPath != "" {
		if raw, err := os.ReadFile(configPath); err == nil {
			cfg = raw
		}
	}
	return LoadVocabBytes(data, cfg)
}

func LoadVocabBytes(tokenizerData, configData []byte) (*Vocab, error) {
	var tj tokenizerJSON
	if err := json.Unmarshal(tokenizerData, &tj); err != nil {
		return nil, fmt.Errorf("parse tokenizer json: %w", err)
	}
	if len(tj.Model.Vocab) == 0 && len(tj.AddedTokens) == 0 {
		return nil, fmt.Errorf("tokenizer json has no vocabulary")
	}

	maxID := -1
	for _, id := range tj.Model.Vocab {
		if id > maxID {
			maxID = id
		}
	}
	for _, at := range tj.AddedTokens {
		if at.ID > maxID {
			maxID = at.ID
		}
	}
	tokens := make([]string, maxID+1)
	for tok, id := range tj.Model.Vocab {
		if id >= 0 {
			tokens[id] = tok
		}
	}
	for _, at := range tj.AddedTokens {
		if at.ID >= 0 {
			tokens[at.ID] = at.Content
		}
	}

	vocab := &Vocab{Tokens: tokens, PadID: -1, EOSID: -1, Side: stopping.PadLeft}
	if len(configData) > 0 {
		var cfg tokenizerConfigJSON
		if err := json.Unmarshal(configData, &cfg); err != nil {
			return nil, fmt.Errorf("parse tokenizer config: %w", err)
		}
		if cfg.PaddingSide == string(stopping.PadRight) {
			vocab.Side = stopping.PadRight
		}
		vocab.PadID = findToken(tokens, cfg.PadToken)
		vocab.EOSID = findToken(tokens, cfg.EOSToken)
	}
	// models that reuse EOS for padding often leave pad_token unset
	if vocab.PadID < 0 {
		vocab.PadID = vocab.EOSID
	}
	return vocab, nil
}

func findToken(tokens []string, text string) int {
	if text == "" {
		return -1
	}
	for id, tok := range tokens {
		if tok == text {
			return id
		}
	}
	return -1
}
