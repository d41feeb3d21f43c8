package api

// VocabSpec carries the tokenizer surface a matcher is built against.
type VocabSpec struct {
	Tokens      []string `json:"tokens"`
	PadTokenID  *int     `json:"pad_token_id,omitempty"`
	PaddingSide string   `json:"padding_side,omitempty"`
}

// CreateMatcherRequest configures one matcher session. Stop strings are
// matched textually; the remaining fields attach the counter criteria.
type CreateMatcherRequest struct {
	StopStrings  []string      `json:"stop_strings,omitempty"`
	Vocab        *VocabSpec    `json:"vocab,omitempty"`
	MaxLength    *int          `json:"max_length,omitempty"`
	MaxNewTokens *NewTokensCfg `json:"max_new_tokens,omitempty"`
	MaxTimeMS    *int64        `json:"max_time_ms,omitempty"`
	StopTokenIDs []int         `json:"stop_token_ids,omitempty"`
}

type NewTokensCfg struct {
	StartLength  int `json:"start_length"`
	MaxNewTokens int `json:"max_new_tokens"`
}

// MatcherInfo describes a session; MaxLength is the effective bound the
// criteria currently enforce (absent when unbounded).
type MatcherInfo struct {
	ID          string   `json:"id"`
	CreatedAt   int64    `json:"created_at"`
	StopStrings []string `json:"stop_strings,omitempty"`
	Criteria    int      `json:"criteria"`
	MaxLength   *int     `json:"max_length,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
}

type ListMatchersResponse struct {
	Matchers []MatcherInfo `json:"matchers"`
}

type EvaluateRequest struct {
	InputIDs [][]int     `json:"input_ids"`
	Scores   [][]float32 `json:"scores,omitempty"`
}

type EvaluateResponse struct {
	ID   string `json:"id"`
	Stop []bool `json:"stop"`
}

type DeleteMatcherResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}
