package stopping

import "errors"

// Configuration errors are raised at construction time only; Evaluate never
// fails for any matrix of non-negative token ids.
var (
	ErrNoStopStrings       = errors.New("no stop strings to match")
	ErrEmptyStopString     = errors.New("empty stop string")
	ErrEmptyVocab          = errors.New("empty vocabulary")
	ErrInvalidMaxLength    = errors.New("max length must be positive")
	ErrInvalidMaxNewTokens = errors.New("max new tokens must be non-negative")
	ErrInvalidStartLength  = errors.New("start length must be non-negative")
)
