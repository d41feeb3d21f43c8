package stopping

import "fmt"

// LengthMismatch is the tolerated warning produced when an explicit
// max-length request disagrees with a bound the list already enforces.
// Generation proceeds with the list's value; callers decide how to surface
// the mismatch (typically a log warning).
type LengthMismatch struct {
	ListBound int
	Requested int
}

func (w *LengthMismatch) String() string {
	return fmt.Sprintf("stopping criteria already enforce max length %d, ignoring requested %d",
		w.ListBound, w.Requested)
}

// Validate reconciles an externally requested max length with the list.
// When the list has no length bound, one is appended from the request. When
// it has a different bound, the explicit list value wins and the mismatch
// is reported as a non-nil warning. The returned list is the one to use.
func Validate(list CriterionList, maxLength int) (CriterionList, *LengthMismatch, error) {
	if bound, ok := list.MaxLength(); ok {
		if bound != maxLength {
			return list, &LengthMismatch{ListBound: bound, Requested: maxLength}, nil
		}
		return list, nil, nil
	}
	crit, err := NewMaxLength(maxLength)
	if err != nil {
		return list, nil, err
	}
	return append(list, crit), nil, nil
}
