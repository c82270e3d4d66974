package progression

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownCriteriaType = errors.New("unknown criteria type")
	ErrTimezoneResolution  = errors.New("cannot resolve timezone")

	// ErrConcurrentMutation is returned when the progression state was changed
	// by another writer after it was read. The recompute must be retried
	// against the current surviving logs.
	ErrConcurrentMutation = errors.New("concurrent mutation of progression")
)

type UnknownCriteriaTypeError struct {
	Key  string
	Type string
}

func (e *UnknownCriteriaTypeError) Error() string {
	return fmt.Sprintf("achievement %s: %s %q", e.Key, ErrUnknownCriteriaType, e.Type)
}

func (e *UnknownCriteriaTypeError) Unwrap() error {
	return ErrUnknownCriteriaType
}
