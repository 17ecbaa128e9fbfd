package knn

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidK           = errors.New("k must be positive")
	ErrKExceedsCandidates = errors.New("k exceeds candidate count")
	ErrUnknownVertex      = errors.New("candidate not in training data")
	ErrDuplicateCandidate = errors.New("duplicate candidate")
	ErrEmptyCluster       = errors.New("empty cluster in training data")
)

// InputError reports malformed classifier arguments. Kind is one of the sentinel
// errors above and is matched with errors.Is.
type InputError struct {
	Kind   error
	Detail string
}

func (e *InputError) Error() string {
	if e.Detail == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *InputError) Unwrap() error { return e.Kind }

func inputError(kind error, format string, args ...interface{}) *InputError {
	return &InputError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
