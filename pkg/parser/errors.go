package parser

import (
	"fmt"

	"github.com/aretw0/switchboard/pkg/domain"
)

// Kind is the subtype of a parse failure.
type Kind string

const (
	KindSyntax       Kind = "Syntax"
	KindMissingField Kind = "MissingField"
	KindInvalidName  Kind = "InvalidName"
	KindTruncated    Kind = "Truncated"
	KindEmpty        Kind = "Empty"
	KindTooLarge     Kind = "TooLarge"
	// KindSource marks a failure of the fragment source itself (generator error).
	KindSource Kind = "Source"
)

// Error is returned for every input that cannot become an Action.
// It matches domain.ErrParse through errors.Is.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes every parser error match domain.ErrParse.
func (e *Error) Is(target error) bool {
	return target == domain.ErrParse
}

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}
