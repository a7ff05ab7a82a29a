// Package domain defines the error taxonomy shared by the chatbot pipeline
// and the HTTP layer.
package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an error by how the request path must treat it.
type Kind string

const (
	// KindInput is a caller mistake, such as an empty question. Reported as 400.
	KindInput Kind = "input"
	// KindUpstream is a failure of the generative model or encoder service.
	KindUpstream Kind = "upstream"
	// KindUnexpected is anything else on the request path. Reported as 500.
	KindUnexpected Kind = "unexpected"
)

// Error is a classified error with an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a classified error.
func NewError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func InputError(message string) *Error {
	return NewError(KindInput, message, nil)
}

func UpstreamError(message string, err error) *Error {
	return NewError(KindUpstream, message, err)
}

func UnexpectedError(message string, err error) *Error {
	return NewError(KindUnexpected, message, err)
}

// KindOf returns the kind of the first classified error in err's chain.
// Unclassified errors are unexpected.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnexpected
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
