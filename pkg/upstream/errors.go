package upstream

import (
	"errors"
	"fmt"
)

// Kind classifies a failed operation
type Kind string

const (
	// KindUnauthenticated means required identity fields (username/token) were missing
	KindUnauthenticated Kind = "Unauthenticated"
	// KindInvalidInput means an argument was malformed
	KindInvalidInput Kind = "InvalidInput"
	// KindUpstream means the provider answered with a non-2xx status
	KindUpstream Kind = "UpstreamError"
	// KindParse means the provider response was not valid JSON
	KindParse Kind = "ParseError"
	// KindTransport means the provider could not be reached
	KindTransport Kind = "TransportError"
)

// Error is the single error type returned by the upstream client and the
// operations built on top of it
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an error of the given kind
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Errorf creates an error of the given kind with a formatted message
func Errorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or "" when err is not an *Error
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is an *Error of the given kind
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsClientError reports whether err was caused by the caller's input
func IsClientError(err error) bool {
	switch KindOf(err) {
	case KindUnauthenticated, KindInvalidInput:
		return true
	}
	return false
}
