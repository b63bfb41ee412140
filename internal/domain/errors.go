package domain

import (
	"errors"
	"net/http"
)

// Error kinds. Every failure surfaced to a client wraps exactly one of these.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrTransport         = errors.New("transport failure")
	ErrExtraction        = errors.New("extraction failure")
	ErrCapabilityMissing = errors.New("capability missing")
)

// Error pairs an error kind with the message shown to clients.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
		return e.Kind.Error() + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Kind.Error() + ": " + e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// NewError builds an Error of the given kind. err may be nil.
func NewError(kind error, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Message returns the client-facing text for err.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}

// StatusCode maps an error to the HTTP status clients receive.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrTransport), errors.Is(err, ErrExtraction):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// IsUpstreamFailure reports whether err came from fetching or parsing an
// upstream source, the two cases eligible for stale fallback.
func IsUpstreamFailure(err error) bool {
	return errors.Is(err, ErrTransport) || errors.Is(err, ErrExtraction)
}
