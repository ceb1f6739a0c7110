package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so the pipeline and search layers can decide
// whether to retry, skip, or degrade.
type ErrorKind string

const (
	ErrKindTransport    ErrorKind = "transport"
	ErrKindHTTP         ErrorKind = "http"
	ErrKindParse        ErrorKind = "parse"
	ErrKindStore        ErrorKind = "store"
	ErrKindEmbedding    ErrorKind = "embedding"
	ErrKindValidation   ErrorKind = "validation"
	ErrKindNotAvailable ErrorKind = "not_available"
)

// Error is the error type carried across subsystem boundaries. StatusCode is
// set for HTTP failures only.
type Error struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on kind so callers can test errors.Is(err, &Error{Kind: ...}).
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

func NewTransportError(msg string, err error) *Error {
	return &Error{Kind: ErrKindTransport, Message: msg, Err: err}
}

func NewHTTPError(msg string, statusCode int) *Error {
	return &Error{Kind: ErrKindHTTP, Message: msg, StatusCode: statusCode}
}

func NewParseError(msg string, err error) *Error {
	return &Error{Kind: ErrKindParse, Message: msg, Err: err}
}

func NewStoreError(msg string, err error) *Error {
	return &Error{Kind: ErrKindStore, Message: msg, Err: err}
}

func NewEmbeddingError(msg string, err error) *Error {
	return &Error{Kind: ErrKindEmbedding, Message: msg, Err: err}
}

func NewValidationError(msg string) *Error {
	return &Error{Kind: ErrKindValidation, Message: msg}
}

func NewNotAvailableError(msg string) *Error {
	return &Error{Kind: ErrKindNotAvailable, Message: msg}
}

// KindOf extracts the classification from an error chain, defaulting to
// transport for unclassified errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindTransport
}

// IsRetryableStatus reports whether an HTTP status should be retried.
func IsRetryableStatus(code int) bool {
	switch code {
	case 408, 429, 500, 502, 503, 504:
		return true
	}
	return false
}
