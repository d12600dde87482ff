package core

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies processing failures
type ErrorKind int

const (
	KindUnexpected ErrorKind = iota
	KindNotWhitelisted
	KindMalformed
	KindNoRecipients
	KindAuthConfig
	KindCompletionFailed
	KindDispatchFailed
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotWhitelisted:
		return "not_whitelisted"
	case KindMalformed:
		return "malformed"
	case KindNoRecipients:
		return "no_recipients"
	case KindAuthConfig:
		return "auth_config"
	case KindCompletionFailed:
		return "completion_failed"
	case KindDispatchFailed:
		return "dispatch_failed"
	default:
		return "unexpected"
	}
}

// StatusCode maps the kind to the HTTP status returned to the webhook caller
func (k ErrorKind) StatusCode() int {
	switch k {
	case KindNotWhitelisted:
		return http.StatusForbidden
	case KindMalformed, KindNoRecipients:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ProcessingError is returned by the reply service for every failed email
type ProcessingError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ProcessingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status for the error
func (e *ProcessingError) StatusCode() int {
	return e.Kind.StatusCode()
}

// NewError creates a processing error of the given kind
func NewError(kind ErrorKind, message string, err error) *ProcessingError {
	return &ProcessingError{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the error kind, defaulting to KindUnexpected
func KindOf(err error) ErrorKind {
	var perr *ProcessingError
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return KindUnexpected
}

// StatusCodeOf returns the HTTP status for any error
func StatusCodeOf(err error) int {
	return KindOf(err).StatusCode()
}
