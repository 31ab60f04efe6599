package client

import (
	"errors"
	"fmt"
)

// ErrStaleResponse marks a response that was superseded by a later
// request from the same store. It is internal flow control: stores
// discard the response and keep their newer state; callers treat it as
// a successful no-op.
var ErrStaleResponse = errors.New("stale response discarded")

// ValidationError reports a client-side pre-check failure. No request
// is sent when one of these is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// AuthError reports rejected credentials or an expired token.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// RequestError reports a remote call that failed with a server-supplied
// detail message.
type RequestError struct {
	Status  int
	Code    string
	Message string
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// NotFoundError reports an absent entity.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "not found"
}

// userMessage extracts a human-readable message for store error state.
func userMessage(err error) string {
	if err == nil {
		return ""
	}

	var validationErr *ValidationError
	var authErr *AuthError
	var requestErr *RequestError
	var notFoundErr *NotFoundError

	switch {
	case errors.As(err, &validationErr):
		return validationErr.Error()
	case errors.As(err, &authErr):
		return authErr.Message
	case errors.As(err, &requestErr):
		return requestErr.Error()
	case errors.As(err, &notFoundErr):
		return notFoundErr.Error()
	default:
		return "something went wrong, please try again"
	}
}
