package api

import (
	"errors"
	"fmt"
)

// Kind classifies a failed call.
type Kind string

const (
	KindTransport    Kind = "transport"    // server unreachable, timeout, canceled
	KindValidation   Kind = "validation"   // 400
	KindUnauthorized Kind = "unauthorized" // 401
	KindForbidden    Kind = "forbidden"    // 403
	KindNotFound     Kind = "not_found"    // 404
	KindServer       Kind = "server"       // 5xx and anything unexpected
	KindDecode       Kind = "decode"       // 2xx with a body that does not parse
)

// Error is the only error type returned by Client methods.
type Error struct {
	Kind    Kind
	Status  int    // HTTP status, 0 for transport failures
	Message string // server message when one was sent
	Field   string // offending field for validation errors
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("api: %s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("api: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

func IsNotFound(err error) bool     { return KindOf(err) == KindNotFound }
func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }
func IsValidation(err error) bool   { return KindOf(err) == KindValidation }

// MessageOf returns the server's message for err, falling back to
// err.Error().
func MessageOf(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
