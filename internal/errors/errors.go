// Package errors provides the application error vocabulary. Every failure that
// can surface to a client is expressed as a single tagged Error carrying a kind
// from a closed set and the HTTP status code the response pipeline should use.
// Use cases construct these errors; the pipeline is the only place that turns
// them into HTTP responses.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an Error into the closed set of failure categories the
// response pipeline knows how to render.
type Kind string

const (
	// KindValidation indicates the input data failed schema validation.
	KindValidation Kind = "validation"

	// KindNotAuthorized indicates the caller lacks a valid identity or a
	// required grant for the attempted action.
	KindNotAuthorized Kind = "not_authorized"

	// KindNotFound indicates the requested resource does not exist.
	KindNotFound Kind = "not_found"

	// KindConflict indicates a uniqueness conflict with existing data that is
	// NOT an idempotent relationship retry (e.g. duplicate slug or email).
	KindConflict Kind = "conflict"

	// KindInvalidToken indicates a bearer token failed signature or expiry
	// checks. The identity resolver swallows this kind; it only surfaces when
	// a caller verifies a token explicitly.
	KindInvalidToken Kind = "invalid_token"

	// KindInternal indicates an unexpected failure. Details are logged, never
	// sent to clients.
	KindInternal Kind = "internal"
)

// Error is the canonical application error. Message is safe to show to
// clients; Err holds the underlying cause for server-side logging only.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface with the client-safe message.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes the cause chain to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors by kind, so sentinel-style checks like
// errors.Is(err, &Error{Kind: KindConflict}) work across constructed values.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && (t.Message == "" || t.Message == e.Message)
}

// Validation creates a 400 validation error with an aggregated, readable
// message.
func Validation(message string) *Error {
	return &Error{
		Kind:       KindValidation,
		StatusCode: http.StatusBadRequest,
		Message:    message,
	}
}

// NotAuthorized creates a 401 error for missing identity or denied actions.
func NotAuthorized() *Error {
	return &Error{
		Kind:       KindNotAuthorized,
		StatusCode: http.StatusUnauthorized,
		Message:    "You are not authorized to perform this action. Please authenticate and try again.",
	}
}

// ResourceNotFound creates the standard missing-resource error. It renders
// with a 400 status: an unknown id in this API is treated as a bad query, not
// a routing failure.
func ResourceNotFound(resource, identifier string) *Error {
	return &Error{
		Kind:       KindNotFound,
		StatusCode: http.StatusBadRequest,
		Message: fmt.Sprintf(
			"Cannot find %q with id %q. Please change your query and try again.",
			resource, identifier,
		),
	}
}

// Conflict creates a 400 error for uniqueness conflicts that must surface
// (duplicate slug, duplicate email). Idempotent relationship retries never
// reach this constructor; they are swallowed by the conflict classifier.
func Conflict(message string) *Error {
	return &Error{
		Kind:       KindConflict,
		StatusCode: http.StatusBadRequest,
		Message:    message,
	}
}

// InvalidToken creates a 401 error for tokens failing signature, issuer or
// expiry checks.
func InvalidToken(cause error) *Error {
	return &Error{
		Kind:       KindInvalidToken,
		StatusCode: http.StatusUnauthorized,
		Message:    "The provided token is invalid or has expired. Please authenticate again.",
		Err:        cause,
	}
}

// Internal wraps an unexpected failure. The cause is kept for logging; the
// client message stays generic.
func Internal(cause error) *Error {
	return &Error{
		Kind:       KindInternal,
		StatusCode: http.StatusInternalServerError,
		Message:    "An internal error occurred. Please try again later.",
		Err:        cause,
	}
}

// Wrap wraps an error with additional context while preserving the error
// chain. Use this to add context at each layer without losing the tagged
// error underneath.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// KindOf reports the kind of err, or KindInternal when err carries no tagged
// Error in its chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// StatusCode reports the HTTP status declared by err, defaulting to 500 for
// undeclared errors.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) && e.StatusCode != 0 {
		return e.StatusCode
	}
	return http.StatusInternalServerError
}

// ClientMessage reports the message safe to render to a client. Untagged
// errors collapse to a generic message so driver or library text never leaks.
func ClientMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "An internal error occurred. Please try again later."
}

// Is reports whether any error in err's tree matches target.
// This is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
// This is a convenience wrapper around errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}
