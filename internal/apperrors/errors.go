package apperrors

import (
	"errors"
	"fmt"

	"github.com/samber/oops"
)

// Error codes attached to errors built with oops
const (
	CodeUnauthorized = "UNAUTHORIZED"
	CodeInternal     = "INTERNAL"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")
	ErrForbidden         = errors.New("forbidden")

	// Every auth failure matches ErrUnauthorized with errors.Is
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	ErrTokenExpired       = fmt.Errorf("%w: token expired", ErrUnauthorized)
	ErrTokenMalformed     = fmt.Errorf("%w: token malformed", ErrUnauthorized)
	ErrTokenTypeMismatch  = fmt.Errorf("%w: token type mismatch", ErrUnauthorized)
	ErrTokenSubject       = fmt.Errorf("%w: token subject missing or invalid", ErrUnauthorized)
)

// Unauthorized wraps an auth failure so that only the public message reaches clients.
// The cause stays in the chain for errors.Is and for logs.
func Unauthorized(cause error, public string) error {
	return oops.
		Code(CodeUnauthorized).
		Public(public).
		Wrap(cause)
}

// Internal wraps infrastructure failures (database, signing) with a context for logs
func Internal(cause error, operation string) error {
	return oops.
		Code(CodeInternal).
		With("operation", operation).
		Wrap(cause)
}

// PublicMessage returns the message safe to show to clients or fallback if there is none
func PublicMessage(err error, fallback string) string {
	return oops.GetPublic(err, fallback)
}

// LogAttrs flattens err into key-value pairs for the structured logger
func LogAttrs(err error) []any {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return []any{"error", err}
	}

	attrs := []any{"error", oopsErr.Error()}
	if code := oopsErr.Code(); code != nil {
		attrs = append(attrs, "code", code)
	}
	if ctx := oopsErr.Context(); len(ctx) > 0 {
		attrs = append(attrs, "context", ctx)
	}

	return attrs
}
