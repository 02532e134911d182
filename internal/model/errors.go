package model

import "errors"

// Error kinds shared by every layer. Wrap them with context and test with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrExpired         = errors.New("session expired")
	ErrAlreadyAnswered = errors.New("question already answered")
	ErrInvalidInput    = errors.New("invalid input")
)

// KindOf names the error kind of err for logs, metrics and transport
// mapping. Errors outside the known kinds are "internal".
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrAlreadyAnswered):
		return "already_answered"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return "internal"
	}
}
