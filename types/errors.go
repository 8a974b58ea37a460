package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures in the rating pipeline. The kind decides
// whether a call site may retry and which HTTP status the handlers return.
type ErrorKind int

const (
	// KindUnauthorized: missing or expired credential. Terminal; the user
	// must re-authenticate.
	KindUnauthorized ErrorKind = iota
	// KindValidation: malformed or oversized input. Terminal; the user must
	// supply different input.
	KindValidation
	// KindTransient: timeout, connection failure, 5xx. Retryable up to the
	// configured bound, then surfaced.
	KindTransient
	// KindResponseFormat: the model returned something that is not JSON.
	// Terminal, surfaced as a generic failure.
	KindResponseFormat
	// KindPersistence: durable write failed after retries. Masked from the
	// user; the record stays visible and goes to the pending queue.
	KindPersistence
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindValidation:
		return "validation"
	case KindTransient:
		return "transient"
	case KindResponseFormat:
		return "response_format"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// AppError carries a kind alongside the wrapped cause.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewError builds an AppError wrapping cause (cause may be nil).
func NewError(kind ErrorKind, message string, cause error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: cause}
}

// KindOf returns the kind of err, or KindTransient for untyped errors so
// that unknown network-level failures stay retryable.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindTransient
}

// IsRetryable reports whether the rating pipeline may retry after err.
func IsRetryable(err error) bool {
	return KindOf(err) == KindTransient
}
