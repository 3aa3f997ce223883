package backend

import (
	"errors"
	"fmt"
)

// Kind classifies a gateway failure. Every operation on the Client fails
// with exactly one of these.
type Kind string

const (
	// Unauthenticated means no valid credential was available or the
	// backend rejected the one presented. Never retried automatically.
	Unauthenticated Kind = "unauthenticated"
	// NotFound means the referenced session no longer exists.
	NotFound Kind = "not_found"
	// ValidationError means the backend rejected the request as malformed.
	ValidationError Kind = "validation_error"
	// ServerError covers backend-side failures (non-2xx other than the above).
	ServerError Kind = "server_error"
	// NetworkError covers transport failures before a response was decoded.
	NetworkError Kind = "network_error"
)

// Error is the single failure shape surfaced by the gateway.
type Error struct {
	Kind   Kind
	Status int // HTTP status when one was received, else 0
	Detail string
	err    error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.err
}

// Message returns the backend-provided detail when available, falling back
// to a generic description suitable for display.
func (e *Error) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	switch e.Kind {
	case Unauthenticated:
		return "Not authenticated"
	case NotFound:
		return "Session not found"
	case NetworkError:
		return "Could not reach the analysis service"
	default:
		if e.Status > 0 {
			return fmt.Sprintf("API error: %d", e.Status)
		}
		return "Unknown error"
	}
}

// IsKind reports whether err carries the given gateway failure kind.
func IsKind(err error, kind Kind) bool {
	var be *Error
	return errors.As(err, &be) && be.Kind == kind
}

// kindForStatus maps an HTTP status to a failure kind.
func kindForStatus(status int) Kind {
	switch {
	case status == 401 || status == 403:
		return Unauthenticated
	case status == 404:
		return NotFound
	case status == 400 || status == 422:
		return ValidationError
	default:
		return ServerError
	}
}
