package backend

import (
	"errors"
	"fmt"
)

// Kind classifies how a request failed.
type Kind int

const (
	// KindTransport covers network failures, timeouts and unreadable bodies.
	KindTransport Kind = iota + 1
	// KindHTTP covers non-2xx responses.
	KindHTTP
	// KindApplication covers 2xx responses carrying success=false.
	KindApplication
	// KindLocal covers failures before anything is sent, such as an
	// unreadable file.
	KindLocal
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindHTTP:
		return "http"
	case KindApplication:
		return "application"
	case KindLocal:
		return "local"
	default:
		return "unknown"
	}
}

// Error is returned by every Client method that fails.
type Error struct {
	Kind       Kind
	Op         string
	StatusCode int
	Message    string // server-supplied, may be empty
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindTransport:
		return fmt.Sprintf("%s: transport failure: %v", e.Op, e.Err)
	case KindHTTP:
		return fmt.Sprintf("%s: http %d: %s", e.Op, e.StatusCode, e.Message)
	case KindLocal:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: rejected: %s", e.Op, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// IsTransport reports whether err is a transport-level failure.
func IsTransport(err error) bool {
	var be *Error
	return errors.As(err, &be) && be.Kind == KindTransport
}

// MessageOf returns the server-supplied message carried by err, or fallback
// when there is none. Transport failures never carry one.
func MessageOf(err error, fallback string) string {
	var be *Error
	if errors.As(err, &be) && be.Kind != KindTransport && be.Message != "" {
		return be.Message
	}
	return fallback
}
