package catalog

import (
	"errors"
	"fmt"
)

// Kind classifies a failed fetch.
type Kind int

const (
	// TransportFailure: dial error, timeout or non-2xx status. Triggers
	// mirror failover.
	TransportFailure Kind = iota + 1
	// EmptyResponse: 2xx with a blank body. Not retried.
	EmptyResponse
	// MalformedEnvelope: the body does not have the shape the schema
	// promises. Not retried.
	MalformedEnvelope
	// EmptyResult: a detail fetch normalized to zero items.
	EmptyResult
	// Cancelled calls are silent; no callback ever sees this kind.
	Cancelled
)

// Sentinel errors matched by errors.Is against an *Error of the same kind.
var (
	ErrTransport         = errors.New("transport failure")
	ErrEmptyResponse     = errors.New("empty response")
	ErrMalformedEnvelope = errors.New("malformed envelope")
	ErrEmptyResult       = errors.New("empty result")
	ErrCancelled         = errors.New("cancelled")
)

func (k Kind) String() string {
	switch k {
	case TransportFailure:
		return "transport_failure"
	case EmptyResponse:
		return "empty_response"
	case MalformedEnvelope:
		return "malformed_envelope"
	case EmptyResult:
		return "empty_result"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case TransportFailure:
		return ErrTransport
	case EmptyResponse:
		return ErrEmptyResponse
	case MalformedEnvelope:
		return ErrMalformedEnvelope
	case EmptyResult:
		return ErrEmptyResult
	case Cancelled:
		return ErrCancelled
	default:
		return nil
	}
}

// Error is the failure reported to a Callback.
type Error struct {
	Kind     Kind
	Provider string
	URL      string
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Provider, e.Kind.sentinel())
	if e.URL != "" {
		msg += " (" + e.URL + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of e's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf returns the kind carried by err, if any.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

func newError(kind Kind, provider, url string, err error) *Error {
	return &Error{Kind: kind, Provider: provider, URL: url, Err: err}
}
