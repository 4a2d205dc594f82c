// Package failure turns errors into the human-readable reasons shown to users.
package failure

import (
	"errors"
	"strings"

	"github.com/five82/shelf/internal/bookapi"
)

// Kind classifies why an operation failed.
type Kind int

const (
	// Validation failures are caught before any request is sent.
	Validation Kind = iota
	// Unauthenticated means the server rejected the credential (401).
	Unauthenticated
	// Rejected covers every other 4xx/5xx response.
	Rejected
	// Transport means no usable response arrived.
	Transport
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Unauthenticated:
		return "unauthenticated"
	case Rejected:
		return "rejected"
	case Transport:
		return "transport"
	default:
		return "unknown"
	}
}

// Failure is an operation outcome carrying a reason fit for display.
type Failure struct {
	Kind   Kind
	Reason string
	Err    error
}

func (f *Failure) Error() string {
	return f.Reason
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Invalid builds a validation failure.
func Invalid(reason string) *Failure {
	return &Failure{Kind: Validation, Reason: reason}
}

// From classifies err. Server messages are used verbatim when present;
// otherwise fallback is the reason.
func From(err error, fallback string) *Failure {
	if err == nil {
		return nil
	}
	var existing *Failure
	if errors.As(err, &existing) {
		return existing
	}
	var apiErr *bookapi.APIError
	if errors.As(err, &apiErr) {
		reason := fallback
		if msg := strings.TrimSpace(apiErr.Message); msg != "" {
			reason = msg
		}
		kind := Rejected
		if bookapi.IsUnauthorized(apiErr.Status) {
			kind = Unauthenticated
		}
		return &Failure{Kind: kind, Reason: reason, Err: err}
	}
	return &Failure{Kind: Transport, Reason: fallback, Err: err}
}

// KindOf reports the kind of err, or Transport when err is not a Failure.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return Transport
}

// Reason returns err's display reason, or fallback when err carries none.
func Reason(err error, fallback string) string {
	if err == nil {
		return ""
	}
	return From(err, fallback).Reason
}
