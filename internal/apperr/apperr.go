// Package apperr defines Sublarr's closed error-kind taxonomy and the
// propagation rules attached to each kind: which layers see which errors,
// and which are swallowed (logged, not bubbled) by design.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is a closed enum of error categories. New error paths must map onto
// one of these; panics are reserved for truly unexpected programming bugs.
type Kind string

const (
	// Configuration errors stop startup; they are never retried.
	Configuration Kind = "configuration"
	// TransientExternal errors (provider timeouts, 5xx, rate limiting) are
	// retried with backoff; providers' rate-limit signaling is inconsistent
	// enough that Sublarr treats any of these uniformly rather than trying
	// to special-case status codes per provider.
	TransientExternal Kind = "transient_external"
	// PermanentExternal errors (404, malformed response) are not retried;
	// the caller blacklists the candidate and moves on.
	PermanentExternal Kind = "permanent_external"
	// ContentInvalid errors mean a parsed artifact (subtitle file, metadata
	// payload) failed validation; never retried, always logged with context.
	ContentInvalid Kind = "content_invalid"
	// Contention errors are claim races on a per-item transition; the loser
	// simply backs off, it is not a failure of the item itself.
	Contention Kind = "contention"
	// Internal errors are bugs: the only kind that surfaces to the
	// scheduler's last_error field for operator visibility.
	Internal Kind = "internal"
)

// Error wraps an underlying error with a Kind.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps err with kind. A nil err returns nil.
func New(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Newf builds a new apperr.Error from a format string.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the Kind from err, defaulting to Internal for errors that
// were never classified — an unclassified error is, by definition, one the
// code didn't anticipate.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// IsRetryable reports whether err's kind warrants a retry with backoff.
func IsRetryable(err error) bool {
	return KindOf(err) == TransientExternal
}
