// Package entity defines the core domain entities for feed reconstruction:
// Feed, Blog, and Post, along with the error kinds raised while producing
// them.
package entity

import (
	"errors"
	"fmt"
)

// Kind identifies one of the distinguishable error categories a reconstruction
// run can raise. Callers use errors.Is/errors.As against a *Error with the
// matching Kind rather than string-matching messages.
type Kind string

const (
	// KindUnknownFeedType means the fetched bytes don't parse as RSS or Atom.
	KindUnknownFeedType Kind = "unknown_feed_type"
	// KindFetchTransport means a direct fetch exhausted retries, or the proxy
	// returned a status >= 400.
	KindFetchTransport Kind = "fetch_transport"
	// KindFetchRedirect means the proxy returned a 3xx status.
	KindFetchRedirect Kind = "fetch_redirect"
	// KindExtractionFailed means the article extractor produced nothing usable.
	KindExtractionFailed Kind = "extraction_failed"
	// KindConflict means a reconstruction targeted an existing Feed without
	// is_update.
	KindConflict Kind = "conflict"
	// KindParseArgument means a command-line argument (typically a date) was
	// ill-formed.
	KindParseArgument Kind = "parse_argument"
)

// Error is the concrete error type for all pipeline failures that need to be
// distinguished by kind. URL carries the feed or article URL in play, if any.
type Error struct {
	Kind Kind
	Op   string
	URL  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.URL != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s (%s): %v", e.Op, e.Kind, e.URL, e.Err)
	case e.URL != "":
		return fmt.Sprintf("%s: %s (%s)", e.Op, e.Kind, e.URL)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, so callers can
// write errors.Is(err, &entity.Error{Kind: entity.KindConflict}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind == "" {
		return false
	}
	return t.Kind == e.Kind
}

// NewError builds an *Error for the given kind.
func NewError(kind Kind, op, url string, err error) *Error {
	return &Error{Kind: kind, Op: op, URL: url, Err: err}
}

// IsKind reports whether err (or anything it wraps) is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}
