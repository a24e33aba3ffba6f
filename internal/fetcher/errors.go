package fetcher

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies adapter failures.
type Kind int

const (
	KindUnavailable Kind = iota
	KindTimeout
	KindNotFound
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindNotFound:
		return "not_found"
	case KindMalformed:
		return "malformed"
	default:
		return "unavailable"
	}
}

// Error is an adapter failure. Err carries the internal cause and must not
// be shown to users; use SafeMessage instead.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "fetch " + e.Kind.String()
	}
	return fmt.Sprintf("fetch %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// SafeMessage is the user-facing description of the failure.
func (e *Error) SafeMessage() string {
	switch e.Kind {
	case KindTimeout:
		return "court portal did not respond in time"
	case KindNotFound:
		return "no case found matching the given details"
	case KindMalformed:
		return "court portal returned an unreadable response"
	default:
		return "case details could not be fetched"
	}
}

func NotFound(err error) *Error    { return &Error{Kind: KindNotFound, Err: err} }
func Timeout(err error) *Error     { return &Error{Kind: KindTimeout, Err: err} }
func Malformed(err error) *Error   { return &Error{Kind: KindMalformed, Err: err} }
func Unavailable(err error) *Error { return &Error{Kind: KindUnavailable, Err: err} }

// Classify converts any error returned by an adapter into *Error. Context
// deadlines become timeouts; unknown errors become unavailable.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var ferr *Error
	if errors.As(err, &ferr) {
		return ferr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout(err)
	}
	return Unavailable(err)
}
