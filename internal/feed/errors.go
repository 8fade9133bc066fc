package feed

import (
	"errors"
	"fmt"
)

var (
	// ErrRepositoryUnavailable matches every failed feed read (transport, timeout, cancellation).
	ErrRepositoryUnavailable = errors.New("post repository unavailable")

	// ErrProfileLookupFailed is reported when the viewer profile could not be read.
	// Targeting then runs without viewer attributes.
	ErrProfileLookupFailed = errors.New("profile lookup failed")

	// ErrSuperseded is returned by a refresh that lost to a newer one.
	ErrSuperseded = errors.New("refresh superseded by a newer refresh")

	ErrUnknownKind = errors.New("unknown feed kind")
)

// FetchError is the failure of a single feed read.
type FetchError struct {
	Kind Kind
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s feed: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{ErrRepositoryUnavailable, e.Err}
}

// DocumentParseError describes a stored post that could not be decoded.
type DocumentParseError struct {
	DocumentID string
	Err        error
}

func (e *DocumentParseError) Error() string {
	return fmt.Sprintf("parse post document %q: %v", e.DocumentID, e.Err)
}

func (e *DocumentParseError) Unwrap() error {
	return e.Err
}
