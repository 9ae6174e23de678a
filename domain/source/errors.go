package source

import (
	"errors"
	"fmt"
)

var (
	// ErrEnumeration marks a platform listing failure.
	ErrEnumeration = errors.New("source: enumeration failed")
	// ErrSourceNotFound marks an id that no longer resolves to a live source.
	ErrSourceNotFound = errors.New("source: not found")
	// ErrUnsupported is returned by backends that cannot serve a kind on this platform.
	ErrUnsupported = errors.New("source: unsupported on this platform")
)

// EnumerationError reports which kind failed to enumerate.
type EnumerationError struct {
	Kind Kind
	Err  error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("source: enumerate %s: %v", e.Kind, e.Err)
}

func (e *EnumerationError) Unwrap() error { return e.Err }

func (e *EnumerationError) Is(target error) bool { return target == ErrEnumeration }

// NotFoundError carries the stale id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("source: %s no longer available", e.ID) }

func (e *NotFoundError) Is(target error) bool { return target == ErrSourceNotFound }
