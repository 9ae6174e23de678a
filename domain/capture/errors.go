package capture

import (
	"errors"
	"fmt"
	"time"

	"github.com/soocke/sliceview/domain/source"
)

var (
	// ErrSourceNotFound aliases the source package sentinel so callers can
	// match either.
	ErrSourceNotFound = source.ErrSourceNotFound
	// ErrCaptureDenied marks a platform refusal. Not retried automatically.
	ErrCaptureDenied = errors.New("capture: access denied")
	// ErrMetadataTimeout marks a session whose first frame did not arrive in time.
	ErrMetadataTimeout = errors.New("capture: metadata timeout")
	// ErrSessionClosed is returned when opening a closed session.
	ErrSessionClosed = errors.New("capture: session closed")
	// ErrAlreadyOpen is returned by a second Open on the same session.
	ErrAlreadyOpen = errors.New("capture: session already opened")
)

// SourceNotFoundError reports an id that no longer resolves.
type SourceNotFoundError struct {
	SourceID string
	Err      error
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("capture: source %s not found", e.SourceID)
}

func (e *SourceNotFoundError) Unwrap() error { return e.Err }

func (e *SourceNotFoundError) Is(target error) bool { return target == ErrSourceNotFound }

// CaptureDeniedError reports a refused capture.
type CaptureDeniedError struct {
	SourceID string
	Err      error
}

func (e *CaptureDeniedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("capture: access to %s denied", e.SourceID)
	}
	return fmt.Sprintf("capture: access to %s denied: %v", e.SourceID, e.Err)
}

func (e *CaptureDeniedError) Unwrap() error { return e.Err }

func (e *CaptureDeniedError) Is(target error) bool { return target == ErrCaptureDenied }

// MetadataTimeoutError reports how long the session waited for its first frame.
type MetadataTimeoutError struct {
	SourceID string
	Waited   time.Duration
}

func (e *MetadataTimeoutError) Error() string {
	return fmt.Sprintf("capture: no metadata for %s after %v", e.SourceID, e.Waited)
}

func (e *MetadataTimeoutError) Is(target error) bool { return target == ErrMetadataTimeout }
