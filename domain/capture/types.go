package capture

import (
	"image"
	"time"
)

// FrameSnapshot carries the latest captured frame and metadata.
type FrameSnapshot struct {
	Image      *image.RGBA
	CapturedAt time.Time
	Sequence   uint64
}

// CaptureStats summarises capture loop behaviour for instrumentation.
type CaptureStats struct {
	Captures         uint64
	Skipped          uint64
	AvgCapture       time.Duration
	AvgCaptureMicros float64
	LastCapture      time.Time
	LatestFrameAge   time.Duration
	Sequence         uint64
}

// Metadata is the native frame size, known once the first frame lands.
type Metadata struct {
	NativeWidth  int
	NativeHeight int
}

// State is the lifecycle of a Session.
type State int

const (
	StateIdle State = iota
	StateOpening
	StateReady
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpening:
		return "opening"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Status is a point-in-time view of a Session, safe to read from the UI loop.
type Status struct {
	State    State
	SourceID string
	Metadata Metadata
	// Err is the failure for StateFailed, or a *MetadataTimeoutError while
	// an opening session is overdue.
	Err      error
	OpenedAt time.Time
}

// Ready reports whether metadata is available.
func (s Status) Ready() bool { return s.State == StateReady }

// FrameSource provides read-only access to captured frames.
type FrameSource interface {
	LatestFrame() FrameSnapshot
	Status() Status
}

// Recorder receives session telemetry. Implementations must be safe for
// concurrent use.
type Recorder interface {
	SessionOpened()
	SessionClosed()
	FrameCaptured()
	MetadataWait(d time.Duration)
}
