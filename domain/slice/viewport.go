package slice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/soocke/sliceview/domain/capture"
	"github.com/soocke/sliceview/domain/geometry"
	"github.com/soocke/sliceview/domain/handoff"
)

var (
	ErrClosed       = errors.New("slice: viewport closed")
	ErrNoRect       = errors.New("slice: no selection delivered")
	ErrUnexpected   = errors.New("slice: unexpected message")
	ErrMoveRejected = errors.New("slice: window move rejected")
)

// Stream is the capture session a viewport owns.
type Stream interface {
	capture.FrameSource
	Open(ctx context.Context, sourceID string) error
	ActiveTracks() int
	Close()
}

// WindowMover repositions the slice window by a relative delta.
type WindowMover interface {
	MoveWindowBy(dx, dy int) error
}

// State is the viewport lifecycle as seen by the slice window.
type State int

const (
	StateWaiting State = iota
	StateOpening
	StateLive
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateOpening:
		return "opening"
	case StateLive:
		return "live"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Frame is one render: the layout plus the frame it applies to.
type Frame struct {
	Layout   Layout
	Snapshot capture.FrameSnapshot
}

// Options configures a Viewport.
type Options struct {
	Stream    Stream
	Mover     WindowMover
	LongPress time.Duration
	Logger    *slog.Logger
}

// Viewport shows one fixed native-space rectangle of a live source. It owns
// its Stream and is driven from the slice window's UI tick.
type Viewport struct {
	stream Stream
	mover  WindowMover
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	opened chan error

	state    State
	sourceID string
	rect     geometry.Rect
	pan      geometry.Point
	pinned   bool
	err      error

	dirty   bool
	queued  int
	lastSeq uint64
	gesture *GestureSelector
}

// NewViewport returns a viewport waiting for its slice-opened message.
func NewViewport(opts Options) *Viewport {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Viewport{
		stream:  opts.Stream,
		mover:   opts.Mover,
		logger:  logger.With("component", "slice"),
		ctx:     ctx,
		cancel:  cancel,
		gesture: NewGestureSelector(opts.LongPress),
	}
}

// Deliver accepts a slice-opened envelope and opens the stream. It is the
// receiver for a handoff.Mailbox. Repeated deliveries are ignored.
func (v *Viewport) Deliver(env handoff.Envelope) error {
	if v.state == StateClosed {
		return ErrClosed
	}
	msg, err := env.Decode()
	if err != nil {
		return err
	}
	opened, ok := msg.(handoff.SliceOpened)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnexpected, env.Kind)
	}
	if v.state != StateWaiting {
		v.logger.Debug("duplicate slice-opened ignored", "flow", env.FlowID)
		return nil
	}
	if v.stream == nil {
		return errors.New("slice: viewport has no stream")
	}
	v.sourceID = opened.SourceID
	v.rect = opened.SelectionRect
	v.state = StateOpening
	v.opened = make(chan error, 1)
	v.logger.Info("slice opening", "flow", env.FlowID, "source", v.sourceID, "rect", v.rect.String())

	stream, ctx, done := v.stream, v.ctx, v.opened
	go func() { done <- stream.Open(ctx, opened.SourceID) }()
	return nil
}

// Tick advances the lifecycle and returns a frame to draw when one is due:
// a queued render, a render request or a new capture.
func (v *Viewport) Tick() (Frame, bool) {
	switch v.state {
	case StateOpening:
		v.pollOpen()
		if v.state != StateOpening {
			break
		}
		st := v.stream.Status()
		switch {
		case st.State == capture.StateFailed:
			v.failWith(st.Err)
		case st.Ready():
			v.state = StateLive
			v.err = nil
			v.logger.Info("slice live", "native_width", st.Metadata.NativeWidth, "native_height", st.Metadata.NativeHeight, "replayed_renders", v.queued)
		case st.Err != nil:
			// overdue metadata stays visible while waiting
			v.err = st.Err
		}
	case StateLive:
		if st := v.stream.Status(); st.State == capture.StateFailed {
			v.failWith(st.Err)
		}
	}
	if v.state != StateLive {
		return Frame{}, false
	}
	snap := v.stream.LatestFrame()
	if snap.Image == nil {
		return Frame{}, false
	}
	if !v.dirty && snap.Sequence == v.lastSeq {
		return Frame{}, false
	}
	v.dirty = false
	v.queued = 0
	v.lastSeq = snap.Sequence
	return Frame{Layout: v.Layout(), Snapshot: snap}, true
}

func (v *Viewport) pollOpen() {
	select {
	case err := <-v.opened:
		if err != nil {
			v.failWith(err)
		}
	default:
	}
}

func (v *Viewport) failWith(err error) {
	if err == nil {
		err = errors.New("slice: capture failed")
	}
	v.state = StateFailed
	v.err = err
	v.logger.Warn("slice capture failed", "source", v.sourceID, "error", err)
}

// RequestRender asks for a redraw on the next tick. Before the stream is live
// the request is queued and replayed once it is. It reports whether the
// request was queued.
func (v *Viewport) RequestRender() bool {
	if v.state == StateClosed {
		return false
	}
	v.dirty = true
	if v.state != StateLive {
		v.queued++
		return true
	}
	return false
}

// Queued reports whether a render is waiting for the stream.
func (v *Viewport) Queued() bool { return v.dirty && v.state != StateLive }

// Layout is the current layout. Without pan it depends only on the rect.
func (v *Viewport) Layout() Layout { return LayoutFor(v.rect, v.pan) }

// Refresh re-applies the layout.
func (v *Viewport) Refresh() Layout {
	v.RequestRender()
	return v.Layout()
}

// Reset clears pan and re-applies the layout.
func (v *Viewport) Reset() Layout {
	v.pan = geometry.Point{}
	v.RequestRender()
	return v.Layout()
}

// TogglePin flips the pinned indicator. It has no effect on geometry.
func (v *Viewport) TogglePin() bool {
	v.pinned = !v.pinned
	v.logger.Debug("slice pin", "pinned", v.pinned)
	return v.pinned
}

func (v *Viewport) Pinned() bool { return v.pinned }

// Pan translates the rendered content. The selection is untouched.
func (v *Viewport) Pan(dx, dy int) {
	if dx == 0 && dy == 0 {
		return
	}
	v.pan.X += dx
	v.pan.Y += dy
	v.RequestRender()
}

// PanOffset is the accumulated pan translation.
func (v *Viewport) PanOffset() geometry.Point { return v.pan }

// MoveBy moves the window by a relative delta. The selection and layout are
// never changed.
func (v *Viewport) MoveBy(dx, dy int) error {
	if v.state == StateClosed {
		return ErrClosed
	}
	if v.mover == nil {
		return ErrMoveRejected
	}
	if err := v.mover.MoveWindowBy(dx, dy); err != nil {
		return fmt.Errorf("%w: %v", ErrMoveRejected, err)
	}
	return nil
}

// PointerDown starts a pan or move gesture.
func (v *Viewport) PointerDown(b Button, p geometry.Point, at time.Time) {
	v.gesture.Down(b, p, at)
}

// PointerMove routes the drag to Pan or MoveBy depending on the gesture mode.
func (v *Viewport) PointerMove(p geometry.Point, at time.Time) GestureMode {
	mode, dx, dy := v.gesture.Move(p, at)
	switch mode {
	case GesturePan:
		v.Pan(dx, dy)
	case GestureMove:
		if dx != 0 || dy != 0 {
			if err := v.MoveBy(dx, dy); err != nil {
				v.logger.Debug("slice move", "error", err)
			}
		}
	}
	return mode
}

// PointerUp ends the gesture.
func (v *Viewport) PointerUp() GestureMode { return v.gesture.Up() }

// Rect is the delivered native-space selection.
func (v *Viewport) Rect() geometry.Rect { return v.rect }

func (v *Viewport) SourceID() string { return v.sourceID }

func (v *Viewport) State() State { return v.state }

// Err is the failure or overdue-metadata error scoped to this viewport.
func (v *Viewport) Err() error { return v.err }

// ActiveTracks reports the owned stream's live tracks.
func (v *Viewport) ActiveTracks() int {
	if v.stream == nil {
		return 0
	}
	return v.stream.ActiveTracks()
}

// StatusText is a short human-readable status line.
func (v *Viewport) StatusText() string {
	switch v.state {
	case StateWaiting:
		return "Waiting for selection"
	case StateOpening:
		if v.err != nil {
			return "Waiting for source: " + v.err.Error()
		}
		return "Opening source"
	case StateLive:
		if v.pinned {
			return fmt.Sprintf("Pinned %dx%d", v.rect.Width, v.rect.Height)
		}
		return fmt.Sprintf("Live %dx%d", v.rect.Width, v.rect.Height)
	case StateFailed:
		return "Capture error: " + v.err.Error()
	default:
		return "Closed"
	}
}

// Close releases the stream synchronously. It is idempotent.
func (v *Viewport) Close() {
	if v.state == StateClosed {
		return
	}
	v.state = StateClosed
	v.cancel()
	if v.stream != nil {
		v.stream.Close()
	}
	v.dirty = false
	v.logger.Info("slice closed", "source", v.sourceID)
}
