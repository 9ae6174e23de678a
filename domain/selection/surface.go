package selection

import (
	"log/slog"

	"github.com/soocke/sliceview/domain/geometry"
)

// DefaultMinSize is the side length a selection must exceed on both axes.
const DefaultMinSize = 10

// State enumerates the selection surface states.
type State int

const (
	StateIdle State = iota
	StateDragging
	StateCompleted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDragging:
		return "dragging"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Sink receives the single outcome of a surface.
type Sink interface {
	SelectionResolved(res geometry.Resolution)
	SelectionCancelled()
}

// Listener is called on each state transition.
type Listener func(prev, next State)

// Surface turns pointer input in overlay coordinates into one resolved
// selection or one cancellation. It is driven from a single goroutine (the
// owning window's UI loop) and is not safe for concurrent use.
type Surface struct {
	state     State
	anchor    geometry.Point
	rect      geometry.Rect
	minSize   int
	mapping   *geometry.DisplayMapping
	sourceErr error
	settled   bool
	sink      Sink
	logger    *slog.Logger
	listeners []Listener
}

// NewSurface returns an idle surface. minSize < 0 selects DefaultMinSize.
func NewSurface(minSize int, sink Sink, logger *slog.Logger) *Surface {
	if minSize < 0 {
		minSize = DefaultMinSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Surface{minSize: minSize, sink: sink, logger: logger.With("component", "selection")}
}

// AddListener registers a transition listener.
func (s *Surface) AddListener(l Listener) {
	if s == nil || l == nil {
		return
	}
	s.listeners = append(s.listeners, l)
}

// State returns the current state.
func (s *Surface) State() State {
	if s == nil {
		return StateIdle
	}
	return s.state
}

// Rect is the live (dragging) or completed raw rectangle.
func (s *Surface) Rect() geometry.Rect {
	if s == nil {
		return geometry.Rect{}
	}
	return s.rect
}

// CanConfirm reports whether Confirm would emit a selection.
func (s *Surface) CanConfirm() bool { return s != nil && !s.settled && s.state == StateCompleted }

// Settled reports whether an outcome has been emitted.
func (s *Surface) Settled() bool { return s != nil && s.settled }

// SetMapping installs the preview's display mapping once its metadata is known.
func (s *Surface) SetMapping(m geometry.DisplayMapping) {
	if s == nil {
		return
	}
	s.mapping = &m
}

// Mapping returns the installed mapping, or nil before metadata.
func (s *Surface) Mapping() *geometry.DisplayMapping {
	if s == nil {
		return nil
	}
	return s.mapping
}

// SourceError records a preview capture failure for display. Drag state is
// left untouched; nil clears it.
func (s *Surface) SourceError(err error) {
	if s == nil {
		return
	}
	if err != nil && s.sourceErr == nil {
		s.logger.Warn("preview source error", "error", err, "state", s.state.String())
	}
	s.sourceErr = err
}

// Err returns the last recorded source error.
func (s *Surface) Err() error {
	if s == nil {
		return nil
	}
	return s.sourceErr
}

// PointerDown starts a drag at p. A new drag may replace a completed one.
func (s *Surface) PointerDown(p geometry.Point) {
	if s == nil || s.settled || s.state == StateCancelled {
		return
	}
	s.anchor = p
	s.rect = geometry.Rect{X: p.X, Y: p.Y}
	s.transition(StateDragging)
}

// PointerMove updates the live rectangle while dragging.
func (s *Surface) PointerMove(p geometry.Point) {
	if s == nil || s.state != StateDragging {
		return
	}
	s.rect = geometry.FromPoints(s.anchor, p)
}

// PointerUp completes the drag if the rectangle exceeds the minimum size,
// otherwise clears it and returns to idle.
func (s *Surface) PointerUp(p geometry.Point) {
	if s == nil || s.state != StateDragging {
		return
	}
	s.rect = geometry.FromPoints(s.anchor, p)
	if s.rect.Exceeds(s.minSize) {
		s.transition(StateCompleted)
		return
	}
	s.rect = geometry.Rect{}
	s.transition(StateIdle)
}

// Confirm resolves the completed rectangle and emits it. It reports false
// when there is nothing to confirm.
func (s *Surface) Confirm() (geometry.Resolution, bool) {
	if !s.CanConfirm() {
		return geometry.Resolution{}, false
	}
	s.settled = true
	res := geometry.Resolve(s.rect, s.mapping)
	if res.Mode == geometry.ModeDegraded {
		s.logger.Warn("selection resolved without display mapping", "mode", res.Mode.String(), "raw", s.rect.String(), "resolved", res.Rect.String())
	} else {
		s.logger.Info("selection resolved", "mode", res.Mode.String(), "raw", s.rect.String(), "resolved", res.Rect.String(), "out_of_bounds", res.OutOfBounds)
	}
	if s.sink != nil {
		s.sink.SelectionResolved(res)
	}
	return res, true
}

// Cancel moves to cancelled from any state and emits the cancellation. The
// Escape key maps here.
func (s *Surface) Cancel() {
	if s == nil || s.settled {
		return
	}
	s.settled = true
	s.rect = geometry.Rect{}
	s.transition(StateCancelled)
	if s.sink != nil {
		s.sink.SelectionCancelled()
	}
}

// Escape is Cancel bound to the keyboard.
func (s *Surface) Escape() { s.Cancel() }

func (s *Surface) transition(next State) {
	prev := s.state
	if prev == next {
		return
	}
	s.state = next
	s.logger.Debug("selection state transition", "from", prev.String(), "to", next.String())
	for _, l := range s.listeners {
		l(prev, next)
	}
}
