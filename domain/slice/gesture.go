package slice

import (
	"time"

	"github.com/soocke/sliceview/domain/geometry"
)

// Button identifies the pointer button that started a gesture.
type Button int

const (
	ButtonPrimary   Button = 1
	ButtonSecondary Button = 2
)

// GestureMode is what a drag inside the slice does.
type GestureMode int

const (
	GestureUndecided GestureMode = iota
	GesturePan
	GestureMove
	GestureIgnored
)

func (m GestureMode) String() string {
	switch m {
	case GesturePan:
		return "pan"
	case GestureMove:
		return "move"
	case GestureIgnored:
		return "ignored"
	default:
		return "undecided"
	}
}

// DefaultLongPress is how long the secondary button must be held before a
// drag moves the window.
const DefaultLongPress = 400 * time.Millisecond

// GestureSelector picks exactly one mode per gesture. A primary drag pans.
// A secondary drag moves the window only after a long press; moving earlier
// ignores the whole gesture.
type GestureSelector struct {
	longPress time.Duration

	active bool
	button Button
	downAt time.Time
	last   geometry.Point
	mode   GestureMode
}

// NewGestureSelector returns a selector; longPress <= 0 uses DefaultLongPress.
func NewGestureSelector(longPress time.Duration) *GestureSelector {
	if longPress <= 0 {
		longPress = DefaultLongPress
	}
	return &GestureSelector{longPress: longPress}
}

// Down begins a gesture.
func (g *GestureSelector) Down(b Button, p geometry.Point, at time.Time) {
	g.active = true
	g.button = b
	g.downAt = at
	g.last = p
	g.mode = GestureUndecided
}

// Move returns the gesture mode and the incremental delta since the last
// event. The mode is fixed at the first move.
func (g *GestureSelector) Move(p geometry.Point, at time.Time) (GestureMode, int, int) {
	if !g.active {
		return GestureIgnored, 0, 0
	}
	if g.mode == GestureUndecided {
		g.mode = g.decide(at)
	}
	dx, dy := p.X-g.last.X, p.Y-g.last.Y
	g.last = p
	if g.mode == GestureIgnored {
		return GestureIgnored, 0, 0
	}
	return g.mode, dx, dy
}

// Up ends the gesture and returns the mode it ran in.
func (g *GestureSelector) Up() GestureMode {
	mode := g.mode
	g.active = false
	g.mode = GestureUndecided
	return mode
}

// Mode is the decided mode of the current gesture.
func (g *GestureSelector) Mode() GestureMode { return g.mode }

func (g *GestureSelector) decide(at time.Time) GestureMode {
	switch g.button {
	case ButtonPrimary:
		return GesturePan
	case ButtonSecondary:
		if at.Sub(g.downAt) >= g.longPress {
			return GestureMove
		}
	}
	return GestureIgnored
}
