// Package input carries pointer gestures from Tk widget bindings to the
// presenters, and the global capture hotkey from gohook.
//
// Pointer events are bound per widget, so a window only sees gestures that
// started on it. Tk callbacks push into a Queue and the owning presenter
// drains it from its UI tick.
package input

import (
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/soocke/sliceview/domain/geometry"
)

// Kind is the pointer event type.
type Kind int

const (
	PointerDown Kind = iota + 1
	PointerMove
	PointerUp
)

func (k Kind) String() string {
	switch k {
	case PointerDown:
		return "down"
	case PointerMove:
		return "move"
	case PointerUp:
		return "up"
	default:
		return "unknown"
	}
}

// Logical buttons.
const (
	ButtonPrimary   = 1
	ButtonSecondary = 2
)

// Event is one pointer event in screen coordinates.
type Event struct {
	Kind   Kind
	Button int
	X, Y   int
	At     time.Time
}

// Local converts the event to coordinates relative to a window origin.
func (e Event) Local(origin image.Point) geometry.Point {
	return geometry.Point{X: e.X - origin.X, Y: e.Y - origin.Y}
}

// Binding maps a Tk event sequence to a pointer event kind and button.
type Binding struct {
	Sequence string
	Kind     Kind
	Button   int
}

// Event builds the pointer event for a Tk callback at the root position
// (%X, %Y).
func (b Binding) Event(xRoot, yRoot int, at time.Time) Event {
	if at.IsZero() {
		at = time.Now()
	}
	return Event{Kind: b.Kind, Button: b.Button, X: xRoot, Y: yRoot, At: at}
}

// Bindings are the sequences a pointer-driven widget binds. Tk button 3 is
// the secondary button. Motion and release are delivered to the widget that
// took the press, even outside its bounds.
var Bindings = []Binding{
	{Sequence: "<ButtonPress-1>", Kind: PointerDown, Button: ButtonPrimary},
	{Sequence: "<B1-Motion>", Kind: PointerMove, Button: ButtonPrimary},
	{Sequence: "<ButtonRelease-1>", Kind: PointerUp, Button: ButtonPrimary},
	{Sequence: "<ButtonPress-3>", Kind: PointerDown, Button: ButtonSecondary},
	{Sequence: "<B3-Motion>", Kind: PointerMove, Button: ButtonSecondary},
	{Sequence: "<ButtonRelease-3>", Kind: PointerUp, Button: ButtonSecondary},
}

const defaultQueueBuffer = 256

// Queue buffers the pointer events of one widget until its presenter drains
// them. Pushes after Close are dropped.
type Queue struct {
	mu      sync.Mutex
	ch      chan Event
	closed  bool
	dropped atomic.Uint64
}

// NewQueue returns a queue holding up to buffer events.
func NewQueue(buffer int) *Queue {
	if buffer < 1 {
		buffer = defaultQueueBuffer
	}
	return &Queue{ch: make(chan Event, buffer)}
}

// Push queues ev without blocking. It reports false when the queue is full
// or closed.
func (q *Queue) Push(ev Event) bool {
	if q == nil {
		return false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	select {
	case q.ch <- ev:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// Events is the channel the presenter drains.
func (q *Queue) Events() <-chan Event {
	if q == nil {
		return nil
	}
	return q.ch
}

// Close ends the queue. It is idempotent.
func (q *Queue) Close() {
	if q == nil {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
}

// Dropped counts events discarded because the queue was full.
func (q *Queue) Dropped() uint64 {
	if q == nil {
		return 0
	}
	return q.dropped.Load()
}

// Drain hands queued events to fn without blocking.
func Drain(ch <-chan Event, fn func(Event)) {
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			fn(ev)
		default:
			return
		}
	}
}
