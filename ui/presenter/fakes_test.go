package presenter

import (
	"context"
	"image"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/soocke/sliceview/domain/capture"
	"github.com/soocke/sliceview/ui/input"
)

var discardLogger = slog.New(slog.NewTextHandler(&discardWriter{}, nil))

type discardWriter struct{}

func (d *discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// fakeStream becomes ready with meta once Open succeeds.
type fakeStream struct {
	mu       sync.Mutex
	openErr  error
	meta     capture.Metadata
	never    bool
	overdue  error
	opened   int
	closed   int
	sequence uint64
	frame    *image.RGBA
}

func (s *fakeStream) Open(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened++
	return s.openErr
}

func (s *fakeStream) Status() capture.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.closed > 0:
		return capture.Status{State: capture.StateClosed}
	case s.opened == 0:
		return capture.Status{State: capture.StateIdle}
	case s.openErr != nil:
		return capture.Status{State: capture.StateFailed, Err: s.openErr}
	case s.never:
		return capture.Status{State: capture.StateOpening, Err: s.overdue}
	}
	return capture.Status{State: capture.StateReady, Metadata: s.meta}
}

func (s *fakeStream) LatestFrame() capture.FrameSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame == nil || s.opened == 0 || s.never {
		return capture.FrameSnapshot{}
	}
	s.sequence++
	return capture.FrameSnapshot{Image: s.frame, Sequence: s.sequence, CapturedAt: time.Now()}
}

func (s *fakeStream) ActiveTracks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opened > 0 && s.closed == 0 && s.openErr == nil {
		return 1
	}
	return 0
}

func (s *fakeStream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
}

func (s *fakeStream) counts() (opened, closed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened, s.closed
}

// press pushes the event Tk delivers for seq at the screen point (x, y).
func press(t *testing.T, q *input.Queue, seq string, x, y int, at time.Time) {
	t.Helper()
	for _, b := range input.Bindings {
		if b.Sequence == seq {
			if !q.Push(b.Event(x, y, at)) {
				t.Fatalf("%s not queued", seq)
			}
			return
		}
	}
	t.Fatalf("no binding for %s", seq)
}

// closedQueue reports whether q stopped accepting events.
func closedQueue(q *input.Queue) bool { return !q.Push(input.Event{}) }

// waitFor ticks fn until cond holds or the deadline passes.
func waitFor(t *testing.T, tick func(), cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		tick()
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}
