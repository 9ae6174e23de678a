package app

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soocke/sliceview/domain/geometry"
	"github.com/soocke/sliceview/domain/handoff"
	"github.com/soocke/sliceview/domain/source"
)

var discardLogger = slog.New(slog.NewTextHandler(&discardWriter{}, nil))

type discardWriter struct{}

func (d *discardWriter) Write(p []byte) (int, error) { return len(p), nil }

type fakeLister struct {
	sources []source.Source
	err     error
}

func (l *fakeLister) List(ctx context.Context, kind source.Kind) ([]source.Source, error) {
	return l.sources, l.err
}

// fakeWindow stands in for an overlay or slice. onClose and onCancel run on
// the first Close or Cancel of a window that has not finished.
type fakeWindow struct {
	ep       handoff.Endpoint
	inbox    <-chan handoff.Envelope
	received []handoff.Envelope
	ticks    int
	done     bool
	closed   int
	cancels  int
	onClose  func()
	onCancel func()
}

func (w *fakeWindow) Tick(time.Time) {
	w.ticks++
	handoff.Drain(w.inbox, func(env handoff.Envelope) { w.received = append(w.received, env) })
}
func (w *fakeWindow) Done() bool { return w.done }
func (w *fakeWindow) Close() {
	w.closed++
	if w.onClose != nil && !w.done {
		w.onClose()
	}
	w.done = true
}
func (w *fakeWindow) Cancel() {
	w.cancels++
	if w.onCancel != nil && !w.done {
		w.onCancel()
	}
	w.done = true
}

type shellSpy struct {
	listings int
	sources  []source.Source
	err      error
	resolved []geometry.Rect
	errors   []string
	status   []string
}

func (s *shellSpy) ShowSources(srcs []source.Source, err error)    { s.listings++; s.sources, s.err = srcs, err }
func (s *shellSpy) OnSelectionResolved(id string, r geometry.Rect) { s.resolved = append(s.resolved, r) }
func (s *shellSpy) OnCaptureError(msg string)                      { s.errors = append(s.errors, msg) }
func (s *shellSpy) SetStatus(text string)                          { s.status = append(s.status, text) }

type hostRecorder struct {
	slices   []int
	failures int
}

func (r *hostRecorder) SlicesOpen(n int)   { r.slices = append(r.slices, n) }
func (r *hostRecorder) EnumerationFailed() { r.failures++ }

type hostFixture struct {
	h        *HostSession
	bus      *handoff.Bus
	shell    *shellSpy
	rec      *hostRecorder
	lister   *fakeLister
	overlays []*fakeWindow
	slices   []*fakeWindow
	near     []image.Point
}

func newHostFixture(t *testing.T) *hostFixture {
	t.Helper()
	f := &hostFixture{bus: handoff.NewBus(nil, discardLogger), shell: &shellSpy{}, rec: &hostRecorder{}, lister: &fakeLister{}}
	var err error
	f.h, err = NewHostSession(HostOptions{
		Lister: f.lister,
		Bus:    f.bus,
		NewOverlay: func(flowID string, ep handoff.Endpoint) (Overlay, error) {
			inbox, err := f.bus.Register(ep, 4)
			if err != nil {
				return nil, err
			}
			w := &fakeWindow{ep: ep, inbox: inbox}
			w.onClose = func() {
				_ = f.bus.Post(flowID, ep, handoff.EndpointHost, handoff.SelectionCancelled{Implicit: true})
				f.bus.Unregister(ep)
			}
			w.onCancel = func() {
				_ = f.bus.Post(flowID, ep, handoff.EndpointHost, handoff.SelectionCancelled{})
				f.bus.Unregister(ep)
			}
			f.overlays = append(f.overlays, w)
			return w, nil
		},
		NewSlice: func(ep handoff.Endpoint, rect geometry.Rect, near image.Point) (Window, error) {
			inbox, err := f.bus.Register(ep, 4)
			if err != nil {
				return nil, err
			}
			w := &fakeWindow{ep: ep, inbox: inbox}
			w.onClose = func() { f.bus.Unregister(ep) }
			f.slices = append(f.slices, w)
			f.near = append(f.near, near)
			return w, nil
		},
		Recorder: f.rec,
		Logger:   discardLogger,
	})
	require.NoError(t, err)
	f.h.SetShell(f.shell)
	return f
}

func (f *hostFixture) tick() { f.h.Tick(time.Now()) }

// resolve posts a selection-resolved from the current overlay.
func (f *hostFixture) resolve(t *testing.T, rect geometry.Rect) {
	t.Helper()
	ov := f.overlays[len(f.overlays)-1]
	require.NotEmpty(t, ov.received)
	target := ov.received[0]
	require.NoError(t, f.bus.Post(target.FlowID, ov.ep, handoff.EndpointHost, handoff.SelectionResolved{
		SourceID: "screen:0:0", SelectionRect: rect, Mode: "precise", Release: geometry.Point{X: 640, Y: 360},
	}))
	ov.done = true
	f.bus.Unregister(ov.ep)
}

func TestHostSession_SourceListing(t *testing.T) {
	f := newHostFixture(t)
	f.lister.sources = []source.Source{{ID: "screen:0:0", Name: "Screen 1", Kind: source.KindScreen}}
	f.h.RequestSourceList(source.KindScreen)
	deadline := time.Now().Add(time.Second)
	for f.shell.listings == 0 && time.Now().Before(deadline) {
		f.tick()
		time.Sleep(time.Millisecond)
	}
	require.Equal(t, 1, f.shell.listings)
	assert.Len(t, f.shell.sources, 1)

	f.lister.err = &source.EnumerationError{Kind: source.KindScreen, Err: errors.New("no display")}
	f.h.RequestSourceList(source.KindScreen)
	for f.shell.listings == 1 && time.Now().Before(deadline.Add(time.Second)) {
		f.tick()
		time.Sleep(time.Millisecond)
	}
	assert.ErrorIs(t, f.shell.err, source.ErrEnumeration)
	assert.Equal(t, 1, f.rec.failures)
}

func TestHostSession_ResolvedOpensSlice(t *testing.T) {
	f := newHostFixture(t)
	require.NoError(t, f.h.RequestCaptureStart("screen:0:0"))
	assert.True(t, f.h.SelectionActive())
	assert.ErrorIs(t, f.h.RequestCaptureStart("screen:0:0"), ErrSelectionInProgress)

	f.tick()
	msg, err := f.overlays[0].received[0].Decode()
	require.NoError(t, err)
	assert.Equal(t, handoff.TargetSelected{SourceID: "screen:0:0"}, msg)

	rect := geometry.Rect{X: 192, Y: 0, Width: 384, Height: 192}
	f.resolve(t, rect)
	f.tick()
	assert.Equal(t, []geometry.Rect{rect}, f.shell.resolved)
	require.Len(t, f.slices, 1)
	assert.Equal(t, image.Pt(640, 360), f.near[0])
	assert.Equal(t, 1, f.h.LiveSlices())
	assert.False(t, f.h.SelectionActive())
	assert.Equal(t, []int{1}, f.rec.slices)

	f.tick()
	require.Len(t, f.slices[0].received, 1)
	sliceMsg, err := f.slices[0].received[0].Decode()
	require.NoError(t, err)
	assert.Equal(t, handoff.SliceOpened{SourceID: "screen:0:0", SelectionRect: rect}, sliceMsg)

	// a second flow opens an independent slice
	require.NoError(t, f.h.RequestCaptureStart("screen:0:0"))
	f.tick()
	f.resolve(t, geometry.Rect{Width: 50, Height: 50})
	f.tick()
	assert.Equal(t, 2, f.h.LiveSlices())

	f.slices[0].Close()
	f.tick()
	assert.Equal(t, 1, f.h.LiveSlices())
	assert.Equal(t, "Slice closed, 1 open", f.shell.status[len(f.shell.status)-1])
}

func TestHostSession_ExactlyOneOutcome(t *testing.T) {
	f := newHostFixture(t)
	require.NoError(t, f.h.RequestCaptureStart("screen:0:0"))
	f.tick()
	flowID := f.overlays[0].received[0].FlowID
	ep := f.overlays[0].ep
	require.NoError(t, f.bus.Post(flowID, ep, handoff.EndpointHost, handoff.SelectionCancelled{}))
	require.NoError(t, f.bus.Post(flowID, ep, handoff.EndpointHost, handoff.SelectionResolved{SelectionRect: geometry.Rect{Width: 20, Height: 20}}))
	f.tick()
	assert.Empty(t, f.slices)
	assert.Equal(t, []string{"Selection cancelled"}, f.shell.status)
}

func TestHostSession_CancelAndAbort(t *testing.T) {
	f := newHostFixture(t)
	f.h.RequestSelectionCancel()

	require.NoError(t, f.h.RequestCaptureStart("window:7:0"))
	f.tick()
	f.h.RequestSelectionCancel()
	f.tick()
	assert.Equal(t, []string{"Selection cancelled"}, f.shell.status)
	assert.False(t, f.h.SelectionActive())
	assert.Equal(t, 1, f.overlays[0].cancels, "shell cancel is a user cancellation")
	assert.Zero(t, f.overlays[0].closed)

	require.NoError(t, f.h.RequestCaptureStart("window:9:0"))
	f.tick()
	ov := f.overlays[1]
	require.NoError(t, f.bus.Post(ov.received[0].FlowID, ov.ep, handoff.EndpointHost, handoff.SelectionCancelled{Reason: "capture: source window:9:0 not found"}))
	ov.done = true
	f.tick()
	assert.Equal(t, []string{"capture: source window:9:0 not found"}, f.shell.errors)
	assert.Empty(t, f.slices)
}

func TestHostSession_CancelBeforeOverlaySawTarget(t *testing.T) {
	f := newHostFixture(t)
	require.NoError(t, f.h.RequestCaptureStart("screen:0:0"))
	f.overlays[0].onCancel = nil
	f.h.RequestSelectionCancel()
	f.h.RequestSelectionCancel()
	f.tick()
	assert.Equal(t, 1, f.overlays[0].cancels)
	assert.Zero(t, f.overlays[0].closed)
	assert.False(t, f.h.SelectionActive())
	assert.Equal(t, []string{"Selection cancelled"}, f.shell.status)
	assert.False(t, f.h.cancelled)
	require.NoError(t, f.h.RequestCaptureStart("screen:0:0"))
}

func TestHostSession_OverlayGoneWithoutOutcome(t *testing.T) {
	f := newHostFixture(t)
	require.NoError(t, f.h.RequestCaptureStart("screen:0:0"))
	f.tick()
	f.overlays[0].onClose = nil
	f.overlays[0].done = true
	f.tick()
	assert.False(t, f.h.SelectionActive())
	assert.Equal(t, []string{"Selection cancelled"}, f.shell.status)
	require.NoError(t, f.h.RequestCaptureStart("screen:0:0"))
}

func TestHostSession_CloseClosesWindows(t *testing.T) {
	f := newHostFixture(t)
	require.NoError(t, f.h.RequestCaptureStart("screen:0:0"))
	f.tick()
	f.resolve(t, geometry.Rect{Width: 40, Height: 40})
	f.tick()
	require.NoError(t, f.h.RequestCaptureStart("screen:0:0"))

	f.h.Close()
	f.h.Close()
	assert.Equal(t, 1, f.slices[0].closed)
	assert.Equal(t, 1, f.overlays[1].closed)
	assert.Zero(t, f.h.LiveSlices())
	assert.ErrorIs(t, f.h.RequestCaptureStart("screen:0:0"), ErrHostClosed)
	assert.Empty(t, f.bus.Endpoints())
}
