package slice

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soocke/sliceview/domain/capture"
	"github.com/soocke/sliceview/domain/geometry"
	"github.com/soocke/sliceview/domain/handoff"
)

var discardLogger = slog.New(slog.NewTextHandler(&discardWriter{}, nil))

type discardWriter struct{}

func (d *discardWriter) Write(p []byte) (int, error) { return len(p), nil }

type fakeStream struct {
	mu      sync.Mutex
	openErr error
	openID  string
	status  capture.Status
	frame   capture.FrameSnapshot
	tracks  int
	closes  int
}

func (f *fakeStream) Open(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openID = id
	if f.openErr != nil {
		f.status = capture.Status{State: capture.StateFailed, SourceID: id, Err: f.openErr}
		return f.openErr
	}
	f.status = capture.Status{State: capture.StateOpening, SourceID: id}
	f.tracks = 1
	return nil
}

func (f *fakeStream) Status() capture.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeStream) LatestFrame() capture.FrameSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frame
}

func (f *fakeStream) ActiveTracks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tracks
}

func (f *fakeStream) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	f.tracks = 0
	f.status.State = capture.StateClosed
}

func (f *fakeStream) becomeReady(seq uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status.State = capture.StateReady
	f.status.Metadata = capture.Metadata{NativeWidth: 1920, NativeHeight: 1080}
	f.frame = capture.FrameSnapshot{Image: image.NewRGBA(image.Rect(0, 0, 1920, 1080)), Sequence: seq}
}

func (f *fakeStream) opened() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.openID != ""
}

type recordingMover struct {
	moves [][2]int
	err   error
}

func (m *recordingMover) MoveWindowBy(dx, dy int) error {
	if m.err != nil {
		return m.err
	}
	m.moves = append(m.moves, [2]int{dx, dy})
	return nil
}

var sliceRect = geometry.Rect{X: 192, Y: 0, Width: 384, Height: 192}

func sliceOpened(t *testing.T) handoff.Envelope {
	t.Helper()
	env, err := handoff.NewEnvelope("flow", handoff.EndpointHost, "slice", handoff.SliceOpened{SourceID: "screen:0:0", SelectionRect: sliceRect})
	require.NoError(t, err)
	return env
}

func deliverAndWait(t *testing.T, v *Viewport, s *fakeStream) {
	t.Helper()
	require.NoError(t, v.Deliver(sliceOpened(t)))
	require.Eventually(t, s.opened, time.Second, 5*time.Millisecond)
}

func TestLayoutFor(t *testing.T) {
	l := LayoutFor(sliceRect, geometry.Point{})
	assert.Equal(t, Layout{ContainerWidth: 384, ContainerHeight: 192, ContentX: -192, ContentY: 0}, l)
	assert.Equal(t, sliceRect, l.Crop())

	panned := LayoutFor(sliceRect, geometry.Point{X: 10, Y: -5})
	assert.Equal(t, -182, panned.ContentX)
	assert.Equal(t, 5, panned.ContentY)
	assert.Equal(t, 384, panned.ContainerWidth)
}

func TestViewport_RenderBeforeMetadataIsReplayed(t *testing.T) {
	s := &fakeStream{}
	v := NewViewport(Options{Stream: s, Logger: discardLogger})
	deliverAndWait(t, v, s)

	assert.True(t, v.RequestRender())
	_, ok := v.Tick()
	assert.False(t, ok)
	assert.True(t, v.Queued())
	assert.Equal(t, StateOpening, v.State())

	s.becomeReady(1)
	frame, ok := v.Tick()
	require.True(t, ok)
	assert.Equal(t, StateLive, v.State())
	assert.Equal(t, LayoutFor(sliceRect, geometry.Point{}), frame.Layout)
	assert.False(t, v.Queued())

	_, ok = v.Tick()
	assert.False(t, ok, "no new frame and no request")
}

func TestViewport_ResetRefreshIdempotent(t *testing.T) {
	s := &fakeStream{}
	v := NewViewport(Options{Stream: s, Logger: discardLogger})
	deliverAndWait(t, v, s)
	s.becomeReady(1)
	first, ok := v.Tick()
	require.True(t, ok)

	a := v.Refresh()
	b := v.Refresh()
	c := v.Reset()
	d := v.Reset()
	assert.Equal(t, first.Layout, a)
	assert.Equal(t, a, b)
	assert.Equal(t, b, c)
	assert.Equal(t, c, d)
	assert.Equal(t, sliceRect, v.Rect())
}

func TestViewport_PanIsClearedByReset(t *testing.T) {
	s := &fakeStream{}
	v := NewViewport(Options{Stream: s, Logger: discardLogger})
	deliverAndWait(t, v, s)
	s.becomeReady(1)
	v.Tick()

	now := time.Now()
	v.PointerDown(ButtonPrimary, geometry.Point{X: 10, Y: 10}, now)
	assert.Equal(t, GesturePan, v.PointerMove(geometry.Point{X: 30, Y: 15}, now.Add(10*time.Millisecond)))
	v.PointerUp()
	assert.Equal(t, geometry.Point{X: 20, Y: 5}, v.PanOffset())
	assert.Equal(t, sliceRect, v.Rect())

	frame, ok := v.Tick()
	require.True(t, ok)
	assert.Equal(t, -172, frame.Layout.ContentX)

	assert.Equal(t, LayoutFor(sliceRect, geometry.Point{}), v.Reset())
}

func TestViewport_MoveNeverMutatesRect(t *testing.T) {
	s := &fakeStream{}
	mover := &recordingMover{}
	v := NewViewport(Options{Stream: s, Mover: mover, LongPress: 100 * time.Millisecond, Logger: discardLogger})
	deliverAndWait(t, v, s)
	s.becomeReady(1)
	v.Tick()
	before := v.Layout()

	now := time.Now()
	v.PointerDown(ButtonSecondary, geometry.Point{X: 5, Y: 5}, now)
	assert.Equal(t, GestureMove, v.PointerMove(geometry.Point{X: 15, Y: 8}, now.Add(150*time.Millisecond)))
	v.PointerMove(geometry.Point{X: 20, Y: 8}, now.Add(160*time.Millisecond))
	v.PointerUp()

	assert.Equal(t, [][2]int{{10, 3}, {5, 0}}, mover.moves)
	assert.Equal(t, sliceRect, v.Rect())
	assert.Equal(t, before, v.Layout())
	assert.Equal(t, geometry.Point{}, v.PanOffset())

	mover.err = errors.New("no window")
	assert.ErrorIs(t, v.MoveBy(1, 1), ErrMoveRejected)
}

func TestViewport_PinIsVisualOnly(t *testing.T) {
	s := &fakeStream{}
	v := NewViewport(Options{Stream: s, Logger: discardLogger})
	deliverAndWait(t, v, s)
	s.becomeReady(1)
	v.Tick()
	before := v.Layout()
	assert.True(t, v.TogglePin())
	assert.Equal(t, before, v.Layout())
	assert.Contains(t, v.StatusText(), "Pinned")
	assert.False(t, v.TogglePin())
}

func TestViewport_CloseReleasesTracks(t *testing.T) {
	s := &fakeStream{}
	v := NewViewport(Options{Stream: s, Logger: discardLogger})
	deliverAndWait(t, v, s)
	s.becomeReady(1)
	v.Tick()
	assert.Equal(t, 1, v.ActiveTracks())

	v.Close()
	v.Close()
	assert.Equal(t, 0, v.ActiveTracks())
	assert.Equal(t, 1, s.closes)
	assert.Equal(t, StateClosed, v.State())
	assert.ErrorIs(t, v.Deliver(sliceOpened(t)), ErrClosed)
	assert.False(t, v.RequestRender())
}

func TestViewport_OpenFailureScoped(t *testing.T) {
	s := &fakeStream{openErr: &capture.SourceNotFoundError{SourceID: "screen:0:0"}}
	v := NewViewport(Options{Stream: s, Logger: discardLogger})
	deliverAndWait(t, v, s)
	require.Eventually(t, func() bool {
		v.Tick()
		return v.State() == StateFailed
	}, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, v.Err(), capture.ErrSourceNotFound)
	assert.Contains(t, v.StatusText(), "Capture error")
}

func TestViewport_DuplicateAndUnexpectedMessages(t *testing.T) {
	s := &fakeStream{}
	v := NewViewport(Options{Stream: s, Logger: discardLogger})
	other, err := handoff.NewEnvelope("flow", handoff.EndpointHost, "slice", handoff.TargetSelected{SourceID: "x"})
	require.NoError(t, err)
	assert.ErrorIs(t, v.Deliver(other), ErrUnexpected)

	deliverAndWait(t, v, s)
	dup, err := handoff.NewEnvelope("flow", handoff.EndpointHost, "slice", handoff.SliceOpened{SourceID: "window:1:0", SelectionRect: geometry.Rect{Width: 11, Height: 11}})
	require.NoError(t, err)
	require.NoError(t, v.Deliver(dup))
	assert.Equal(t, sliceRect, v.Rect())
	assert.Equal(t, "screen:0:0", v.SourceID())
}

func TestViewport_MailboxReplay(t *testing.T) {
	s := &fakeStream{}
	v := NewViewport(Options{Stream: s, Logger: discardLogger})
	mb := handoff.NewMailbox(v.Deliver)
	require.NoError(t, mb.Post(sliceOpened(t)))
	assert.Equal(t, StateWaiting, v.State())
	require.NoError(t, mb.MarkReady())
	assert.Equal(t, StateOpening, v.State())
	v.Close()
}

func TestGestureSelector(t *testing.T) {
	g := NewGestureSelector(200 * time.Millisecond)
	now := time.Now()

	g.Down(ButtonSecondary, geometry.Point{}, now)
	mode, dx, dy := g.Move(geometry.Point{X: 5, Y: 5}, now.Add(50*time.Millisecond))
	assert.Equal(t, GestureIgnored, mode)
	assert.Zero(t, dx+dy)
	// still ignored after the long press elapses: the gesture was already decided
	mode, _, _ = g.Move(geometry.Point{X: 9, Y: 9}, now.Add(time.Second))
	assert.Equal(t, GestureIgnored, mode)
	assert.Equal(t, GestureIgnored, g.Up())

	g.Down(ButtonSecondary, geometry.Point{}, now)
	mode, dx, dy = g.Move(geometry.Point{X: 3, Y: -2}, now.Add(250*time.Millisecond))
	assert.Equal(t, GestureMove, mode)
	assert.Equal(t, 3, dx)
	assert.Equal(t, -2, dy)
	g.Up()

	g.Down(ButtonPrimary, geometry.Point{X: 1, Y: 1}, now)
	mode, dx, _ = g.Move(geometry.Point{X: 4, Y: 1}, now)
	assert.Equal(t, GesturePan, mode)
	assert.Equal(t, 3, dx)
	assert.Equal(t, GesturePan, g.Up())

	mode, _, _ = g.Move(geometry.Point{}, now)
	assert.Equal(t, GestureIgnored, mode)
}
