package presenter

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"time"

	"github.com/soocke/sliceview/domain/capture"
	"github.com/soocke/sliceview/domain/geometry"
	"github.com/soocke/sliceview/domain/handoff"
	"github.com/soocke/sliceview/domain/selection"
	"github.com/soocke/sliceview/ui/images"
	"github.com/soocke/sliceview/ui/input"
)

const (
	overlayHint         = "Drag a region. Enter confirms, Esc cancels."
	overlayDegradedHint = "Source size unknown. The selection uses overlay pixels."
	inboxBuffer         = 4
)

// Stream is the capture session a window owns.
type Stream interface {
	capture.FrameSource
	Open(ctx context.Context, sourceID string) error
	Close()
}

// PointerSource is the pointer event stream bound on one window. It only
// carries gestures that started on that window.
type PointerSource interface {
	Events() <-chan input.Event
	Close()
}

// ReconcileRecorder counts resolved selections per mode.
type ReconcileRecorder interface {
	Reconciled(mode geometry.Mode)
}

// OverlayView is the fullscreen selection window.
type OverlayView interface {
	Origin() image.Point
	Size() (int, int)
	ShowPreview(png []byte)
	Close()
}

// OverlayOptions configures an OverlayPresenter.
type OverlayOptions struct {
	Endpoint handoff.Endpoint
	Bus      *handoff.Bus
	Stream   Stream
	View     OverlayView
	Pointer  PointerSource
	MinSize  int
	Recorder ReconcileRecorder
	Logger   *slog.Logger
}

// OverlayPresenter runs one selection flow: it waits for target-selected,
// previews the source, drives the selection surface and sends exactly one
// outcome back to the host.
type OverlayPresenter struct {
	ep      handoff.Endpoint
	bus     *handoff.Bus
	stream  Stream
	view    OverlayView
	pointer PointerSource
	rec     ReconcileRecorder
	logger  *slog.Logger

	inbox   <-chan handoff.Envelope
	ptr     <-chan input.Event
	surface *selection.Surface
	flow    *handoff.Flow
	worker  *RenderWorker

	ctx     context.Context
	cancel  context.CancelFunc
	opened  chan error
	mapped  bool
	overdue bool
	failed  bool

	dragging bool
	release  geometry.Point
	lastSeq  uint64
	renders  uint64
	dirty    bool
	done     bool
}

// NewOverlayPresenter registers the overlay endpoint and takes the view's
// pointer stream.
func NewOverlayPresenter(opts OverlayOptions) (*OverlayPresenter, error) {
	if opts.Bus == nil || opts.Stream == nil || opts.View == nil {
		return nil, errors.New("presenter: overlay needs a bus, a stream and a view")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	inbox, err := opts.Bus.Register(opts.Endpoint, inboxBuffer)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &OverlayPresenter{
		ep:      opts.Endpoint,
		bus:     opts.Bus,
		stream:  opts.Stream,
		view:    opts.View,
		pointer: opts.Pointer,
		rec:     opts.Recorder,
		logger:  logger.With("component", "overlay", "endpoint", string(opts.Endpoint)),
		inbox:   inbox,
		worker:  NewRenderWorker(),
		ctx:     ctx,
		cancel:  cancel,
		dirty:   true,
	}
	p.surface = selection.NewSurface(opts.MinSize, p, logger)
	p.surface.AddListener(func(prev, next selection.State) { p.dirty = true })
	if p.pointer != nil {
		p.ptr = p.pointer.Events()
	}
	return p, nil
}

// Surface exposes the selection state machine.
func (p *OverlayPresenter) Surface() *selection.Surface { return p.surface }

// Done reports whether the overlay has finished its flow.
func (p *OverlayPresenter) Done() bool { return p == nil || p.done }

// Tick processes messages, stream state and pointer input, then renders.
func (p *OverlayPresenter) Tick(now time.Time) {
	if p == nil || p.done {
		return
	}
	if !handoff.Drain(p.inbox, p.handle) {
		p.logger.Warn("overlay inbox closed")
		p.finish()
		return
	}
	p.pollOpen()
	if p.done {
		return
	}
	p.syncStream()
	input.Drain(p.ptr, p.onPointer)
	if p.done {
		return
	}
	if res, ok := p.worker.Poll(); ok {
		if res.Err != nil {
			p.logger.Debug("preview render", "error", res.Err)
		} else {
			p.view.ShowPreview(res.PNG)
		}
	}
	p.render()
}

// Confirm resolves a completed selection. Bound to Enter.
func (p *OverlayPresenter) Confirm() {
	if p == nil || p.done {
		return
	}
	if _, ok := p.surface.Confirm(); !ok {
		p.logger.Debug("confirm ignored", "state", p.surface.State().String())
	}
}

// Cancel cancels the flow. Bound to Escape and the cancel button.
func (p *OverlayPresenter) Cancel() {
	if p == nil || p.done {
		return
	}
	p.surface.Cancel()
}

// Close handles the overlay going away without user action.
func (p *OverlayPresenter) Close() {
	if p == nil || p.done {
		return
	}
	if p.flow != nil {
		if msg, err := p.flow.Abandon(); err == nil {
			p.post(msg)
		}
	}
	p.finish()
}

// SelectionResolved implements selection.Sink.
func (p *OverlayPresenter) SelectionResolved(res geometry.Resolution) {
	if p.rec != nil {
		p.rec.Reconciled(res.Mode)
	}
	if p.flow == nil {
		p.finish()
		return
	}
	msg, err := p.flow.Resolve(res)
	if err != nil {
		p.logger.Warn("selection after outcome", "error", err)
		return
	}
	msg.Release = p.release
	p.post(msg)
	p.finish()
}

// SelectionCancelled implements selection.Sink.
func (p *OverlayPresenter) SelectionCancelled() {
	if p.flow != nil {
		if msg, err := p.flow.Cancel(); err == nil {
			p.post(msg)
		}
	}
	p.finish()
}

func (p *OverlayPresenter) handle(env handoff.Envelope) {
	msg, err := env.Decode()
	if err != nil {
		p.logger.Warn("overlay message", "error", err)
		return
	}
	target, ok := msg.(handoff.TargetSelected)
	if !ok {
		p.logger.Warn("unexpected overlay message", "kind", string(env.Kind))
		return
	}
	if p.flow != nil {
		p.logger.Debug("duplicate target-selected ignored", "flow", env.FlowID)
		return
	}
	p.flow = handoff.JoinFlow(env.FlowID, target.SourceID)
	p.opened = make(chan error, 1)
	p.logger.Info("overlay opening source", "flow", env.FlowID, "source", target.SourceID)
	stream, ctx, done := p.stream, p.ctx, p.opened
	go func() { done <- stream.Open(ctx, target.SourceID) }()
}

func (p *OverlayPresenter) pollOpen() {
	if p.opened == nil {
		return
	}
	select {
	case err := <-p.opened:
		p.opened = nil
		if err == nil {
			return
		}
		if errors.Is(err, capture.ErrSourceNotFound) {
			p.logger.Warn("overlay source gone", "error", err)
			if msg, aerr := p.flow.Abort(err.Error()); aerr == nil {
				p.post(msg)
			}
			p.finish()
			return
		}
		p.failed = true
		p.surface.SourceError(err)
		p.dirty = true
	default:
	}
}

func (p *OverlayPresenter) syncStream() {
	if p.flow == nil {
		return
	}
	st := p.stream.Status()
	switch {
	case st.State == capture.StateFailed && !p.failed:
		p.failed = true
		p.surface.SourceError(st.Err)
		p.dirty = true
	case st.Ready() && !p.mapped:
		w, h := p.view.Size()
		m, err := geometry.ContainFit(st.Metadata.NativeWidth, st.Metadata.NativeHeight, w, h)
		if err != nil {
			return // window not laid out yet
		}
		p.surface.SetMapping(m)
		p.mapped = true
		p.dirty = true
		p.logger.Debug("display mapping", "display_width", m.DisplayWidth, "display_height", m.DisplayHeight, "offset_x", m.OffsetX, "offset_y", m.OffsetY)
	case !st.Ready() && errors.Is(st.Err, capture.ErrMetadataTimeout) && !p.overdue:
		p.overdue = true
		p.dirty = true
		p.logger.Warn("overlay metadata overdue, selection will be degraded", "error", st.Err)
	}
	if snap := p.stream.LatestFrame(); snap.Sequence != p.lastSeq {
		p.lastSeq = snap.Sequence
		p.dirty = true
	}
}

func (p *OverlayPresenter) onPointer(ev input.Event) {
	if p.done || p.flow == nil {
		return
	}
	local := ev.Local(p.view.Origin())
	switch ev.Kind {
	case input.PointerDown:
		if ev.Button != input.ButtonPrimary || !p.inside(local) {
			return
		}
		p.dragging = true
		p.surface.PointerDown(local)
	case input.PointerMove:
		if !p.dragging {
			return
		}
		p.surface.PointerMove(local)
		p.dirty = true
	case input.PointerUp:
		if !p.dragging || ev.Button != input.ButtonPrimary {
			return
		}
		p.dragging = false
		p.release = geometry.Point{X: ev.X, Y: ev.Y}
		p.surface.PointerUp(local)
		p.dirty = true
	}
}

func (p *OverlayPresenter) inside(pt geometry.Point) bool {
	w, h := p.view.Size()
	return pt.X >= 0 && pt.Y >= 0 && pt.X < w && pt.Y < h
}

func (p *OverlayPresenter) render() {
	if !p.dirty {
		return
	}
	w, h := p.view.Size()
	if w <= 0 || h <= 0 {
		return
	}
	scene := images.PreviewScene{
		Width:   w,
		Height:  h,
		Frame:   p.stream.LatestFrame().Image,
		Mapping: p.surface.Mapping(),
		Hint:    overlayHint,
	}
	if p.overdue && scene.Mapping == nil {
		scene.Hint = overlayDegradedHint
	}
	switch p.surface.State() {
	case selection.StateDragging, selection.StateCompleted:
		scene.Selection = p.surface.Rect()
	}
	if err := p.surface.Err(); err != nil {
		scene.Error = err.Error()
	}
	if p.worker.Submit(p.renders+1, func() ([]byte, error) {
		canvas := images.ComposePreview(scene)
		defer images.RecycleCanvas(canvas)
		return images.EncodePNG(canvas), nil
	}) {
		p.renders++
		p.dirty = false
	}
}

func (p *OverlayPresenter) post(msg handoff.Message) {
	if err := p.bus.Post(p.flow.ID(), p.ep, handoff.EndpointHost, msg); err != nil {
		p.logger.Error("overlay outcome not delivered", "kind", string(msg.Kind()), "error", err)
	}
}

// finish releases the stream synchronously and tears the window down.
func (p *OverlayPresenter) finish() {
	if p.done {
		return
	}
	p.done = true
	p.cancel()
	p.stream.Close()
	if p.pointer != nil {
		p.pointer.Close()
	}
	p.bus.Unregister(p.ep)
	p.worker.Close()
	p.view.Close()
	p.logger.Info("overlay closed", "outcome", string(p.outcomeKind()))
}

func (p *OverlayPresenter) outcomeKind() handoff.Kind {
	if p.flow == nil {
		return ""
	}
	return p.flow.Outcome()
}
