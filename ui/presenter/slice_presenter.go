package presenter

import (
	"errors"
	"image"
	"log/slog"
	"time"

	"github.com/soocke/sliceview/domain/geometry"
	"github.com/soocke/sliceview/domain/handoff"
	"github.com/soocke/sliceview/domain/slice"
	"github.com/soocke/sliceview/ui/images"
	"github.com/soocke/sliceview/ui/input"
)

// SliceView is the always-on-top slice window.
type SliceView interface {
	Origin() image.Point
	Size() (int, int)
	ShowFrame(png []byte)
	SetStatus(text string)
	SetPinned(pinned bool)
	// Ready reports whether the window is mapped and can render.
	Ready() bool
	Close()
}

// SliceOptions configures a SlicePresenter.
type SliceOptions struct {
	Endpoint handoff.Endpoint
	Bus      *handoff.Bus
	Viewport *slice.Viewport
	View     SliceView
	Pointer  PointerSource
	Logger   *slog.Logger
}

// SlicePresenter connects a Viewport to its window. Messages received before
// the window is ready sit in a mailbox and are replayed once it is.
type SlicePresenter struct {
	ep      handoff.Endpoint
	bus     *handoff.Bus
	vp      *slice.Viewport
	view    SliceView
	pointer PointerSource
	logger  *slog.Logger

	inbox   <-chan handoff.Envelope
	mailbox *handoff.Mailbox
	ptr     <-chan input.Event
	worker  *RenderWorker

	pending *slice.Frame
	button  int // button holding the current gesture, 0 when idle
	status  string
	done    bool
}

// NewSlicePresenter registers the slice endpoint and takes the view's pointer
// stream.
func NewSlicePresenter(opts SliceOptions) (*SlicePresenter, error) {
	if opts.Bus == nil || opts.Viewport == nil || opts.View == nil {
		return nil, errors.New("presenter: slice needs a bus, a viewport and a view")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	inbox, err := opts.Bus.Register(opts.Endpoint, inboxBuffer)
	if err != nil {
		return nil, err
	}
	p := &SlicePresenter{
		ep:      opts.Endpoint,
		bus:     opts.Bus,
		vp:      opts.Viewport,
		view:    opts.View,
		pointer: opts.Pointer,
		logger:  logger.With("component", "slice_presenter", "endpoint", string(opts.Endpoint)),
		inbox:   inbox,
		mailbox: handoff.NewMailbox(opts.Viewport.Deliver),
		worker:  NewRenderWorker(),
	}
	if p.pointer != nil {
		p.ptr = p.pointer.Events()
	}
	return p, nil
}

// Viewport exposes the slice session.
func (p *SlicePresenter) Viewport() *slice.Viewport { return p.vp }

// Done reports whether the window has closed.
func (p *SlicePresenter) Done() bool { return p == nil || p.done }

// Tick delivers messages, routes gestures and renders due frames.
func (p *SlicePresenter) Tick(now time.Time) {
	if p == nil || p.done {
		return
	}
	if !handoff.Drain(p.inbox, p.receive) {
		p.logger.Warn("slice inbox closed")
		p.Close()
		return
	}
	if !p.mailbox.Ready() && p.view.Ready() {
		if err := p.mailbox.MarkReady(); err != nil {
			p.logger.Warn("slice message dropped", "error", err)
		}
	}
	input.Drain(p.ptr, p.onPointer)

	if res, ok := p.worker.Poll(); ok {
		if res.Err != nil {
			p.logger.Debug("slice render", "error", res.Err)
		} else {
			p.view.ShowFrame(res.PNG)
		}
	}
	if frame, ok := p.vp.Tick(); ok {
		p.pending = &frame
	}
	p.render()

	if s := p.vp.StatusText(); s != p.status {
		p.status = s
		p.view.SetStatus(s)
	}
}

// TogglePin flips the pinned look.
func (p *SlicePresenter) TogglePin() {
	if p == nil || p.done {
		return
	}
	p.view.SetPinned(p.vp.TogglePin())
}

// Refresh reapplies the layout. Bound to F5.
func (p *SlicePresenter) Refresh() {
	if p == nil || p.done {
		return
	}
	p.vp.Refresh()
}

// Reset reapplies the layout and clears any pan. Bound to Home.
func (p *SlicePresenter) Reset() {
	if p == nil || p.done {
		return
	}
	p.vp.Reset()
}

// Close releases the capture session synchronously and closes the window.
func (p *SlicePresenter) Close() {
	if p == nil || p.done {
		return
	}
	p.done = true
	p.vp.Close()
	if p.pointer != nil {
		p.pointer.Close()
	}
	p.bus.Unregister(p.ep)
	p.worker.Close()
	p.view.Close()
}

func (p *SlicePresenter) receive(env handoff.Envelope) {
	if err := p.mailbox.Post(env); err != nil {
		p.logger.Warn("slice message rejected", "kind", string(env.Kind), "error", err)
	}
}

func (p *SlicePresenter) onPointer(ev input.Event) {
	screen := geometry.Point{X: ev.X, Y: ev.Y}
	switch ev.Kind {
	case input.PointerDown:
		if p.button != 0 {
			return
		}
		p.button = ev.Button
		p.vp.PointerDown(slice.Button(ev.Button), screen, ev.At)
	case input.PointerMove:
		if p.button == ev.Button {
			p.vp.PointerMove(screen, ev.At)
		}
	case input.PointerUp:
		if p.button == ev.Button {
			p.button = 0
			p.vp.PointerUp()
		}
	}
}

func (p *SlicePresenter) render() {
	if p.pending == nil {
		return
	}
	frame := *p.pending
	if p.worker.Submit(frame.Snapshot.Sequence, func() ([]byte, error) {
		img, err := images.CropLayout(frame.Snapshot.Image, frame.Layout)
		if err != nil {
			return nil, err
		}
		return images.EncodePNG(img), nil
	}) {
		p.pending = nil
	}
}
