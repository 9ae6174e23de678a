package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/soocke/sliceview/domain/geometry"
	"github.com/soocke/sliceview/domain/handoff"
	"github.com/soocke/sliceview/domain/source"
)

var (
	ErrSelectionInProgress = errors.New("app: a selection is already in progress")
	ErrHostClosed          = errors.New("app: host session closed")
)

const (
	defaultListTimeout = 5 * time.Second
	hostInboxBuffer    = 16
)

// Window is an overlay or slice window driven by the host tick.
type Window interface {
	Tick(now time.Time)
	Done() bool
	Close()
}

// Overlay is the selection window. Cancel is a user cancellation and
// reports an explicit outcome; Close reports an implicit one.
type Overlay interface {
	Window
	Cancel()
}

// Shell receives core results for the root window.
type Shell interface {
	ShowSources(sources []source.Source, err error)
	OnSelectionResolved(sourceID string, rect geometry.Rect)
	OnCaptureError(message string)
	SetStatus(text string)
}

// HostRecorder receives host telemetry.
type HostRecorder interface {
	SlicesOpen(n int)
	EnumerationFailed()
}

// OverlayFactory opens a selection overlay listening on ep.
type OverlayFactory func(flowID string, ep handoff.Endpoint) (Overlay, error)

// SliceFactory opens a slice window sized to rect near the given screen point,
// listening on ep.
type SliceFactory func(ep handoff.Endpoint, rect geometry.Rect, near image.Point) (Window, error)

// HostOptions configures a HostSession.
type HostOptions struct {
	Lister      source.Lister
	Bus         *handoff.Bus
	NewOverlay  OverlayFactory
	NewSlice    SliceFactory
	Recorder    HostRecorder
	ListTimeout time.Duration
	Logger      *slog.Logger
}

type listing struct {
	seq     uint64
	kind    source.Kind
	sources []source.Source
	err     error
}

// HostSession is the root window's side of every flow. It owns at most one
// selection overlay and any number of slices, and is driven from the UI tick.
type HostSession struct {
	opts   HostOptions
	logger *slog.Logger
	shell  Shell

	inbox    <-chan handoff.Envelope
	listings chan listing
	listSeq  uint64
	quit     chan struct{}

	flow      *handoff.Flow
	overlay   Overlay
	cancelled bool // the shell asked to cancel the current flow
	slices    map[handoff.Endpoint]Window
	order     []handoff.Endpoint
	closed    bool
}

// NewHostSession registers the host endpoint on the bus.
func NewHostSession(opts HostOptions) (*HostSession, error) {
	if opts.Bus == nil || opts.Lister == nil || opts.NewOverlay == nil || opts.NewSlice == nil {
		return nil, errors.New("app: host session needs a bus, a lister and window factories")
	}
	if opts.ListTimeout <= 0 {
		opts.ListTimeout = defaultListTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	inbox, err := opts.Bus.Register(handoff.EndpointHost, hostInboxBuffer)
	if err != nil {
		return nil, err
	}
	return &HostSession{
		opts:     opts,
		logger:   logger.With("component", "host"),
		inbox:    inbox,
		listings: make(chan listing, 4),
		quit:     make(chan struct{}),
		slices:   make(map[handoff.Endpoint]Window),
	}, nil
}

// SetShell installs the root window callbacks.
func (h *HostSession) SetShell(s Shell) { h.shell = s }

// RequestSourceList lists sources in the background. The result is handed
// to the shell on a later tick; older listings are dropped.
func (h *HostSession) RequestSourceList(kind source.Kind) {
	if h == nil || h.closed {
		return
	}
	h.listSeq++
	seq := h.listSeq
	lister, timeout, quit, out := h.opts.Lister, h.opts.ListTimeout, h.quit, h.listings
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		srcs, err := lister.List(ctx, kind)
		select {
		case out <- listing{seq: seq, kind: kind, sources: srcs, err: err}:
		case <-quit:
		}
	}()
}

// RequestCaptureStart opens the selection overlay for sourceID and sends it
// target-selected. Only one selection runs at a time.
func (h *HostSession) RequestCaptureStart(sourceID string) error {
	if h == nil || h.closed {
		return ErrHostClosed
	}
	if h.overlay != nil && !h.overlay.Done() {
		return ErrSelectionInProgress
	}
	flow := handoff.NewFlow(sourceID)
	ep := handoff.Endpoint("overlay:" + flow.ID())
	win, err := h.opts.NewOverlay(flow.ID(), ep)
	if err != nil {
		return fmt.Errorf("app: open overlay: %w", err)
	}
	if err := h.opts.Bus.Post(flow.ID(), handoff.EndpointHost, ep, flow.Target()); err != nil {
		win.Close()
		return fmt.Errorf("app: start selection: %w", err)
	}
	h.flow, h.overlay, h.cancelled = flow, win, false
	h.logger.Info("selection started", "flow", flow.ID(), "source", sourceID)
	return nil
}

// RequestSelectionCancel cancels the open overlay's flow, which reports an
// explicit cancellation. Without an overlay it does nothing.
func (h *HostSession) RequestSelectionCancel() {
	if h == nil || h.overlay == nil || h.overlay.Done() {
		return
	}
	h.cancelled = true
	h.overlay.Cancel()
}

// Tick delivers listings and handoff outcomes and advances every window.
func (h *HostSession) Tick(now time.Time) {
	if h == nil || h.closed {
		return
	}
	h.drainListings()

	if h.overlay != nil {
		h.overlay.Tick(now)
	}
	for _, ep := range h.order {
		h.slices[ep].Tick(now)
	}

	handoff.Drain(h.inbox, h.handle)
	h.reap()
}

// LiveSlices counts open slice windows.
func (h *HostSession) LiveSlices() int {
	if h == nil {
		return 0
	}
	return len(h.slices)
}

// SelectionActive reports whether an overlay is open.
func (h *HostSession) SelectionActive() bool {
	return h != nil && h.overlay != nil && !h.overlay.Done()
}

// Close closes every window and unregisters the host.
func (h *HostSession) Close() {
	if h == nil || h.closed {
		return
	}
	h.closed = true
	close(h.quit)
	if h.overlay != nil {
		h.overlay.Close()
		h.overlay = nil
	}
	for _, ep := range h.order {
		h.slices[ep].Close()
	}
	h.slices = map[handoff.Endpoint]Window{}
	h.order = nil
	h.opts.Bus.Unregister(handoff.EndpointHost)
	h.report()
}

func (h *HostSession) drainListings() {
	for {
		select {
		case l := <-h.listings:
			if l.seq != h.listSeq {
				continue
			}
			if l.err != nil {
				h.logger.Warn("source listing failed", "kind", string(l.kind), "error", l.err)
				if h.opts.Recorder != nil {
					h.opts.Recorder.EnumerationFailed()
				}
			}
			if h.shell != nil {
				h.shell.ShowSources(l.sources, l.err)
			}
		default:
			return
		}
	}
}

func (h *HostSession) handle(env handoff.Envelope) {
	if h.flow == nil || env.FlowID != h.flow.ID() {
		h.logger.Debug("outcome for unknown flow ignored", "flow", env.FlowID, "kind", string(env.Kind))
		return
	}
	msg, err := env.Decode()
	if err != nil {
		h.logger.Warn("host message", "error", err)
		return
	}
	if err := h.flow.Accept(msg); err != nil {
		h.logger.Warn("host message rejected", "flow", env.FlowID, "kind", string(env.Kind), "error", err)
		return
	}
	h.flow = nil
	switch m := msg.(type) {
	case handoff.SelectionResolved:
		if h.shell != nil {
			h.shell.OnSelectionResolved(m.SourceID, m.SelectionRect)
		}
		h.openSlice(env.FlowID, m)
	case handoff.SelectionCancelled:
		h.logger.Info("selection cancelled", "flow", env.FlowID, "implicit", m.Implicit, "reason", m.Reason)
		if h.shell == nil {
			return
		}
		if m.Reason != "" {
			h.shell.OnCaptureError(m.Reason)
			return
		}
		h.shell.SetStatus("Selection cancelled")
	}
}

func (h *HostSession) openSlice(flowID string, res handoff.SelectionResolved) {
	if res.SelectionRect.Empty() {
		h.logger.Warn("empty selection not opened", "flow", flowID, "rect", res.SelectionRect.String())
		if h.shell != nil {
			h.shell.SetStatus("Selection was empty")
		}
		return
	}
	ep := handoff.Endpoint("slice:" + uuid.NewString())
	win, err := h.opts.NewSlice(ep, res.SelectionRect, image.Pt(res.Release.X, res.Release.Y))
	if err != nil {
		h.logger.Error("slice window", "flow", flowID, "error", err)
		if h.shell != nil {
			h.shell.OnCaptureError("Could not open slice: " + err.Error())
		}
		return
	}
	opened := handoff.SliceOpened{SourceID: res.SourceID, SelectionRect: res.SelectionRect}
	if err := h.opts.Bus.Post(flowID, handoff.EndpointHost, ep, opened); err != nil {
		h.logger.Error("slice handoff", "flow", flowID, "error", err)
		win.Close()
		return
	}
	h.slices[ep] = win
	h.order = append(h.order, ep)
	h.logger.Info("slice opened", "flow", flowID, "endpoint", string(ep), "source", res.SourceID, "rect", res.SelectionRect.String())
	h.report()
}

// reap drops finished windows. An overlay that finished without its outcome
// reaching the host counts as a cancellation, explicit only when the shell
// asked for it.
func (h *HostSession) reap() {
	if h.overlay != nil && h.overlay.Done() {
		h.overlay = nil
		if h.flow != nil {
			settle := h.flow.Abandon
			if h.cancelled {
				settle = h.flow.Cancel
			}
			if msg, err := settle(); err == nil {
				h.logger.Warn("overlay closed without outcome", "flow", h.flow.ID(), "implicit", msg.Implicit)
				if h.shell != nil {
					h.shell.SetStatus("Selection cancelled")
				}
			}
			h.flow = nil
		}
		h.cancelled = false
	}
	kept := h.order[:0]
	removed := 0
	for _, ep := range h.order {
		if h.slices[ep].Done() {
			delete(h.slices, ep)
			removed++
			continue
		}
		kept = append(kept, ep)
	}
	h.order = kept
	if removed > 0 {
		h.report()
		if h.shell != nil {
			h.shell.SetStatus(fmt.Sprintf("Slice closed, %d open", len(h.slices)))
		}
	}
}

func (h *HostSession) report() {
	if h.opts.Recorder != nil {
		h.opts.Recorder.SlicesOpen(len(h.slices))
	}
}
