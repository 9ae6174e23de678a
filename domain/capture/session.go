package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/soocke/sliceview/domain/source"
)

const captureStatsLogInterval = 5 * time.Second

// Options configures a Session.
type Options struct {
	Locator         source.Locator
	Grabber         Grabber
	FrameRate       float64
	MetadataTimeout time.Duration
	Recorder        Recorder
	Logger          *slog.Logger
}

// Session is one live stream bound to one source. Lifecycle:
// idle -> opening -> ready, with failed and closed as terminal states.
// Open suspends until access is granted or denied; metadata arrives later
// with the first frame. Close is idempotent and waits for the pump.
type Session struct {
	id      string
	opts    Options
	logger  *slog.Logger
	limiter *rate.Limiter

	mu        sync.Mutex
	state     State
	src       source.Source
	meta      Metadata
	err       error
	openedAt  time.Time
	cancel    context.CancelFunc
	done      chan struct{}
	listeners []func(Metadata)

	ready    chan struct{}
	ended    chan struct{}
	endOnce  sync.Once
	recorded bool

	latest       atomic.Pointer[FrameSnapshot]
	tracks       atomic.Int32
	captures     atomic.Uint64
	skipped      atomic.Uint64
	captureNanos atomic.Uint64
	sequence     atomic.Uint64
}

// NewSession constructs an idle session.
func NewSession(opts Options) *Session {
	if opts.FrameRate <= 0 {
		opts.FrameRate = 30
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	return &Session{
		id:      id,
		opts:    opts,
		logger:  logger.With("component", "capture", "session", id),
		limiter: rate.NewLimiter(rate.Limit(opts.FrameRate), 1),
		ready:   make(chan struct{}),
		ended:   make(chan struct{}),
	}
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string { return s.id }

// Open resolves sourceID, checks access and starts the capture pump.
func (s *Session) Open(ctx context.Context, sourceID string) error {
	if s.opts.Locator == nil || s.opts.Grabber == nil {
		return errors.New("capture: session has no locator or grabber")
	}
	s.mu.Lock()
	switch s.state {
	case StateIdle:
	case StateClosed:
		s.mu.Unlock()
		return ErrSessionClosed
	default:
		s.mu.Unlock()
		return ErrAlreadyOpen
	}
	s.state = StateOpening
	s.openedAt = time.Now()
	s.src = source.Source{ID: sourceID}
	s.mu.Unlock()

	src, err := s.opts.Locator.Lookup(ctx, sourceID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return s.fail(ctxErr)
		}
		return s.fail(&SourceNotFoundError{SourceID: sourceID, Err: err})
	}
	if err := s.opts.Grabber.Authorize(src); err != nil {
		return s.fail(&CaptureDeniedError{SourceID: sourceID, Err: err})
	}

	s.mu.Lock()
	if s.state != StateOpening {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.src = src
	pumpCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.recorded = true
	s.tracks.Store(1)
	done := s.done
	s.mu.Unlock()

	if s.opts.Recorder != nil {
		s.opts.Recorder.SessionOpened()
	}
	s.logger.Info("capture opened", "source", sourceID, "kind", string(src.Kind), "bounds", src.Bounds.String())
	go s.pump(pumpCtx, src, done)
	return nil
}

// fail moves an opening or ready session to failed. Closed sessions stay closed.
func (s *Session) fail(err error) error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.state = StateFailed
	s.err = err
	s.mu.Unlock()
	s.endOnce.Do(func() { close(s.ended) })
	s.logger.Warn("capture failed", "error", err)
	return err
}

// OnReady registers fn to run once metadata is known. If it already is, fn
// runs immediately on the caller's goroutine; otherwise it runs on the pump
// goroutine.
func (s *Session) OnReady(fn func(Metadata)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	if s.state == StateReady {
		meta := s.meta
		s.mu.Unlock()
		fn(meta)
		return
	}
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// WaitReady blocks until metadata arrives, the session fails or closes, the
// metadata timeout elapses, or ctx is done.
func (s *Session) WaitReady(ctx context.Context) (Metadata, error) {
	var timeout <-chan time.Time
	if s.opts.MetadataTimeout > 0 {
		t := time.NewTimer(s.opts.MetadataTimeout)
		defer t.Stop()
		timeout = t.C
	}
	select {
	case <-s.ready:
		st := s.Status()
		return st.Metadata, nil
	case <-s.ended:
		st := s.Status()
		if st.Err != nil {
			return Metadata{}, st.Err
		}
		return Metadata{}, ErrSessionClosed
	case <-timeout:
		return Metadata{}, &MetadataTimeoutError{SourceID: s.Status().SourceID, Waited: s.opts.MetadataTimeout}
	case <-ctx.Done():
		return Metadata{}, ctx.Err()
	}
}

// Status returns a snapshot of the lifecycle. An opening session past the
// metadata timeout reports a *MetadataTimeoutError without changing state,
// so a late first frame still promotes it to ready.
func (s *Session) Status() Status {
	if s == nil {
		return Status{}
	}
	s.mu.Lock()
	st := Status{State: s.state, SourceID: s.src.ID, Metadata: s.meta, Err: s.err, OpenedAt: s.openedAt}
	s.mu.Unlock()
	if st.State == StateOpening && st.Err == nil && s.opts.MetadataTimeout > 0 {
		if waited := time.Since(st.OpenedAt); waited > s.opts.MetadataTimeout {
			st.Err = &MetadataTimeoutError{SourceID: st.SourceID, Waited: waited}
		}
	}
	return st
}

// LatestFrame returns the freshest snapshot, or the zero value before the
// first frame and after Close.
func (s *Session) LatestFrame() FrameSnapshot {
	if s == nil {
		return FrameSnapshot{}
	}
	snap := s.latest.Load()
	if snap == nil {
		return FrameSnapshot{}
	}
	return *snap
}

// ActiveTracks reports how many stream tracks are live (0 or 1).
func (s *Session) ActiveTracks() int {
	if s == nil {
		return 0
	}
	return int(s.tracks.Load())
}

// Close releases the stream and waits for the pump to exit. Closing an idle
// or already closed session does nothing.
func (s *Session) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	if s.state == StateIdle || s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	cancel, done, recorded := s.cancel, s.done, s.recorded
	s.listeners = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	s.tracks.Store(0)
	s.latest.Store(nil)
	s.endOnce.Do(func() { close(s.ended) })
	if recorded && s.opts.Recorder != nil {
		s.opts.Recorder.SessionClosed()
	}
	s.logger.Info("capture closed", "captures", s.captures.Load())
}

func (s *Session) pump(ctx context.Context, src source.Source, done chan struct{}) {
	defer close(done)
	defer s.tracks.Store(0)
	logTicker := time.NewTicker(captureStatsLogInterval)
	defer logTicker.Stop()
	var lastErr string
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return
		}
		start := time.Now()
		img, err := s.opts.Grabber.Grab(src)
		if err != nil {
			if errors.Is(err, source.ErrSourceNotFound) {
				s.fail(&SourceNotFoundError{SourceID: src.ID, Err: err})
				return
			}
			s.skipped.Add(1)
			if msg := err.Error(); msg != lastErr {
				lastErr = msg
				s.logger.Debug("capture grab", "error", err)
			}
			continue
		}
		lastErr = ""
		elapsed := time.Since(start)
		s.captureNanos.Add(uint64(elapsed.Nanoseconds()))
		s.captures.Add(1)
		seq := s.sequence.Add(1)
		s.latest.Store(&FrameSnapshot{Image: img, CapturedAt: time.Now(), Sequence: seq})
		if s.opts.Recorder != nil {
			s.opts.Recorder.FrameCaptured()
		}
		s.markReady(Metadata{NativeWidth: img.Rect.Dx(), NativeHeight: img.Rect.Dy()})

		select {
		case <-logTicker.C:
			s.logStats()
		default:
		}
	}
}

func (s *Session) markReady(meta Metadata) {
	s.mu.Lock()
	if s.state != StateOpening {
		prev, changed := s.meta, s.state == StateReady && meta != s.meta
		s.mu.Unlock()
		if changed {
			// metadata stays pinned to the first frame
			s.logger.Debug("native size changed", "from", fmt.Sprintf("%dx%d", prev.NativeWidth, prev.NativeHeight), "to", fmt.Sprintf("%dx%d", meta.NativeWidth, meta.NativeHeight))
		}
		return
	}
	s.state = StateReady
	s.meta = meta
	waited := time.Since(s.openedAt)
	listeners := s.listeners
	s.listeners = nil
	s.mu.Unlock()

	close(s.ready)
	if s.opts.Recorder != nil {
		s.opts.Recorder.MetadataWait(waited)
	}
	s.logger.Info("capture ready", "native_width", meta.NativeWidth, "native_height", meta.NativeHeight, "waited", waited)
	for _, fn := range listeners {
		fn(meta)
	}
}

// Stats summarises pump behaviour.
func (s *Session) Stats() CaptureStats {
	captures := s.captures.Load()
	skipped := s.skipped.Load()
	total := s.captureNanos.Load()
	var avg time.Duration
	avgMicros := 0.0
	if captures > 0 && total > 0 {
		avg = time.Duration(total / captures)
		avgMicros = float64(avg) / float64(time.Microsecond)
	}
	snapshot := s.LatestFrame()
	age := time.Duration(0)
	if !snapshot.CapturedAt.IsZero() {
		age = time.Since(snapshot.CapturedAt)
	}
	return CaptureStats{
		Captures:         captures,
		Skipped:          skipped,
		AvgCapture:       avg,
		AvgCaptureMicros: avgMicros,
		LastCapture:      snapshot.CapturedAt,
		LatestFrameAge:   age,
		Sequence:         snapshot.Sequence,
	}
}

func (s *Session) logStats() {
	stats := s.Stats()
	s.logger.Debug("capture.stats",
		"captures", stats.Captures,
		"skipped", stats.Skipped,
		"avg_capture", stats.AvgCapture,
		"age", stats.LatestFrameAge,
	)
}
