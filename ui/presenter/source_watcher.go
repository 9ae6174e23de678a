package presenter

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// SourceWatcher polls a fingerprint of the available sources (for example the
// visible window titles) and flags when it changes so the list can refresh.
type SourceWatcher struct {
	Logger      *slog.Logger
	Fingerprint func() (string, error)
	interval    time.Duration
	running     atomic.Bool
	changed     atomic.Bool
	done        chan struct{}
}

// NewSourceWatcher constructs a watcher. interval <= 0 selects one second.
func NewSourceWatcher(logger *slog.Logger, fp func() (string, error), interval time.Duration) *SourceWatcher {
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SourceWatcher{Logger: logger.With("component", "source_watcher"), Fingerprint: fp, interval: interval}
}

// Start begins polling. It is a no-op while running.
func (w *SourceWatcher) Start() {
	if w == nil || w.Fingerprint == nil || w.running.Load() {
		return
	}
	w.done = make(chan struct{})
	w.running.Store(true)
	go w.loop(w.done)
}

// Stop ends polling. It is a no-op when stopped.
func (w *SourceWatcher) Stop() {
	if w == nil || !w.running.Load() {
		return
	}
	close(w.done)
	w.running.Store(false)
}

// Running reports whether the poll loop is active.
func (w *SourceWatcher) Running() bool { return w != nil && w.running.Load() }

// Changed reports and clears the change flag.
func (w *SourceWatcher) Changed() bool {
	if w == nil {
		return false
	}
	return w.changed.Swap(false)
}

func (w *SourceWatcher) loop(done chan struct{}) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	var last string
	primed := false
	for {
		select {
		case <-ticker.C:
			fp, err := w.Fingerprint()
			if err != nil {
				w.Logger.Debug("source fingerprint error", "error", err)
				continue
			}
			if !primed { // first reading is the baseline
				primed = true
				last = fp
				continue
			}
			if fp != last {
				last = fp
				w.changed.Store(true)
				w.Logger.Debug("sources changed")
			}
		case <-done:
			return
		}
	}
}
