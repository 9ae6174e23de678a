package presenter

import (
	"sync"
	"time"
)

// RenderFunc composes and encodes one frame off the UI goroutine. It must
// only touch values captured before it was submitted.
type RenderFunc func() ([]byte, error)

// RenderResult is a finished render.
type RenderResult struct {
	Sequence uint64
	PNG      []byte
	Err      error
	Duration time.Duration
}

type renderTask struct {
	sequence uint64
	fn       RenderFunc
}

// RenderWorker runs one render at a time. A submit while busy is refused so
// the caller can keep its frame and retry; results are latest-wins.
type RenderWorker struct {
	once     sync.Once
	mu       sync.Mutex
	busy     bool
	closed   bool
	workCh   chan renderTask
	resultCh chan RenderResult
}

// NewRenderWorker returns an idle worker. The goroutine starts on first submit.
func NewRenderWorker() *RenderWorker {
	return &RenderWorker{
		workCh:   make(chan renderTask, 1),
		resultCh: make(chan RenderResult, 1),
	}
}

// Submit schedules fn. It reports false when a render is in flight or the
// worker is closed.
func (w *RenderWorker) Submit(sequence uint64, fn RenderFunc) bool {
	if w == nil || fn == nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.busy || w.closed {
		return false
	}
	w.once.Do(func() { go w.run() })
	w.busy = true
	w.workCh <- renderTask{sequence: sequence, fn: fn}
	return true
}

// Busy reports whether a render is in flight.
func (w *RenderWorker) Busy() bool {
	if w == nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.busy
}

// Poll returns a finished render without blocking.
func (w *RenderWorker) Poll() (RenderResult, bool) {
	if w == nil {
		return RenderResult{}, false
	}
	select {
	case res := <-w.resultCh:
		return res, true
	default:
		return RenderResult{}, false
	}
}

// Close stops the worker. Pending results are discarded.
func (w *RenderWorker) Close() {
	if w == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	close(w.workCh)
}

func (w *RenderWorker) run() {
	for task := range w.workCh {
		start := time.Now()
		png, err := task.fn()
		res := RenderResult{Sequence: task.sequence, PNG: png, Err: err, Duration: time.Since(start)}
		select {
		case w.resultCh <- res:
		default:
			select {
			case <-w.resultCh:
			default:
			}
			select {
			case w.resultCh <- res:
			default:
			}
		}
		w.mu.Lock()
		w.busy = false
		w.mu.Unlock()
	}
}
