package presenter

import (
	"errors"
	"testing"
	"time"
)

func TestRenderWorker_OneInFlight(t *testing.T) {
	w := NewRenderWorker()
	defer w.Close()
	release := make(chan struct{})
	if !w.Submit(1, func() ([]byte, error) { <-release; return []byte{1}, nil }) {
		t.Fatalf("first submit refused")
	}
	if w.Submit(2, func() ([]byte, error) { return nil, nil }) {
		t.Fatalf("submit while busy must be refused")
	}
	close(release)

	var res RenderResult
	waitFor(t, func() {}, func() bool {
		var ok bool
		if res, ok = w.Poll(); ok {
			return true
		}
		return false
	})
	if res.Sequence != 1 || len(res.PNG) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	waitFor(t, func() {}, func() bool { return !w.Busy() })

	boom := errors.New("boom")
	if !w.Submit(3, func() ([]byte, error) { return nil, boom }) {
		t.Fatalf("idle worker refused submit")
	}
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if res, ok := w.Poll(); ok {
			if !errors.Is(res.Err, boom) {
				t.Fatalf("expected error result, got %+v", res)
			}
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("no result")
}

func TestRenderWorker_ClosedRefuses(t *testing.T) {
	w := NewRenderWorker()
	w.Close()
	w.Close()
	if w.Submit(1, func() ([]byte, error) { return nil, nil }) {
		t.Fatalf("closed worker must refuse")
	}
}
