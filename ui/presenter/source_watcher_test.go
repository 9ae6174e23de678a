package presenter

import (
	"sync"
	"testing"
	"time"
)

type titles struct {
	mu  sync.Mutex
	val string
}

func (t *titles) set(v string) { t.mu.Lock(); t.val = v; t.mu.Unlock() }
func (t *titles) get() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.val, nil
}

// The first reading is a baseline; only later changes are flagged.
func TestSourceWatcher_FlagsChange(t *testing.T) {
	src := &titles{val: "Editor|Terminal"}
	w := NewSourceWatcher(discardLogger, src.get, 20*time.Millisecond)
	w.Start()
	defer w.Stop()

	time.Sleep(100 * time.Millisecond)
	if w.Changed() {
		t.Fatalf("baseline must not count as a change")
	}
	src.set("Editor|Terminal|Browser")
	time.Sleep(100 * time.Millisecond)
	if !w.Changed() {
		t.Fatalf("expected change")
	}
	if w.Changed() {
		t.Fatalf("flag should clear after read")
	}
}

func TestSourceWatcher_StartStopIdempotent(t *testing.T) {
	src := &titles{val: "a"}
	w := NewSourceWatcher(nil, src.get, 10*time.Millisecond)
	w.Start()
	w.Start()
	if !w.Running() {
		t.Fatalf("expected running")
	}
	w.Stop()
	w.Stop()
	if w.Running() {
		t.Fatalf("expected stopped")
	}
	w.Start()
	w.Stop()

	var nilW *SourceWatcher
	nilW.Start()
	if nilW.Changed() {
		t.Fatalf("nil watcher reports no change")
	}
}
