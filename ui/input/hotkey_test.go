package input

import (
	"log/slog"
	"testing"
	"time"

	gohook "github.com/robotn/gohook"
)

var discardLogger = slog.New(slog.NewTextHandler(&discardWriter{}, nil))

type discardWriter struct{}

func (d *discardWriter) Write(p []byte) (int, error) { return len(p), nil }

type fakeHook struct {
	ch      chan gohook.Event
	starts  int
	stopped int
}

func (f *fakeHook) source() (<-chan gohook.Event, func()) {
	f.starts++
	f.ch = make(chan gohook.Event, 16)
	return f.ch, func() { f.stopped++ }
}

func key(kind uint8, name string) gohook.Event {
	return gohook.Event{Kind: kind, Keycode: gohook.Keycode[name]}
}

func TestParseCombo(t *testing.T) {
	c, err := ParseCombo(" Ctrl+Shift+S ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.String() != "ctrl+shift+s" || len(c.slots) != 3 {
		t.Fatalf("unexpected combo %+v", c)
	}
	if len(c.slots[1]) != 2 {
		t.Fatalf("shift should accept both sides, got %v", c.slots[1])
	}
	if _, err := ParseCombo("control+f9"); err != nil {
		t.Fatalf("alias: %v", err)
	}
	for _, bad := range []string{"", "ctrl+nokey", "ctrl++s"} {
		if _, err := ParseCombo(bad); err == nil {
			t.Fatalf("%q should not parse", bad)
		}
	}
}

func TestComboState_FiresOncePerPress(t *testing.T) {
	c, err := ParseCombo("ctrl+shift+s")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	s := newComboState(c)
	seq := []struct {
		ev   gohook.Event
		fire bool
	}{
		{key(gohook.KeyDown, "ctrl"), false},
		{key(gohook.KeyDown, "rshift"), false},
		{key(gohook.KeyDown, "s"), true},
		{key(gohook.KeyDown, "s"), false}, // auto-repeat
		{key(gohook.KeyHold, "s"), false},
		{key(gohook.KeyUp, "s"), false},
		{key(gohook.KeyDown, "s"), true},
		{key(gohook.KeyUp, "ctrl"), false},
		{key(gohook.KeyDown, "s"), false},
	}
	for i, step := range seq {
		if got := s.feed(step.ev); got != step.fire {
			t.Fatalf("step %d: fired=%v want %v", i, got, step.fire)
		}
	}
}

func TestComboState_IgnoresPointerKinds(t *testing.T) {
	c, _ := ParseCombo("s")
	s := newComboState(c)
	for _, kind := range []uint8{gohook.MouseDown, gohook.MouseHold, gohook.MouseUp, gohook.MouseDrag} {
		if s.feed(gohook.Event{Kind: kind, Keycode: gohook.Keycode["s"]}) {
			t.Fatalf("kind %d must not fire a hotkey", kind)
		}
	}
}

func TestHotkey_FiresAndStops(t *testing.T) {
	c, _ := ParseCombo("ctrl+s")
	src := &fakeHook{}
	h := NewHotkey(c, src.source, discardLogger)
	h.Start()
	h.Start()
	if src.starts != 1 {
		t.Fatalf("hook should start once, got %d", src.starts)
	}
	src.ch <- key(gohook.KeyDown, "ctrl")
	src.ch <- key(gohook.KeyDown, "s")

	select {
	case <-h.Fired():
	case <-time.After(time.Second):
		t.Fatalf("hotkey not delivered")
	}

	h.Close()
	h.Close()
	if src.stopped != 1 {
		t.Fatalf("hook should stop once, got %d", src.stopped)
	}
}

func TestHotkey_NilSafe(t *testing.T) {
	var h *Hotkey
	h.Start()
	h.Close()
	if h.Fired() != nil {
		t.Fatalf("nil hotkey has no channel")
	}
}
