package input

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"
)

// Right-hand variants share a combo slot with the left-hand key.
var keyVariants = map[string][]string{
	"shift": {"rshift"},
	"alt":   {"ralt"},
	"cmd":   {"rcmd"},
}

var keyAliases = map[string]string{
	"control": "ctrl",
	"option":  "alt",
	"win":     "cmd",
	"super":   "cmd",
	"command": "cmd",
	"escape":  "esc",
	"return":  "enter",
}

// Combo is a parsed key combination such as "ctrl+shift+s". Each slot holds
// the keycodes that satisfy it.
type Combo struct {
	name  string
	slots [][]uint16
}

// ParseCombo parses a "+"-separated combination of gohook key names.
func ParseCombo(s string) (Combo, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Combo{}, errors.New("input: empty hotkey")
	}
	c := Combo{name: s}
	for _, part := range strings.Split(s, "+") {
		part = strings.TrimSpace(part)
		if alias, ok := keyAliases[part]; ok {
			part = alias
		}
		code, ok := gohook.Keycode[part]
		if !ok {
			return Combo{}, fmt.Errorf("input: unknown key %q in hotkey %q", part, s)
		}
		slot := []uint16{code}
		for _, v := range keyVariants[part] {
			if alt, ok := gohook.Keycode[v]; ok {
				slot = append(slot, alt)
			}
		}
		c.slots = append(c.slots, slot)
	}
	return c, nil
}

// String returns the normalized combination text.
func (c Combo) String() string { return c.name }

// comboState tracks held keys. A combo fires once per press of its last
// key and re-arms when any of its keys is released.
type comboState struct {
	combo   Combo
	held    map[uint16]bool
	latched bool
}

func newComboState(c Combo) *comboState {
	return &comboState{combo: c, held: make(map[uint16]bool)}
}

// feed applies one hook event and reports whether the combo fired.
func (s *comboState) feed(ev gohook.Event) bool {
	switch ev.Kind {
	case gohook.KeyDown:
		s.held[ev.Keycode] = true
	case gohook.KeyUp:
		delete(s.held, ev.Keycode)
		s.latched = false
		return false
	default:
		return false
	}
	if s.latched || len(s.combo.slots) == 0 {
		return false
	}
	for _, slot := range s.combo.slots {
		if !s.anyHeld(slot) {
			return false
		}
	}
	s.latched = true
	return true
}

func (s *comboState) anyHeld(codes []uint16) bool {
	for _, c := range codes {
		if s.held[c] {
			return true
		}
	}
	return false
}

// HookSource starts a raw hook and returns its events and a stop function.
type HookSource func() (<-chan gohook.Event, func())

// GlobalHook is the process-wide gohook listener.
func GlobalHook() (<-chan gohook.Event, func()) {
	return gohook.Start(), gohook.End
}

// Hotkey watches the global keyboard for one combination. Presses are
// coalesced into Fired until the UI tick takes them.
type Hotkey struct {
	combo  Combo
	source HookSource
	logger *slog.Logger
	fired  chan struct{}

	mu   sync.Mutex
	stop func()
	quit chan struct{}
	done chan struct{}
}

// NewHotkey returns a hotkey reading from src; nil uses GlobalHook.
func NewHotkey(combo Combo, src HookSource, logger *slog.Logger) *Hotkey {
	if src == nil {
		src = GlobalHook
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hotkey{
		combo:  combo,
		source: src,
		logger: logger.With("component", "hotkey"),
		fired:  make(chan struct{}, 1),
	}
}

// Fired delivers one value per detected press.
func (h *Hotkey) Fired() <-chan struct{} {
	if h == nil {
		return nil
	}
	return h.fired
}

// Start begins listening. Calling it twice has no effect.
func (h *Hotkey) Start() {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stop != nil {
		return
	}
	events, stop := h.source()
	if events == nil {
		h.logger.Error("hotkey hook did not start", "hotkey", h.combo.String())
		return
	}
	h.stop = stop
	h.quit = make(chan struct{})
	h.done = make(chan struct{})
	go h.run(events, h.quit, h.done)
	h.logger.Info("hotkey listening", "hotkey", h.combo.String())
}

// Close stops the hook. It is idempotent.
func (h *Hotkey) Close() {
	if h == nil {
		return
	}
	h.mu.Lock()
	stop, quit, done := h.stop, h.quit, h.done
	h.stop, h.quit, h.done = nil, nil, nil
	h.mu.Unlock()
	if stop == nil {
		return
	}
	close(quit)
	<-done
	stop()
	h.logger.Debug("hotkey stopped")
}

func (h *Hotkey) run(events <-chan gohook.Event, quit, done chan struct{}) {
	defer close(done)
	state := newComboState(h.combo)
	for {
		select {
		case <-quit:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if !state.feed(ev) {
				continue
			}
			h.logger.Debug("hotkey pressed", "hotkey", h.combo.String())
			select {
			case h.fired <- struct{}{}:
			default:
			}
		}
	}
}
