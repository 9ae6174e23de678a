package presenter

import "time"

// HotkeyPresenter starts a capture on the UI tick after the global hotkey
// fired. Presses queued since the last tick count once.
type HotkeyPresenter struct {
	fired <-chan struct{}
	start func()
}

func NewHotkeyPresenter(fired <-chan struct{}, start func()) *HotkeyPresenter {
	return &HotkeyPresenter{fired: fired, start: start}
}

func (p *HotkeyPresenter) Tick(now time.Time) {
	if p == nil || p.start == nil {
		return
	}
	if p.drain() {
		p.start()
	}
}

// drain empties the press channel and reports whether anything was queued.
func (p *HotkeyPresenter) drain() bool {
	pressed := false
	for p.fired != nil {
		select {
		case _, ok := <-p.fired:
			if !ok {
				p.fired = nil
				return pressed
			}
			pressed = true
		default:
			return pressed
		}
	}
	return pressed
}
