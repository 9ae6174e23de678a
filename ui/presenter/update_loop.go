package presenter

import "time"

// Ticker is anything advanced by the UI loop.
type Ticker interface{ Tick(now time.Time) }

// Loop aggregates feature presenters and drives periodic updates.
//
// It calls Tick on the host session and the sub-presenters and invokes a
// scheduler callback. The zero value is usable (methods are nil-safe).
type Loop struct {
	Host     Ticker
	Source   *SourcePresenter
	Session  *SessionPresenter
	Status   *StatusPresenter
	Hotkey   Ticker
	Schedule func()
}

func NewLoop(host Ticker, src *SourcePresenter, sess *SessionPresenter, status *StatusPresenter, schedule func()) *Loop {
	return &Loop{Host: host, Source: src, Session: sess, Status: status, Schedule: schedule}
}

func (l *Loop) Tick() {
	if l == nil {
		return
	}
	now := time.Now()
	// The host delivers handoff messages and ticks every overlay and slice
	// window before the root presenters read its state.
	if l.Host != nil {
		l.Host.Tick(now)
	}
	if l.Hotkey != nil {
		l.Hotkey.Tick(now)
	}
	if l.Source != nil {
		l.Source.Tick(now)
	}
	if l.Session != nil {
		l.Session.Tick(now)
	}
	if l.Status != nil {
		l.Status.Tick(now)
	}
	if l.Schedule != nil {
		l.Schedule()
	}
}
