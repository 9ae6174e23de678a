package model

import (
	"time"
)

// SessionModel tracks how long at least one slice has been live, the total
// live time across sessions and the peak number of concurrent slices.
// Presenters poll Values() and update views. The zero value is ready to use.
type SessionModel struct {
	active      bool
	liveStart   time.Time
	lastSession time.Duration
	accumulated time.Duration
	slices      int
	peak        int
}

// NewSessionModel returns a pointer to a ready-to-use SessionModel.
func NewSessionModel() *SessionModel { return &SessionModel{} }

// OnTick updates the model with the number of live slices at now.
func (m *SessionModel) OnTick(liveSlices int, now time.Time) {
	if m == nil {
		return
	}
	if liveSlices < 0 {
		liveSlices = 0
	}
	m.slices = liveSlices
	if liveSlices > m.peak {
		m.peak = liveSlices
	}
	if liveSlices > 0 {
		if !m.active { // off -> on
			m.active = true
			m.liveStart = now
			m.lastSession = 0
		}
		m.lastSession = now.Sub(m.liveStart)
	} else if m.active { // on -> off
		m.lastSession = now.Sub(m.liveStart)
		m.accumulated += m.lastSession
		m.active = false
	}
}

// Values returns the current session duration and the total accumulated
// duration. The total includes the ongoing session when active.
func (m *SessionModel) Values() (session, total time.Duration) {
	if m == nil {
		return 0, 0
	}
	session = m.lastSession
	total = m.accumulated
	if m.active {
		total += session
	}
	return
}

// Slices returns the live slice count of the last tick and the peak.
func (m *SessionModel) Slices() (current, peak int) {
	if m == nil {
		return 0, 0
	}
	return m.slices, m.peak
}
