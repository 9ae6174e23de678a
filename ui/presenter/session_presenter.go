package presenter

import (
	"time"

	"github.com/soocke/sliceview/ui/model"
)

// LiveModel reports how many slices are live.
type LiveModel interface{ LiveSlices() int }

// SessionView displays formatted session and total durations and the slice counts.
type SessionView interface {
	SetSession(session, total time.Duration)
	SetSlices(current, peak int)
}

// SessionPresenter formats session and total durations from the model to the view.
type SessionPresenter struct {
	sess *model.SessionModel
	live LiveModel
	view SessionView
}

// NewSessionPresenter returns a new SessionPresenter.
func NewSessionPresenter(sess *model.SessionModel, live LiveModel, view SessionView) *SessionPresenter {
	return &SessionPresenter{sess: sess, live: live, view: view}
}

// Tick updates the presenter: advance the session model and push values to the view.
func (p *SessionPresenter) Tick(now time.Time) {
	if p == nil || p.sess == nil || p.live == nil || p.view == nil {
		return
	}
	p.sess.OnTick(p.live.LiveSlices(), now)
	s, t := p.sess.Values()
	p.view.SetSession(s, t)
	p.view.SetSlices(p.sess.Slices())
}
