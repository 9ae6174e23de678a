package presenter

import "time"

// StatusView sets the status line in the view.
type StatusView interface{ SetStatus(string) }

// StatusPresenter receives status strings from the core and reflects the
// latest one on the next tick. It is used from the UI loop only.
type StatusPresenter struct {
	view    StatusView
	latest  string
	pending []string
}

func NewStatusPresenter(view StatusView) *StatusPresenter {
	return &StatusPresenter{view: view}
}

// OnStatus queues a status line.
func (p *StatusPresenter) OnStatus(s string) {
	if p == nil {
		return
	}
	p.pending = append(p.pending, s)
}

// Latest is the last status reflected on the view.
func (p *StatusPresenter) Latest() string {
	if p == nil {
		return ""
	}
	return p.latest
}

// Tick flushes the most recent queued status to the view.
func (p *StatusPresenter) Tick(now time.Time) {
	if p == nil || p.view == nil {
		return
	}
	if len(p.pending) == 0 {
		return
	}
	last := p.pending[len(p.pending)-1]
	p.pending = p.pending[:0]
	if last != p.latest {
		p.latest = last
		p.view.SetStatus(last)
	}
}
