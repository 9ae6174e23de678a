package handoff

import (
	"errors"
	"sync"
)

// ErrNotReady is returned by a Mailbox receiver that cannot take a message
// yet. The message stays queued for the next flush.
var ErrNotReady = errors.New("handoff: receiver not ready")

// Mailbox queues envelopes for a receiver that may not be ready and replays
// them in order once it is.
type Mailbox struct {
	mu      sync.Mutex
	ready   bool
	pending []Envelope
	deliver func(Envelope) error
}

// NewMailbox returns a mailbox that hands envelopes to deliver.
func NewMailbox(deliver func(Envelope) error) *Mailbox {
	return &Mailbox{deliver: deliver}
}

// Post queues env and flushes if the receiver is ready.
func (m *Mailbox) Post(env Envelope) error {
	m.mu.Lock()
	m.pending = append(m.pending, env.clone())
	ready := m.ready
	m.mu.Unlock()
	if !ready {
		return nil
	}
	return m.Flush()
}

// MarkReady marks the receiver ready and replays the queue.
func (m *Mailbox) MarkReady() error {
	m.mu.Lock()
	m.ready = true
	m.mu.Unlock()
	return m.Flush()
}

// Flush delivers queued envelopes until one is refused. A receiver that
// answers ErrNotReady is marked not ready and keeps its queue.
func (m *Mailbox) Flush() error {
	for {
		m.mu.Lock()
		if !m.ready || len(m.pending) == 0 || m.deliver == nil {
			m.mu.Unlock()
			return nil
		}
		env := m.pending[0]
		m.mu.Unlock()

		err := m.deliver(env)
		if errors.Is(err, ErrNotReady) {
			m.mu.Lock()
			m.ready = false
			m.mu.Unlock()
			return nil
		}

		m.mu.Lock()
		if len(m.pending) > 0 {
			m.pending = m.pending[1:]
		}
		m.mu.Unlock()
		if err != nil {
			return err
		}
	}
}

// Pending counts queued envelopes.
func (m *Mailbox) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Ready reports whether the receiver was marked ready.
func (m *Mailbox) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}
