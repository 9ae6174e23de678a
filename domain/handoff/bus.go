package handoff

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	ErrUnknownEndpoint = errors.New("handoff: endpoint not registered")
	ErrMailboxFull     = errors.New("handoff: endpoint buffer full")
	ErrBusClosed       = errors.New("handoff: bus closed")
)

// Recorder observes delivered messages.
type Recorder interface {
	Handoff(kind string)
}

type endpointInfo struct {
	ch     chan Envelope
	active bool
}

// Bus routes envelopes between registered windows. Sends never block: each
// window drains its own channel from its UI tick.
type Bus struct {
	mu        sync.RWMutex
	endpoints map[Endpoint]*endpointInfo
	closed    bool
	recorder  Recorder
	logger    *slog.Logger
}

// NewBus returns an empty bus.
func NewBus(recorder Recorder, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		endpoints: make(map[Endpoint]*endpointInfo),
		recorder:  recorder,
		logger:    logger.With("component", "handoff"),
	}
}

// Register adds an endpoint with the given buffer size.
func (b *Bus) Register(ep Endpoint, buffer int) (<-chan Envelope, error) {
	if buffer < 1 {
		buffer = 1
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBusClosed
	}
	if _, exists := b.endpoints[ep]; exists {
		return nil, fmt.Errorf("handoff: endpoint %s already registered", ep)
	}
	ch := make(chan Envelope, buffer)
	b.endpoints[ep] = &endpointInfo{ch: ch, active: true}
	b.logger.Debug("endpoint registered", "endpoint", string(ep), "buffer", buffer)
	return ch, nil
}

// Unregister removes an endpoint and closes its channel. Unknown endpoints
// are ignored.
func (b *Bus) Unregister(ep Endpoint) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if info, ok := b.endpoints[ep]; ok {
		info.active = false
		close(info.ch)
		delete(b.endpoints, ep)
		b.logger.Debug("endpoint unregistered", "endpoint", string(ep))
	}
}

// Send delivers a copy of env to env.To.
func (b *Bus) Send(env Envelope) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}
	info, ok := b.endpoints[env.To]
	if !ok || !info.active {
		return fmt.Errorf("%w: %s", ErrUnknownEndpoint, env.To)
	}
	select {
	case info.ch <- env.clone():
	default:
		return fmt.Errorf("%w: %s", ErrMailboxFull, env.To)
	}
	b.logger.Debug("handoff", "flow", env.FlowID, "from", string(env.From), "to", string(env.To), "kind", string(env.Kind))
	if b.recorder != nil {
		b.recorder.Handoff(string(env.Kind))
	}
	return nil
}

// Post encodes msg and sends it.
func (b *Bus) Post(flowID string, from, to Endpoint, msg Message) error {
	env, err := NewEnvelope(flowID, from, to, msg)
	if err != nil {
		return err
	}
	return b.Send(env)
}

// Endpoints lists the registered endpoints.
func (b *Bus) Endpoints() []Endpoint {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Endpoint, 0, len(b.endpoints))
	for ep := range b.endpoints {
		out = append(out, ep)
	}
	return out
}

// Close unregisters everything. Further sends fail with ErrBusClosed.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ep, info := range b.endpoints {
		info.active = false
		close(info.ch)
		delete(b.endpoints, ep)
	}
}

// Drain hands every envelope currently queued on ch to fn without blocking.
// It reports false once ch is closed.
func Drain(ch <-chan Envelope, fn func(Envelope)) bool {
	for {
		select {
		case env, ok := <-ch:
			if !ok {
				return false
			}
			fn(env)
		default:
			return true
		}
	}
}
