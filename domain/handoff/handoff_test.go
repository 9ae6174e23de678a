package handoff

import (
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soocke/sliceview/domain/geometry"
)

var discardLogger = slog.New(slog.NewTextHandler(&discardWriter{}, nil))

type discardWriter struct{}

func (d *discardWriter) Write(p []byte) (int, error) { return len(p), nil }

type kindCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func (k *kindCounter) Handoff(kind string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.counts == nil {
		k.counts = map[string]int{}
	}
	k.counts[kind]++
}

func TestEnvelope_WireNames(t *testing.T) {
	env, err := NewEnvelope("f1", "overlay", EndpointHost, SelectionResolved{
		SourceID:      "screen:0:0",
		SelectionRect: geometry.Rect{X: 192, Y: 0, Width: 384, Height: 192},
	})
	require.NoError(t, err)
	assert.Equal(t, KindSelectionResolved, env.Kind)
	assert.JSONEq(t, `{"sourceId":"screen:0:0","selectionRect":{"x":192,"y":0,"width":384,"height":192},"release":{"x":0,"y":0}}`, string(env.Payload))

	msg, err := env.Decode()
	require.NoError(t, err)
	res, ok := msg.(SelectionResolved)
	require.True(t, ok)
	assert.Equal(t, 384, res.SelectionRect.Width)
}

func TestEnvelope_DecodeUnknownKind(t *testing.T) {
	_, err := Envelope{Kind: "bogus"}.Decode()
	assert.ErrorIs(t, err, ErrUnknownKind)

	msg, err := Envelope{Kind: KindSelectionCancelled}.Decode()
	require.NoError(t, err)
	assert.Equal(t, SelectionCancelled{}, msg)
}

func TestBus_PayloadIsCopied(t *testing.T) {
	bus := NewBus(nil, discardLogger)
	ch, err := bus.Register("slice:1", 2)
	require.NoError(t, err)

	env, err := NewEnvelope("f1", EndpointHost, "slice:1", SliceOpened{SourceID: "window:7:0", SelectionRect: geometry.Rect{Width: 50, Height: 40}})
	require.NoError(t, err)
	require.NoError(t, bus.Send(env))
	for i := range env.Payload {
		env.Payload[i] = 'x'
	}

	got := <-ch
	msg, err := got.Decode()
	require.NoError(t, err)
	assert.Equal(t, "window:7:0", msg.(SliceOpened).SourceID)
}

func TestBus_SendErrors(t *testing.T) {
	rec := &kindCounter{}
	bus := NewBus(rec, discardLogger)
	err := bus.Post("f", EndpointHost, "nobody", TargetSelected{SourceID: "a"})
	assert.ErrorIs(t, err, ErrUnknownEndpoint)

	_, err = bus.Register("overlay", 1)
	require.NoError(t, err)
	_, err = bus.Register("overlay", 1)
	assert.Error(t, err)

	require.NoError(t, bus.Post("f", EndpointHost, "overlay", TargetSelected{SourceID: "a"}))
	err = bus.Post("f", EndpointHost, "overlay", TargetSelected{SourceID: "a"})
	assert.ErrorIs(t, err, ErrMailboxFull)
	assert.Equal(t, 1, rec.counts[string(KindTargetSelected)])

	bus.Close()
	assert.ErrorIs(t, bus.Post("f", EndpointHost, "overlay", TargetSelected{}), ErrBusClosed)
	bus.Close()
}

func TestDrain(t *testing.T) {
	bus := NewBus(nil, discardLogger)
	ch, err := bus.Register(EndpointHost, 4)
	require.NoError(t, err)
	require.NoError(t, bus.Post("a", "overlay", EndpointHost, SelectionCancelled{}))
	require.NoError(t, bus.Post("b", "overlay", EndpointHost, SelectionCancelled{Implicit: true}))

	var flows []string
	assert.True(t, Drain(ch, func(e Envelope) { flows = append(flows, e.FlowID) }))
	assert.Equal(t, []string{"a", "b"}, flows)

	bus.Unregister(EndpointHost)
	assert.False(t, Drain(ch, func(Envelope) {}))
}

func TestFlow_ExactlyOneOutcome(t *testing.T) {
	f := NewFlow("screen:0:0")
	assert.NotEmpty(t, f.ID())
	assert.NotEqual(t, f.ID(), NewFlow("screen:0:0").ID())

	res, err := f.Resolve(geometry.Resolution{Rect: geometry.Rect{Width: 20, Height: 20}, Mode: geometry.ModePrecise})
	require.NoError(t, err)
	assert.Equal(t, "precise", res.Mode)
	assert.Equal(t, KindSelectionResolved, f.Outcome())

	_, err = f.Cancel()
	assert.ErrorIs(t, err, ErrFlowSettled)
	_, err = f.Abandon()
	assert.ErrorIs(t, err, ErrFlowSettled)
	_, err = f.Resolve(geometry.Resolution{})
	assert.ErrorIs(t, err, ErrFlowSettled)
}

func TestFlow_AbandonIsCancellation(t *testing.T) {
	f := NewFlow("window:1:0")
	msg, err := f.Abandon()
	require.NoError(t, err)
	assert.True(t, msg.Implicit)
	assert.Equal(t, KindSelectionCancelled, f.Outcome())
	_, err = f.Resolve(geometry.Resolution{})
	assert.True(t, errors.Is(err, ErrFlowSettled))
}

func TestFlow_AcceptOnHostSide(t *testing.T) {
	overlay := NewFlow("window:1:0")
	host := JoinFlow(overlay.ID(), overlay.SourceID())
	assert.Equal(t, overlay.ID(), host.ID())

	msg, err := overlay.Abort("capture: window:1:0 not found")
	require.NoError(t, err)
	assert.Equal(t, "capture: window:1:0 not found", msg.Reason)

	require.NoError(t, host.Accept(msg))
	assert.ErrorIs(t, host.Accept(SelectionResolved{}), ErrFlowSettled)
	assert.Error(t, JoinFlow("x", "y").Accept(TargetSelected{}))
}

func TestFlow_ConcurrentSettleSingleWinner(t *testing.T) {
	f := NewFlow("screen:0:0")
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = f.Cancel()
			} else {
				_, err = f.Resolve(geometry.Resolution{})
			}
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestMailbox_BuffersUntilReady(t *testing.T) {
	var got []string
	mb := NewMailbox(func(e Envelope) error {
		got = append(got, e.FlowID)
		return nil
	})
	for _, id := range []string{"1", "2"} {
		env, err := NewEnvelope(id, EndpointHost, "slice", SliceOpened{})
		require.NoError(t, err)
		require.NoError(t, mb.Post(env))
	}
	assert.Empty(t, got)
	assert.Equal(t, 2, mb.Pending())

	require.NoError(t, mb.MarkReady())
	assert.Equal(t, []string{"1", "2"}, got)
	assert.Zero(t, mb.Pending())

	env, _ := NewEnvelope("3", EndpointHost, "slice", SliceOpened{})
	require.NoError(t, mb.Post(env))
	assert.Equal(t, []string{"1", "2", "3"}, got)
}

func TestMailbox_NotReadyKeepsMessage(t *testing.T) {
	accept := false
	delivered := 0
	mb := NewMailbox(func(e Envelope) error {
		if !accept {
			return ErrNotReady
		}
		delivered++
		return nil
	})
	env, _ := NewEnvelope("1", EndpointHost, "slice", SliceOpened{})
	require.NoError(t, mb.Post(env))
	require.NoError(t, mb.MarkReady())
	assert.False(t, mb.Ready())
	assert.Equal(t, 1, mb.Pending())

	accept = true
	require.NoError(t, mb.MarkReady())
	assert.Equal(t, 1, delivered)
	assert.Zero(t, mb.Pending())
}

func TestMailbox_DeliverErrorDropsAndReports(t *testing.T) {
	boom := errors.New("boom")
	mb := NewMailbox(func(e Envelope) error { return boom })
	env, _ := NewEnvelope("1", EndpointHost, "slice", SliceOpened{})
	require.NoError(t, mb.Post(env))
	assert.ErrorIs(t, mb.MarkReady(), boom)
	assert.Zero(t, mb.Pending())
}
