package handoff

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/soocke/sliceview/domain/geometry"
)

// ErrFlowSettled is returned when a flow already has its outcome.
var ErrFlowSettled = errors.New("handoff: flow already settled")

// Flow guards one selection flow so that exactly one outcome message leaves it.
type Flow struct {
	id       string
	sourceID string

	mu      sync.Mutex
	outcome Kind
}

// NewFlow starts a flow for sourceID.
func NewFlow(sourceID string) *Flow {
	return &Flow{id: uuid.NewString(), sourceID: sourceID}
}

// JoinFlow tracks an existing flow on the receiving side of TargetSelected.
func JoinFlow(id, sourceID string) *Flow {
	return &Flow{id: id, sourceID: sourceID}
}

func (f *Flow) ID() string       { return f.id }
func (f *Flow) SourceID() string { return f.sourceID }

// Target is the message that opens the flow on the overlay.
func (f *Flow) Target() TargetSelected { return TargetSelected{SourceID: f.sourceID} }

// Resolve settles the flow with a selection.
func (f *Flow) Resolve(res geometry.Resolution) (SelectionResolved, error) {
	if err := f.settle(KindSelectionResolved); err != nil {
		return SelectionResolved{}, err
	}
	return SelectionResolved{SourceID: f.sourceID, SelectionRect: res.Rect, Mode: res.Mode.String()}, nil
}

// Cancel settles the flow with a user cancellation.
func (f *Flow) Cancel() (SelectionCancelled, error) {
	if err := f.settle(KindSelectionCancelled); err != nil {
		return SelectionCancelled{}, err
	}
	return SelectionCancelled{}, nil
}

// Abandon settles the flow when the overlay disappears without user action.
// It is a cancellation.
func (f *Flow) Abandon() (SelectionCancelled, error) {
	if err := f.settle(KindSelectionCancelled); err != nil {
		return SelectionCancelled{}, err
	}
	return SelectionCancelled{Implicit: true}, nil
}

// Abort settles the flow with a cancellation carrying the failure reason.
func (f *Flow) Abort(reason string) (SelectionCancelled, error) {
	if err := f.settle(KindSelectionCancelled); err != nil {
		return SelectionCancelled{}, err
	}
	return SelectionCancelled{Reason: reason}, nil
}

// Accept records an outcome received from the other side. A second outcome
// for the same flow, or a message that is not an outcome, is rejected.
func (f *Flow) Accept(msg Message) error {
	switch msg.(type) {
	case SelectionResolved, SelectionCancelled:
	default:
		return fmt.Errorf("handoff: %s is not a flow outcome", msg.Kind())
	}
	return f.settle(msg.Kind())
}

// Settled reports whether an outcome was produced.
func (f *Flow) Settled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outcome != ""
}

// Outcome is the kind of the settling message, or "" while pending.
func (f *Flow) Outcome() Kind {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outcome
}

func (f *Flow) settle(kind Kind) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.outcome != "" {
		return ErrFlowSettled
	}
	f.outcome = kind
	return nil
}
