package handoff

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Endpoint addresses a window on the bus.
type Endpoint string

// EndpointHost is the root window.
const EndpointHost Endpoint = "host"

var ErrUnknownKind = errors.New("handoff: unknown message kind")

// Envelope carries one encoded message between windows. Payload is the JSON
// encoding of the message, so receivers never share memory with senders.
type Envelope struct {
	FlowID  string          `json:"flowId"`
	From    Endpoint        `json:"from"`
	To      Endpoint        `json:"to"`
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// NewEnvelope encodes msg for delivery.
func NewEnvelope(flowID string, from, to Endpoint, msg Message) (Envelope, error) {
	if msg == nil {
		return Envelope{}, fmt.Errorf("handoff: nil message")
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return Envelope{}, fmt.Errorf("handoff: encode %s: %w", msg.Kind(), err)
	}
	return Envelope{FlowID: flowID, From: from, To: to, Kind: msg.Kind(), Payload: payload}, nil
}

// Decode returns a fresh copy of the carried message.
func (e Envelope) Decode() (Message, error) {
	var (
		msg Message
		err error
	)
	switch e.Kind {
	case KindTargetSelected:
		var m TargetSelected
		err = json.Unmarshal(e.Payload, &m)
		msg = m
	case KindSelectionResolved:
		var m SelectionResolved
		err = json.Unmarshal(e.Payload, &m)
		msg = m
	case KindSelectionCancelled:
		var m SelectionCancelled
		if len(e.Payload) > 0 {
			err = json.Unmarshal(e.Payload, &m)
		}
		msg = m
	case KindSliceOpened:
		var m SliceOpened
		err = json.Unmarshal(e.Payload, &m)
		msg = m
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, e.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("handoff: decode %s: %w", e.Kind, err)
	}
	return msg, nil
}

func (e Envelope) clone() Envelope {
	c := e
	c.Payload = append(json.RawMessage(nil), e.Payload...)
	return c
}
