package handoff

import "github.com/soocke/sliceview/domain/geometry"

// Kind names a handoff message on the wire.
type Kind string

const (
	KindTargetSelected     Kind = "target-selected"
	KindSelectionResolved  Kind = "selection-resolved"
	KindSelectionCancelled Kind = "selection-cancelled"
	KindSliceOpened        Kind = "slice-opened"
)

// Message is implemented by every handoff payload.
type Message interface {
	Kind() Kind
}

// TargetSelected is sent host -> overlay to start a flow.
type TargetSelected struct {
	SourceID string `json:"sourceId"`
}

func (TargetSelected) Kind() Kind { return KindTargetSelected }

// SelectionResolved is sent overlay -> host with the native-space rectangle.
type SelectionResolved struct {
	SourceID      string        `json:"sourceId"`
	SelectionRect geometry.Rect `json:"selectionRect"`
	Mode          string        `json:"mode,omitempty"`
	// Release is where the pointer was let go, in screen pixels. The slice
	// window opens near it.
	Release geometry.Point `json:"release"`
}

func (SelectionResolved) Kind() Kind { return KindSelectionResolved }

// SelectionCancelled is sent overlay -> host. Implicit is set when the
// overlay went away without user action; Reason is set when the flow was
// aborted by a capture error.
type SelectionCancelled struct {
	Implicit bool   `json:"implicit,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

func (SelectionCancelled) Kind() Kind { return KindSelectionCancelled }

// SliceOpened is sent host -> viewport.
type SliceOpened struct {
	SourceID      string        `json:"sourceId"`
	SelectionRect geometry.Rect `json:"selectionRect"`
}

func (SliceOpened) Kind() Kind { return KindSliceOpened }
