package model

import (
	"github.com/soocke/sliceview/domain/source"
)

// SourceListModel holds the last enumeration and the user's pick. Updates
// occur on the UI thread tick, so no synchronization is needed. The zero
// value is an empty list of KindBoth.
type SourceListModel struct {
	kind     source.Kind
	sources  []source.Source
	selected int
	err      error
}

func NewSourceListModel(kind source.Kind) *SourceListModel {
	return &SourceListModel{kind: kind, selected: -1}
}

// Kind is the kind used for the next listing.
func (m *SourceListModel) Kind() source.Kind {
	if m == nil || m.kind == "" {
		return source.KindBoth
	}
	return m.kind
}

func (m *SourceListModel) SetKind(k source.Kind) {
	if m == nil {
		return
	}
	m.kind = k
}

// Set replaces the list. The selection follows preferID when it is still
// listed, otherwise the first entry is selected.
func (m *SourceListModel) Set(sources []source.Source, err error, preferID string) {
	if m == nil {
		return
	}
	m.sources = append([]source.Source(nil), sources...)
	m.err = err
	m.selected = -1
	if len(m.sources) == 0 {
		return
	}
	m.selected = 0
	if i := m.IndexOf(preferID); i >= 0 {
		m.selected = i
	}
}

// Err is the enumeration error of the last listing, if any.
func (m *SourceListModel) Err() error {
	if m == nil {
		return nil
	}
	return m.err
}

func (m *SourceListModel) Len() int {
	if m == nil {
		return 0
	}
	return len(m.sources)
}

// Names are the display names in list order.
func (m *SourceListModel) Names() []string {
	if m == nil {
		return nil
	}
	names := make([]string, len(m.sources))
	for i, s := range m.sources {
		names[i] = s.Name
	}
	return names
}

// IndexOf returns the position of id, or -1.
func (m *SourceListModel) IndexOf(id string) int {
	if m == nil || id == "" {
		return -1
	}
	for i, s := range m.sources {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// Select picks index i. Out-of-range indices are ignored.
func (m *SourceListModel) Select(i int) (source.Source, bool) {
	if m == nil || i < 0 || i >= len(m.sources) {
		return source.Source{}, false
	}
	m.selected = i
	return m.sources[i], true
}

// Selected returns the picked source.
func (m *SourceListModel) Selected() (source.Source, bool) {
	if m == nil || m.selected < 0 || m.selected >= len(m.sources) {
		return source.Source{}, false
	}
	return m.sources[m.selected], true
}

// SelectedIndex is the picked position or -1.
func (m *SourceListModel) SelectedIndex() int {
	if m == nil {
		return -1
	}
	return m.selected
}
