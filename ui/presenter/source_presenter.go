package presenter

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/soocke/sliceview/domain/geometry"
	"github.com/soocke/sliceview/domain/source"
	"github.com/soocke/sliceview/ui/model"
)

// SourceHost is the core side of the root window.
type SourceHost interface {
	RequestSourceList(kind source.Kind)
	RequestCaptureStart(sourceID string) error
	RequestSelectionCancel()
}

// SourceView is the source list part of the root window.
type SourceView interface {
	SetSources(names []string, selected int)
	SetThumbnail(png []byte)
	SetEmptyState(text string)
	SetCaptureEnabled(enabled bool)
}

// ChangeWatcher flags that the source list may be stale.
type ChangeWatcher interface{ Changed() bool }

// SourcePresenter drives the source list and relays core results to the
// root window. It implements the shell callbacks the host session calls.
type SourcePresenter struct {
	host     SourceHost
	model    *model.SourceListModel
	view     SourceView
	status   *StatusPresenter
	watcher  ChangeWatcher
	remember func(id string)
	preferID string
	logger   *slog.Logger
}

// NewSourcePresenter builds the presenter. preferID is selected when it
// appears in a listing; remember is called with every chosen id.
func NewSourcePresenter(host SourceHost, m *model.SourceListModel, view SourceView, status *StatusPresenter, watcher ChangeWatcher, preferID string, remember func(id string), logger *slog.Logger) *SourcePresenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SourcePresenter{
		host:     host,
		model:    m,
		view:     view,
		status:   status,
		watcher:  watcher,
		remember: remember,
		preferID: preferID,
		logger:   logger.With("component", "source_presenter"),
	}
}

// Refresh asks the host for a new listing of the current kind.
func (p *SourcePresenter) Refresh() {
	if p == nil || p.host == nil || p.model == nil {
		return
	}
	if sel, ok := p.model.Selected(); ok {
		p.preferID = sel.ID
	}
	p.host.RequestSourceList(p.model.Kind())
}

// SelectKind switches between window, screen and both and refreshes.
func (p *SourcePresenter) SelectKind(kind string) {
	if p == nil || p.model == nil {
		return
	}
	k, err := source.ParseKind(kind)
	if err != nil {
		p.logger.Warn("unknown source kind", "kind", kind)
		return
	}
	if k == p.model.Kind() {
		return
	}
	p.model.SetKind(k)
	p.Refresh()
}

// SelectIndex chooses the i-th listed source.
func (p *SourcePresenter) SelectIndex(i int) {
	if p == nil || p.model == nil || p.view == nil {
		return
	}
	src, ok := p.model.Select(i)
	if !ok {
		p.view.SetCaptureEnabled(false)
		return
	}
	p.preferID = src.ID
	p.view.SetThumbnail(src.Thumbnail)
	p.view.SetCaptureEnabled(true)
	if p.remember != nil {
		p.remember(src.ID)
	}
}

// StartCapture opens the selection overlay over the selected source.
func (p *SourcePresenter) StartCapture() {
	if p == nil || p.host == nil || p.model == nil {
		return
	}
	src, ok := p.model.Selected()
	if !ok {
		p.SetStatus("Select a source first")
		return
	}
	if err := p.host.RequestCaptureStart(src.ID); err != nil {
		p.logger.Warn("capture start rejected", "source", src.ID, "error", err)
		p.SetStatus(err.Error())
		return
	}
	p.SetStatus("Drag a region on " + src.Name)
}

// Cancel closes an open selection overlay.
func (p *SourcePresenter) Cancel() {
	if p == nil || p.host == nil {
		return
	}
	p.host.RequestSelectionCancel()
}

// ShowSources applies a listing result.
func (p *SourcePresenter) ShowSources(sources []source.Source, err error) {
	if p == nil || p.model == nil || p.view == nil {
		return
	}
	p.model.Set(sources, err, p.preferID)
	if err != nil {
		var enumErr *source.EnumerationError
		if errors.As(err, &enumErr) {
			p.view.SetEmptyState("Capture unavailable: " + enumErr.Error())
		} else {
			p.view.SetEmptyState("Listing failed: " + err.Error())
		}
		p.view.SetSources(nil, -1)
		p.view.SetThumbnail(nil)
		p.view.SetCaptureEnabled(false)
		p.SetStatus("No sources available")
		return
	}
	names := p.model.Names()
	if len(names) == 0 {
		p.view.SetEmptyState("No " + kindNoun(p.model.Kind(), 2) + " found")
	} else {
		p.view.SetEmptyState("")
	}
	idx := p.model.SelectedIndex()
	p.view.SetSources(names, idx)
	if sel, ok := p.model.Selected(); ok {
		p.view.SetThumbnail(sel.Thumbnail)
		p.view.SetCaptureEnabled(true)
	} else {
		p.view.SetThumbnail(nil)
		p.view.SetCaptureEnabled(false)
	}
	p.SetStatus(fmt.Sprintf("Found %d %s", len(names), kindNoun(p.model.Kind(), len(names))))
}

// OnSelectionResolved reports a confirmed selection.
func (p *SourcePresenter) OnSelectionResolved(sourceID string, rect geometry.Rect) {
	if p == nil {
		return
	}
	p.logger.Info("selection resolved", "source", sourceID, "rect", rect.String())
	p.SetStatus(fmt.Sprintf("Slice opened %dx%d", rect.Width, rect.Height))
}

// OnCaptureError reports a flow aborted by a capture error and returns the
// user to a fresh list.
func (p *SourcePresenter) OnCaptureError(message string) {
	if p == nil {
		return
	}
	p.SetStatus(message)
	p.Refresh()
}

// SetStatus forwards a status line to the status presenter.
func (p *SourcePresenter) SetStatus(s string) {
	if p == nil || p.status == nil {
		return
	}
	p.status.OnStatus(s)
}

// Tick refreshes the list when the watcher saw a change.
func (p *SourcePresenter) Tick(now time.Time) {
	if p == nil || p.watcher == nil {
		return
	}
	if p.watcher.Changed() {
		p.logger.Debug("refreshing changed sources")
		p.Refresh()
	}
}

func kindNoun(k source.Kind, n int) string {
	noun := "source"
	switch k {
	case source.KindWindow:
		noun = "window"
	case source.KindScreen:
		noun = "screen"
	}
	if n != 1 {
		noun += "s"
	}
	return noun
}
