package presenter

import (
	"errors"
	"testing"
	"time"

	"github.com/soocke/sliceview/domain/geometry"
	"github.com/soocke/sliceview/domain/source"
	"github.com/soocke/sliceview/ui/model"
)

type fakeHost struct {
	lists    []source.Kind
	started  []string
	startErr error
	cancels  int
}

func (h *fakeHost) RequestSourceList(kind source.Kind) { h.lists = append(h.lists, kind) }
func (h *fakeHost) RequestCaptureStart(id string) error {
	h.started = append(h.started, id)
	return h.startErr
}
func (h *fakeHost) RequestSelectionCancel() { h.cancels++ }

type sourceViewSpy struct {
	names    []string
	selected int
	thumb    []byte
	empty    string
	enabled  bool
}

func (v *sourceViewSpy) SetSources(names []string, selected int) { v.names, v.selected = names, selected }
func (v *sourceViewSpy) SetThumbnail(png []byte)                 { v.thumb = png }
func (v *sourceViewSpy) SetEmptyState(text string)               { v.empty = text }
func (v *sourceViewSpy) SetCaptureEnabled(enabled bool)          { v.enabled = enabled }

type flag struct{ set bool }

func (f *flag) Changed() bool { v := f.set; f.set = false; return v }

func newSourceFixture() (*SourcePresenter, *fakeHost, *sourceViewSpy, *StatusPresenter, *statusViewSpy, *[]string) {
	host := &fakeHost{}
	view := &sourceViewSpy{}
	statusView := &statusViewSpy{}
	status := NewStatusPresenter(statusView)
	remembered := &[]string{}
	p := NewSourcePresenter(host, model.NewSourceListModel(source.KindWindow), view, status, nil, "window:7:0",
		func(id string) { *remembered = append(*remembered, id) }, discardLogger)
	return p, host, view, status, statusView, remembered
}

var twoWindows = []source.Source{
	{ID: "window:3:0", Name: "Editor", Kind: source.KindWindow, Thumbnail: []byte{1}},
	{ID: "window:7:0", Name: "Terminal", Kind: source.KindWindow, Thumbnail: []byte{2}},
}

func TestSourcePresenter_ShowSourcesKeepsPreferred(t *testing.T) {
	p, _, view, status, statusView, _ := newSourceFixture()
	p.ShowSources(twoWindows, nil)
	status.Tick(time.Now())
	if len(view.names) != 2 || view.selected != 1 || view.thumb[0] != 2 || !view.enabled {
		t.Fatalf("unexpected view %+v", view)
	}
	if got := statusView.lines[len(statusView.lines)-1]; got != "Found 2 windows" {
		t.Fatalf("unexpected status %q", got)
	}
	if view.empty != "" {
		t.Fatalf("empty state should be cleared")
	}
}

func TestSourcePresenter_EnumerationErrorShowsEmptyState(t *testing.T) {
	p, _, view, _, _, _ := newSourceFixture()
	p.ShowSources(nil, &source.EnumerationError{Kind: source.KindScreen, Err: errors.New("no display")})
	if view.empty == "" || view.enabled || len(view.names) != 0 {
		t.Fatalf("expected empty state, got %+v", view)
	}
	p.ShowSources(nil, nil)
	if view.empty != "No windows found" {
		t.Fatalf("unexpected empty text %q", view.empty)
	}
}

func TestSourcePresenter_SelectAndStart(t *testing.T) {
	p, host, view, status, statusView, remembered := newSourceFixture()
	p.ShowSources(twoWindows, nil)
	p.SelectIndex(0)
	if view.thumb[0] != 1 || len(*remembered) != 1 || (*remembered)[0] != "window:3:0" {
		t.Fatalf("select did not update thumbnail or config")
	}
	p.StartCapture()
	if len(host.started) != 1 || host.started[0] != "window:3:0" {
		t.Fatalf("unexpected starts %v", host.started)
	}
	host.startErr = errors.New("a selection is already in progress")
	p.StartCapture()
	status.Tick(time.Now())
	if got := statusView.lines[len(statusView.lines)-1]; got != "a selection is already in progress" {
		t.Fatalf("rejection not surfaced, got %q", got)
	}
	p.Cancel()
	if host.cancels != 1 {
		t.Fatalf("cancel not forwarded")
	}
}

func TestSourcePresenter_KindAndRefresh(t *testing.T) {
	p, host, _, _, _, _ := newSourceFixture()
	p.SelectKind("window")
	if len(host.lists) != 0 {
		t.Fatalf("same kind must not refresh")
	}
	p.SelectKind("screen")
	p.SelectKind("bogus")
	if len(host.lists) != 1 || host.lists[0] != source.KindScreen {
		t.Fatalf("unexpected listings %v", host.lists)
	}

	w := &flag{}
	p.watcher = w
	p.Tick(time.Now())
	w.set = true
	p.Tick(time.Now())
	if len(host.lists) != 2 {
		t.Fatalf("watcher change should refresh, got %v", host.lists)
	}
}

func TestSourcePresenter_CoreCallbacks(t *testing.T) {
	p, host, _, status, statusView, _ := newSourceFixture()
	p.OnSelectionResolved("screen:0:0", geometry.Rect{X: 192, Width: 384, Height: 192})
	status.Tick(time.Now())
	if got := statusView.lines[len(statusView.lines)-1]; got != "Slice opened 384x192" {
		t.Fatalf("unexpected status %q", got)
	}
	p.OnCaptureError("capture: source window:9:0 not found")
	status.Tick(time.Now())
	if got := statusView.lines[len(statusView.lines)-1]; got != "capture: source window:9:0 not found" {
		t.Fatalf("unexpected status %q", got)
	}
	if len(host.lists) != 1 {
		t.Fatalf("capture error should return to a fresh list")
	}
}
