package app

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/soocke/sliceview/config"
	"github.com/soocke/sliceview/domain/capture"
	"github.com/soocke/sliceview/domain/geometry"
	"github.com/soocke/sliceview/domain/handoff"
	"github.com/soocke/sliceview/domain/slice"
	"github.com/soocke/sliceview/domain/source"
	"github.com/soocke/sliceview/metrics"
	"github.com/soocke/sliceview/ui/input"
	"github.com/soocke/sliceview/ui/model"
	"github.com/soocke/sliceview/ui/presenter"
	"github.com/soocke/sliceview/ui/view"
)

// AppTitle prefixes every window the application opens. Listings skip
// windows with this prefix.
const AppTitle = "SliceView"

// AppContainer assembles services, models, presenters and the root view.
type AppContainer struct {
	Config     *config.Config
	ConfigPath string
	Logger     *slog.Logger
	Metrics    *metrics.Collector

	Platform source.Platform
	Grabber  capture.Grabber
	Sources  *source.Enumerator
	Bus      *handoff.Bus
	Hotkey   *input.Hotkey
	Host     *HostSession

	SourceList *model.SourceListModel
	Session    *model.SessionModel
	Watcher    *presenter.SourceWatcher
	RootView   *view.RootView

	// Presenters
	StatusPresenter  *presenter.StatusPresenter
	SourcePresenter  *presenter.SourcePresenter
	SessionPresenter *presenter.SessionPresenter
	HotkeyPresenter  *presenter.HotkeyPresenter
	Loop             *presenter.Loop
}

// lateLocator breaks the grabber/enumerator construction cycle: the grabber
// re-locates windows through the enumerator, which thumbnails through the
// grabber.
type lateLocator struct{ source.Locator }

// BuildServices constructs everything that does not touch Tk. The CLI
// commands use it directly.
func BuildServices(cfg *config.Config, cfgPath string, logger *slog.Logger) *AppContainer {
	c := &AppContainer{Config: cfg, ConfigPath: cfgPath, Logger: logger}
	c.Metrics = metrics.NewCollector()
	c.Platform = source.NewPlatform()
	loc := &lateLocator{}
	c.Grabber = capture.NewDesktopGrabber(loc)
	c.Sources = source.NewEnumerator(c.Platform, capture.Snapshot(c.Grabber), source.Options{
		ThumbnailSize:      cfg.ThumbnailSize,
		ExcludeTitlePrefix: AppTitle,
	}, logger)
	loc.Locator = c.Sources
	return c
}

// BuildContainer adds the handoff bus, capture hotkey, host session and root
// presenters to the services. The root view is built by the app.
func BuildContainer(cfg *config.Config, cfgPath string, logger *slog.Logger) (*AppContainer, error) {
	c := BuildServices(cfg, cfgPath, logger)
	c.Bus = handoff.NewBus(c.Metrics, logger)
	c.Hotkey = newHotkey(cfg.CaptureHotkey, nil, logger)
	host, err := NewHostSession(HostOptions{
		Lister:     c.Sources,
		Bus:        c.Bus,
		NewOverlay: c.openOverlay,
		NewSlice:   c.openSlice,
		Recorder:   c.Metrics,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("app: host session: %w", err)
	}
	c.Host = host

	kind, err := source.ParseKind(kindOf(cfg.LastSourceID))
	if err != nil {
		kind = source.KindWindow
	}
	c.SourceList = model.NewSourceListModel(kind)
	c.Session = model.NewSessionModel()
	c.Watcher = presenter.NewSourceWatcher(logger, sourceFingerprint(c.Platform), 0)
	c.RootView = view.NewRootView(cfg, cfgPath, logger)
	c.StatusPresenter = presenter.NewStatusPresenter(c.RootView)
	c.SourcePresenter = presenter.NewSourcePresenter(c.Host, c.SourceList, c.RootView, c.StatusPresenter, c.Watcher, cfg.LastSourceID, c.rememberSource, logger)
	c.SessionPresenter = presenter.NewSessionPresenter(c.Session, c.Host, c.RootView)
	c.HotkeyPresenter = presenter.NewHotkeyPresenter(c.Hotkey.Fired(), c.SourcePresenter.StartCapture)
	c.Host.SetShell(c.SourcePresenter)
	return c, nil
}

// newStream builds a capture session from the current config.
func (c *AppContainer) newStream() *capture.Session {
	return capture.NewSession(capture.Options{
		Locator:         c.Sources,
		Grabber:         c.Grabber,
		FrameRate:       c.Config.FrameRate,
		MetadataTimeout: c.Config.MetadataTimeout(),
		Recorder:        c.Metrics,
		Logger:          c.Logger,
	})
}

func (c *AppContainer) openOverlay(flowID string, ep handoff.Endpoint) (Overlay, error) {
	ov := view.NewSelectionOverlay(c.primaryScreen(), c.Logger)
	stream := c.newStream()
	p, err := presenter.NewOverlayPresenter(presenter.OverlayOptions{
		Endpoint: ep,
		Bus:      c.Bus,
		Stream:   stream,
		View:     ov,
		Pointer:  ov.Pointer(),
		MinSize:  c.Config.MinSelectionPx,
		Recorder: c.Metrics,
		Logger:   c.Logger.With("flow", flowID),
	})
	if err != nil {
		stream.Close()
		ov.Close()
		return nil, err
	}
	ov.SetHandlers(view.OverlayHandlers{OnConfirm: p.Confirm, OnCancel: p.Cancel, OnClose: p.Close})
	return p, nil
}

func (c *AppContainer) openSlice(ep handoff.Endpoint, rect geometry.Rect, near image.Point) (Window, error) {
	origin := placeSlice(near, rect.Width, rect.Height, c.primaryScreen())
	title := fmt.Sprintf("%s Slice %dx%d", AppTitle, rect.Width, rect.Height)
	win := view.NewSliceWindow(title, rect.Width, rect.Height, origin, c.Config.SliceBorderPx, c.Logger)
	vp := slice.NewViewport(slice.Options{
		Stream:    c.newStream(),
		Mover:     win,
		LongPress: c.Config.LongPress(),
		Logger:    c.Logger.With("endpoint", string(ep)),
	})
	p, err := presenter.NewSlicePresenter(presenter.SliceOptions{
		Endpoint: ep,
		Bus:      c.Bus,
		Viewport: vp,
		View:     win,
		Pointer:  win.Pointer(),
		Logger:   c.Logger,
	})
	if err != nil {
		vp.Close()
		win.Close()
		return nil, err
	}
	win.SetHandlers(view.SliceHandlers{OnPin: p.TogglePin, OnRefresh: p.Refresh, OnReset: p.Reset, OnClose: p.Close})
	return p, nil
}

func (c *AppContainer) primaryScreen() image.Rectangle {
	displays, err := c.Platform.Displays()
	if err != nil || len(displays) == 0 {
		return image.Rectangle{}
	}
	return displays[0]
}

func (c *AppContainer) rememberSource(id string) {
	if c.Config.LastSourceID == id {
		return
	}
	c.Config.LastSourceID = id
	if err := c.Config.Save(c.ConfigPath); err != nil {
		c.Logger.Warn("config save failed", "error", err)
	}
}

// newHotkey parses combo and returns its listener, or nil when the combo is
// empty or invalid.
func newHotkey(combo string, src input.HookSource, logger *slog.Logger) *input.Hotkey {
	if combo == "" {
		return nil
	}
	parsed, err := input.ParseCombo(combo)
	if err != nil {
		logger.Warn("capture hotkey disabled", "hotkey", combo, "error", err)
		return nil
	}
	return input.NewHotkey(parsed, src, logger)
}

// placeSlice puts a w x h window with its top-left corner at the release
// point, shifted back inside screen when it would overflow.
func placeSlice(near image.Point, w, h int, screen image.Rectangle) image.Point {
	p := near
	if screen.Empty() {
		return p
	}
	if p.X+w > screen.Max.X {
		p.X = screen.Max.X - w
	}
	if p.Y+h > screen.Max.Y {
		p.Y = screen.Max.Y - h
	}
	if p.X < screen.Min.X {
		p.X = screen.Min.X
	}
	if p.Y < screen.Min.Y {
		p.Y = screen.Min.Y
	}
	return p
}

// sourceFingerprint summarizes the display layout and the visible windows.
// The watcher compares successive values to decide when to relist.
func sourceFingerprint(p source.Platform) func() (string, error) {
	return func() (string, error) {
		displays, err := p.Displays()
		if err != nil {
			return "", err
		}
		var b strings.Builder
		for _, d := range displays {
			b.WriteString(d.String())
		}
		wins, err := p.Windows()
		if err != nil && !errors.Is(err, source.ErrUnsupported) {
			return "", err
		}
		for _, w := range wins {
			fmt.Fprintf(&b, "|%x:%s", w.Handle, w.Title)
		}
		return b.String(), nil
	}
}

// kindOf maps a remembered source id to the kind to list first.
func kindOf(id string) string {
	kind, _, err := source.ParseID(id)
	if err != nil {
		return string(source.KindWindow)
	}
	return string(kind)
}
