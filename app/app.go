package app

import (
	"context"
	"fmt"
	"time"

	tk "modernc.org/tk9.0"

	"github.com/soocke/sliceview/debug"
	"github.com/soocke/sliceview/ui/presenter"
	"github.com/soocke/sliceview/ui/theme"
	"github.com/soocke/sliceview/ui/view"
)

// tick paces the UI loop. It bounds how quickly frames, pointer input and
// handoff messages reach the windows.
const tick = 33 * time.Millisecond

type app struct {
	c       *AppContainer
	width   int
	height  int
	afterID string
	stop    context.CancelFunc
	exiting bool
}

// NewApp configures the root window for the container.
func NewApp(title string, width, height int, c *AppContainer) *app {
	a := &app{c: c, width: width, height: height}
	tk.App.WmTitle(title)
	tk.WmProtocol(tk.App, "WM_DELETE_WINDOW", a.exitHandler)
	tk.WmGeometry(tk.App, fmt.Sprintf("%dx%d+100+100", width, height))
	return a
}

// Start builds the UI, starts background services and runs the Tk main loop
// until the root window closes.
func (a *app) Start() {
	c := a.c
	theme.InitStyles()
	c.RootView.Build(string(c.SourceList.Kind()), view.RootHandlers{
		OnKind:    c.SourcePresenter.SelectKind,
		OnSource:  c.SourcePresenter.SelectIndex,
		OnRefresh: c.SourcePresenter.Refresh,
		OnCapture: c.SourcePresenter.StartCapture,
		OnCancel:  c.SourcePresenter.Cancel,
		OnExit:    a.exitHandler,
	})
	c.Loop = presenter.NewLoop(c.Host, c.SourcePresenter, c.SessionPresenter, c.StatusPresenter, a.scheduleUpdate)
	c.Loop.Hotkey = c.HotkeyPresenter

	ctx, cancel := context.WithCancel(context.Background())
	a.stop = cancel
	if c.Config.MetricsAddr != "" {
		go func() {
			if err := c.Metrics.Serve(ctx, c.Config.MetricsAddr, c.Logger); err != nil {
				c.Logger.Error("metrics endpoint failed", "addr", c.Config.MetricsAddr, "error", err)
			}
		}()
	}
	if c.Config.Debug {
		debug.StartGoroutineLogger(ctx, 5*time.Second, c.Logger)
		debug.StartMemLogger(ctx, 5*time.Second, c.Logger)
	}
	c.Watcher.Start()
	c.Hotkey.Start()
	c.SourcePresenter.Refresh()

	a.scheduleUpdate()
	tk.App.Wait()
}

func (a *app) update() {
	if a.exiting {
		return
	}
	a.c.Loop.Tick()
}

func (a *app) exitHandler() {
	if a.exiting {
		return
	}
	a.exiting = true
	if a.afterID != "" {
		tk.TclAfterCancel(a.afterID)
	}
	c := a.c
	c.Watcher.Stop()
	c.Host.Close()
	c.Hotkey.Close()
	c.Bus.Close()
	if a.stop != nil {
		a.stop()
	}
	c.Logger.Info("application exit")
	tk.Destroy(tk.App)
}

func (a *app) scheduleUpdate() {
	if a.exiting {
		return
	}
	// TclAfter keeps every tick on Tk's event loop thread.
	a.afterID = tk.TclAfter(tick, a.update)
}
