package view

import (
	"image"
	"log/slog"

	"github.com/soocke/sliceview/ui/input"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders
	. "modernc.org/tk9.0"
)

// OverlayHandlers are the overlay window's user actions.
type OverlayHandlers struct {
	OnConfirm func()
	OnCancel  func()
	// OnClose runs when the window manager closes the overlay.
	OnClose func()
}

// SelectionOverlay is the fullscreen, always-on-top selection window. The
// preview label fills it, so overlay-local and preview coordinates agree.
type SelectionOverlay struct {
	logger  *slog.Logger
	win     *ToplevelWidget
	preview *LabelWidget
	photo   *Img // last Tk photo, deleted when replaced
	pointer *input.Queue
	bounds  image.Rectangle
	closed  bool
}

// NewSelectionOverlay opens the overlay covering screen.
func NewSelectionOverlay(screen image.Rectangle, logger *slog.Logger) *SelectionOverlay {
	if screen.Empty() {
		screen = image.Rect(0, 0, defaultScreenW, defaultScreenH)
	}
	v := &SelectionOverlay{logger: logger, bounds: screen, pointer: input.NewQueue(0)}
	win := App.Toplevel(Borderwidth(0), Background("#000000"))
	win.WmTitle(OverlayTitle)
	v.win = win
	WmGeometry(win.Window, formatGeometry(screen))
	WmAttributes(win.Window, "-topmost", 1)
	WmAttributes(win.Window, "-toolwindow", true)
	WmAttributes(win.Window, "-fullscreen", true)
	GridRowConfigure(win.Window, 0, Weight(1))
	GridColumnConfigure(win.Window, 0, Weight(1))
	v.photo = NewPhoto(Data(placeholderPNG(screen.Dx(), screen.Dy())))
	v.preview = win.Label(Image(v.photo), Borderwidth(0), Background("#000000"))
	Grid(v.preview, Row(0), Column(0), Sticky("nsew"))
	bindPointer(v.preview.Window, v.pointer)
	Bind(win, "<Configure>", Command(v.syncGeometry))
	return v
}

// SetHandlers binds Enter, Escape and the window close button.
func (v *SelectionOverlay) SetHandlers(h OverlayHandlers) {
	if v == nil || v.win == nil {
		return
	}
	if h.OnConfirm != nil {
		Bind(v.win, "<Return>", Command(h.OnConfirm))
		Bind(v.win, "<KP_Enter>", Command(h.OnConfirm))
	}
	if h.OnCancel != nil {
		Bind(v.win, "<Escape>", Command(h.OnCancel))
	}
	onClose := h.OnClose
	if onClose == nil {
		onClose = v.Close
	}
	WmProtocol(v.win.Window, "WM_DELETE_WINDOW", onClose)
}

// Pointer carries the drags that start on the preview.
func (v *SelectionOverlay) Pointer() *input.Queue {
	if v == nil {
		return nil
	}
	return v.pointer
}

// Origin is the overlay's top-left corner in screen pixels.
func (v *SelectionOverlay) Origin() image.Point {
	if v == nil {
		return image.Point{}
	}
	return v.bounds.Min
}

// Size is the overlay's client size.
func (v *SelectionOverlay) Size() (int, int) {
	if v == nil {
		return 0, 0
	}
	return v.bounds.Dx(), v.bounds.Dy()
}

// ShowPreview replaces the preview image.
func (v *SelectionOverlay) ShowPreview(png []byte) {
	if v == nil || v.closed || v.preview == nil || len(png) == 0 {
		return
	}
	if v.photo != nil {
		v.photo.Delete()
	}
	v.photo = NewPhoto(Data(png))
	v.preview.Configure(Image(v.photo))
}

// Close destroys the window. It is idempotent.
func (v *SelectionOverlay) Close() {
	if v == nil || v.closed {
		return
	}
	v.closed = true
	v.pointer.Close()
	if v.photo != nil {
		v.photo.Delete()
		v.photo = nil
	}
	if v.win != nil {
		Destroy(v.win)
		v.win = nil
	}
}

func (v *SelectionOverlay) syncGeometry() {
	if v.closed || v.win == nil {
		return
	}
	if rect, ok := parseGeometrySel(WmGeometry(v.win.Window)); ok && rect.Dx() > 1 {
		v.bounds = rect
	}
}

const (
	// OverlayTitle prefixes every SliceView window title; listings hide them.
	OverlayTitle = "SliceView Selection"

	defaultScreenW = 1920
	defaultScreenH = 1080
)
