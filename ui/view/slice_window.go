package view

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/soocke/sliceview/ui/input"
	"github.com/soocke/sliceview/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

var (
	errSliceClosed   = errors.New("view: slice window closed")
	errSliceUnmapped = errors.New("view: slice window not mapped")
)

// SliceHandlers are the slice window's user actions.
type SliceHandlers struct {
	OnPin     func()
	OnRefresh func()
	OnReset   func()
	OnClose   func()
}

// SliceWindow is an always-on-top window showing one slice. The window
// manager is told it is not resizable; the size taken once it is mapped is
// still restored if something resizes it anyway.
type SliceWindow struct {
	logger  *slog.Logger
	win     *ToplevelWidget
	content *LabelWidget
	status  *LabelWidget
	pinBtn  *ButtonWidget
	photo   *Img
	pointer *input.Queue
	h       SliceHandlers

	geom   image.Rectangle // last known geometry, screen pixels
	fixed  image.Point     // width and height once mapped
	closed bool
}

// NewSliceWindow opens a slice window for a w x h selection with its top-left
// corner at origin.
func NewSliceWindow(title string, w, h int, origin image.Point, border int, logger *slog.Logger) *SliceWindow {
	if border < 0 {
		border = 0
	}
	v := &SliceWindow{logger: logger, pointer: input.NewQueue(0)}
	pal := theme.CurrentPalette()
	win := App.Toplevel(Borderwidth(border), Background(pal.Border))
	win.WmTitle(title)
	v.win = win
	WmGeometry(win.Window, formatPosition(origin))
	win.Window.SetResizable(false, false)
	WmAttributes(win.Window, "-topmost", 1)
	WmAttributes(win.Window, "-toolwindow", true)

	v.photo = NewPhoto(Data(placeholderPNG(max(w, 1), max(h, 1))))
	v.content = win.Label(Image(v.photo), Borderwidth(0))
	Grid(v.content, Row(0), Column(0), Columnspan(5), Sticky("nw"))
	bindPointer(v.content.Window, v.pointer)

	bar := win.Frame()
	Grid(bar, Row(1), Column(0), Columnspan(5), Sticky("we"))
	v.pinBtn = win.Button(Txt("Pin"), Command(func() { call(v.h.OnPin) }))
	Grid(v.pinBtn, In(bar), Row(0), Column(0), Padx("0.2m"), Pady("0.2m"))
	refresh := win.Button(Txt("Refresh [F5]"), Command(func() { call(v.h.OnRefresh) }))
	Grid(refresh, In(bar), Row(0), Column(1), Padx("0.2m"), Pady("0.2m"))
	reset := win.Button(Txt("Reset [Home]"), Command(func() { call(v.h.OnReset) }))
	Grid(reset, In(bar), Row(0), Column(2), Padx("0.2m"), Pady("0.2m"))
	closeBtn := win.Button(Txt("Close"), Command(func() { call(v.h.OnClose) }))
	Grid(closeBtn, In(bar), Row(0), Column(3), Padx("0.2m"), Pady("0.2m"))
	v.status = win.Label(Txt(""), Anchor("w"))
	Grid(v.status, In(bar), Row(0), Column(4), Sticky("we"), Padx("0.4m"))
	GridColumnConfigure(bar.Window, 4, Weight(1))

	Bind(win, "<Configure>", Command(v.syncGeometry))
	return v
}

// SetHandlers binds the buttons, F5, Home, p and the window close button.
func (v *SliceWindow) SetHandlers(h SliceHandlers) {
	if v == nil || v.win == nil {
		return
	}
	v.h = h
	if h.OnRefresh != nil {
		Bind(v.win, "<F5>", Command(h.OnRefresh))
	}
	if h.OnReset != nil {
		Bind(v.win, "<Home>", Command(h.OnReset))
	}
	if h.OnPin != nil {
		Bind(v.win, "<Key-p>", Command(h.OnPin))
	}
	onClose := h.OnClose
	if onClose == nil {
		onClose = v.Close
	}
	WmProtocol(v.win.Window, "WM_DELETE_WINDOW", onClose)
}

// Pointer carries the gestures that start on the slice content.
func (v *SliceWindow) Pointer() *input.Queue {
	if v == nil {
		return nil
	}
	return v.pointer
}

// Origin is the window's top-left corner in screen pixels.
func (v *SliceWindow) Origin() image.Point {
	if v == nil {
		return image.Point{}
	}
	return v.geom.Min
}

// Size is the window size; zero until mapped.
func (v *SliceWindow) Size() (int, int) {
	if v == nil {
		return 0, 0
	}
	return v.geom.Dx(), v.geom.Dy()
}

// Ready reports whether the window has been mapped.
func (v *SliceWindow) Ready() bool {
	if v == nil || v.closed {
		return false
	}
	if v.fixed == (image.Point{}) {
		v.syncGeometry()
	}
	return v.fixed != (image.Point{})
}

// ShowFrame replaces the slice image.
func (v *SliceWindow) ShowFrame(png []byte) {
	if v == nil || v.closed || v.content == nil || len(png) == 0 {
		return
	}
	if v.photo != nil {
		v.photo.Delete()
	}
	v.photo = NewPhoto(Data(png))
	v.content.Configure(Image(v.photo))
}

// SetStatus shows the slice status text.
func (v *SliceWindow) SetStatus(text string) {
	if v != nil && !v.closed && v.status != nil {
		v.status.Configure(Txt(text))
	}
}

// SetPinned switches the pin button and border colour.
func (v *SliceWindow) SetPinned(pinned bool) {
	if v == nil || v.closed {
		return
	}
	pal := theme.CurrentPalette()
	label, bg := "Pin", pal.Border
	if pinned {
		label, bg = "Unpin", pal.Primary
	}
	v.pinBtn.Configure(Txt(label))
	v.win.Configure(Background(bg))
}

// MoveWindowBy shifts the window by dx, dy screen pixels.
func (v *SliceWindow) MoveWindowBy(dx, dy int) error {
	if v == nil || v.closed {
		return errSliceClosed
	}
	rect, ok := parseGeometrySel(WmGeometry(v.win.Window))
	if !ok {
		return errSliceUnmapped
	}
	rect = rect.Add(image.Pt(dx, dy))
	WmGeometry(v.win.Window, formatPosition(rect.Min))
	v.geom = rect
	return nil
}

// Close destroys the window. It is idempotent.
func (v *SliceWindow) Close() {
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

// syncGeometry records the mapped size on first sight and restores it after
// any later resize.
func (v *SliceWindow) syncGeometry() {
	if v.closed || v.win == nil {
		return
	}
	rect, ok := parseGeometrySel(WmGeometry(v.win.Window))
	if !ok || rect.Dx() <= 1 || rect.Dy() <= 1 {
		return
	}
	var resized bool
	v.fixed, v.geom, resized = lockSize(v.fixed, rect)
	if resized {
		WmGeometry(v.win.Window, fmt.Sprintf("%dx%d", v.fixed.X, v.fixed.Y))
	}
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}
