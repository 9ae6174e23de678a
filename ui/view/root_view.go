package view

import (
	"errors"
	"image"
	"log/slog"
	"strconv"
	"time"

	"github.com/soocke/sliceview/config"
	"github.com/soocke/sliceview/ui/images"
	"github.com/soocke/sliceview/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// thumbPlaceholder is the placeholder thumbnail edge in pixels.
const thumbPlaceholder = 150

// kindChoices are the source kinds offered in the kind dropdown, in order.
var kindChoices = []string{"window", "screen", "both"}

// RootHandlers are invoked on user actions in the root window.
type RootHandlers struct {
	OnKind    func(kind string)
	OnSource  func(index int)
	OnRefresh func()
	OnCapture func()
	OnCancel  func()
	OnExit    func()
}

// RootView composes the source picker window. It implements the source,
// status and session views the root presenters drive.
type RootView struct {
	cfg     *config.Config
	cfgPath string
	logger  *slog.Logger

	// Subviews
	Session     SessionStats
	ConfigPanel ConfigPanel

	// Widgets
	StatusLabel  *TLabelWidget
	EmptyLabel   *LabelWidget
	KindSelect   *TComboboxWidget
	SourceSelect *TComboboxWidget
	captureBtn   *TButtonWidget
	thumbLabel   *LabelWidget
	thumbPhoto   *Img // replaced on every thumbnail change
	names        []string
}

func NewRootView(cfg *config.Config, cfgPath string, logger *slog.Logger) *RootView {
	return &RootView{cfg: cfg, cfgPath: cfgPath, logger: logger}
}

// Build constructs the layout. kind preselects the kind dropdown.
func (rv *RootView) Build(kind string, h RootHandlers) {
	if rv == nil {
		return
	}
	// Row 0: session stats and status
	stats := Frame()
	Grid(stats, Row(0), Column(0), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	rv.Session = NewSessionStats(stats, 0, 0)
	rv.StatusLabel = TLabel(Txt("Ready"), Style(theme.StyleStatusLabel), Anchor("w"))
	Grid(rv.StatusLabel, Row(1), Column(0), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.3m"))

	// Row 2: pickers on the left, thumbnail on the right
	picker := Frame()
	Grid(picker, Row(2), Column(0), Sticky("nwe"), Padx("0.3m"), Pady("0.3m"))
	rv.KindSelect = TCombobox(Values(kindChoices), Width(10))
	Grid(rv.KindSelect, In(picker), Row(0), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	rv.KindSelect.Current(kindIndex(kind))
	Bind(rv.KindSelect, "<<ComboboxSelected>>", Command(func() {
		idx, err := strconv.Atoi(rv.KindSelect.Current(nil))
		if err != nil || idx < 0 || idx >= len(kindChoices) {
			rv.logError("kind selection parse error", err)
			return
		}
		if h.OnKind != nil {
			h.OnKind(kindChoices[idx])
		}
	}))
	rv.SourceSelect = TCombobox(Values([]string{"<none>"}), Width(32))
	Grid(rv.SourceSelect, In(picker), Row(1), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	rv.SourceSelect.Current(0)
	Bind(rv.SourceSelect, "<<ComboboxSelected>>", Command(func() {
		idx, err := strconv.Atoi(rv.SourceSelect.Current(nil))
		if err != nil {
			rv.logError("source selection parse error", err)
			return
		}
		if idx >= 0 && idx < len(rv.names) && h.OnSource != nil {
			h.OnSource(idx)
		}
	}))
	rv.EmptyLabel = Label(Txt(""), Anchor("w"), Foreground(theme.CurrentPalette().TextMuted))
	Grid(rv.EmptyLabel, In(picker), Row(2), Column(0), Sticky("we"), Padx("0.2m"))

	btnFrame := Frame()
	Grid(btnFrame, In(picker), Row(3), Column(0), Sticky("we"), Pady("0.3m"))
	refreshBtn := Button(Txt("Refresh"), Command(h.OnRefresh))
	Grid(refreshBtn, In(btnFrame), Row(0), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	rv.captureBtn = TButton(Txt("Select Region"), Style(theme.StylePrimaryButton), Command(h.OnCapture))
	Grid(rv.captureBtn, In(btnFrame), Row(0), Column(1), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	cancelBtn := Button(Txt("Cancel Selection"), Command(h.OnCancel))
	Grid(cancelBtn, In(btnFrame), Row(1), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	exitBtn := TButton(Txt("Exit"), Style(theme.StyleDangerButton), Command(h.OnExit))
	Grid(exitBtn, In(btnFrame), Row(1), Column(1), Sticky("we"), Padx("0.2m"), Pady("0.2m"))

	rv.thumbPhoto = NewPhoto(Data(placeholderPNG(thumbPlaceholder, thumbPlaceholder)))
	rv.thumbLabel = Label(Image(rv.thumbPhoto), Borderwidth(1), Relief("sunken"))
	Grid(rv.thumbLabel, Row(2), Column(1), Sticky("ne"), Padx("0.4m"), Pady("0.4m"))

	// Config panel rows
	rv.ConfigPanel = NewConfigPanel(rv.cfg, rv.cfgPath, rv.logger)
	rv.ConfigPanel.Build(3)
	GridColumnConfigure(App, 0, Weight(1))
}

// SetSources replaces the source dropdown entries.
func (rv *RootView) SetSources(names []string, selected int) {
	if rv == nil || rv.SourceSelect == nil {
		return
	}
	rv.names = append(rv.names[:0], names...)
	values := names
	if len(values) == 0 {
		values = []string{"<none>"}
	}
	rv.SourceSelect.Configure(Values(values))
	if selected < 0 || selected >= len(values) {
		selected = 0
	}
	rv.SourceSelect.Current(selected)
}

// SetThumbnail shows png, or the placeholder when png is empty.
func (rv *RootView) SetThumbnail(png []byte) {
	if rv == nil || rv.thumbLabel == nil {
		return
	}
	if len(png) == 0 {
		png = placeholderPNG(thumbPlaceholder, thumbPlaceholder)
	}
	if rv.thumbPhoto != nil {
		rv.thumbPhoto.Delete()
	}
	rv.thumbPhoto = NewPhoto(Data(png))
	rv.thumbLabel.Configure(Image(rv.thumbPhoto))
}

// SetEmptyState shows the empty or error hint under the source list.
func (rv *RootView) SetEmptyState(text string) {
	if rv != nil && rv.EmptyLabel != nil {
		rv.EmptyLabel.Configure(Txt(text))
	}
}

// SetCaptureEnabled toggles the select-region button.
func (rv *RootView) SetCaptureEnabled(enabled bool) {
	if rv != nil && rv.captureBtn != nil {
		rv.captureBtn.Configure(State(stateName(enabled)))
	}
}

// SetStatus updates the status label text.
func (rv *RootView) SetStatus(text string) {
	if rv != nil && rv.StatusLabel != nil {
		rv.StatusLabel.Configure(Txt(text))
	}
}

// SetSession updates both session and total durations.
func (rv *RootView) SetSession(session, total time.Duration) {
	if rv == nil || rv.Session == nil {
		return
	}
	rv.Session.SetSession(session)
	rv.Session.SetTotal(total)
}

// SetSlices updates the open and peak slice counts.
func (rv *RootView) SetSlices(current, peak int) {
	if rv != nil && rv.Session != nil {
		rv.Session.SetSlices(current, peak)
	}
}

func (rv *RootView) logError(msg string, err error) {
	if rv.logger == nil {
		return
	}
	if err == nil {
		err = errors.New("index out of range")
	}
	rv.logger.Error(msg, "error", err)
}

func kindIndex(kind string) int {
	for i, k := range kindChoices {
		if k == kind {
			return i
		}
	}
	return 0
}

func stateName(enabled bool) string {
	if enabled {
		return "normal"
	}
	return "disabled"
}

func placeholderPNG(w, h int) []byte {
	return images.EncodePNG(image.NewRGBA(image.Rect(0, 0, w, h)))
}
