package view

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/soocke/sliceview/config"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// ConfigPanel encapsulates the configuration form widgets and apply logic.
// It owns its widgets and writes back into *config.Config on ApplyChanges.
// Changes apply to overlays and slices opened afterwards.
type ConfigPanel interface {
	Build(startRow int) (endRow int) // constructs widgets starting at startRow, returns next free row
	ApplyChanges() error             // parses widget text into underlying config and persists
}

type configPanel struct {
	cfg      *config.Config
	cfgPath  string
	logger   *slog.Logger
	applyBtn *ButtonWidget
	widgets  map[string]*TextWidget // keyed by internal field id
}

// NewConfigPanel creates the view bound to cfg.
func NewConfigPanel(cfg *config.Config, cfgPath string, logger *slog.Logger) ConfigPanel {
	return &configPanel{cfg: cfg, cfgPath: cfgPath, logger: logger, widgets: make(map[string]*TextWidget)}
}

func (v *configPanel) Build(startRow int) (row int) {
	c := v.cfg
	row = startRow
	makeRow := func(id, label, value string) {
		lbl := Label(Txt(label), Anchor("w"))
		Grid(lbl, Row(row), Column(0), Sticky("w"), Padx("0.4m"), Pady("0.15m"))
		w := Text(Height(1), Width(16))
		Grid(w, Row(row), Column(1), Sticky("we"), Padx("0.4m"), Pady("0.15m"))
		w.Delete("1.0", END)
		w.Insert("1.0", value)
		v.widgets[id] = w
		row++
	}
	makeRow("minSelectionPx", "Min Selection Px", fmt.Sprintf("%d", c.MinSelectionPx))
	makeRow("frameRate", "Frame Rate (fps)", fmt.Sprintf("%.1f", c.FrameRate))
	makeRow("metadataTimeoutMs", "Metadata Timeout Ms", fmt.Sprintf("%d", c.MetadataTimeoutMs))
	makeRow("longPressMs", "Move Long Press Ms", fmt.Sprintf("%d", c.LongPressMs))
	makeRow("thumbnailSize", "Thumbnail Size Px", fmt.Sprintf("%d", c.ThumbnailSize))
	makeRow("sliceBorderPx", "Slice Border Px", fmt.Sprintf("%d", c.SliceBorderPx))
	makeRow("debug", "Debug (true/false)", fmt.Sprintf("%t", c.Debug))
	v.applyBtn = Button(Txt("Apply Changes"), Command(func() { _ = v.ApplyChanges() }))
	Grid(v.applyBtn, Row(row), Column(0), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	row++
	return row
}

func (v *configPanel) text(w *TextWidget) string {
	if w == nil {
		return ""
	}
	parts := w.Get("1.0", END)
	return strings.Join(parts, "")
}

func (v *configPanel) ApplyChanges() error {
	if v.cfg == nil {
		return nil
	}
	cfg := *v.cfg // copy
	assignFloat := func(id string, dst *float64) {
		if f, ok := parseFloatField(v.text(v.widgets[id])); ok {
			*dst = f
		}
	}
	assignInt := func(id string, dst *int) {
		if i, ok := parseIntField(v.text(v.widgets[id])); ok {
			*dst = i
		}
	}
	assignBool := func(id string, dst *bool) {
		if b, ok := parseBoolLoose(v.text(v.widgets[id])); ok {
			*dst = b
		}
	}
	assignInt("minSelectionPx", &cfg.MinSelectionPx)
	assignFloat("frameRate", &cfg.FrameRate)
	assignInt("metadataTimeoutMs", &cfg.MetadataTimeoutMs)
	assignInt("longPressMs", &cfg.LongPressMs)
	assignInt("thumbnailSize", &cfg.ThumbnailSize)
	assignInt("sliceBorderPx", &cfg.SliceBorderPx)
	assignBool("debug", &cfg.Debug)
	if err := cfg.Validate(); err != nil {
		return err
	}
	*v.cfg = cfg
	if err := v.cfg.Save(v.cfgPath); err != nil {
		if v.logger != nil {
			v.logger.Error("config save failed", "error", err)
		}
		return err
	}
	if v.logger != nil {
		v.logger.Info("config saved", "path", v.cfgPath)
	}
	return nil
}

// parsing helpers (unexported)
func parseFloatField(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
func parseIntField(s string) (int, bool) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return i, true
}
func parseBoolLoose(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y", "on", "t":
		return true, true
	case "false", "0", "no", "n", "off", "f":
		return false, true
	default:
		return false, false
	}
}
