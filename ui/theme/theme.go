// Package theme holds the SliceView colours and ttk styles.
package theme

import (
	tk "modernc.org/tk9.0"
)

// Palette is the set of colours the views draw with.
type Palette struct {
	AppBg     string
	Surface   string
	Border    string // unpinned slice frame
	Primary   string // select button, pinned slice frame
	Danger    string
	Text      string
	TextMuted string
}

var palette = Palette{
	AppBg:     "#f7f9fb",
	Surface:   "#ffffff",
	Border:    "#d0d7de",
	Primary:   "#2563eb",
	Danger:    "#dc2626",
	Text:      "#1e293b",
	TextMuted: "#64748b",
}

// CurrentPalette returns the active colours.
func CurrentPalette() Palette { return palette }

// style names used with Style(...)
const (
	StylePrimaryButton = "primary.TButton"
	StyleDangerButton  = "danger.TButton"
	StyleStatusLabel   = "status.TLabel"
)

// InitStyles activates the base theme and configures the named styles.
func InitStyles() {
	p := palette
	_ = tk.ActivateTheme("azure light")
	tk.App.Configure(tk.Background(p.AppBg))

	for name, bg := range map[string]string{StylePrimaryButton: p.Primary, StyleDangerButton: p.Danger} {
		tk.StyleConfigure(name, tk.Background(bg), tk.Foreground("white"), tk.Padding("4p 3p"), tk.Borderwidth(1), tk.Relief("ridge"))
	}
	tk.StyleConfigure(StyleStatusLabel,
		tk.Foreground(p.Text),
		tk.Background(p.Surface),
		tk.Padding("4p 2p"),
		tk.Borderwidth(1),
		tk.Relief("groove"),
	)
}
