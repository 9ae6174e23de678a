package source

import (
	"errors"
	"image"

	kb "github.com/kbinani/screenshot"
	vs "github.com/vova616/screenshot"
)

// desktop is the default Platform: displays come from kbinani/screenshot
// with a vova616 primary-screen fallback, windows from the OS-specific
// listWindows/windowInfo implementations.
type desktop struct{}

// NewPlatform returns the Platform for the running OS.
func NewPlatform() Platform { return desktop{} }

func (desktop) Displays() ([]image.Rectangle, error) {
	n := kb.NumActiveDisplays()
	if n > 0 {
		out := make([]image.Rectangle, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, kb.GetDisplayBounds(i))
		}
		return out, nil
	}
	// Some X11 setups report no displays through xinerama; the primary
	// screen is still reachable directly.
	r, err := vs.ScreenRect()
	if err != nil {
		return nil, errors.Join(errors.New("no active displays"), err)
	}
	if r.Empty() {
		return []image.Rectangle{}, nil
	}
	return []image.Rectangle{r}, nil
}

func (desktop) Windows() ([]WindowInfo, error) { return listWindows() }

func (desktop) Window(handle uintptr) (WindowInfo, bool) { return windowInfo(handle) }
