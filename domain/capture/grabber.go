package capture

import (
	"context"
	"errors"
	"fmt"
	"image"

	kb "github.com/kbinani/screenshot"
	vs "github.com/vova616/screenshot"

	"github.com/soocke/sliceview/domain/source"
)

// Grabber captures frames of a live source. Authorize is the access check
// performed once when a session opens.
type Grabber interface {
	Authorize(src source.Source) error
	Grab(src source.Source) (*image.RGBA, error)
}

type desktopGrabber struct {
	locator source.Locator
}

// NewDesktopGrabber returns the OS grabber. Screens are captured through
// kbinani/screenshot; windows are re-located on every grab so moved or
// closed windows are noticed.
func NewDesktopGrabber(locator source.Locator) Grabber {
	return &desktopGrabber{locator: locator}
}

func (g *desktopGrabber) Authorize(src source.Source) error {
	b := src.Bounds
	if b.Empty() {
		return fmt.Errorf("capture: empty bounds for %s", src.ID)
	}
	px := image.Rect(b.Min.X, b.Min.Y, b.Min.X+1, b.Min.Y+1)
	if _, err := g.grabRect(src.Kind, px); err != nil {
		return err
	}
	return nil
}

func (g *desktopGrabber) Grab(src source.Source) (*image.RGBA, error) {
	if src.Kind == source.KindWindow && g.locator != nil {
		live, err := g.locator.Lookup(context.Background(), src.ID)
		if err != nil {
			return nil, err
		}
		src = live
	}
	if src.Bounds.Empty() {
		return nil, fmt.Errorf("capture: empty bounds for %s", src.ID)
	}
	return g.grabRect(src.Kind, src.Bounds)
}

func (g *desktopGrabber) grabRect(kind source.Kind, r image.Rectangle) (*image.RGBA, error) {
	var (
		img *image.RGBA
		err error
	)
	switch {
	case kind == source.KindWindow:
		img, err = captureWindowRect(r)
	case kb.NumActiveDisplays() > 0:
		img, err = kb.CaptureRect(r)
	default:
		img, err = vs.CaptureRect(r)
	}
	if err != nil {
		return nil, err
	}
	if img == nil {
		return nil, errors.New("capture: backend returned no image")
	}
	return normalize(img), nil
}

// normalize moves the frame origin to (0,0). Pix[0] of an RGBA is always the
// Rect.Min pixel, so only the rectangle changes.
func normalize(img *image.RGBA) *image.RGBA {
	if img.Rect.Min == (image.Point{}) {
		return img
	}
	out := *img
	out.Rect = img.Rect.Sub(img.Rect.Min)
	return &out
}

// Snapshot grabs a single frame. It matches source.Snapshotter for thumbnails.
func Snapshot(g Grabber) source.Snapshotter {
	return func(src source.Source) (*image.RGBA, error) {
		if g == nil {
			return nil, errors.New("capture: no grabber")
		}
		return g.Grab(src)
	}
}
