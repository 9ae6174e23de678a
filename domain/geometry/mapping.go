package geometry

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidDimensions is returned when a native or viewport size is not positive.
var ErrInvalidDimensions = errors.New("geometry: invalid dimensions")

// DisplayMapping describes how a native frame is rendered inside a viewport
// under contain-fit semantics. Values are kept fractional; callers that need
// whole pixels use Rounded.
type DisplayMapping struct {
	NativeWidth    int
	NativeHeight   int
	ViewportWidth  int
	ViewportHeight int
	DisplayWidth   float64
	DisplayHeight  float64
	OffsetX        float64
	OffsetY        float64
}

// ContainFit computes the mapping for a native frame inside a viewport,
// preserving aspect ratio and centering the leftover space on one axis.
func ContainFit(nativeW, nativeH, viewportW, viewportH int) (DisplayMapping, error) {
	if nativeW <= 0 || nativeH <= 0 || viewportW <= 0 || viewportH <= 0 {
		return DisplayMapping{}, fmt.Errorf("%w: native=%dx%d viewport=%dx%d", ErrInvalidDimensions, nativeW, nativeH, viewportW, viewportH)
	}
	m := DisplayMapping{NativeWidth: nativeW, NativeHeight: nativeH, ViewportWidth: viewportW, ViewportHeight: viewportH}
	videoAspect := float64(nativeW) / float64(nativeH)
	viewAspect := float64(viewportW) / float64(viewportH)
	if viewAspect > videoAspect {
		// pillarbox: height fills
		m.DisplayHeight = float64(viewportH)
		m.DisplayWidth = m.DisplayHeight * videoAspect
		m.OffsetX = (float64(viewportW) - m.DisplayWidth) / 2
	} else {
		// letterbox: width fills
		m.DisplayWidth = float64(viewportW)
		m.DisplayHeight = m.DisplayWidth / videoAspect
		m.OffsetY = (float64(viewportH) - m.DisplayHeight) / 2
	}
	m.OffsetX = math.Max(0, m.OffsetX)
	m.OffsetY = math.Max(0, m.OffsetY)
	return m, nil
}

// ScaleX is the native-per-displayed pixel factor on X.
func (m DisplayMapping) ScaleX() float64 { return float64(m.NativeWidth) / m.DisplayWidth }

// ScaleY is the native-per-displayed pixel factor on Y.
func (m DisplayMapping) ScaleY() float64 { return float64(m.NativeHeight) / m.DisplayHeight }

// Rounded returns the displayed area in whole viewport pixels. Sizes are
// truncated and offsets rounded, so 562.5 / 218.75 become 562 / 219.
func (m DisplayMapping) Rounded() Rect {
	return Rect{
		X:      int(math.Round(m.OffsetX)),
		Y:      int(math.Round(m.OffsetY)),
		Width:  int(m.DisplayWidth),
		Height: int(m.DisplayHeight),
	}
}

// Contains reports whether a viewport point falls on rendered video.
func (m DisplayMapping) Contains(p Point) bool {
	x := float64(p.X) - m.OffsetX
	y := float64(p.Y) - m.OffsetY
	return x >= 0 && y >= 0 && x <= m.DisplayWidth && y <= m.DisplayHeight
}
