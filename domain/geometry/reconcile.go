package geometry

import "math"

// Mode tells which reconciliation path produced a rectangle.
type Mode int

const (
	// ModePrecise maps through a DisplayMapping.
	ModePrecise Mode = iota
	// ModeDegraded treats overlay coordinates as native because no mapping
	// was available when the selection was confirmed.
	ModeDegraded
)

func (m Mode) String() string {
	switch m {
	case ModePrecise:
		return "precise"
	case ModeDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// Resolution is the outcome of Resolve.
type Resolution struct {
	Rect Rect
	Mode Mode
	// OutOfBounds is set when the raw rectangle extended past the rendered
	// video; the rectangle was clamped, not rejected.
	OutOfBounds bool
}

// Resolve maps a raw overlay rectangle into source-native pixels. A nil
// mapping selects degraded mode. Resolve has no side effects.
func Resolve(raw Rect, mapping *DisplayMapping) Resolution {
	if mapping == nil || mapping.DisplayWidth <= 0 || mapping.DisplayHeight <= 0 {
		r := raw
		if r.X < 0 {
			r.Width += r.X
			r.X = 0
		}
		if r.Y < 0 {
			r.Height += r.Y
			r.Y = 0
		}
		r.Width = max(r.Width, 0)
		r.Height = max(r.Height, 0)
		return Resolution{Rect: r, Mode: ModeDegraded}
	}
	m := *mapping
	videoX := float64(raw.X) - m.OffsetX
	videoY := float64(raw.Y) - m.OffsetY
	oob := videoX < 0 || videoY < 0 ||
		videoX+float64(raw.Width) > m.DisplayWidth ||
		videoY+float64(raw.Height) > m.DisplayHeight

	sx, sy := m.ScaleX(), m.ScaleY()
	x, w := clampAxis(videoX*sx, float64(raw.Width)*sx, m.NativeWidth)
	y, h := clampAxis(videoY*sy, float64(raw.Height)*sy, m.NativeHeight)
	return Resolution{Rect: Rect{X: x, Y: y, Width: w, Height: h}, Mode: ModePrecise, OutOfBounds: oob}
}

// clampAxis rounds origin/length to whole pixels and keeps origin+length
// within [0, limit].
func clampAxis(origin, length float64, limit int) (int, int) {
	o := int(math.Round(math.Max(0, origin)))
	if o > limit {
		o = limit
	}
	l := int(math.Round(length))
	if l > limit-o {
		l = limit - o
	}
	if l < 0 {
		l = 0
	}
	return o, l
}
