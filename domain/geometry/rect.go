package geometry

import (
	"fmt"
	"image"
)

// Point is a pointer position in window-local pixels.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Rect is a normalized selection rectangle. The same shape is used in overlay
// pixel space (raw) and in source-native pixel space (resolved); JSON field
// names are part of the handoff wire contract.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FromPoints returns the rectangle spanned by anchor and current, independent
// of drag direction.
func FromPoints(anchor, current Point) Rect {
	x, w := span(anchor.X, current.X)
	y, h := span(anchor.Y, current.Y)
	return Rect{X: x, Y: y, Width: w, Height: h}
}

func span(a, b int) (origin, length int) {
	if a <= b {
		return a, b - a
	}
	return b, a - b
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Exceeds reports whether both sides are strictly larger than min.
func (r Rect) Exceeds(min int) bool { return r.Width > min && r.Height > min }

// Image converts to an image.Rectangle.
func (r Rect) Image() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}
