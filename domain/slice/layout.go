package slice

import (
	"fmt"

	"github.com/soocke/sliceview/domain/geometry"
)

// Layout places the full native frame inside a fixed container so that only
// the selected region is visible. Content is offset by (-x, -y) and clipped
// to the container.
type Layout struct {
	ContainerWidth  int
	ContainerHeight int
	ContentX        int
	ContentY        int
}

// LayoutFor derives the layout for rect with an additional pan translation.
// It is a pure function of its inputs.
func LayoutFor(rect geometry.Rect, pan geometry.Point) Layout {
	return Layout{
		ContainerWidth:  rect.Width,
		ContainerHeight: rect.Height,
		ContentX:        -rect.X + pan.X,
		ContentY:        -rect.Y + pan.Y,
	}
}

// Crop is the native-space rectangle visible through the container.
func (l Layout) Crop() geometry.Rect {
	return geometry.Rect{X: -l.ContentX, Y: -l.ContentY, Width: l.ContainerWidth, Height: l.ContainerHeight}
}

func (l Layout) String() string {
	return fmt.Sprintf("%dx%d@(%d,%d)", l.ContainerWidth, l.ContainerHeight, l.ContentX, l.ContentY)
}
