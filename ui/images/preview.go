package images

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/soocke/sliceview/domain/geometry"
)

var (
	PreviewBackground = color.RGBA{R: 0x18, G: 0x18, B: 0x18, A: 0xff}
	SelectionOutline  = color.RGBA{R: 0x00, G: 0x78, B: 0xd4, A: 0xff}
	SelectionMask     = color.RGBA{A: 0x80}
	HintColor         = color.RGBA{R: 0xf0, G: 0xf0, B: 0xf0, A: 0xff}
	ErrorColor        = color.RGBA{R: 0xff, G: 0x55, B: 0x55, A: 0xff}
)

// PreviewScene is everything drawn on one overlay frame.
type PreviewScene struct {
	Width, Height int
	Frame         *image.RGBA
	// Mapping is nil until the source metadata is known.
	Mapping   *geometry.DisplayMapping
	Selection geometry.Rect
	Hint      string
	Error     string
}

// ComposePreview renders scene onto a pooled canvas. The caller recycles the
// result with RecycleCanvas when done with it.
func ComposePreview(scene PreviewScene) *image.RGBA {
	canvas := AcquireCanvas(scene.Width, scene.Height)
	if scene.Width <= 0 || scene.Height <= 0 {
		return canvas
	}
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(PreviewBackground), image.Point{}, draw.Src)

	if scene.Frame != nil && scene.Mapping != nil {
		area := scene.Mapping.Rounded()
		if scaled := ScaleExact(scene.Frame, area.Width, area.Height); scaled != nil {
			dst := area.Image()
			draw.Draw(canvas, dst, scaled, scaled.Bounds().Min, draw.Src)
		}
	}

	if !scene.Selection.Empty() {
		sel := scene.Selection.Image().Intersect(canvas.Bounds())
		maskOutside(canvas, sel)
		outline(canvas, sel, 2, SelectionOutline)
	}

	if scene.Hint != "" {
		drawText(canvas, scene.Hint, image.Pt(12, 20), HintColor)
	}
	if scene.Error != "" {
		w := font.MeasureString(basicfont.Face7x13, scene.Error).Ceil()
		drawText(canvas, scene.Error, image.Pt((scene.Width-w)/2, scene.Height/2), ErrorColor)
	}
	return canvas
}

// maskOutside dims everything but keep.
func maskOutside(dst *image.RGBA, keep image.Rectangle) {
	b := dst.Bounds()
	mask := image.NewUniform(SelectionMask)
	for _, r := range []image.Rectangle{
		image.Rect(b.Min.X, b.Min.Y, b.Max.X, keep.Min.Y),
		image.Rect(b.Min.X, keep.Max.Y, b.Max.X, b.Max.Y),
		image.Rect(b.Min.X, keep.Min.Y, keep.Min.X, keep.Max.Y),
		image.Rect(keep.Max.X, keep.Min.Y, b.Max.X, keep.Max.Y),
	} {
		if r.Empty() {
			continue
		}
		draw.Draw(dst, r, mask, image.Point{}, draw.Over)
	}
}

func outline(dst *image.RGBA, r image.Rectangle, width int, c color.Color) {
	if r.Empty() {
		return
	}
	src := image.NewUniform(c)
	for _, edge := range []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+width),
		image.Rect(r.Min.X, r.Max.Y-width, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+width, r.Max.Y),
		image.Rect(r.Max.X-width, r.Min.Y, r.Max.X, r.Max.Y),
	} {
		draw.Draw(dst, edge.Intersect(r), src, image.Point{}, draw.Src)
	}
}

func drawText(dst draw.Image, text string, at image.Point, c color.Color) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(at.X, at.Y),
	}
	d.DrawString(text)
}
