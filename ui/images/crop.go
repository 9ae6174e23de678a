package images

import (
	"errors"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"

	"github.com/soocke/sliceview/domain/slice"
)

// SliceBackground fills container area not covered by the frame.
var SliceBackground = color.RGBA{R: 0x10, G: 0x10, B: 0x10, A: 0xff}

// ExtractRect returns the part of frame inside r, clamped to the frame bounds
// and at least 1x1. The returned rectangle is relative to the frame.
func ExtractRect(frame *image.RGBA, r image.Rectangle) (*image.RGBA, image.Rectangle, error) {
	if frame == nil {
		return nil, image.Rectangle{}, errors.New("nil frame")
	}
	b := frame.Bounds()
	x0, y0 := r.Min.X-b.Min.X, r.Min.Y-b.Min.Y
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x0 > b.Dx()-1 {
		x0 = b.Dx() - 1
	}
	if y0 > b.Dy()-1 {
		y0 = b.Dy() - 1
	}
	w, h := r.Dx(), r.Dy()
	if x0+w > b.Dx() {
		w = b.Dx() - x0
	}
	if y0+h > b.Dy() {
		h = b.Dy() - y0
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	roi := image.Rect(x0, y0, x0+w, y0+h)
	sub := frame.SubImage(roi.Add(b.Min))
	if rgba, ok := sub.(*image.RGBA); ok {
		return rgba, roi, nil
	}
	out := image.NewRGBA(image.Rect(0, 0, roi.Dx(), roi.Dy()))
	draw.Draw(out, out.Bounds(), sub, roi.Min.Add(b.Min), draw.Src)
	return out, roi, nil
}

// CropLayout renders frame through layout: the frame is placed at the
// content offset inside a container-sized image and clipped to it. When the
// visible region lies entirely inside the frame it is returned without a copy.
func CropLayout(frame *image.RGBA, layout slice.Layout) (image.Image, error) {
	if frame == nil {
		return nil, errors.New("nil frame")
	}
	if layout.ContainerWidth < 1 || layout.ContainerHeight < 1 {
		return nil, errors.New("empty layout")
	}
	b := frame.Bounds()
	visible := layout.Crop().Image().Add(b.Min)
	if visible.In(b) {
		sub, _, err := ExtractRect(frame, visible)
		return sub, err
	}
	bg := imaging.New(layout.ContainerWidth, layout.ContainerHeight, SliceBackground)
	return imaging.Paste(bg, frame, image.Pt(layout.ContentX, layout.ContentY)), nil
}
