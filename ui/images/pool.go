package images

import (
	"image"
	"sync"
)

// Preview canvases are full overlay size and recomposed on every tick, so
// their backing slices are pooled. A canvas that is never recycled is simply
// collected.

var canvasPool sync.Pool // stores *image.RGBA

// AcquireCanvas returns a reusable RGBA image sized w x h at the origin. The
// pixels are not cleared.
func AcquireCanvas(w, h int) *image.RGBA {
	rect := image.Rect(0, 0, w, h)
	if w <= 0 || h <= 0 {
		return &image.RGBA{Rect: rect}
	}
	needed := w * h * 4
	var img *image.RGBA
	if v := canvasPool.Get(); v != nil {
		img = v.(*image.RGBA)
	}
	if img == nil || cap(img.Pix) < needed {
		return &image.RGBA{Pix: make([]byte, needed), Stride: w * 4, Rect: rect}
	}
	img.Stride = w * 4
	img.Rect = rect
	img.Pix = img.Pix[:needed]
	return img
}

// RecycleCanvas returns img to the pool. The caller must not touch it after.
func RecycleCanvas(img *image.RGBA) {
	if img == nil || img.Pix == nil {
		return
	}
	canvasPool.Put(img)
}
