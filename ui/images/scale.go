package images

import (
	"bytes"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// EncodePNG encodes an image to PNG bytes. Errors are ignored and may return an empty slice.
func EncodePNG(img image.Image) []byte {
	if img == nil {
		return nil
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// ScaleToFit scales src so that it fits within maxW x maxH preserving aspect
// ratio. If the source already fits, the original is returned.
func ScaleToFit(src image.Image, maxW, maxH int) image.Image {
	if src == nil {
		return nil
	}
	b := src.Bounds()
	if b.Dx() <= maxW && b.Dy() <= maxH {
		return src
	}
	if maxW < 1 {
		maxW = 1
	}
	if maxH < 1 {
		maxH = 1
	}
	return imaging.Fit(src, maxW, maxH, imaging.NearestNeighbor)
}

// ScaleExact resizes src to w x h with a linear filter. It is used for the
// contain-fit preview where the mapping already fixed the display size.
func ScaleExact(src image.Image, w, h int) image.Image {
	if src == nil || w < 1 || h < 1 {
		return nil
	}
	b := src.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return src
	}
	return imaging.Resize(src, w, h, imaging.Linear)
}
