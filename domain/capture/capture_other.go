//go:build !windows

package capture

import (
	"image"

	"github.com/soocke/sliceview/domain/source"
)

func captureWindowRect(r image.Rectangle) (*image.RGBA, error) {
	return nil, source.ErrUnsupported
}
