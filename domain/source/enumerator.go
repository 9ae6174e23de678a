package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"strings"

	"github.com/disintegration/imaging"
)

// WindowInfo is a top-level window reported by the platform.
type WindowInfo struct {
	Handle uintptr
	Title  string
	Bounds image.Rectangle
}

// Platform is the OS surface the enumerator needs.
type Platform interface {
	Displays() ([]image.Rectangle, error)
	Windows() ([]WindowInfo, error)
	Window(handle uintptr) (WindowInfo, bool)
}

// Snapshotter grabs a single frame for thumbnails.
type Snapshotter func(src Source) (*image.RGBA, error)

// Options configures an Enumerator.
type Options struct {
	ThumbnailSize int
	// ExcludeTitlePrefix hides the application's own windows from listings.
	ExcludeTitlePrefix string
}

// Enumerator lists capturable sources and resolves ids back to live sources.
type Enumerator struct {
	platform Platform
	snap     Snapshotter
	opts     Options
	logger   *slog.Logger
}

// NewEnumerator builds an enumerator over platform. snap may be nil, in which
// case sources are listed without thumbnails.
func NewEnumerator(platform Platform, snap Snapshotter, opts Options, logger *slog.Logger) *Enumerator {
	if opts.ThumbnailSize <= 0 {
		opts.ThumbnailSize = 150
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Enumerator{platform: platform, snap: snap, opts: opts, logger: logger.With("component", "source")}
}

// List returns sources of the requested kind. No sources is an empty slice,
// not an error. With KindBoth, one failing backend is tolerated as long as
// the other succeeds.
func (e *Enumerator) List(ctx context.Context, kind Kind) ([]Source, error) {
	if e == nil || e.platform == nil {
		return nil, &EnumerationError{Kind: kind, Err: errors.New("no platform")}
	}
	out := []Source{}
	var errs []error
	if kind.includes(KindScreen) {
		screens, err := e.screens()
		if err != nil {
			errs = append(errs, &EnumerationError{Kind: KindScreen, Err: err})
		}
		out = append(out, screens...)
	}
	if kind.includes(KindWindow) {
		wins, err := e.windows()
		if err != nil {
			errs = append(errs, &EnumerationError{Kind: KindWindow, Err: err})
		}
		out = append(out, wins...)
	}
	if len(errs) > 0 && (kind != KindBoth || len(errs) == 2) {
		return nil, errors.Join(errs...)
	}
	for _, err := range errs {
		e.logger.Warn("partial enumeration", "error", err)
	}
	for i := range out {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		out[i].Thumbnail = e.thumbnail(out[i])
	}
	e.logger.Debug("sources listed", "kind", string(kind), "count", len(out))
	return out, nil
}

// Lookup re-resolves id against the live platform state.
func (e *Enumerator) Lookup(ctx context.Context, id string) (Source, error) {
	if err := ctx.Err(); err != nil {
		return Source{}, err
	}
	kind, handle, err := ParseID(id)
	if err != nil {
		return Source{}, &NotFoundError{ID: id}
	}
	switch kind {
	case KindScreen:
		displays, err := e.platform.Displays()
		if err != nil || int(handle) >= len(displays) {
			return Source{}, &NotFoundError{ID: id}
		}
		return Source{ID: id, Name: screenName(int(handle)), Kind: KindScreen, Bounds: displays[handle]}, nil
	default:
		w, ok := e.platform.Window(uintptr(handle))
		if !ok || w.Bounds.Empty() {
			return Source{}, &NotFoundError{ID: id}
		}
		return Source{ID: id, Name: w.Title, Kind: KindWindow, Bounds: w.Bounds}, nil
	}
}

func (e *Enumerator) screens() ([]Source, error) {
	displays, err := e.platform.Displays()
	if err != nil {
		return nil, err
	}
	out := make([]Source, 0, len(displays))
	for i, b := range displays {
		out = append(out, Source{ID: ScreenID(i), Name: screenName(i), Kind: KindScreen, Bounds: b})
	}
	return out, nil
}

func (e *Enumerator) windows() ([]Source, error) {
	wins, err := e.platform.Windows()
	if err != nil {
		return nil, err
	}
	out := make([]Source, 0, len(wins))
	for _, w := range wins {
		title := strings.TrimSpace(w.Title)
		if title == "" || w.Bounds.Empty() {
			continue
		}
		if p := e.opts.ExcludeTitlePrefix; p != "" && strings.HasPrefix(title, p) {
			continue
		}
		out = append(out, Source{ID: WindowID(w.Handle), Name: title, Kind: KindWindow, Bounds: w.Bounds})
	}
	return out, nil
}

// thumbnail is best-effort; failures leave the source without a preview.
func (e *Enumerator) thumbnail(src Source) []byte {
	if e.snap == nil {
		return nil
	}
	frame, err := e.snap(src)
	if err != nil || frame == nil {
		e.logger.Debug("thumbnail skipped", "source", src.ID, "error", err)
		return nil
	}
	return EncodeThumbnail(frame, e.opts.ThumbnailSize)
}

// EncodeThumbnail contain-fits img into size x size and PNG-encodes it.
func EncodeThumbnail(img image.Image, size int) []byte {
	if img == nil || img.Bounds().Empty() {
		return nil
	}
	fit := imaging.Fit(img, size, size, imaging.Linear)
	var buf bytes.Buffer
	if err := png.Encode(&buf, fit); err != nil {
		return nil
	}
	return buf.Bytes()
}

func screenName(i int) string { return fmt.Sprintf("Screen %d", i+1) }
