package source

import (
	"context"
	"fmt"
	"image"
	"strconv"
	"strings"
)

// Kind selects which sources an enumeration returns. A Source itself is
// always KindWindow or KindScreen.
type Kind string

const (
	KindWindow Kind = "window"
	KindScreen Kind = "screen"
	KindBoth   Kind = "both"
)

// ParseKind accepts window|screen|both (case-insensitive); empty means both.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case "", KindBoth:
		return KindBoth, nil
	case KindWindow:
		return KindWindow, nil
	case KindScreen:
		return KindScreen, nil
	}
	return "", fmt.Errorf("source: unknown kind %q", s)
}

func (k Kind) includes(other Kind) bool { return k == KindBoth || k == other }

// Source identifies a capturable window or screen.
type Source struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
	// Bounds is the source's area in virtual-screen pixels at the time it
	// was enumerated or looked up.
	Bounds image.Rectangle `json:"-"`
	// Thumbnail is a PNG preview; nil when it could not be produced.
	Thumbnail []byte `json:"thumbnail,omitempty"`
}

// IsScreen reports whether the id denotes a screen.
func (s Source) IsScreen() bool { return s.Kind == KindScreen }

// Handle returns the platform handle (window) or display index (screen)
// encoded in the id.
func (s Source) Handle() int64 {
	_, h, _ := ParseID(s.ID)
	return h
}

const (
	screenPrefix = "screen:"
	windowPrefix = "window:"
)

// ScreenID builds the id of display index i.
func ScreenID(i int) string { return screenPrefix + strconv.Itoa(i) + ":0" }

// WindowID builds the id of a native window handle.
func WindowID(handle uintptr) string {
	return windowPrefix + strconv.FormatUint(uint64(handle), 10) + ":0"
}

// ParseID splits an id into its kind and numeric handle. The "screen:"
// prefix marks screens; everything else must be a window id.
func ParseID(id string) (Kind, int64, error) {
	var kind Kind
	rest := ""
	switch {
	case strings.HasPrefix(id, screenPrefix):
		kind, rest = KindScreen, strings.TrimPrefix(id, screenPrefix)
	case strings.HasPrefix(id, windowPrefix):
		kind, rest = KindWindow, strings.TrimPrefix(id, windowPrefix)
	default:
		return "", 0, fmt.Errorf("source: malformed id %q", id)
	}
	num, _, _ := strings.Cut(rest, ":")
	h, err := strconv.ParseInt(num, 10, 64)
	if err != nil || h < 0 {
		return "", 0, fmt.Errorf("source: malformed id %q", id)
	}
	return kind, h, nil
}

// Lister lists sources of the requested kind.
type Lister interface {
	List(ctx context.Context, kind Kind) ([]Source, error)
}

// Locator re-resolves an id to a live source.
type Locator interface {
	Lookup(ctx context.Context, id string) (Source, error)
}
