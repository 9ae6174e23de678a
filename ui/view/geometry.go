package view

import (
	"fmt"
	"image"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/soocke/sliceview/ui/input"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders
	. "modernc.org/tk9.0"
)

// geomReSel matches window geometry strings in the format "WIDTHxHEIGHT+X+Y".
// Tk writes a negative position as "+-N"; "-N" counts from the far screen
// edge and is rejected.
var geomReSel = regexp.MustCompile(`^(\d+)x(\d+)\+(-?\d+)\+(-?\d+)$`)

// parseGeometrySel parses a Tk geometry string and returns the corresponding rectangle.
func parseGeometrySel(g string) (image.Rectangle, bool) {
	g = strings.TrimSpace(g)
	m := geomReSel.FindStringSubmatch(g)
	if len(m) != 5 {
		return image.Rectangle{}, false
	}
	w, _ := strconv.Atoi(m[1])
	h, _ := strconv.Atoi(m[2])
	x, _ := strconv.Atoi(m[3])
	y, _ := strconv.Atoi(m[4])
	if w <= 0 || h <= 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(x, y, x+w, y+h), true
}

func formatGeometry(r image.Rectangle) string {
	return fmt.Sprintf("%dx%d%s", r.Dx(), r.Dy(), formatPosition(r.Min))
}

// formatPosition writes a top-left position measured from the screen origin.
func formatPosition(p image.Point) string {
	return fmt.Sprintf("+%d+%d", p.X, p.Y)
}

// lockSize pins a window to the first size it is mapped with. It returns the
// pinned size, the geometry the window should have and whether a resize has
// to be undone.
func lockSize(fixed image.Point, got image.Rectangle) (image.Point, image.Rectangle, bool) {
	size := image.Pt(got.Dx(), got.Dy())
	if fixed == (image.Point{}) {
		return size, got, false
	}
	if size == fixed {
		return fixed, got, false
	}
	return fixed, image.Rectangle{Min: got.Min, Max: got.Min.Add(fixed)}, true
}

// bindPointer feeds the widget's button and drag events into q.
func bindPointer(w *Window, q *input.Queue) {
	for _, b := range input.Bindings {
		Bind(w, b.Sequence, Command(func(e *Event) {
			q.Push(b.Event(e.XRoot, e.YRoot, time.Now()))
		}))
	}
}
