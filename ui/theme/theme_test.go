package theme

import (
	"reflect"
	"regexp"
	"testing"
)

var hexColour = regexp.MustCompile(`^#[0-9a-f]{6}$`)

func TestPaletteColours(t *testing.T) {
	p := CurrentPalette()
	v := reflect.ValueOf(p)
	for i := 0; i < v.NumField(); i++ {
		name := v.Type().Field(i).Name
		if c := v.Field(i).String(); !hexColour.MatchString(c) {
			t.Fatalf("%s: %q is not a #rrggbb colour", name, c)
		}
	}
	if p.Primary == p.Border {
		t.Fatalf("pinned and unpinned slice frames must differ")
	}
}

func TestCurrentPaletteIsACopy(t *testing.T) {
	p := CurrentPalette()
	p.Primary = "#000000"
	if CurrentPalette().Primary == "#000000" {
		t.Fatalf("palette must not be mutable through CurrentPalette")
	}
}
