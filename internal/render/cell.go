// Package render provides the rendering target the update engine draws
// onto: a figure of cell-grid axes with pluggable backends. The memory
// backend serves tests and text export; the terminal backend draws
// through tcell.
package render

import (
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is a 24-bit RGB color.
type Color struct {
	R, G, B uint8
}

// Cell is one character cell of an axes grid.
type Cell struct {
	Ch    rune
	Color Color
}

// EmptyCell returns a blank cell.
func EmptyCell() Cell {
	return Cell{Ch: ' ', Color: White}
}

// Common colors.
var (
	Black   = Color{0, 0, 0}
	White   = Color{255, 255, 255}
	Red     = Color{205, 49, 49}
	Green   = Color{13, 188, 121}
	Blue    = Color{36, 114, 200}
	Yellow  = Color{229, 229, 16}
	Magenta = Color{188, 63, 188}
	Cyan    = Color{17, 168, 205}
	Gray    = Color{128, 128, 128}
)

var namedColors = map[string]Color{
	"black":   Black,
	"white":   White,
	"red":     Red,
	"green":   Green,
	"blue":    Blue,
	"yellow":  Yellow,
	"magenta": Magenta,
	"cyan":    Cyan,
	"gray":    Gray,
	"grey":    Gray,
}

// ParseColor resolves a color name or "#rrggbb" hex string.
func ParseColor(s string) (Color, bool) {
	if c, ok := namedColors[strings.ToLower(s)]; ok {
		return c, true
	}
	if strings.HasPrefix(s, "#") {
		if cf, err := colorful.Hex(s); err == nil {
			return fromColorful(cf), true
		}
	}
	return Color{}, false
}

// IsColor reports whether s names a valid color.
func IsColor(s string) bool {
	_, ok := ParseColor(s)
	return ok
}

func fromColorful(c colorful.Color) Color {
	r, g, b := c.RGB255()
	return Color{r, g, b}
}

func toColorful(c Color) colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
}
