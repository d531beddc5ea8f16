package render

import (
	"fmt"
	"sort"
)

// Colormap maps the unit interval onto a color gradient. Lookups blend
// between stops in Lab space so midpoints stay perceptually even.
type Colormap struct {
	Name  string
	Stops []Color
}

// At returns the color at position t in [0, 1].
func (m *Colormap) At(t float64) Color {
	if len(m.Stops) == 0 {
		return White
	}
	if len(m.Stops) == 1 || t <= 0 {
		return m.Stops[0]
	}
	if t >= 1 {
		return m.Stops[len(m.Stops)-1]
	}
	scaled := t * float64(len(m.Stops)-1)
	i := int(scaled)
	frac := scaled - float64(i)
	a := toColorful(m.Stops[i])
	b := toColorful(m.Stops[i+1])
	return fromColorful(a.BlendLab(b, frac).Clamped())
}

var colormaps = map[string]*Colormap{
	"viridis": {
		Name: "viridis",
		Stops: []Color{
			{68, 1, 84}, {59, 82, 139}, {33, 145, 140}, {94, 201, 98}, {253, 231, 37},
		},
	},
	"coolwarm": {
		Name:  "coolwarm",
		Stops: []Color{{59, 76, 192}, {221, 221, 221}, {180, 4, 38}},
	},
	"gray": {
		Name:  "gray",
		Stops: []Color{Black, White},
	},
}

// GetColormap returns a registered colormap by name.
func GetColormap(name string) (*Colormap, error) {
	m, ok := colormaps[name]
	if !ok {
		return nil, fmt.Errorf("render: unknown colormap %q", name)
	}
	return m, nil
}

// IsColormap reports whether name is registered.
func IsColormap(name string) bool {
	_, ok := colormaps[name]
	return ok
}

// ColormapNames returns the sorted registered names.
func ColormapNames() []string {
	names := make([]string, 0, len(colormaps))
	for n := range colormaps {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
