package data

import "strings"

// Decoder maps an array's dimensions onto plot axes. Settings whose
// drawing logic is grid-topology-aware go through this rather than
// hard-coding dimension positions.
type Decoder interface {
	GetX(a *Array) *Coord
	GetY(a *Array) *Coord
	GetZ(a *Array) *Coord
	GetT(a *Array) *Coord
	IsUnstructured(a *Array) bool
	IsTriangular(a *Array) bool
}

// CFDecoder resolves axes by CF-style conventions: a coordinate whose
// "axis" attribute names the axis wins; otherwise dimension order
// decides (last dim is x, second-to-last is y).
type CFDecoder struct{}

func (CFDecoder) GetX(a *Array) *Coord { return axisCoord(a, "X", -1) }

func (CFDecoder) GetY(a *Array) *Coord { return axisCoord(a, "Y", -2) }

func (CFDecoder) GetZ(a *Array) *Coord { return axisCoord(a, "Z", -3) }

func (CFDecoder) GetT(a *Array) *Coord { return axisCoord(a, "T", -4) }

// IsUnstructured reports whether the array carries an unstructured
// grid marker.
func (CFDecoder) IsUnstructured(a *Array) bool {
	return gridType(a) == "unstructured"
}

// IsTriangular reports whether the array carries a triangular grid
// marker.
func (CFDecoder) IsTriangular(a *Array) bool {
	return gridType(a) == "triangular"
}

func gridType(a *Array) string {
	if a == nil || a.Attrs == nil {
		return ""
	}
	if g, ok := a.Attrs["grid_type"].(string); ok {
		return strings.ToLower(g)
	}
	return ""
}

// axisCoord finds the coordinate for one axis letter, falling back to
// the dimension at the given position from the end.
func axisCoord(a *Array, axis string, fromEnd int) *Coord {
	if a == nil {
		return nil
	}
	for _, dim := range a.Dims {
		c := a.Coords[dim]
		if c == nil || c.Attrs == nil {
			continue
		}
		if ax, ok := c.Attrs["axis"].(string); ok && strings.EqualFold(ax, axis) {
			return c
		}
	}
	pos := len(a.Dims) + fromEnd
	if pos < 0 || pos >= len(a.Dims) {
		return nil
	}
	return a.Coords[a.Dims[pos]]
}
