// Package data provides the labeled-array collaborator layer: datasets
// of named variables with dimension coordinates, sliced views of them
// (Array), and dimension-name selection by index or by nearest
// coordinate value. It is deliberately small; the update engine only
// needs dims, shapes, attrs and re-selection.
package data

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Attrs is a string-keyed attribute map carried by datasets, variables
// and coordinates.
type Attrs map[string]any

// Copy returns a shallow copy.
func (a Attrs) Copy() Attrs {
	if a == nil {
		return nil
	}
	out := make(Attrs, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Coord is a one-dimensional labeled coordinate.
type Coord struct {
	Name   string
	Values []float64
	Attrs  Attrs
}

// Copy returns a deep copy of the coordinate.
func (c *Coord) Copy() *Coord {
	if c == nil {
		return nil
	}
	out := &Coord{Name: c.Name, Attrs: c.Attrs.Copy()}
	out.Values = append(out.Values, c.Values...)
	return out
}

// nearest returns the index whose value is closest to target.
func (c *Coord) nearest(target float64) int {
	best, bestDist := 0, -1.0
	for i, v := range c.Values {
		d := v - target
		if d < 0 {
			d = -d
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// Variable is an N-dimensional variable stored row-major.
type Variable struct {
	Name   string
	Dims   []string
	Shape  []int
	Values []float64
	Attrs  Attrs
}

func (v *Variable) size() int {
	n := 1
	for _, s := range v.Shape {
		n *= s
	}
	return n
}

func (v *Variable) validate() error {
	if len(v.Dims) != len(v.Shape) {
		return fmt.Errorf("%w: variable %s has %d dims but %d shape entries",
			ErrShapeMismatch, v.Name, len(v.Dims), len(v.Shape))
	}
	if len(v.Values) != v.size() {
		return fmt.Errorf("%w: variable %s has %d values for shape %v",
			ErrShapeMismatch, v.Name, len(v.Values), v.Shape)
	}
	return nil
}

// Dataset is a collection of variables sharing dimension coordinates.
type Dataset struct {
	Name      string
	Variables map[string]*Variable
	Coords    map[string]*Coord
	Attrs     Attrs
}

// Variable returns the named variable.
func (ds *Dataset) Variable(name string) (*Variable, error) {
	v, ok := ds.Variables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariable, name)
	}
	return v, nil
}

// VariableNames returns the sorted variable names.
func (ds *Dataset) VariableNames() []string {
	names := make([]string, 0, len(ds.Variables))
	for name := range ds.Variables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// datasetFile mirrors the YAML on-disk layout.
type datasetFile struct {
	Name      string               `yaml:"name"`
	Attrs     map[string]any       `yaml:"attrs"`
	Coords    map[string]coordFile `yaml:"coords"`
	Variables map[string]varFile   `yaml:"variables"`
}

type coordFile struct {
	Values []float64      `yaml:"values"`
	Attrs  map[string]any `yaml:"attrs"`
}

type varFile struct {
	Dims   []string       `yaml:"dims"`
	Shape  []int          `yaml:"shape"`
	Values []float64      `yaml:"values"`
	Attrs  map[string]any `yaml:"attrs"`
}

// Open reads a dataset description file.
func Open(path string) (*Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset %s: %w", path, err)
	}
	return Decode(raw)
}

// Decode parses a YAML dataset description.
func Decode(raw []byte) (*Dataset, error) {
	var file datasetFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing dataset: %w", err)
	}

	ds := &Dataset{
		Name:      file.Name,
		Variables: make(map[string]*Variable, len(file.Variables)),
		Coords:    make(map[string]*Coord, len(file.Coords)),
		Attrs:     Attrs(file.Attrs),
	}
	for name, c := range file.Coords {
		ds.Coords[name] = &Coord{Name: name, Values: c.Values, Attrs: Attrs(c.Attrs)}
	}
	for name, v := range file.Variables {
		shape := v.Shape
		if shape == nil {
			// Infer from coordinate lengths when omitted.
			shape = make([]int, len(v.Dims))
			for i, dim := range v.Dims {
				c, ok := ds.Coords[dim]
				if !ok {
					return nil, fmt.Errorf("%w: variable %s dim %s has neither shape nor coordinate",
						ErrShapeMismatch, name, dim)
				}
				shape[i] = len(c.Values)
			}
		}
		vr := &Variable{Name: name, Dims: v.Dims, Shape: shape, Values: v.Values, Attrs: Attrs(v.Attrs)}
		if err := vr.validate(); err != nil {
			return nil, err
		}
		ds.Variables[name] = vr
	}
	return ds, nil
}
