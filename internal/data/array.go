package data

import (
	"fmt"
	"sort"
)

// Selection method names.
const (
	MethodIndex   = "index"
	MethodNearest = "nearest"
)

// Selection picks a single position along one or more dimensions.
// With MethodIndex the value must be an integer position; with
// MethodNearest it must be a number matched against the dimension's
// coordinate.
type Selection struct {
	Method string
	Dims   map[string]any
}

// Merge overlays other on top of s, later dims winning.
func (s Selection) Merge(other Selection) Selection {
	out := Selection{Method: s.Method, Dims: make(map[string]any, len(s.Dims)+len(other.Dims))}
	for k, v := range s.Dims {
		out.Dims[k] = v
	}
	for k, v := range other.Dims {
		out.Dims[k] = v
	}
	if other.Method != "" {
		out.Method = other.Method
	}
	return out
}

// Object is what a plotter holds as its data handle: one array or a
// list of arrays, homogeneously. Pending updates are registered first
// and gathered later so a collection can run the gather step for many
// members in parallel.
type Object interface {
	Arrays() []*Array
	RegisterUpdate(sel Selection) error
	GatherPending() error
	HasPending() bool
}

// Array is a selected view of one dataset variable.
type Array struct {
	Name   string
	Dims   []string
	Shape  []int
	Values []float64
	Coords map[string]*Coord
	Attrs  Attrs

	base    *Dataset
	varName string
	sel     Selection
	pending *Selection
}

// NewArray creates a view of a dataset variable under the given
// selection. An empty selection yields the full variable.
func NewArray(ds *Dataset, varName string, sel Selection) (*Array, error) {
	if _, err := ds.Variable(varName); err != nil {
		return nil, err
	}
	a := &Array{
		Name:    varName,
		base:    ds,
		varName: varName,
		sel:     Selection{Method: sel.Method, Dims: map[string]any{}},
	}
	if err := a.apply(sel); err != nil {
		return nil, err
	}
	return a, nil
}

// Base returns the dataset this array was sliced from.
func (a *Array) Base() *Dataset { return a.base }

// VarName returns the dataset variable backing this array.
func (a *Array) VarName() string { return a.varName }

// CurrentSelection returns the selection currently applied.
func (a *Array) CurrentSelection() Selection { return a.sel }

// Arrays implements Object.
func (a *Array) Arrays() []*Array { return []*Array{a} }

// RegisterUpdate queues a new selection. Nothing changes until
// GatherPending runs.
func (a *Array) RegisterUpdate(sel Selection) error {
	for dim := range sel.Dims {
		v, err := a.base.Variable(a.varName)
		if err != nil {
			return err
		}
		if !contains(v.Dims, dim) {
			return fmt.Errorf("%w: %s (variable %s has %v)", ErrUnknownDimension, dim, a.varName, v.Dims)
		}
	}
	if a.pending == nil {
		p := a.sel.Merge(sel)
		a.pending = &p
	} else {
		p := a.pending.Merge(sel)
		a.pending = &p
	}
	return nil
}

// HasPending implements Object.
func (a *Array) HasPending() bool { return a.pending != nil }

// GatherPending re-slices the array from its base dataset using the
// queued selection. This is the potentially heavy step the collection
// parallelizes.
func (a *Array) GatherPending() error {
	if a.pending == nil {
		return nil
	}
	sel := *a.pending
	a.pending = nil
	return a.apply(sel)
}

// apply replaces the array contents with a fresh slice of the base
// variable under sel merged into the current selection.
func (a *Array) apply(sel Selection) error {
	v, err := a.base.Variable(a.varName)
	if err != nil {
		return err
	}
	merged := a.sel.Merge(sel)

	picks := make(map[int]int, len(merged.Dims))
	for dim, raw := range merged.Dims {
		axis := index(v.Dims, dim)
		if axis < 0 {
			return fmt.Errorf("%w: %s (variable %s has %v)", ErrUnknownDimension, dim, a.varName, v.Dims)
		}
		idx, err := a.resolveIndex(merged.Method, dim, v.Shape[axis], raw)
		if err != nil {
			return err
		}
		picks[axis] = idx
	}

	values, dims, shape := slice(v, picks)
	a.sel = merged
	a.Dims = dims
	a.Shape = shape
	a.Values = values
	a.Attrs = v.Attrs.Copy()
	a.Coords = make(map[string]*Coord, len(dims))
	for _, dim := range dims {
		if c, ok := a.base.Coords[dim]; ok {
			a.Coords[dim] = c
		}
	}
	return nil
}

// resolveIndex turns a raw selection value into a positional index.
func (a *Array) resolveIndex(method, dim string, size int, raw any) (int, error) {
	if method == MethodNearest {
		target, ok := asFloat(raw)
		if !ok {
			return 0, fmt.Errorf("%w: %v for dim %s with method nearest", ErrBadSelection, raw, dim)
		}
		c, ok := a.base.Coords[dim]
		if !ok || len(c.Values) == 0 {
			return 0, fmt.Errorf("%w: %s", ErrNoCoordinate, dim)
		}
		return c.nearest(target), nil
	}
	idx, ok := asInt(raw)
	if !ok {
		return 0, fmt.Errorf("%w: %v for dim %s with method index", ErrBadSelection, raw, dim)
	}
	if idx < 0 || idx >= size {
		return 0, fmt.Errorf("%w: index %d out of range for dim %s (size %d)", ErrBadSelection, idx, dim, size)
	}
	return idx, nil
}

// Coord returns the coordinate for one of the array's dimensions.
func (a *Array) Coord(dim string) *Coord {
	return a.Coords[dim]
}

// Copy returns a deep copy sharing the base dataset.
func (a *Array) Copy() *Array {
	out := &Array{
		Name:    a.Name,
		base:    a.base,
		varName: a.varName,
		sel:     a.sel.Merge(Selection{}),
		Attrs:   a.Attrs.Copy(),
	}
	out.Dims = append(out.Dims, a.Dims...)
	out.Shape = append(out.Shape, a.Shape...)
	out.Values = append(out.Values, a.Values...)
	out.Coords = make(map[string]*Coord, len(a.Coords))
	for k, c := range a.Coords {
		out.Coords[k] = c
	}
	if a.pending != nil {
		p := a.pending.Merge(Selection{})
		out.pending = &p
	}
	return out
}

// EnhancedAttrs returns the attrs augmented with the array name, the
// dataset attrs and the coordinate value of every selected dimension,
// for use in label formatting.
func (a *Array) EnhancedAttrs() Attrs {
	out := make(Attrs)
	for k, v := range a.base.Attrs {
		out[k] = v
	}
	for k, v := range a.Attrs {
		out[k] = v
	}
	out["name"] = a.Name
	for dim, raw := range a.sel.Dims {
		key := dim
		if c, ok := a.base.Coords[dim]; ok && a.sel.Method != MethodNearest {
			if idx, ok := asInt(raw); ok && idx >= 0 && idx < len(c.Values) {
				out[key] = c.Values[idx]
				continue
			}
		}
		out[key] = raw
	}
	return out
}

// List is an ordered homogeneous collection of arrays that satisfies
// the same Object contract by fanning out.
type List struct {
	Name  string
	Items []*Array
}

// Arrays implements Object.
func (l *List) Arrays() []*Array { return l.Items }

// RegisterUpdate implements Object by fanning out to every member.
func (l *List) RegisterUpdate(sel Selection) error {
	for _, a := range l.Items {
		if err := a.RegisterUpdate(sel); err != nil {
			return err
		}
	}
	return nil
}

// GatherPending implements Object.
func (l *List) GatherPending() error {
	for _, a := range l.Items {
		if err := a.GatherPending(); err != nil {
			return err
		}
	}
	return nil
}

// HasPending implements Object.
func (l *List) HasPending() bool {
	for _, a := range l.Items {
		if a.HasPending() {
			return true
		}
	}
	return false
}

// slice extracts values with the picked axes fixed, dropping them from
// the result. Data is row-major.
func slice(v *Variable, picks map[int]int) (values []float64, dims []string, shape []int) {
	if len(picks) == 0 {
		return append([]float64(nil), v.Values...),
			append([]string(nil), v.Dims...),
			append([]int(nil), v.Shape...)
	}

	strides := make([]int, len(v.Shape))
	stride := 1
	for i := len(v.Shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= v.Shape[i]
	}

	var outAxes []int
	for i := range v.Shape {
		if _, fixed := picks[i]; !fixed {
			outAxes = append(outAxes, i)
			dims = append(dims, v.Dims[i])
			shape = append(shape, v.Shape[i])
		}
	}

	base := 0
	for axis, idx := range picks {
		base += idx * strides[axis]
	}

	total := 1
	for _, s := range shape {
		total *= s
	}
	values = make([]float64, total)

	counter := make([]int, len(outAxes))
	for out := 0; out < total; out++ {
		off := base
		for i, axis := range outAxes {
			off += counter[i] * strides[axis]
		}
		values[out] = v.Values[off]
		for i := len(counter) - 1; i >= 0; i-- {
			counter[i]++
			if counter[i] < shape[i] {
				break
			}
			counter[i] = 0
		}
	}
	return values, dims, shape
}

func contains(list []string, s string) bool { return index(list, s) >= 0 }

func index(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// SortedDims returns the selection's dimension names sorted, for
// deterministic reporting.
func (s Selection) SortedDims() []string {
	dims := make([]string, 0, len(s.Dims))
	for d := range s.Dims {
		dims = append(dims, d)
	}
	sort.Strings(dims)
	return dims
}
