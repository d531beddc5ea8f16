// Package plotter implements the formatoption update engine: named,
// validated, visually effective settings with declared relations to
// one another, and the Plotter that resolves a set of changed settings
// into a deterministic execution order, runs them in priority phases,
// shares them across plotters and rolls back on failure.
package plotter

import (
	"reflect"

	"github.com/dshills/plotstorm/internal/config/registry"
	"github.com/dshills/plotstorm/internal/data"
)

// Priority bands. Higher runs earlier. Start settings touch the data
// selection, BeforePlot settings feed the drawing step, End settings
// are cosmetic.
type Priority int

const (
	PriorityEnd        Priority = 10
	PriorityBeforePlot Priority = 20
	PriorityStart      Priority = 30
)

// String returns the band name.
func (p Priority) String() string {
	switch {
	case p >= PriorityStart:
		return "start"
	case p >= PriorityBeforePlot:
		return "before-plot"
	default:
		return "end"
	}
}

// Def is the static declaration of one formatoption: everything about
// it except its update behavior.
type Def struct {
	Key      string
	Priority Priority
	Group    string

	// Relations by key. Children update before this one when both are
	// in a batch; Dependencies additionally pull this one in when they
	// change; Connections are informational; a Parent in the batch
	// suppresses this one.
	Children     []string
	Dependencies []string
	Connections  []string
	Parents      []string

	// PlotFmt marks settings that draw something during the plot
	// step. Plot formatoptions are always data dependent.
	PlotFmt bool

	// DataDependent (or the predicate, which wins when set) selects
	// this formatoption whenever the data changes.
	DataDependent     bool
	DataDependentFunc func(obj data.Object) bool

	UpdateAfterPlot  bool
	RequiresClearing bool
	RequiresReplot   bool

	// Default is the fallback when no registry prefix provides one.
	Default  any
	Validate registry.Validator
}

// Formatoption is one named setting owned by a plotter. Concrete
// formatoptions embed *Base, which carries the Def and satisfies the
// bookkeeping half of this interface; they override Update (and
// optionally Diff) for their behavior.
type Formatoption interface {
	Key() string
	Priority() Priority
	Group() string
	Children() []string
	Dependencies() []string
	Connections() []string
	Parents() []string
	PlotFmt() bool
	DataDependent(obj data.Object) bool
	UpdateAfterPlot() bool
	RequiresClearing() bool
	RequiresReplot() bool
	Default() any
	Validate(value any) (any, error)

	// Diff reports whether value differs from the current value.
	Diff(value any) bool

	// Update applies value to the rendering target. It must tolerate
	// repeated calls with the same value.
	Update(value any) error

	base() *fmtoBase
}

// Optional formatoption behaviors. The engine probes for these with
// type assertions and falls back to the default when absent.
type (
	// Initializer distinguishes the first draw from later updates.
	// Without it the engine calls Update for both.
	Initializer interface {
		InitializePlot(value any) error
	}

	// PlotMaker is implemented by plot formatoptions to create the
	// actual drawing during the plot step.
	PlotMaker interface {
		MakePlot() error
	}

	// Remover undoes visual side effects before a clearing reinit.
	Remover interface {
		Remove()
	}

	// Finisher runs once per update cycle after every selected
	// formatoption ran.
	Finisher interface {
		FinishUpdate()
	}

	// ShareValuer overrides the value passed to shared counterparts.
	ShareValuer interface {
		ShareValue() any
	}

	// PersistValuer overrides the serialized form of the value.
	PersistValuer interface {
		PersistValue() any
	}
)

// fmtoBase is the embedded engine half of a formatoption.
type fmtoBase struct {
	def     Def
	plotter *Plotter
	self    Formatoption
	lock    rlock

	// shared holds the other plotters' formatoptions this one
	// controls.
	shared map[Formatoption]bool
}

// Base returns an embeddable formatoption core for def. Concrete
// types embed the returned value. NewBase is used by factories:
//
//	type titleFmto struct{ *plotter.Base }
type Base = fmtoBase

// NewBase creates the embeddable core for a declaration.
func NewBase(def Def) *Base {
	return &fmtoBase{def: def, shared: make(map[Formatoption]bool)}
}

// attach wires the formatoption into its owning plotter. self is the
// outer interface value so base methods dispatch to overrides.
func (b *fmtoBase) attach(p *Plotter, self Formatoption) {
	b.plotter = p
	b.self = self
	if b.shared == nil {
		b.shared = make(map[Formatoption]bool)
	}
}

func (b *fmtoBase) base() *fmtoBase { return b }

// Key returns the formatoption key.
func (b *fmtoBase) Key() string { return b.def.Key }

// Priority returns the execution band.
func (b *fmtoBase) Priority() Priority { return b.def.Priority }

// Group returns the UI group name.
func (b *fmtoBase) Group() string { return b.def.Group }

func (b *fmtoBase) Children() []string     { return b.def.Children }
func (b *fmtoBase) Dependencies() []string { return b.def.Dependencies }
func (b *fmtoBase) Connections() []string  { return b.def.Connections }
func (b *fmtoBase) Parents() []string      { return b.def.Parents }

// PlotFmt reports whether this formatoption draws during the plot
// step.
func (b *fmtoBase) PlotFmt() bool { return b.def.PlotFmt }

// DataDependent reports whether a data change should re-run this
// formatoption. Plot formatoptions always are.
func (b *fmtoBase) DataDependent(obj data.Object) bool {
	if b.def.PlotFmt {
		return true
	}
	if b.def.DataDependentFunc != nil {
		return b.def.DataDependentFunc(obj)
	}
	return b.def.DataDependent
}

func (b *fmtoBase) UpdateAfterPlot() bool  { return b.def.UpdateAfterPlot }
func (b *fmtoBase) RequiresClearing() bool { return b.def.RequiresClearing }
func (b *fmtoBase) RequiresReplot() bool   { return b.def.RequiresReplot }

// Default returns the declaration-level default value.
func (b *fmtoBase) Default() any { return b.def.Default }

// Validate runs the declared validator, passing the value through
// unchanged when none is declared.
func (b *fmtoBase) Validate(value any) (any, error) {
	if b.def.Validate == nil {
		return value, nil
	}
	return b.def.Validate(value)
}

// Diff reports whether value differs from the current value.
func (b *fmtoBase) Diff(value any) bool {
	return !reflect.DeepEqual(value, b.Value())
}

// Update applies the value. The base implementation only carries the
// stored value; formatoptions with visual effects override it.
func (b *fmtoBase) Update(value any) error { return nil }

// Plotter returns the owning plotter.
func (b *fmtoBase) Plotter() *Plotter { return b.plotter }

// Value returns the effective value: the sharing source's value while
// this key is shared, the plotter's stored value otherwise.
func (b *fmtoBase) Value() any {
	if b.plotter == nil {
		return b.def.Default
	}
	if src := b.plotter.sharedIn[b.def.Key]; src != nil {
		return shareValue(src)
	}
	return b.plotter.values[b.def.Key]
}

// StoredValue returns the plotter's stored value regardless of
// sharing.
func (b *fmtoBase) StoredValue() any {
	if b.plotter == nil {
		return b.def.Default
	}
	return b.plotter.values[b.def.Key]
}

// SharedWith returns the formatoptions of other plotters this one
// currently controls.
func (b *fmtoBase) SharedWith() []Formatoption {
	out := make([]Formatoption, 0, len(b.shared))
	for fo := range b.shared {
		out = append(out, fo)
	}
	return out
}

// Shared reports whether this formatoption's key is currently
// delegated to another plotter.
func (b *fmtoBase) Shared() bool {
	return b.plotter != nil && b.plotter.sharedIn[b.def.Key] != nil
}

// Data returns the owning plotter's data object.
func (b *fmtoBase) Data() data.Object {
	if b.plotter == nil {
		return nil
	}
	return b.plotter.data
}

// shareValue returns what a sharing source hands to its targets.
func shareValue(fo Formatoption) any {
	if sv, ok := fo.(ShareValuer); ok {
		return sv.ShareValue()
	}
	return fo.base().StoredValue()
}

// persistValue returns the serializable form of a formatoption value.
func persistValue(fo Formatoption) any {
	if pv, ok := fo.(PersistValuer); ok {
		return pv.PersistValue()
	}
	return fo.base().StoredValue()
}
