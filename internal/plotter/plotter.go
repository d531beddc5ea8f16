package plotter

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/dshills/plotstorm/internal/config/rc"
	"github.com/dshills/plotstorm/internal/data"
	"github.com/dshills/plotstorm/internal/render"
)

// Spec declares a plotter type: its name, the registry prefixes its
// defaults are scoped by (most specific first) and the static table of
// formatoption factories. Plotters are built from specs; there is no
// inheritance machinery.
type Spec struct {
	Name          string
	Prefixes      []string
	Formatoptions []func() Formatoption
}

// Plotter coordinates one data object, one rendering target and a set
// of formatoptions through the update engine. One plotter runs at most
// one update cycle at a time.
type Plotter struct {
	id   uuid.UUID
	spec Spec

	params  *rc.Params
	rcView  *rc.SubView
	decoder data.Decoder

	data data.Object
	fig  *render.Figure
	ax   *render.Axes

	fmtos  map[string]Formatoption
	keys   []string // declaration order
	groups map[string][]string

	// values is the explicit key -> current validated value store.
	values map[string]any

	// Update-cycle bookkeeping.
	registered map[string]any
	force      map[string]bool
	sharedIn   map[string]Formatoption // key -> controlling formatoption
	lastUpdate []string
	oldFmt     []map[string]any
	replot     bool
	cleared    bool

	initialized bool
	updating    bool
	disabled    bool
	autoUpdate  bool
	enablePost  bool

	onWarning func(msg string)
}

// Option configures a plotter at construction.
type Option func(*Plotter)

// WithData sets the data object.
func WithData(obj data.Object) Option {
	return func(p *Plotter) { p.data = obj }
}

// WithAxes sets the rendering target.
func WithAxes(fig *render.Figure, ax *render.Axes) Option {
	return func(p *Plotter) { p.fig, p.ax = fig, ax }
}

// WithDecoder overrides the default CF decoder.
func WithDecoder(dec data.Decoder) Option {
	return func(p *Plotter) { p.decoder = dec }
}

// WithPostEnabled allows the post script hook to run.
func WithPostEnabled(enabled bool) Option {
	return func(p *Plotter) { p.enablePost = enabled }
}

// WithAutoUpdate controls whether Update applies immediately or only
// registers until StartUpdate. Defaults to the lists.auto_update
// parameter.
func WithAutoUpdate(auto bool) Option {
	return func(p *Plotter) { p.autoUpdate = auto }
}

// WithWarningHandler receives non-fatal conditions (skipped shared
// keys, disabled post hook).
func WithWarningHandler(fn func(msg string)) Option {
	return func(p *Plotter) { p.onWarning = fn }
}

// New builds a plotter from a spec. Every declared formatoption is
// instantiated eagerly and initialized to its registry default (or the
// declaration default when no prefix matches), then the initial values
// are applied. When a data object is given, the first full render
// cycle runs immediately.
func New(spec Spec, params *rc.Params, initial map[string]any, opts ...Option) (*Plotter, error) {
	p := &Plotter{
		id:         uuid.New(),
		spec:       spec,
		params:     params,
		decoder:    data.CFDecoder{},
		fmtos:      make(map[string]Formatoption, len(spec.Formatoptions)),
		groups:     make(map[string][]string),
		values:     make(map[string]any),
		registered: make(map[string]any),
		force:      make(map[string]bool),
		sharedIn:   make(map[string]Formatoption),
		autoUpdate: params.GetBool("lists.auto_update", true),
	}
	for _, opt := range opts {
		opt(p)
	}

	for _, factory := range spec.Formatoptions {
		fo := factory()
		key := fo.Key()
		if _, dup := p.fmtos[key]; dup {
			return nil, fmt.Errorf("plotter %s: duplicate formatoption %q", spec.Name, key)
		}
		fo.base().attach(p, fo)
		p.fmtos[key] = fo
		p.keys = append(p.keys, key)
		if g := fo.Group(); g != "" {
			p.groups[g] = append(p.groups[g], key)
		}
	}

	p.rcView = params.Sub(spec.Prefixes...)
	p.rcView.ApplyOverrides(params.User())

	if err := p.initDefaults(); err != nil {
		return nil, err
	}
	for key, value := range initial {
		if err := p.CheckKey(key); err != nil {
			return nil, err
		}
		fo := p.fmtos[key]
		validated, err := fo.Validate(value)
		if err != nil {
			return nil, &ValidationError{Key: key, Value: value, Err: err}
		}
		p.values[key] = validated
	}

	if p.data != nil {
		if _, err := p.InitializePlot(); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// initDefaults seeds the value store: registry sub-view first,
// declaration default when no prefix matches.
func (p *Plotter) initDefaults() error {
	for _, key := range p.keys {
		fo := p.fmtos[key]
		raw, err := p.rcView.Get(key)
		if err != nil {
			raw = fo.Default()
		}
		validated, verr := fo.Validate(raw)
		if verr != nil {
			return &ValidationError{Key: key, Value: raw, Err: verr}
		}
		p.values[key] = validated
	}
	return nil
}

// ID returns the plotter's stable identity, used by persistence to
// wire shared keys back up.
func (p *Plotter) ID() uuid.UUID { return p.id }

// SpecName returns the plotter type name.
func (p *Plotter) SpecName() string { return p.spec.Name }

// Data returns the data object.
func (p *Plotter) Data() data.Object { return p.data }

// SetData replaces the data object without triggering an update.
func (p *Plotter) SetData(obj data.Object) { p.data = obj }

// Axes returns the rendering target.
func (p *Plotter) Axes() *render.Axes { return p.ax }

// Figure returns the owning figure.
func (p *Plotter) Figure() *render.Figure { return p.fig }

// Decoder returns the axis decoder.
func (p *Plotter) Decoder() data.Decoder { return p.decoder }

// RC returns the prefix-scoped default view.
func (p *Plotter) RC() *rc.SubView { return p.rcView }

// Initialized reports whether the first render cycle ran.
func (p *Plotter) Initialized() bool { return p.initialized }

// Disable turns the plotter off: registering updates becomes a silent
// no-op.
func (p *Plotter) Disable() { p.disabled = true }

// Enable re-enables a disabled plotter.
func (p *Plotter) Enable() { p.disabled = false }

// Keys returns the declared formatoption keys in declaration order.
func (p *Plotter) Keys() []string {
	return append([]string(nil), p.keys...)
}

// Groups returns the group names with at least one formatoption.
func (p *Plotter) Groups() []string {
	names := make([]string, 0, len(p.groups))
	for g := range p.groups {
		names = append(names, g)
	}
	sort.Strings(names)
	return names
}

// Fmto returns the formatoption for a key.
func (p *Plotter) Fmto(key string) (Formatoption, error) {
	if err := p.CheckKey(key); err != nil {
		return nil, err
	}
	return p.fmtos[key], nil
}

// Value returns the effective value for a key, honoring sharing.
func (p *Plotter) Value(key string) (any, error) {
	fo, err := p.Fmto(key)
	if err != nil {
		return nil, err
	}
	return fo.base().Value(), nil
}

// CheckKey validates a formatoption key before any state is touched,
// attaching fuzzy suggestions to the error.
func (p *Plotter) CheckKey(key string) error {
	if _, ok := p.fmtos[key]; ok {
		return nil
	}
	return &UnknownKeyError{
		Key:     key,
		Plotter: p.spec.Name,
		Similar: similarKeys(key, p.keys, 3),
	}
}

// expandKeys resolves group names to their member keys and defaults to
// every key when none are given. The result is sorted and
// deduplicated.
func (p *Plotter) expandKeys(keys []string) ([]string, error) {
	if len(keys) == 0 {
		return append([]string(nil), p.keys...), nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, k := range keys {
		if members, isGroup := p.groups[k]; isGroup {
			for _, m := range members {
				if !seen[m] {
					seen[m] = true
					out = append(out, m)
				}
			}
			continue
		}
		if err := p.CheckKey(k); err != nil {
			return nil, err
		}
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

// LastUpdate returns the keys touched by the most recent cycle, in
// execution order.
func (p *Plotter) LastUpdate() []string {
	return append([]string(nil), p.lastUpdate...)
}

// HasChanged returns the previous and current value for a key touched
// in the last cycle, or ok=false when it did not change.
func (p *Plotter) HasChanged(key string) (old, current any, ok bool) {
	if err := p.CheckKey(key); err != nil {
		return nil, nil, false
	}
	if len(p.oldFmt) == 0 {
		return nil, nil, false
	}
	touched := false
	for _, k := range p.lastUpdate {
		if k == key {
			touched = true
			break
		}
	}
	if !touched {
		return nil, nil, false
	}
	snap := p.oldFmt[len(p.oldFmt)-1]
	old = snap[key]
	current = p.values[key]
	if fo := p.fmtos[key]; !fo.Diff(old) {
		return nil, nil, false
	}
	return old, current, true
}

// State returns the serializable key -> value map.
func (p *Plotter) State() map[string]any {
	out := make(map[string]any, len(p.keys))
	for _, key := range p.keys {
		out[key] = persistValue(p.fmtos[key])
	}
	return out
}

// SharedKeys returns key -> controlling plotter for every key this
// plotter currently delegates.
func (p *Plotter) SharedKeys() map[string]*Plotter {
	out := make(map[string]*Plotter, len(p.sharedIn))
	for key, src := range p.sharedIn {
		out[key] = src.base().plotter
	}
	return out
}

func (p *Plotter) warn(format string, args ...any) {
	if p.onWarning != nil {
		p.onWarning(fmt.Sprintf(format, args...))
	}
}
