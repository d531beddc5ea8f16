// Package rc provides the validated rc value store and the prefix-scoped
// sub-views used to resolve per-plotter defaults.
//
// A Params instance holds the current value of every registered rc key.
// It is constructed once at start-up from a registry and passed to every
// plotter constructor. Sub-views scope the flat key space to a plotter
// subclass: reading "title" through a view with prefixes
// ["plotter.simple.", "plotter.base."] tries "plotter.simple.title" first
// and "plotter.base.title" second.
package rc

import (
	"fmt"
	"sync"

	"github.com/dshills/plotstorm/internal/config/registry"
)

// UserKey is the rc key holding user formatoption overrides. Its value
// is a map from fully prefixed rc keys to override values, merged on top
// of every sub-view.
const UserKey = "plotter.user"

// Params is a validated key -> value store backed by a registry.
type Params struct {
	mu     sync.RWMutex
	reg    *registry.Registry
	values map[string]any
}

// NewParams creates a store seeded with every registered default.
func NewParams(reg *registry.Registry) *Params {
	p := &Params{reg: reg, values: make(map[string]any)}
	for _, key := range reg.Keys() {
		if d, ok := reg.Default(key); ok {
			p.values[key] = d
		}
	}
	return p
}

// Registry returns the backing defaults table.
func (p *Params) Registry() *registry.Registry { return p.reg }

// Get returns the current value for a key, following deprecation aliases.
func (p *Params) Get(key string) (any, error) {
	key = p.reg.Resolve(key)
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.values[key]
	if !ok {
		// Registered after construction (plugin load): fall back to the
		// registry default.
		if d, found := p.reg.Default(key); found {
			return d, nil
		}
		return nil, fmt.Errorf("%w: %s", registry.ErrUnknownKey, key)
	}
	return v, nil
}

// GetBool returns a boolean value, or def if the key is unknown or not
// a bool. Convenience for the handful of engine switches (auto_draw etc).
func (p *Params) GetBool(key string, def bool) bool {
	v, err := p.Get(key)
	if err != nil {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

// Set validates and stores a value. Unknown keys are an error.
func (p *Params) Set(key string, value any) error {
	key = p.reg.Resolve(key)
	v, err := p.reg.Check(key, value)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.values[key] = v
	p.mu.Unlock()
	return nil
}

// Update validates and stores every pair in m. It stops at the first
// invalid pair.
func (p *Params) Update(m map[string]any) error {
	for k, v := range m {
		if err := p.Set(k, v); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot returns a copy of the current values, for temporary overrides.
func (p *Params) Snapshot() map[string]any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]any, len(p.values))
	for k, v := range p.values {
		out[k] = v
	}
	return out
}

// Restore replaces the current values with a snapshot, without validation.
func (p *Params) Restore(snap map[string]any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values = make(map[string]any, len(snap))
	for k, v := range snap {
		p.values[k] = v
	}
}

// User returns the user-overrides map (the value of UserKey), or an
// empty map if the key is not registered.
func (p *Params) User() map[string]any {
	v, err := p.Get(UserKey)
	if err != nil {
		return map[string]any{}
	}
	m, ok := v.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return m
}

// Defaults registers the engine-level rc keys on a registry.
func Defaults(reg *registry.Registry) {
	reg.MustRegister(registry.Setting{
		Key:         "auto_draw",
		Default:     true,
		Validate:    registry.Bool,
		Description: "Redraw touched figures automatically after an update",
	})
	reg.MustRegister(registry.Setting{
		Key:         "auto_show",
		Default:     false,
		Validate:    registry.Bool,
		Description: "Flush the backend to the display after drawing",
	})
	reg.MustRegister(registry.Setting{
		Key:         "lists.auto_update",
		Default:     true,
		Validate:    registry.Bool,
		Description: "Start registered updates immediately",
	})
	reg.MustRegister(registry.Setting{
		Key:         UserKey,
		Default:     map[string]any{},
		Validate:    registry.Dict,
		Description: "User overrides for formatoption defaults, keyed by full rc key",
	})
}
