// Package plugin manages plotter plugins: bundles of rc defaults and
// plotter specifications contributed at startup. The manager applies
// each plugin's defaults to the shared registry and exposes its
// plotters by name.
package plugin

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dshills/plotstorm/internal/config/registry"
	"github.com/dshills/plotstorm/internal/plotter"
)

// Plugin is one contribution unit: rc defaults plus named plotter
// specifications.
type Plugin struct {
	// Name identifies the plugin. Two plugins with the same name
	// conflict.
	Name string

	// Version is informational.
	Version string

	// Defaults are the rc keys the plugin registers.
	Defaults []registry.Setting

	// Plotters maps plotter names to their specifications.
	Plotters map[string]plotter.Spec
}

// Manager holds the loaded plugins and resolves plotter names.
type Manager struct {
	mu sync.RWMutex

	reg    *registry.Registry
	strict bool
	warn   func(msg string)

	plugins   map[string]*Plugin
	loadOrder []string
	plotters  map[string]plotter.Spec
	// owner tracks which plugin contributed each plotter name, for
	// conflict reporting.
	owner map[string]string
}

// ManagerOption configures a manager.
type ManagerOption func(*Manager)

// Strict makes any name or rc key conflict a load error. The default
// lenient mode warns and lets the later plugin win.
func Strict() ManagerOption {
	return func(m *Manager) { m.strict = true }
}

// WithWarningHandler receives conflict warnings in lenient mode.
func WithWarningHandler(fn func(msg string)) ManagerOption {
	return func(m *Manager) { m.warn = fn }
}

// NewManager creates a manager registering defaults into reg.
func NewManager(reg *registry.Registry, opts ...ManagerOption) *Manager {
	m := &Manager{
		reg:      reg,
		plugins:  make(map[string]*Plugin),
		plotters: make(map[string]plotter.Spec),
		owner:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load registers a plugin: its rc defaults into the registry and its
// plotters into the name table. In strict mode the first conflict
// aborts the load with nothing applied; in lenient mode conflicts are
// warnings and the later plugin wins.
func (m *Manager) Load(pl *Plugin) error {
	if pl.Name == "" {
		return fmt.Errorf("%w: empty plugin name", ErrInvalidPlugin)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.plugins[pl.Name]; exists {
		return fmt.Errorf("%w: %s", ErrPluginConflict, pl.Name)
	}
	if m.strict {
		if err := m.checkConflicts(pl); err != nil {
			return err
		}
	}

	for _, s := range pl.Defaults {
		if err := m.reg.Register(s); err != nil {
			// Strict mode already vetted the keys; surviving
			// conflicts here are lenient-mode overrides.
			m.warnf("plugin %s overrides rc key %s", pl.Name, s.Key)
			m.reg.Replace(s)
		}
	}
	for name, spec := range pl.Plotters {
		if prev, taken := m.owner[name]; taken {
			m.warnf("plugin %s overrides plotter %q from plugin %s", pl.Name, name, prev)
		}
		m.plotters[name] = spec
		m.owner[name] = pl.Name
	}
	m.plugins[pl.Name] = pl
	m.loadOrder = append(m.loadOrder, pl.Name)
	return nil
}

// checkConflicts vets a plugin against the current state without
// modifying anything.
func (m *Manager) checkConflicts(pl *Plugin) error {
	for _, s := range pl.Defaults {
		if m.reg.Get(s.Key) != nil {
			return fmt.Errorf("%w: rc key %s already registered", ErrKeyConflict, s.Key)
		}
	}
	for name := range pl.Plotters {
		if prev, taken := m.owner[name]; taken {
			return fmt.Errorf("%w: plotter %q already provided by plugin %s", ErrPluginConflict, name, prev)
		}
	}
	return nil
}

// Lookup resolves a plotter name to its specification.
func (m *Manager) Lookup(name string) (plotter.Spec, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	spec, ok := m.plotters[name]
	if !ok {
		return plotter.Spec{}, fmt.Errorf("%w: %s", ErrUnknownPlotter, name)
	}
	return spec, nil
}

// Plotters returns the available plotter names, sorted.
func (m *Manager) Plotters() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.plotters))
	for name := range m.plotters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Plugins returns the loaded plugin names in load order.
func (m *Manager) Plugins() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.loadOrder))
	copy(out, m.loadOrder)
	return out
}

func (m *Manager) warnf(format string, args ...any) {
	if m.warn != nil {
		m.warn(fmt.Sprintf(format, args...))
	}
}
