package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrAlreadyRegistered is returned when registering a duplicate key.
var ErrAlreadyRegistered = errors.New("setting already registered")

// ErrUnknownKey is returned when a key is not in the defaults table.
var ErrUnknownKey = errors.New("unknown rc key")

// Registry maintains all known setting definitions. Values live elsewhere
// (see the rc package); the registry only holds defaults and validators.
//
// Plugin loading mutates the registry; this is expected to happen at
// start-up, before plotters are constructed.
type Registry struct {
	mu       sync.RWMutex
	settings map[string]*Setting
	groups   map[string][]*Setting
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		settings: make(map[string]*Setting),
		groups:   make(map[string][]*Setting),
	}
}

// Register adds a setting definition to the registry.
// Returns ErrAlreadyRegistered if the key already exists.
func (r *Registry) Register(setting Setting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.register(setting)
}

func (r *Registry) register(setting Setting) error {
	if _, exists := r.settings[setting.Key]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, setting.Key)
	}
	s := &setting
	r.settings[setting.Key] = s
	if s.Group != "" {
		r.groups[s.Group] = append(r.groups[s.Group], s)
	}
	return nil
}

// Replace registers a setting, overwriting any existing definition.
// Used by lenient plugin loading where the later plugin wins.
func (r *Registry) Replace(setting Setting) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.settings[setting.Key]; ok && old.Group != "" {
		group := r.groups[old.Group]
		for i, s := range group {
			if s.Key == setting.Key {
				r.groups[old.Group] = append(group[:i], group[i+1:]...)
				break
			}
		}
	}
	delete(r.settings, setting.Key)
	_ = r.register(setting)
}

// MustRegister registers a setting and panics on error.
// Useful for registering built-in settings at init time.
func (r *Registry) MustRegister(setting Setting) {
	if err := r.Register(setting); err != nil {
		panic(err)
	}
}

// Get returns the setting definition for a key, following deprecation
// aliases. Returns nil if the key is not registered.
func (r *Registry) Get(key string) *Setting {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.settings[key]
	for s != nil && s.Deprecated && s.ReplacedBy != "" {
		s = r.settings[s.ReplacedBy]
	}
	return s
}

// Resolve returns the canonical key for a possibly deprecated key.
// Unknown keys are returned unchanged.
func (r *Registry) Resolve(key string) string {
	if s := r.Get(key); s != nil {
		return s.Key
	}
	return key
}

// Has checks if a key is registered (directly, not via alias).
func (r *Registry) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.settings[key]
	return ok
}

// Keys returns all registered keys sorted.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.settings))
	for k := range r.settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Group returns all settings in the given formatoption group.
func (r *Registry) Group(name string) []*Setting {
	r.mu.RLock()
	defer r.mu.RUnlock()
	group := r.groups[name]
	out := make([]*Setting, len(group))
	copy(out, group)
	return out
}

// Default returns the default value for a key.
// The second return is false if the key is unknown.
func (r *Registry) Default(key string) (any, bool) {
	s := r.Get(key)
	if s == nil {
		return nil, false
	}
	return s.Default, true
}

// Check validates a value for a key. A key is accepted only if it is
// present in the defaults table.
func (r *Registry) Check(key string, value any) (any, error) {
	s := r.Get(key)
	if s == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return s.Check(value)
}

// Search finds settings whose key, description, or tags contain the query.
func (r *Registry) Search(query string) []*Setting {
	r.mu.RLock()
	defer r.mu.RUnlock()
	query = strings.ToLower(query)
	var out []*Setting
	for _, s := range r.settings {
		if matchesSetting(s, query) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func matchesSetting(s *Setting, query string) bool {
	if strings.Contains(strings.ToLower(s.Key), query) {
		return true
	}
	if strings.Contains(strings.ToLower(s.Description), query) {
		return true
	}
	for _, tag := range s.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}
