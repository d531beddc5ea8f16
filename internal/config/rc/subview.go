package rc

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dshills/plotstorm/internal/config/registry"
)

// SubView is a prefix-scoped view of a Params store.
//
// Reads try each prefix in order against the base store; the first
// existing prefixed key wins. Writes stay local to the view unless
// Trace is set, in which case they are written back into the base store
// at whichever prefixed key exists (inserting under the most specific
// prefix if none does).
type SubView struct {
	mu       sync.RWMutex
	base     *Params
	prefixes []string // most specific first
	local    map[string]any
	trace    bool
}

// Sub creates a sub-view over p with the given prefixes, most specific
// first. Duplicates are dropped, first occurrence wins.
func (p *Params) Sub(prefixes ...string) *SubView {
	seen := make(map[string]struct{}, len(prefixes))
	uniq := make([]string, 0, len(prefixes))
	for _, pre := range prefixes {
		if _, ok := seen[pre]; ok {
			continue
		}
		seen[pre] = struct{}{}
		uniq = append(uniq, pre)
	}
	return &SubView{base: p, prefixes: uniq, local: make(map[string]any)}
}

// Prefixes returns the view's prefixes, most specific first.
func (s *SubView) Prefixes() []string {
	out := make([]string, len(s.prefixes))
	copy(out, s.prefixes)
	return out
}

// SetTrace controls whether writes go to the base store.
func (s *SubView) SetTrace(trace bool) {
	s.mu.Lock()
	s.trace = trace
	s.mu.Unlock()
}

// Get returns the value for a short key. Local overrides win; otherwise
// the first prefix+key combination present in the base store is used.
// A key matching no combination is an error.
func (s *SubView) Get(key string) (any, error) {
	s.mu.RLock()
	if v, ok := s.local[key]; ok {
		s.mu.RUnlock()
		return v, nil
	}
	s.mu.RUnlock()
	full, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	return s.base.Get(full)
}

// Resolve returns the full base key the short key maps to.
func (s *SubView) Resolve(key string) (string, error) {
	return s.resolve(key)
}

func (s *SubView) resolve(key string) (string, error) {
	reg := s.base.Registry()
	for _, pre := range s.prefixes {
		if reg.Has(pre + key) {
			return reg.Resolve(pre + key), nil
		}
	}
	return "", fmt.Errorf("%w: %s (tried prefixes %s)",
		registry.ErrUnknownKey, key, strings.Join(s.prefixes, ", "))
}

// Set stores a value for a short key. Without trace the value stays in
// the view; with trace it is validated and written into the base store.
func (s *SubView) Set(key string, value any) error {
	s.mu.Lock()
	trace := s.trace
	if !trace {
		s.local[key] = value
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()
	full, err := s.resolve(key)
	if err != nil {
		// No prefixed key exists yet: insert under the most specific
		// prefix. The base store still rejects unregistered keys.
		if len(s.prefixes) == 0 {
			return err
		}
		full = s.prefixes[0] + key
	}
	return s.base.Set(full, value)
}

// ApplyOverrides merges a map of fully prefixed keys (such as the
// plotter.user layer) into the view's local values. The most specific
// matching prefix wins per short key.
func (s *SubView) ApplyOverrides(overrides map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	applied := make(map[string]int) // short key -> prefix index used
	for full, v := range overrides {
		for i, pre := range s.prefixes {
			if !strings.HasPrefix(full, pre) {
				continue
			}
			key := strings.TrimPrefix(full, pre)
			if prev, ok := applied[key]; ok && prev <= i {
				break
			}
			applied[key] = i
			s.local[key] = v
			break
		}
	}
}

// Keys returns every short key reachable through the view, sorted.
func (s *SubView) Keys() []string {
	reg := s.base.Registry()
	seen := make(map[string]struct{})
	s.mu.RLock()
	for k := range s.local {
		seen[k] = struct{}{}
	}
	s.mu.RUnlock()
	for _, full := range reg.Keys() {
		for _, pre := range s.prefixes {
			if strings.HasPrefix(full, pre) {
				seen[strings.TrimPrefix(full, pre)] = struct{}{}
				break
			}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Data returns a plain map of all reachable keys and their values.
func (s *SubView) Data() map[string]any {
	out := make(map[string]any)
	for _, k := range s.Keys() {
		if v, err := s.Get(k); err == nil {
			out[k] = v
		}
	}
	return out
}
