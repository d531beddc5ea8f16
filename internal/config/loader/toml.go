// Package loader reads user configuration files and applies them to a
// parameter store. Files are TOML; nested tables map onto the dotted
// key namespace of the registry, so
//
//	[plotter.simple]
//	color = "red"
//
// sets the key "plotter.simple.color".
package loader

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/plotstorm/internal/config/rc"
)

// TOMLLoader loads parameter overrides from TOML files.
type TOMLLoader struct {
	path string
}

// NewTOMLLoader creates a loader for the given path.
func NewTOMLLoader(path string) *TOMLLoader {
	return &TOMLLoader{path: path}
}

// Path returns the configured file path.
func (l *TOMLLoader) Path() string { return l.path }

// Load reads the configured path and returns the flattened key/value
// map. A missing file is not an error; nil is returned instead.
func (l *TOMLLoader) Load() (map[string]any, error) {
	return l.LoadFrom(l.path)
}

// LoadFrom reads and flattens a specific path.
func (l *TOMLLoader) LoadFrom(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return l.parse(path, data)
}

// LoadFromReader reads and flattens configuration from an io.Reader.
func (l *TOMLLoader) LoadFromReader(r io.Reader) (map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return l.parse("<reader>", data)
}

func (l *TOMLLoader) parse(source string, data []byte) (map[string]any, error) {
	var tree map[string]any
	if err := toml.Unmarshal(data, &tree); err != nil {
		return nil, &ParseError{Path: source, Message: err.Error(), Err: err}
	}
	flat := make(map[string]any)
	flatten("", tree, flat)
	return flat, nil
}

// flatten converts nested tables into dotted keys. Leaf maps whose
// values are not tables stay as map values so Dict-typed settings keep
// working, but only when the registry could not address the nested
// keys anyway; the simple rule here is: a map flattens, everything
// else is a leaf.
func flatten(prefix string, tree map[string]any, out map[string]any) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			flatten(key, sub, out)
			continue
		}
		out[key] = v
	}
}

// Apply writes the flattened values into the parameter store. Every
// key is validated individually; errors are collected so one bad entry
// does not block the rest of the file. The returned slice lists the
// keys that were applied, sorted for deterministic reporting.
func Apply(params *rc.Params, values map[string]any) ([]string, []error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	applied := make([]string, 0, len(keys))
	var errs []error
	for _, k := range keys {
		if err := params.Set(k, values[k]); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", k, err))
			continue
		}
		applied = append(applied, k)
	}
	return applied, errs
}

// LoadInto loads the configured file and applies it to params in one
// step.
func (l *TOMLLoader) LoadInto(params *rc.Params) ([]string, []error) {
	values, err := l.Load()
	if err != nil {
		return nil, []error{err}
	}
	if values == nil {
		return nil, nil
	}
	return Apply(params, values)
}

// ParseError reports a malformed configuration file.
type ParseError struct {
	Path    string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error { return e.Err }
