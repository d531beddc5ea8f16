// Package registry provides the defaults table for plotstorm configuration.
//
// The registry maintains definitions of all known rc keys with their default
// values, validators, and metadata. Plotters read it (through a prefix-scoped
// sub-view) to find the default value for each of their formatoptions, and
// plugins contribute additional keys at load time.
package registry

import (
	"fmt"
	"math"
	"strings"
)

// Validator checks (and possibly coerces) a proposed value for a setting.
// It returns the value that should actually be stored.
type Validator func(value any) (any, error)

// Setting defines a single rc key with its metadata.
type Setting struct {
	// Key is the dot-separated rc key (e.g. "plotter.simple.title").
	Key string

	// Default is the default value.
	Default any

	// Validate checks proposed values. If nil, any value is accepted.
	Validate Validator

	// Description is human-readable documentation.
	Description string

	// Group names the formatoption group this key belongs to.
	Group string

	// Deprecated marks keys that should be migrated.
	Deprecated bool

	// ReplacedBy names the key that supersedes a deprecated one.
	// Lookups of the deprecated key resolve to this key.
	ReplacedBy string

	// Tags for filtering/grouping settings.
	Tags []string
}

// Check validates a value against the setting's validator.
func (s *Setting) Check(value any) (any, error) {
	if s.Validate == nil {
		return value, nil
	}
	v, err := s.Validate(value)
	if err != nil {
		return nil, fmt.Errorf("key %s: %w", s.Key, err)
	}
	return v, nil
}

// Identity is a validator that accepts any value unchanged.
func Identity(value any) (any, error) {
	return value, nil
}

// Str validates a string value.
func Str(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("expected string, got %T", value)
	}
	return s, nil
}

// StrOrNil validates a string value or nil.
func StrOrNil(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	return Str(value)
}

// Bool validates a boolean value.
func Bool(value any) (any, error) {
	b, ok := value.(bool)
	if !ok {
		return nil, fmt.Errorf("expected bool, got %T", value)
	}
	return b, nil
}

// Int validates an integer value, coercing the common integer widths.
func Int(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		if v == math.Trunc(v) {
			return int(v), nil
		}
		return nil, fmt.Errorf("expected integer, got %v", v)
	default:
		return nil, fmt.Errorf("expected integer, got %T", value)
	}
}

// Float validates a floating point value, coercing integers.
func Float(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return nil, fmt.Errorf("expected number, got %T", value)
	}
}

// FloatOrNil validates a float value or nil.
func FloatOrNil(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	return Float(value)
}

// Enum returns a validator accepting one of the given string choices.
func Enum(choices ...string) Validator {
	return func(value any) (any, error) {
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", value)
		}
		for _, c := range choices {
			if s == c {
				return s, nil
			}
		}
		return nil, fmt.Errorf("value %q must be one of [%s]", s, strings.Join(choices, ", "))
	}
}

// Dict validates a string-keyed map value. nil is treated as an empty map.
func Dict(value any) (any, error) {
	if value == nil {
		return map[string]any{}, nil
	}
	m, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected map, got %T", value)
	}
	return m, nil
}

// FloatPair validates a [min, max] pair of floats or the string "auto".
func FloatPair(value any) (any, error) {
	if s, ok := value.(string); ok {
		if s == "auto" {
			return s, nil
		}
		return nil, fmt.Errorf("expected [min, max] or \"auto\", got %q", s)
	}
	pair, err := floatSlice(value)
	if err != nil {
		return nil, err
	}
	if len(pair) != 2 {
		return nil, fmt.Errorf("expected exactly 2 values, got %d", len(pair))
	}
	return pair, nil
}

func floatSlice(value any) ([]float64, error) {
	switch v := value.(type) {
	case []float64:
		return v, nil
	case []any:
		out := make([]float64, len(v))
		for i, e := range v {
			f, err := Float(e)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = f.(float64)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected list of numbers, got %T", value)
	}
}
