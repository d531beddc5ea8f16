package simple

import (
	"fmt"

	"github.com/dshills/plotstorm/internal/render"
)

// validateLimit accepts "auto", "minmax" or an explicit [lo, hi] pair.
func validateLimit(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return "auto", nil
	case string:
		if v == "auto" || v == "minmax" {
			return v, nil
		}
		return nil, fmt.Errorf("limit must be \"auto\", \"minmax\" or a [lo, hi] pair, got %q", v)
	default:
		pair, err := asPair(value)
		if err != nil {
			return nil, err
		}
		if pair[0] > pair[1] {
			pair[0], pair[1] = pair[1], pair[0]
		}
		return pair, nil
	}
}

// validateMask accepts nil (no mask) or a [lo, hi] pair of valid data
// values.
func validateMask(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	pair, err := asPair(value)
	if err != nil {
		return nil, err
	}
	if pair[0] > pair[1] {
		pair[0], pair[1] = pair[1], pair[0]
	}
	return pair, nil
}

func asPair(value any) ([]float64, error) {
	toFloat := func(v any) (float64, bool) {
		switch x := v.(type) {
		case float64:
			return x, true
		case float32:
			return float64(x), true
		case int:
			return float64(x), true
		case int64:
			return float64(x), true
		}
		return 0, false
	}
	var raw []any
	switch v := value.(type) {
	case []float64:
		if len(v) != 2 {
			return nil, fmt.Errorf("expected a [lo, hi] pair, got %d values", len(v))
		}
		return []float64{v[0], v[1]}, nil
	case [2]float64:
		return []float64{v[0], v[1]}, nil
	case []any:
		raw = v
	default:
		return nil, fmt.Errorf("expected a [lo, hi] pair, got %T", value)
	}
	if len(raw) != 2 {
		return nil, fmt.Errorf("expected a [lo, hi] pair, got %d values", len(raw))
	}
	out := make([]float64, 2)
	for i, v := range raw {
		f, ok := toFloat(v)
		if !ok {
			return nil, fmt.Errorf("limit bound %v is not a number", v)
		}
		out[i] = f
	}
	return out, nil
}

// validateColor accepts named colors and hex strings.
func validateColor(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("color must be a string, got %T", value)
	}
	if !render.IsColor(s) {
		return nil, fmt.Errorf("unknown color %q", s)
	}
	return s, nil
}

// validateCmap accepts registered colormap names.
func validateCmap(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("colormap must be a string, got %T", value)
	}
	if !render.IsColormap(s) {
		return nil, fmt.Errorf("unknown colormap %q; available: %v", s, render.ColormapNames())
	}
	return s, nil
}
