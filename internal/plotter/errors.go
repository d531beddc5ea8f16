package plotter

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDisabled is returned when initializing a disabled plotter.
	// Updates on a disabled plotter are a silent no-op instead.
	ErrDisabled = errors.New("plotter: disabled")

	// ErrNotShared is returned when unsharing a key that is not
	// currently shared.
	ErrNotShared = errors.New("plotter: key not shared")

	// ErrNoData is returned when an operation needs a data object and
	// the plotter has none.
	ErrNoData = errors.New("plotter: no data")
)

// UnknownKeyError reports a formatoption key the plotter does not
// declare, with close matches for the message.
type UnknownKeyError struct {
	Key     string
	Plotter string
	Similar []string
}

func (e *UnknownKeyError) Error() string {
	msg := fmt.Sprintf("unknown formatoption %q for plotter %s", e.Key, e.Plotter)
	if len(e.Similar) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(e.Similar, ", "))
	}
	return msg
}

// ValidationError reports a rejected formatoption value.
type ValidationError struct {
	Key   string
	Value any
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value %v for formatoption %q: %v", e.Value, e.Key, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }
