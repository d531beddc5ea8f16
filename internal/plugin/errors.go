package plugin

import "errors"

var (
	// ErrInvalidPlugin marks a plugin that cannot be loaded at all.
	ErrInvalidPlugin = errors.New("invalid plugin")

	// ErrPluginConflict marks a name collision between plugins.
	ErrPluginConflict = errors.New("plugin conflict")

	// ErrKeyConflict marks an rc key collision in strict mode.
	ErrKeyConflict = errors.New("rc key conflict")

	// ErrUnknownPlotter marks a plotter name no plugin provides.
	ErrUnknownPlotter = errors.New("unknown plotter")
)
