package plugin

import (
	"github.com/dshills/plotstorm/internal/config/registry"
	"github.com/dshills/plotstorm/internal/plotter"
	"github.com/dshills/plotstorm/internal/plotter/simple"
)

// Builtin returns the plugin bundling the shipped plotters.
func Builtin() *Plugin {
	defaults := registry.New()
	simple.Defaults(defaults)
	var settings []registry.Setting
	for _, key := range defaults.Keys() {
		settings = append(settings, *defaults.Get(key))
	}
	return &Plugin{
		Name:     "builtin",
		Defaults: settings,
		Plotters: map[string]plotter.Spec{
			simple.Name: simple.Spec(),
		},
	}
}
