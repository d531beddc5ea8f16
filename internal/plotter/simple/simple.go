// Package simple provides the builtin line plotter: a plotter
// specification for one-dimensional arrays rendered as lines, point
// markers or bars on a cell grid, with labels, limits, colors and a
// legend as formatoptions.
package simple

import (
	"github.com/dshills/plotstorm/internal/config/registry"
	"github.com/dshills/plotstorm/internal/plotter"
)

// Name is the plotter name the plugin registry and project files use.
const Name = "simple"

// Formatoption groups of this plotter.
const (
	GroupData     = "data"
	GroupAxes     = "axes"
	GroupColors   = "colors"
	GroupPlotting = "plotting"
	GroupLabels   = "labels"
)

// Spec declares the line plotter. Rc defaults are read from
// "plotter.simple." first and "plotter.base." as a fallback.
func Spec() plotter.Spec {
	return plotter.Spec{
		Name:     Name,
		Prefixes: []string{"plotter.simple.", "plotter.base."},
		Formatoptions: []func() plotter.Formatoption{
			newMask,
			newTranspose,
			newXLim,
			newYLim,
			newColor,
			newCmap,
			newPlot,
			newTitle,
			newXLabel,
			newYLabel,
			newGrid,
			newLegend,
			newLegendLabels,
			plotter.NewPost,
			plotter.NewPostTiming,
		},
	}
}

// Defaults registers the line plotter's rc keys. Shared label keys
// live under "plotter.base." so other plotters inherit them.
func Defaults(reg *registry.Registry) {
	for _, s := range []registry.Setting{
		{Key: "plotter.base.title", Default: "", Validate: registry.Str, Group: GroupLabels,
			Description: "axes title; {attr} tokens expand from the data attributes"},
		{Key: "plotter.base.xlabel", Default: "", Validate: registry.Str, Group: GroupLabels},
		{Key: "plotter.base.ylabel", Default: "", Validate: registry.Str, Group: GroupLabels},
		{Key: "plotter.base.grid", Default: false, Validate: registry.Bool, Group: GroupAxes},
		{Key: "plotter.simple.plot", Default: "line", Validate: registry.Enum("line", "points", "bars", "none"), Group: GroupPlotting},
		{Key: "plotter.simple.color", Default: "blue", Validate: validateColor, Group: GroupColors},
		{Key: "plotter.simple.cmap", Default: "viridis", Validate: validateCmap, Group: GroupColors},
		{Key: "plotter.simple.xlim", Default: "auto", Validate: validateLimit, Group: GroupAxes},
		{Key: "plotter.simple.ylim", Default: "auto", Validate: validateLimit, Group: GroupAxes},
		{Key: "plotter.simple.legend", Default: true, Validate: registry.Bool, Group: GroupLabels},
		{Key: "plotter.simple.legendlabels", Default: "", Group: GroupLabels,
			Description: "comma separated labels, one per array; empty uses the array names"},
		{Key: "plotter.simple.mask", Default: nil, Validate: validateMask, Group: GroupData},
		{Key: "plotter.simple.transpose", Default: false, Validate: registry.Bool, Group: GroupData},
	} {
		reg.MustRegister(s)
	}
}
