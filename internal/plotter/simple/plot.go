package simple

import (
	"math"

	"github.com/dshills/plotstorm/internal/config/registry"
	"github.com/dshills/plotstorm/internal/plotter"
	"github.com/dshills/plotstorm/internal/render"
)

// colorFmto sets the line color used when a single array is drawn.
type colorFmto struct{ *plotter.Base }

func newColor() plotter.Formatoption {
	return &colorFmto{plotter.NewBase(plotter.Def{
		Key:      "color",
		Priority: plotter.PriorityBeforePlot,
		Group:    GroupColors,
		Default:  "blue",
		Validate: validateColor,
	})}
}

// cmapFmto sets the colormap that spreads colors over multiple arrays.
type cmapFmto struct{ *plotter.Base }

func newCmap() plotter.Formatoption {
	return &cmapFmto{plotter.NewBase(plotter.Def{
		Key:      "cmap",
		Priority: plotter.PriorityBeforePlot,
		Group:    GroupColors,
		Default:  "viridis",
		Validate: validateCmap,
	})}
}

// lineColor picks the color of array i of n: the color formatoption
// for a single array, colormap samples otherwise.
func lineColor(p *plotter.Plotter, i, n int) render.Color {
	if n <= 1 {
		if v, err := p.Value("color"); err == nil {
			if s, ok := v.(string); ok {
				if c, ok := render.ParseColor(s); ok {
					return c
				}
			}
		}
		return render.White
	}
	name := "viridis"
	if v, err := p.Value("cmap"); err == nil {
		if s, ok := v.(string); ok {
			name = s
		}
	}
	cm, err := render.GetColormap(name)
	if err != nil {
		return render.White
	}
	return cm.At(float64(i) / float64(n-1))
}

// plotFmto draws the arrays. Changing any of its dependencies redraws.
type plotFmto struct{ *plotter.Base }

func newPlot() plotter.Formatoption {
	return &plotFmto{plotter.NewBase(plotter.Def{
		Key:          "plot",
		Priority:     plotter.PriorityBeforePlot,
		Group:        GroupPlotting,
		PlotFmt:      true,
		Children:     []string{"color", "cmap"},
		Dependencies: []string{"xlim", "ylim", "mask", "transpose"},
		Default:      "line",
		Validate:     registry.Enum("line", "points", "bars", "none"),
	})}
}

func (f *plotFmto) kind() string {
	s, _ := f.Value().(string)
	if s == "" {
		return "line"
	}
	return s
}

// MakePlot rasterizes every array of the plotter's data onto the axes
// cell grid.
func (f *plotFmto) MakePlot() error {
	p := f.Plotter()
	ax := p.Axes()
	if ax == nil || p.Data() == nil {
		return nil
	}
	ax.ClearCells()
	if f.kind() == "none" {
		return nil
	}

	arrays := p.Data().Arrays()
	xr, xok := limitOf(p, "xlim")
	yr, yok := limitOf(p, "ylim")
	if !xok || !yok {
		return nil
	}
	mask := maskOf(p)
	transposed := transposeOf(p)

	for i, a := range arrays {
		color := lineColor(p, i, len(arrays))
		f.drawArray(ax, xValues(p, a), a.Values, xr, yr, mask, transposed, color)
	}
	return nil
}

// Remove wipes the drawing before a clearing reinitialization.
func (f *plotFmto) Remove() {
	if p := f.Plotter(); p != nil && p.Axes() != nil {
		p.Axes().ClearCells()
	}
}

func (f *plotFmto) drawArray(ax *render.Axes, xs, ys []float64, xr, yr [2]float64, mask *maskFmto, transposed bool, color render.Color) {
	w, h := ax.PlotWidth(), ax.PlotHeight()
	if w == 0 || h == 0 {
		return
	}
	marker := '•'
	if f.kind() == "bars" {
		marker = '█'
	}

	prevCol, prevRow := -1, -1
	for i := range ys {
		if i >= len(xs) {
			break
		}
		if mask != nil && mask.masked(ys[i]) {
			prevCol, prevRow = -1, -1
			continue
		}
		xv, yv := xs[i], ys[i]
		if transposed {
			xv, yv = yv, xv
		}
		col := scale(xv, xr, w)
		row := h - 1 - scale(yv, yr, h)
		if col < 0 || row < 0 {
			prevCol, prevRow = -1, -1
			continue
		}
		cell := render.Cell{Ch: marker, Color: color}
		switch f.kind() {
		case "bars":
			for y := row; y < h; y++ {
				ax.SetCell(col, y, cell)
			}
		case "line":
			ax.SetCell(col, row, cell)
			if prevCol >= 0 {
				connect(ax, prevCol, prevRow, col, row, cell)
			}
		default: // points
			ax.SetCell(col, row, cell)
		}
		prevCol, prevRow = col, row
	}
}

// scale maps a value of [lo, hi] onto [0, n). Out-of-range values map
// to -1.
func scale(v float64, r [2]float64, n int) int {
	if r[1] <= r[0] || v < r[0] || v > r[1] {
		return -1
	}
	idx := int(math.Round((v - r[0]) / (r[1] - r[0]) * float64(n-1)))
	if idx < 0 || idx >= n {
		return -1
	}
	return idx
}

// connect fills the gap between two adjacent samples with a vertical
// run at the midpoint column, which is enough for a readable line on a
// cell grid.
func connect(ax *render.Axes, x0, y0, x1, y1 int, cell render.Cell) {
	if x1 < x0 {
		x0, y0, x1, y1 = x1, y1, x0, y0
	}
	dx := x1 - x0
	for x := x0 + 1; x < x1; x++ {
		t := float64(x-x0) / float64(dx)
		y := int(math.Round(float64(y0) + t*float64(y1-y0)))
		ax.SetCell(x, y, cell)
	}
	if x0 == x1 && y0 != y1 {
		step := 1
		if y1 < y0 {
			step = -1
		}
		for y := y0 + step; y != y1; y += step {
			ax.SetCell(x0, y, cell)
		}
	}
}
