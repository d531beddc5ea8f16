package simple

import (
	"math"

	"github.com/dshills/plotstorm/internal/data"
	"github.com/dshills/plotstorm/internal/plotter"
)

// maskFmto hides data points outside a [lo, hi] range. It runs in the
// start band so the plot step and the limits see the masked view.
type maskFmto struct{ *plotter.Base }

func newMask() plotter.Formatoption {
	return &maskFmto{plotter.NewBase(plotter.Def{
		Key:           "mask",
		Priority:      plotter.PriorityStart,
		Group:         GroupData,
		DataDependent: true,
		Default:       nil,
		Validate:      validateMask,
	})}
}

// rang returns the active mask range, or false when unmasked.
func (f *maskFmto) rang() ([2]float64, bool) {
	pair, ok := f.Value().([]float64)
	if !ok || len(pair) != 2 {
		return [2]float64{}, false
	}
	return [2]float64{pair[0], pair[1]}, true
}

// masked reports whether a value is hidden by the mask.
func (f *maskFmto) masked(v float64) bool {
	if math.IsNaN(v) {
		return true
	}
	r, ok := f.rang()
	if !ok {
		return false
	}
	return v < r[0] || v > r[1]
}

// transposeFmto swaps the x and y mapping of the drawing.
type transposeFmto struct{ *plotter.Base }

func newTranspose() plotter.Formatoption {
	return &transposeFmto{plotter.NewBase(plotter.Def{
		Key:           "transpose",
		Priority:      plotter.PriorityStart,
		Group:         GroupData,
		DataDependent: true,
		Default:       false,
	})}
}

func (f *transposeFmto) enabled() bool {
	v, _ := f.Value().(bool)
	return v
}

// xValues returns an array's x axis values: the decoder's x coordinate
// when one exists, the point index otherwise.
func xValues(p *plotter.Plotter, a *data.Array) []float64 {
	if dec := p.Decoder(); dec != nil {
		if c := dec.GetX(a); c != nil && len(c.Values) == len(a.Values) {
			return c.Values
		}
	}
	out := make([]float64, len(a.Values))
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

// siblings fetches typed formatoption handles on the same plotter.

func maskOf(p *plotter.Plotter) *maskFmto {
	if fo, err := p.Fmto("mask"); err == nil {
		if m, ok := fo.(*maskFmto); ok {
			return m
		}
	}
	return nil
}

func transposeOf(p *plotter.Plotter) bool {
	if fo, err := p.Fmto("transpose"); err == nil {
		if tr, ok := fo.(*transposeFmto); ok {
			return tr.enabled()
		}
	}
	return false
}
