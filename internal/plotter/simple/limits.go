package simple

import (
	"math"

	"github.com/dshills/plotstorm/internal/plotter"
)

// limitFmto resolves an axis range from its value: explicit pairs pass
// through, "auto" and "minmax" derive the range from the data. The
// resolved range is recomputed on every update since the formatoption
// is data dependent.
type limitFmto struct {
	*plotter.Base
	along    axis
	resolved [2]float64
	valid    bool
}

type axis int

const (
	axisX axis = iota
	axisY
)

func newXLim() plotter.Formatoption {
	return newLimit("xlim", axisX)
}

func newYLim() plotter.Formatoption {
	return newLimit("ylim", axisY)
}

func newLimit(key string, along axis) plotter.Formatoption {
	return &limitFmto{
		Base: plotter.NewBase(plotter.Def{
			Key:           key,
			Priority:      plotter.PriorityBeforePlot,
			Group:         GroupAxes,
			Children:      []string{"transpose", "mask"},
			DataDependent: true,
			Default:       "auto",
			Validate:      validateLimit,
		}),
		along: along,
	}
}

func (f *limitFmto) Update(value any) error {
	f.resolved, f.valid = f.resolve(value)
	return nil
}

// Range returns the resolved [lo, hi] range.
func (f *limitFmto) Range() ([2]float64, bool) {
	if !f.valid {
		// Reads before the first update cycle resolve lazily.
		f.resolved, f.valid = f.resolve(f.Value())
	}
	return f.resolved, f.valid
}

func (f *limitFmto) resolve(value any) ([2]float64, bool) {
	if pair, ok := value.([]float64); ok && len(pair) == 2 {
		return [2]float64{pair[0], pair[1]}, true
	}
	p := f.Plotter()
	if p == nil || p.Data() == nil {
		return [2]float64{}, false
	}
	mask := maskOf(p)
	// With transpose on, the x axis shows the values and the y axis the
	// coordinate, so the auto range comes from the other source.
	along := f.along
	if transposeOf(p) {
		if along == axisX {
			along = axisY
		} else {
			along = axisX
		}
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, a := range p.Data().Arrays() {
		xs := xValues(p, a)
		for i, y := range a.Values {
			if mask != nil && mask.masked(y) {
				continue
			}
			v := y
			if along == axisX {
				v = xs[i]
			}
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	if lo > hi {
		return [2]float64{}, false
	}
	if lo == hi {
		// A flat series still needs a non-degenerate range.
		lo, hi = lo-0.5, hi+0.5
	}
	return [2]float64{lo, hi}, true
}

func limitOf(p *plotter.Plotter, key string) ([2]float64, bool) {
	fo, err := p.Fmto(key)
	if err != nil {
		return [2]float64{}, false
	}
	lim, ok := fo.(*limitFmto)
	if !ok {
		return [2]float64{}, false
	}
	return lim.Range()
}
