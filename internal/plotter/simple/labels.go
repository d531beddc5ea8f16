package simple

import (
	"fmt"
	"strings"

	"github.com/dshills/plotstorm/internal/data"
	"github.com/dshills/plotstorm/internal/plotter"
	"github.com/dshills/plotstorm/internal/render"
)

// labelFmto is the shared implementation of title, xlabel and ylabel:
// a string with {attr} tokens expanded from the data attributes,
// written into one axes field.
type labelFmto struct {
	*plotter.Base
	assign func(ax *render.Axes, s string)
}

func newLabel(key string, assign func(ax *render.Axes, s string)) func() plotter.Formatoption {
	return func() plotter.Formatoption {
		return &labelFmto{
			Base: plotter.NewBase(plotter.Def{
				Key:           key,
				Priority:      plotter.PriorityEnd,
				Group:         GroupLabels,
				DataDependent: true,
				Default:       "",
				Validate:      labelValidator,
			}),
			assign: assign,
		}
	}
}

var (
	newTitle  = newLabel("title", func(ax *render.Axes, s string) { ax.Title = s })
	newXLabel = newLabel("xlabel", func(ax *render.Axes, s string) { ax.XLabel = s })
	newYLabel = newLabel("ylabel", func(ax *render.Axes, s string) { ax.YLabel = s })
)

func labelValidator(value any) (any, error) {
	if value == nil {
		return "", nil
	}
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("label must be a string, got %T", value)
	}
	return s, nil
}

func (f *labelFmto) Update(value any) error {
	p := f.Plotter()
	if p == nil || p.Axes() == nil {
		return nil
	}
	s, _ := value.(string)
	f.assign(p.Axes(), expandAttrs(s, p.Data()))
	return nil
}

func (f *labelFmto) Remove() {
	if p := f.Plotter(); p != nil && p.Axes() != nil {
		f.assign(p.Axes(), "")
	}
}

// expandAttrs replaces {attr} tokens with the corresponding enhanced
// attribute of the first array. Unknown tokens are left alone.
func expandAttrs(s string, obj data.Object) string {
	if obj == nil || !strings.Contains(s, "{") {
		return s
	}
	arrays := obj.Arrays()
	if len(arrays) == 0 {
		return s
	}
	for key, v := range arrays[0].EnhancedAttrs() {
		s = strings.ReplaceAll(s, "{"+key+"}", fmt.Sprint(v))
	}
	return s
}

// gridFmto toggles the background grid dots.
type gridFmto struct{ *plotter.Base }

func newGrid() plotter.Formatoption {
	return &gridFmto{plotter.NewBase(plotter.Def{
		Key:      "grid",
		Priority: plotter.PriorityEnd,
		Group:    GroupAxes,
		Default:  false,
	})}
}

func (f *gridFmto) Update(value any) error {
	if p := f.Plotter(); p != nil && p.Axes() != nil {
		on, _ := value.(bool)
		p.Axes().Grid = on
	}
	return nil
}

// legendFmto shows or hides the legend. Its labels and colors come
// from the legendlabels child and the line colors.
type legendFmto struct{ *plotter.Base }

func newLegend() plotter.Formatoption {
	return &legendFmto{plotter.NewBase(plotter.Def{
		Key:           "legend",
		Priority:      plotter.PriorityEnd,
		Group:         GroupLabels,
		Children:      []string{"legendlabels"},
		DataDependent: true,
		Default:       true,
	})}
}

func (f *legendFmto) Update(value any) error {
	on, _ := value.(bool)
	return rebuildLegend(f.Plotter(), on)
}

func (f *legendFmto) Remove() {
	if p := f.Plotter(); p != nil && p.Axes() != nil {
		p.Axes().Legend = nil
	}
}

// legendLabelsFmto overrides the per-array labels. A batch containing
// the legend itself suppresses this one; updated alone it rebuilds the
// legend in place.
type legendLabelsFmto struct{ *plotter.Base }

func newLegendLabels() plotter.Formatoption {
	return &legendLabelsFmto{plotter.NewBase(plotter.Def{
		Key:      "legendlabels",
		Priority: plotter.PriorityEnd,
		Group:    GroupLabels,
		Parents:  []string{"legend"},
		Default:  "",
		Validate: labelValidator,
	})}
}

func (f *legendLabelsFmto) Update(value any) error {
	p := f.Plotter()
	if p == nil {
		return nil
	}
	on, _ := p.Value("legend")
	enabled, _ := on.(bool)
	return rebuildLegend(p, enabled)
}

func rebuildLegend(p *plotter.Plotter, on bool) error {
	if p == nil || p.Axes() == nil {
		return nil
	}
	ax := p.Axes()
	if !on || p.Data() == nil {
		ax.Legend = nil
		return nil
	}
	arrays := p.Data().Arrays()
	labels := legendLabels(p, arrays)
	entries := make([]render.LegendEntry, len(arrays))
	for i := range arrays {
		entries[i] = render.LegendEntry{
			Label: labels[i],
			Color: lineColor(p, i, len(arrays)),
		}
	}
	ax.Legend = entries
	return nil
}

// legendLabels resolves one label per array: the comma separated
// legendlabels value when set, the array names otherwise.
func legendLabels(p *plotter.Plotter, arrays []*data.Array) []string {
	out := make([]string, len(arrays))
	for i, a := range arrays {
		out[i] = a.Name
	}
	raw, err := p.Value("legendlabels")
	if err != nil {
		return out
	}
	s, _ := raw.(string)
	if s == "" {
		return out
	}
	for i, label := range strings.Split(s, ",") {
		if i >= len(out) {
			break
		}
		out[i] = strings.TrimSpace(label)
	}
	return out
}
