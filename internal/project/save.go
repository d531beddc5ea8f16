package project

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/plotstorm/internal/config/rc"
	"github.com/dshills/plotstorm/internal/data"
	"github.com/dshills/plotstorm/internal/plotter"
	"github.com/dshills/plotstorm/internal/plugin"
	"github.com/dshills/plotstorm/internal/render"
)

// Save serializes the project: per plot the plotter name, its stable
// identity, the data name, the full key→value state and which keys are
// shared from which sibling. Sharing links whose source is outside the
// project are dropped.
func (pr *Project) Save() ([]byte, error) {
	members := pr.Plots()
	inProject := make(map[*plotter.Plotter]bool, len(members))
	for _, pl := range members {
		inProject[pl.Plotter] = true
	}

	out := []byte(`{}`)
	var err error
	if out, err = sjson.SetBytes(out, "name", pr.name); err != nil {
		return nil, err
	}
	for i, pl := range members {
		base := fmt.Sprintf("plots.%d", i)
		p := pl.Plotter
		if out, err = sjson.SetBytes(out, base+".name", pl.Name); err != nil {
			return nil, err
		}
		if out, err = sjson.SetBytes(out, base+".plotter", p.SpecName()); err != nil {
			return nil, err
		}
		if out, err = sjson.SetBytes(out, base+".id", p.ID().String()); err != nil {
			return nil, err
		}
		if out, err = sjson.SetBytes(out, base+".data", dataName(pl.Data)); err != nil {
			return nil, err
		}
		if out, err = sjson.SetBytes(out, base+".values", p.State()); err != nil {
			return nil, err
		}
		for key, src := range p.SharedKeys() {
			if !inProject[src] {
				continue
			}
			if out, err = sjson.SetBytes(out, base+".shared."+key, src.ID().String()); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func dataName(obj data.Object) string {
	switch d := obj.(type) {
	case *data.Array:
		return d.Name
	case *data.List:
		return d.Name
	}
	return ""
}

// LoadConfig provides the collaborators a saved project needs to come
// back to life: plotter specs, rc parameters, data by name and a
// rendering target per plot.
type LoadConfig struct {
	Manager *plugin.Manager
	Params  *rc.Params

	// ResolveData turns a saved data name back into a data object.
	ResolveData func(name string) (data.Object, error)

	// NewTarget creates the figure and axes a restored plot draws to.
	// Nil restores plotters without a rendering target.
	NewTarget func(plotName string) (*render.Figure, *render.Axes)
}

// Load reconstructs a project: each plotter is built through the
// normal constructor, its saved values are replayed as one forced
// update, and sharing links are re-wired by saved identity.
func Load(raw []byte, cfg LoadConfig) (*Project, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: invalid json", ErrBadProjectFile)
	}
	doc := gjson.ParseBytes(raw)
	pr := New(doc.Get("name").String())

	byID := make(map[string]*plotter.Plotter)
	type pendingShare struct {
		sourceID string
		key      string
		target   *plotter.Plotter
	}
	var shares []pendingShare

	for _, entry := range doc.Get("plots").Array() {
		name := entry.Get("name").String()
		specName := entry.Get("plotter").String()
		spec, err := cfg.Manager.Lookup(specName)
		if err != nil {
			return nil, fmt.Errorf("plot %s: %w", name, err)
		}

		var opts []plotter.Option
		if resolve := cfg.ResolveData; resolve != nil {
			if dn := entry.Get("data").String(); dn != "" {
				obj, err := resolve(dn)
				if err != nil {
					return nil, fmt.Errorf("plot %s: %w", name, err)
				}
				opts = append(opts, plotter.WithData(obj))
				opts = append(opts, plotter.WithDecoder(data.CFDecoder{}))
			}
		}
		if cfg.NewTarget != nil {
			fig, ax := cfg.NewTarget(name)
			opts = append(opts, plotter.WithAxes(fig, ax))
		}

		p, err := plotter.New(spec, cfg.Params, nil, opts...)
		if err != nil {
			return nil, fmt.Errorf("plot %s: %w", name, err)
		}
		values := make(map[string]any)
		entry.Get("values").ForEach(func(k, v gjson.Result) bool {
			values[k.String()] = v.Value()
			return true
		})
		if len(values) > 0 {
			if _, err := p.Update(values, plotter.WithForceAll(), plotter.WithDraw(false)); err != nil {
				return nil, fmt.Errorf("plot %s: replay: %w", name, err)
			}
		}

		if id := entry.Get("id").String(); id != "" {
			byID[id] = p
		}
		entry.Get("shared").ForEach(func(k, v gjson.Result) bool {
			shares = append(shares, pendingShare{sourceID: v.String(), key: k.String(), target: p})
			return true
		})

		obj := p.Data()
		if _, err := pr.Add(name, obj, p); err != nil {
			return nil, err
		}
	}

	// Sharing is re-wired after every plotter exists, since a link may
	// point forward in the file.
	for _, s := range shares {
		src, ok := byID[s.sourceID]
		if !ok {
			return nil, fmt.Errorf("%w: shared source %s not in file", ErrBadProjectFile, s.sourceID)
		}
		if err := src.Share(s.target, s.key); err != nil {
			return nil, err
		}
	}
	return pr, nil
}
