// Package project groups plots into a named collection with bulk
// updates: a parallel data-gather phase (one goroutine per member)
// followed by a sequential plot phase, since the rendering surface is
// not safe for concurrent mutation. Subprojects are filtered views
// sharing the underlying plots.
package project

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dshills/plotstorm/internal/data"
	"github.com/dshills/plotstorm/internal/plotter"
	"github.com/dshills/plotstorm/internal/render"
)

// Plot is one project member: a named data object drawn by a plotter.
type Plot struct {
	Name    string
	Data    data.Object
	Plotter *plotter.Plotter
}

// Project is an ordered collection of uniquely named plots.
type Project struct {
	mu sync.Mutex

	name  string
	plots []*Plot
}

// New creates an empty project.
func New(name string) *Project {
	return &Project{name: name}
}

// Name returns the project name.
func (pr *Project) Name() string { return pr.name }

// Add appends a plot. The name must be unique within the project.
func (pr *Project) Add(name string, obj data.Object, p *plotter.Plotter) (*Plot, error) {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	if pr.find(name) != nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	pl := &Plot{Name: name, Data: obj, Plotter: p}
	pr.plots = append(pr.plots, pl)
	return pl, nil
}

// Remove drops a plot by name and disables its plotter.
func (pr *Project) Remove(name string) error {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	for i, pl := range pr.plots {
		if pl.Name == name {
			pr.plots = append(pr.plots[:i], pr.plots[i+1:]...)
			if pl.Plotter != nil {
				pl.Plotter.Disable()
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownPlot, name)
}

// Rename changes a plot's name. Subprojects observe the change since
// they share the plot.
func (pr *Project) Rename(old, name string) error {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	pl := pr.find(old)
	if pl == nil {
		return fmt.Errorf("%w: %s", ErrUnknownPlot, old)
	}
	if old != name && pr.find(name) != nil {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	pl.Name = name
	return nil
}

// Get returns a plot by name.
func (pr *Project) Get(name string) (*Plot, error) {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	if pl := pr.find(name); pl != nil {
		return pl, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownPlot, name)
}

func (pr *Project) find(name string) *Plot {
	for _, pl := range pr.plots {
		if pl.Name == name {
			return pl
		}
	}
	return nil
}

// Len returns the member count.
func (pr *Project) Len() int {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	return len(pr.plots)
}

// Plots returns the members in insertion order.
func (pr *Project) Plots() []*Plot {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	out := make([]*Plot, len(pr.plots))
	copy(out, pr.plots)
	return out
}

// Names returns the member names in insertion order.
func (pr *Project) Names() []string {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	out := make([]string, len(pr.plots))
	for i, pl := range pr.plots {
		out[i] = pl.Name
	}
	return out
}

// Filter returns a subproject view of the members matching pred. The
// view shares the plots; updates through either affect the same
// plotters.
func (pr *Project) Filter(pred func(*Plot) bool) *Project {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	sub := &Project{name: pr.name}
	for _, pl := range pr.plots {
		if pred(pl) {
			sub.plots = append(sub.plots, pl)
		}
	}
	return sub
}

// WithAttr filters members whose data carries attr == value.
func (pr *Project) WithAttr(attr string, value any) *Project {
	return pr.Filter(func(pl *Plot) bool {
		if pl.Data == nil {
			return false
		}
		for _, a := range pl.Data.Arrays() {
			if v, ok := a.EnhancedAttrs()[attr]; ok && v == value {
				return true
			}
		}
		return false
	})
}

// Update registers values on every member and runs the two-phase bulk
// cycle. Keys a member does not declare are skipped for that member;
// other errors are collected per member and joined.
func (pr *Project) Update(values map[string]any, opts ...plotter.UpdateOption) error {
	members := pr.Plots()
	for _, pl := range members {
		memberValues := make(map[string]any, len(values))
		for key, v := range values {
			if pl.Plotter.CheckKey(key) == nil {
				memberValues[key] = v
			}
		}
		if len(memberValues) == 0 {
			continue
		}
		memberOpts := append([]plotter.UpdateOption{plotter.Deferred()}, opts...)
		if _, err := pl.Plotter.Update(memberValues, memberOpts...); err != nil {
			return fmt.Errorf("plot %s: %w", pl.Name, err)
		}
	}
	return pr.StartUpdate(opts...)
}

// UpdateData registers a dimension selection on every member's data
// and runs the bulk cycle with a forced replot.
func (pr *Project) UpdateData(sel data.Selection, opts ...plotter.UpdateOption) error {
	members := pr.Plots()
	for _, pl := range members {
		if pl.Data == nil {
			continue
		}
		if err := pl.Data.RegisterUpdate(sel); err != nil {
			return fmt.Errorf("plot %s: %w", pl.Name, err)
		}
		memberOpts := append([]plotter.UpdateOption{plotter.Deferred(), plotter.WithReplot()}, opts...)
		if _, err := pl.Plotter.Update(nil, memberOpts...); err != nil {
			return fmt.Errorf("plot %s: %w", pl.Name, err)
		}
	}
	return pr.StartUpdate(opts...)
}

// StartUpdate runs the bulk cycle: every member with pending data
// gathers in its own goroutine behind a join barrier, then the plot
// phase runs sequentially, then each touched figure draws once.
func (pr *Project) StartUpdate(opts ...plotter.UpdateOption) error {
	members := pr.Plots()

	// Gather phase: the heavy re-indexing runs in parallel. One
	// failed member must not block the barrier for the others.
	gatherErrs := make([]error, len(members))
	var wg sync.WaitGroup
	for i, pl := range members {
		if pl.Data == nil || !pl.Data.HasPending() {
			continue
		}
		wg.Add(1)
		go func(i int, pl *Plot) {
			defer wg.Done()
			if err := pl.Data.GatherPending(); err != nil {
				gatherErrs[i] = fmt.Errorf("plot %s: gather: %w", pl.Name, err)
			}
		}(i, pl)
	}
	wg.Wait()
	if err := errors.Join(gatherErrs...); err != nil {
		return err
	}

	// Plot phase: strictly sequential, the backend is shared. Drawing
	// is deferred to a single pass at the end, one draw per figure in
	// member order.
	seen := make(map[*render.Figure]bool)
	var figs []*render.Figure
	var plotErrs []error
	plotOpts := append([]plotter.UpdateOption{plotter.WithDraw(false)}, opts...)
	for _, pl := range members {
		if _, err := pl.Plotter.StartUpdate(plotOpts...); err != nil {
			plotErrs = append(plotErrs, fmt.Errorf("plot %s: %w", pl.Name, err))
			continue
		}
		if f := pl.Plotter.Figure(); f != nil && !seen[f] {
			seen[f] = true
			figs = append(figs, f)
		}
	}
	if err := errors.Join(plotErrs...); err != nil {
		return err
	}
	for _, f := range figs {
		if err := f.Draw(); err != nil {
			return err
		}
	}
	return nil
}

// Export renders a member's figure to text. The figure must target a
// memory backend.
func (pr *Project) Export(name string) (string, error) {
	pl, err := pr.Get(name)
	if err != nil {
		return "", err
	}
	f := pl.Plotter.Figure()
	if f == nil {
		return "", fmt.Errorf("plot %s: %w", name, ErrNoFigure)
	}
	mem, ok := f.Backend().(*render.MemoryBackend)
	if !ok {
		return "", fmt.Errorf("plot %s: %w", name, ErrNoFigure)
	}
	if err := f.Draw(); err != nil {
		return "", err
	}
	return mem.String(), nil
}
