package plotter

import (
	"fmt"
	"sort"

	"github.com/dshills/plotstorm/internal/render"
)

// updateOpts carries the per-call update modifiers.
type updateOpts struct {
	force     []string
	forceAll  bool
	toDefault bool
	replot    bool
	draw      *bool
	deferred  bool
}

// UpdateOption modifies one Update or StartUpdate call.
type UpdateOption func(*updateOpts)

// WithForce re-runs the given keys even when their values are
// unchanged, and overrides the sharing skip.
func WithForce(keys ...string) UpdateOption {
	return func(o *updateOpts) { o.force = append(o.force, keys...) }
}

// WithForceAll forces every key in the call.
func WithForceAll() UpdateOption {
	return func(o *updateOpts) { o.forceAll = true }
}

// WithToDefault resets every formatoption to its default, with the
// call's explicit values applied on top.
func WithToDefault() UpdateOption {
	return func(o *updateOpts) { o.toDefault = true }
}

// WithReplot forces the data to be re-gathered and every data
// dependent formatoption to re-run.
func WithReplot() UpdateOption {
	return func(o *updateOpts) { o.replot = true }
}

// WithDraw overrides the auto_draw parameter for this call.
func WithDraw(draw bool) UpdateOption {
	return func(o *updateOpts) { d := draw; o.draw = &d }
}

// Deferred registers the update without applying it; a later
// StartUpdate call runs the queued batch.
func Deferred() UpdateOption {
	return func(o *updateOpts) { o.deferred = true }
}

// Update registers the given values and, unless deferred, runs the
// update cycle. It reports whether anything actually ran.
func (p *Plotter) Update(values map[string]any, opts ...UpdateOption) (bool, error) {
	var o updateOpts
	for _, opt := range opts {
		opt(&o)
	}
	if p.disabled {
		return false, nil
	}
	if err := p.registerUpdate(values, &o); err != nil {
		return false, err
	}
	if o.deferred || !p.autoUpdate {
		return false, nil
	}
	return p.StartUpdate(opts...)
}

// StartUpdate runs the queued batch through the Resolving and
// Executing phases, then draws when anything ran.
func (p *Plotter) StartUpdate(opts ...UpdateOption) (bool, error) {
	var o updateOpts
	for _, opt := range opts {
		opt(&o)
	}
	changed, figs, err := p.startUpdate(false, make(map[*Plotter]bool))
	if err != nil {
		return false, err
	}
	if changed && p.shouldDraw(&o) {
		if err := p.drawFigures(figs); err != nil {
			return changed, err
		}
	}
	return changed, nil
}

// InitializePlot runs the first full render cycle: every declared
// formatoption, using the initialize path instead of update.
func (p *Plotter) InitializePlot(opts ...UpdateOption) (bool, error) {
	if p.disabled {
		return false, ErrDisabled
	}
	if p.data == nil {
		return false, ErrNoData
	}
	var o updateOpts
	for _, opt := range opts {
		opt(&o)
	}
	changed, figs, err := p.startUpdate(true, make(map[*Plotter]bool))
	if err != nil {
		return false, err
	}
	if changed && p.shouldDraw(&o) {
		if err := p.drawFigures(figs); err != nil {
			return changed, err
		}
	}
	return changed, nil
}

func (p *Plotter) shouldDraw(o *updateOpts) bool {
	if o.draw != nil {
		return *o.draw
	}
	return p.params.GetBool("auto_draw", true)
}

// drawFigures redraws each touched figure once, with the flush to the
// display gated by the auto_show parameter.
func (p *Plotter) drawFigures(figs []*render.Figure) error {
	show := p.params.GetBool("auto_show", false)
	seen := make(map[*render.Figure]bool, len(figs))
	for _, f := range figs {
		if f == nil || seen[f] {
			continue
		}
		seen[f] = true
		f.SetAutoShow(show)
		if err := f.Draw(); err != nil {
			return err
		}
	}
	return nil
}

// registerUpdate merges a call's values and modifiers into the
// pending batch. Keys are checked before any state is touched.
func (p *Plotter) registerUpdate(values map[string]any, o *updateOpts) error {
	for key := range values {
		if err := p.CheckKey(key); err != nil {
			return err
		}
	}
	for _, key := range o.force {
		if err := p.CheckKey(key); err != nil {
			return err
		}
	}

	if o.toDefault {
		for _, key := range p.keys {
			if _, explicit := values[key]; !explicit {
				p.registered[key] = p.defaultFor(key)
			}
		}
	}
	for key, value := range values {
		p.registered[key] = value
		if o.forceAll {
			p.force[key] = true
		}
		if p.fmtos[key].RequiresReplot() {
			p.replot = true
		}
	}
	for _, key := range o.force {
		p.force[key] = true
	}
	if o.replot {
		p.replot = true
	}
	return nil
}

// defaultFor resolves a key's default: registry sub-view first,
// declaration default when no prefix matches.
func (p *Plotter) defaultFor(key string) any {
	if raw, err := p.rcView.Get(key); err == nil {
		return raw
	}
	return p.fmtos[key].Default()
}

// startUpdate is the Resolving → Executing core. seen guards the
// cross-plotter propagation against cycles; a plotter already inside a
// cycle is skipped rather than re-entered.
func (p *Plotter) startUpdate(initializing bool, seen map[*Plotter]bool) (bool, []*render.Figure, error) {
	if p.disabled || p.updating {
		return false, nil, nil
	}
	if !initializing && len(p.registered) == 0 && len(p.force) == 0 && !p.replot {
		return false, nil, nil
	}
	seen[p] = true
	p.updating = true
	defer func() { p.updating = false }()

	token := newToken()
	p.pushSnapshot()

	var selection []Formatoption
	if initializing {
		selection = p.allFmtos()
		p.registered = make(map[string]any)
		p.force = make(map[string]bool)
	} else {
		var err error
		selection, err = p.setAndFilter()
		if err != nil {
			p.rollback(token)
			return false, nil, err
		}
		selection = p.insertAdditionals(selection)
	}
	if p.cleared {
		selection = p.allFmtos()
	}
	if len(selection) == 0 {
		p.popSnapshot()
		p.lastUpdate = nil
		return false, nil, nil
	}

	ordered := p.sortedByPriority(selection)
	p.lastUpdate = fmtoKeys(ordered)

	for _, fo := range ordered {
		fo.base().lock.acquire(token)
	}

	reinit := p.cleared
	if reinit {
		p.reinitTarget()
		p.cleared = false
	}
	err := p.plotByPriority(ordered, initializing || reinit, token)

	for _, fo := range ordered {
		fo.base().lock.release(token)
	}
	if err != nil {
		p.rollback(token)
		return false, nil, err
	}
	for _, fo := range ordered {
		if fin, ok := fo.(Finisher); ok {
			fin.FinishUpdate()
		}
	}
	p.replot = false
	if initializing {
		p.initialized = true
	}

	var figs []*render.Figure
	if p.fig != nil {
		figs = append(figs, p.fig)
	}
	otherFigs, err := p.updateTheOthers(seen)
	figs = append(figs, otherFigs...)
	if err != nil {
		return true, figs, err
	}
	return true, figs, nil
}

// setAndFilter turns the pending batch into the set of formatoptions
// that actually changed (or are forced), validating and storing each
// value on the way. Shared keys are skipped with a warning unless
// forced.
func (p *Plotter) setAndFilter() ([]Formatoption, error) {
	for key := range p.force {
		if _, queued := p.registered[key]; !queued {
			p.registered[key] = p.values[key]
		}
	}

	keys := make([]string, 0, len(p.registered))
	for key := range p.registered {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var out []Formatoption
	for _, key := range keys {
		fo := p.fmtos[key]
		if p.sharedIn[key] != nil && !p.force[key] {
			p.warn("formatoption %q is controlled by another plotter; update with force to override", key)
			continue
		}
		changed, err := p.checkAndSet(fo, p.registered[key])
		if err != nil {
			return nil, err
		}
		if changed || p.force[key] {
			out = append(out, fo)
		}
	}
	p.registered = make(map[string]any)
	p.force = make(map[string]bool)
	return out, nil
}

// checkAndSet validates value and stores it when it differs from the
// current one. The store is skipped while the key is shared; the diff
// result still counts.
func (p *Plotter) checkAndSet(fo Formatoption, value any) (bool, error) {
	validated, err := fo.Validate(value)
	if err != nil {
		return false, &ValidationError{Key: fo.Key(), Value: value, Err: err}
	}
	if !fo.Diff(validated) {
		return false, nil
	}
	if p.sharedIn[fo.Key()] == nil {
		p.values[fo.Key()] = validated
	}
	return true, nil
}

// insertAdditionals grows the selection per the cascade rules: a
// replot pulls in every data dependent formatoption, a before-plot
// change pulls in the update-after-plot ones, a changed dependency
// pulls in its dependents, and a clearing formatoption invalidates
// everything.
func (p *Plotter) insertAdditionals(selection []Formatoption) []Formatoption {
	selected := make(map[string]bool, len(selection))
	for _, fo := range selection {
		selected[fo.Key()] = true
	}
	add := func(fo Formatoption) {
		selection = append(selection, fo)
		selected[fo.Key()] = true
	}

	if !p.replot {
		for _, fo := range selection {
			if fo.Priority() >= PriorityStart {
				p.replot = true
				break
			}
		}
	}
	if p.replot {
		for _, key := range p.keys {
			fo := p.fmtos[key]
			if !selected[key] && fo.DataDependent(p.data) {
				add(fo)
			}
		}
	}

	beforePlot := false
	for _, fo := range selection {
		if fo.Priority() >= PriorityBeforePlot {
			beforePlot = true
			break
		}
	}
	if beforePlot {
		for _, key := range p.keys {
			fo := p.fmtos[key]
			if !selected[key] && fo.UpdateAfterPlot() {
				add(fo)
			}
		}
	}

	for _, key := range p.keys {
		if selected[key] {
			continue
		}
		for dep := range p.transitiveDeps(key) {
			if selected[dep] {
				add(p.fmtos[key])
				break
			}
		}
	}

	for _, fo := range selection {
		if fo.RequiresClearing() {
			p.cleared = true
			break
		}
	}
	return selection
}

// transitiveDeps returns the closure of a key's dependencies. Children
// are deliberately not walked here: a child orders before its declaring
// formatoption when both are in a batch, but changing a child alone
// does not pull the declaring one in. Only dependencies do that.
func (p *Plotter) transitiveDeps(key string) map[string]bool {
	out := make(map[string]bool)
	stack := append([]string(nil), p.fmtos[key].Dependencies()...)
	for len(stack) > 0 {
		k := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if out[k] {
			continue
		}
		fo, ok := p.fmtos[k]
		if !ok {
			continue
		}
		out[k] = true
		stack = append(stack, fo.Dependencies()...)
	}
	return out
}

func relationKeys(fo Formatoption) []string {
	out := make([]string, 0, len(fo.Children())+len(fo.Dependencies()))
	out = append(out, fo.Children()...)
	out = append(out, fo.Dependencies()...)
	return out
}

// sortedByPriority produces the linear execution order: priority
// descending, key name as the tie break, with a depth-first pass that
// runs a formatoption's in-batch children and dependencies before it
// and drops it entirely when one of its parents is also in the batch.
func (p *Plotter) sortedByPriority(selection []Formatoption) []Formatoption {
	sorted := append([]Formatoption(nil), selection...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority() != sorted[j].Priority() {
			return sorted[i].Priority() > sorted[j].Priority()
		}
		return sorted[i].Key() < sorted[j].Key()
	})

	pending := make(map[string]Formatoption, len(sorted))
	batch := make(map[string]bool, len(sorted))
	for _, fo := range sorted {
		pending[fo.Key()] = fo
		batch[fo.Key()] = true
	}

	var out []Formatoption
	var emit func(fo Formatoption)
	emit = func(fo Formatoption) {
		delete(pending, fo.Key())
		for _, key := range relationKeys(fo) {
			if child, ok := pending[key]; ok {
				emit(child)
			}
		}
		for _, parent := range fo.Parents() {
			if batch[parent] {
				return
			}
		}
		out = append(out, fo)
	}
	for _, fo := range sorted {
		if _, ok := pending[fo.Key()]; ok {
			emit(fo)
		}
	}
	return out
}

// plotByPriority is the Executing phase: run the ordered selection,
// with the plot step inserted once after the last before-plot
// formatoption.
func (p *Plotter) plotByPriority(ordered []Formatoption, initializing bool, token *lockToken) error {
	ranBeforePlot := false
	plotted := false
	for _, fo := range ordered {
		if ranBeforePlot && !plotted && fo.Priority() < PriorityBeforePlot {
			if err := p.makePlot(); err != nil {
				return err
			}
			plotted = true
		}
		if err := p.runFmto(fo, initializing, token); err != nil {
			return err
		}
		if fo.Priority() >= PriorityBeforePlot {
			ranBeforePlot = true
		}
	}
	if ranBeforePlot && !plotted {
		return p.makePlot()
	}
	return nil
}

// runFmto executes one formatoption, delegating to the sharing source
// when the key is controlled by another plotter.
func (p *Plotter) runFmto(fo Formatoption, initializing bool, token *lockToken) error {
	key := fo.Key()
	if src := p.sharedIn[key]; src != nil {
		return shareApply(src, fo, token, initializing)
	}
	value := p.values[key]
	if initializing {
		if init, ok := fo.(Initializer); ok {
			return init.InitializePlot(value)
		}
	}
	return fo.Update(value)
}

// makePlot runs the plot step: every plot formatoption, highest
// priority first.
func (p *Plotter) makePlot() error {
	plotFmtos := make([]Formatoption, 0, 2)
	for _, key := range p.keys {
		if fo := p.fmtos[key]; fo.PlotFmt() {
			plotFmtos = append(plotFmtos, fo)
		}
	}
	sort.SliceStable(plotFmtos, func(i, j int) bool {
		if plotFmtos[i].Priority() != plotFmtos[j].Priority() {
			return plotFmtos[i].Priority() > plotFmtos[j].Priority()
		}
		return plotFmtos[i].Key() < plotFmtos[j].Key()
	})
	for _, fo := range plotFmtos {
		pm, ok := fo.(PlotMaker)
		if !ok {
			continue
		}
		if err := pm.MakePlot(); err != nil {
			return fmt.Errorf("plot step for %q: %w", fo.Key(), err)
		}
	}
	return nil
}

// reinitTarget wipes the rendering target before a clearing reinit.
func (p *Plotter) reinitTarget() {
	for _, key := range p.keys {
		if r, ok := p.fmtos[key].(Remover); ok {
			r.Remove()
		}
	}
	if p.ax != nil {
		p.ax.Clear()
	}
}

// updateTheOthers propagates a finished cycle to every plotter holding
// a formatoption shared from this one: a key-forced update with
// drawing suppressed. The originating plotter draws all touched
// figures once.
func (p *Plotter) updateTheOthers(seen map[*Plotter]bool) ([]*render.Figure, error) {
	targets := make(map[*Plotter][]string)
	for _, key := range p.lastUpdate {
		fo, ok := p.fmtos[key]
		if !ok {
			continue
		}
		for dst := range fo.base().shared {
			op := dst.base().plotter
			if op == nil || op == p || seen[op] {
				continue
			}
			targets[op] = append(targets[op], dst.Key())
		}
	}

	others := make([]*Plotter, 0, len(targets))
	for op := range targets {
		others = append(others, op)
	}
	sort.Slice(others, func(i, j int) bool { return others[i].id.String() < others[j].id.String() })

	var figs []*render.Figure
	for _, op := range others {
		for _, key := range targets[op] {
			op.force[key] = true
		}
		changed, ofigs, err := op.startUpdate(false, seen)
		if err != nil {
			return figs, err
		}
		if changed {
			figs = append(figs, ofigs...)
		}
	}
	return figs, nil
}

// pushSnapshot saves the full value map for rollback and change
// introspection.
func (p *Plotter) pushSnapshot() {
	snap := make(map[string]any, len(p.values))
	for k, v := range p.values {
		snap[k] = v
	}
	p.oldFmt = append(p.oldFmt, snap)
}

func (p *Plotter) popSnapshot() {
	if len(p.oldFmt) > 0 {
		p.oldFmt = p.oldFmt[:len(p.oldFmt)-1]
	}
}

// rollback restores the most recent snapshot, drops the pending batch
// and force-releases every lock the cycle may hold. A failed batch
// must leave no partially applied values behind.
func (p *Plotter) rollback(token *lockToken) {
	if len(p.oldFmt) > 0 {
		snap := p.oldFmt[len(p.oldFmt)-1]
		p.oldFmt = p.oldFmt[:len(p.oldFmt)-1]
		for _, key := range p.keys {
			if v, ok := snap[key]; ok {
				p.values[key] = v
			} else {
				p.values[key] = p.defaultFor(key)
			}
		}
	}
	p.registered = make(map[string]any)
	p.force = make(map[string]bool)
	p.replot = false
	p.cleared = false
	for _, key := range p.keys {
		p.fmtos[key].base().lock.forceRelease(token)
	}
}

func (p *Plotter) allFmtos() []Formatoption {
	out := make([]Formatoption, 0, len(p.keys))
	for _, key := range p.keys {
		out = append(out, p.fmtos[key])
	}
	return out
}

func fmtoKeys(fmtos []Formatoption) []string {
	out := make([]string, 0, len(fmtos))
	for _, fo := range fmtos {
		out = append(out, fo.Key())
	}
	return out
}
