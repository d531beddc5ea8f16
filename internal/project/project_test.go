package project

import (
	"errors"
	"strings"
	"testing"

	"github.com/dshills/plotstorm/internal/config/rc"
	"github.com/dshills/plotstorm/internal/config/registry"
	"github.com/dshills/plotstorm/internal/data"
	"github.com/dshills/plotstorm/internal/plotter"
	"github.com/dshills/plotstorm/internal/plotter/simple"
	"github.com/dshills/plotstorm/internal/plugin"
	"github.com/dshills/plotstorm/internal/render"
)

type env struct {
	params  *rc.Params
	manager *plugin.Manager
	ds      *data.Dataset
}

func newEnv(t *testing.T) *env {
	t.Helper()
	reg := registry.New()
	rc.Defaults(reg)
	m := plugin.NewManager(reg)
	if err := m.Load(plugin.Builtin()); err != nil {
		t.Fatal(err)
	}
	ds := &data.Dataset{
		Name: "run",
		Coords: map[string]*data.Coord{
			"time": {Name: "time", Values: []float64{10, 20, 30}, Attrs: data.Attrs{"axis": "T"}},
			"x":    {Name: "x", Values: []float64{0, 1, 2, 3, 4}, Attrs: data.Attrs{"axis": "X"}},
		},
		Variables: map[string]*data.Variable{
			"temp": {
				Name: "temp", Dims: []string{"time", "x"}, Shape: []int{3, 5},
				Values: []float64{
					1, 3, 2, 5, 4,
					2, 4, 3, 6, 5,
					3, 5, 4, 7, 6,
				},
			},
			"salt": {
				Name: "salt", Dims: []string{"time", "x"}, Shape: []int{3, 5},
				Values: []float64{
					2, 2, 3, 3, 2,
					3, 3, 4, 4, 3,
					4, 4, 5, 5, 4,
				},
			},
		},
	}
	return &env{params: rc.NewParams(reg), manager: m, ds: ds}
}

func (e *env) array(t *testing.T, varName string) *data.Array {
	t.Helper()
	a, err := data.NewArray(e.ds, varName, data.Selection{Dims: map[string]any{"time": 0}})
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func (e *env) plotter(t *testing.T, obj data.Object) *plotter.Plotter {
	t.Helper()
	spec, err := e.manager.Lookup(simple.Name)
	if err != nil {
		t.Fatal(err)
	}
	fig := render.NewFigure(render.NewMemoryBackend(42, 14))
	ax := fig.AddAxes(render.Rect{W: 42, H: 14})
	p, err := plotter.New(spec, e.params, nil,
		plotter.WithData(obj),
		plotter.WithAxes(fig, ax),
		plotter.WithDecoder(data.CFDecoder{}))
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func (e *env) addPlot(t *testing.T, pr *Project, name, varName string) *Plot {
	t.Helper()
	a := e.array(t, varName)
	pl, err := pr.Add(name, a, e.plotter(t, a))
	if err != nil {
		t.Fatal(err)
	}
	return pl
}

func TestMembership(t *testing.T) {
	e := newEnv(t)
	pr := New("demo")

	e.addPlot(t, pr, "temp", "temp")
	if _, err := pr.Add("temp", nil, nil); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("duplicate Add = %v", err)
	}
	if err := pr.Rename("temp", "temperature"); err != nil {
		t.Fatal(err)
	}
	if _, err := pr.Get("temperature"); err != nil {
		t.Errorf("Get after rename: %v", err)
	}
	if err := pr.Remove("temperature"); err != nil {
		t.Fatal(err)
	}
	if pr.Len() != 0 {
		t.Errorf("Len() = %d", pr.Len())
	}
	if err := pr.Remove("temperature"); !errors.Is(err, ErrUnknownPlot) {
		t.Errorf("Remove missing = %v", err)
	}
}

func TestSubprojectSharesPlots(t *testing.T) {
	e := newEnv(t)
	pr := New("demo")
	e.addPlot(t, pr, "temp", "temp")
	e.addPlot(t, pr, "salt", "salt")

	sub := pr.Filter(func(pl *Plot) bool { return pl.Name == "temp" })
	if sub.Len() != 1 {
		t.Fatalf("sub.Len() = %d", sub.Len())
	}
	// A rename through the view is visible in the main project.
	if err := sub.Rename("temp", "temperature"); err != nil {
		t.Fatal(err)
	}
	if _, err := pr.Get("temperature"); err != nil {
		t.Errorf("main project missed the rename: %v", err)
	}

	// Updates through the view touch the shared plotter.
	if err := sub.Update(map[string]any{"title": "from sub"}); err != nil {
		t.Fatal(err)
	}
	pl, _ := pr.Get("temperature")
	if v, _ := pl.Plotter.Value("title"); v != "from sub" {
		t.Errorf("title = %v", v)
	}
}

func TestBulkUpdateSkipsUndeclaredKeys(t *testing.T) {
	e := newEnv(t)
	pr := New("demo")
	e.addPlot(t, pr, "temp", "temp")
	e.addPlot(t, pr, "salt", "salt")

	if err := pr.Update(map[string]any{"grid": true}); err != nil {
		t.Fatal(err)
	}
	for _, pl := range pr.Plots() {
		if !pl.Plotter.Axes().Grid {
			t.Errorf("plot %s: grid not applied", pl.Name)
		}
	}
}

func TestUpdateDataGathersAndReplots(t *testing.T) {
	e := newEnv(t)
	pr := New("demo")
	tempPlot := e.addPlot(t, pr, "temp", "temp")
	e.addPlot(t, pr, "salt", "salt")

	before := tempPlot.Data.Arrays()[0].Values[3]
	if before != 5 {
		t.Fatalf("fixture values off: %v", before)
	}
	if err := pr.UpdateData(data.Selection{Dims: map[string]any{"time": 2}}); err != nil {
		t.Fatal(err)
	}
	after := tempPlot.Data.Arrays()[0].Values[3]
	if after != 7 {
		t.Errorf("values[3] = %v after gather, want 7", after)
	}
	// Each member's figure drew exactly once for the bulk cycle: the
	// initialization draw plus the bulk draw.
	if draws := tempPlot.Plotter.Figure().Draws(); draws != 2 {
		t.Errorf("draws = %d, want 2", draws)
	}
}

func TestGatherErrorDoesNotBlockSiblings(t *testing.T) {
	e := newEnv(t)
	pr := New("demo")
	tempPlot := e.addPlot(t, pr, "temp", "temp")
	saltPlot := e.addPlot(t, pr, "salt", "salt")

	// A bad dimension poisons one member only.
	if err := tempPlot.Data.RegisterUpdate(data.Selection{Dims: map[string]any{"depth": 0}}); err == nil {
		// RegisterUpdate validates dims; force a gather failure via an
		// out-of-range index instead.
		t.Fatal("expected dim validation to reject depth")
	}
	if err := tempPlot.Data.RegisterUpdate(data.Selection{Dims: map[string]any{"time": 99}}); err != nil {
		t.Fatal(err)
	}
	if err := saltPlot.Data.RegisterUpdate(data.Selection{Dims: map[string]any{"time": 1}}); err != nil {
		t.Fatal(err)
	}

	err := pr.StartUpdate(plotter.WithReplot())
	if err == nil {
		t.Fatal("bulk update swallowed the gather error")
	}
	if !strings.Contains(err.Error(), "temp") {
		t.Errorf("error does not name the failing member: %v", err)
	}
	// The sibling still gathered.
	if got := saltPlot.Data.Arrays()[0].Values[0]; got != 3 {
		t.Errorf("sibling values[0] = %v, want 3", got)
	}
}

func TestWithAttrFilter(t *testing.T) {
	e := newEnv(t)
	pr := New("demo")
	e.addPlot(t, pr, "temp", "temp")
	e.addPlot(t, pr, "salt", "salt")

	sub := pr.WithAttr("name", "temp")
	if names := sub.Names(); len(names) != 1 || names[0] != "temp" {
		t.Errorf("Names() = %v", names)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	e := newEnv(t)
	pr := New("demo")
	tempPlot := e.addPlot(t, pr, "temp", "temp")
	saltPlot := e.addPlot(t, pr, "salt", "salt")

	if err := pr.Update(map[string]any{"title": "Run 42", "grid": true}); err != nil {
		t.Fatal(err)
	}
	if err := tempPlot.Plotter.Share(saltPlot.Plotter, "title"); err != nil {
		t.Fatal(err)
	}

	raw, err := pr.Save()
	if err != nil {
		t.Fatal(err)
	}

	restored, err := Load(raw, LoadConfig{
		Manager: e.manager,
		Params:  e.params,
		ResolveData: func(name string) (data.Object, error) {
			return data.NewArray(e.ds, name, data.Selection{Dims: map[string]any{"time": 0}})
		},
		NewTarget: func(string) (*render.Figure, *render.Axes) {
			fig := render.NewFigure(render.NewMemoryBackend(42, 14))
			return fig, fig.AddAxes(render.Rect{W: 42, H: 14})
		},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if restored.Name() != "demo" || restored.Len() != 2 {
		t.Fatalf("restored = %s with %d plots", restored.Name(), restored.Len())
	}

	// Pointwise equal state per plot.
	for _, name := range []string{"temp", "salt"} {
		orig, _ := pr.Get(name)
		again, _ := restored.Get(name)
		origState := orig.Plotter.State()
		againState := again.Plotter.State()
		for key, want := range origState {
			if got := againState[key]; !equalValue(got, want) {
				t.Errorf("plot %s: %s = %v, want %v", name, key, got, want)
			}
		}
	}

	// The sharing link survived: updating the source propagates.
	rt, _ := restored.Get("temp")
	rs, _ := restored.Get("salt")
	if rs.Plotter.SharedKeys()["title"] != rt.Plotter {
		t.Fatalf("sharing not re-wired: %v", rs.Plotter.SharedKeys())
	}
	if _, err := rt.Plotter.Update(map[string]any{"title": "later"}, plotter.WithDraw(false)); err != nil {
		t.Fatal(err)
	}
	if v, _ := rs.Plotter.Value("title"); v != "later" {
		t.Errorf("restored share did not propagate: %v", v)
	}
}

// equalValue compares saved-and-restored values, tolerating the
// []float64 → []any round trip of JSON.
func equalValue(got, want any) bool {
	if gp, ok := got.([]float64); ok {
		if wp, ok := want.([]float64); ok {
			if len(gp) != len(wp) {
				return false
			}
			for i := range gp {
				if gp[i] != wp[i] {
					return false
				}
			}
			return true
		}
	}
	return got == want
}

func TestExport(t *testing.T) {
	e := newEnv(t)
	pr := New("demo")
	e.addPlot(t, pr, "temp", "temp")
	if err := pr.Update(map[string]any{"title": "Exported"}); err != nil {
		t.Fatal(err)
	}

	out, err := pr.Export("temp")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Exported") {
		t.Errorf("export missing title:\n%s", out)
	}
	if _, err := pr.Export("missing"); !errors.Is(err, ErrUnknownPlot) {
		t.Errorf("Export(missing) = %v", err)
	}
}
