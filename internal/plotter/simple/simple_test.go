package simple

import (
	"strings"
	"testing"

	"github.com/dshills/plotstorm/internal/config/rc"
	"github.com/dshills/plotstorm/internal/config/registry"
	"github.com/dshills/plotstorm/internal/data"
	"github.com/dshills/plotstorm/internal/plotter"
	"github.com/dshills/plotstorm/internal/render"
)

func testDataset(t *testing.T) *data.Dataset {
	t.Helper()
	ds := &data.Dataset{
		Name: "series",
		Coords: map[string]*data.Coord{
			"x": {Name: "x", Values: []float64{0, 1, 2, 3, 4}, Attrs: data.Attrs{"axis": "X"}},
		},
		Variables: map[string]*data.Variable{
			"temp": {
				Name: "temp", Dims: []string{"x"}, Shape: []int{5},
				Values: []float64{1, 3, 2, 5, 4},
				Attrs:  data.Attrs{"units": "K"},
			},
			"salt": {
				Name: "salt", Dims: []string{"x"}, Shape: []int{5},
				Values: []float64{2, 2, 3, 3, 2},
			},
		},
		Attrs: data.Attrs{"source": "model"},
	}
	return ds
}

func testArray(t *testing.T, name string) *data.Array {
	t.Helper()
	a, err := data.NewArray(testDataset(t), name, data.Selection{})
	if err != nil {
		t.Fatalf("NewArray(%s): %v", name, err)
	}
	return a
}

func newSimple(t *testing.T, obj data.Object) (*plotter.Plotter, *render.Axes) {
	t.Helper()
	reg := registry.New()
	rc.Defaults(reg)
	Defaults(reg)
	params := rc.NewParams(reg)

	fig := render.NewFigure(render.NewMemoryBackend(42, 14))
	ax := fig.AddAxes(render.Rect{W: 42, H: 14})
	p, err := plotter.New(Spec(), params, nil,
		plotter.WithData(obj),
		plotter.WithAxes(fig, ax),
		plotter.WithDecoder(data.CFDecoder{}))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return p, ax
}

func countCells(ax *render.Axes) int {
	n := 0
	for y := 0; y < ax.PlotHeight(); y++ {
		for x := 0; x < ax.PlotWidth(); x++ {
			if ax.Cell(x, y).Ch != ' ' {
				n++
			}
		}
	}
	return n
}

func TestInitialDraw(t *testing.T) {
	_, ax := newSimple(t, testArray(t, "temp"))
	if countCells(ax) == 0 {
		t.Fatal("nothing drawn on initialization")
	}
	if len(ax.Legend) != 1 || ax.Legend[0].Label != "temp" {
		t.Errorf("legend = %v, want the array name", ax.Legend)
	}
}

func TestLabelAttributeExpansion(t *testing.T) {
	p, ax := newSimple(t, testArray(t, "temp"))
	if _, err := p.Update(map[string]any{"title": "{name} [{units}] from {source}"}, plotter.WithDraw(false)); err != nil {
		t.Fatal(err)
	}
	if ax.Title != "temp [K] from model" {
		t.Errorf("title = %q", ax.Title)
	}
}

func TestPlotKinds(t *testing.T) {
	p, ax := newSimple(t, testArray(t, "temp"))
	lineCells := countCells(ax)

	if _, err := p.Update(map[string]any{"plot": "points"}, plotter.WithDraw(false)); err != nil {
		t.Fatal(err)
	}
	pointCells := countCells(ax)
	if pointCells == 0 || pointCells > lineCells {
		t.Errorf("points drew %d cells, line %d", pointCells, lineCells)
	}

	if _, err := p.Update(map[string]any{"plot": "bars"}, plotter.WithDraw(false)); err != nil {
		t.Fatal(err)
	}
	if countCells(ax) <= pointCells {
		t.Error("bars should fill below each sample")
	}

	if _, err := p.Update(map[string]any{"plot": "none"}, plotter.WithDraw(false)); err != nil {
		t.Fatal(err)
	}
	if countCells(ax) != 0 {
		t.Error("plot \"none\" left cells behind")
	}
}

func TestInvalidPlotKind(t *testing.T) {
	p, _ := newSimple(t, testArray(t, "temp"))
	if _, err := p.Update(map[string]any{"plot": "scatter3d"}, plotter.WithDraw(false)); err == nil {
		t.Fatal("invalid plot kind accepted")
	}
	if v, _ := p.Value("plot"); v != "line" {
		t.Errorf("plot = %v after rejected update", v)
	}
}

func TestExplicitLimitsRedraw(t *testing.T) {
	p, ax := newSimple(t, testArray(t, "temp"))

	// Clamp y to the lower half; samples above drop out.
	full := countCells(ax)
	if _, err := p.Update(map[string]any{"ylim": []float64{1, 2}}, plotter.WithDraw(false)); err != nil {
		t.Fatal(err)
	}
	clamped := countCells(ax)
	if clamped == 0 || clamped >= full {
		t.Errorf("clamped draw has %d cells, full %d", clamped, full)
	}
}

func TestLimitValidator(t *testing.T) {
	tests := []struct {
		in      any
		want    any
		wantErr bool
	}{
		{"auto", "auto", false},
		{"minmax", "minmax", false},
		{[]float64{3, 1}, []float64{1, 3}, false},
		{[]any{0, 10}, []float64{0, 10}, false},
		{"wide", nil, true},
		{[]float64{1}, nil, true},
	}
	for _, tt := range tests {
		got, err := validateLimit(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("validateLimit(%v) error = %v", tt.in, err)
			continue
		}
		if err != nil {
			continue
		}
		if pair, ok := tt.want.([]float64); ok {
			gp, _ := got.([]float64)
			if len(gp) != 2 || gp[0] != pair[0] || gp[1] != pair[1] {
				t.Errorf("validateLimit(%v) = %v, want %v", tt.in, got, pair)
			}
		} else if got != tt.want {
			t.Errorf("validateLimit(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMaskHidesSamples(t *testing.T) {
	p, ax := newSimple(t, testArray(t, "temp"))
	if _, err := p.Update(map[string]any{"plot": "points"}, plotter.WithDraw(false)); err != nil {
		t.Fatal(err)
	}
	full := countCells(ax)

	if _, err := p.Update(map[string]any{"mask": []float64{2, 4}}, plotter.WithDraw(false)); err != nil {
		t.Fatal(err)
	}
	masked := countCells(ax)
	if masked == 0 || masked >= full {
		t.Errorf("masked draw has %d cells, full %d", masked, full)
	}
}

func TestLegendLabelsOverride(t *testing.T) {
	list := &data.List{Name: "both", Items: []*data.Array{
		testArray(t, "temp"), testArray(t, "salt"),
	}}
	p, ax := newSimple(t, list)
	if len(ax.Legend) != 2 {
		t.Fatalf("legend = %v, want 2 entries", ax.Legend)
	}
	if ax.Legend[0].Color == ax.Legend[1].Color {
		t.Error("colormap assigned the same color to both arrays")
	}

	if _, err := p.Update(map[string]any{"legendlabels": "Temperature, Salinity"}, plotter.WithDraw(false)); err != nil {
		t.Fatal(err)
	}
	if ax.Legend[0].Label != "Temperature" || ax.Legend[1].Label != "Salinity" {
		t.Errorf("legend = %v", ax.Legend)
	}

	if _, err := p.Update(map[string]any{"legend": false}, plotter.WithDraw(false)); err != nil {
		t.Fatal(err)
	}
	if ax.Legend != nil {
		t.Errorf("legend still present: %v", ax.Legend)
	}
}

func TestTransposeSwapsAxes(t *testing.T) {
	p, ax := newSimple(t, testArray(t, "temp"))
	if _, err := p.Update(map[string]any{"plot": "points", "xlim": []float64{0, 5}, "ylim": []float64{0, 5}}, plotter.WithDraw(false)); err != nil {
		t.Fatal(err)
	}
	before := snapshotCells(ax)

	if _, err := p.Update(map[string]any{"transpose": true}, plotter.WithDraw(false)); err != nil {
		t.Fatal(err)
	}
	after := snapshotCells(ax)
	if before == after {
		t.Error("transpose did not change the drawing")
	}
}

// With transpose on and auto limits, the resolved ranges follow the
// swapped axes: a series whose values lie far outside the coordinate
// range must stay visible.
func TestTransposeAutoLimits(t *testing.T) {
	ds := &data.Dataset{
		Name: "wide",
		Coords: map[string]*data.Coord{
			"x": {Name: "x", Values: []float64{0, 1, 2, 3, 4}, Attrs: data.Attrs{"axis": "X"}},
		},
		Variables: map[string]*data.Variable{
			"flux": {
				Name: "flux", Dims: []string{"x"}, Shape: []int{5},
				Values: []float64{100, 300, 200, 500, 400},
			},
		},
	}
	a, err := data.NewArray(ds, "flux", data.Selection{})
	if err != nil {
		t.Fatal(err)
	}
	p, ax := newSimple(t, a)

	if _, err := p.Update(map[string]any{"plot": "points", "transpose": true}, plotter.WithDraw(false)); err != nil {
		t.Fatal(err)
	}
	if countCells(ax) == 0 {
		t.Error("transposed series with auto limits disappeared")
	}
}

func snapshotCells(ax *render.Axes) string {
	var b strings.Builder
	for y := 0; y < ax.PlotHeight(); y++ {
		for x := 0; x < ax.PlotWidth(); x++ {
			b.WriteRune(ax.Cell(x, y).Ch)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func TestGridToggle(t *testing.T) {
	p, ax := newSimple(t, testArray(t, "temp"))
	if ax.Grid {
		t.Fatal("grid defaults on")
	}
	if _, err := p.Update(map[string]any{"grid": true}, plotter.WithDraw(false)); err != nil {
		t.Fatal(err)
	}
	if !ax.Grid {
		t.Error("grid not enabled")
	}
}

func TestRenderedExport(t *testing.T) {
	backend := render.NewMemoryBackend(42, 14)
	fig := render.NewFigure(backend)
	ax := fig.AddAxes(render.Rect{W: 42, H: 14})

	reg := registry.New()
	rc.Defaults(reg)
	Defaults(reg)
	p, err := plotter.New(Spec(), rc.NewParams(reg),
		map[string]any{"title": "Temperature"},
		plotter.WithData(testArray(t, "temp")),
		plotter.WithAxes(fig, ax),
		plotter.WithDecoder(data.CFDecoder{}))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.StartUpdate(); err != nil {
		t.Fatal(err)
	}
	if err := fig.Draw(); err != nil {
		t.Fatal(err)
	}
	out := backend.String()
	if !strings.Contains(out, "Temperature") {
		t.Errorf("export missing the title:\n%s", out)
	}
	if !strings.Contains(out, "•") {
		t.Errorf("export missing plot markers:\n%s", out)
	}
}
