package plotter

import (
	"strings"
	"testing"

	"github.com/dshills/plotstorm/internal/config/registry"
	"github.com/dshills/plotstorm/internal/render"
)

func postSpec(rec *recorder) Spec {
	return Spec{
		Name: "posted",
		Formatoptions: []func() Formatoption{
			mock(rec, Def{Key: "title", Priority: PriorityEnd, Default: "", Validate: registry.Str}),
			NewPost,
			NewPostTiming,
		},
	}
}

func newPostPlotter(t *testing.T, rec *recorder, opts ...Option) (*Plotter, *render.Axes) {
	t.Helper()
	fig := render.NewFigure(render.NewMemoryBackend(40, 12))
	ax := fig.AddAxes(render.Rect{W: 40, H: 12})
	opts = append([]Option{WithData(testData()), WithAxes(fig, ax)}, opts...)
	p, err := New(postSpec(rec), testParams(t), nil, opts...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return p, ax
}

func TestPostScriptRuns(t *testing.T) {
	rec := &recorder{}
	p, ax := newPostPlotter(t, rec, WithPostEnabled(true))

	script := `axes.set_title("post: " .. plotter.get("title"))`
	if _, err := p.Update(map[string]any{"title": "base", "post": script}, WithDraw(false)); err != nil {
		t.Fatal(err)
	}
	if ax.Title != "post: base" {
		t.Errorf("axes title = %q, want script result", ax.Title)
	}
}

func TestPostDisabledWarns(t *testing.T) {
	rec := &recorder{}
	var warnings []string
	p, ax := newPostPlotter(t, rec,
		WithWarningHandler(func(msg string) { warnings = append(warnings, msg) }))

	if _, err := p.Update(map[string]any{"post": `axes.set_title("nope")`}, WithDraw(false)); err != nil {
		t.Fatal(err)
	}
	if ax.Title != "" {
		t.Errorf("script ran while disabled: title = %q", ax.Title)
	}
	if len(warnings) == 0 {
		t.Error("no warning for a skipped post script")
	}
}

func TestPostScriptErrorRollsBack(t *testing.T) {
	rec := &recorder{}
	p, _ := newPostPlotter(t, rec, WithPostEnabled(true))

	_, err := p.Update(map[string]any{"post": `this is not lua`}, WithDraw(false))
	if err == nil {
		t.Fatal("broken script accepted")
	}
	if v, _ := p.Value("post"); v != "" {
		t.Errorf("post = %q after rollback, want empty", v)
	}
}

func TestPostSandboxRemovesLoaders(t *testing.T) {
	rec := &recorder{}
	p, _ := newPostPlotter(t, rec, WithPostEnabled(true))

	for _, fn := range []string{"dofile", "loadfile", "load", "loadstring"} {
		_, err := p.Update(map[string]any{"post": fn + `("x")`}, WithDraw(false))
		if err == nil {
			t.Errorf("%s is reachable from the sandbox", fn)
		}
		if err != nil && !strings.Contains(err.Error(), "post") {
			t.Errorf("unexpected error for %s: %v", fn, err)
		}
	}
}

func TestPostTimingAlways(t *testing.T) {
	rec := &recorder{}
	var titles []string
	p, ax := newPostPlotter(t, rec, WithPostEnabled(true))

	script := `axes.set_title(axes.get_title() .. "*")`
	if _, err := p.Update(map[string]any{"post": script, "post_timing": "always"}, WithDraw(false)); err != nil {
		t.Fatal(err)
	}
	titles = append(titles, ax.Title)

	// An unrelated update re-runs the script via the dependency on
	// every other key.
	if _, err := p.Update(map[string]any{"title": "other"}, WithDraw(false)); err != nil {
		t.Fatal(err)
	}
	titles = append(titles, ax.Title)
	if titles[0] != "*" || titles[1] != "**" {
		t.Errorf("titles = %v, want script run on every update", titles)
	}
}

func TestPostTimingNever(t *testing.T) {
	rec := &recorder{}
	p, ax := newPostPlotter(t, rec, WithPostEnabled(true))

	script := `axes.set_title(axes.get_title() .. "*")`
	if _, err := p.Update(map[string]any{"post": script}, WithDraw(false)); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Update(map[string]any{"title": "other"}, WithDraw(false)); err != nil {
		t.Fatal(err)
	}
	if ax.Title != "*" {
		t.Errorf("title = %q, want a single script run", ax.Title)
	}
}

func TestPostValueConversion(t *testing.T) {
	rec := &recorder{}
	spec := Spec{
		Name: "typed",
		Formatoptions: []func() Formatoption{
			mock(rec, Def{Key: "flag", Priority: PriorityEnd, Default: true, Validate: registry.Bool}),
			mock(rec, Def{Key: "size", Priority: PriorityEnd, Default: 12, Validate: registry.Int}),
			NewPost,
			NewPostTiming,
		},
	}
	fig := render.NewFigure(render.NewMemoryBackend(40, 12))
	ax := fig.AddAxes(render.Rect{W: 40, H: 12})
	p, err := New(spec, testParams(t), nil,
		WithData(testData()), WithAxes(fig, ax), WithPostEnabled(true))
	if err != nil {
		t.Fatal(err)
	}

	script := `
if plotter.get("flag") and plotter.get("size") == 12 then
  axes.set_title("typed ok")
end`
	if _, err := p.Update(map[string]any{"post": script}, WithDraw(false)); err != nil {
		t.Fatal(err)
	}
	if ax.Title != "typed ok" {
		t.Errorf("title = %q, script did not see converted values", ax.Title)
	}
}
