package plotter

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/plotstorm/internal/config/registry"
	"github.com/dshills/plotstorm/internal/data"
)

// PostGroup is the group name of the post-processing formatoptions.
const PostGroup = "post_processing"

// NewPostTiming declares the post_timing formatoption: when the post
// script runs. "never" means only when the script itself changes,
// "always" after every update cycle, "replot" whenever the data
// changes.
func NewPostTiming() Formatoption {
	return &postTimingFmto{NewBase(Def{
		Key:      "post_timing",
		Priority: PriorityEnd,
		Group:    PostGroup,
		Default:  "never",
		Validate: registry.Enum("never", "always", "replot"),
	})}
}

type postTimingFmto struct{ *Base }

// NewPost declares the post formatoption: a sandboxed Lua script run
// against the plotter after the selected formatoptions. The script
// only runs when the owning plotter was built with WithPostEnabled;
// otherwise it degrades to a warning.
func NewPost() Formatoption {
	return &postFmto{NewBase(Def{
		Key:      "post",
		Priority: PriorityEnd,
		Group:    PostGroup,
		Children: []string{"post_timing"},
		Default:  "",
		Validate: registry.Str,
	})}
}

type postFmto struct{ *Base }

// Dependencies turns every other formatoption into a dependency while
// post_timing is "always", so any update pulls the script in.
func (f *postFmto) Dependencies() []string {
	if f.timing() != "always" {
		return f.Base.Dependencies()
	}
	p := f.Plotter()
	if p == nil {
		return f.Base.Dependencies()
	}
	deps := make([]string, 0, len(p.keys))
	for _, key := range p.keys {
		if key != f.Key() {
			deps = append(deps, key)
		}
	}
	return deps
}

// DataDependent re-runs the script on data changes while post_timing
// is "replot".
func (f *postFmto) DataDependent(obj data.Object) bool {
	return f.timing() == "replot"
}

func (f *postFmto) timing() string {
	p := f.Plotter()
	if p == nil {
		return "never"
	}
	if v, err := p.Value("post_timing"); err == nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return "never"
}

// Update runs the script.
func (f *postFmto) Update(value any) error {
	script, _ := value.(string)
	if script == "" {
		return nil
	}
	p := f.Plotter()
	if p == nil {
		return nil
	}
	if !p.enablePost {
		p.warn("post processing script ignored; enable it explicitly to run user scripts")
		return nil
	}
	return runPostScript(p, script)
}

// runPostScript executes the script in a fresh sandboxed state. Only
// the base, table, string and math libraries are opened, the load
// family is removed, and the plotter is exposed through a read-only
// table plus axes label setters.
func runPostScript(p *Plotter, script string) error {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	for _, open := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(open.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(open.name)); err != nil {
			return fmt.Errorf("post: opening %s: %w", open.name, err)
		}
	}
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}

	plotterTbl := L.NewTable()
	L.SetField(plotterTbl, "name", lua.LString(p.spec.Name))
	L.SetField(plotterTbl, "get", L.NewFunction(func(L *lua.LState) int {
		key := L.CheckString(1)
		v, err := p.Value(key)
		if err != nil {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(toLua(L, v))
		return 1
	}))
	L.SetGlobal("plotter", plotterTbl)

	L.SetGlobal("warn", L.NewFunction(func(L *lua.LState) int {
		p.warn("post: %s", L.CheckString(1))
		return 0
	}))

	if p.ax != nil {
		ax := p.ax
		axesTbl := L.NewTable()
		L.SetField(axesTbl, "set_title", L.NewFunction(func(L *lua.LState) int {
			ax.Title = L.CheckString(1)
			return 0
		}))
		L.SetField(axesTbl, "set_xlabel", L.NewFunction(func(L *lua.LState) int {
			ax.XLabel = L.CheckString(1)
			return 0
		}))
		L.SetField(axesTbl, "set_ylabel", L.NewFunction(func(L *lua.LState) int {
			ax.YLabel = L.CheckString(1)
			return 0
		}))
		L.SetField(axesTbl, "get_title", L.NewFunction(func(L *lua.LState) int {
			L.Push(lua.LString(ax.Title))
			return 1
		}))
		L.SetGlobal("axes", axesTbl)
	}

	if err := L.DoString(script); err != nil {
		return fmt.Errorf("post script: %w", err)
	}
	return nil
}

// toLua converts a formatoption value for the script.
func toLua(L *lua.LState, v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case string:
		return lua.LString(x)
	case bool:
		return lua.LBool(x)
	case int:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case []float64:
		tbl := L.NewTable()
		for _, f := range x {
			tbl.Append(lua.LNumber(f))
		}
		return tbl
	default:
		return lua.LString(fmt.Sprint(x))
	}
}
