// Package main is the entry point for the plotstorm viewer: it loads
// a dataset description, builds a plotter per requested variable and
// renders the project to the terminal or to a text export.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/dshills/plotstorm/internal/config/loader"
	"github.com/dshills/plotstorm/internal/config/rc"
	"github.com/dshills/plotstorm/internal/config/registry"
	"github.com/dshills/plotstorm/internal/config/watcher"
	"github.com/dshills/plotstorm/internal/data"
	"github.com/dshills/plotstorm/internal/plotter"
	"github.com/dshills/plotstorm/internal/plotter/simple"
	"github.com/dshills/plotstorm/internal/plugin"
	"github.com/dshills/plotstorm/internal/project"
	"github.com/dshills/plotstorm/internal/render"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

type options struct {
	configPath  string
	datasetPath string
	projectPath string
	savePath    string
	variables   string
	plotterName string
	outputPath  string
	strict      bool
	interactive bool
}

func run() int {
	opts := parseFlags()

	reg := registry.New()
	rc.Defaults(reg)

	managerOpts := []plugin.ManagerOption{
		plugin.WithWarningHandler(func(msg string) {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
		}),
	}
	if opts.strict {
		managerOpts = append(managerOpts, plugin.Strict())
	}
	manager := plugin.NewManager(reg, managerOpts...)
	if err := manager.Load(plugin.Builtin()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading builtin plugin: %v\n", err)
		return 1
	}

	params := rc.NewParams(reg)
	if opts.configPath != "" {
		values, err := loader.NewTOMLLoader(opts.configPath).Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: reading config: %v\n", err)
			return 1
		}
		_, errs := loader.Apply(params, values)
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "Warning: config: %v\n", err)
		}
	}

	ds, err := data.Open(opts.datasetPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: opening dataset: %v\n", err)
		return 1
	}

	var pr *project.Project
	var backend render.Backend
	var fig *render.Figure

	if opts.projectPath != "" {
		raw, err := os.ReadFile(opts.projectPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: reading project: %v\n", err)
			return 1
		}
		n := int(gjson.GetBytes(raw, "plots.#").Int())
		if n == 0 {
			fmt.Fprintf(os.Stderr, "Error: project %s has no plots\n", opts.projectPath)
			return 1
		}
		var cleanup func()
		backend, cleanup, err = newBackend(opts, n)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: creating backend: %v\n", err)
			return 1
		}
		defer cleanup()
		fig = render.NewFigure(backend)
		rows, cols := gridShape(n)
		axes := fig.Grid(rows, cols, n)
		next := 0
		pr, err = project.Load(raw, project.LoadConfig{
			Manager: manager,
			Params:  params,
			ResolveData: func(name string) (data.Object, error) {
				return data.NewArray(ds, name, data.Selection{})
			},
			NewTarget: func(string) (*render.Figure, *render.Axes) {
				ax := axes[next]
				next++
				return fig, ax
			},
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: loading project: %v\n", err)
			return 1
		}
	} else {
		variables := splitList(opts.variables)
		if len(variables) == 0 {
			variables = ds.VariableNames()
		}
		if len(variables) == 0 {
			fmt.Fprintf(os.Stderr, "Error: dataset %s has no variables\n", opts.datasetPath)
			return 1
		}

		spec, err := manager.Lookup(opts.plotterName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v (available: %s)\n", err, strings.Join(manager.Plotters(), ", "))
			return 1
		}

		var cleanup func()
		backend, cleanup, err = newBackend(opts, len(variables))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: creating backend: %v\n", err)
			return 1
		}
		defer cleanup()

		fig = render.NewFigure(backend)
		rows, cols := gridShape(len(variables))
		axes := fig.Grid(rows, cols, len(variables))

		pr = project.New(ds.Name)
		for i, varName := range variables {
			arr, err := data.NewArray(ds, varName, data.Selection{})
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: variable %s: %v\n", varName, err)
				return 1
			}
			p, err := plotter.New(spec, params, map[string]any{"title": varName},
				plotter.WithData(arr),
				plotter.WithAxes(fig, axes[i]),
				plotter.WithDecoder(data.CFDecoder{}),
				plotter.WithAutoUpdate(false))
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: plotter for %s: %v\n", varName, err)
				return 1
			}
			if _, err := p.InitializePlot(plotter.WithDraw(false)); err != nil {
				fmt.Fprintf(os.Stderr, "Error: plotting %s: %v\n", varName, err)
				return 1
			}
			if _, err := pr.Add(varName, arr, p); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return 1
			}
		}
	}

	if err := fig.Draw(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: drawing: %v\n", err)
		return 1
	}

	if opts.savePath != "" {
		raw, err := pr.Save()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: saving project: %v\n", err)
			return 1
		}
		if err := os.WriteFile(opts.savePath, raw, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: writing %s: %v\n", opts.savePath, err)
			return 1
		}
	}

	if opts.outputPath != "" {
		mem, ok := backend.(*render.MemoryBackend)
		if !ok {
			fmt.Fprintf(os.Stderr, "Error: text export needs the memory backend\n")
			return 1
		}
		if err := os.WriteFile(opts.outputPath, []byte(mem.String()), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: writing %s: %v\n", opts.outputPath, err)
			return 1
		}
		return 0
	}

	if term, ok := backend.(*render.TerminalBackend); ok {
		// Live-reload rc overrides while the plot is on screen.
		if opts.configPath != "" {
			w, err := watcher.New(opts.configPath)
			if err == nil {
				w.OnChange(func(path string) {
					values, err := loader.NewTOMLLoader(path).Load()
					if err != nil {
						return
					}
					loader.Apply(params, values)
					for _, pl := range pr.Plots() {
						pl.Plotter.Update(nil, plotter.WithToDefault(), plotter.Deferred())
					}
					pr.StartUpdate()
				})
				w.Start()
				defer w.Close()
			}
		}
		term.WaitForKey()
		return 0
	}

	mem := backend.(*render.MemoryBackend)
	fmt.Print(mem.String())
	return 0
}

// newBackend picks the rendering surface: the terminal when
// interactive, an in-memory grid for stdout or file export.
func newBackend(opts options, plots int) (render.Backend, func(), error) {
	if opts.interactive && opts.outputPath == "" {
		term, err := render.NewTerminalBackend()
		if err != nil {
			return nil, nil, err
		}
		if err := term.Init(); err != nil {
			return nil, nil, err
		}
		return term, func() { term.Shutdown() }, nil
	}
	rows, cols := gridShape(plots)
	mem := render.NewMemoryBackend(cols*44, rows*14)
	return mem, func() {}, nil
}

// gridShape lays n plots out in at most two columns.
func gridShape(n int) (rows, cols int) {
	cols = 1
	if n > 1 {
		cols = 2
	}
	rows = (n + cols - 1) / cols
	if rows < 1 {
		rows = 1
	}
	return rows, cols
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseFlags() options {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.configPath, "config", "", "Path to a TOML rc override file")
	flag.StringVar(&opts.configPath, "c", "", "Path to a TOML rc override file (shorthand)")
	flag.StringVar(&opts.datasetPath, "dataset", "", "Path to a YAML dataset description")
	flag.StringVar(&opts.datasetPath, "d", "", "Path to a YAML dataset description (shorthand)")
	flag.StringVar(&opts.projectPath, "project", "", "Restore a saved project file instead of building plots")
	flag.StringVar(&opts.savePath, "save", "", "Save the project to a file after plotting")
	flag.StringVar(&opts.variables, "var", "", "Comma separated variables to plot (default: all)")
	flag.StringVar(&opts.plotterName, "plotter", simple.Name, "Plotter to use")
	flag.StringVar(&opts.outputPath, "output", "", "Write a text export instead of displaying")
	flag.StringVar(&opts.outputPath, "o", "", "Write a text export instead of displaying (shorthand)")
	flag.BoolVar(&opts.strict, "strict", false, "Treat plugin conflicts as errors")
	flag.BoolVar(&opts.interactive, "interactive", false, "Render to the terminal and wait for a key")
	flag.BoolVar(&showVersion, "version", false, "Show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Plotstorm - terminal plotting for labeled arrays\n\n")
		fmt.Fprintf(os.Stderr, "Usage: plotstorm -dataset data.yml [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  plotstorm -d run.yml                 Plot every variable to stdout\n")
		fmt.Fprintf(os.Stderr, "  plotstorm -d run.yml -var temp       Plot one variable\n")
		fmt.Fprintf(os.Stderr, "  plotstorm -d run.yml -o out.txt      Export to a text file\n")
		fmt.Fprintf(os.Stderr, "  plotstorm -d run.yml -interactive    Render in the terminal\n")
		fmt.Fprintf(os.Stderr, "  plotstorm -d run.yml -save p.json    Save the project state\n")
		fmt.Fprintf(os.Stderr, "  plotstorm -d run.yml -project p.json Restore a saved project\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("Plotstorm %s (%s)\n", version, commit)
		os.Exit(0)
	}
	if opts.datasetPath == "" {
		flag.Usage()
		os.Exit(2)
	}
	return opts
}
