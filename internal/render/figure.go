package render

// Figure owns a backend surface and the axes placed on it. Draw counts
// are exposed so callers can assert on "did anything redraw".
type Figure struct {
	backend  Backend
	axes     []*Axes
	autoShow bool
	draws    int
}

// NewFigure creates a figure over an initialized backend. Auto show is
// on: every Draw flushes to the display.
func NewFigure(backend Backend) *Figure {
	return &Figure{backend: backend, autoShow: true}
}

// SetAutoShow controls whether Draw flushes the backend. When off, a
// redraw only recomposites the surface; an explicit Show displays it.
func (f *Figure) SetAutoShow(show bool) { f.autoShow = show }

// Show flushes the composited surface to the display.
func (f *Figure) Show() error { return f.backend.Show() }

// Backend returns the underlying surface.
func (f *Figure) Backend() Backend { return f.backend }

// AddAxes places an axes at rect and returns it.
func (f *Figure) AddAxes(rect Rect) *Axes {
	a := NewAxes(rect)
	f.axes = append(f.axes, a)
	return a
}

// Axes returns the placed axes in placement order.
func (f *Figure) Axes() []*Axes { return f.axes }

// Draw composites every axes onto the backend, flushing when auto show
// is on.
func (f *Figure) Draw() error {
	f.backend.Clear()
	for _, a := range f.axes {
		a.blit(f.backend)
	}
	if f.autoShow {
		if err := f.backend.Show(); err != nil {
			return err
		}
	}
	f.draws++
	return nil
}

// Draws returns how many times this figure was flushed.
func (f *Figure) Draws() int { return f.draws }

// Grid lays out n axes in a rows×cols grid over the backend surface
// and returns them. Extra grid slots stay empty.
func (f *Figure) Grid(rows, cols, n int) []*Axes {
	w, h := f.backend.Size()
	cw, ch := w/cols, h/rows
	out := make([]*Axes, 0, n)
	for i := 0; i < n; i++ {
		r, c := i/cols, i%cols
		out = append(out, f.AddAxes(Rect{X: c * cw, Y: r * ch, W: cw, H: ch}))
	}
	return out
}
