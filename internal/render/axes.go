package render

import "github.com/rivo/uniseg"

// Rect is an axes position on the figure surface, in cells.
type Rect struct {
	X, Y, W, H int
}

// Axes is the rendering target a plotter draws onto: a cell grid plus
// the decorations around it. Formatoptions mutate axes state; nothing
// reaches the backend until the figure draws.
type Axes struct {
	rect Rect

	cells  [][]Cell
	Title  string
	XLabel string
	YLabel string
	Grid   bool
	Legend []LegendEntry

	clears int
}

// LegendEntry is one labeled color swatch.
type LegendEntry struct {
	Label string
	Color Color
}

// NewAxes creates an axes covering rect. The top row is reserved for
// the title and the bottom row for the x label.
func NewAxes(rect Rect) *Axes {
	a := &Axes{rect: rect}
	a.resetCells()
	return a
}

func (a *Axes) resetCells() {
	h := a.PlotHeight()
	w := a.PlotWidth()
	a.cells = make([][]Cell, h)
	for y := range a.cells {
		a.cells[y] = make([]Cell, w)
		for x := range a.cells[y] {
			a.cells[y][x] = EmptyCell()
		}
	}
}

// Rect returns the axes position.
func (a *Axes) Rect() Rect { return a.rect }

// PlotWidth returns the drawable width inside the decorations.
func (a *Axes) PlotWidth() int {
	w := a.rect.W - 1 // y label column
	if w < 0 {
		w = 0
	}
	return w
}

// PlotHeight returns the drawable height inside the decorations.
func (a *Axes) PlotHeight() int {
	h := a.rect.H - 2 // title and x label rows
	if h < 0 {
		h = 0
	}
	return h
}

// SetCell writes one plot cell. Out-of-range positions are ignored.
func (a *Axes) SetCell(x, y int, cell Cell) {
	if x < 0 || x >= a.PlotWidth() || y < 0 || y >= a.PlotHeight() {
		return
	}
	a.cells[y][x] = cell
}

// Cell returns the plot cell at a position.
func (a *Axes) Cell(x, y int) Cell {
	if x < 0 || x >= a.PlotWidth() || y < 0 || y >= a.PlotHeight() {
		return EmptyCell()
	}
	return a.cells[y][x]
}

// Clear wipes the plot cells and decorations.
func (a *Axes) Clear() {
	a.Title = ""
	a.XLabel = ""
	a.YLabel = ""
	a.Grid = false
	a.Legend = nil
	a.resetCells()
	a.clears++
}

// ClearCells wipes only the plot cells, keeping decorations.
func (a *Axes) ClearCells() {
	a.resetCells()
}

// Clears returns how many times the axes was cleared.
func (a *Axes) Clears() int { return a.clears }

// blit composites the axes onto the backend surface.
func (a *Axes) blit(b Backend) {
	// Title row, centered over the plot area.
	writeClipped(b, a.rect.X+1+(a.PlotWidth()-displayWidth(a.Title))/2, a.rect.Y, a.Title, a.PlotWidth())

	// Y label, vertical along the left column.
	y := a.rect.Y + 1
	for _, g := range graphemes(a.YLabel) {
		if y >= a.rect.Y+1+a.PlotHeight() {
			break
		}
		b.SetCell(a.rect.X, y, Cell{Ch: firstRune(g), Color: White})
		y++
	}

	// Plot cells.
	for py := 0; py < a.PlotHeight(); py++ {
		for px := 0; px < a.PlotWidth(); px++ {
			cell := a.cells[py][px]
			if a.Grid && cell.Ch == ' ' && (px%8 == 0 || py%4 == 0) {
				cell = Cell{Ch: '·', Color: Gray}
			}
			b.SetCell(a.rect.X+1+px, a.rect.Y+1+py, cell)
		}
	}

	// X label row.
	writeClipped(b, a.rect.X+1+(a.PlotWidth()-displayWidth(a.XLabel))/2, a.rect.Y+a.rect.H-1, a.XLabel, a.PlotWidth())

	// Legend entries in the top-right corner of the plot area.
	ly := a.rect.Y + 1
	for _, e := range a.Legend {
		label := "■ " + e.Label
		x := a.rect.X + 1 + a.PlotWidth() - displayWidth(label)
		for i, g := range graphemes(label) {
			c := Cell{Ch: firstRune(g), Color: White}
			if i == 0 {
				c.Color = e.Color
			}
			b.SetCell(x+i, ly, c)
		}
		ly++
	}
}

// writeClipped writes a string one grapheme per cell, clipped to max
// cells.
func writeClipped(b Backend, x, y int, s string, max int) {
	used := 0
	for _, g := range graphemes(s) {
		w := uniseg.StringWidth(g)
		if used+w > max {
			return
		}
		b.SetCell(x+used, y, Cell{Ch: firstRune(g), Color: White})
		used += w
	}
}

// displayWidth measures a string in terminal cells.
func displayWidth(s string) int {
	return uniseg.StringWidth(s)
}

func graphemes(s string) []string {
	var out []string
	state := -1
	for len(s) > 0 {
		var g string
		g, s, _, state = uniseg.FirstGraphemeClusterInString(s, state)
		out = append(out, g)
	}
	return out
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return ' '
}
