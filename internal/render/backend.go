package render

import "strings"

// Backend is the display surface a figure flushes to. Backends are not
// safe for concurrent use; the plot phase serializes all drawing onto
// one goroutine.
type Backend interface {
	// Init prepares the surface. Must be called before drawing.
	Init() error

	// Shutdown releases the surface and restores any terminal state.
	Shutdown()

	// Size returns the surface dimensions in cells.
	Size() (width, height int)

	// SetCell writes one cell. Out-of-range positions are ignored.
	SetCell(x, y int, cell Cell)

	// Clear blanks the whole surface.
	Clear()

	// Show flushes buffered cells to the actual display.
	Show() error
}

// MemoryBackend is an in-memory surface for tests and text export.
type MemoryBackend struct {
	width, height int
	cells         [][]Cell
	shows         int
}

// NewMemoryBackend creates a memory surface of the given size.
func NewMemoryBackend(width, height int) *MemoryBackend {
	b := &MemoryBackend{width: width, height: height}
	b.reset()
	return b
}

func (b *MemoryBackend) reset() {
	b.cells = make([][]Cell, b.height)
	for y := range b.cells {
		b.cells[y] = make([]Cell, b.width)
		for x := range b.cells[y] {
			b.cells[y][x] = EmptyCell()
		}
	}
}

// Init implements Backend.
func (b *MemoryBackend) Init() error { return nil }

// Shutdown implements Backend.
func (b *MemoryBackend) Shutdown() {}

// Size implements Backend.
func (b *MemoryBackend) Size() (int, int) { return b.width, b.height }

// SetCell implements Backend.
func (b *MemoryBackend) SetCell(x, y int, cell Cell) {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return
	}
	b.cells[y][x] = cell
}

// Cell returns the cell at a position, empty when out of range.
func (b *MemoryBackend) Cell(x, y int) Cell {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return EmptyCell()
	}
	return b.cells[y][x]
}

// Clear implements Backend.
func (b *MemoryBackend) Clear() { b.reset() }

// Show implements Backend.
func (b *MemoryBackend) Show() error {
	b.shows++
	return nil
}

// Shows returns how many times Show ran.
func (b *MemoryBackend) Shows() int { return b.shows }

// String renders the surface as plain text, one line per row with
// trailing blanks trimmed.
func (b *MemoryBackend) String() string {
	var sb strings.Builder
	for y := 0; y < b.height; y++ {
		var line strings.Builder
		for x := 0; x < b.width; x++ {
			line.WriteRune(b.cells[y][x].Ch)
		}
		sb.WriteString(strings.TrimRight(line.String(), " "))
		sb.WriteByte('\n')
	}
	return sb.String()
}
