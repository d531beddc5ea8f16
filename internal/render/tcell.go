package render

import "github.com/gdamore/tcell/v2"

// TerminalBackend draws to a real terminal through tcell.
type TerminalBackend struct {
	screen tcell.Screen
}

// NewTerminalBackend creates an uninitialized terminal surface.
func NewTerminalBackend() (*TerminalBackend, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return &TerminalBackend{screen: screen}, nil
}

// Init implements Backend.
func (b *TerminalBackend) Init() error {
	if err := b.screen.Init(); err != nil {
		return err
	}
	b.screen.SetStyle(tcell.StyleDefault)
	b.screen.Clear()
	return nil
}

// Shutdown implements Backend.
func (b *TerminalBackend) Shutdown() {
	b.screen.Fini()
}

// Size implements Backend.
func (b *TerminalBackend) Size() (int, int) {
	return b.screen.Size()
}

// SetCell implements Backend.
func (b *TerminalBackend) SetCell(x, y int, cell Cell) {
	style := tcell.StyleDefault.Foreground(
		tcell.NewRGBColor(int32(cell.Color.R), int32(cell.Color.G), int32(cell.Color.B)))
	b.screen.SetContent(x, y, cell.Ch, nil, style)
}

// Clear implements Backend.
func (b *TerminalBackend) Clear() {
	b.screen.Clear()
}

// Show implements Backend.
func (b *TerminalBackend) Show() error {
	b.screen.Show()
	return nil
}

// WaitForKey blocks until a key press, so the CLI can hold the plot on
// screen.
func (b *TerminalBackend) WaitForKey() {
	for {
		ev := b.screen.PollEvent()
		switch ev.(type) {
		case *tcell.EventKey:
			return
		case nil:
			return
		}
	}
}
