// Package term runs lifepad in a terminal with tcell. The screen doubles as
// a frame sink and a button source: arrow keys toggle a direction and q,
// Esc or Ctrl-C request shutdown.
package term

import (
	"context"
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/bft-labs/lifepad/internal/domain"
	"github.com/bft-labs/lifepad/internal/render"
)

// Terminal owns a tcell screen.
type Terminal struct {
	screen tcell.Screen

	mu      sync.Mutex
	buttons domain.ButtonState

	done chan struct{}
	once sync.Once
}

// Open initialises the controlling terminal.
func Open() (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}
	return New(screen)
}

// New takes ownership of screen, initialises it and starts reading keys.
func New(screen tcell.Screen) (*Terminal, error) {
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}
	screen.HideCursor()
	screen.Clear()

	t := &Terminal{screen: screen, done: make(chan struct{})}
	go t.poll()
	return t, nil
}

func (t *Terminal) poll() {
	defer close(t.done)
	for {
		switch ev := t.screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventResize:
			t.screen.Sync()
		case *tcell.EventKey:
			t.handleKey(ev)
		}
	}
}

var arrows = map[tcell.Key]domain.Direction{
	tcell.KeyUp:    domain.Up,
	tcell.KeyDown:  domain.Down,
	tcell.KeyLeft:  domain.Left,
	tcell.KeyRight: domain.Right,
}

func (t *Terminal) handleKey(ev *tcell.EventKey) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch ev.Key() {
	case tcell.KeyCtrlC, tcell.KeyEscape:
		t.buttons.Quit = true
		return
	case tcell.KeyRune:
		if ev.Rune() == 'q' {
			t.buttons.Quit = true
		}
		return
	}
	// Terminals report presses only, so each arrow latches until hit again.
	if dir, ok := arrows[ev.Key()]; ok {
		t.buttons = t.buttons.With(dir, !t.buttons.IsPressed(dir))
	}
}

// Read returns the latched arrow state.
func (t *Terminal) Read(ctx context.Context) (domain.ButtonState, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buttons, nil
}

// Present draws one character per cell with the owner's colour, followed by
// a status line of the latched directions.
func (t *Terminal) Present(ctx context.Context, g *domain.Grid) error {
	base := tcell.StyleDefault.Background(tcell.ColorBlack)
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c++ {
			cell := g.At(r, c)
			col := render.CellColor(cell)
			style := base.Foreground(tcell.NewRGBColor(int32(col.R), int32(col.G), int32(col.B)))
			t.screen.SetContent(c, r, render.Rune(cell), nil, style)
		}
	}

	state, _ := t.Read(ctx)
	status := []rune("armed:")
	for _, dir := range domain.Directions {
		if state.IsPressed(dir) {
			status = append(status, ' ')
			status = append(status, []rune(dir.String())...)
		}
	}
	width, _ := t.screen.Size()
	for x := 0; x < width; x++ {
		r := ' '
		if x < len(status) {
			r = status[x]
		}
		t.screen.SetContent(x, g.Rows(), r, nil, tcell.StyleDefault)
	}

	t.screen.Show()
	return nil
}

// Close restores the terminal and waits for the key reader to exit.
func (t *Terminal) Close() error {
	t.once.Do(func() {
		t.screen.Fini()
		<-t.done
	})
	return nil
}
