package backend

import (
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/ptwebhook/internal/renderer/core"
)

// Terminal draws on the controlling terminal through tcell.
type Terminal struct {
	mu        sync.Mutex
	screen    tcell.Screen
	trueColor bool
}

// NewTerminal creates a terminal backend. The terminal is not touched
// until Init.
func NewTerminal() (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return &Terminal{screen: screen}, nil
}

// Init switches the terminal to the alternate screen and raw input.
func (t *Terminal) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.screen.Init(); err != nil {
		return err
	}
	t.trueColor = t.screen.Colors() >= 1<<24
	t.screen.SetStyle(tcell.StyleDefault)
	t.screen.HideCursor()
	return nil
}

// Shutdown restores the terminal. A blocked PollEvent then returns
// EventClosed.
func (t *Terminal) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Fini()
}

func (t *Terminal) Size() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.screen.Size()
}

func (t *Terminal) SetCell(x, y int, cell core.Cell) {
	if cell.IsContinuation() {
		// tcell advances past wide runes on its own
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.SetContent(x, y, cell.Rune, cell.Combining, tcellStyle(cell.Style))
}

func (t *Terminal) Fill(rect core.Rect, cell core.Cell) {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, h := t.screen.Size()
	clip := core.Rect{Top: max(rect.Top, 0), Left: max(rect.Left, 0), Bottom: min(rect.Bottom, h), Right: min(rect.Right, w)}
	if clip.IsEmpty() {
		return
	}
	style := tcellStyle(cell.Style)
	for y := clip.Top; y < clip.Bottom; y++ {
		for x := clip.Left; x < clip.Right; x++ {
			t.screen.SetContent(x, y, cell.Rune, nil, style)
		}
	}
}

func (t *Terminal) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Clear()
}

func (t *Terminal) Show() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Show()
}

// ShowCursor places a steady bar cursor, the text-entry caret.
func (t *Terminal) ShowCursor(x, y int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.SetCursorStyle(tcell.CursorStyleSteadyBar)
	t.screen.ShowCursor(x, y)
}

func (t *Terminal) HideCursor() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.HideCursor()
}

// PollEvent blocks without holding the lock so drawing can continue.
func (t *Terminal) PollEvent() Event {
	ev := t.screen.PollEvent()
	if ev == nil {
		return Event{Type: EventClosed}
	}
	return fromTcell(ev)
}

// HasTrueColor reports whether the terminal advertises 24-bit color.
// It is only meaningful after Init.
func (t *Terminal) HasTrueColor() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.trueColor
}

// tcellStyle maps a core style onto tcell. RGB colors are passed through;
// tcell reduces them to the palette on terminals without true color.
func tcellStyle(s core.Style) tcell.Style {
	style := tcell.StyleDefault
	if !s.Foreground.IsDefault() {
		style = style.Foreground(tcellColor(s.Foreground))
	}
	if !s.Background.IsDefault() {
		style = style.Background(tcellColor(s.Background))
	}

	a := s.Attributes
	return style.
		Bold(a.Has(core.AttrBold)).
		Dim(a.Has(core.AttrDim)).
		Italic(a.Has(core.AttrItalic)).
		Underline(a.Has(core.AttrUnderline)).
		Reverse(a.Has(core.AttrReverse))
}

func tcellColor(c core.Color) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// keys lists the tcell keys the wizard reacts to. Everything else
// arrives as KeyNone.
var keys = map[tcell.Key]Key{
	tcell.KeyRune:       KeyRune,
	tcell.KeyEscape:     KeyEscape,
	tcell.KeyEnter:      KeyEnter,
	tcell.KeyTab:        KeyTab,
	tcell.KeyBacktab:    KeyBacktab,
	tcell.KeyBackspace:  KeyBackspace,
	tcell.KeyBackspace2: KeyBackspace,
	tcell.KeyUp:         KeyUp,
	tcell.KeyDown:       KeyDown,
	tcell.KeyLeft:       KeyLeft,
	tcell.KeyRight:      KeyRight,
	tcell.KeyCtrlC:      KeyCtrlC,
	tcell.KeyCtrlQ:      KeyCtrlQ,
}

func fromTcell(ev tcell.Event) Event {
	switch e := ev.(type) {
	case *tcell.EventKey:
		var mod ModMask
		if e.Modifiers()&tcell.ModCtrl != 0 {
			mod |= ModCtrl
		}
		if e.Modifiers()&tcell.ModAlt != 0 {
			mod |= ModAlt
		}
		return Event{Type: EventKey, Key: keys[e.Key()], Rune: e.Rune(), Mod: mod}

	case *tcell.EventResize:
		w, h := e.Size()
		return Event{Type: EventResize, Width: w, Height: h}

	default:
		return Event{Type: EventNone}
	}
}
