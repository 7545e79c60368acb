package renderer

import (
	"fmt"
	"time"

	"github.com/dshills/ptwebhook/internal/renderer/backend"
	"github.com/dshills/ptwebhook/internal/renderer/core"
	"github.com/dshills/ptwebhook/internal/template"
	"github.com/dshills/ptwebhook/internal/wizard"
)

// Status carries application state shown alongside the wizard.
type Status struct {
	// Endpoint is the redacted target URL.
	Endpoint string

	// TemplateDir is where templates were loaded from.
	TemplateDir string

	// Skipped is the number of template files that failed to load.
	Skipped int

	// Notice is an application message such as a template change on disk.
	Notice string

	// Frame advances the dispatching spinner.
	Frame int

	// Elapsed is the time spent in the current dispatch.
	Elapsed time.Duration
}

// Theme holds the colors used by the views.
type Theme struct {
	Accent  core.Color
	Text    core.Color
	Muted   core.Color
	Success core.Color
	Failure core.Color
	Warning core.Color
}

// DefaultTheme returns the default color theme.
func DefaultTheme() Theme {
	return Theme{
		Accent:  core.ColorBlurple,
		Text:    core.ColorDefault,
		Muted:   core.ColorGray,
		Success: core.ColorGreen,
		Failure: core.ColorRed,
		Warning: core.ColorYellow,
	}
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithTheme sets the color theme.
func WithTheme(t Theme) Option {
	return func(r *Renderer) {
		r.theme = t
	}
}

// Renderer draws wizard models on a backend.
type Renderer struct {
	backend backend.Backend
	theme   Theme
}

// New creates a renderer drawing on b.
func New(b backend.Backend, opts ...Option) *Renderer {
	r := &Renderer{backend: b, theme: DefaultTheme()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Render draws m and st and flushes the screen.
func (r *Renderer) Render(m wizard.Model, st Status) {
	b := r.backend
	b.Clear()
	b.HideCursor()

	w, h := b.Size()
	if w < 20 || h < 8 {
		r.text(0, 0, w, "Terminal too small", core.NewStyle(r.theme.Warning))
		b.Show()
		return
	}

	r.header(m, st, w)
	body := core.Rect{Bottom: h, Right: w}.Inset(2, 2, 3, 2)

	switch s := m.State().(type) {
	case wizard.Selecting:
		r.selecting(m, st, body)
	case wizard.Editing:
		r.editing(m, s.Cursor, body)
	case wizard.Previewing:
		r.preview(m, body)
	case wizard.Dispatching:
		r.dispatching(m, st, body)
	case wizard.Completed:
		r.completed(s, body)
	default:
		panic(fmt.Sprintf("renderer: unknown state %T", m.State()))
	}

	notice := m.Notice()
	if notice == "" {
		notice = st.Notice
	}
	if notice != "" {
		r.text(1, h-2, w-2, notice, core.NewStyle(r.theme.Warning).Bold())
	}
	r.text(1, h-1, w-2, hints(m.State()), core.NewStyle(r.theme.Muted))

	b.Show()
}

func (r *Renderer) header(m wizard.Model, st Status, w int) {
	bar := core.NewStyle(r.theme.Accent.Contrast()).WithBackground(r.theme.Accent)
	r.backend.Fill(core.Rect{Bottom: 1, Right: w}, core.Cell{Rune: ' ', Width: 1, Style: bar})

	title := " PTWebhook · " + stateTitle(m.State())
	used := r.text(0, 0, w, title, bar.Bold())

	if st.Endpoint != "" {
		ep := st.Endpoint + " "
		ew := core.StringWidth(ep)
		if used+2+ew <= w {
			r.text(w-ew, 0, ew, ep, bar)
		}
	}
}

func stateTitle(s wizard.State) string {
	switch s.(type) {
	case wizard.Selecting:
		return "Select a template"
	case wizard.Editing:
		return "Fill in the fields"
	case wizard.Previewing:
		return "Preview"
	case wizard.Dispatching:
		return "Sending"
	case wizard.Completed:
		return "Result"
	default:
		panic(fmt.Sprintf("renderer: unknown state %T", s))
	}
}

func hints(s wizard.State) string {
	switch s.(type) {
	case wizard.Selecting:
		return "↑/k ↓/j move · Enter select · q quit"
	case wizard.Editing:
		return "↑/↓ Tab field · ←/→ option · Alt+Enter newline · Enter preview · Esc back · Ctrl+Q quit"
	case wizard.Previewing:
		return "Enter send · Esc edit · q quit"
	case wizard.Dispatching:
		return "Esc cancel · q quit"
	case wizard.Completed:
		return "Enter back to templates · q quit"
	default:
		panic(fmt.Sprintf("renderer: unknown state %T", s))
	}
}

// accent returns the template's embed color, or the theme accent.
func (r *Renderer) accent(t *template.Template) core.Color {
	if t != nil && t.Webhook.Color != nil {
		return core.ColorFromUint32(*t.Webhook.Color)
	}
	return r.theme.Accent
}

// faded returns a subdued style tinted with c, or dimmed muted text on
// terminals without true color.
func (r *Renderer) faded(c core.Color) core.Style {
	if r.backend.HasTrueColor() && !c.IsDefault() {
		return core.NewStyle(c.Blend(r.theme.Muted, fadeAmount))
	}
	return core.NewStyle(r.theme.Muted).Dim()
}

const fadeAmount = 0.6

// text draws s at (x, y) clipped to width columns and returns the
// number of columns used.
func (r *Renderer) text(x, y, width int, s string, style core.Style) int {
	used := 0
	for _, c := range core.CellsFromString(s, style) {
		if used >= width {
			break
		}
		if c.Width > 1 && used+c.Width > width {
			break
		}
		r.backend.SetCell(x+used, y, c)
		used++
	}
	return used
}

// box draws a rounded frame around rect with an optional title.
func (r *Renderer) box(rect core.Rect, title string, style core.Style) {
	if rect.Width() < 2 || rect.Height() < 2 {
		return
	}
	set := func(x, y int, ch rune) {
		r.backend.SetCell(x, y, core.Cell{Rune: ch, Width: 1, Style: style})
	}
	right, bottom := rect.Right-1, rect.Bottom-1
	for x := rect.Left + 1; x < right; x++ {
		set(x, rect.Top, '─')
		set(x, bottom, '─')
	}
	for y := rect.Top + 1; y < bottom; y++ {
		set(rect.Left, y, '│')
		set(right, y, '│')
	}
	set(rect.Left, rect.Top, '╭')
	set(right, rect.Top, '╮')
	set(rect.Left, bottom, '╰')
	set(right, bottom, '╯')

	if title != "" {
		r.text(rect.Left+2, rect.Top, rect.Width()-4, " "+title+" ", style.Bold())
	}
}
