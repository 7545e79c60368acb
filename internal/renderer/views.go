package renderer

import (
	"fmt"
	"strings"

	"github.com/dshills/ptwebhook/internal/dispatch"
	"github.com/dshills/ptwebhook/internal/renderer/core"
	"github.com/dshills/ptwebhook/internal/template"
	"github.com/dshills/ptwebhook/internal/wizard"
)

func (r *Renderer) selecting(m wizard.Model, st Status, area core.Rect) {
	templates := m.Templates()
	muted := core.NewStyle(r.theme.Muted)

	summary := fmt.Sprintf("%d template(s)", len(templates))
	if st.TemplateDir != "" {
		summary += " in " + st.TemplateDir
	}
	if st.Skipped > 0 {
		summary += fmt.Sprintf(" · %d file(s) skipped", st.Skipped)
	}
	r.text(area.Left, area.Top, area.Width(), summary, muted)

	if len(templates) == 0 {
		r.text(area.Left, area.Top+2, area.Width(), "No templates found.", core.NewStyle(r.theme.Warning).Bold())
		r.text(area.Left, area.Top+3, area.Width(), "Add .toml or .yaml files to the template directory and restart.", muted)
		return
	}

	list := area.Inset(2, 0, 0, 0)
	rows := list.Height() / 2
	if rows < 1 {
		return
	}
	first := scrollOffset(m.Selected(), len(templates), rows)

	for i := first; i < len(templates) && i < first+rows; i++ {
		t := templates[i]
		y := list.Top + (i-first)*2
		swatch := core.NewStyle(r.accent(t))

		nameStyle := core.NewStyle(r.theme.Text)
		marker := "  "
		if i == m.Selected() {
			nameStyle = nameStyle.Bold().Reverse()
			marker = "▶ "
		}
		r.text(list.Left, y, 2, marker, core.NewStyle(r.theme.Accent).Bold())
		r.text(list.Left+2, y, 2, "■ ", swatch)
		r.text(list.Left+4, y, list.Width()-4, " "+t.Name+" ", nameStyle)

		desc := fmt.Sprintf("%s · %d field(s)", t.Description, t.Len())
		r.text(list.Left+5, y+1, list.Width()-5, core.Truncate(desc, list.Width()-5), muted)
	}
}

func (r *Renderer) editing(m wizard.Model, cursor int, area core.Rect) {
	s, ok := m.Session()
	if !ok {
		return
	}
	t := s.Template()
	accent := r.accent(t)
	muted := core.NewStyle(r.theme.Muted)

	r.text(area.Left, area.Top, area.Width(), t.Name, core.NewStyle(accent).Bold())
	r.text(area.Left, area.Top+1, area.Width(), core.Truncate(t.Description, area.Width()), muted)

	form := area.Inset(3, 0, 0, 0)
	const rowsPerField = 3
	rows := form.Height() / rowsPerField
	if rows < 1 {
		return
	}
	first := scrollOffset(cursor, t.Len(), rows)
	inner := form.Width() - 4

	for i := first; i < t.Len() && i < first+rows; i++ {
		f := t.Field(i)
		y := form.Top + (i-first)*rowsPerField
		active := i == cursor

		label := f.Label
		if f.Required {
			label += " *"
		}
		labelStyle := r.faded(accent)
		if active {
			labelStyle = core.NewStyle(accent).Bold()
		}
		r.text(form.Left, y, form.Width(), label, labelStyle)
		r.text(form.Left+core.StringWidth(label)+1, y, form.Width(), "("+string(f.Kind)+")", muted)

		marker := "  "
		if active {
			marker = "› "
		}
		r.text(form.Left, y+1, 2, marker, core.NewStyle(accent).Bold())

		value := s.Value(f.Key)
		switch {
		case f.HasOptions():
			r.options(form.Left+2, y+1, inner, f, value, active)
		case value == "":
			r.text(form.Left+2, y+1, inner, f.Placeholder, muted.Italic())
			if active {
				r.backend.ShowCursor(form.Left+2, y+1)
			}
		default:
			shown := strings.ReplaceAll(value, "\n", "⏎")
			if active {
				shown = tail(shown, inner-1)
			} else {
				shown = core.Truncate(shown, inner)
			}
			used := r.text(form.Left+2, y+1, inner, shown, core.NewStyle(r.theme.Text))
			if active {
				r.backend.ShowCursor(form.Left+2+used, y+1)
			}
		}
	}

	if t.Len() > rows {
		pos := fmt.Sprintf("field %d/%d", cursor+1, t.Len())
		r.text(area.Right-core.StringWidth(pos), area.Top, core.StringWidth(pos), pos, muted)
	}
}

// options draws a select field as "◀ value ▶  (i/n)".
func (r *Renderer) options(x, y, width int, f template.Field, value string, active bool) {
	style := core.NewStyle(r.theme.Text)
	if active {
		style = style.Bold()
	}
	pos := 0
	for i, o := range f.Options {
		if o == value {
			pos = i + 1
			break
		}
	}
	shown := value
	if shown == "" {
		shown = f.Placeholder
		if shown == "" {
			shown = "choose"
		}
	}
	used := r.text(x, y, width, "◀ "+shown+" ▶", style)
	r.text(x+used+2, y, width-used-2, fmt.Sprintf("(%d/%d)", pos, len(f.Options)), core.NewStyle(r.theme.Muted))
}

type styledLine struct {
	text  string
	style core.Style
}

func (r *Renderer) preview(m wizard.Model, area core.Rect) {
	msg, ok := m.Message()
	if !ok {
		return
	}
	s, _ := m.Session()
	accent := r.accent(s.Template())

	muted := core.NewStyle(r.theme.Muted)
	text := core.NewStyle(r.theme.Text)
	stripe := core.Cell{Rune: '▌', Width: 1, Style: core.NewStyle(accent)}

	inner := area.Width() - 3
	var lines []styledLine
	add := func(s string, style core.Style) {
		for _, l := range wrap(s, inner) {
			lines = append(lines, styledLine{text: l, style: style})
		}
	}

	if msg.Username != "" {
		add(msg.Username, core.NewStyle(accent).Bold())
	}
	add(msg.Title, text.Bold())
	if msg.Body != "" {
		add(msg.Body, text)
	}
	if len(msg.Fields) == 0 {
		add("", text)
		add("(no fields filled in)", muted.Italic())
	}
	for _, f := range msg.Fields {
		add("", text)
		add(f.Label, text.Bold())
		add(f.Value, text)
	}

	height := min(len(lines), area.Height()-2)
	for i := 0; i < height; i++ {
		y := area.Top + i
		r.backend.SetCell(area.Left, y, stripe)
		r.text(area.Left+2, y, inner, lines[i].text, lines[i].style)
	}
	if len(lines) > height {
		r.text(area.Left+2, area.Top+height, inner, fmt.Sprintf("… %d more line(s)", len(lines)-height), muted)
	}

	color := "default"
	if msg.Color != nil {
		color = core.ColorFromUint32(*msg.Color).String()
	}
	r.text(area.Left, area.Bottom-1, area.Width(), fmt.Sprintf("%d field(s) · color %s", len(msg.Fields), color), muted)
}

func (r *Renderer) dispatching(m wizard.Model, st Status, area core.Rect) {
	frame := spinnerFrames[st.Frame%len(spinnerFrames)]
	popup := area.Centered(44, 5)
	if popup.IsEmpty() {
		return
	}
	style := core.NewStyle(r.theme.Warning)
	r.box(popup, "Sending", style)

	line := fmt.Sprintf("%s Sending message… %.1fs", frame, st.Elapsed.Seconds())
	r.text(popup.Left+2, popup.Top+2, popup.Width()-4, line, style.Bold())
}

func (r *Renderer) completed(s wizard.Completed, area core.Rect) {
	style := core.NewStyle(r.theme.Success)
	title, headline := "Success", "Message delivered"
	if !s.Outcome.OK() {
		style = core.NewStyle(r.theme.Failure)
		title, headline = "Error", "Message not delivered"
	}

	inner := min(area.Width(), 70) - 4
	body := wrap(s.Outcome.Summary(), inner)
	if ne, ok := s.Outcome.(dispatch.NetworkError); ok {
		body = append(body, "", "kind: "+ne.Kind.String())
	}

	popup := area.Centered(inner+4, len(body)+5)
	r.box(popup, title, style)
	r.text(popup.Left+2, popup.Top+1, inner, headline, style.Bold())
	for i, l := range body {
		if popup.Top+3+i >= popup.Bottom-1 {
			break
		}
		r.text(popup.Left+2, popup.Top+3+i, inner, l, core.NewStyle(r.theme.Text))
	}
}

// scrollOffset returns the first visible index so that sel stays in a
// window of size rows.
func scrollOffset(sel, n, rows int) int {
	if n <= rows || sel < rows/2 {
		return 0
	}
	return min(sel-rows/2, n-rows)
}
