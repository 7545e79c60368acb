package wizard

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/dshills/ptwebhook/internal/payload"
	"github.com/dshills/ptwebhook/internal/template"
)

// Options configures wizard policy.
type Options struct {
	// StrictRequired blocks the preview while a required field is empty.
	StrictRequired bool

	// NewAttempt generates dispatch attempt IDs. Defaults to uuid.New.
	NewAttempt func() uuid.UUID
}

// Model is the complete wizard state.
type Model struct {
	templates []*template.Template
	selected  int
	state     State
	session   *Session
	notice    string
	opts      Options
}

// NewModel returns a Model in Selecting with the first template highlighted.
func NewModel(templates []*template.Template, opts Options) Model {
	if opts.NewAttempt == nil {
		opts.NewAttempt = uuid.New
	}
	return Model{
		templates: slices.Clone(templates),
		state:     Selecting{},
		opts:      opts,
	}
}

// Templates returns the template list.
func (m Model) Templates() []*template.Template {
	return slices.Clone(m.templates)
}

// Selected returns the highlighted template index.
func (m Model) Selected() int {
	return m.selected
}

// State returns the current state.
func (m Model) State() State {
	return m.state
}

// Session returns the active session, if any.
func (m Model) Session() (Session, bool) {
	if m.session == nil {
		return Session{}, false
	}
	return *m.session, true
}

// Notice returns a one-shot message for the user, or "".
func (m Model) Notice() string {
	return m.notice
}

// Message builds the message for the active session.
func (m Model) Message() (payload.Message, bool) {
	if m.session == nil {
		return payload.Message{}, false
	}
	return payload.Build(m.session.template, m.session.values), true
}

// Step applies in to m.
func Step(m Model, in Input) (Model, Command) {
	if _, ok := in.(Quit); ok {
		return m, Exit{}
	}
	if _, ok := in.(DispatchDone); !ok {
		m.notice = ""
	}

	switch s := m.state.(type) {
	case Selecting:
		return stepSelecting(m, in)
	case Editing:
		return stepEditing(m, s, in)
	case Previewing:
		return stepPreviewing(m, s, in)
	case Dispatching:
		return stepDispatching(m, s, in)
	case Completed:
		return stepCompleted(m, in)
	default:
		panic(fmt.Sprintf("wizard: unknown state %T", m.state))
	}
}

func stepSelecting(m Model, in Input) (Model, Command) {
	n := len(m.templates)
	switch in.(type) {
	case Next:
		if n > 0 {
			m.selected = (m.selected + 1) % n
		}
	case Prev:
		if n > 0 {
			m.selected = (m.selected - 1 + n) % n
		}
	case Confirm:
		if n == 0 {
			break
		}
		s := NewSession(m.templates[m.selected])
		m.session = &s
		m.state = Editing{Cursor: 0}
	}
	return m, None{}
}

func stepEditing(m Model, st Editing, in Input) (Model, Command) {
	s := *m.session
	t := s.template
	field := t.Field(st.Cursor)

	switch in := in.(type) {
	case Next:
		m.state = Editing{Cursor: min(st.Cursor+1, t.Len()-1)}
	case Prev:
		m.state = Editing{Cursor: max(st.Cursor-1, 0)}
	case Char:
		if in.Rune == '\n' && field.Kind != template.KindTextArea {
			break
		}
		next := s.with(field.Key, s.values[field.Key]+string(in.Rune))
		m.session = &next
	case Backspace:
		cur := s.values[field.Key]
		if cur != "" {
			next := s.with(field.Key, trimLastGrapheme(cur))
			m.session = &next
		}
	case NextOption, PrevOption:
		if !field.HasOptions() {
			break
		}
		delta := 1
		if _, back := in.(PrevOption); back {
			delta = -1
		}
		next := s.with(field.Key, cycleOption(field.Options, s.values[field.Key], delta))
		m.session = &next
	case Confirm:
		if m.opts.StrictRequired {
			if i := s.MissingRequired(); i >= 0 {
				m.state = Editing{Cursor: i}
				m.notice = fmt.Sprintf("%s is required", t.Field(i).Label)
				break
			}
		}
		m.state = Previewing{Cursor: st.Cursor}
	case Cancel:
		m.state = Selecting{}
	}
	return m, None{}
}

func stepPreviewing(m Model, st Previewing, in Input) (Model, Command) {
	switch in.(type) {
	case Confirm:
		attempt := m.opts.NewAttempt()
		msg, _ := m.Message()
		m.state = Dispatching{Cursor: st.Cursor, Attempt: attempt}
		return m, Dispatch{Attempt: attempt, Message: msg}
	case Cancel:
		m.state = Editing{Cursor: st.Cursor}
	}
	return m, None{}
}

func stepDispatching(m Model, st Dispatching, in Input) (Model, Command) {
	switch in := in.(type) {
	case DispatchDone:
		if in.Attempt != st.Attempt {
			break
		}
		m.state = Completed{Outcome: in.Outcome}
	case Cancel:
		m.state = Previewing{Cursor: st.Cursor}
		m.notice = "Dispatch cancelled"
		return m, CancelDispatch{Attempt: st.Attempt}
	}
	return m, None{}
}

func stepCompleted(m Model, in Input) (Model, Command) {
	switch in.(type) {
	case Confirm, Cancel:
		m.state = Selecting{}
		m.session = nil
	}
	return m, None{}
}
