package wizard

import (
	"maps"

	"github.com/rivo/uniseg"

	"github.com/dshills/ptwebhook/internal/template"
)

// Session holds the values entered for one template.
// A Session is never modified in place; edits return a new Session.
type Session struct {
	template *template.Template
	values   map[string]string
}

// NewSession starts a session for t with every field set to its
// default, or "".
func NewSession(t *template.Template) Session {
	return Session{template: t, values: t.InitialValues()}
}

// Template returns the session's template.
func (s Session) Template() *template.Template {
	return s.template
}

// Value returns the value entered for key.
func (s Session) Value(key string) string {
	return s.values[key]
}

// Values returns a copy of all entered values.
func (s Session) Values() map[string]string {
	return maps.Clone(s.values)
}

// MissingRequired returns the index of the first required field whose
// value is empty, or -1.
func (s Session) MissingRequired() int {
	for i, f := range s.template.Fields() {
		if f.Required && s.values[f.Key] == "" {
			return i
		}
	}
	return -1
}

func (s Session) with(key, value string) Session {
	values := maps.Clone(s.values)
	values[key] = value
	return Session{template: s.template, values: values}
}

// trimLastGrapheme removes the final user-perceived character of v.
func trimLastGrapheme(v string) string {
	if v == "" {
		return v
	}
	last := 0
	g := uniseg.NewGraphemes(v)
	for g.Next() {
		last, _ = g.Positions()
	}
	return v[:last]
}

// cycleOption returns the option after (or before) current, wrapping.
// A value not among the options moves to the first (or last) option.
func cycleOption(options []string, current string, delta int) string {
	n := len(options)
	i := -1
	for j, o := range options {
		if o == current {
			i = j
			break
		}
	}
	if i < 0 {
		if delta > 0 {
			return options[0]
		}
		return options[n-1]
	}
	return options[((i+delta)%n+n)%n]
}
