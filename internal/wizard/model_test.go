package wizard

import (
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/dshills/ptwebhook/internal/dispatch"
	"github.com/dshills/ptwebhook/internal/payload"
	"github.com/dshills/ptwebhook/internal/template"
)

func textField(key, label, def string) template.Field {
	return template.Field{Key: key, FieldDefinition: template.FieldDefinition{
		Kind: template.KindText, Label: label, Default: def,
	}}
}

func mustTemplate(t *testing.T, id string, fields ...template.Field) *template.Template {
	t.Helper()
	tmpl, err := template.New(id, "Name "+id, "About "+id, template.WebhookSettings{}, fields...)
	if err != nil {
		t.Fatalf("template.New(%s): %v", id, err)
	}
	return tmpl
}

func fixedAttempts(ids ...uuid.UUID) func() uuid.UUID {
	i := 0
	return func() uuid.UUID {
		id := ids[i%len(ids)]
		i++
		return id
	}
}

// run feeds inputs in order and returns the final model and last command.
func run(m Model, inputs ...Input) (Model, Command) {
	var cmd Command = None{}
	for _, in := range inputs {
		m, cmd = Step(m, in)
	}
	return m, cmd
}

func cursorOf(t *testing.T, m Model) int {
	t.Helper()
	switch s := m.State().(type) {
	case Editing:
		return s.Cursor
	case Previewing:
		return s.Cursor
	case Dispatching:
		return s.Cursor
	default:
		t.Fatalf("state %s has no cursor", m.State().Name())
		return -1
	}
}

func TestSelecting_Wraps(t *testing.T) {
	m := NewModel([]*template.Template{
		mustTemplate(t, "a", textField("f", "F", "")),
		mustTemplate(t, "b", textField("f", "F", "")),
		mustTemplate(t, "c", textField("f", "F", "")),
	}, Options{})

	m, _ = Step(m, Prev{})
	if m.Selected() != 2 {
		t.Errorf("Prev from 0 = %d, want 2", m.Selected())
	}
	m, _ = Step(m, Next{})
	if m.Selected() != 0 {
		t.Errorf("Next from last = %d, want 0", m.Selected())
	}
	m, _ = run(m, Next{}, Next{})
	if m.Selected() != 2 {
		t.Errorf("Next twice = %d, want 2", m.Selected())
	}
}

func TestSelecting_EmptyList(t *testing.T) {
	m := NewModel(nil, Options{})
	m, cmd := run(m, Next{}, Prev{}, Confirm{})

	if _, ok := m.State().(Selecting); !ok {
		t.Fatalf("state = %s, want selecting", m.State().Name())
	}
	if _, ok := cmd.(None); !ok {
		t.Errorf("cmd = %T, want None", cmd)
	}
	if m.Selected() != 0 {
		t.Errorf("selected = %d", m.Selected())
	}
}

func TestEditing_Clamps(t *testing.T) {
	m := NewModel([]*template.Template{
		mustTemplate(t, "a", textField("x", "X", ""), textField("y", "Y", ""), textField("z", "Z", "")),
	}, Options{})
	m, _ = Step(m, Confirm{})

	m, _ = Step(m, Prev{})
	if got := cursorOf(t, m); got != 0 {
		t.Errorf("Prev at 0 = %d, want 0", got)
	}
	m, _ = run(m, Next{}, Next{}, Next{}, Next{})
	if got := cursorOf(t, m); got != 2 {
		t.Errorf("Next past end = %d, want 2", got)
	}
}

func TestConfirm_ReinitializesSession(t *testing.T) {
	m := NewModel([]*template.Template{
		mustTemplate(t, "a", textField("title", "Title", "draft"), textField("note", "Note", "")),
	}, Options{})

	m, _ = run(m, Confirm{}, Char{'!'}, Next{}, Char{'n'}, Cancel{})
	if _, ok := m.State().(Selecting); !ok {
		t.Fatalf("state = %s, want selecting", m.State().Name())
	}
	s, ok := m.Session()
	if !ok || s.Value("title") != "draft!" {
		t.Fatalf("values before reselect = %v", s.Values())
	}

	m, _ = Step(m, Confirm{})
	s, _ = m.Session()
	want := map[string]string{"title": "draft", "note": ""}
	if diff := cmp.Diff(want, s.Values()); diff != "" {
		t.Errorf("values after reselect (-want +got):\n%s", diff)
	}
	if got := cursorOf(t, m); got != 0 {
		t.Errorf("cursor = %d, want 0", got)
	}
}

func TestBackspace(t *testing.T) {
	m := NewModel([]*template.Template{mustTemplate(t, "a", textField("v", "V", "ab"))}, Options{})
	m, _ = Step(m, Confirm{})

	m, _ = Step(m, Backspace{})
	s, _ := m.Session()
	if got := s.Value("v"); got != "a" {
		t.Fatalf("after one backspace = %q, want %q", got, "a")
	}

	m, _ = run(m, Backspace{}, Backspace{}, Backspace{})
	s, _ = m.Session()
	if got := s.Value("v"); got != "" {
		t.Fatalf("after repeated backspace = %q, want empty", got)
	}
	if _, ok := m.State().(Editing); !ok {
		t.Errorf("state = %s, want editing", m.State().Name())
	}
}

func TestTrimLastGrapheme(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"a", ""},
		{"abc", "ab"},
		{"héllo", "héll"},
		{"ok👍", "ok"},
		{"é", ""},
		{"flag🇫🇷", "flag"},
		{"fam👨‍👩‍👧", "fam"},
	}
	for _, tt := range tests {
		if got := trimLastGrapheme(tt.in); got != tt.want {
			t.Errorf("trimLastGrapheme(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStep_DoesNotMutatePreviousModel(t *testing.T) {
	m0 := NewModel([]*template.Template{mustTemplate(t, "a", textField("v", "V", "keep"))}, Options{})
	m1, _ := Step(m0, Confirm{})
	m2, _ := Step(m1, Char{'x'})

	s1, _ := m1.Session()
	s2, _ := m2.Session()
	if s1.Value("v") != "keep" {
		t.Errorf("earlier model changed: %q", s1.Value("v"))
	}
	if s2.Value("v") != "keepx" {
		t.Errorf("new model = %q", s2.Value("v"))
	}
	if _, ok := m0.Session(); ok {
		t.Error("initial model gained a session")
	}

	vals := s2.Values()
	vals["v"] = "tampered"
	if s2.Value("v") != "keepx" {
		t.Error("Values leaked internal map")
	}
}

func TestOptions_Cycle(t *testing.T) {
	sel := template.Field{Key: "level", FieldDefinition: template.FieldDefinition{
		Kind: template.KindSelect, Label: "Level", Options: []string{"low", "mid", "high"}, Default: "high",
	}}
	m := NewModel([]*template.Template{mustTemplate(t, "a", sel, textField("t", "T", "plain"))}, Options{})
	m, _ = Step(m, Confirm{})

	value := func(m Model, key string) string {
		s, _ := m.Session()
		return s.Value(key)
	}

	m, _ = Step(m, NextOption{})
	if got := value(m, "level"); got != "low" {
		t.Errorf("NextOption from last = %q, want low", got)
	}
	m, _ = Step(m, PrevOption{})
	if got := value(m, "level"); got != "high" {
		t.Errorf("PrevOption from first = %q, want high", got)
	}
	m, _ = run(m, PrevOption{}, PrevOption{})
	if got := value(m, "level"); got != "low" {
		t.Errorf("PrevOption twice = %q, want low", got)
	}

	m, _ = run(m, Next{}, NextOption{})
	if got := value(m, "t"); got != "plain" {
		t.Errorf("NextOption on text field changed value to %q", got)
	}
}

func TestCycleOption_UnknownCurrent(t *testing.T) {
	opts := []string{"a", "b"}
	if got := cycleOption(opts, "", 1); got != "a" {
		t.Errorf("forward from unknown = %q", got)
	}
	if got := cycleOption(opts, "zz", -1); got != "b" {
		t.Errorf("backward from unknown = %q", got)
	}
}

func TestNewline_OnlyInTextArea(t *testing.T) {
	notes := template.Field{Key: "notes", FieldDefinition: template.FieldDefinition{Kind: template.KindTextArea, Label: "Notes"}}
	m := NewModel([]*template.Template{
		mustTemplate(t, "a", textField("title", "Title", ""), notes),
	}, Options{})

	m, _ = run(m, Confirm{}, Char{'a'}, Char{'\n'}, Char{'b'}, Next{}, Char{'x'}, Char{'\n'}, Char{'y'})
	s, _ := m.Session()
	if got := s.Value("title"); got != "ab" {
		t.Errorf("text field = %q, want newline dropped", got)
	}
	if got := s.Value("notes"); got != "x\ny" {
		t.Errorf("textarea = %q, want %q", got, "x\ny")
	}

	m, _ = Step(m, Backspace{})
	m, _ = Step(m, Backspace{})
	s, _ = m.Session()
	if got := s.Value("notes"); got != "x" {
		t.Errorf("after two backspaces = %q, want %q", got, "x")
	}
}

func TestStrictRequired(t *testing.T) {
	req := template.Field{Key: "who", FieldDefinition: template.FieldDefinition{
		Kind: template.KindText, Label: "Who", Required: true,
	}}
	tmpl := mustTemplate(t, "a", textField("x", "X", ""), req, textField("z", "Z", ""))

	t.Run("permissive", func(t *testing.T) {
		m := NewModel([]*template.Template{tmpl}, Options{})
		m, _ = run(m, Confirm{}, Confirm{})
		if _, ok := m.State().(Previewing); !ok {
			t.Fatalf("state = %s, want previewing", m.State().Name())
		}
	})

	t.Run("strict", func(t *testing.T) {
		m := NewModel([]*template.Template{tmpl}, Options{StrictRequired: true})
		m, _ = run(m, Confirm{}, Next{}, Next{}, Confirm{})
		if _, ok := m.State().(Editing); !ok {
			t.Fatalf("state = %s, want editing", m.State().Name())
		}
		if got := cursorOf(t, m); got != 1 {
			t.Errorf("cursor = %d, want 1", got)
		}
		if m.Notice() != "Who is required" {
			t.Errorf("notice = %q", m.Notice())
		}

		m, _ = run(m, Char{'m'}, Confirm{})
		if _, ok := m.State().(Previewing); !ok {
			t.Fatalf("state = %s, want previewing", m.State().Name())
		}
		if m.Notice() != "" {
			t.Errorf("notice not cleared: %q", m.Notice())
		}
	})
}

func TestDispatchFlow(t *testing.T) {
	first, second := uuid.New(), uuid.New()
	m := NewModel([]*template.Template{mustTemplate(t, "a", textField("v", "V", "hello"))},
		Options{NewAttempt: fixedAttempts(first, second)})

	m, cmd := run(m, Confirm{}, Confirm{}, Confirm{})
	d, ok := cmd.(Dispatch)
	if !ok {
		t.Fatalf("cmd = %T, want Dispatch", cmd)
	}
	if d.Attempt != first {
		t.Errorf("attempt = %v, want %v", d.Attempt, first)
	}
	if diff := cmp.Diff([]payload.Field{{Label: "V", Value: "hello"}}, d.Message.Fields); diff != "" {
		t.Errorf("message fields (-want +got):\n%s", diff)
	}

	// Edits are ignored while dispatching.
	m, _ = run(m, Char{'x'}, Backspace{}, Next{})
	s, _ := m.Session()
	if s.Value("v") != "hello" {
		t.Errorf("value changed while dispatching: %q", s.Value("v"))
	}

	m, _ = Step(m, DispatchDone{Attempt: second, Outcome: dispatch.Success{Status: 204}})
	if _, ok := m.State().(Dispatching); !ok {
		t.Fatalf("stale result accepted, state = %s", m.State().Name())
	}

	m, _ = Step(m, DispatchDone{Attempt: first, Outcome: dispatch.HTTPError{Status: 404, Body: "Not Found"}})
	done, ok := m.State().(Completed)
	if !ok {
		t.Fatalf("state = %s, want completed", m.State().Name())
	}
	if done.Outcome != (dispatch.HTTPError{Status: 404, Body: "Not Found"}) {
		t.Errorf("outcome = %#v", done.Outcome)
	}

	m, _ = Step(m, Cancel{})
	if _, ok := m.State().(Selecting); !ok {
		t.Fatalf("state = %s, want selecting", m.State().Name())
	}
	if _, ok := m.Session(); ok {
		t.Error("session kept after completion")
	}
}

func TestDispatching_Cancel(t *testing.T) {
	attempt := uuid.New()
	tmpl := mustTemplate(t, "a", textField("x", "X", ""), textField("y", "Y", "v"))
	m := NewModel([]*template.Template{tmpl}, Options{NewAttempt: fixedAttempts(attempt)})

	m, _ = run(m, Confirm{}, Next{}, Confirm{}, Confirm{})
	m, cmd := Step(m, Cancel{})

	if c, ok := cmd.(CancelDispatch); !ok || c.Attempt != attempt {
		t.Fatalf("cmd = %#v, want CancelDispatch{%v}", cmd, attempt)
	}
	if got := cursorOf(t, m); got != 1 {
		t.Errorf("cursor = %d, want 1", got)
	}
	if _, ok := m.State().(Previewing); !ok {
		t.Fatalf("state = %s, want previewing", m.State().Name())
	}

	// The late result of the cancelled attempt does nothing.
	m, _ = Step(m, DispatchDone{Attempt: attempt, Outcome: dispatch.Success{Status: 200}})
	if _, ok := m.State().(Previewing); !ok {
		t.Fatalf("late result moved state to %s", m.State().Name())
	}

	m, _ = Step(m, Cancel{})
	if got := cursorOf(t, m); got != 1 {
		t.Errorf("cursor back in editing = %d, want 1", got)
	}
}

func TestQuit_FromEveryState(t *testing.T) {
	tmpl := mustTemplate(t, "a", textField("v", "V", ""))
	base := NewModel([]*template.Template{tmpl}, Options{})

	paths := map[string][]Input{
		"selecting":   nil,
		"editing":     {Confirm{}},
		"previewing":  {Confirm{}, Confirm{}},
		"dispatching": {Confirm{}, Confirm{}, Confirm{}},
	}
	for name, path := range paths {
		t.Run(name, func(t *testing.T) {
			m, _ := run(base, path...)
			if m.State().Name() != name {
				t.Fatalf("state = %s, want %s", m.State().Name(), name)
			}
			_, cmd := Step(m, Quit{})
			if _, ok := cmd.(Exit); !ok {
				t.Errorf("cmd = %T, want Exit", cmd)
			}
		})
	}
}

func TestEndToEnd_DefaultsAndPreview(t *testing.T) {
	fsys := fstest.MapFS{
		"a.toml": {Data: []byte(`
[template]
name = "A"
description = "First"

[fields.headline]
type = "text"
label = "Headline"
default = "draft"

[fields.extra]
type = "text"
label = "Extra"
`)},
		"b.toml": {Data: []byte(`
[template]
name = "B"
description = "Second"

[fields.only]
type = "text"
label = "Only"
`)},
	}
	store, err := template.LoadFS(fsys)
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}
	if store.Len() != 2 {
		t.Fatalf("store.Len() = %d, want 2 (diagnostics %v)", store.Len(), store.Diagnostics())
	}

	m := NewModel(store.Templates(), Options{})
	m, _ = Step(m, Confirm{})

	s, _ := m.Session()
	if got := s.Value("headline"); got != "draft" {
		t.Fatalf("field 0 = %q, want draft", got)
	}

	m, _ = run(m, Char{'x'}, Next{}, Confirm{})
	if _, ok := m.State().(Previewing); !ok {
		t.Fatalf("state = %s, want previewing", m.State().Name())
	}

	msg, ok := m.Message()
	if !ok {
		t.Fatal("no message in preview")
	}
	want := []payload.Field{{Label: "Headline", Value: "draftx"}}
	if diff := cmp.Diff(want, msg.Fields); diff != "" {
		t.Errorf("preview fields (-want +got):\n%s", diff)
	}
}

func TestStep_UnknownStatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown state")
		}
	}()
	m := NewModel(nil, Options{})
	m.state = bogusState{}
	Step(m, Next{})
}

type bogusState struct{}

func (bogusState) state()       {}
func (bogusState) Name() string { return "bogus" }
