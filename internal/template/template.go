package template

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Kind identifies how a field is edited and displayed.
type Kind string

// Field kinds.
const (
	KindText     Kind = "text"
	KindTextArea Kind = "textarea"
	KindSelect   Kind = "select"
	KindNumber   Kind = "number"
	KindURL      Kind = "url"
	KindEmail    Kind = "email"
)

// ParseKind maps a document type name to a Kind.
// Unknown names are treated as free text.
func ParseKind(s string) Kind {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindText, KindTextArea, KindSelect, KindNumber, KindURL, KindEmail:
		return k
	default:
		return KindText
	}
}

// FieldDefinition describes a single form field.
type FieldDefinition struct {
	Kind        Kind
	Label       string
	Placeholder string
	Required    bool
	Options     []string
	Default     string
}

// HasOptions reports whether the field is restricted to a fixed option list.
func (d FieldDefinition) HasOptions() bool {
	return len(d.Options) > 0
}

// Field is a keyed field definition.
type Field struct {
	Key string
	FieldDefinition
}

// WebhookSettings controls how the dispatched message is presented.
type WebhookSettings struct {
	Username  string
	AvatarURL string
	// Color is the embed accent color (0xRRGGBB), nil when not configured.
	Color *uint32
}

// Template is an immutable form definition.
type Template struct {
	ID          string
	Name        string
	Description string
	Webhook     WebhookSettings

	fields []Field
	index  map[string]int
}

// Errors returned while building templates.
var (
	// ErrDuplicateField indicates two fields share a key.
	ErrDuplicateField = errors.New("duplicate field key")

	// ErrNoFields indicates a template without fields.
	ErrNoFields = errors.New("template has no fields")

	// ErrMissingOptions indicates a select field without options.
	ErrMissingOptions = errors.New("select field requires options")

	// ErrInvalidDefault indicates a default value outside the option list.
	ErrInvalidDefault = errors.New("default is not one of the options")
)

// New builds a template from fields given in display order.
func New(id, name, description string, webhook WebhookSettings, fields ...Field) (*Template, error) {
	if len(fields) == 0 {
		return nil, ErrNoFields
	}

	t := &Template{
		ID:          id,
		Name:        name,
		Description: description,
		Webhook:     webhook,
		fields:      make([]Field, 0, len(fields)),
		index:       make(map[string]int, len(fields)),
	}

	for _, f := range fields {
		if _, dup := t.index[f.Key]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateField, f.Key)
		}
		if err := checkField(f); err != nil {
			return nil, err
		}
		f.Options = slices.Clone(f.Options)
		t.index[f.Key] = len(t.fields)
		t.fields = append(t.fields, f)
	}

	return t, nil
}

func checkField(f Field) error {
	if f.Kind == KindSelect && !f.HasOptions() {
		return fmt.Errorf("field %q: %w", f.Key, ErrMissingOptions)
	}
	if f.HasOptions() && f.Default != "" && !slices.Contains(f.Options, f.Default) {
		return fmt.Errorf("field %q: %w: %q", f.Key, ErrInvalidDefault, f.Default)
	}
	return nil
}

// Len returns the number of fields.
func (t *Template) Len() int {
	return len(t.fields)
}

// Field returns the field at position i.
func (t *Template) Field(i int) Field {
	return t.fields[i]
}

// Fields returns the fields in declaration order.
// The returned slice is a copy.
func (t *Template) Fields() []Field {
	return slices.Clone(t.fields)
}

// Keys returns the field keys in declaration order.
func (t *Template) Keys() []string {
	keys := make([]string, len(t.fields))
	for i, f := range t.fields {
		keys[i] = f.Key
	}
	return keys
}

// Lookup returns the field with the given key.
func (t *Template) Lookup(key string) (Field, bool) {
	i, ok := t.index[key]
	if !ok {
		return Field{}, false
	}
	return t.fields[i], true
}

// InitialValues returns a value map holding every field's default, or "".
func (t *Template) InitialValues() map[string]string {
	values := make(map[string]string, len(t.fields))
	for _, f := range t.fields {
		values[f.Key] = f.Default
	}
	return values
}
