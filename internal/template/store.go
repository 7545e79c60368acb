package template

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// DefaultDir is the template directory used when none is configured.
const DefaultDir = "templates"

// ErrDuplicateID indicates two files map to the same template ID.
var ErrDuplicateID = errors.New("duplicate template id")

// LoadError is returned when the template directory itself cannot be read.
type LoadError struct {
	Op   string
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s templates %s: %v", e.Op, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Diagnostic records a template file that was skipped during loading.
type Diagnostic struct {
	Path string
	Err  error
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s: %v", d.Path, d.Err)
}

// Store is the read-only set of loaded templates.
type Store struct {
	dir         string
	templates   []*Template
	byID        map[string]*Template
	diagnostics []Diagnostic
}

// Option configures loading.
type Option func(*loadOptions)

type loadOptions struct {
	logger *zap.Logger
}

// WithLogger reports skipped files through logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *loadOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Load reads every template file in dir.
// A missing directory yields an empty store.
func Load(dir string, opts ...Option) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return newStore(dir), nil
		}
		return nil, &LoadError{Op: "stat", Path: dir, Err: err}
	}
	if !info.IsDir() {
		return nil, &LoadError{Op: "read", Path: dir, Err: errors.New("not a directory")}
	}
	return load(os.DirFS(dir), dir, opts...)
}

// LoadFS reads every template file at the root of fsys.
func LoadFS(fsys fs.FS, opts ...Option) (*Store, error) {
	return load(fsys, "", opts...)
}

func load(fsys fs.FS, dir string, opts ...Option) (*Store, error) {
	o := loadOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, &LoadError{Op: "read", Path: dir, Err: err}
	}

	s := newStore(dir)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !supported(name) {
			continue
		}

		display := name
		if dir != "" {
			display = filepath.Join(dir, name)
		}

		t, err := parseFile(fsys, name)
		if err == nil {
			if _, dup := s.byID[t.ID]; dup {
				err = fmt.Errorf("%w %q", ErrDuplicateID, t.ID)
			}
		}
		if err != nil {
			s.diagnostics = append(s.diagnostics, Diagnostic{Path: display, Err: err})
			o.logger.Warn("skipping template", zap.String("path", display), zap.Error(err))
			continue
		}

		s.templates = append(s.templates, t)
		s.byID[t.ID] = t
		o.logger.Debug("loaded template",
			zap.String("id", t.ID),
			zap.String("path", display),
			zap.Strings("fields", t.Keys()),
		)
	}

	o.logger.Info("templates loaded",
		zap.String("dir", dir),
		zap.Int("count", len(s.templates)),
		zap.Int("skipped", len(s.diagnostics)),
	)
	return s, nil
}

func newStore(dir string) *Store {
	return &Store{
		dir:  dir,
		byID: make(map[string]*Template),
	}
}

func parseFile(fsys fs.FS, name string) (*Template, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}
	return Parse(name, data)
}

// Parse decodes, validates and builds a single template. The format is
// chosen from the extension of name and the ID from its base name.
func Parse(name string, data []byte) (*Template, error) {
	dec, err := decoderFor(name)
	if err != nil {
		return nil, err
	}
	id := strings.TrimSuffix(path.Base(name), path.Ext(name))

	tree, err := dec.generic(data)
	if err != nil {
		return nil, fmt.Errorf("decoding: %w", err)
	}
	if err := validateTree(tree); err != nil {
		return nil, err
	}

	var doc document
	if err := dec.typed(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding: %w", err)
	}
	order, err := dec.fieldOrder(data)
	if err != nil {
		return nil, fmt.Errorf("reading field order: %w", err)
	}
	if len(order) != len(doc.Fields) {
		return nil, fmt.Errorf("field order lists %d keys, document has %d", len(order), len(doc.Fields))
	}

	fields := make([]Field, 0, len(order))
	for _, key := range order {
		fd, ok := doc.Fields[key]
		if !ok {
			return nil, fmt.Errorf("field %q missing from document", key)
		}
		fields = append(fields, Field{
			Key: key,
			FieldDefinition: FieldDefinition{
				Kind:        ParseKind(fd.Type),
				Label:       fd.Label,
				Placeholder: fd.Placeholder,
				Required:    fd.Required,
				Options:     fd.Options,
				Default:     fd.Default,
			},
		})
	}

	return New(id, doc.Template.Name, doc.Template.Description, WebhookSettings{
		Username:  doc.Webhook.Username,
		AvatarURL: doc.Webhook.AvatarURL,
		Color:     doc.Webhook.Color,
	}, fields...)
}

// Dir returns the directory the store was loaded from.
func (s *Store) Dir() string {
	return s.dir
}

// Len returns the number of templates.
func (s *Store) Len() int {
	return len(s.templates)
}

// At returns the template at position i.
func (s *Store) At(i int) *Template {
	return s.templates[i]
}

// Templates returns the loaded templates in file-name order.
func (s *Store) Templates() []*Template {
	out := make([]*Template, len(s.templates))
	copy(out, s.templates)
	return out
}

// Get returns the template with the given ID.
func (s *Store) Get(id string) (*Template, bool) {
	t, ok := s.byID[id]
	return t, ok
}

// Diagnostics returns the files skipped while loading.
func (s *Store) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(s.diagnostics))
	copy(out, s.diagnostics)
	return out
}
