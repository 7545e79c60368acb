package template

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaSource []byte

var documentSchema = mustCompileSchema(schemaSource)

func mustCompileSchema(src []byte) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(src))
	if err != nil {
		panic(fmt.Sprintf("template: invalid embedded schema: %v", err))
	}
	return s
}

// ErrSchema indicates a document that does not match the template schema.
var ErrSchema = errors.New("schema validation failed")

// SchemaError lists every schema violation found in a document.
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	if len(e.Violations) == 1 {
		return fmt.Sprintf("%v: %s", ErrSchema, e.Violations[0])
	}
	return fmt.Sprintf("%v: %d violations:\n  - %s", ErrSchema, len(e.Violations), strings.Join(e.Violations, "\n  - "))
}

func (e *SchemaError) Unwrap() error {
	return ErrSchema
}

// validateTree checks a generically decoded document against the schema.
func validateTree(tree map[string]any) error {
	if tree == nil {
		tree = map[string]any{}
	}
	result, err := documentSchema.Validate(gojsonschema.NewGoLoader(tree))
	if err != nil {
		return fmt.Errorf("validating document: %w", err)
	}
	if result.Valid() {
		return nil
	}

	se := &SchemaError{}
	for _, desc := range result.Errors() {
		se.Violations = append(se.Violations, desc.String())
	}
	return se
}
