package template

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pelletier/go-toml/v2/unstable"
	"gopkg.in/yaml.v3"
)

// document mirrors the on-disk template layout.
type document struct {
	Template struct {
		Name        string `toml:"name" yaml:"name"`
		Description string `toml:"description" yaml:"description"`
	} `toml:"template" yaml:"template"`
	Fields  map[string]fieldDocument `toml:"fields" yaml:"fields"`
	Webhook webhookDocument          `toml:"webhook" yaml:"webhook"`
}

type fieldDocument struct {
	Type        string   `toml:"type" yaml:"type"`
	Label       string   `toml:"label" yaml:"label"`
	Placeholder string   `toml:"placeholder" yaml:"placeholder"`
	Required    bool     `toml:"required" yaml:"required"`
	Options     []string `toml:"options" yaml:"options"`
	Default     string   `toml:"default" yaml:"default"`
}

type webhookDocument struct {
	Username  string  `toml:"username" yaml:"username"`
	AvatarURL string  `toml:"avatar_url" yaml:"avatar_url"`
	Color     *uint32 `toml:"color" yaml:"color"`
}

// decoder turns raw file content into a generic tree (for schema checks),
// a typed document and the declared order of field keys.
type decoder interface {
	generic(data []byte) (map[string]any, error)
	typed(data []byte, doc *document) error
	fieldOrder(data []byte) ([]string, error)
}

// ErrUnsupportedFormat is returned for files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported template format")

func decoderFor(path string) (decoder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return tomlDecoder{}, nil
	case ".yaml", ".yml":
		return yamlDecoder{}, nil
	default:
		return nil, ErrUnsupportedFormat
	}
}

// supported reports whether path has a template file extension.
func supported(path string) bool {
	_, err := decoderFor(path)
	return err == nil
}

type tomlDecoder struct{}

func (tomlDecoder) generic(data []byte) (map[string]any, error) {
	var tree map[string]any
	if err := toml.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

func (tomlDecoder) typed(data []byte, doc *document) error {
	return toml.NewDecoder(bytes.NewReader(data)).Decode(doc)
}

// fieldOrder walks the TOML expressions in source order and records the
// first appearance of every key directly below the fields table. Tables
// ([fields.x]), dotted keys (fields.x.type = ...) and inline tables
// (fields = { x = {...} }) are all handled.
func (tomlDecoder) fieldOrder(data []byte) ([]string, error) {
	var (
		p       unstable.Parser
		current []string
		order   []string
		seen    = make(map[string]bool)
	)
	record := func(key string) {
		if !seen[key] {
			seen[key] = true
			order = append(order, key)
		}
	}

	p.Reset(data)
	for p.NextExpression() {
		expr := p.Expression()
		switch expr.Kind {
		case unstable.Table, unstable.ArrayTable:
			current = keyParts(expr)
			if len(current) >= 2 && current[0] == "fields" {
				record(current[1])
			}
		case unstable.KeyValue:
			full := append(append([]string(nil), current...), keyParts(expr)...)
			if len(full) == 0 || full[0] != "fields" {
				continue
			}
			if len(full) >= 2 {
				record(full[1])
				continue
			}
			if v := expr.Value(); v != nil && v.Kind == unstable.InlineTable {
				children := v.Children()
				for children.Next() {
					child := children.Node()
					if child.Kind != unstable.KeyValue {
						continue
					}
					if parts := keyParts(child); len(parts) > 0 {
						record(parts[0])
					}
				}
			}
		}
	}
	if err := p.Error(); err != nil {
		return nil, err
	}
	return order, nil
}

func keyParts(n *unstable.Node) []string {
	var parts []string
	it := n.Key()
	for it.Next() {
		parts = append(parts, string(it.Node().Data))
	}
	return parts
}

type yamlDecoder struct{}

func (yamlDecoder) generic(data []byte) (map[string]any, error) {
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

func (yamlDecoder) typed(data []byte, doc *document) error {
	return yaml.Unmarshal(data, doc)
}

// fieldOrder reads the key order of the fields mapping from the node tree;
// yaml.Node keeps mapping entries in document order.
func (yamlDecoder) fieldOrder(data []byte) ([]string, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, nil
	}
	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a mapping at document root, got %s", nodeKind(top))
	}

	for i := 0; i+1 < len(top.Content); i += 2 {
		if top.Content[i].Value != "fields" {
			continue
		}
		fields := top.Content[i+1]
		if fields.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("fields: expected a mapping, got %s", nodeKind(fields))
		}
		order := make([]string, 0, len(fields.Content)/2)
		for j := 0; j+1 < len(fields.Content); j += 2 {
			order = append(order, fields.Content[j].Value)
		}
		return order, nil
	}
	return nil, nil
}

func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
}
