package report

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Frontmatter is a YAML mapping that always serializes with sorted keys.
type Frontmatter struct {
	fields map[string]any
	keys   []string
}

// NewFrontmatter creates an empty Frontmatter.
func NewFrontmatter() *Frontmatter {
	return &Frontmatter{
		fields: make(map[string]any),
	}
}

// Set sets a value, keeping the key order sorted.
func (f *Frontmatter) Set(key string, value any) {
	if _, exists := f.fields[key]; !exists {
		f.keys = append(f.keys, key)
		sort.Strings(f.keys)
	}
	f.fields[key] = value
}

// Get retrieves a value.
func (f *Frontmatter) Get(key string) (any, bool) {
	val, ok := f.fields[key]
	return val, ok
}

// GetString retrieves a string value, or "" when missing or not a string.
func (f *Frontmatter) GetString(key string) string {
	s, _ := f.fields[key].(string)
	return s
}

// GetInt retrieves an int value, or 0 when missing or not an int.
func (f *Frontmatter) GetInt(key string) int {
	i, _ := f.fields[key].(int)
	return i
}

// Keys returns a copy of the sorted keys.
func (f *Frontmatter) Keys() []string {
	return append([]string(nil), f.keys...)
}

// MarshalYAML emits the fields in key order. tags are written flow style:
// [a, b].
func (f *Frontmatter) MarshalYAML() (any, error) {
	node := &yaml.Node{
		Kind:    yaml.MappingNode,
		Content: make([]*yaml.Node, 0, len(f.keys)*2),
	}

	for _, key := range f.keys {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: key}

		valueNode := &yaml.Node{}
		if tags, ok := f.fields[key].([]string); ok && key == "tags" {
			valueNode.Kind = yaml.SequenceNode
			valueNode.Style = yaml.FlowStyle
			for _, tag := range tags {
				valueNode.Content = append(valueNode.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: tag})
			}
		} else if err := valueNode.Encode(f.fields[key]); err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}

		node.Content = append(node.Content, keyNode, valueNode)
	}

	return node, nil
}

// Document is a markdown document with YAML frontmatter.
type Document struct {
	Frontmatter *Frontmatter
	Body        string
}

// Bytes serializes the document. Empty frontmatter is omitted.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer

	if d.Frontmatter != nil && len(d.Frontmatter.keys) > 0 {
		buf.WriteString("---\n")
		fm, err := yaml.Marshal(d.Frontmatter)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal frontmatter: %w", err)
		}
		buf.Write(fm)
		buf.WriteString("---\n\n")
	}

	buf.WriteString(d.Body)
	return buf.Bytes(), nil
}

// ParseDocument splits markdown into frontmatter and body. Content without
// a frontmatter block is all body.
func ParseDocument(content []byte) (*Document, error) {
	text := strings.ReplaceAll(string(content), "\r\n", "\n")

	rest, ok := strings.CutPrefix(text, "---\n")
	if !ok {
		return &Document{Frontmatter: NewFrontmatter(), Body: text}, nil
	}
	header, body, ok := strings.Cut(rest, "\n---\n")
	if !ok {
		return &Document{Frontmatter: NewFrontmatter(), Body: text}, nil
	}

	var data map[string]any
	if err := yaml.Unmarshal([]byte(header), &data); err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	fm := NewFrontmatter()
	for key, value := range data {
		fm.Set(key, value)
	}
	return &Document{Frontmatter: fm, Body: strings.TrimPrefix(body, "\n")}, nil
}
