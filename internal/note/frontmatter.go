package note

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Frontmatter is a YAML mapping that remembers the order its keys were
// written in. Values are whatever yaml.v3 decodes them to (string, bool,
// int, float64, time.Time, []interface{}, map[string]interface{}, nil).
type Frontmatter struct {
	keys   []string
	values map[string]interface{}
}

// NewFrontmatter returns an empty, non-nil frontmatter mapping.
func NewFrontmatter() *Frontmatter {
	return &Frontmatter{values: make(map[string]interface{})}
}

// Len returns the number of keys.
func (f *Frontmatter) Len() int {
	if f == nil {
		return 0
	}
	return len(f.keys)
}

// Keys returns the keys in mapping order.
func (f *Frontmatter) Keys() []string {
	if f == nil {
		return nil
	}
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Has reports whether key is present.
func (f *Frontmatter) Has(key string) bool {
	if f == nil {
		return false
	}
	_, ok := f.values[key]
	return ok
}

// Get returns the value for key.
func (f *Frontmatter) Get(key string) (interface{}, bool) {
	if f == nil {
		return nil, false
	}
	v, ok := f.values[key]
	return v, ok
}

// GetString returns the value for key if it is a YAML string.
func (f *Frontmatter) GetString(key string) (string, bool) {
	v, ok := f.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Set stores value under key. New keys are appended; existing keys keep
// their position.
func (f *Frontmatter) Set(key string, value interface{}) {
	if f.values == nil {
		f.values = make(map[string]interface{})
	}
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
}

// Delete removes key if present.
func (f *Frontmatter) Delete(key string) {
	if !f.Has(key) {
		return
	}
	delete(f.values, key)
	for i, k := range f.keys {
		if k == key {
			f.keys = append(f.keys[:i], f.keys[i+1:]...)
			break
		}
	}
}

// Clone returns a deep-enough copy: the key order and top-level mapping are
// copied, nested values are shared.
func (f *Frontmatter) Clone() *Frontmatter {
	if f == nil {
		return nil
	}
	out := NewFrontmatter()
	for _, k := range f.keys {
		out.Set(k, f.values[k])
	}
	return out
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (f *Frontmatter) UnmarshalYAML(node *yaml.Node) error {
	return f.decodeNode(node)
}

func (f *Frontmatter) decodeNode(node *yaml.Node) error {
	if f.values == nil {
		f.values = make(map[string]interface{})
	}
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil
		}
		node = node.Content[0]
	}
	switch node.Kind {
	case 0:
		return nil
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil
		}
		return fmt.Errorf("line %d: frontmatter must be a mapping, got scalar %q", node.Line, node.Value)
	case yaml.MappingNode:
	default:
		return fmt.Errorf("line %d: frontmatter must be a mapping", node.Line)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]
		var key string
		if err := keyNode.Decode(&key); err != nil {
			return fmt.Errorf("line %d: decode key: %w", keyNode.Line, err)
		}
		var value interface{}
		if err := valueNode.Decode(&value); err != nil {
			return fmt.Errorf("line %d: decode %q: %w", valueNode.Line, key, err)
		}
		f.Set(key, value)
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler, emitting keys in mapping order.
func (f *Frontmatter) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range f.keys {
		keyNode := &yaml.Node{}
		keyNode.SetString(k)
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(f.values[k]); err != nil {
			return nil, fmt.Errorf("encode %q: %w", k, err)
		}
		node.Content = append(node.Content, keyNode, valueNode)
	}
	return node, nil
}

// decodeFrontmatter parses raw YAML text into a Frontmatter. Empty or
// comment-only text yields an empty mapping.
func decodeFrontmatter(raw string) (*Frontmatter, error) {
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &node); err != nil {
		return nil, err
	}
	fm := NewFrontmatter()
	if err := fm.decodeNode(&node); err != nil {
		return nil, err
	}
	return fm, nil
}

// encodeFrontmatter renders fm as YAML with two-space indentation. An empty
// mapping renders as the empty string so the block reads "---\n---\n".
func encodeFrontmatter(fm *Frontmatter) (string, error) {
	if fm.Len() == 0 {
		return "", nil
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
