// Package fieldmap defines the field-selection map driving enrichment: which
// source fields are sent for inference and where each result is written.
package fieldmap

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Entry maps one source field path to the target path its inference result
// is written to. Paths may be dotted to address nested objects.
type Entry struct {
	Source string
	Target string
}

// Map is an ordered field-selection map. Iteration order is declaration
// order, which fixes the extraction order of text units.
type Map struct {
	entries []Entry
}

// New validates and creates a Map from ordered entries.
func New(entries []Entry) (Map, error) {
	if len(entries) == 0 {
		return Map{}, fmt.Errorf("field map has no entries")
	}
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.Source) == "" || strings.TrimSpace(e.Target) == "" {
			return Map{}, fmt.Errorf("field map has invalid key or value")
		}
		if _, dup := seen[e.Source]; dup {
			return Map{}, fmt.Errorf("field map has duplicate source field %q", e.Source)
		}
		seen[e.Source] = struct{}{}
	}
	return Map{entries: append([]Entry(nil), entries...)}, nil
}

// Entries returns the entries in declaration order.
func (m Map) Entries() []Entry { return m.entries }

// Len returns the number of entries.
func (m Map) Len() int { return len(m.entries) }

// UnmarshalYAML decodes a YAML mapping preserving document order.
func (m *Map) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("field_map must be a mapping")
	}
	entries := make([]Entry, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var src, dst string
		if err := node.Content[i].Decode(&src); err != nil {
			return fmt.Errorf("field_map key: %w", err)
		}
		if err := node.Content[i+1].Decode(&dst); err != nil {
			return fmt.Errorf("field_map value for %q: %w", src, err)
		}
		entries = append(entries, Entry{Source: src, Target: dst})
	}
	parsed, err := New(entries)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
