package document

import (
	"fmt"
	"strings"
)

// Document is a nested field map owned exclusively by one processing call.
// Values are strings, nested map[string]any, []any, or nil (the shapes JSON
// decoding produces). The enrichment step mutates it in place.
type Document struct {
	source map[string]any
}

// New wraps a source field map. The map is not copied; the caller hands over
// ownership for the duration of the processing call.
func New(source map[string]any) *Document {
	if source == nil {
		source = make(map[string]any)
	}
	return &Document{source: source}
}

// Source returns the underlying field map.
func (d *Document) Source() map[string]any { return d.source }

// Get resolves a dotted field path through nested maps.
// Returns (nil, false) when any segment is missing or a non-map intervenes.
func (d *Document) Get(path string) (any, bool) {
	segments := strings.Split(path, ".")
	var cur any = d.source
	for _, seg := range segments {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set writes a value at a dotted field path, creating intermediate maps.
// Fails if an intermediate segment exists with a non-map value.
func (d *Document) Set(path string, value any) error {
	segments := strings.Split(path, ".")
	m := d.source
	for _, seg := range segments[:len(segments)-1] {
		child, ok := m[seg]
		if !ok {
			next := make(map[string]any)
			m[seg] = next
			m = next
			continue
		}
		childMap, ok := child.(map[string]any)
		if !ok {
			return fmt.Errorf("field [%s] is not an object, cannot write into it", seg)
		}
		m = childMap
	}
	m[segments[len(segments)-1]] = value
	return nil
}
