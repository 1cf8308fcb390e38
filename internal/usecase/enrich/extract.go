package enrich

import (
	"fmt"
	"sort"

	"github.com/cortexa-labs/neurapipe/internal/domain"
	"github.com/cortexa-labs/neurapipe/internal/domain/document"
	"github.com/cortexa-labs/neurapipe/internal/domain/fieldmap"
)

// Step is one structural coordinate inside a field value: a map key or a
// list index.
type Step struct {
	Key   string
	Index int
	List  bool
}

// TextUnit is one extracted text fragment with the coordinates needed to
// write its inference result back to the exact same position. Units live for
// one processing call only.
type TextUnit struct {
	Source string
	Target string
	Coord  []Step
	Text   string
}

// Extract flattens the selected fields of a validated document into an
// ordered text unit sequence: selection-map entries in declaration order,
// list elements in list order, nested map keys in sorted order (pre-order
// traversal). Reassembly is coordinate-addressed, so the one invariant that
// matters is that results stay index-aligned with the returned units.
func Extract(fm fieldmap.Map, doc *document.Document) []TextUnit {
	var units []TextUnit
	for _, entry := range fm.Entries() {
		value, ok := doc.Get(entry.Source)
		if !ok || value == nil {
			continue
		}
		units = collect(units, entry, value, nil)
	}
	return units
}

func collect(units []TextUnit, entry fieldmap.Entry, value any, coord []Step) []TextUnit {
	switch v := value.(type) {
	case string:
		units = append(units, TextUnit{
			Source: entry.Source,
			Target: entry.Target,
			Coord:  append([]Step(nil), coord...),
			Text:   v,
		})
	case []any:
		for i, elem := range v {
			if elem == nil {
				continue
			}
			units = collect(units, entry, elem, append(coord, Step{Index: i, List: true}))
		}
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if v[k] == nil {
				continue
			}
			units = collect(units, entry, v[k], append(coord, Step{Key: k}))
		}
	}
	return units
}

// Reassemble writes one inference result per text unit back into the
// document at the unit's target path and structural coordinate, rebuilding
// the source field's list/map nesting shape around the results. The two
// sequences must be index-aligned; a length mismatch is a fatal integrity
// error, never coerced by truncation or padding.
func Reassemble(doc *document.Document, units []TextUnit, results []domain.InferenceResult) error {
	if len(units) != len(results) {
		return fmt.Errorf(
			"extracted %d text units but got %d inference results: %w",
			len(units), len(results), domain.ErrIntegrity,
		)
	}
	for i, unit := range units {
		current, _ := doc.Get(unit.Target)
		rebuilt, err := place(current, unit.Coord, results[i].Value())
		if err != nil {
			return fmt.Errorf("write result for field [%s]: %w", unit.Source, err)
		}
		if err := doc.Set(unit.Target, rebuilt); err != nil {
			return fmt.Errorf("write result for field [%s]: %w", unit.Source, err)
		}
	}
	return nil
}

// place descends the coordinate steps, creating mirror-shaped containers as
// needed, and returns the (possibly replaced) container with value in place.
func place(current any, steps []Step, value any) (any, error) {
	if len(steps) == 0 {
		return value, nil
	}
	step := steps[0]
	if step.List {
		list, ok := current.([]any)
		if current != nil && !ok {
			return nil, fmt.Errorf("target position is not a list")
		}
		for len(list) <= step.Index {
			list = append(list, nil)
		}
		child, err := place(list[step.Index], steps[1:], value)
		if err != nil {
			return nil, err
		}
		list[step.Index] = child
		return list, nil
	}
	m, ok := current.(map[string]any)
	if current != nil && !ok {
		return nil, fmt.Errorf("target position is not an object")
	}
	if m == nil {
		m = make(map[string]any)
	}
	child, err := place(m[step.Key], steps[1:], value)
	if err != nil {
		return nil, err
	}
	m[step.Key] = child
	return m, nil
}
