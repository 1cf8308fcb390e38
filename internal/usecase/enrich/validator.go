package enrich

import (
	"strings"

	"github.com/cortexa-labs/neurapipe/internal/domain"
	"github.com/cortexa-labs/neurapipe/internal/domain/document"
	"github.com/cortexa-labs/neurapipe/internal/domain/fieldmap"
)

// Validate checks every selected field of doc against the policy before any
// text is extracted. The first violation aborts the whole call with a
// *domain.ValidationError naming the offending field. Missing and nil fields
// are skipped. Safe to call concurrently on distinct documents.
func Validate(fm fieldmap.Map, doc *document.Document, policy domain.ValidationPolicy) error {
	for _, entry := range fm.Entries() {
		value, ok := doc.Get(entry.Source)
		if !ok || value == nil {
			continue
		}
		switch v := value.(type) {
		case map[string]any, []any:
			if err := validateNested(entry.Source, v, 1, policy); err != nil {
				return err
			}
		case string:
			if !policy.AllowEmpty && strings.TrimSpace(v) == "" {
				return domain.NewValidationError(entry.Source, "has empty string value")
			}
		default:
			return domain.NewValidationError(entry.Source, "is neither string nor nested type")
		}
	}
	return nil
}

// validateNested walks a container value with an explicit depth counter.
// depth starts at 1 for a value one mapping level inside the field and
// increments per additional mapping level; exceeding policy.MaxDepth is
// terminal, never truncated.
func validateNested(field string, value any, depth int, policy domain.ValidationPolicy) error {
	if depth > policy.MaxDepth {
		return domain.NewValidationError(field, "reached max depth limit")
	}
	switch v := value.(type) {
	case []any:
		return validateList(field, v, depth, policy)
	case map[string]any:
		for _, child := range v {
			if child == nil {
				continue
			}
			if err := validateNested(field, child, depth+1, policy); err != nil {
				return err
			}
		}
		return nil
	case string:
		if !policy.AllowEmpty && strings.TrimSpace(v) == "" {
			return domain.NewValidationError(field, "has empty string")
		}
		return nil
	default:
		return domain.NewValidationError(field, "has non-string type")
	}
}

// validateList checks list elements where the field is selected for
// inference. A nil element is always rejected. Map elements recurse with one
// more mapping level. List elements (a list inside a list) are only checked
// for text-only leaves; the blank-string and depth policies deliberately do
// not apply there.
func validateList(field string, list []any, depth int, policy domain.ValidationPolicy) error {
	for _, elem := range list {
		switch e := elem.(type) {
		case nil:
			return domain.NewValidationError(field, "has null")
		case string:
			if !policy.AllowEmpty && strings.TrimSpace(e) == "" {
				return domain.NewValidationError(field, "has empty string")
			}
		case map[string]any:
			if err := validateNested(field, e, depth+1, policy); err != nil {
				return err
			}
		case []any:
			if err := validateTextLeaves(field, e); err != nil {
				return err
			}
		default:
			return domain.NewValidationError(field, "has non string value")
		}
	}
	return nil
}

// validateTextLeaves accepts arbitrarily nested lists whose leaves are all
// non-nil strings.
func validateTextLeaves(field string, list []any) error {
	for _, elem := range list {
		switch e := elem.(type) {
		case nil:
			return domain.NewValidationError(field, "has null")
		case string:
			// leaf ok
		case []any:
			if err := validateTextLeaves(field, e); err != nil {
				return err
			}
		default:
			return domain.NewValidationError(field, "has non string value")
		}
	}
	return nil
}
