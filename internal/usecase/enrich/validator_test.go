package enrich

import (
	"errors"
	"strings"
	"testing"

	"github.com/cortexa-labs/neurapipe/internal/domain"
	"github.com/cortexa-labs/neurapipe/internal/domain/document"
	"github.com/cortexa-labs/neurapipe/internal/domain/fieldmap"
)

func mustFieldMap(t *testing.T, entries ...fieldmap.Entry) fieldmap.Map {
	t.Helper()
	fm, err := fieldmap.New(entries)
	if err != nil {
		t.Fatalf("field map: %v", err)
	}
	return fm
}

func singleField(t *testing.T, source string) fieldmap.Map {
	t.Helper()
	return mustFieldMap(t, fieldmap.Entry{Source: source, Target: source + "_embedding"})
}

func defaultPolicy() domain.ValidationPolicy {
	return domain.ValidationPolicy{MaxDepth: 20, AllowEmpty: false}
}

func TestValidate_StringField(t *testing.T) {
	fm := singleField(t, "title")

	t.Run("valid string passes", func(t *testing.T) {
		doc := document.New(map[string]any{"title": "hello world"})
		if err := Validate(fm, doc, defaultPolicy()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("blank string rejected", func(t *testing.T) {
		doc := document.New(map[string]any{"title": "   "})
		err := Validate(fm, doc, defaultPolicy())
		if err == nil {
			t.Fatal("expected error")
		}
		var vErr *domain.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %T", err)
		}
		if vErr.Field != "title" {
			t.Errorf("expected field title, got %q", vErr.Field)
		}
	})

	t.Run("blank string allowed with AllowEmpty", func(t *testing.T) {
		doc := document.New(map[string]any{"title": ""})
		policy := domain.ValidationPolicy{MaxDepth: 20, AllowEmpty: true}
		if err := Validate(fm, doc, policy); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("missing field skipped", func(t *testing.T) {
		doc := document.New(map[string]any{"other": "value"})
		if err := Validate(fm, doc, defaultPolicy()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("nil field skipped", func(t *testing.T) {
		doc := document.New(map[string]any{"title": nil})
		if err := Validate(fm, doc, defaultPolicy()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestValidate_RejectsNonTextTypes(t *testing.T) {
	fm := singleField(t, "title")

	for name, value := range map[string]any{
		"number":  42.0,
		"boolean": true,
	} {
		t.Run(name, func(t *testing.T) {
			doc := document.New(map[string]any{"title": value})
			err := Validate(fm, doc, defaultPolicy())
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), "neither string nor nested type") {
				t.Errorf("unexpected message: %v", err)
			}
		})
	}
}

func TestValidate_DepthLimit(t *testing.T) {
	fm := singleField(t, "nested")
	policy := domain.ValidationPolicy{MaxDepth: 3}

	t.Run("within limit passes", func(t *testing.T) {
		// depth 3: nested -> a -> b holds the string
		doc := document.New(map[string]any{
			"nested": map[string]any{"a": map[string]any{"b": "text"}},
		})
		if err := Validate(fm, doc, policy); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("beyond limit rejected", func(t *testing.T) {
		doc := document.New(map[string]any{
			"nested": map[string]any{"a": map[string]any{"b": map[string]any{"c": "text"}}},
		})
		err := Validate(fm, doc, policy)
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "max depth limit") {
			t.Errorf("expected depth error, got: %v", err)
		}
		if !errors.Is(err, domain.ErrValidation) {
			t.Error("expected ErrValidation")
		}
	})

	t.Run("limit applies to any branch", func(t *testing.T) {
		doc := document.New(map[string]any{
			"nested": map[string]any{
				"shallow": "ok",
				"deep":    map[string]any{"a": map[string]any{"b": map[string]any{"c": "text"}}},
			},
		})
		if err := Validate(fm, doc, policy); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestValidate_Lists(t *testing.T) {
	fm := singleField(t, "chunks")

	t.Run("string list passes", func(t *testing.T) {
		doc := document.New(map[string]any{"chunks": []any{"one", "two"}})
		if err := Validate(fm, doc, defaultPolicy()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("null element always rejected", func(t *testing.T) {
		doc := document.New(map[string]any{"chunks": []any{"one", nil}})
		err := Validate(fm, doc, defaultPolicy())
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "has null") {
			t.Errorf("unexpected message: %v", err)
		}
	})

	t.Run("blank element rejected", func(t *testing.T) {
		doc := document.New(map[string]any{"chunks": []any{"one", " "}})
		if err := Validate(fm, doc, defaultPolicy()); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("non-string element rejected", func(t *testing.T) {
		doc := document.New(map[string]any{"chunks": []any{"one", 2.0}})
		if err := Validate(fm, doc, defaultPolicy()); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("map element recurses with depth", func(t *testing.T) {
		policy := domain.ValidationPolicy{MaxDepth: 2}
		doc := document.New(map[string]any{
			"chunks": []any{map[string]any{"a": map[string]any{"b": "too deep"}}},
		})
		err := Validate(fm, doc, policy)
		if err == nil {
			t.Fatal("expected depth error")
		}
		if !strings.Contains(err.Error(), "max depth limit") {
			t.Errorf("unexpected message: %v", err)
		}
	})

	t.Run("list of lists checks text leaves only", func(t *testing.T) {
		// Blank strings pass inside a nested list; only non-strings fail.
		doc := document.New(map[string]any{"chunks": []any{[]any{"a", ""}}})
		if err := Validate(fm, doc, defaultPolicy()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		doc = document.New(map[string]any{"chunks": []any{[]any{"a", 1.0}}})
		if err := Validate(fm, doc, defaultPolicy()); err == nil {
			t.Fatal("expected error for non-string leaf")
		}

		doc = document.New(map[string]any{"chunks": []any{[]any{[]any{nil}}}})
		if err := Validate(fm, doc, defaultPolicy()); err == nil {
			t.Fatal("expected error for null leaf")
		}
	})
}

func TestValidate_DottedSourcePath(t *testing.T) {
	fm := mustFieldMap(t, fieldmap.Entry{Source: "meta.title", Target: "meta.title_embedding"})
	doc := document.New(map[string]any{"meta": map[string]any{"title": "hello"}})
	if err := Validate(fm, doc, defaultPolicy()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
