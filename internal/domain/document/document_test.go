package document

import "testing"

func TestGet(t *testing.T) {
	doc := New(map[string]any{
		"title": "hello",
		"meta":  map[string]any{"author": map[string]any{"name": "kim"}},
		"tags":  []any{"a"},
	})

	if v, ok := doc.Get("title"); !ok || v != "hello" {
		t.Errorf("top-level get failed: %v %v", v, ok)
	}
	if v, ok := doc.Get("meta.author.name"); !ok || v != "kim" {
		t.Errorf("nested get failed: %v %v", v, ok)
	}
	if _, ok := doc.Get("missing"); ok {
		t.Error("missing field must report false")
	}
	if _, ok := doc.Get("title.sub"); ok {
		t.Error("descending through a string must report false")
	}
	if _, ok := doc.Get("tags.0"); ok {
		t.Error("lists are not path-addressable")
	}
}

func TestSet(t *testing.T) {
	doc := New(map[string]any{"meta": map[string]any{"author": "kim"}})

	if err := doc.Set("title_embedding", []float32{0.1}); err != nil {
		t.Fatalf("top-level set: %v", err)
	}
	if err := doc.Set("meta.vector", []float32{0.2}); err != nil {
		t.Fatalf("nested set: %v", err)
	}
	if err := doc.Set("a.b.c", "deep"); err != nil {
		t.Fatalf("set with created intermediates: %v", err)
	}
	if v, ok := doc.Get("a.b.c"); !ok || v != "deep" {
		t.Errorf("intermediate maps not created: %v %v", v, ok)
	}

	if err := doc.Set("meta.author.sub", "x"); err == nil {
		t.Error("expected error writing through a string segment")
	}
}

func TestNew_NilSource(t *testing.T) {
	doc := New(nil)
	if err := doc.Set("k", "v"); err != nil {
		t.Fatalf("set on nil source: %v", err)
	}
	if v, ok := doc.Get("k"); !ok || v != "v" {
		t.Errorf("unexpected value: %v %v", v, ok)
	}
}
