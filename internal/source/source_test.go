package source

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeExport(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestFileProvider_Document(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "doc-a.json", `{
		"id": "doc-a",
		"title": "Alpha monograph",
		"sections": [{"id": "s1", "reading_order": 1}],
		"mentions": [{"concept_id": "c-alpha", "label": "Alpha", "char_start": 0, "char_end": 5, "section_id": "s1"}]
	}`)

	p := NewFileProvider(dir)
	doc, err := p.Document(context.Background(), "doc-a")
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if doc.ID != "doc-a" || doc.Title != "Alpha monograph" {
		t.Errorf("unexpected document header: %q / %q", doc.ID, doc.Title)
	}
	if len(doc.Sections) != 1 || doc.Sections[0].ReadingOrder != 1 {
		t.Errorf("sections not parsed: %+v", doc.Sections)
	}
	if len(doc.Mentions) != 1 || doc.Mentions[0].ConceptID != "c-alpha" {
		t.Errorf("mentions not parsed: %+v", doc.Mentions)
	}
}

func TestFileProvider_Missing(t *testing.T) {
	p := NewFileProvider(t.TempDir())
	if _, err := p.Document(context.Background(), "ghost"); err == nil {
		t.Error("expected error for missing document")
	}
}

func TestLoadFile_IDFallback(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "doc-b.json", `{"sections": [], "mentions": []}`)

	doc, err := LoadFile(filepath.Join(dir, "doc-b.json"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if doc.ID != "doc-b" {
		t.Errorf("expected filename fallback id doc-b, got %q", doc.ID)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "bad.json", `{not json`)
	if _, err := LoadFile(filepath.Join(dir, "bad.json")); err == nil {
		t.Error("expected parse error")
	}
}

func TestFileProvider_List(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "doc-b.json", `{}`)
	writeExport(t, dir, "doc-a.json", `{}`)
	writeExport(t, dir, "notes.txt", "ignore me")
	if err := os.Mkdir(filepath.Join(dir, "nested.json"), 0o755); err != nil {
		t.Fatal(err)
	}

	ids, err := NewFileProvider(dir).List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if want := []string{"doc-a", "doc-b"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("List = %v, want %v", ids, want)
	}
}
