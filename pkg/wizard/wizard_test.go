package wizard

import (
	"path/filepath"
	"testing"

	"github.com/MateenKhan/tracedraw/internal/docstore"
)

func TestCreateJSONDocument(t *testing.T) {
	dir := t.TempDir()
	path, err := Create(Options{Name: "My Drawing", Dir: dir, Format: docstore.SourceTypeJSON})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if filepath.Base(path) != "document.json" {
		t.Errorf("path = %s, want document.json", path)
	}

	doc, _, err := docstore.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Name != "My Drawing" {
		t.Errorf("Name = %q, want %q", doc.Name, "My Drawing")
	}
	// A bare document has only the root and the base group.
	if len(doc.Nodes) != 2 {
		t.Errorf("got %d nodes, want 2", len(doc.Nodes))
	}
	if len(doc.Shapes) != 0 {
		t.Errorf("got %d shapes, want 0", len(doc.Shapes))
	}
}

func TestCreateSQLiteDocument(t *testing.T) {
	dir := t.TempDir()
	path, err := Create(Options{Name: "DB Drawing", Dir: dir, Format: docstore.SourceTypeSQLite})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if filepath.Base(path) != "document.db" {
		t.Errorf("path = %s, want document.db", path)
	}
	if _, _, err := docstore.Load(path); err != nil {
		t.Errorf("Load: %v", err)
	}
}

func TestCreateWithSampleShapes(t *testing.T) {
	dir := t.TempDir()
	path, err := Create(Options{Name: "Seeded", Dir: dir, Format: docstore.SourceTypeJSON, SampleShapes: true})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	doc, _, err := docstore.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// Root, base, and the seeded Sketch group.
	if len(doc.Nodes) != 3 {
		t.Errorf("got %d nodes, want 3", len(doc.Nodes))
	}
	if len(doc.Shapes) != 4 {
		t.Errorf("got %d shapes, want 4", len(doc.Shapes))
	}
	found := false
	for _, n := range doc.Nodes {
		if n.Name == "Sketch" {
			found = true
		}
	}
	if !found {
		t.Error("seeded Sketch group missing")
	}
}

func TestCreateRejectsEmptyName(t *testing.T) {
	if _, err := Create(Options{Name: "  ", Dir: t.TempDir()}); err == nil {
		t.Error("expected an error for an empty name")
	}
}

func TestCreateRefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	if _, err := Create(Options{Name: "first", Dir: dir, Format: docstore.SourceTypeJSON}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := Create(Options{Name: "second", Dir: dir, Format: docstore.SourceTypeJSON}); err == nil {
		t.Error("expected an error when the document already exists")
	}
}
