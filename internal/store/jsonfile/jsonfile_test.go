package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mzevk/estate-api/internal/model"
)

func TestPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	id, err := s.Insert(ctx, "blog", model.Record{"title": "kept"})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if _, err := s.Delete(ctx, "blog", id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	// A fresh store over the same directory must see the same counter
	// state: the deleted id is never handed out again.
	reopened, err := New(dir)
	if err != nil {
		t.Fatalf("New() reopen error = %v", err)
	}
	next, err := reopened.Insert(ctx, "blog", model.Record{"title": "after restart"})
	if err != nil {
		t.Fatalf("Insert() after reopen error = %v", err)
	}
	if next != id+1 {
		t.Errorf("id after reopen = %d, want %d", next, id+1)
	}
}

func TestOnDiskShape(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := s.Insert(ctx, "videos", model.Record{"title": "t", "youtubeId": "y"}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "videos.json"))
	if err != nil {
		t.Fatalf("reading collection file: %v", err)
	}

	var f struct {
		NextID int64            `json:"nextId"`
		Items  []map[string]any `json:"items"`
	}
	if err := json.Unmarshal(raw, &f); err != nil {
		t.Fatalf("collection file is not valid JSON: %v", err)
	}
	if f.NextID != 2 {
		t.Errorf("nextId = %d, want 2", f.NextID)
	}
	if len(f.Items) != 1 || f.Items[0]["youtubeId"] != "y" {
		t.Errorf("items = %v", f.Items)
	}

	// No stray temp files may survive a successful save.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
}

func TestCorruptFileReported(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "blog.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := s.List(context.Background(), "blog"); err == nil {
		t.Fatal("List() should report a corrupt collection file, not silently reset it")
	}
}
