package store

import (
	"context"
	"os"
	"testing"
)

func TestDocBackend_GetBlob(t *testing.T) {
	b, err := NewDocBackend(`{"a": {"b.txt": "hello"}}`)
	if err != nil {
		t.Fatalf("NewDocBackend: %v", err)
	}
	obj, err := b.Get(context.Background(), "v1:a/b.txt")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if obj.IsDir || obj.Blob != "hello" {
		t.Fatalf("got %+v", obj)
	}
}

func TestDocBackend_GetDirectory(t *testing.T) {
	b, err := NewDocBackend(`{"a": {"b.txt": "hello", "c": {"d.txt": "x"}}}`)
	if err != nil {
		t.Fatalf("NewDocBackend: %v", err)
	}
	obj, err := b.Get(context.Background(), "v1:a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !obj.IsDir {
		t.Fatalf("expected directory")
	}
	if len(obj.Dir.Files) != 1 || obj.Dir.Files[0] != "b.txt" {
		t.Fatalf("unexpected files: %v", obj.Dir.Files)
	}
	if len(obj.Dir.Dirs) != 1 || obj.Dir.Dirs[0] != "c" {
		t.Fatalf("unexpected dirs: %v", obj.Dir.Dirs)
	}
}

func TestDocBackend_Unresolvable(t *testing.T) {
	b, err := NewDocBackend(`{"a": "x"}`)
	if err != nil {
		t.Fatalf("NewDocBackend: %v", err)
	}
	if _, err := b.Get(context.Background(), "v1:missing"); err == nil {
		t.Fatal("expected error for missing path")
	}
}

func TestDocBackend_Exists(t *testing.T) {
	b, err := NewDocBackend(`{"a": "x"}`)
	if err != nil {
		t.Fatalf("NewDocBackend: %v", err)
	}
	ctx := context.Background()
	if !b.Exists(ctx, "v1:a") {
		t.Fatal("expected v1:a to exist")
	}
	if b.Exists(ctx, "v1:missing") {
		t.Fatal("expected v1:missing to not exist")
	}
	if !b.Exists(ctx, "v1") {
		t.Fatal("expected tag-only id to exist")
	}
}

func TestDocBackend_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/doc.json"
	if err := os.WriteFile(path, []byte(`{"a": "x"}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	b, err := NewDocBackend(path)
	if err != nil {
		t.Fatalf("NewDocBackend: %v", err)
	}
	obj, err := b.Get(context.Background(), "v1:a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if obj.Blob != "x" {
		t.Fatalf("got %+v", obj)
	}
}
