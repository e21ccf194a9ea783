package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFSBackend_GetBlobAndDir(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "a", "c"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "a", "b.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	b, err := NewFSBackend(root)
	if err != nil {
		t.Fatalf("NewFSBackend: %v", err)
	}
	ctx := context.Background()

	obj, err := b.Get(ctx, "any:a/b.txt")
	if err != nil {
		t.Fatalf("Get blob: %v", err)
	}
	if obj.IsDir || obj.Blob != "hello" {
		t.Fatalf("got %+v", obj)
	}

	dirObj, err := b.Get(ctx, "any:a")
	if err != nil {
		t.Fatalf("Get dir: %v", err)
	}
	if !dirObj.IsDir {
		t.Fatal("expected directory")
	}
	if len(dirObj.Dir.Dirs) != 1 || dirObj.Dir.Dirs[0] != "c" {
		t.Fatalf("unexpected dirs: %v", dirObj.Dir.Dirs)
	}
	if len(dirObj.Dir.Files) != 1 || dirObj.Dir.Files[0] != "b.txt" {
		t.Fatalf("unexpected files: %v", dirObj.Dir.Files)
	}
}

func TestFSBackend_TagIgnored(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "f.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	b, err := NewFSBackend(root)
	if err != nil {
		t.Fatalf("NewFSBackend: %v", err)
	}
	ctx := context.Background()
	for _, tag := range []string{"v1", "v2", "whatever"} {
		obj, err := b.Get(ctx, tag+":f.txt")
		if err != nil || obj.Blob != "x" {
			t.Fatalf("tag %q: got %+v, err %v", tag, obj, err)
		}
	}
}

func TestFSBackend_Unresolvable(t *testing.T) {
	root := t.TempDir()
	b, err := NewFSBackend(root)
	if err != nil {
		t.Fatalf("NewFSBackend: %v", err)
	}
	if _, err := b.Get(context.Background(), "v1:missing.txt"); err == nil {
		t.Fatal("expected error")
	}
}

func TestFSBackend_NewRejectsNonDir(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "notadir")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := NewFSBackend(file); err == nil {
		t.Fatal("expected error for non-directory root")
	}
}
