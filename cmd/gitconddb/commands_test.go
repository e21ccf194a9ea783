package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gitconddb/gitconddb"
	"github.com/gitconddb/gitconddb/internal/config"
	"github.com/gitconddb/gitconddb/internal/output"
)

func TestDumpSource_WritesFilesUnderTagAndSource(t *testing.T) {
	doc := `{"Cond":{"a":"a-content","b":"b-content"}}`
	db, err := gitconddb.Connect("json:" + doc)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer db.Disconnect()

	cacheRoot := t.TempDir()
	cfg := &config.Config{Store: config.StoreConfig{CacheDirectory: cacheRoot}}
	p := output.NewPrinter(output.FormatText)
	p.SetWriter(os.Stderr)

	if err := dumpSource(context.Background(), db, p, cfg, "HEAD", "Cond", 0); err != nil {
		t.Fatalf("dumpSource: %v", err)
	}

	for name, want := range map[string]string{"a": "a-content", "b": "b-content"} {
		got, err := os.ReadFile(filepath.Join(cacheRoot, "HEAD", "Cond", name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if string(got) != want {
			t.Fatalf("%s = %q, want %q", name, got, want)
		}
	}
}

func TestDumpSource_NoFilesWarnsWithoutError(t *testing.T) {
	doc := `{"Cond":{}}`
	db, err := gitconddb.Connect("json:" + doc)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer db.Disconnect()

	cfg := &config.Config{Store: config.StoreConfig{CacheDirectory: t.TempDir()}}
	p := output.NewPrinter(output.FormatText)
	p.SetWriter(os.Stderr)

	if err := dumpSource(context.Background(), db, p, cfg, "HEAD", "Cond", 0); err != nil {
		t.Fatalf("dumpSource: %v", err)
	}
}
