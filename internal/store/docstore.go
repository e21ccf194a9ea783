package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/gitconddb/gitconddb/internal/iov"
)

// DocBackend is the in-memory hierarchical-document back-end. Its source
// is either a document literal (any string containing "{") or a path to a
// file containing one; it's parsed once with encoding/json — a
// hierarchical document is exactly a JSON object of strings and nested
// objects, so no document-tree library beyond the standard decoder earns
// its keep here.
type DocBackend struct {
	root map[string]any
}

// NewDocBackend parses source (an inline "{...}" literal or a file path)
// into a DocBackend.
func NewDocBackend(source string) (*DocBackend, error) {
	var raw []byte
	if strings.Contains(source, "{") {
		raw = []byte(source)
	} else {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, &initError{root: source, err: err}
		}
		raw = data
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &initError{root: source, err: err}
	}
	return &DocBackend{root: doc}, nil
}

// segments splits a path on "/", dropping empty components.
func segments(path string) []string {
	if path == "" {
		return nil
	}
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (d *DocBackend) walk(path string) (any, bool) {
	var node any = d.root
	for _, seg := range segments(path) {
		obj, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		child, ok := obj[seg]
		if !ok {
			return nil, false
		}
		node = child
	}
	return node, true
}

// Exists returns true for any id without ":" (tag-only), matching the
// filesystem back-end's convention, and otherwise whether the path
// resolves to a node.
func (d *DocBackend) Exists(_ context.Context, objectID string) bool {
	_, path := SplitObjectID(objectID)
	if path == "" && !hasColon(objectID) {
		return true
	}
	_, ok := d.walk(path)
	return ok
}

// Get resolves the path component of objectID against the document.
func (d *DocBackend) Get(_ context.Context, objectID string) (Object, error) {
	_, path := SplitObjectID(objectID)
	node, ok := d.walk(path)
	if !ok {
		return Object{}, unresolvable(objectID)
	}

	switch v := node.(type) {
	case string:
		return Object{Blob: v}, nil
	case map[string]any:
		dir := Directory{Root: path}
		for key, child := range v {
			switch child.(type) {
			case map[string]any:
				dir.Dirs = append(dir.Dirs, key)
			case string:
				dir.Files = append(dir.Files, key)
			default:
				return Object{}, invalidType(fmt.Sprintf("%s/%s", objectID, key))
			}
		}
		sort.Strings(dir.Dirs)
		sort.Strings(dir.Files)
		return Object{IsDir: true, Dir: dir}, nil
	default:
		return Object{}, invalidType(objectID)
	}
}

// CommitTime always returns MaxTime: an in-memory document has no commit
// history.
func (d *DocBackend) CommitTime(context.Context, string) (iov.TimePoint, error) {
	return iov.MaxTime, nil
}

// Disconnect is a no-op; the document back-end remains "connected".
func (d *DocBackend) Disconnect() error { return nil }

// Connected is always true for the document back-end.
func (d *DocBackend) Connected() bool { return true }
