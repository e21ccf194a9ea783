package resolve

import (
	"encoding/json"

	"github.com/gitconddb/gitconddb/internal/store"
)

// dirDocument is the canonical JSON shape of a directory listing, per
// spec.md §6 "Default directory rendering".
type dirDocument struct {
	Dirs  []string `json:"dirs"`
	Files []string `json:"files"`
	Root  string   `json:"root"`
}

// DefaultDirConverter renders a directory listing as the canonical
// document string {"dirs":[...],"files":[...],"root":"..."}.
func DefaultDirConverter(dir store.Directory) (string, error) {
	doc := dirDocument{Dirs: dir.Dirs, Files: dir.Files, Root: dir.Root}
	if doc.Dirs == nil {
		doc.Dirs = []string{}
	}
	if doc.Files == nil {
		doc.Files = []string{}
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
