// Package jsonstore reads and writes the flat JSON collection files that
// Flash Gig originally kept all of its data in: one pretty-printed array per
// collection in a single directory.
//
// The live server stores data in SQL; these files are the import and export
// format.
package jsonstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/moby/sys/atomicwriter"
)

const (
	UsersFile    = "users.json"
	RequestsFile = "requests.json"
	ProjectsFile = "projects.json"
	CommentsFile = "comments.json"
)

// Load returns the JSON content of path decoded into a T, or def when the
// file is missing or does not parse. The two cases are not distinguished.
func Load[T any](path string, def T) T {
	data, err := os.ReadFile(path)
	if err != nil {
		return def
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return def
	}
	return v
}

// Save overwrites path with v as two-space indented JSON. The write goes to
// a temporary file that is renamed into place.
func Save(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("jsonstore: encoding %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("jsonstore: creating %s: %w", filepath.Dir(path), err)
	}
	if err := atomicwriter.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("jsonstore: writing %s: %w", path, err)
	}
	return nil
}
