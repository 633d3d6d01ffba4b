// Package storage locates stored resource and logo files under the storage
// root. Stored paths were written in several formats over time, so lookup
// walks an ordered list of candidates instead of trusting a single join.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when no candidate location holds the file.
var ErrNotFound = errors.New("file not found")

const uploadsDir = "uploads"

// Resolver maps stored relative paths to existing absolute paths.
type Resolver struct {
	root string
}

func NewResolver(root string) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage root %q: %w", root, err)
	}
	return &Resolver{root: abs}, nil
}

// Root returns the absolute storage root.
func (r *Resolver) Root() string { return r.root }

// strategy derives one candidate location, or "" when it does not apply.
type strategy func(rel, category string) string

var strategies = []strategy{
	// current records: path relative to the root
	func(rel, _ string) string { return rel },
	// older records omitted the uploads/ prefix
	func(rel, _ string) string {
		if rel == uploadsDir || strings.HasPrefix(rel, uploadsDir+"/") {
			return ""
		}
		return uploadsDir + "/" + rel
	},
	// oldest records only kept the filename
	func(rel, category string) string {
		if category == "" {
			return ""
		}
		return uploadsDir + "/resources/" + category + "/" + filepath.Base(rel)
	},
}

// Candidates lists, in lookup order, the absolute paths tried for stored.
// Paths that would leave the storage root are dropped.
func (r *Resolver) Candidates(stored, category string) []string {
	rel := strings.TrimLeft(filepath.ToSlash(stored), "/")
	if rel == "" {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, s := range strategies {
		c := s(rel, category)
		if c == "" {
			continue
		}
		abs, ok := r.join(c)
		if !ok || seen[abs] {
			continue
		}
		seen[abs] = true
		out = append(out, abs)
	}
	return out
}

// Resolve returns the first candidate that exists as a regular file.
func (r *Resolver) Resolve(stored, category string) (string, error) {
	for _, c := range r.Candidates(stored, category) {
		info, err := os.Stat(c)
		if err == nil && info.Mode().IsRegular() {
			return c, nil
		}
	}
	return "", fmt.Errorf("resolve %q: %w", stored, ErrNotFound)
}

// Abs joins a relative path under the root without checking existence.
func (r *Resolver) Abs(rel string) (string, error) {
	abs, ok := r.join(strings.TrimLeft(filepath.ToSlash(rel), "/"))
	if !ok {
		return "", fmt.Errorf("path %q escapes storage root", rel)
	}
	return abs, nil
}

func (r *Resolver) join(rel string) (string, bool) {
	abs := filepath.Join(r.root, filepath.FromSlash(rel))
	if abs != r.root && !strings.HasPrefix(abs, r.root+string(os.PathSeparator)) {
		return "", false
	}
	return abs, true
}
