package document

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mpernat/vellum/internal/errors"
)

// Store manages named documents in a flat directory. The directory is the
// single source of truth: every operation rescans it, nothing is cached,
// and concurrent writers race with last-writer-wins semantics.
type Store struct {
	root        string
	allowedExts []string
}

// New creates a Store rooted at dir, creating the directory if needed.
// allowedExts is the extension set enforced by name validation.
func New(dir string, allowedExts []string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.NewIO(err)
	}
	return &Store{root: dir, allowedExts: allowedExts}, nil
}

// Root returns the document directory.
func (s *Store) Root() string {
	return s.root
}

// AllowedExtensions returns the extension set used for name validation.
func (s *Store) AllowedExtensions() []string {
	return s.allowedExts
}

// List returns the names of all documents in lexicographic order.
// Subdirectories are ignored; the store is flat.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, errors.NewIO(err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Exists reports whether a document with the given name is present.
func (s *Store) Exists(name string) bool {
	path, err := s.path(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Read returns the full content of a document.
func (s *Store) Read(name string) (string, error) {
	path, err := s.path(name)
	if err != nil {
		return "", err
	}
	if !s.Exists(name) {
		return "", errors.NewNotFound(name)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.NewIO(err)
	}
	return string(data), nil
}

// Write replaces the document's content wholesale, creating the file if it
// does not exist. There are no partial or append semantics.
func (s *Store) Write(name, content string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return errors.NewIO(err)
	}
	return nil
}

// Create validates the name and creates an empty document. Re-creating an
// existing name truncates it to empty rather than failing.
func (s *Store) Create(name string) error {
	if err := ValidateName(name, s.allowedExts); err != nil {
		return err
	}
	return s.Write(name, "")
}

// Duplicate copies a document's content byte-for-byte under a new name.
// The new name goes through the same validation as Create.
func (s *Store) Duplicate(sourceName, newName string) error {
	if err := ValidateName(newName, s.allowedExts); err != nil {
		return err
	}

	content, err := s.Read(sourceName)
	if err != nil {
		return err
	}
	return s.Write(newName, content)
}

// Delete removes a document permanently. There is no trash or undo.
func (s *Store) Delete(name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if !s.Exists(name) {
		return errors.NewNotFound(name)
	}

	if err := os.Remove(path); err != nil {
		return errors.NewIO(err)
	}
	return nil
}

// path resolves a document name inside the store root. Names carrying path
// separators or traversal components can never match a listed document, so
// they resolve to NotFound rather than escaping the root.
func (s *Store) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) ||
		strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", errors.NewNotFound(name)
	}
	return filepath.Join(s.root, name), nil
}
