// Package filestore loads a document root into memory once at startup.
// The HTTP layer never touches the filesystem again after Load returns,
// matching the original's "read everything up front, serve from RAM"
// design for a server meant to hold a handful of static assets.
package filestore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/silentbot/wschatd/log"
)

// NotFoundFile and MethodNotAllowedFile are the error bodies the router
// falls back to for 404 and 405 responses. Load requires both to be
// present in the document root.
const (
	NotFoundFile         = "404.html"
	MethodNotAllowedFile = "405.html"
)

// Store is an immutable, in-memory map of relative path to file content.
// It is safe for concurrent reads from any number of goroutines since
// nothing ever mutates it after Load returns.
type Store struct {
	files map[string][]byte
}

// Load walks root non-recursively, reading every regular file into
// memory keyed by its base name (e.g. "index.html", "style.css"). It
// fails if root does not exist, isn't a directory, or is missing either
// of the two error pages the router depends on.
func Load(root string) (*Store, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("filestore: reading document root %q: %w", root, err)
	}

	files := make(map[string][]byte, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(root, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("filestore: reading %q: %w", path, err)
		}
		files[entry.Name()] = data
		log.Debug().Msgf("loaded file into store: %s (%d bytes)", entry.Name(), len(data))
	}

	s := &Store{files: files}
	for _, required := range []string{NotFoundFile, MethodNotAllowedFile} {
		if _, ok := s.files[required]; !ok {
			return nil, fmt.Errorf("filestore: document root %q is missing required file %q", root, required)
		}
	}

	log.Info().Msgf("file store ready: root=%s files=%d", root, len(files))
	return s, nil
}

// Get returns the contents of name and whether it exists. The returned
// slice is shared across every caller and must not be mutated.
func (s *Store) Get(name string) ([]byte, bool) {
	b, ok := s.files[name]
	return b, ok
}
