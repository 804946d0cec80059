package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileSource reads the catalog from a local JSON file.
type FileSource struct {
	path string
}

// NewFileSource creates a file-based catalog source.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

var _ Source = (*FileSource)(nil)

// Fetch reads and parses the catalog file.
func (f *FileSource) Fetch(_ context.Context) (*Catalog, string, error) {
	data, err := f.read()
	if err != nil {
		return nil, "", err
	}
	cat, err := parseCatalog(data)
	if err != nil {
		return nil, "", err
	}
	return cat, hashBytes(data), nil
}

// CurrentHash returns the hash of the file contents.
func (f *FileSource) CurrentHash(_ context.Context) (string, error) {
	data, err := f.read()
	if err != nil {
		return "", err
	}
	return hashBytes(data), nil
}

func (f *FileSource) read() ([]byte, error) {
	data, err := os.ReadFile(filepath.Clean(f.path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("catalog file not found: %w", err)
		}
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return data, nil
}
