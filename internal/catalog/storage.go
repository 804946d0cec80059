package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// CatalogFileName is the name of the cached catalog file
	CatalogFileName = "catalog.json"
)

// StorageManager defines the interface for catalog cache persistence
type StorageManager interface {
	// Store saves a Catalog instance to the local cache
	Store(ctx context.Context, cat *Catalog) error

	// Get retrieves and parses the cached catalog
	Get(ctx context.Context) (*Catalog, error)

	// Delete removes the cached catalog
	Delete(ctx context.Context) error
}

// fileStorageManager implements StorageManager using the local filesystem
type fileStorageManager struct {
	basePath string
}

// NewFileStorageManager creates a new file-based storage manager
func NewFileStorageManager(basePath string) StorageManager {
	return &fileStorageManager{
		basePath: basePath,
	}
}

// Store saves the catalog to a JSON file via an atomic rename
func (f *fileStorageManager) Store(_ context.Context, cat *Catalog) error {
	if err := os.MkdirAll(f.basePath, 0750); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	filePath := filepath.Join(f.basePath, CatalogFileName)

	data, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog data: %w", err)
	}

	// Readers must never see a half-written catalog.
	tempPath := filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary catalog file: %w", err)
	}

	if err := os.Rename(tempPath, filePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename catalog file: %w", err)
	}

	return nil
}

// Get retrieves and parses the cached catalog
func (f *fileStorageManager) Get(_ context.Context) (*Catalog, error) {
	filePath := filepath.Join(f.basePath, CatalogFileName)

	//nolint:gosec // path is built from the configured cache directory
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("cached catalog not found: %w", err)
		}
		return nil, fmt.Errorf("failed to read cached catalog: %w", err)
	}

	var cat Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached catalog: %w", err)
	}

	return &cat, nil
}

// Delete removes the cached catalog file
func (f *fileStorageManager) Delete(_ context.Context) error {
	filePath := filepath.Join(f.basePath, CatalogFileName)

	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete cached catalog: %w", err)
	}

	return nil
}
