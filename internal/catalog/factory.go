package catalog

import (
	"fmt"

	"github.com/medibook/share-engine/internal/config"
)

// NewSource creates the catalog source for the given configuration.
func NewSource(cfg *config.CatalogConfig) (Source, error) {
	if cfg == nil {
		return nil, fmt.Errorf("catalog configuration is required")
	}

	switch cfg.GetType() {
	case config.CatalogSourceFile:
		return NewFileSource(cfg.File.Path), nil
	case config.CatalogSourceAPI:
		return NewAPISource(cfg.API.Endpoint), nil
	case config.CatalogSourceGit:
		return NewGitSource(cfg.Git), nil
	default:
		return nil, fmt.Errorf("catalog has no source configuration")
	}
}
