package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/medibook/share-engine/internal/config"
)

// defaultCatalogPath is the catalog file path inside the repository when the
// configuration does not name one.
const defaultCatalogPath = "catalog.json"

// GitSource fetches the catalog from a file inside a Git repository.
type GitSource struct {
	cfg *config.GitConfig
}

// NewGitSource creates a Git-based catalog source.
func NewGitSource(cfg *config.GitConfig) *GitSource {
	return &GitSource{cfg: cfg}
}

var _ Source = (*GitSource)(nil)

// Fetch clones the repository shallowly and parses the catalog file.
func (g *GitSource) Fetch(ctx context.Context) (*Catalog, string, error) {
	data, err := g.read(ctx)
	if err != nil {
		return nil, "", err
	}
	cat, err := parseCatalog(data)
	if err != nil {
		return nil, "", err
	}
	return cat, hashBytes(data), nil
}

// CurrentHash returns the hash of the catalog file at the branch head.
func (g *GitSource) CurrentHash(ctx context.Context) (string, error) {
	data, err := g.read(ctx)
	if err != nil {
		return "", err
	}
	return hashBytes(data), nil
}

func (g *GitSource) read(ctx context.Context) ([]byte, error) {
	tempDir, err := os.MkdirTemp("", "mbk-catalog-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary clone directory: %w", err)
	}
	defer func() {
		_ = os.RemoveAll(tempDir)
	}()

	cloneOpts := &git.CloneOptions{
		URL:          g.cfg.Repository,
		Depth:        1,
		SingleBranch: true,
	}
	if g.cfg.Branch != "" {
		cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(g.cfg.Branch)
	}

	if _, err := git.PlainCloneContext(ctx, tempDir, false, cloneOpts); err != nil {
		return nil, fmt.Errorf("failed to clone catalog repository %s: %w", g.cfg.Repository, err)
	}

	catalogPath := g.cfg.Path
	if catalogPath == "" {
		catalogPath = defaultCatalogPath
	}

	fullPath := filepath.Join(tempDir, filepath.Clean(catalogPath))
	data, err := os.ReadFile(fullPath) //nolint:gosec // Path is confined to the fresh clone directory
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s from repository: %w", catalogPath, err)
	}
	return data, nil
}
