package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/medibook/share-engine/pkg/logger"
)

// Refresher re-fetches the full catalog from its source and replaces the
// local cache. No incremental patching: a notification means the cached copy
// is suspect, so the whole collection is fetched again.
type Refresher struct {
	source  Source
	storage StorageManager

	mu       sync.Mutex
	lastHash string
}

// NewRefresher creates a refresher over the given source and cache.
func NewRefresher(source Source, storage StorageManager) *Refresher {
	return &Refresher{
		source:  source,
		storage: storage,
	}
}

// Refresh fetches the catalog and replaces the cache unconditionally.
func (r *Refresher) Refresh(ctx context.Context) error {
	cat, hash, err := r.source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch catalog: %w", err)
	}

	if err := r.storage.Store(ctx, cat); err != nil {
		return fmt.Errorf("failed to store catalog: %w", err)
	}

	r.mu.Lock()
	r.lastHash = hash
	r.mu.Unlock()

	logger.Infow("Refreshed template catalog",
		"catalog", cat.Name,
		"templates", len(cat.Templates))
	return nil
}

// Changed reports whether the upstream catalog differs from the last
// refreshed copy.
func (r *Refresher) Changed(ctx context.Context) (bool, error) {
	current, err := r.source.CurrentHash(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to hash upstream catalog: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.lastHash == "" {
		// Never refreshed in this process: treat as changed.
		return true, nil
	}
	return current != r.lastHash, nil
}
