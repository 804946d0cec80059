package share

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/medibook/share-engine/internal/remote"
)

// zoneCache memoizes zone existence for the process lifetime. Only one
// in-flight create-if-absent check runs per zone name; concurrent callers
// await the same check instead of issuing duplicate creates. Failures are not
// memoized, so a later publish retries the creation.
type zoneCache struct {
	store remote.Store
	group singleflight.Group

	mu    sync.Mutex
	known map[string]bool
}

func newZoneCache(store remote.Store) *zoneCache {
	return &zoneCache{
		store: store,
		known: make(map[string]bool),
	}
}

// ensure makes sure the zone exists, creating it at most once across
// concurrent callers.
func (c *zoneCache) ensure(ctx context.Context, zone remote.ZoneID) error {
	key := zone.String()

	c.mu.Lock()
	if c.known[key] {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	// Waiters share the first caller's check; its context governs the
	// round-trip, which keeps exactly one create in flight per zone.
	_, err, _ := c.group.Do(key, func() (any, error) {
		return nil, c.store.EnsureZone(ctx, zone)
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.known[key] = true
	c.mu.Unlock()
	return nil
}
