// Package notify keeps the local catalog cache in sync with the shared
// template registry through durable subscriptions and periodic change checks.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/medibook/share-engine/internal/remote"
)

const (
	// pollingJitterFraction is the maximum random offset applied to the
	// refresh interval, as a fraction of the interval. Prevents a fleet of
	// engines from hitting the registry simultaneously.
	pollingJitterFraction = 0.25
)

// Refresher re-fetches the watched collection in full. Incremental patching
// is deliberately not attempted; see the catalog package.
type Refresher interface {
	// Refresh replaces the local copy with a full re-fetch
	Refresh(ctx context.Context) error

	// Changed reports whether the upstream differs from the local copy
	Changed(ctx context.Context) (bool, error)
}

// Notifier registers durable subscriptions on the shared registry and
// triggers full cache refreshes when the watched collection mutates.
type Notifier struct {
	store     remote.Store
	refresher Refresher
	logger    *slog.Logger
}

// New creates a notifier with injected dependencies.
func New(store remote.Store, refresher Refresher, log *slog.Logger) *Notifier {
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{
		store:     store,
		refresher: refresher,
		logger:    log,
	}
}

// EnsureSubscription registers one durable subscription for the
// (record type, filter) pair. Registration is idempotent: an identical
// existing subscription is returned as-is, detected by checking the existing
// subscription identifiers before creating a new one.
func (n *Notifier) EnsureSubscription(ctx context.Context, recordType, filter string) (remote.Subscription, error) {
	existing, err := n.store.ListSubscriptions(ctx)
	if err != nil {
		return remote.Subscription{}, fmt.Errorf("listing subscriptions: %w", err)
	}

	for _, sub := range existing {
		if sub.RecordType == recordType && sub.Filter == filter {
			n.logger.Debug("Subscription already registered",
				"subscription", sub.ID,
				"record_type", recordType)
			return sub, nil
		}
	}

	created, err := n.store.CreateSubscription(ctx, remote.Subscription{
		RecordType: recordType,
		Filter:     filter,
	})
	if err != nil {
		return remote.Subscription{}, fmt.Errorf("creating subscription for %s: %w", recordType, err)
	}

	n.logger.Info("Registered subscription",
		"subscription", created.ID,
		"record_type", recordType)
	return created, nil
}

// HandleNotification reacts to a remote mutation by re-fetching the whole
// affected collection.
func (n *Notifier) HandleNotification(ctx context.Context, sub remote.Subscription) error {
	n.logger.Info("Handling change notification",
		"subscription", sub.ID,
		"record_type", sub.RecordType)
	if err := n.refresher.Refresh(ctx); err != nil {
		return fmt.Errorf("refreshing after notification on %s: %w", sub.RecordType, err)
	}
	return nil
}

// Run polls the upstream for changes at the given interval (with jitter) and
// refreshes the local cache when the collection mutated. Blocks until the
// context is cancelled.
func (n *Notifier) Run(ctx context.Context, interval time.Duration) error {
	n.logger.Info("Starting catalog change watcher", "interval", interval)

	ticker := time.NewTicker(jittered(interval))
	defer ticker.Stop()

	// Initial refresh so a fresh process starts from current data.
	n.checkAndRefresh(ctx)

	for {
		select {
		case <-ticker.C:
			n.checkAndRefresh(ctx)
			ticker.Reset(jittered(interval))
		case <-ctx.Done():
			n.logger.Info("Catalog change watcher stopping")
			return nil
		}
	}
}

func (n *Notifier) checkAndRefresh(ctx context.Context) {
	changed, err := n.refresher.Changed(ctx)
	if err != nil {
		n.logger.Error("Error checking catalog for changes", "error", err)
		return
	}
	if !changed {
		n.logger.Debug("Catalog unchanged")
		return
	}

	if err := n.refresher.Refresh(ctx); err != nil {
		n.logger.Error("Error refreshing catalog", "error", err)
	}
}

// jittered returns the interval with a random offset applied.
func jittered(interval time.Duration) time.Duration {
	maxJitter := time.Duration(float64(interval) * pollingJitterFraction)
	if maxJitter <= 0 {
		return interval
	}
	//nolint:gosec // G404: Non-cryptographic randomness is sufficient for polling jitter
	offset := time.Duration(rand.Int64N(int64(2*maxJitter))) - maxJitter
	return interval + offset
}
