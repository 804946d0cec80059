// Package conflict applies updates and deletes to previously published
// records under optimistic concurrency control.
package conflict

import (
	"context"
	"errors"
	"fmt"

	"github.com/medibook/share-engine/internal/remote"
	"github.com/medibook/share-engine/internal/telemetry"
	"github.com/medibook/share-engine/pkg/logger"
)

// ConflictError reports that a write raced with a concurrent update. The
// handler never picks a winner: silently resolving conflicts on health data
// is unacceptable, so merge-or-overwrite is a caller decision.
type ConflictError struct {
	// LocalChanges is the field mutation the caller attempted
	LocalChanges map[string]any

	// RemoteRecord is the current remote version at the time the conflict
	// was detected, when it could be fetched
	RemoteRecord *remote.Record

	// Err is the underlying store error
	Err error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: record was modified concurrently", remote.CodeConflictDetected)
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

// Handler performs fetch-then-write updates against the remote store.
type Handler struct {
	store   remote.Store
	metrics *telemetry.ConflictMetrics
}

// Option configures a Handler
type Option func(*Handler)

// WithConflictMetrics sets the conflict metrics for the handler
func WithConflictMetrics(metrics *telemetry.ConflictMetrics) Option {
	return func(h *Handler) {
		h.metrics = metrics
	}
}

// NewHandler creates a conflict-aware update handler.
func NewHandler(store remote.Store, opts ...Option) *Handler {
	h := &Handler{store: store}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// UpdateRecord applies the field changes to the current remote version of the
// record and submits the result conditioned on that version's change tag.
//
// The handler never writes blind against a tag the caller remembered: it
// fetches the authoritative version first. If someone else updates the record
// between fetch and write, the result is a *ConflictError carrying the local
// changes and the winning remote version; the handler does not retry.
func (h *Handler) UpdateRecord(
	ctx context.Context, zone remote.ZoneID, recordID string, changes map[string]any,
) (*remote.Record, error) {
	current, err := h.store.FetchRecord(ctx, zone, recordID)
	if err != nil {
		return nil, fmt.Errorf("fetching record %s before update: %w", recordID, err)
	}

	updated := *current
	updated.Fields = make(map[string]any, len(current.Fields)+len(changes))
	for k, v := range current.Fields {
		updated.Fields[k] = v
	}
	for k, v := range changes {
		updated.Fields[k] = v
	}

	result, err := h.store.SaveRecords(ctx, zone, []remote.Record{updated}, remote.SaveIfUnchanged)
	if err != nil {
		return nil, fmt.Errorf("updating record %s: %w", recordID, err)
	}

	for _, rr := range result.Results {
		if rr.ID != recordID {
			continue
		}
		if rr.Err == nil {
			updated.ChangeTag = rr.ChangeTag
			return &updated, nil
		}
		if rr.Err.Code == remote.CodeConflictDetected {
			return nil, h.conflictError(ctx, zone, recordID, changes, rr.Err)
		}
		return nil, fmt.Errorf("updating record %s: %w", recordID, rr.Err)
	}

	return nil, remote.NewStoreError(remote.CodeSchemaMismatch, nil,
		"save response is missing a result for record %s", recordID)
}

// DeleteRecord removes a record with the same fetch-then-act discipline: the
// delete is conditioned on the freshly fetched tag, so a delete racing a
// concurrent update fails loudly instead of silently succeeding against a
// stale target. A record that is already gone is success.
func (h *Handler) DeleteRecord(ctx context.Context, zone remote.ZoneID, recordID string) error {
	current, err := h.store.FetchRecord(ctx, zone, recordID)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("fetching record %s before delete: %w", recordID, err)
	}

	err = h.store.DeleteRecord(ctx, zone, recordID, current.ChangeTag)
	if err == nil {
		return nil
	}
	if errors.Is(err, remote.ErrNotFound) {
		return nil
	}
	if remote.IsCode(err, remote.CodeConflictDetected) {
		return h.conflictError(ctx, zone, recordID, nil, err)
	}
	return fmt.Errorf("deleting record %s: %w", recordID, err)
}

// conflictError builds a ConflictError, re-fetching the winning remote
// version on a best-effort basis so the caller can present both sides.
func (h *Handler) conflictError(
	ctx context.Context, zone remote.ZoneID, recordID string, changes map[string]any, cause error,
) *ConflictError {
	var recordType string
	winner, fetchErr := h.store.FetchRecord(ctx, zone, recordID)
	if fetchErr != nil {
		logger.Warnf("Could not fetch winning version of record %s after conflict: %v", recordID, fetchErr)
		winner = nil
	} else {
		recordType = winner.Type
	}

	h.metrics.RecordConflict(ctx, recordType)

	return &ConflictError{
		LocalChanges: changes,
		RemoteRecord: winner,
		Err:          cause,
	}
}
