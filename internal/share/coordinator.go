// Package share orchestrates publication of record graphs into the remote
// store: zone provisioning, share-grant creation, atomic multi-record writes,
// and participant attachment.
package share

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medibook/share-engine/internal/graph"
	"github.com/medibook/share-engine/internal/remote"
	"github.com/medibook/share-engine/internal/status"
	"github.com/medibook/share-engine/internal/telemetry"
	"github.com/medibook/share-engine/pkg/logger"
)

// PublishError is the structured failure of a publish-and-share operation.
type PublishError struct {
	// Code categorizes the failure per the engine error taxonomy
	Code remote.Code

	// Message is a diagnostic reason string
	Message string

	// RecordResults holds the per-record outcomes when the server accepted
	// some records and rejected others
	RecordResults []remote.RecordResult

	// Err is the underlying cause, if any
	Err error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the caller may retry the publish. A republish
// after partial failure must go through a fresh graph build so record IDs are
// regenerated; retrying with the same graph value risks ambiguous merges.
func (e *PublishError) Retryable() bool {
	return e.Code == remote.CodeTransientNetwork ||
		e.Code == remote.CodeZoneUnavailable ||
		e.Code == remote.CodePublishPartialFailure
}

// Coordinator publishes record graphs and attaches share grants. It is
// stateless across operations except for the zone existence cache; publish
// itself is not idempotent and callers republish from a fresh graph build
// after failures.
type Coordinator struct {
	store     remote.Store
	zones     *zoneCache
	statusRec status.Recorder
	metrics   *telemetry.PublishMetrics
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithStatusRecorder persists publish phases so abandoned operations are
// visible as Failed rather than stuck at Publishing.
func WithStatusRecorder(rec status.Recorder) Option {
	return func(c *Coordinator) {
		c.statusRec = rec
	}
}

// WithPublishMetrics sets the publish metrics for the coordinator
func WithPublishMetrics(metrics *telemetry.PublishMetrics) Option {
	return func(c *Coordinator) {
		c.metrics = metrics
	}
}

// NewCoordinator creates a coordinator with injected dependencies.
func NewCoordinator(store remote.Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		store: store,
		zones: newZoneCache(store),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PublishAndShare publishes the graph and its share grant as a single
// multi-record write, then returns the grant carrying the server-assigned
// change tags.
//
// The grant is the root of trust: if the server rejects any record, whether
// the grant itself or a child, the whole operation is reported as failed and
// no usable grant is returned. Every path, including cancellation, records a
// terminal publish status for the graph's root.
func (c *Coordinator) PublishAndShare(
	ctx context.Context,
	g *graph.RecordGraph,
	participants []remote.Participant,
	publicPolicy remote.PublicPolicy,
) (*remote.ShareGrant, error) {
	rootID := g.Root.ID
	startTime := time.Now()

	attempt := c.nextAttempt(ctx, rootID)
	graphHash := g.Hash()

	// Default to Failed so that an unexpected exit still leaves the status
	// terminal; the happy path overwrites this before returning.
	now := time.Now()
	finalStatus := &status.PublishStatus{
		Phase:        status.PublishPhaseFailed,
		Message:      fmt.Sprintf("Unexpected failure while publishing graph %s", rootID),
		LastAttempt:  &now,
		AttemptCount: attempt,
		GraphHash:    graphHash,
	}
	defer func() {
		c.recordStatus(ctx, rootID, finalStatus)
		success := finalStatus.Phase == status.PublishPhaseComplete
		c.metrics.RecordPublish(ctx, g.Zone.String(), time.Since(startTime), g.Size(), success)
	}()

	c.recordStatus(ctx, rootID, &status.PublishStatus{
		Phase:        status.PublishPhasePublishing,
		LastAttempt:  &now,
		AttemptCount: attempt,
		GraphHash:    graphHash,
	})

	if err := c.zones.ensure(ctx, g.Zone); err != nil {
		se := remote.AsStoreError(err)
		finalStatus.Message = se.Message
		return nil, &PublishError{
			Code:    se.Code,
			Message: fmt.Sprintf("zone %s is unavailable: %v", g.Zone, err),
			Err:     err,
		}
	}

	grant := &remote.ShareGrant{
		ID:           uuid.NewString(),
		RootID:       rootID,
		Zone:         g.Zone,
		Participants: participants,
		PublicPolicy: publicPolicy,
	}

	// Root, every child, and the grant travel in one atomic write. First
	// publication overwrites unconditionally: there is no prior version to
	// conflict with.
	records := append(g.Records(), remote.GrantToRecord(grant))

	result, err := c.store.SaveRecords(ctx, g.Zone, records, remote.SaveOverwrite)
	if err != nil {
		se := remote.AsStoreError(err)
		finalStatus.Message = se.Message
		return nil, &PublishError{
			Code:    se.Code,
			Message: fmt.Sprintf("publishing graph %s failed: %v", rootID, err),
			Err:     err,
		}
	}

	if failed := result.Failed(); len(failed) > 0 {
		grantFailed := false
		for _, rr := range failed {
			if rr.ID == grant.ID {
				grantFailed = true
			}
		}
		logger.Errorw("Publish rejected records",
			"root", rootID,
			"rejected", len(failed),
			"grant_failed", grantFailed)

		finalStatus.Message = fmt.Sprintf("%d of %d records rejected", len(failed), len(records))
		return nil, &PublishError{
			Code:          remote.CodePublishPartialFailure,
			Message:       fmt.Sprintf("server rejected %d of %d records for graph %s", len(failed), len(records), rootID),
			RecordResults: result.Results,
		}
	}

	grant.ChangeTag = result.Tag(grant.ID)

	logger.Infow("Published record graph",
		"root", rootID,
		"zone", g.Zone.String(),
		"records", len(records),
		"participants", len(participants))

	completed := time.Now()
	finalStatus.Phase = status.PublishPhaseComplete
	finalStatus.Message = "Publish completed successfully"
	finalStatus.LastPublishTime = &completed
	finalStatus.GrantID = grant.ID
	finalStatus.RecordCount = g.Size()
	finalStatus.AttemptCount = 0

	return grant, nil
}

// AddParticipants appends participants to an already-published grant. The
// participant list is append-only; revocation is a separate operation.
func (c *Coordinator) AddParticipants(
	ctx context.Context, grant *remote.ShareGrant, participants []remote.Participant,
) (*remote.ShareGrant, error) {
	if grant.ChangeTag == "" {
		return nil, &PublishError{
			Code:    remote.CodeSchemaMismatch,
			Message: fmt.Sprintf("grant %s has never been published", grant.ID),
		}
	}

	updated := *grant
	updated.Participants = append(append([]remote.Participant{}, grant.Participants...), participants...)

	result, err := c.store.SaveRecords(ctx, grant.Zone,
		[]remote.Record{remote.GrantToRecord(&updated)}, remote.SaveIfUnchanged)
	if err != nil {
		se := remote.AsStoreError(err)
		return nil, &PublishError{
			Code:    se.Code,
			Message: fmt.Sprintf("updating grant %s failed: %v", grant.ID, err),
			Err:     err,
		}
	}

	if failed := result.Failed(); len(failed) > 0 {
		return nil, &PublishError{
			Code:          failed[0].Err.Code,
			Message:       fmt.Sprintf("server rejected grant update %s: %s", grant.ID, failed[0].Err.Message),
			RecordResults: result.Results,
		}
	}

	updated.ChangeTag = result.Tag(updated.ID)
	return &updated, nil
}

// nextAttempt counts publish attempts since the last success. AttemptCount
// resets to zero on a completed publish, so the prior failed count carries
// straight on.
func (c *Coordinator) nextAttempt(ctx context.Context, rootID string) int {
	if c.statusRec == nil {
		return 1
	}
	prior, err := c.statusRec.GetPublishStatus(ctx, rootID)
	if err != nil {
		logger.Warnf("Failed to read prior publish status for %s: %v", rootID, err)
		return 1
	}
	if prior == nil || prior.Phase == status.PublishPhaseComplete {
		return 1
	}
	return prior.AttemptCount + 1
}

func (c *Coordinator) recordStatus(ctx context.Context, rootID string, st *status.PublishStatus) {
	if c.statusRec == nil {
		return
	}
	// Status must land even when the publish context was cancelled.
	if err := c.statusRec.SetPublishStatus(context.WithoutCancel(ctx), rootID, st); err != nil {
		logger.Errorf("Failed to record publish status for %s: %v", rootID, err)
	}
}
