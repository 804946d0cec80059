package remote

import "context"

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks -source=store.go Store

// Store is the interface to the remote replicated record store.
//
// All operations are network-bound: they honour context cancellation and
// deadlines, and classify failures with StoreError codes so callers can
// distinguish retryable from fatal conditions.
type Store interface {
	// EnsureZone creates the zone if it does not exist. A "zone already
	// exists" response is success, not an error; the call is idempotent
	// and safe under concurrent callers.
	EnsureZone(ctx context.Context, zone ZoneID) error

	// SaveRecords submits records as a single multi-record write with the
	// given save policy and reports a per-record outcome. The returned
	// error covers whole-operation failures (auth, network); individual
	// record rejections are reported inside SaveResult.
	SaveRecords(ctx context.Context, zone ZoneID, records []Record, policy SavePolicy) (*SaveResult, error)

	// FetchRecord retrieves the current version of a record, including its
	// authoritative change tag.
	FetchRecord(ctx context.Context, zone ZoneID, recordID string) (*Record, error)

	// DeleteRecord removes a record. A non-empty tag makes the delete
	// conditional: a stale tag fails with CodeConflictDetected. Deleting a
	// record that does not exist is success (idempotent delete).
	DeleteRecord(ctx context.Context, zone ZoneID, recordID string, tag string) error

	// LookupParticipant resolves a human-readable contact identifier
	// (email or phone) into an addressable remote identity.
	LookupParticipant(ctx context.Context, contact string) (*Participant, error)

	// ListSubscriptions returns the durable subscriptions registered for
	// this principal.
	ListSubscriptions(ctx context.Context) ([]Subscription, error)

	// CreateSubscription registers a durable subscription and returns it
	// with its server-assigned ID.
	CreateSubscription(ctx context.Context, sub Subscription) (Subscription, error)
}
