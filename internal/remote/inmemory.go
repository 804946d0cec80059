package remote

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// InMemoryStore is a full in-process Store implementation with change-tag
// versioning. It backs unit tests and local development; the semantics mirror
// the hosted store, including idempotent zone creation and per-record save
// outcomes.
type InMemoryStore struct {
	mu sync.Mutex

	zones         map[string]bool
	zoneCreates   int
	records       map[string]map[string]Record
	nextVersion   int
	directory     map[string]Participant
	subscriptions []Subscription

	// RejectRecord, when set, is consulted for every record in a save; a
	// non-nil result rejects that record. Used to inject partial failures.
	RejectRecord func(rec Record) *StoreError

	// FailLookup, when set, is consulted for every directory lookup; a
	// non-nil result fails that contact.
	FailLookup func(contact string) error
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		zones:     make(map[string]bool),
		records:   make(map[string]map[string]Record),
		directory: make(map[string]Participant),
	}
}

// EnsureZone creates the zone if absent. Creating an existing zone is success.
func (s *InMemoryStore) EnsureZone(ctx context.Context, zone ZoneID) error {
	if err := ctx.Err(); err != nil {
		return NewStoreError(CodeTransientNetwork, err, "ensure zone %s cancelled", zone)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := zone.String()
	if s.zones[key] {
		return nil
	}
	s.zones[key] = true
	s.zoneCreates++
	s.records[key] = make(map[string]Record)
	return nil
}

// ZoneCreates returns how many distinct zone creations have happened. Used by
// tests to assert that concurrent create-if-absent callers share one create.
func (s *InMemoryStore) ZoneCreates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zoneCreates
}

// SaveRecords applies each record independently and reports per-record
// outcomes, matching the hosted store's partial-failure semantics.
func (s *InMemoryStore) SaveRecords(
	ctx context.Context, zone ZoneID, records []Record, policy SavePolicy,
) (*SaveResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewStoreError(CodeTransientNetwork, err, "save to zone %s cancelled", zone)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := zone.String()
	if !s.zones[key] {
		return nil, NewStoreError(CodeZoneUnavailable, nil, "zone %s does not exist", zone)
	}

	zoneRecords := s.records[key]
	result := &SaveResult{Results: make([]RecordResult, 0, len(records))}

	for _, rec := range records {
		if s.RejectRecord != nil {
			if rejection := s.RejectRecord(rec); rejection != nil {
				result.Results = append(result.Results, RecordResult{ID: rec.ID, Err: rejection})
				continue
			}
		}

		if policy == SaveIfUnchanged {
			current, exists := zoneRecords[rec.ID]
			if exists && current.ChangeTag != rec.ChangeTag {
				result.Results = append(result.Results, RecordResult{
					ID: rec.ID,
					Err: NewStoreError(CodeConflictDetected, nil,
						"record %s has tag %s, write carried %s", rec.ID, current.ChangeTag, rec.ChangeTag),
				})
				continue
			}
		}

		s.nextVersion++
		stored := rec
		stored.Zone = zone
		stored.ChangeTag = fmt.Sprintf("ct-%d", s.nextVersion)
		stored.Fields = cloneFields(rec.Fields)
		zoneRecords[rec.ID] = stored

		result.Results = append(result.Results, RecordResult{ID: rec.ID, ChangeTag: stored.ChangeTag})
	}

	return result, nil
}

// FetchRecord returns the current version of a record.
func (s *InMemoryStore) FetchRecord(ctx context.Context, zone ZoneID, recordID string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewStoreError(CodeTransientNetwork, err, "fetch %s cancelled", recordID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	zoneRecords, ok := s.records[zone.String()]
	if !ok {
		return nil, NewStoreError(CodeZoneUnavailable, nil, "zone %s does not exist", zone)
	}

	rec, ok := zoneRecords[recordID]
	if !ok {
		return nil, fmt.Errorf("record %s: %w", recordID, ErrNotFound)
	}

	out := rec
	out.Fields = cloneFields(rec.Fields)
	return &out, nil
}

// DeleteRecord removes a record. Absence is success; a stale tag is a conflict.
func (s *InMemoryStore) DeleteRecord(ctx context.Context, zone ZoneID, recordID string, tag string) error {
	if err := ctx.Err(); err != nil {
		return NewStoreError(CodeTransientNetwork, err, "delete %s cancelled", recordID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	zoneRecords, ok := s.records[zone.String()]
	if !ok {
		return nil
	}

	current, exists := zoneRecords[recordID]
	if !exists {
		return nil
	}

	if tag != "" && current.ChangeTag != tag {
		return NewStoreError(CodeConflictDetected, nil,
			"record %s has tag %s, delete carried %s", recordID, current.ChangeTag, tag)
	}

	delete(zoneRecords, recordID)
	return nil
}

// RegisterContact adds a resolvable contact to the in-memory directory.
func (s *InMemoryStore) RegisterContact(contact, identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.directory[contact] = Participant{Identity: identity, Contact: contact}
}

// LookupParticipant resolves a contact against the in-memory directory.
func (s *InMemoryStore) LookupParticipant(ctx context.Context, contact string) (*Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewStoreError(CodeTransientNetwork, err, "lookup %s cancelled", contact)
	}

	if s.FailLookup != nil {
		if err := s.FailLookup(contact); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.directory[contact]
	if !ok {
		return nil, fmt.Errorf("contact %s: %w", contact, ErrNotFound)
	}
	out := p
	return &out, nil
}

// ListSubscriptions returns all registered subscriptions.
func (s *InMemoryStore) ListSubscriptions(ctx context.Context) ([]Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewStoreError(CodeTransientNetwork, err, "list subscriptions cancelled")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Subscription, len(s.subscriptions))
	copy(out, s.subscriptions)
	return out, nil
}

// CreateSubscription registers a subscription and assigns it an ID.
func (s *InMemoryStore) CreateSubscription(ctx context.Context, sub Subscription) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return Subscription{}, NewStoreError(CodeTransientNetwork, err, "create subscription cancelled")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sub.ID = uuid.NewString()
	s.subscriptions = append(s.subscriptions, sub)
	return sub, nil
}

func cloneFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
