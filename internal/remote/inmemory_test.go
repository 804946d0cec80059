package remote

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testZone = ZoneID{Name: "records", Owner: "user-1"}

func TestEnsureZoneIdempotent(t *testing.T) {
	t.Parallel()

	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.EnsureZone(ctx, testZone))
	require.NoError(t, store.EnsureZone(ctx, testZone))
	assert.Equal(t, 1, store.ZoneCreates())
}

func TestSaveRecordsAssignsChangeTags(t *testing.T) {
	t.Parallel()

	store := NewInMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.EnsureZone(ctx, testZone))

	result, err := store.SaveRecords(ctx, testZone, []Record{
		{ID: "r1", Type: "patient", Fields: map[string]any{"givenName": "Ada"}},
		{ID: "r2", Type: "dispense"},
	}, SaveOverwrite)
	require.NoError(t, err)

	require.Len(t, result.Results, 2)
	assert.Empty(t, result.Failed())
	assert.NotEmpty(t, result.Tag("r1"))
	assert.NotEmpty(t, result.Tag("r2"))
	assert.NotEqual(t, result.Tag("r1"), result.Tag("r2"))
}

func TestSaveRecordsRequiresZone(t *testing.T) {
	t.Parallel()

	store := NewInMemoryStore()
	_, err := store.SaveRecords(context.Background(), testZone, []Record{{ID: "r1"}}, SaveOverwrite)
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeZoneUnavailable))
}

func TestSaveIfUnchangedDetectsStaleTag(t *testing.T) {
	t.Parallel()

	store := NewInMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.EnsureZone(ctx, testZone))

	first, err := store.SaveRecords(ctx, testZone, []Record{{ID: "r1", Type: "patient"}}, SaveOverwrite)
	require.NoError(t, err)
	staleTag := first.Tag("r1")

	// Someone else updates the record.
	_, err = store.SaveRecords(ctx, testZone, []Record{{ID: "r1", Type: "patient"}}, SaveOverwrite)
	require.NoError(t, err)

	// A conditional write carrying the stale tag fails per-record.
	result, err := store.SaveRecords(ctx, testZone,
		[]Record{{ID: "r1", Type: "patient", ChangeTag: staleTag}}, SaveIfUnchanged)
	require.NoError(t, err)

	failed := result.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "r1", failed[0].ID)
	assert.Equal(t, CodeConflictDetected, failed[0].Err.Code)
}

func TestSaveRecordsPartialFailure(t *testing.T) {
	t.Parallel()

	store := NewInMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.EnsureZone(ctx, testZone))

	store.RejectRecord = func(rec Record) *StoreError {
		if rec.ID == "bad" {
			return NewStoreError(CodeSchemaMismatch, nil, "record %s rejected", rec.ID)
		}
		return nil
	}

	result, err := store.SaveRecords(ctx, testZone, []Record{
		{ID: "good", Type: "patient"},
		{ID: "bad", Type: "dispense"},
	}, SaveOverwrite)
	require.NoError(t, err)

	require.Len(t, result.Failed(), 1)
	assert.Equal(t, "bad", result.Failed()[0].ID)
	assert.NotEmpty(t, result.Tag("good"))
	assert.Empty(t, result.Tag("bad"))
}

func TestFetchRecordNotFound(t *testing.T) {
	t.Parallel()

	store := NewInMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.EnsureZone(ctx, testZone))

	_, err := store.FetchRecord(ctx, testZone, "ghost")
	require.ErrorIs(t, err, ErrNotFound)
	assert.False(t, IsCode(err, CodeTransientNetwork),
		"a deterministic absence must not look retryable")
}

func TestDeleteRecordIdempotent(t *testing.T) {
	t.Parallel()

	store := NewInMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.EnsureZone(ctx, testZone))

	result, err := store.SaveRecords(ctx, testZone, []Record{{ID: "r1", Type: "patient"}}, SaveOverwrite)
	require.NoError(t, err)

	require.NoError(t, store.DeleteRecord(ctx, testZone, "r1", result.Tag("r1")))
	// Deleting again is success, not an error.
	require.NoError(t, store.DeleteRecord(ctx, testZone, "r1", ""))
}

func TestDeleteRecordStaleTagConflicts(t *testing.T) {
	t.Parallel()

	store := NewInMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.EnsureZone(ctx, testZone))

	first, err := store.SaveRecords(ctx, testZone, []Record{{ID: "r1", Type: "patient"}}, SaveOverwrite)
	require.NoError(t, err)
	_, err = store.SaveRecords(ctx, testZone, []Record{{ID: "r1", Type: "patient"}}, SaveOverwrite)
	require.NoError(t, err)

	err = store.DeleteRecord(ctx, testZone, "r1", first.Tag("r1"))
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeConflictDetected))
}

func TestLookupParticipant(t *testing.T) {
	t.Parallel()

	store := NewInMemoryStore()
	store.RegisterContact("ada@example.com", "identity-ada")

	p, err := store.LookupParticipant(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "identity-ada", p.Identity)

	_, err = store.LookupParticipant(context.Background(), "ghost@example.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSubscriptionsRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewInMemoryStore()
	ctx := context.Background()

	created, err := store.CreateSubscription(ctx, Subscription{RecordType: "catalog.template"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	listed, err := store.ListSubscriptions(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, created, listed[0])
}

func TestStoreHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	store := NewInMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.EnsureZone(ctx, testZone)
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeTransientNetwork))

	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.True(t, se.Retryable())
}
