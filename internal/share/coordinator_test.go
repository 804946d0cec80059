package share

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medibook/share-engine/internal/graph"
	"github.com/medibook/share-engine/internal/remote"
	"github.com/medibook/share-engine/internal/status"
)

var testZone = remote.ZoneID{Name: "records", Owner: "user-1"}

func buildTestGraph(t *testing.T, childCount int) *graph.RecordGraph {
	t.Helper()

	root := graph.LocalEntity{
		Key:  "patient/1",
		Type: graph.TypePatient,
		Fields: map[string]any{
			"givenName":  "Ada",
			"familyName": "Lovelace",
		},
	}

	var children []graph.LocalEntity
	for i := 0; i < childCount; i++ {
		children = append(children, graph.LocalEntity{
			Type: graph.TypeDispense,
			Fields: map[string]any{
				"medicationName": "amoxicillin",
				"dispensedAt":    "2025-01-01T09:30:00Z",
			},
		})
	}

	g, err := graph.NewBuilder().Build(root, children, testZone)
	require.NoError(t, err)
	return g
}

func participants() []remote.Participant {
	return []remote.Participant{
		{Identity: "id-a", Contact: "a@example.com", Permission: remote.PermissionReadOnly},
	}
}

func TestPublishAndShare(t *testing.T) {
	t.Parallel()

	store := remote.NewInMemoryStore()
	recorder := status.NewMemoryRecorder()
	c := NewCoordinator(store, WithStatusRecorder(recorder))

	g := buildTestGraph(t, 2)
	grant, err := c.PublishAndShare(context.Background(), g, participants(), remote.PublicNone)
	require.NoError(t, err)

	assert.NotEmpty(t, grant.ID)
	assert.NotEmpty(t, grant.ChangeTag, "grant carries the server-assigned tag after publish")
	assert.Equal(t, g.Root.ID, grant.RootID)
	assert.Len(t, grant.Participants, 1)

	// Root, children, and the grant all landed in the zone.
	for _, rec := range g.Records() {
		fetched, err := store.FetchRecord(context.Background(), testZone, rec.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, fetched.ChangeTag)
	}
	grantRec, err := store.FetchRecord(context.Background(), testZone, grant.ID)
	require.NoError(t, err)
	decoded, err := remote.GrantFromRecord(grantRec)
	require.NoError(t, err)
	assert.Equal(t, g.Root.ID, decoded.RootID)

	st, err := recorder.GetPublishStatus(context.Background(), g.Root.ID)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, status.PublishPhaseComplete, st.Phase)
	assert.Equal(t, grant.ID, st.GrantID)
	assert.Equal(t, g.Size(), st.RecordCount)
	assert.NotNil(t, st.LastPublishTime)
}

func TestPublishAndShareRejectedChildFailsWholeOperation(t *testing.T) {
	t.Parallel()

	store := remote.NewInMemoryStore()
	recorder := status.NewMemoryRecorder()
	c := NewCoordinator(store, WithStatusRecorder(recorder))

	g := buildTestGraph(t, 2)
	rejectedID := g.Children[1].ID
	store.RejectRecord = func(rec remote.Record) *remote.StoreError {
		if rec.ID == rejectedID {
			return remote.NewStoreError(remote.CodeSchemaMismatch, nil, "rejected")
		}
		return nil
	}

	grant, err := c.PublishAndShare(context.Background(), g, participants(), remote.PublicNone)
	require.Error(t, err)
	assert.Nil(t, grant, "no usable grant after any record rejection")

	var pubErr *PublishError
	require.ErrorAs(t, err, &pubErr)
	assert.Equal(t, remote.CodePublishPartialFailure, pubErr.Code)
	assert.True(t, pubErr.Retryable(), "caller may republish from a fresh graph build")
	require.NotEmpty(t, pubErr.RecordResults)

	st, err := recorder.GetPublishStatus(context.Background(), g.Root.ID)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, status.PublishPhaseFailed, st.Phase)
}

func TestPublishAndShareCancelledContextLeavesTerminalStatus(t *testing.T) {
	t.Parallel()

	store := remote.NewInMemoryStore()
	recorder := status.NewMemoryRecorder()
	c := NewCoordinator(store, WithStatusRecorder(recorder))

	g := buildTestGraph(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.PublishAndShare(ctx, g, participants(), remote.PublicNone)
	require.Error(t, err)

	st, err := recorder.GetPublishStatus(context.Background(), g.Root.ID)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, status.PublishPhaseFailed, st.Phase,
		"cancellation must not leave the status stuck at Publishing")
}

func TestPublishAndShareWithoutRecorder(t *testing.T) {
	t.Parallel()

	c := NewCoordinator(remote.NewInMemoryStore())
	g := buildTestGraph(t, 1)

	grant, err := c.PublishAndShare(context.Background(), g, nil, remote.PublicReadOnly)
	require.NoError(t, err)
	assert.Equal(t, remote.PublicReadOnly, grant.PublicPolicy)
}

func TestConcurrentPublishesShareOneZoneCreate(t *testing.T) {
	t.Parallel()

	store := remote.NewInMemoryStore()
	c := NewCoordinator(store)

	const publishers = 8
	var wg sync.WaitGroup
	errs := make([]error, publishers)

	for i := 0; i < publishers; i++ {
		g := buildTestGraph(t, 1)
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = c.PublishAndShare(context.Background(), g, nil, remote.PublicNone)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1, store.ZoneCreates())
}

func TestZoneCacheDoesNotMemoizeFailures(t *testing.T) {
	t.Parallel()

	store := remote.NewInMemoryStore()
	cache := newZoneCache(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, cache.ensure(ctx, testZone))

	// The failed attempt is not remembered; a healthy context succeeds.
	require.NoError(t, cache.ensure(context.Background(), testZone))
	assert.Equal(t, 1, store.ZoneCreates())
}

func TestAddParticipants(t *testing.T) {
	t.Parallel()

	store := remote.NewInMemoryStore()
	c := NewCoordinator(store)

	g := buildTestGraph(t, 1)
	grant, err := c.PublishAndShare(context.Background(), g, participants(), remote.PublicNone)
	require.NoError(t, err)

	updated, err := c.AddParticipants(context.Background(), grant, []remote.Participant{
		{Identity: "id-b", Contact: "b@example.com", Permission: remote.PermissionReadWrite},
	})
	require.NoError(t, err)

	require.Len(t, updated.Participants, 2)
	assert.NotEqual(t, grant.ChangeTag, updated.ChangeTag)
	assert.Len(t, grant.Participants, 1, "input grant is not mutated")
}

func TestAddParticipantsStaleGrantConflicts(t *testing.T) {
	t.Parallel()

	store := remote.NewInMemoryStore()
	c := NewCoordinator(store)

	g := buildTestGraph(t, 0)
	grant, err := c.PublishAndShare(context.Background(), g, participants(), remote.PublicNone)
	require.NoError(t, err)

	// Another device updates the grant first.
	_, err = c.AddParticipants(context.Background(), grant, []remote.Participant{
		{Identity: "id-b", Contact: "b@example.com", Permission: remote.PermissionReadOnly},
	})
	require.NoError(t, err)

	// Updating through the now-stale grant fails with a conflict.
	_, err = c.AddParticipants(context.Background(), grant, []remote.Participant{
		{Identity: "id-c", Contact: "c@example.com", Permission: remote.PermissionReadOnly},
	})
	require.Error(t, err)

	var pubErr *PublishError
	require.ErrorAs(t, err, &pubErr)
	assert.Equal(t, remote.CodeConflictDetected, pubErr.Code)
}

func TestAddParticipantsRequiresPublishedGrant(t *testing.T) {
	t.Parallel()

	c := NewCoordinator(remote.NewInMemoryStore())

	_, err := c.AddParticipants(context.Background(), &remote.ShareGrant{ID: "g1"}, nil)
	require.Error(t, err)

	var pubErr *PublishError
	require.ErrorAs(t, err, &pubErr)
	assert.False(t, pubErr.Retryable())
}

func TestPublishAttemptCountAccumulatesUntilSuccess(t *testing.T) {
	t.Parallel()

	store := remote.NewInMemoryStore()
	recorder := status.NewMemoryRecorder()
	c := NewCoordinator(store, WithStatusRecorder(recorder))

	g := buildTestGraph(t, 1)
	store.RejectRecord = func(remote.Record) *remote.StoreError {
		return remote.NewStoreError(remote.CodeSchemaMismatch, nil, "rejected")
	}

	for i := 0; i < 2; i++ {
		_, err := c.PublishAndShare(context.Background(), g, participants(), remote.PublicNone)
		require.Error(t, err)
	}

	st, err := recorder.GetPublishStatus(context.Background(), g.Root.ID)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, status.PublishPhaseFailed, st.Phase)
	assert.Equal(t, 2, st.AttemptCount, "each failed publish adds one attempt")
	assert.Equal(t, g.Hash(), st.GraphHash)

	store.RejectRecord = nil
	_, err = c.PublishAndShare(context.Background(), g, participants(), remote.PublicNone)
	require.NoError(t, err)

	st, err = recorder.GetPublishStatus(context.Background(), g.Root.ID)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, status.PublishPhaseComplete, st.Phase)
	assert.Zero(t, st.AttemptCount, "success resets the attempts-since-last-success count")
	assert.Equal(t, g.Hash(), st.GraphHash)
}
