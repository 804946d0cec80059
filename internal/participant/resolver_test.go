package participant

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medibook/share-engine/internal/remote"
)

func newDirectory(contacts ...string) *remote.InMemoryStore {
	store := remote.NewInMemoryStore()
	for _, contact := range contacts {
		store.RegisterContact(contact, "identity-"+contact)
	}
	return store
}

func TestResolveAttachesPermission(t *testing.T) {
	t.Parallel()

	r := NewResolver(newDirectory("a@example.com", "b@example.com"))

	participants, err := r.Resolve(context.Background(),
		[]string{"a@example.com", "b@example.com"}, remote.PermissionReadWrite)
	require.NoError(t, err)

	require.Len(t, participants, 2)
	for _, p := range participants {
		assert.Equal(t, remote.PermissionReadWrite, p.Permission)
		assert.NotEmpty(t, p.Identity)
	}
}

func TestResolveDeduplicatesContacts(t *testing.T) {
	t.Parallel()

	r := NewResolver(newDirectory("a@example.com"))

	participants, err := r.Resolve(context.Background(),
		[]string{"a@example.com", "a@example.com", "", "a@example.com"}, remote.PermissionReadOnly)
	require.NoError(t, err)
	require.Len(t, participants, 1, "duplicate contacts must not produce duplicate invites")
}

func TestResolveCollectPartial(t *testing.T) {
	t.Parallel()

	r := NewResolver(newDirectory("a@example.com"), WithPolicy(PolicyCollectPartial))

	participants, err := r.Resolve(context.Background(),
		[]string{"a@example.com", "ghost@example.com", "missing@example.com"}, remote.PermissionReadOnly)

	require.Len(t, participants, 1)
	assert.Equal(t, "a@example.com", participants[0].Contact)

	var partial *PartialResolutionError
	require.ErrorAs(t, err, &partial)
	require.Len(t, partial.Failures, 2)
	// Failures are sorted by contact for stable rendering.
	assert.Equal(t, "ghost@example.com", partial.Failures[0].Contact)
	assert.Equal(t, "missing@example.com", partial.Failures[1].Contact)
	assert.Contains(t, partial.Error(), string(remote.CodePartialResolution))
}

func TestResolveFailFast(t *testing.T) {
	t.Parallel()

	r := NewResolver(newDirectory("a@example.com"), WithPolicy(PolicyFailFast))

	participants, err := r.Resolve(context.Background(),
		[]string{"ghost@example.com", "a@example.com"}, remote.PermissionReadOnly)
	require.Error(t, err)
	assert.Nil(t, participants)

	var partial *PartialResolutionError
	assert.False(t, errors.As(err, &partial), "fail-fast returns the lookup error, not a partial result")
}

func TestResolveEmptyBatch(t *testing.T) {
	t.Parallel()

	r := NewResolver(newDirectory())

	participants, err := r.Resolve(context.Background(), nil, remote.PermissionReadOnly)
	require.NoError(t, err)
	assert.Nil(t, participants)
}

func TestResolveBoundsConcurrency(t *testing.T) {
	t.Parallel()

	store := newDirectory(
		"a@example.com", "b@example.com", "c@example.com",
		"d@example.com", "e@example.com", "f@example.com")

	var inFlight, peak atomic.Int32
	store.FailLookup = func(string) error {
		now := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			current := peak.Load()
			if now <= current || peak.CompareAndSwap(current, now) {
				break
			}
		}
		return nil
	}

	r := NewResolver(store, WithConcurrency(2))
	_, err := r.Resolve(context.Background(), []string{
		"a@example.com", "b@example.com", "c@example.com",
		"d@example.com", "e@example.com", "f@example.com",
	}, remote.PermissionReadOnly)
	require.NoError(t, err)

	assert.LessOrEqual(t, peak.Load(), int32(2))
}
