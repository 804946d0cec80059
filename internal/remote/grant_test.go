package remote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrantRecordRoundTrip(t *testing.T) {
	t.Parallel()

	grant := &ShareGrant{
		ID:     "grant-1",
		RootID: "root-1",
		Zone:   ZoneID{Name: "records", Owner: "user-1"},
		Participants: []Participant{
			{Identity: "id-a", Contact: "a@example.com", Permission: PermissionReadOnly},
			{Identity: "id-b", Contact: "+15550100", Permission: PermissionReadWrite},
		},
		PublicPolicy: PublicNone,
		ChangeTag:    "ct-7",
	}

	rec := GrantToRecord(grant)
	assert.Equal(t, GrantRecordType, rec.Type)
	assert.Equal(t, grant.ChangeTag, rec.ChangeTag)

	decoded, err := GrantFromRecord(&rec)
	require.NoError(t, err)
	assert.Equal(t, grant, decoded)
}

func TestGrantFromRecordRejectsWrongType(t *testing.T) {
	t.Parallel()

	_, err := GrantFromRecord(&Record{ID: "r1", Type: "patient"})
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeSchemaMismatch))
}

func TestGrantFromRecordRejectsMissingFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		fields map[string]any
	}{
		{
			name: "missing root record",
			fields: map[string]any{
				"participants": []any{},
				"publicPolicy": "none",
			},
		},
		{
			name: "missing public policy",
			fields: map[string]any{
				"rootRecord":   "root-1",
				"participants": []any{},
			},
		},
		{
			name: "missing participants",
			fields: map[string]any{
				"rootRecord":   "root-1",
				"publicPolicy": "none",
			},
		},
		{
			name: "participant without identity",
			fields: map[string]any{
				"rootRecord":   "root-1",
				"publicPolicy": "none",
				"participants": []any{map[string]any{"permission": "read-only"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := &Record{ID: "g1", Type: GrantRecordType, Fields: tt.fields}
			_, err := GrantFromRecord(rec)
			require.Error(t, err)
			assert.True(t, IsCode(err, CodeSchemaMismatch))
		})
	}
}

func TestAsStoreError(t *testing.T) {
	t.Parallel()

	classified := NewStoreError(CodePermissionDenied, nil, "nope")
	assert.Same(t, classified, AsStoreError(classified))

	wrapped := AsStoreError(assert.AnError)
	assert.Equal(t, CodeTransientNetwork, wrapped.Code)
	assert.ErrorIs(t, wrapped, assert.AnError)
}

func TestStoreErrorRetryable(t *testing.T) {
	t.Parallel()

	assert.True(t, NewStoreError(CodeTransientNetwork, nil, "").Retryable())
	assert.True(t, NewStoreError(CodeZoneUnavailable, nil, "").Retryable())
	assert.False(t, NewStoreError(CodeConflictDetected, nil, "").Retryable())
	assert.False(t, NewStoreError(CodeSchemaMismatch, nil, "").Retryable())
	assert.False(t, NewStoreError(CodeNotAuthenticated, nil, "").Retryable())
}
