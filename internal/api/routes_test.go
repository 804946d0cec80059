package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medibook/share-engine/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.MemoryRecorder) {
	t.Helper()
	recorder := status.NewMemoryRecorder()
	server := httptest.NewServer(NewServer(recorder))
	t.Cleanup(server.Close)
	return server, recorder
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)

	for _, path := range []string{"/health", "/readiness"} {
		resp, err := http.Get(server.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	}
}

func TestGetPublishStatus(t *testing.T) {
	t.Parallel()

	server, recorder := newTestServer(t)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, recorder.SetPublishStatus(context.Background(), "root-1", &status.PublishStatus{
		Phase:           status.PublishPhaseComplete,
		LastPublishTime: &now,
		GrantID:         "grant-1",
		RecordCount:     3,
	}))

	resp, err := http.Get(server.URL + "/v1/status/root-1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got status.PublishStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, status.PublishPhaseComplete, got.Phase)
	assert.Equal(t, "grant-1", got.GrantID)
	assert.Equal(t, 3, got.RecordCount)
}

func TestGetPublishStatusNotFound(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/v1/status/never-published")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var errResp ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	assert.Contains(t, errResp.Error, "never-published")
}

func TestComputeNextDue(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)

	body := `{"quantity": 30, "frequency": "daily", "dispensedAt": "2026-03-01T09:00:00Z"}`
	resp, err := http.Post(server.URL+"/v1/schedule/next-due", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got NextDueResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, time.Date(2026, 3, 31, 9, 0, 0, 0, time.UTC), got.NextDue)
	assert.False(t, got.Estimate)
	assert.False(t, got.Fallback)
}

func TestComputeNextDueUnknownFrequencyFallsBack(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)

	body := `{"quantity": 30, "frequency": "lunar", "dispensedAt": "2026-03-01T09:00:00Z"}`
	resp, err := http.Post(server.URL+"/v1/schedule/next-due", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got NextDueResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.True(t, got.Fallback)
}

func TestComputeNextDueValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{
			name: "invalid json",
			body: `{`,
		},
		{
			name: "missing dispensedAt",
			body: `{"quantity": 30, "frequency": "daily"}`,
		},
		{
			name: "negative quantity",
			body: `{"quantity": -1, "frequency": "daily", "dispensedAt": "2026-03-01T09:00:00Z"}`,
		},
	}

	server, _ := newTestServer(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp, err := http.Post(server.URL+"/v1/schedule/next-due", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}
