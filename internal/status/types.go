// Package status tracks the publication state of shared record graphs.
package status

import (
	"context"
	"sync"
	"time"
)

// PublishPhase represents the current phase of a publish operation
type PublishPhase string

const (
	// PublishPhasePublishing means a publish is currently in flight
	PublishPhasePublishing PublishPhase = "Publishing"

	// PublishPhaseComplete means the last publish completed successfully
	PublishPhaseComplete PublishPhase = "Complete"

	// PublishPhaseFailed means the last publish failed or was abandoned
	PublishPhaseFailed PublishPhase = "Failed"
)

// PublishStatus represents the current publication state of one root record.
// Every publish path, including cancellation, must leave the status in a
// terminal phase; a row stuck at Publishing indicates a crashed process.
type PublishStatus struct {
	// Phase is the current publication phase
	Phase PublishPhase `yaml:"phase" json:"phase"`

	// Message provides additional information about the publish status
	Message string `yaml:"message,omitempty" json:"message,omitempty"`

	// LastAttempt is the timestamp of the last publish attempt
	LastAttempt *time.Time `yaml:"lastAttempt,omitempty" json:"lastAttempt,omitempty"`

	// AttemptCount is the number of publish attempts since last success
	AttemptCount int `yaml:"attemptCount,omitempty" json:"attemptCount,omitempty"`

	// LastPublishTime is the timestamp of the last successful publish
	LastPublishTime *time.Time `yaml:"lastPublishTime,omitempty" json:"lastPublishTime,omitempty"`

	// GrantID is the share grant protecting the published graph
	GrantID string `yaml:"grantId,omitempty" json:"grantId,omitempty"`

	// RecordCount is the number of records in the published graph
	RecordCount int `yaml:"recordCount,omitempty" json:"recordCount,omitempty"`

	// GraphHash is the content hash of the graph the last attempt carried
	GraphHash string `yaml:"graphHash,omitempty" json:"graphHash,omitempty"`
}

// Recorder persists publish status keyed by root record ID.
type Recorder interface {
	// SetPublishStatus stores the status for a root record
	SetPublishStatus(ctx context.Context, rootID string, st *PublishStatus) error

	// GetPublishStatus returns the status for a root record, or nil when
	// none has been recorded
	GetPublishStatus(ctx context.Context, rootID string) (*PublishStatus, error)
}

// MemoryRecorder is an in-process Recorder for tests and the in-memory
// deployment mode.
type MemoryRecorder struct {
	mu       sync.Mutex
	statuses map[string]PublishStatus
}

// NewMemoryRecorder creates an empty MemoryRecorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{statuses: make(map[string]PublishStatus)}
}

var _ Recorder = (*MemoryRecorder)(nil)

// SetPublishStatus stores the status for a root record.
func (r *MemoryRecorder) SetPublishStatus(_ context.Context, rootID string, st *PublishStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[rootID] = *st
	return nil
}

// GetPublishStatus returns the recorded status, or nil when absent.
func (r *MemoryRecorder) GetPublishStatus(_ context.Context, rootID string) (*PublishStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.statuses[rootID]
	if !ok {
		return nil, nil
	}
	out := st
	return &out, nil
}
