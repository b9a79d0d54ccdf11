// Package ledger persists download jobs in SQLite. The ledger is the single
// authority for deduplication and lifecycle state; workers and HTTP handlers
// only ever observe it through the Store.
package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the current state of a download job
type Status string

const (
	StatusStarted   Status = "started"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// IsValidStatus returns true if the status string is a valid Status
func IsValidStatus(s string) bool {
	switch Status(s) {
	case StatusStarted, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status can no longer change
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job represents one download request tracked end to end.
//
// URLHash is the dedup key (sha256 of the normalized URL); at most one
// authoritative completed row exists per hash. Progress belongs to this row
// alone and is written only by the worker that owns the job. UpdatedAt acts
// as a heartbeat so crashed jobs can be reconciled after a restart.
type Job struct {
	ID          string     `json:"id"`
	Filename    string     `json:"filename"`
	URL         string     `json:"url"`
	URLHash     string     `json:"url_hash"`
	Status      Status     `json:"status"`
	Requester   string     `json:"requester,omitempty"`
	Error       string     `json:"error,omitempty"`
	Progress    float64    `json:"progress"`
	Filesize    *int64     `json:"filesize,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewJob creates a started job with a fresh uuid. The caller supplies the
// sanitized filename; IDSuffix of the generated id is already embedded in it
// by the supervisor.
func NewJob(url, urlHash, filename, requester string) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		Filename:  filename,
		URL:       url,
		URLHash:   urlHash,
		Status:    StatusStarted,
		Requester: requester,
		StartedAt: now,
		UpdatedAt: now,
	}
}

// IDSuffix returns the first 8 hex characters of a job id, the collision
// guard embedded in artifact filenames.
func IDSuffix(id string) string {
	compact := make([]byte, 0, 8)
	for i := 0; i < len(id) && len(compact) < 8; i++ {
		if id[i] != '-' {
			compact = append(compact, id[i])
		}
	}
	return string(compact)
}

// Complete marks the job as completed with the artifact size
func (j *Job) Complete(filesize int64) {
	now := time.Now()
	j.Status = StatusCompleted
	j.Filesize = &filesize
	j.Progress = 100
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// Fail marks the job as failed with an error message
func (j *Job) Fail(reason string) {
	now := time.Now()
	j.Status = StatusFailed
	j.Error = reason
	j.CompletedAt = &now
	j.UpdatedAt = now
}
