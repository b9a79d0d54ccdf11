package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJob(t *testing.T) {
	job := NewJob("https://example.com/v/abc", "hash-abc", "clip.mp4", "10.0.0.1")

	require.NotEmpty(t, job.ID)
	assert.Equal(t, StatusStarted, job.Status)
	assert.Equal(t, "10.0.0.1", job.Requester)
	assert.False(t, job.StartedAt.IsZero())
	assert.Equal(t, job.StartedAt, job.UpdatedAt)

	other := NewJob("https://example.com/v/abc", "hash-abc", "clip.mp4", "")
	assert.NotEqual(t, job.ID, other.ID)
}

func TestIDSuffix(t *testing.T) {
	assert.Equal(t, "deadbeef", IDSuffix("dead-beef-0123-4567"))
	assert.Equal(t, "abc", IDSuffix("abc"))
	assert.Equal(t, "", IDSuffix(""))
}

func TestJobLifecycleHelpers(t *testing.T) {
	job := NewJob("https://example.com/v/abc", "hash-abc", "clip.mp4", "")

	job.Complete(2048)
	assert.Equal(t, StatusCompleted, job.Status)
	require.NotNil(t, job.Filesize)
	assert.Equal(t, int64(2048), *job.Filesize)
	assert.Equal(t, float64(100), job.Progress)
	assert.NotNil(t, job.CompletedAt)
	assert.True(t, job.Status.Terminal())

	failed := NewJob("https://example.com/v/abc", "hash-abc", "clip.mp4", "")
	failed.Fail("network unreachable")
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Equal(t, "network unreachable", failed.Error)
	assert.True(t, failed.Status.Terminal())
}

func TestIsValidStatus(t *testing.T) {
	assert.True(t, IsValidStatus("started"))
	assert.True(t, IsValidStatus("completed"))
	assert.True(t, IsValidStatus("failed"))
	assert.False(t, IsValidStatus("queued"))
	assert.False(t, IsValidStatus(""))
}
