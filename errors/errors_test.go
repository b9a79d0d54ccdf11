package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelWrappingPreservesIdentity(t *testing.T) {
	err := Wrap(ErrNotFound, "job abc123")
	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrInvalidState))

	// Identity survives multiple layers
	err = Wrapf(err, "looking up status")
	assert.True(t, Is(err, ErrNotFound))
}

func TestIsNotFoundError(t *testing.T) {
	assert.False(t, IsNotFoundError(nil))
	assert.False(t, IsNotFoundError(New("something else")))
	assert.True(t, IsNotFoundError(ErrNotFound))
	assert.True(t, IsNotFoundError(NewNotFoundError("job %s", "abc")))
}

func TestNewNotFoundErrorMessage(t *testing.T) {
	err := NewNotFoundError("job %s not in ledger", "deadbeef")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadbeef")
	assert.True(t, Is(err, ErrNotFound))
}

func TestWrappedErrorsCarryStackTraces(t *testing.T) {
	err := Wrap(New("boom"), "outer context")
	detailed := fmt.Sprintf("%+v", err)
	assert.Contains(t, detailed, "errors_test.go", "verbose format should include a stack trace")
}

func TestTerminalStateSentinelsAreDistinct(t *testing.T) {
	// The HTTP layer maps these to different status codes; they must not alias.
	sentinels := []error{
		ErrNotFound, ErrInvalidRequest, ErrDuplicateJob, ErrInvalidState,
		ErrPathTraversal, ErrEmptyArtifact, ErrQueueFull, ErrExtraction, ErrDownload,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			assert.False(t, Is(a, b), "%v should not match %v", a, b)
		}
	}
}
