package ledger

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/clipd/errors"
)

// Database failure paths are driven with sqlmock; the happy paths run
// against a real in-memory database in store_test.go.

func TestPutStartedWrapsExecError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO download_jobs").
		WillReturnError(errors.New("disk I/O error"))

	store := NewStore(db)
	err = store.PutStarted(NewJob("https://example.com/v", "h", "f.mp4", ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert job")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkCompletedWrapsExecError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE download_jobs").
		WillReturnError(errors.New("database is locked"))

	store := NewStore(db)
	err = store.MarkCompleted("some-id", 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to mark job completed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFailStaleWrapsExecError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE download_jobs").
		WillReturnError(errors.New("database is locked"))

	store := NewStore(db)
	_, err = store.FailStale(time.Now().Add(-time.Hour), "stale")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fail stale jobs")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecentWrapsQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").
		WillReturnError(errors.New("no such table: download_jobs"))

	store := NewStore(db)
	_, err = store.ListRecent(10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list recent jobs")
	assert.NoError(t, mock.ExpectationsWereMet())
}
