package ledger

import (
	"database/sql"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/teranos/clipd/errors"
)

// Store handles persistence of download jobs
type Store struct {
	db *sql.DB
}

// NewStore creates a new job store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// PutStarted inserts a new job in the started state, whatever status the
// value carries: completion and failure only ever happen through the Mark*
// transitions. Returns ErrDuplicateJob when a row with the same id already
// exists.
func (s *Store) PutStarted(job *Job) error {
	query := `
		INSERT INTO download_jobs (
			id, filename, url, url_hash, status,
			requester, error, progress, filesize,
			started_at, completed_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL, ?, NULL, ?)
	`

	_, err := s.db.Exec(query,
		job.ID,
		job.Filename,
		job.URL,
		job.URLHash,
		StatusStarted,
		job.Requester,
		job.Error,
		job.Progress,
		job.StartedAt,
		job.UpdatedAt,
	)

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return errors.Wrapf(errors.ErrDuplicateJob, "job %s", job.ID)
	}
	if err != nil {
		return errors.Wrap(err, "failed to insert job")
	}

	return nil
}

// MarkCompleted transitions a started job to completed, recording the
// artifact size. Returns ErrNotFound when no such job exists and
// ErrInvalidState when the job is already terminal.
func (s *Store) MarkCompleted(id string, filesize int64) error {
	now := time.Now()
	query := `
		UPDATE download_jobs
		SET status = ?, filesize = ?, progress = 100,
		    completed_at = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`

	result, err := s.db.Exec(query, StatusCompleted, filesize, now, now, id, StatusStarted)
	if err != nil {
		return errors.Wrap(err, "failed to mark job completed")
	}

	return s.checkTransition(result, id)
}

// MarkFailed transitions a started job to failed with a terminal reason
func (s *Store) MarkFailed(id string, reason string) error {
	now := time.Now()
	query := `
		UPDATE download_jobs
		SET status = ?, error = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`

	result, err := s.db.Exec(query, StatusFailed, reason, now, now, id, StatusStarted)
	if err != nil {
		return errors.Wrap(err, "failed to mark job failed")
	}

	return s.checkTransition(result, id)
}

// checkTransition resolves a zero-rows-affected terminal update into
// ErrNotFound or ErrInvalidState by re-reading the current status
func (s *Store) checkTransition(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get rows affected")
	}
	if rows > 0 {
		return nil
	}

	var status Status
	err = s.db.QueryRow(`SELECT status FROM download_jobs WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return errors.Wrapf(errors.ErrNotFound, "job %s", id)
	}
	if err != nil {
		return errors.Wrap(err, "failed to check job status")
	}

	return errors.Wrapf(errors.ErrInvalidState, "job %s is already %s", id, status)
}

// UpdateProgress records download progress for a job and refreshes its
// heartbeat. A job that has already reached a terminal state is left alone.
func (s *Store) UpdateProgress(id string, pct float64) error {
	query := `
		UPDATE download_jobs
		SET progress = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`

	_, err := s.db.Exec(query, pct, time.Now(), id, StatusStarted)
	if err != nil {
		return errors.Wrap(err, "failed to update job progress")
	}

	return nil
}

// RenameArtifact records a new artifact filename after extension reconciliation
func (s *Store) RenameArtifact(id string, filename string) error {
	query := `UPDATE download_jobs SET filename = ?, updated_at = ? WHERE id = ?`

	result, err := s.db.Exec(query, filename, time.Now(), id)
	if err != nil {
		return errors.Wrap(err, "failed to rename job artifact")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return errors.Wrapf(errors.ErrNotFound, "job %s", id)
	}

	return nil
}

// Get retrieves a job by id. Returns nil when no such job exists.
func (s *Store) Get(id string) (*Job, error) {
	query := `SELECT ` + StandardJobSelectColumns() + ` FROM download_jobs WHERE id = ?`
	return s.queryOne(query, id)
}

// FindCompletedByHash returns the most recently completed job for a URL
// fingerprint, or nil when none exists
func (s *Store) FindCompletedByHash(hash string) (*Job, error) {
	query := `SELECT ` + StandardJobSelectColumns() + `
		FROM download_jobs
		WHERE url_hash = ? AND status = ?
		ORDER BY completed_at DESC
		LIMIT 1`
	return s.queryOne(query, hash, StatusCompleted)
}

// FindActiveByHash returns the in-flight job for a URL fingerprint, or nil
// when none exists. Concurrent requests for the same URL converge on this row.
func (s *Store) FindActiveByHash(hash string) (*Job, error) {
	query := `SELECT ` + StandardJobSelectColumns() + `
		FROM download_jobs
		WHERE url_hash = ? AND status = ?
		ORDER BY started_at DESC
		LIMIT 1`
	return s.queryOne(query, hash, StatusStarted)
}

func (s *Store) queryOne(query string, args ...interface{}) (*Job, error) {
	var job Job
	scanArgs := &JobScanArgs{}
	targets := GetJobScanTargets(&job, scanArgs)

	err := s.db.QueryRow(query, args...).Scan(targets...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to query job")
	}

	ProcessJobScanArgs(&job, scanArgs)
	return &job, nil
}

// ListRecent returns the most recently started jobs
func (s *Store) ListRecent(limit int) ([]*Job, error) {
	query := `SELECT ` + StandardJobSelectColumns() + `
		FROM download_jobs
		ORDER BY started_at DESC
		LIMIT ?`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list recent jobs")
	}
	defer rows.Close()

	return scanJobs(rows, "recent jobs")
}

// ListCompletedBefore returns completed jobs whose completion time predates
// the cutoff. Input for the retention sweeper.
func (s *Store) ListCompletedBefore(cutoff time.Time) ([]*Job, error) {
	query := `SELECT ` + StandardJobSelectColumns() + `
		FROM download_jobs
		WHERE status = ? AND completed_at < ?
		ORDER BY completed_at ASC`

	rows, err := s.db.Query(query, StatusCompleted, cutoff)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list completed jobs")
	}
	defer rows.Close()

	return scanJobs(rows, "completed jobs")
}

// scanJobs is a helper that scans multiple jobs from query rows
func scanJobs(rows *sql.Rows, context string) ([]*Job, error) {
	var jobs []*Job
	for rows.Next() {
		var job Job
		if err := ScanJobFromRows(rows, &job); err != nil {
			return nil, errors.Wrap(err, "failed to scan job")
		}
		jobs = append(jobs, &job)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "error iterating %s", context)
	}

	return jobs, nil
}

// Delete removes a job row. The sweeper is the only caller; artifacts are
// removed from disk before the row goes.
func (s *Store) Delete(id string) error {
	result, err := s.db.Exec(`DELETE FROM download_jobs WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete job")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return errors.Wrapf(errors.ErrNotFound, "job %s", id)
	}

	return nil
}

// FailStale fails started jobs whose heartbeat predates the cutoff. Run after
// a restart and periodically so a crashed worker never leaves a job in
// started forever. Returns the number of jobs failed.
func (s *Store) FailStale(cutoff time.Time, reason string) (int, error) {
	now := time.Now()
	query := `
		UPDATE download_jobs
		SET status = ?, error = ?, completed_at = ?, updated_at = ?
		WHERE status = ? AND updated_at < ?
	`

	result, err := s.db.Exec(query, StatusFailed, reason, now, now, StatusStarted, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "failed to fail stale jobs")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get rows affected")
	}

	return int(rows), nil
}
