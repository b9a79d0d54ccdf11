package ledger

import (
	"database/sql"
)

// JobScanArgs holds the nullable column targets needed when scanning a job
// row. Non-null columns scan straight into the Job struct.
type JobScanArgs struct {
	Filesize    sql.NullInt64
	CompletedAt sql.NullTime
}

// GetJobScanTargets returns scan destinations for the job and its nullable
// columns, in the order produced by StandardJobSelectColumns
func GetJobScanTargets(job *Job, args *JobScanArgs) []interface{} {
	return []interface{}{
		&job.ID,
		&job.Filename,
		&job.URL,
		&job.URLHash,
		&job.Status,
		&job.Requester,
		&job.Error,
		&job.Progress,
		&args.Filesize,
		&job.StartedAt,
		&args.CompletedAt,
		&job.UpdatedAt,
	}
}

// ProcessJobScanArgs copies the nullable columns into the job struct
func ProcessJobScanArgs(job *Job, args *JobScanArgs) {
	if args.Filesize.Valid {
		job.Filesize = &args.Filesize.Int64
	}
	if args.CompletedAt.Valid {
		job.CompletedAt = &args.CompletedAt.Time
	}
}

// ScanJobFromRows scans a single job from sql.Rows (for use in loops)
func ScanJobFromRows(rows *sql.Rows, job *Job) error {
	args := &JobScanArgs{}
	targets := GetJobScanTargets(job, args)

	if err := rows.Scan(targets...); err != nil {
		return err
	}

	ProcessJobScanArgs(job, args)
	return nil
}

// StandardJobSelectColumns returns the standard column list for job SELECT queries
func StandardJobSelectColumns() string {
	return `id, filename, url, url_hash, status,
		requester, error, progress, filesize,
		started_at, completed_at, updated_at`
}
