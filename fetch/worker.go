package fetch

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/teranos/clipd/errors"
	"github.com/teranos/clipd/logger"
	"github.com/teranos/clipd/ytdlp"
)

const stopTimeout = 10 * time.Second

// progressStep is the minimum percentage delta between ledger writes, so a
// chatty tool does not turn every output line into an UPDATE
const progressStep = 1.0

// Start launches the worker pool
func (sv *Supervisor) Start() {
	select {
	case <-sv.ctx.Done():
		sv.ctx, sv.cancel = context.WithCancel(sv.parentCtx)
	default:
	}

	if warning := sv.checkMemoryPressure(); warning != "" {
		sv.log.Warnw("Memory pressure warning",
			"warning", warning,
			"workers", sv.cfg.Workers,
		)
	}

	for i := 0; i < sv.cfg.Workers; i++ {
		sv.wg.Add(1)
		go sv.worker(i)
	}

	sv.log.Infow("Worker pool started",
		"workers", sv.cfg.Workers,
		"queue_depth", sv.cfg.QueueDepth,
	)
}

// Stop cancels in-flight downloads and waits briefly for workers to exit.
// Jobs cut off mid-download are failed by the next ReconcileStale pass.
func (sv *Supervisor) Stop() {
	sv.cancel()

	done := make(chan struct{})
	go func() {
		sv.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		sv.log.Infow("Worker pool stopped")
	case <-time.After(stopTimeout):
		sv.log.Warnw("Worker pool stop timed out", "timeout", stopTimeout)
	}
}

func (sv *Supervisor) worker(id int) {
	defer sv.wg.Done()

	for {
		select {
		case <-sv.ctx.Done():
			return
		case t := <-sv.queue:
			sv.execute(t)
		}
	}
}

// execute runs one download end to end. Failures are recorded in the
// ledger, never propagated: nobody is waiting on this goroutine.
func (sv *Supervisor) execute(t task) {
	start := time.Now()

	// A task can sit in the queue past the reconciliation cutoff. Re-read
	// the row before spending a worker slot on it, and refresh the
	// heartbeat so the download window is measured from pickup, not from
	// admission.
	job, err := sv.store.Get(t.jobID)
	if err != nil {
		sv.log.Errorw("Failed to read job before download",
			logger.FieldJobID, t.jobID,
			logger.FieldError, err,
		)
		return
	}
	if job == nil || job.Status.Terminal() {
		sv.log.Warnw("Skipping task whose job is no longer active",
			logger.FieldJobID, t.jobID,
		)
		return
	}
	if err := sv.store.UpdateProgress(t.jobID, 0); err != nil {
		sv.log.Debugw("Heartbeat refresh failed",
			logger.FieldJobID, t.jobID,
			logger.FieldError, err,
		)
	}

	// Wall-clock bound independent of the tool's own retries, so a
	// wedged extractor cannot hold a worker slot forever.
	runCtx, cancel := context.WithTimeout(sv.ctx, sv.cfg.MaxRuntime)
	defer cancel()

	result, err := sv.downloader.Download(runCtx, ytdlp.DownloadRequest{
		URL:      t.url,
		FormatID: t.formatID,
		Dir:      sv.cfg.VaultDir,
		BaseName: t.baseName,
		Retries:  sv.cfg.Retries,
		Progress: sv.progressWriter(t.jobID),
	})
	if err != nil {
		sv.fail(t.jobID, err)
		return
	}

	if result.Size == 0 {
		if rmErr := os.Remove(result.Path); rmErr != nil && !os.IsNotExist(rmErr) {
			sv.log.Warnw("Failed to remove empty artifact",
				logger.FieldFile, result.Path,
				logger.FieldError, rmErr,
			)
		}
		sv.fail(t.jobID, errors.Wrapf(errors.ErrEmptyArtifact, "artifact %s", filepath.Base(result.Path)))
		return
	}

	actual := filepath.Base(result.Path)
	if actual != t.filename {
		if err := sv.store.RenameArtifact(t.jobID, actual); err != nil {
			sv.fail(t.jobID, errors.Wrap(err, "failed to reconcile artifact name"))
			return
		}
		sv.log.Infow("Artifact extension reconciled",
			logger.FieldJobID, t.jobID,
			logger.FieldFilename, actual,
		)
	}

	if err := sv.store.MarkCompleted(t.jobID, result.Size); err != nil {
		sv.log.Errorw("Failed to mark job completed",
			logger.FieldJobID, t.jobID,
			logger.FieldError, err,
		)
		return
	}

	sv.log.Infow("Download completed",
		logger.FieldJobID, t.jobID,
		logger.FieldFilename, actual,
		logger.FieldSize, result.Size,
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
	)
}

func (sv *Supervisor) fail(jobID string, cause error) {
	sv.log.Warnw("Download failed",
		logger.FieldJobID, jobID,
		logger.FieldError, cause,
	)

	if err := sv.store.MarkFailed(jobID, cause.Error()); err != nil {
		sv.log.Errorw("Failed to record job failure",
			logger.FieldJobID, jobID,
			logger.FieldError, err,
		)
	}
}

// progressWriter returns a callback that persists progress, skipping writes
// smaller than progressStep. Each write also refreshes the heartbeat that
// ReconcileStale relies on.
func (sv *Supervisor) progressWriter(jobID string) func(float64) {
	var last float64 = -progressStep
	return func(pct float64) {
		if pct-last < progressStep && pct < 100 {
			return
		}
		last = pct
		if err := sv.store.UpdateProgress(jobID, pct); err != nil {
			sv.log.Debugw("Progress update failed",
				logger.FieldJobID, jobID,
				logger.FieldError, err,
			)
		}
	}
}
