// Package fetch orchestrates media downloads. The Supervisor accepts
// requests, deduplicates them against the ledger by URL fingerprint, and
// hands accepted jobs to a bounded worker pool so at most N yt-dlp
// invocations run concurrently.
package fetch

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/clipd/errors"
	"github.com/teranos/clipd/ledger"
	"github.com/teranos/clipd/logger"
	"github.com/teranos/clipd/media"
	"github.com/teranos/clipd/ytdlp"
)

// Prober runs metadata-only extractions
type Prober interface {
	Probe(ctx context.Context, url string) (*ytdlp.Metadata, bool, error)
}

// Downloader fetches media to disk
type Downloader interface {
	Download(ctx context.Context, req ytdlp.DownloadRequest) (*ytdlp.DownloadResult, error)
}

// Config contains supervisor and pool settings
type Config struct {
	Workers    int
	QueueDepth int
	MaxRuntime time.Duration
	Retries    int
	VaultDir   string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Workers:    4,
		QueueDepth: 64,
		MaxRuntime: 30 * time.Minute,
		Retries:    3,
		VaultDir:   "saved/videos",
	}
}

// Ticket is the immediate answer to a download request. Cached means no new
// work was scheduled: either the artifact already exists or an identical
// fetch is already in flight.
type Ticket struct {
	JobID    string `json:"job_id"`
	Filename string `json:"filename"`
	Cached   bool   `json:"cached"`
}

// StatusInfo is a point-in-time view of one job
type StatusInfo struct {
	Status   ledger.Status `json:"status"`
	Filename string        `json:"filename"`
	Progress float64       `json:"progress"`
	Error    string        `json:"error,omitempty"`
	Ready    bool          `json:"ready"`
}

type task struct {
	jobID    string
	url      string
	formatID string
	baseName string
	filename string
}

// Supervisor owns the dedup decision and the worker pool
type Supervisor struct {
	store      *ledger.Store
	prober     Prober
	downloader Downloader
	cfg        Config

	queue chan task

	parentCtx context.Context
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	// Serializes the check-then-insert dedup window per fingerprint so
	// concurrent requests for the same URL converge on one job row while
	// unrelated URLs admit independently of each other's probe latency.
	admitMu sync.Mutex
	admits  map[string]*admitLock

	log *zap.SugaredLogger
}

type admitLock struct {
	mu   sync.Mutex
	refs int
}

// NewSupervisor creates a supervisor. Start must be called before requests
// are accepted.
func NewSupervisor(ctx context.Context, store *ledger.Store, prober Prober, downloader Downloader, cfg Config, log *zap.SugaredLogger) *Supervisor {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = DefaultConfig().QueueDepth
	}
	if cfg.MaxRuntime <= 0 {
		cfg.MaxRuntime = DefaultConfig().MaxRuntime
	}

	workerCtx, cancel := context.WithCancel(ctx)

	return &Supervisor{
		store:      store,
		prober:     prober,
		downloader: downloader,
		cfg:        cfg,
		queue:      make(chan task, cfg.QueueDepth),
		admits:     make(map[string]*admitLock),
		parentCtx:  ctx,
		ctx:        workerCtx,
		cancel:     cancel,
		log:        log.Named("fetch"),
	}
}

// Request admits a download. It never blocks on the fetch itself: the
// returned ticket carries the job id to poll and the filename the artifact
// will have. ErrQueueFull when the pool backlog is at capacity.
func (sv *Supervisor) Request(ctx context.Context, rawURL, formatID, requester string) (*Ticket, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}

	hash := media.Fingerprint(rawURL)

	l := sv.lockFingerprint(hash)
	defer sv.unlockFingerprint(hash, l)

	// Warm cache: a completed job whose artifact is still on disk.
	completed, err := sv.store.FindCompletedByHash(hash)
	if err != nil {
		return nil, err
	}
	if completed != nil && sv.artifactExists(completed.Filename) {
		sv.log.Infow("Serving cached artifact",
			logger.FieldJobID, completed.ID,
			logger.FieldURLHash, hash,
		)
		return &Ticket{JobID: completed.ID, Filename: completed.Filename, Cached: true}, nil
	}

	// In-flight dedup: piggyback on the active job.
	active, err := sv.store.FindActiveByHash(hash)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return &Ticket{JobID: active.ID, Filename: active.Filename, Cached: true}, nil
	}

	meta, _, err := sv.prober.Probe(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	job := ledger.NewJob(rawURL, hash, "", requester)
	baseName := titleBase(meta.Title) + "_" + ledger.IDSuffix(job.ID)
	job.Filename = baseName + ".mp4"

	if err := sv.store.PutStarted(job); err != nil {
		return nil, err
	}

	select {
	case sv.queue <- task{
		jobID:    job.ID,
		url:      rawURL,
		formatID: formatID,
		baseName: baseName,
		filename: job.Filename,
	}:
	default:
		if failErr := sv.store.MarkFailed(job.ID, "worker queue full"); failErr != nil {
			sv.log.Errorw("Failed to fail overflowed job",
				logger.FieldJobID, job.ID,
				logger.FieldError, failErr,
			)
		}
		return nil, errors.Wrapf(errors.ErrQueueFull, "queue depth %d exhausted", sv.cfg.QueueDepth)
	}

	sv.log.Infow("Download scheduled",
		logger.FieldJobID, job.ID,
		logger.FieldURL, rawURL,
		logger.FieldFilename, job.Filename,
		logger.FieldRequester, requester,
	)

	return &Ticket{JobID: job.ID, Filename: job.Filename, Cached: false}, nil
}

// lockFingerprint takes the admission lock for one fingerprint. The probe
// during admission can take seconds, so the lock has to be keyed: a slow
// extractor for one URL must not stall every other request.
func (sv *Supervisor) lockFingerprint(hash string) *admitLock {
	sv.admitMu.Lock()
	l, ok := sv.admits[hash]
	if !ok {
		l = &admitLock{}
		sv.admits[hash] = l
	}
	l.refs++
	sv.admitMu.Unlock()

	l.mu.Lock()
	return l
}

func (sv *Supervisor) unlockFingerprint(hash string, l *admitLock) {
	l.mu.Unlock()

	sv.admitMu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(sv.admits, hash)
	}
	sv.admitMu.Unlock()
}

// Probe exposes metadata extraction to the HTTP layer
func (sv *Supervisor) Probe(ctx context.Context, rawURL string) (*ytdlp.Metadata, bool, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, false, err
	}
	return sv.prober.Probe(ctx, rawURL)
}

// Status reports the current ledger state of a job
func (sv *Supervisor) Status(id string) (*StatusInfo, error) {
	job, err := sv.store.Get(id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "job %s", id)
	}

	return &StatusInfo{
		Status:   job.Status,
		Filename: job.Filename,
		Progress: job.Progress,
		Error:    job.Error,
		Ready:    job.Status == ledger.StatusCompleted,
	}, nil
}

// ReconcileStale fails started rows whose heartbeat is older than the
// maximum runtime. Jobs owned by a live worker always heartbeat faster than
// that, so anything older belongs to a crashed process.
func (sv *Supervisor) ReconcileStale() (int, error) {
	cutoff := time.Now().Add(-sv.cfg.MaxRuntime)
	count, err := sv.store.FailStale(cutoff, "abandoned after restart")
	if err != nil {
		return 0, err
	}
	if count > 0 {
		sv.log.Warnw("Reconciled stale jobs", logger.FieldCount, count)
	}
	return count, nil
}

func (sv *Supervisor) artifactExists(filename string) bool {
	if filename == "" {
		return false
	}
	info, err := os.Stat(filepath.Join(sv.cfg.VaultDir, filename))
	return err == nil && info.Size() > 0
}

func validateURL(rawURL string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.Wrapf(errors.ErrInvalidRequest, "unsupported url %q", rawURL)
	}
	return nil
}

// titleBase strips any extension-looking suffix from a sanitized title so
// the job-id suffix and container extension can be appended cleanly
func titleBase(title string) string {
	base := media.Sanitize(title)
	if ext := filepath.Ext(base); len(ext) >= 2 && len(ext) <= 5 && base != ext {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}
