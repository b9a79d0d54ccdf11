package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/clipd/errors"
	"github.com/teranos/clipd/logger"
)

// DefaultFormat is requested when the caller does not pick a format id
const DefaultFormat = "bestvideo+bestaudio/best"

const stderrTailLines = 5

// Options configures a Client
type Options struct {
	Binary          string
	ExtraArgs       []string
	ProbeTimeout    time.Duration
	ProbeCacheTTL   time.Duration
	ProbesPerMinute int
}

// Client invokes the yt-dlp binary. Probes are rate limited and memoized
// for a short TTL; downloads are bounded by the caller's context.
type Client struct {
	binary       string
	extraArgs    []string
	probeTimeout time.Duration
	limiter      *rate.Limiter
	cache        *probeCache
	log          *zap.SugaredLogger
}

// NewClient creates a Client around the configured binary
func NewClient(opts Options, log *zap.SugaredLogger) *Client {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if opts.Binary == "" {
		opts.Binary = "yt-dlp"
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 15 * time.Second
	}

	limit := rate.Inf
	if opts.ProbesPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(opts.ProbesPerMinute))
	}

	return &Client{
		binary:       opts.Binary,
		extraArgs:    opts.ExtraArgs,
		probeTimeout: opts.ProbeTimeout,
		limiter:      rate.NewLimiter(limit, 1),
		cache:        newProbeCache(opts.ProbeCacheTTL),
		log:          log,
	}
}

// Probe runs a metadata-only extraction for the URL. The second return value
// reports whether the result came from the TTL cache.
func (c *Client) Probe(ctx context.Context, url string) (*Metadata, bool, error) {
	if meta := c.cache.get(url); meta != nil {
		return meta, true, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, false, errors.Wrap(err, "probe rate limit wait interrupted")
	}

	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	args := []string{
		"-J",
		"--no-playlist",
		"--no-warnings",
		"--socket-timeout", strconv.Itoa(int(c.probeTimeout.Seconds())),
		url,
	}

	cmd := exec.CommandContext(ctx, c.binary, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		c.log.Warnw("Probe failed",
			logger.FieldURL, url,
			logger.FieldError, err,
		)
		return nil, false, errors.Wrapf(errors.ErrExtraction,
			"yt-dlp probe failed: %s", stderrTail(stderr.String(), stderrTailLines))
	}

	meta, err := ParseMetadata(stdout.Bytes())
	if err != nil {
		return nil, false, err
	}

	c.log.Debugw("Probe completed",
		logger.FieldURL, url,
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
	)

	c.cache.put(url, meta)
	return meta, false, nil
}

// DownloadRequest describes one media fetch
type DownloadRequest struct {
	URL      string
	FormatID string
	Dir      string // vault directory the artifact lands in
	BaseName string // filename without extension
	Retries  int
	Progress func(pct float64) // optional, called per progress line
}

// DownloadResult reports where the artifact actually landed
type DownloadResult struct {
	Path string
	Size int64
}

// Download fetches the media, remuxing to mp4 where possible. The tool may
// still pick another container; callers reconcile the extension against the
// returned path. Success is judged by the file on disk, not the exit code.
func (c *Client) Download(ctx context.Context, req DownloadRequest) (*DownloadResult, error) {
	format := req.FormatID
	if format == "" {
		format = DefaultFormat
	}

	args := []string{
		"--no-playlist",
		"--no-warnings",
		"--newline",
		"--retries", strconv.Itoa(req.Retries),
		"--fragment-retries", strconv.Itoa(req.Retries),
		"--recode-video", "mp4",
		"-f", format,
		"-o", filepath.Join(req.Dir, req.BaseName+".%(ext)s"),
	}
	args = append(args, c.extraArgs...)
	args = append(args, req.URL)

	cmd := exec.CommandContext(ctx, c.binary, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "failed to open tool stdout")
	}

	c.log.Infow("Download starting",
		logger.FieldURL, req.URL,
		logger.FieldBinary, c.binary,
		logger.FieldFile, req.BaseName,
	)

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(errors.ErrDownload, "failed to start %s: %v", c.binary, err)
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		if pct, ok := ParseProgress(scanner.Text()); ok && req.Progress != nil {
			req.Progress(pct)
		}
	}

	runErr := cmd.Wait()

	path, size, found := findArtifact(req.Dir, req.BaseName)

	if runErr != nil {
		if found {
			// Partial failures (a missed fragment, a failed postprocess
			// step) can still leave a playable file behind.
			c.log.Warnw("Tool exited non-zero but artifact exists",
				logger.FieldURL, req.URL,
				logger.FieldFile, path,
				logger.FieldError, runErr,
			)
			return &DownloadResult{Path: path, Size: size}, nil
		}
		return nil, errors.Wrapf(errors.ErrDownload,
			"yt-dlp download failed: %s", stderrTail(stderr.String(), stderrTailLines))
	}

	if !found {
		return nil, errors.Wrapf(errors.ErrDownload,
			"tool exited cleanly but produced no file for %s", req.BaseName)
	}

	return &DownloadResult{Path: path, Size: size}, nil
}

// findArtifact locates the produced file by base-name prefix, since the tool
// chooses the final extension. Picks the largest candidate when temp files
// linger next to the real artifact.
func findArtifact(dir, base string) (string, int64, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", 0, false
	}

	var best string
	var bestSize int64 = -1
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, base+".") {
			continue
		}
		if strings.HasSuffix(name, ".part") || strings.HasSuffix(name, ".ytdl") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.Size() > bestSize {
			best = filepath.Join(dir, name)
			bestSize = info.Size()
		}
	}

	if bestSize < 0 {
		return "", 0, false
	}
	return best, bestSize, true
}
