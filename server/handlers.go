package server

import (
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/teranos/clipd/internal/version"
	"github.com/teranos/clipd/logger"
)

// HandleInfo probes a URL for metadata without downloading.
//
//	GET /api/info?url=https://...
func (s *Server) HandleInfo(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		writeError(w, http.StatusBadRequest, "url parameter required")
		return
	}

	meta, cached, err := s.supervisor.Probe(r.Context(), rawURL)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    meta,
		"cached":  cached,
	})
}

type downloadRequest struct {
	URL      string `json:"url"`
	FormatID string `json:"format_id,omitempty"`
}

// HandleDownload schedules a download and returns immediately.
//
//	POST /api/download {"url": "...", "format_id": "..."}
func (s *Server) HandleDownload(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req downloadRequest
	if readJSON(w, r, &req) != nil {
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url required")
		return
	}

	ticket, err := s.supervisor.Request(r.Context(), req.URL, req.FormatID, remoteHost(r))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.log.Infow("Download request accepted",
		logger.FieldJobID, shortID(ticket.JobID),
		logger.FieldURL, req.URL,
		"cached", ticket.Cached,
	)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"job_id":       ticket.JobID,
		"filename":     ticket.Filename,
		"download_url": "/downloads/" + ticket.Filename,
		"cached":       ticket.Cached,
	})
}

// HandleStatus reports the ledger state of one job.
//
//	GET /api/status/{job_id}
func (s *Server) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	parts := extractPathParts(r.URL.Path, "/api/status/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "job id required")
		return
	}

	info, err := s.supervisor.Status(parts[0])
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	var downloadURL interface{}
	if info.Ready {
		downloadURL = "/downloads/" + info.Filename
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"status":       info.Status,
		"filename":     info.Filename,
		"progress":     info.Progress,
		"error":        info.Error,
		"download_url": downloadURL,
	})
}

// HandleArtifact streams a completed artifact with range support.
//
//	GET /downloads/{filename}
func (s *Server) HandleArtifact(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/downloads/")
	if name == "" {
		writeError(w, http.StatusBadRequest, "filename required")
		return
	}

	f, info, err := s.vault.Open(name)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(name)+`"`)
	http.ServeContent(w, r, name, info.ModTime(), f)

	s.log.Infow("Artifact served",
		logger.FieldFilename, name,
		logger.FieldSize, info.Size(),
	)
}

// HandleJobs lists recent jobs, newest first.
//
//	GET /api/jobs?limit=20
func (s *Server) HandleJobs(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		if parsed > 100 {
			parsed = 100
		}
		limit = parsed
	}

	jobs, err := s.store.ListRecent(limit)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"jobs":    jobs,
	})
}

// HandleHealth is the liveness endpoint
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	info := version.Get()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": info.Version,
	})
}

// HandleLogDownload serves the current log file as an attachment
func (s *Server) HandleLogDownload(w http.ResponseWriter, r *http.Request) {
	logPath := logger.FilePath()
	if logPath == "" {
		writeError(w, http.StatusNotFound, "file logging is not enabled")
		return
	}

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		writeError(w, http.StatusNotFound, "log file not found")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+filepath.Base(logPath))
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, logPath)
}

// writeDomainError maps a domain error onto the wire, logging the full
// chain and returning only the public message
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)

	if status >= http.StatusInternalServerError {
		s.log.Errorw("Request failed",
			logger.FieldMethod, r.Method,
			logger.FieldPath, r.URL.Path,
			logger.FieldError, err,
		)
	} else {
		s.log.Warnw("Request rejected",
			logger.FieldMethod, r.Method,
			logger.FieldPath, r.URL.Path,
			logger.FieldError, err,
		)
	}

	writeError(w, status, publicMessage(err, status))
}

// remoteHost strips the port from the peer address for audit logging
func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
