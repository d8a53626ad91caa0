package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"lyricsmith/internal/logging"
	"lyricsmith/internal/media/tags"
	"lyricsmith/internal/pipeline"
	"lyricsmith/internal/runstore"
	"lyricsmith/internal/services"
)

const (
	multipartMemory = 32 << 20
	defaultRunLimit = 50
	maxRunLimit     = 500
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, Health{
		Status:         "ok",
		RunsInProgress: len(s.slots),
		MaxRuns:        cap(s.slots),
		History:        s.store != nil,
	})
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if !s.acquire() {
		w.Header().Set("Retry-After", "30")
		s.writeFailure(w, http.StatusServiceUnavailable, pipeline.Failure{
			ErrorDetails: services.ErrorDetails{Code: "busy", Message: "all processing slots are in use; retry later"},
		})
		return
	}
	defer s.release()

	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, services.Wrap(services.ErrValidation, "upload", "read", fmt.Sprintf("file exceeds %d MiB", s.opts.MaxUploadBytes>>20), err), "")
			return
		}
		s.writeError(w, services.Wrap(services.ErrValidation, "upload", "read", "expected multipart form", err), "")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, services.Wrap(services.ErrValidation, "upload", "read", "no file provided", err), "")
		return
	}
	defer file.Close()
	if !tags.Supported(header.Filename) {
		s.writeError(w, services.Wrap(services.ErrValidation, "upload", "read",
			fmt.Sprintf("unsupported file type %q", filepath.Ext(header.Filename)), nil), "")
		return
	}

	runID := uuid.NewString()
	source, err := s.saveUpload(runID, header, file)
	if err != nil {
		s.writeError(w, services.Wrap(services.ErrConfiguration, "upload", "save", "store upload", err), runID)
		return
	}
	defer os.Remove(source)

	run, err := s.processor.Process(r.Context(), pipeline.Request{
		Source:          source,
		TargetLanguages: r.MultipartForm.Value["target_language"],
		ID:              runID,
	})
	if err != nil {
		s.writeError(w, err, runID)
		return
	}
	s.writeJSON(w, http.StatusOK, run.Bundle)
}

// saveUpload writes the upload under UploadDir keeping the original
// extension, which the separation engines rely on.
func (s *Server) saveUpload(runID string, header *multipart.FileHeader, file multipart.File) (string, error) {
	dir := s.opts.UploadDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	dest := filepath.Join(dir, runID+strings.ToLower(filepath.Ext(header.Filename)))
	out, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.Remove(dest)
		return "", err
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		return "", err
	}
	return dest, nil
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeJSON(w, http.StatusOK, RunListResponse{Runs: []RunSummary{}})
		return
	}
	limit := defaultRunLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeError(w, services.Wrap(services.ErrValidation, "runs", "list", "limit must be a positive integer", err), "")
			return
		}
		limit = min(n, maxRunLimit)
	}
	records, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, err, "")
		return
	}
	s.writeJSON(w, http.StatusOK, RunListResponse{Runs: FromRecords(records)})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		s.writeError(w, services.Wrap(services.ErrValidation, "runs", "get", "invalid run id", err), "")
		return
	}
	if s.store == nil {
		s.serveResultFile(w, id)
		return
	}
	rec, err := s.store.Get(r.Context(), id)
	if errors.Is(err, runstore.ErrNotFound) {
		s.writeError(w, services.Wrap(services.ErrNotFound, "runs", "get", id, err), id)
		return
	}
	if err != nil {
		s.writeError(w, err, id)
		return
	}
	s.writeJSON(w, http.StatusOK, RunDetail{RunSummary: FromRecord(rec), Result: rec.Bundle})
}

// serveResultFile answers run lookups from result.json when no history store
// is configured.
func (s *Server) serveResultFile(w http.ResponseWriter, id string) {
	data, err := os.ReadFile(filepath.Join(pipeline.RunDir(s.opts.OutputDir, id), pipeline.ResultFile))
	if err != nil {
		s.writeError(w, services.Wrap(services.ErrNotFound, "runs", "get", id, err), id)
		return
	}
	s.writeJSON(w, http.StatusOK, RunDetail{RunSummary: RunSummary{ID: id}, Result: json.RawMessage(data)})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	name := r.PathValue("name")
	path, err := pipeline.ResolveArtifact(s.opts.OutputDir, id, name)
	if err != nil {
		s.writeError(w, err, id)
		return
	}
	f, err := os.Open(path)
	if err != nil {
		s.writeError(w, services.Wrap(services.ErrNotFound, "download", "open", name, err), id)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		s.writeError(w, err, id)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeContent(w, r, name, info.ModTime(), f)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error, runID string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Warn("request failed", logging.Error(err), logging.String(logging.FieldRunID, runID))
	}
	s.writeFailure(w, status, pipeline.FailureFor(runID, err))
}

func (s *Server) writeFailure(w http.ResponseWriter, status int, failure pipeline.Failure) {
	s.writeJSON(w, status, failure)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, services.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		r = r.WithContext(services.WithRequestID(r.Context(), id))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		s.logger.Debug("request handled",
			logging.String(logging.FieldCorrelationID, id),
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", rec.status),
			logging.Duration("elapsed", time.Since(start)),
		)
	})
}
