package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/maauso/atis-broadcast/internal/atis"
	"github.com/maauso/atis-broadcast/internal/audio"
	"github.com/maauso/atis-broadcast/internal/compiler"
	"github.com/maauso/atis-broadcast/internal/job"
	"github.com/maauso/atis-broadcast/internal/job/id"
	"github.com/maauso/atis-broadcast/internal/storage"
)

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service   *job.Service
	validator *validator.Validate
	logger    *slog.Logger
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithValidator replaces the request validator.
func WithValidator(v *validator.Validate) HandlerOption {
	return func(h *Handlers) {
		if v != nil {
			h.validator = v
		}
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *job.Service, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		service:   service,
		validator: validator.New(),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// GenerateAudio handles POST /generate-audio requests.
// The report is formatted into a prompt, compiled, and the WAV is returned
// as an attachment.
func (h *Handlers) GenerateAudio(w http.ResponseWriter, r *http.Request) {
	var req GenerateAudioRequest
	if !h.decode(w, r, &req) {
		return
	}

	text, err := atis.Format(req)
	if err != nil {
		h.logger.Warn("report formatting failed", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	out, err := h.service.Compile(r.Context(), job.CompileInput{Prompt: text})
	if err != nil {
		h.writeCompileError(w, err)
		return
	}

	rc, _, err := h.service.OpenArtifact(r.Context(), out.JobID)
	if err != nil {
		h.logger.Error("failed to open artifact",
			slog.String("job_id", out.JobID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to read compiled audio", "EXPORT_ERROR")
		return
	}
	defer rc.Close()

	h.logger.Info("atis broadcast generated",
		slog.String("job_id", out.JobID),
		slog.String("airport", req.Airport),
		slog.String("letter", req.Letter),
	)
	writeWAV(w, out.Artifact.Key, rc, h.logger)
}

// CreateBroadcast handles POST /broadcasts requests.
func (h *Handlers) CreateBroadcast(w http.ResponseWriter, r *http.Request) {
	var req CreateBroadcastRequest
	if !h.decode(w, r, &req) {
		return
	}

	out, err := h.service.Compile(r.Context(), job.CompileInput{Prompt: req.Prompt})
	if err != nil {
		h.writeCompileError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, BroadcastResponse{
		ID:          out.JobID,
		Status:      string(out.Status),
		ArtifactURL: artifactURL(out.JobID, out.Artifact),
		Format:      out.Format.String(),
		DurationMs:  out.Duration.Milliseconds(),
	})
}

// GetBroadcast handles GET /broadcasts/{id} requests.
func (h *Handlers) GetBroadcast(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "broadcast ID is required", "MISSING_ID")
		return
	}
	if !id.Valid(jobID) {
		writeError(w, http.StatusNotFound, "broadcast not found", "NOT_FOUND")
		return
	}

	found, err := h.service.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "broadcast not found", "NOT_FOUND")
			return
		}
		h.logger.Error("failed to get job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get broadcast", "INTERNAL_ERROR")
		return
	}

	writeJSON(w, http.StatusOK, jobResponse(found))
}

// ListBroadcasts handles GET /broadcasts requests.
func (h *Handlers) ListBroadcasts(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.service.ListJobs(r.Context())
	if err != nil {
		h.logger.Error("failed to list jobs", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list broadcasts", "INTERNAL_ERROR")
		return
	}

	resp := ListBroadcastsResponse{Broadcasts: make([]JobResponse, 0, len(jobs))}
	for _, j := range jobs {
		resp.Broadcasts = append(resp.Broadcasts, jobResponse(j))
	}
	writeJSON(w, http.StatusOK, resp)
}

// DeleteBroadcast handles DELETE /broadcasts/{id} requests.
// The job record and its committed audio are both removed.
func (h *Handlers) DeleteBroadcast(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if !id.Valid(jobID) {
		writeError(w, http.StatusNotFound, "broadcast not found", "NOT_FOUND")
		return
	}

	err := h.service.DeleteJob(r.Context(), jobID)
	switch {
	case errors.Is(err, job.ErrJobNotFound):
		writeError(w, http.StatusNotFound, "broadcast not found", "NOT_FOUND")
		return
	case errors.Is(err, job.ErrJobActive):
		writeError(w, http.StatusConflict, err.Error(), "JOB_ACTIVE")
		return
	case err != nil:
		h.logger.Error("failed to delete job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to delete broadcast", "INTERNAL_ERROR")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetBroadcastAudio handles GET /broadcasts/{id}/audio requests.
func (h *Handlers) GetBroadcastAudio(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if !id.Valid(jobID) {
		writeError(w, http.StatusNotFound, "broadcast audio not found", "NOT_FOUND")
		return
	}

	rc, found, err := h.service.OpenArtifact(r.Context(), jobID)
	switch {
	case errors.Is(err, job.ErrJobNotFound), errors.Is(err, storage.ErrArtifactNotFound):
		writeError(w, http.StatusNotFound, "broadcast audio not found", "NOT_FOUND")
		return
	case errors.Is(err, job.ErrArtifactNotReady):
		writeError(w, http.StatusConflict, err.Error(), "NOT_READY")
		return
	case err != nil:
		h.logger.Error("failed to open artifact",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to read broadcast audio", "INTERNAL_ERROR")
		return
	}
	defer rc.Close()

	writeWAV(w, found.Artifact.Key, rc, h.logger)
}

// decode reads and validates a JSON body. It writes the error response and
// returns false on failure.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return false
	}
	return true
}

func (h *Handlers) writeCompileError(w http.ResponseWriter, err error) {
	status, code := compileErrorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("compilation failed", slog.String("code", code), slog.String("error", err.Error()))
	} else {
		h.logger.Warn("compilation rejected", slog.String("code", code), slog.String("error", err.Error()))
	}
	writeError(w, status, err.Error(), code)
}

// compileErrorStatus maps a compilation error to an HTTP status and code.
func compileErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, compiler.ErrClipNotFound):
		return http.StatusUnprocessableEntity, "CLIP_NOT_FOUND"
	case errors.Is(err, compiler.ErrNoResolvableAudio):
		return http.StatusUnprocessableEntity, "NO_RESOLVABLE_AUDIO"
	case errors.Is(err, audio.ErrUnsupportedChannels), errors.Is(err, audio.ErrUnsupportedBitDepth):
		return http.StatusUnprocessableEntity, "UNSUPPORTED_FORMAT"
	case errors.Is(err, compiler.ErrDecode):
		return http.StatusInternalServerError, "DECODE_ERROR"
	case errors.Is(err, job.ErrExport):
		return http.StatusInternalServerError, "EXPORT_ERROR"
	case errors.Is(err, job.ErrBusy):
		return http.StatusServiceUnavailable, "BUSY"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func jobResponse(j *job.Job) JobResponse {
	resp := JobResponse{
		ID:     j.ID,
		Status: string(j.Status),
		Tokens: j.TokenCount,
		Delays: j.DelayCount,
		Error:  j.Error,
	}
	if j.Status == job.StatusDone {
		resp.ArtifactURL = artifactURL(j.ID, j.Artifact)
		resp.DurationMs = j.Duration.Milliseconds()
	}
	return resp
}

// artifactURL prefers the storage URL and falls back to the audio route.
func artifactURL(jobID string, a storage.Artifact) string {
	if a.URL != "" {
		return a.URL
	}
	return "/broadcasts/" + jobID + "/audio"
}

func writeWAV(w http.ResponseWriter, filename string, body io.Reader, logger *slog.Logger) {
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		logger.Warn("failed to stream audio", slog.String("error", err.Error()))
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
