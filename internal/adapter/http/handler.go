package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"

	"github.com/bnema/audiochunk/internal/adapter/http/validation"
	"github.com/bnema/audiochunk/internal/domain"
	"github.com/bnema/audiochunk/internal/infrastructure/filetype"
	"github.com/bnema/audiochunk/internal/infrastructure/logger"
	"github.com/bnema/audiochunk/internal/service"
)

// ConversionService is the submission side used by the handlers.
type ConversionService interface {
	SubmitUpload(ctx context.Context, filename string, src io.Reader, params domain.Params) (service.SubmitResult, int64, error)
	SubmitURL(ctx context.Context, rawURL, filename string, params domain.Params) (service.SubmitResult, error)
	ResultFile(jobID, name string) (string, error)
	Stats() service.QueueStats
}

type StatusQuerier interface {
	Query(ctx context.Context, jobID string) (domain.StatusSnapshot, error)
}

// Defaults applied when a request omits chunk_size or bitrate.
type Defaults struct {
	ChunkSizeMB   int
	Bitrate       domain.Bitrate
	MaxUploadSize int64
}

const (
	uploadExt         = ".mp4"
	multipartMemLimit = 32 << 20
	maxJSONBody       = 64 << 10
)

type Handlers struct {
	conversions ConversionService
	status      StatusQuerier
	defaults    Defaults
}

func NewHandlers(conversions ConversionService, status StatusQuerier, defaults Defaults) *Handlers {
	return &Handlers{
		conversions: conversions,
		status:      status,
		defaults:    defaults,
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type submitResponse struct {
	JobID         string `json:"job_id"`
	Filename      string `json:"filename,omitempty"`
	URL           string `json:"url,omitempty"`
	FileSize      int64  `json:"file_size,omitempty"`
	Status        string `json:"status"`
	IsQueued      bool   `json:"is_queued"`
	QueuePosition int    `json:"queue_position,omitempty"`
	QueueLength   int    `json:"queue_length,omitempty"`
}

type fileResponse struct {
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	DownloadURL string `json:"download_url"`
}

type statusResponse struct {
	JobID         string         `json:"job_id"`
	Status        string         `json:"status"`
	QueuePosition int            `json:"queue_position,omitempty"`
	QueueLength   int            `json:"queue_length,omitempty"`
	Error         string         `json:"error,omitempty"`
	Files         []fileResponse `json:"files"`
}

type healthResponse struct {
	Status        string `json:"status"`
	Running       int    `json:"running"`
	Waiting       int    `json:"waiting"`
	MaxConcurrent int    `json:"max_concurrent"`
}

type urlRequest struct {
	URL       string `json:"url"`
	Filename  string `json:"filename"`
	ChunkSize *int   `json:"chunk_size"`
	Bitrate   string `json:"bitrate"`
}

// wireStatus is the state name clients see. Running jobs are reported as
// "processing".
func wireStatus(state domain.JobState) string {
	if state == domain.JobStateRunning {
		return "processing"
	}
	return string(state)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, title, message string) {
	writeJSON(w, status, errorResponse{Error: title, Message: message})
}

// writeDomainError maps a service error to a status code.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found", "job not found")
	case errors.Is(err, domain.ErrInvalidParams),
		errors.Is(err, domain.ErrInvalidSource),
		errors.Is(err, domain.ErrInvalidURL):
		writeError(w, http.StatusBadRequest, "Bad request", err.Error())
	default:
		logger.Error.Printf("request failed: %v", err)
		msg := "an unexpected error occurred"
		if strings.Contains(err.Error(), "no space left") {
			msg = "server is out of disk space"
		}
		writeError(w, http.StatusInternalServerError, "Internal server error", msg)
	}
}

// params builds conversion parameters, falling back to the defaults for
// fields the client left empty.
func (h *Handlers) params(chunkSizeMB *int, bitrate string) (domain.Params, error) {
	size := h.defaults.ChunkSizeMB
	if chunkSizeMB != nil {
		size = *chunkSizeMB
	}
	br := h.defaults.Bitrate
	if bitrate != "" {
		parsed, err := domain.ParseBitrate(bitrate)
		if err != nil {
			return domain.Params{}, err
		}
		br = parsed
	}
	return domain.NewParams(size, br)
}

func submitted(result service.SubmitResult) submitResponse {
	resp := submitResponse{
		JobID:    result.Job.ID,
		Status:   wireStatus(result.Job.State),
		IsQueued: !result.AdmittedImmediately,
	}
	if !result.AdmittedImmediately {
		resp.QueuePosition = result.QueuePosition
		resp.QueueLength = result.QueueLength
	}
	return resp
}

func (h *Handlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		stats := h.conversions.Stats()
		writeJSON(w, http.StatusOK, healthResponse{
			Status:        "ok",
			Running:       stats.Running,
			Waiting:       stats.Waiting,
			MaxConcurrent: stats.MaxConcurrent,
		})
	}
}

func (h *Handlers) SubmitFile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.defaults.MaxUploadSize > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, h.defaults.MaxUploadSize)
		}

		if err := r.ParseMultipartForm(multipartMemLimit); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "File too large",
					fmt.Sprintf("the file exceeds the maximum allowed size of %s", humanize.IBytes(uint64(tooLarge.Limit))))
				return
			}
			writeError(w, http.StatusBadRequest, "Bad request", "expected a multipart form")
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "Bad request", "no file part in request")
			return
		}
		defer func() { _ = file.Close() }()

		if header.Filename == "" {
			writeError(w, http.StatusBadRequest, "Bad request", "no file selected")
			return
		}
		if !validation.HasExtension(header.Filename, uploadExt) {
			writeError(w, http.StatusBadRequest, "Bad request", "file type not allowed, must be MP4")
			return
		}

		mime, allowed, err := filetype.ValidateMagicBytes(file)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Bad request", "could not read uploaded file")
			return
		}
		if !allowed {
			logger.Warn.Printf("rejected upload %s: detected %s", logger.SanitizeForLog(header.Filename), mime)
			writeError(w, http.StatusBadRequest, "Bad request", "file content is not MP4")
			return
		}

		var chunkSize *int
		if raw := r.FormValue("chunk_size"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Bad request", "chunk_size must be an integer")
				return
			}
			chunkSize = &n
		}
		params, err := h.params(chunkSize, r.FormValue("bitrate"))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		filename := validation.SanitizeFilename(header.Filename)
		result, size, err := h.conversions.SubmitUpload(r.Context(), filename, file, params)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := submitted(result)
		resp.Filename = filename
		resp.FileSize = size
		writeJSON(w, http.StatusAccepted, resp)
	}
}

func (h *Handlers) SubmitURL() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
			writeError(w, http.StatusBadRequest, "Bad request", "request must be JSON")
			return
		}

		var req urlRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Bad request", "invalid JSON body")
			return
		}
		if !validURL(req.URL) {
			writeError(w, http.StatusBadRequest, "Bad request", "url must be an absolute http or https URL")
			return
		}

		params, err := h.params(req.ChunkSize, req.Bitrate)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		result, err := h.conversions.SubmitURL(r.Context(), req.URL, req.Filename, params)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := submitted(result)
		resp.URL = req.URL
		writeJSON(w, http.StatusAccepted, resp)
	}
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (h *Handlers) Status() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := h.status.Query(r.Context(), chi.URLParam(r, "jobID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, statusBody(snap))
	}
}

func statusBody(snap domain.StatusSnapshot) statusResponse {
	resp := statusResponse{
		JobID:         snap.JobID,
		Status:        wireStatus(snap.State),
		QueuePosition: snap.QueuePosition,
		QueueLength:   snap.QueueLength,
		Error:         snap.Error,
		Files:         make([]fileResponse, 0, len(snap.Outputs)),
	}
	for _, o := range snap.Outputs {
		resp.Files = append(resp.Files, fileResponse{Filename: o.Name, Size: o.Size, DownloadURL: o.Locator})
	}
	return resp
}

func (h *Handlers) Download() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "jobID")
		name := chi.URLParam(r, "filename")

		path, err := h.conversions.ResultFile(jobID, name)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "audio/mpeg")
		w.Header().Set("Content-Disposition", validation.ContentDisposition(name))
		http.ServeFile(w, r, path)
	}
}
