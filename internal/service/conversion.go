package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/bnema/audiochunk/internal/domain"
	"github.com/bnema/audiochunk/internal/infrastructure/logger"
	"github.com/bnema/audiochunk/internal/port"
)

const DefaultBaseName = "downloaded_video"

var ErrInterrupted = errors.New("interrupted by restart")

type SubmitRequest struct {
	// ID is generated when empty.
	ID       string
	Source   domain.Source
	Params   domain.Params
	BaseName string
}

type SubmitResult struct {
	Job                 *domain.Job
	AdmittedImmediately bool
	QueuePosition       int
	QueueLength         int
}

// Admitter is the write side of the admission queue.
type Admitter interface {
	PositionQuerier
	Submit(job *domain.Job) bool
	Stats() QueueStats
}

// ConversionService is the entry point for submissions and housekeeping.
type ConversionService struct {
	store  port.JobStore
	queue  Admitter
	layout Layout
}

func NewConversionService(store port.JobStore, queue Admitter, layout Layout) *ConversionService {
	return &ConversionService{store: store, queue: queue, layout: layout}
}

func (s *ConversionService) Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	if err := req.Source.Validate(); err != nil {
		return SubmitResult{}, err
	}
	if req.Params.ChunkSizeBytes <= 0 {
		return SubmitResult{}, fmt.Errorf("%w: chunk size must be positive", domain.ErrInvalidParams)
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	baseName := req.BaseName
	if baseName == "" {
		baseName = DefaultBaseName
	}

	job := domain.NewJob(id, req.Source, req.Params, baseName)
	if err := s.store.Save(ctx, job); err != nil {
		return SubmitResult{}, fmt.Errorf("save job: %w", err)
	}

	// Saved as queued before admission: the runner updates this record as
	// soon as it starts. The reporter reads a queued record outside the wait
	// list as running.

	// The queue and runner own job from here on.
	snapshot := job.Clone()
	admitted := s.queue.Submit(job)

	result := SubmitResult{Job: snapshot, AdmittedImmediately: admitted}
	if admitted {
		result.Job.State = domain.JobStateRunning
	} else {
		result.QueuePosition, result.QueueLength = s.queue.QueryPosition(id)
	}

	logger.Info.Printf("job %s submitted: source=%s admitted=%t position=%d",
		id, req.Source.Kind, admitted, result.QueuePosition)
	return result, nil
}

// SubmitUpload stores src as the upload of a new job and submits it.
func (s *ConversionService) SubmitUpload(ctx context.Context, filename string, src io.Reader, params domain.Params) (SubmitResult, int64, error) {
	id := uuid.NewString()
	dst := s.layout.UploadPath(id, filename)

	size, err := writeFile(dst, src)
	if err != nil {
		return SubmitResult{}, 0, fmt.Errorf("store upload: %w", err)
	}
	logger.Info.Printf("job %s: stored upload %s (%s)", id, logger.SanitizeForLog(filename), humanize.IBytes(uint64(size)))

	result, err := s.Submit(ctx, SubmitRequest{
		ID:       id,
		Source:   domain.UploadSource(dst),
		Params:   params,
		BaseName: BaseNameFromFilename(filename),
	})
	if err != nil {
		_ = os.Remove(dst)
		return SubmitResult{}, 0, err
	}
	return result, size, nil
}

// SubmitURL submits a job that downloads rawURL. filename overrides the
// output base name when set.
func (s *ConversionService) SubmitURL(ctx context.Context, rawURL, filename string, params domain.Params) (SubmitResult, error) {
	baseName := BaseNameFromFilename(filename)
	if filename == "" {
		baseName = BaseNameFromURL(rawURL)
	}
	return s.Submit(ctx, SubmitRequest{
		Source:   domain.URLSource(rawURL),
		Params:   params,
		BaseName: baseName,
	})
}

func (s *ConversionService) Stats() QueueStats {
	return s.queue.Stats()
}

// ResultFile resolves a produced file of jobID. Only names directly inside
// the job's result directory are served.
func (s *ConversionService) ResultFile(jobID, name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == FailureMarker || strings.HasPrefix(name, ".") {
		return "", domain.ErrNotFound
	}
	if jobID == "" || jobID != filepath.Base(jobID) || strings.HasPrefix(jobID, ".") {
		return "", domain.ErrNotFound
	}

	p := filepath.Join(s.layout.ResultPath(jobID), name)
	info, err := os.Stat(p)
	if err != nil || info.IsDir() {
		return "", domain.ErrNotFound
	}
	return p, nil
}

// RecoverInterrupted fails every record left non-terminal by a previous
// process. It must run before the queue accepts submissions.
func (s *ConversionService) RecoverInterrupted(ctx context.Context) (int, error) {
	jobs, err := s.store.ListByState(ctx, domain.JobStateQueued, domain.JobStateRunning)
	if err != nil {
		return 0, fmt.Errorf("list interrupted jobs: %w", err)
	}

	recovered := 0
	for _, job := range jobs {
		if job.State == domain.JobStateQueued {
			if err := job.Transition(domain.JobStateRunning); err != nil {
				logger.Error.Printf("job %s: %v", job.ID, err)
				continue
			}
		}
		if err := job.MarkFailed(ErrInterrupted); err != nil {
			logger.Error.Printf("job %s: %v", job.ID, err)
			continue
		}

		discardParts(s.layout, job.ID)
		if err := WriteFailureMarker(s.layout, job.ID, job.ErrorDetail); err != nil {
			logger.Error.Printf("job %s: %v", job.ID, err)
			continue
		}
		if err := s.store.UpdateState(ctx, job); err != nil {
			logger.Error.Printf("job %s: persist recovery: %v", job.ID, err)
			continue
		}

		removeAllLogged(s.layout.ScratchPath(job.ID))
		recovered++
	}

	if recovered > 0 {
		logger.Warn.Printf("marked %d interrupted job(s) as failed", recovered)
	}
	return recovered, nil
}

// Cleanup removes terminal jobs finished more than maxAge ago together with
// their files, then sweeps orphaned files older than maxAge.
func (s *ConversionService) Cleanup(ctx context.Context, maxAge time.Duration) error {
	cutoff := time.Now().UTC().Add(-maxAge)

	expired, err := s.store.ListFinishedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("list expired jobs: %w", err)
	}

	for _, job := range expired {
		s.removeJobFiles(job.ID)
		if err := s.store.Delete(ctx, job.ID); err != nil {
			logger.Error.Printf("job %s: delete record: %v", job.ID, err)
			continue
		}
		logger.Info.Printf("job %s: expired and removed", job.ID)
	}

	for _, dir := range []string{s.layout.ResultDir, s.layout.TempDir, s.layout.UploadDir} {
		s.sweepOrphans(ctx, dir, cutoff)
	}
	return nil
}

func (s *ConversionService) removeJobFiles(jobID string) {
	removeAllLogged(s.layout.ResultPath(jobID))
	removeAllLogged(s.layout.ScratchPath(jobID))
	for _, upload := range s.layout.UploadTraces(jobID) {
		removeLogged(upload)
	}
}

func (s *ConversionService) sweepOrphans(ctx context.Context, dir string, cutoff time.Time) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn.Printf("sweep %s: %v", dir, err)
		}
		return
	}

	for _, e := range entries {
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}

		jobID, _, _ := strings.Cut(e.Name(), "_")
		job, err := s.store.Get(ctx, jobID)
		if err == nil && !job.State.IsTerminal() {
			continue
		}
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			continue
		}

		removeAllLogged(filepath.Join(dir, e.Name()))
		logger.Info.Printf("removed stale %s", logger.SanitizeForLog(filepath.Join(dir, e.Name())))
	}
}

// BaseNameFromFilename returns the stem used for part names.
func BaseNameFromFilename(filename string) string {
	name := filepath.Base(filename)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	stem = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 || r == '/' || r == '\\' || r == '"' || r == ':' {
			return '_'
		}
		return r
	}, stem)
	stem = strings.TrimSpace(stem)
	if stem == "" || stem == "." || stem == ".." || stem == string(filepath.Separator) {
		return DefaultBaseName
	}
	return stem
}

// BaseNameFromURL derives the stem from the last path segment of rawURL.
func BaseNameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return DefaultBaseName
	}
	return BaseNameFromFilename(path.Base(u.Path))
}

func writeFile(dst string, src io.Reader) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return 0, err
	}
	f, err := os.Create(dst)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(f, src)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dst)
		return 0, err
	}
	return n, nil
}
