package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/bnema/audiochunk/internal/domain"
	"github.com/bnema/audiochunk/internal/infrastructure/filetype"
	"github.com/bnema/audiochunk/internal/infrastructure/logger"
	"github.com/bnema/audiochunk/internal/port"
)

// JobRunner drives one admitted job through fetch, transcode and split.
type JobRunner struct {
	store      port.JobStore
	downloader port.Downloader
	transcoder port.Transcoder
	splitter   port.Splitter
	events     EventPublisher
	layout     Layout
	timeout    time.Duration
}

func NewJobRunner(
	store port.JobStore,
	downloader port.Downloader,
	transcoder port.Transcoder,
	splitter port.Splitter,
	events EventPublisher,
	layout Layout,
) *JobRunner {
	return &JobRunner{
		store:      store,
		downloader: downloader,
		transcoder: transcoder,
		splitter:   splitter,
		events:     events,
		layout:     layout,
	}
}

// WithTimeout bounds a whole job. Zero means no bound.
func (r *JobRunner) WithTimeout(d time.Duration) *JobRunner {
	r.timeout = d
	return r
}

// Execute runs job to a terminal state and calls done exactly once.
func (r *JobRunner) Execute(job *domain.Job, done func()) {
	defer done()

	ctx := context.Background()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	if job.State == domain.JobStateQueued {
		if err := job.Transition(domain.JobStateRunning); err != nil {
			logger.Error.Printf("job %s: %v", job.ID, err)
		}
	}
	r.persist(ctx, job)
	logger.Info.Printf("job %s: started (source=%s, chunk=%s, bitrate=%s)",
		job.ID, job.Source.Kind, humanize.IBytes(uint64(job.Params.ChunkSizeBytes)), job.Params.Bitrate)

	start := time.Now()
	outputs, err := r.runStages(ctx, job)
	if err != nil {
		r.fail(ctx, job, err)
		logger.Error.Printf("job %s: failed after %s: %v", job.ID, time.Since(start).Round(time.Millisecond), err)
		return
	}

	r.complete(ctx, job, outputs)
	logger.Info.Printf("job %s: completed in %s with %d part(s)", job.ID, time.Since(start).Round(time.Millisecond), len(outputs))
}

func (r *JobRunner) runStages(ctx context.Context, job *domain.Job) (outputs []domain.Output, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &domain.StageError{Stage: domain.StageFinalize, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	scratch := r.layout.ScratchPath(job.ID)
	if err := os.MkdirAll(scratch, 0755); err != nil {
		return nil, &domain.StageError{Stage: domain.StagePrepare, Err: err}
	}
	resultDir := r.layout.ResultPath(job.ID)
	if err := os.MkdirAll(resultDir, 0755); err != nil {
		return nil, &domain.StageError{Stage: domain.StagePrepare, Err: err}
	}

	input, err := r.acquire(ctx, job, scratch)
	if err != nil {
		return nil, &domain.StageError{Stage: domain.StageFetch, Err: err}
	}

	intermediate, err := r.transcoder.Transcode(ctx, input, scratch, job.Params.Bitrate)
	if err != nil {
		return nil, &domain.StageError{Stage: domain.StageTranscode, Err: err}
	}

	parts, err := r.splitter.Split(ctx, intermediate, resultDir, job.BaseName, job.Params.ChunkSizeBytes)
	if err != nil {
		return nil, &domain.StageError{Stage: domain.StageSplit, Err: err}
	}

	SortParts(parts)
	outputs = make([]domain.Output, 0, len(parts))
	for _, part := range parts {
		info, err := os.Stat(part)
		if err != nil {
			return nil, &domain.StageError{Stage: domain.StageFinalize, Err: err}
		}
		name := filepath.Base(part)
		outputs = append(outputs, domain.Output{
			Name:    name,
			Size:    info.Size(),
			Locator: r.layout.Locator(job.ID, name),
		})
	}
	return outputs, nil
}

func (r *JobRunner) acquire(ctx context.Context, job *domain.Job, scratch string) (string, error) {
	switch job.Source.Kind {
	case domain.SourceUpload:
		return job.Source.Path, nil
	case domain.SourceURL:
		path, err := r.downloader.Download(ctx, job.Source.URL, scratch)
		if err != nil {
			return "", err
		}
		if err := filetype.ValidateFile(path); err != nil {
			removeLogged(path)
			return "", fmt.Errorf("%w: %v", domain.ErrInvalidSource, err)
		}
		return path, nil
	default:
		return "", fmt.Errorf("%w: unknown source kind %q", domain.ErrInvalidSource, job.Source.Kind)
	}
}

func (r *JobRunner) complete(ctx context.Context, job *domain.Job, outputs []domain.Output) {
	if err := job.MarkCompleted(outputs); err != nil {
		logger.Error.Printf("job %s: %v", job.ID, err)
	}
	r.persist(ctx, job)

	removeAllLogged(r.layout.ScratchPath(job.ID))
	if job.Source.Kind == domain.SourceUpload {
		removeLogged(job.Source.Path)
	}

	r.publish(job, "")
}

func (r *JobRunner) fail(ctx context.Context, job *domain.Job, cause error) {
	if err := job.MarkFailed(cause); err != nil {
		logger.Error.Printf("job %s: %v", job.ID, err)
	}

	// Parts go and the marker lands before the record turns terminal, so a
	// status query never sees a failed record next to leftover parts.
	discardParts(r.layout, job.ID)
	if err := WriteFailureMarker(r.layout, job.ID, job.ErrorDetail); err != nil {
		logger.Error.Printf("job %s: %v", job.ID, err)
	}
	r.persist(ctx, job)

	removeAllLogged(r.layout.ScratchPath(job.ID))
	if job.Source.Kind == domain.SourceUpload {
		removeLogged(job.Source.Path)
	}

	r.publish(job, job.ErrorDetail)
}

// persist outlives the job deadline so a timed-out job still records its
// terminal state.
func (r *JobRunner) persist(ctx context.Context, job *domain.Job) {
	if err := r.store.UpdateState(context.WithoutCancel(ctx), job); err != nil {
		logger.Error.Printf("job %s: persist state %s: %v", job.ID, job.State, err)
	}
}

func (r *JobRunner) publish(job *domain.Job, message string) {
	if r.events == nil {
		return
	}
	r.events.Publish(job.ID, Event{
		State:   job.State,
		Message: message,
		Outputs: append([]domain.Output(nil), job.Outputs...),
	})
}

// WriteFailureMarker records detail as the failure marker of jobID.
func WriteFailureMarker(layout Layout, jobID, detail string) error {
	if err := os.MkdirAll(layout.ResultPath(jobID), 0755); err != nil {
		return fmt.Errorf("create result dir: %w", err)
	}
	if err := os.WriteFile(layout.MarkerPath(jobID), []byte(detail), 0644); err != nil {
		return fmt.Errorf("write failure marker: %w", err)
	}
	return nil
}

func discardParts(layout Layout, jobID string) {
	parts, err := ListParts(layout.ResultPath(jobID))
	if err != nil {
		return
	}
	for _, part := range parts {
		removeLogged(part)
	}
}

func removeLogged(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn.Printf("%v: remove %s: %v", domain.ErrCleanup, logger.SanitizeForLog(path), err)
	}
}

func removeAllLogged(path string) {
	if err := os.RemoveAll(path); err != nil {
		logger.Warn.Printf("%v: remove %s: %v", domain.ErrCleanup, logger.SanitizeForLog(path), err)
	}
}
