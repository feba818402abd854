package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bnema/audiochunk/internal/domain"
	"github.com/bnema/audiochunk/internal/port"
)

// PositionQuerier is the read side of the admission queue.
type PositionQuerier interface {
	QueryPosition(jobID string) (position, queueLength int)
}

// StatusReporter combines queue, store and disk state into one snapshot.
// It never mutates anything.
type StatusReporter struct {
	queue  PositionQuerier
	store  port.JobStore
	layout Layout
}

func NewStatusReporter(queue PositionQuerier, store port.JobStore, layout Layout) *StatusReporter {
	return &StatusReporter{queue: queue, store: store, layout: layout}
}

func (s *StatusReporter) Query(ctx context.Context, jobID string) (domain.StatusSnapshot, error) {
	snap := domain.StatusSnapshot{JobID: jobID}

	if pos, length := s.queue.QueryPosition(jobID); pos > 0 {
		snap.State = domain.JobStateQueued
		snap.QueuePosition = pos
		snap.QueueLength = length
		return snap, nil
	}

	job, err := s.store.Get(ctx, jobID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return snap, fmt.Errorf("get job: %w", err)
	}
	if job != nil && !job.State.IsTerminal() {
		snap.State = domain.JobStateRunning
		return snap, nil
	}

	resultDir := s.layout.ResultPath(jobID)
	if detail, err := os.ReadFile(s.layout.MarkerPath(jobID)); err == nil {
		snap.State = domain.JobStateFailed
		snap.Error = string(detail)
		return snap, nil
	}

	parts, _ := ListParts(resultDir)
	if len(parts) > 0 {
		snap.State = domain.JobStateCompleted
		snap.Outputs = s.outputsFromDisk(jobID, parts)
		return snap, nil
	}

	if job != nil {
		return fromRecord(snap, job), nil
	}

	if !exists(resultDir) && !exists(s.layout.ScratchPath(jobID)) && len(s.layout.UploadTraces(jobID)) == 0 {
		return snap, fmt.Errorf("job %s: %w", jobID, domain.ErrNotFound)
	}

	snap.State = domain.JobStateRunning
	return snap, nil
}

func (s *StatusReporter) outputsFromDisk(jobID string, parts []string) []domain.Output {
	outputs := make([]domain.Output, 0, len(parts))
	for _, part := range parts {
		info, err := os.Stat(part)
		if err != nil {
			continue
		}
		name := filepath.Base(part)
		outputs = append(outputs, domain.Output{
			Name:    name,
			Size:    info.Size(),
			Locator: s.layout.Locator(jobID, name),
		})
	}
	return outputs
}

// fromRecord reports a terminal record whose disk traces are gone.
func fromRecord(snap domain.StatusSnapshot, job *domain.Job) domain.StatusSnapshot {
	snap.State = job.State
	switch job.State {
	case domain.JobStateFailed:
		snap.Error = job.ErrorDetail
	case domain.JobStateCompleted:
		snap.Outputs = append([]domain.Output(nil), job.Outputs...)
	}
	return snap
}
