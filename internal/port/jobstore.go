package port

import (
	"context"
	"time"

	"github.com/bnema/audiochunk/internal/domain"
)

type JobStore interface {
	Save(ctx context.Context, job *domain.Job) error
	Get(ctx context.Context, id string) (*domain.Job, error)
	// UpdateState persists state, timestamps, error detail and outputs.
	UpdateState(ctx context.Context, job *domain.Job) error
	ListByState(ctx context.Context, states ...domain.JobState) ([]*domain.Job, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time) ([]*domain.Job, error)
	Delete(ctx context.Context, id string) error
}
