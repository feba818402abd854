package service

import (
	"context"
	"sync"

	"github.com/bnema/audiochunk/internal/domain"
	"github.com/bnema/audiochunk/internal/infrastructure/logger"
)

// Executor runs one admitted job. It must call done exactly once when the job
// reaches a terminal state; extra calls are ignored.
type Executor interface {
	Execute(job *domain.Job, done func())
}

type QueueStats struct {
	Running       int `json:"running"`
	Waiting       int `json:"waiting"`
	MaxConcurrent int `json:"max_concurrent"`
}

// AdmissionQueue bounds the number of jobs executing at once and keeps the
// rest in a FIFO wait list. All state lives behind mu.
type AdmissionQueue struct {
	mu            sync.Mutex
	maxConcurrent int
	running       int
	waiting       []*domain.Job
	executor      Executor
	events        EventPublisher
	inflight      sync.WaitGroup
}

func NewAdmissionQueue(maxConcurrent int, executor Executor) *AdmissionQueue {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &AdmissionQueue{
		maxConcurrent: maxConcurrent,
		executor:      executor,
	}
}

// WithEvents makes the queue publish the queued -> running transition of
// jobs it pops from the wait list.
func (q *AdmissionQueue) WithEvents(events EventPublisher) *AdmissionQueue {
	q.events = events
	return q
}

// Submit admits job immediately when a slot is free, otherwise appends it to
// the wait list. It reports whether the job was admitted.
func (q *AdmissionQueue) Submit(job *domain.Job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running < q.maxConcurrent {
		q.startLocked(job)
		return true
	}

	q.waiting = append(q.waiting, job)
	logger.Info.Printf("job %s queued at position %d", job.ID, len(q.waiting))
	return false
}

// QueryPosition returns the 1-based wait-list position of jobID and the
// current wait-list length. Position 0 means the job is not waiting.
func (q *AdmissionQueue) QueryPosition(jobID string) (position, queueLength int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, job := range q.waiting {
		if job.ID == jobID {
			return i + 1, len(q.waiting)
		}
	}
	return 0, len(q.waiting)
}

// OnJobFinished releases one slot and, in the same critical section, admits
// the head of the wait list if there is one.
func (q *AdmissionQueue) OnJobFinished() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running == 0 {
		logger.Error.Printf("job finished signalled with no running jobs, ignoring")
		return
	}
	q.running--

	if len(q.waiting) == 0 {
		return
	}

	next := q.waiting[0]
	q.waiting[0] = nil
	q.waiting = q.waiting[1:]
	q.startLocked(next)
}

func (q *AdmissionQueue) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()

	return QueueStats{
		Running:       q.running,
		Waiting:       len(q.waiting),
		MaxConcurrent: q.maxConcurrent,
	}
}

// Wait blocks until every admitted job has signalled completion or ctx ends.
// Jobs still in the wait list are not waited for.
func (q *AdmissionQueue) Wait(ctx context.Context) error {
	finished := make(chan struct{})
	go func() {
		q.inflight.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *AdmissionQueue) startLocked(job *domain.Job) {
	q.running++
	q.inflight.Add(1)

	if job.State == domain.JobStateQueued {
		if err := job.Transition(domain.JobStateRunning); err != nil {
			logger.Error.Printf("job %s: %v", job.ID, err)
		}
	}
	if q.events != nil {
		q.events.Publish(job.ID, Event{State: domain.JobStateRunning})
	}

	var once sync.Once
	done := func() {
		once.Do(func() {
			q.OnJobFinished()
			q.inflight.Done()
		})
	}

	go q.executor.Execute(job, done)
}
