package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bnema/audiochunk/internal/domain"
	"github.com/bnema/audiochunk/internal/port"
)

const filename = "jobs.json"

// jobRecord is the on-disk shape of a job.
type jobRecord struct {
	ID          string          `json:"id"`
	Source      domain.Source   `json:"source"`
	Params      domain.Params   `json:"params"`
	BaseName    string          `json:"base_name"`
	State       domain.JobState `json:"state"`
	Outputs     []domain.Output `json:"outputs,omitempty"`
	ErrorDetail string          `json:"error_detail,omitempty"`
	SubmittedAt time.Time       `json:"submitted_at"`
	StartedAt   time.Time       `json:"started_at,omitzero"`
	FinishedAt  time.Time       `json:"finished_at,omitzero"`
}

func toRecord(j *domain.Job) *jobRecord {
	c := j.Clone()
	return &jobRecord{
		ID:          c.ID,
		Source:      c.Source,
		Params:      c.Params,
		BaseName:    c.BaseName,
		State:       c.State,
		Outputs:     c.Outputs,
		ErrorDetail: c.ErrorDetail,
		SubmittedAt: c.SubmittedAt,
		StartedAt:   c.StartedAt,
		FinishedAt:  c.FinishedAt,
	}
}

func (r *jobRecord) toJob() *domain.Job {
	j := &domain.Job{
		ID:          r.ID,
		Source:      r.Source,
		Params:      r.Params,
		BaseName:    r.BaseName,
		State:       r.State,
		Outputs:     r.Outputs,
		ErrorDetail: r.ErrorDetail,
		SubmittedAt: r.SubmittedAt,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
	}
	return j.Clone()
}

// Store keeps job records in a single JSON file rewritten on every change.
type Store struct {
	mu   sync.RWMutex
	path string
	jobs map[string]*jobRecord
}

func NewStore(dataDir string) (*Store, error) {
	path := filepath.Join(dataDir, filename)

	store := &Store{
		path: path,
		jobs: make(map[string]*jobRecord),
	}

	if err := store.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	return store, nil
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}

	if len(data) == 0 {
		return nil
	}

	var records []*jobRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return err
	}

	for _, r := range records {
		s.jobs[r.ID] = r
	}

	return nil
}

func (s *Store) save() error {
	tmpPath := s.path + ".tmp"

	records := make([]*jobRecord, 0, len(s.jobs))
	for _, r := range s.jobs {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].SubmittedAt.Before(records[j].SubmittedAt)
	})

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}

	return os.Rename(tmpPath, s.path)
}

func (s *Store) Save(_ context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[job.ID] = toRecord(job)
	return s.save()
}

func (s *Store) Get(_ context.Context, id string) (*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	return r.toJob(), nil
}

func (s *Store) UpdateState(_ context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.jobs[job.ID]
	if !ok {
		return domain.ErrNotFound
	}

	updated := toRecord(job)
	r.State = updated.State
	r.Outputs = updated.Outputs
	r.ErrorDetail = updated.ErrorDetail
	r.StartedAt = updated.StartedAt
	r.FinishedAt = updated.FinishedAt
	return s.save()
}

func (s *Store) ListByState(_ context.Context, states ...domain.JobState) ([]*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[domain.JobState]bool, len(states))
	for _, st := range states {
		wanted[st] = true
	}

	var jobs []*domain.Job
	for _, r := range s.jobs {
		if wanted[r.State] {
			jobs = append(jobs, r.toJob())
		}
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].SubmittedAt.Before(jobs[j].SubmittedAt)
	})

	return jobs, nil
}

func (s *Store) ListFinishedBefore(_ context.Context, cutoff time.Time) ([]*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var jobs []*domain.Job
	for _, r := range s.jobs {
		if r.State.IsTerminal() && !r.FinishedAt.IsZero() && r.FinishedAt.Before(cutoff) {
			jobs = append(jobs, r.toJob())
		}
	}

	return jobs, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.jobs, id)
	return s.save()
}

var _ port.JobStore = (*Store)(nil)
