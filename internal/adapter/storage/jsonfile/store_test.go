package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/audiochunk/internal/domain"
)

func newJob(id string) *domain.Job {
	return domain.NewJob(id, domain.URLSource("https://example.com/"+id+".mp4"),
		domain.Params{ChunkSizeBytes: 25 * 1024 * 1024, Bitrate: domain.Bitrate192k}, id)
}

func finishedJob(t *testing.T, id string, state domain.JobState, finishedAt time.Time) *domain.Job {
	t.Helper()
	job := newJob(id)
	require.NoError(t, job.Transition(domain.JobStateRunning))
	require.NoError(t, job.Transition(state))
	job.FinishedAt = finishedAt
	return job
}

func TestNewStore(t *testing.T) {
	t.Run("creates store successfully", func(t *testing.T) {
		store, err := NewStore(t.TempDir())

		assert.NoError(t, err)
		assert.NotNil(t, store)
		assert.NotNil(t, store.jobs)
	})

	t.Run("loads existing data from file", func(t *testing.T) {
		tempDir := t.TempDir()
		records := []*jobRecord{
			{ID: "job1", BaseName: "one", State: domain.JobStateCompleted},
			{ID: "job2", BaseName: "two", State: domain.JobStateFailed},
		}
		data, _ := json.MarshalIndent(records, "", "  ")
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, filename), data, 0600))

		store, err := NewStore(tempDir)

		assert.NoError(t, err)
		assert.Len(t, store.jobs, 2)
		assert.Equal(t, "one", store.jobs["job1"].BaseName)
	})

	t.Run("returns error for invalid JSON", func(t *testing.T) {
		tempDir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, filename), []byte("invalid json"), 0600))

		store, err := NewStore(tempDir)

		assert.Error(t, err)
		assert.Nil(t, store)
	})

	t.Run("handles empty JSON file", func(t *testing.T) {
		tempDir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, filename), []byte(""), 0600))

		store, err := NewStore(tempDir)

		assert.NoError(t, err)
		assert.Empty(t, store.jobs)
	})
}

func TestStoreSaveAndGet(t *testing.T) {
	ctx := context.Background()

	t.Run("round trips a job", func(t *testing.T) {
		store, _ := NewStore(t.TempDir())
		job := newJob("job1")

		require.NoError(t, store.Save(ctx, job))
		got, err := store.Get(ctx, "job1")

		require.NoError(t, err)
		assert.Equal(t, job.ID, got.ID)
		assert.Equal(t, job.Source, got.Source)
		assert.Equal(t, job.Params, got.Params)
		assert.Equal(t, domain.JobStateQueued, got.State)
		assert.True(t, job.SubmittedAt.Equal(got.SubmittedAt))
	})

	t.Run("returned job does not alias stored state", func(t *testing.T) {
		store, _ := NewStore(t.TempDir())
		job := newJob("job1")
		require.NoError(t, store.Save(ctx, job))

		job.State = domain.JobStateFailed
		got, _ := store.Get(ctx, "job1")
		got.BaseName = "mutated"
		again, _ := store.Get(ctx, "job1")

		assert.Equal(t, domain.JobStateQueued, got.State)
		assert.Equal(t, "job1", again.BaseName)
	})

	t.Run("returns ErrNotFound for non-existent ID", func(t *testing.T) {
		store, _ := NewStore(t.TempDir())

		got, err := store.Get(ctx, "nonexistent")

		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Nil(t, got)
	})

	t.Run("creates temp file then renames for atomic write", func(t *testing.T) {
		tempDir := t.TempDir()
		store, _ := NewStore(tempDir)

		require.NoError(t, store.Save(ctx, newJob("job1")))

		assert.FileExists(t, filepath.Join(tempDir, filename))
		assert.NoFileExists(t, filepath.Join(tempDir, filename+".tmp"))
	})
}

func TestStoreUpdateState(t *testing.T) {
	ctx := context.Background()

	t.Run("persists terminal state and outputs", func(t *testing.T) {
		tempDir := t.TempDir()
		store, _ := NewStore(tempDir)
		job := newJob("job1")
		require.NoError(t, store.Save(ctx, job))

		require.NoError(t, job.Transition(domain.JobStateRunning))
		require.NoError(t, job.MarkCompleted([]domain.Output{{Name: "job1_part1.mp3", Size: 42, Locator: "/api/download/job1/job1_part1.mp3"}}))
		require.NoError(t, store.UpdateState(ctx, job))

		reopened, err := NewStore(tempDir)
		require.NoError(t, err)
		got, err := reopened.Get(ctx, "job1")
		require.NoError(t, err)
		assert.Equal(t, domain.JobStateCompleted, got.State)
		assert.Equal(t, job.Outputs, got.Outputs)
		assert.False(t, got.StartedAt.IsZero())
		assert.False(t, got.FinishedAt.IsZero())
	})

	t.Run("persists error detail", func(t *testing.T) {
		store, _ := NewStore(t.TempDir())
		job := newJob("job1")
		require.NoError(t, store.Save(ctx, job))

		require.NoError(t, job.Transition(domain.JobStateRunning))
		require.NoError(t, job.MarkFailed(fmt.Errorf("transcode: %w", domain.ErrNoAudioTrack)))
		require.NoError(t, store.UpdateState(ctx, job))

		got, _ := store.Get(ctx, "job1")
		assert.Equal(t, "transcode: no audio track", got.ErrorDetail)
	})

	t.Run("unknown job", func(t *testing.T) {
		store, _ := NewStore(t.TempDir())

		assert.ErrorIs(t, store.UpdateState(ctx, newJob("ghost")), domain.ErrNotFound)
	})
}

func TestStoreListByState(t *testing.T) {
	ctx := context.Background()
	store, _ := NewStore(t.TempDir())

	queued := newJob("queued")
	running := newJob("running")
	require.NoError(t, running.Transition(domain.JobStateRunning))
	done := finishedJob(t, "done", domain.JobStateCompleted, time.Now())

	for _, j := range []*domain.Job{queued, running, done} {
		require.NoError(t, store.Save(ctx, j))
	}

	jobs, err := store.ListByState(ctx, domain.JobStateQueued, domain.JobStateRunning)

	require.NoError(t, err)
	ids := make(map[string]bool)
	for _, j := range jobs {
		ids[j.ID] = true
	}
	assert.Equal(t, map[string]bool{"queued": true, "running": true}, ids)
}

func TestStoreListFinishedBefore(t *testing.T) {
	ctx := context.Background()
	store, _ := NewStore(t.TempDir())
	now := time.Now().UTC()

	old := finishedJob(t, "old", domain.JobStateCompleted, now.Add(-48*time.Hour))
	oldFailed := finishedJob(t, "old-failed", domain.JobStateFailed, now.Add(-25*time.Hour))
	recent := finishedJob(t, "recent", domain.JobStateCompleted, now.Add(-time.Hour))
	active := newJob("active")

	for _, j := range []*domain.Job{old, oldFailed, recent, active} {
		require.NoError(t, store.Save(ctx, j))
	}

	jobs, err := store.ListFinishedBefore(ctx, now.Add(-24*time.Hour))

	require.NoError(t, err)
	ids := make(map[string]bool)
	for _, j := range jobs {
		ids[j.ID] = true
	}
	assert.Equal(t, map[string]bool{"old": true, "old-failed": true}, ids)
}

func TestStoreDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("persists deletion to JSON file", func(t *testing.T) {
		tempDir := t.TempDir()
		store, _ := NewStore(tempDir)
		require.NoError(t, store.Save(ctx, newJob("job1")))
		require.NoError(t, store.Delete(ctx, "job1"))

		reopened, err := NewStore(tempDir)
		require.NoError(t, err)
		assert.Empty(t, reopened.jobs)
	})

	t.Run("no error deleting non-existent job", func(t *testing.T) {
		store, _ := NewStore(t.TempDir())

		assert.NoError(t, store.Delete(ctx, "nonexistent"))
	})
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store, _ := NewStore(t.TempDir())

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			job := newJob(fmt.Sprintf("job%d", idx))
			assert.NoError(t, store.Save(ctx, job))
			_, err := store.Get(ctx, job.ID)
			assert.NoError(t, err)
			_, err = store.ListByState(ctx, domain.JobStateQueued)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Len(t, store.jobs, 20)
}
