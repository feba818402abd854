package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"

	"github.com/bnema/audiochunk/internal/domain"
	"github.com/bnema/audiochunk/internal/port"
)

//go:embed migrations/*.sql
var migrations embed.FS

const dbFilename = "audiochunk.db"

type Store struct {
	db *sql.DB
}

var hookOnce sync.Once

func registerHook() {
	hookOnce.Do(func() {
		sqlite.RegisterConnectionHook(func(conn sqlite.ExecQuerierContext, dsn string) error {
			pragmas := []string{
				"PRAGMA journal_mode = WAL",
				"PRAGMA busy_timeout = 5000",
				"PRAGMA synchronous = NORMAL",
				"PRAGMA foreign_keys = ON",
				"PRAGMA cache_size = -8000",    // 8MB
				"PRAGMA mmap_size = 268435456", // 256MB
			}
			for _, p := range pragmas {
				if _, err := conn.ExecContext(context.Background(), p, nil); err != nil {
					return fmt.Errorf("execute %s: %w", p, err)
				}
			}
			return nil
		})
	})
}

var gooseOnce sync.Once

func NewStore(ctx context.Context, dataDir string) (*Store, error) {
	registerHook()

	db, err := sql.Open("sqlite", filepath.Join(dataDir, dbFilename))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single connection for SQLite (WAL allows concurrent reads but only one writer)
	db.SetMaxOpenConns(1)

	var dialectErr error
	gooseOnce.Do(func() {
		goose.SetBaseFS(migrations)
		dialectErr = goose.SetDialect("sqlite3")
	})
	if dialectErr != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set goose dialect: %w", dialectErr)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping is used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const jobColumns = `id, source_kind, source_path, source_url, chunk_size_bytes, bitrate, base_name,
	state, outputs_json, error_detail, submitted_at, started_at, finished_at`

func (s *Store) Save(ctx context.Context, job *domain.Job) error {
	outputs, err := encodeOutputs(job.Outputs)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID,
		string(job.Source.Kind),
		job.Source.Path,
		job.Source.URL,
		job.Params.ChunkSizeBytes,
		string(job.Params.Bitrate),
		job.BaseName,
		string(job.State),
		outputs,
		job.ErrorDetail,
		toMillis(job.SubmittedAt),
		toMillis(job.StartedAt),
		toMillis(job.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("insert job %s: %w", job.ID, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*domain.Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return job, nil
}

func (s *Store) UpdateState(ctx context.Context, job *domain.Job) error {
	outputs, err := encodeOutputs(job.Outputs)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `UPDATE jobs
		SET state = ?, outputs_json = ?, error_detail = ?, started_at = ?, finished_at = ?
		WHERE id = ?`,
		string(job.State),
		outputs,
		job.ErrorDetail,
		toMillis(job.StartedAt),
		toMillis(job.FinishedAt),
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("update job %s: %w", job.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update job %s: %w", job.ID, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) ListByState(ctx context.Context, states ...domain.JobState) ([]*domain.Job, error) {
	if len(states) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(states)), ", ")
	args := make([]any, len(states))
	for i, st := range states {
		args[i] = string(st)
	}

	return s.list(ctx, `SELECT `+jobColumns+` FROM jobs
		WHERE state IN (`+placeholders+`)
		ORDER BY submitted_at ASC`, args...)
}

func (s *Store) ListFinishedBefore(ctx context.Context, cutoff time.Time) ([]*domain.Job, error) {
	return s.list(ctx, `SELECT `+jobColumns+` FROM jobs
		WHERE state IN (?, ?) AND finished_at > 0 AND finished_at < ?
		ORDER BY finished_at ASC`,
		string(domain.JobStateCompleted), string(domain.JobStateFailed), toMillis(cutoff))
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete job %s: %w", id, err)
	}
	return nil
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]*domain.Job, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*domain.Job, error) {
	var (
		job                           domain.Job
		kind, bitrate, state, outputs string
		submitted, started, finished  int64
	)
	err := row.Scan(
		&job.ID,
		&kind,
		&job.Source.Path,
		&job.Source.URL,
		&job.Params.ChunkSizeBytes,
		&bitrate,
		&job.BaseName,
		&state,
		&outputs,
		&job.ErrorDetail,
		&submitted,
		&started,
		&finished,
	)
	if err != nil {
		return nil, err
	}

	job.Source.Kind = domain.SourceKind(kind)
	job.Params.Bitrate = domain.Bitrate(bitrate)
	job.State = domain.JobState(state)
	job.SubmittedAt = fromMillis(submitted)
	job.StartedAt = fromMillis(started)
	job.FinishedAt = fromMillis(finished)

	if err := json.Unmarshal([]byte(outputs), &job.Outputs); err != nil {
		return nil, fmt.Errorf("decode outputs of job %s: %w", job.ID, err)
	}
	if len(job.Outputs) == 0 {
		job.Outputs = nil
	}
	return &job, nil
}

func encodeOutputs(outputs []domain.Output) (string, error) {
	if len(outputs) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(outputs)
	if err != nil {
		return "", fmt.Errorf("encode outputs: %w", err)
	}
	return string(b), nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

var _ port.JobStore = (*Store)(nil)
