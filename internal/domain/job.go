package domain

import (
	"fmt"
	"time"
)

type JobState string

const (
	JobStateQueued    JobState = "queued"
	JobStateRunning   JobState = "running"
	JobStateCompleted JobState = "completed"
	JobStateFailed    JobState = "failed"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s JobState) IsTerminal() bool {
	return s == JobStateCompleted || s == JobStateFailed
}

type SourceKind string

const (
	SourceUpload SourceKind = "upload"
	SourceURL    SourceKind = "url"
)

// Source is where a job's input comes from. Exactly one of Path or URL is set.
type Source struct {
	Kind SourceKind `json:"kind"`
	Path string     `json:"path,omitempty"`
	URL  string     `json:"url,omitempty"`
}

func UploadSource(path string) Source {
	return Source{Kind: SourceUpload, Path: path}
}

func URLSource(url string) Source {
	return Source{Kind: SourceURL, URL: url}
}

func (s Source) Validate() error {
	switch s.Kind {
	case SourceUpload:
		if s.Path == "" || s.URL != "" {
			return fmt.Errorf("%w: upload source needs a path only", ErrInvalidSource)
		}
	case SourceURL:
		if s.URL == "" || s.Path != "" {
			return fmt.Errorf("%w: url source needs a url only", ErrInvalidSource)
		}
	default:
		return fmt.Errorf("%w: unknown source kind %q", ErrInvalidSource, s.Kind)
	}
	return nil
}

type Bitrate string

const (
	Bitrate64k  Bitrate = "64k"
	Bitrate128k Bitrate = "128k"
	Bitrate192k Bitrate = "192k"
	Bitrate256k Bitrate = "256k"
	Bitrate320k Bitrate = "320k"
)

var bitrates = map[Bitrate]bool{
	Bitrate64k:  true,
	Bitrate128k: true,
	Bitrate192k: true,
	Bitrate256k: true,
	Bitrate320k: true,
}

func ParseBitrate(raw string) (Bitrate, error) {
	b := Bitrate(raw)
	if !bitrates[b] {
		return "", fmt.Errorf("%w: unsupported bitrate %q", ErrInvalidParams, raw)
	}
	return b, nil
}

const (
	MinChunkSizeMB = 1
	MaxChunkSizeMB = 500
	megabyte       = 1024 * 1024
)

type Params struct {
	ChunkSizeBytes int64   `json:"chunk_size_bytes"`
	Bitrate        Bitrate `json:"bitrate"`
}

// NewParams builds conversion parameters from a chunk size in megabytes.
func NewParams(chunkSizeMB int, bitrate Bitrate) (Params, error) {
	if chunkSizeMB < MinChunkSizeMB || chunkSizeMB > MaxChunkSizeMB {
		return Params{}, fmt.Errorf("%w: chunk size must be between %d and %d MB", ErrInvalidParams, MinChunkSizeMB, MaxChunkSizeMB)
	}
	if !bitrates[bitrate] {
		return Params{}, fmt.Errorf("%w: unsupported bitrate %q", ErrInvalidParams, bitrate)
	}
	return Params{ChunkSizeBytes: int64(chunkSizeMB) * megabyte, Bitrate: bitrate}, nil
}

// Output describes one produced part.
type Output struct {
	Name    string `json:"filename"`
	Size    int64  `json:"size"`
	Locator string `json:"download_url"`
}

// Job is the record of one conversion request.
type Job struct {
	ID          string
	Source      Source
	Params      Params
	BaseName    string
	State       JobState
	Outputs     []Output
	ErrorDetail string
	SubmittedAt time.Time
	StartedAt   time.Time
	FinishedAt  time.Time
}

func NewJob(id string, source Source, params Params, baseName string) *Job {
	return &Job{
		ID:          id,
		Source:      source,
		Params:      params,
		BaseName:    baseName,
		State:       JobStateQueued,
		SubmittedAt: time.Now().UTC(),
	}
}

// Transition moves the job to the next state, enforcing queued -> running -> terminal.
func (j *Job) Transition(to JobState) error {
	if !isValidTransition(j.State, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.State, to)
	}
	j.State = to
	switch {
	case to == JobStateRunning:
		j.StartedAt = time.Now().UTC()
	case to.IsTerminal():
		j.FinishedAt = time.Now().UTC()
	}
	return nil
}

func (j *Job) MarkCompleted(outputs []Output) error {
	if err := j.Transition(JobStateCompleted); err != nil {
		return err
	}
	j.Outputs = outputs
	j.ErrorDetail = ""
	return nil
}

func (j *Job) MarkFailed(err error) error {
	if tErr := j.Transition(JobStateFailed); tErr != nil {
		return tErr
	}
	j.Outputs = nil
	j.ErrorDetail = err.Error()
	return nil
}

// Clone returns a copy that does not share the outputs slice.
func (j *Job) Clone() *Job {
	c := *j
	if j.Outputs != nil {
		c.Outputs = append([]Output(nil), j.Outputs...)
	}
	return &c
}

func isValidTransition(from, to JobState) bool {
	switch from {
	case JobStateQueued:
		return to == JobStateRunning
	case JobStateRunning:
		return to == JobStateCompleted || to == JobStateFailed
	default:
		return false
	}
}
