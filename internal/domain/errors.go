package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidTransition = errors.New("invalid job state transition")
	ErrInvalidParams     = errors.New("invalid conversion parameters")

	ErrInputNotFound = errors.New("input not found")
	ErrInvalidSource = errors.New("invalid source")
	ErrInvalidURL    = errors.New("invalid url")
	ErrDownload      = errors.New("download failed")
	ErrNoAudioTrack  = errors.New("no audio track")
	ErrTranscode     = errors.New("transcode failed")
	ErrSplit         = errors.New("split failed")
	ErrCleanup       = errors.New("cleanup failed")
)

type Stage string

const (
	StageFetch     Stage = "fetch"
	StageTranscode Stage = "transcode"
	StageSplit     Stage = "split"
	StagePrepare   Stage = "prepare"
	StageFinalize  Stage = "finalize"
)

// StageError ties a pipeline failure to the stage that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
