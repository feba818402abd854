package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/bnema/audiochunk/internal/domain"
	"github.com/bnema/audiochunk/internal/infrastructure/logger"
	"github.com/bnema/audiochunk/internal/port"
)

var (
	ErrEmptyPath   = errors.New("path is empty")
	ErrInvalidPath = errors.New("path contains invalid characters")
)

const (
	defaultFFmpeg  = "ffmpeg"
	defaultFFprobe = "ffprobe"
)

type Converter struct {
	ffmpegPath  string
	ffprobePath string
	runner      commandRunner
}

// NewConverter returns a converter shelling out to the given binaries.
// Empty paths resolve ffmpeg and ffprobe from PATH.
func NewConverter(ffmpegPath, ffprobePath string) *Converter {
	if ffmpegPath == "" {
		ffmpegPath = defaultFFmpeg
	}
	if ffprobePath == "" {
		ffprobePath = defaultFFprobe
	}
	return &Converter{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		runner:      &execRunner{},
	}
}

func validatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if strings.ContainsRune(path, '\x00') {
		return ErrInvalidPath
	}
	return nil
}

func (c *Converter) Probe(ctx context.Context, inputPath string) (*domain.ProbeResult, error) {
	if err := validatePath(inputPath); err != nil {
		return nil, err
	}

	res, err := c.runner.Run(ctx, c.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		inputPath,
	)
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probe domain.ProbeResult
	if err := json.Unmarshal([]byte(res.Stdout), &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	return &probe, nil
}

// Transcode writes the audio track of inputPath as {stem}.mp3 in outputDir.
func (c *Converter) Transcode(ctx context.Context, inputPath, outputDir string, bitrate domain.Bitrate) (string, error) {
	if err := validatePath(inputPath); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInputNotFound, err)
	}
	if err := validatePath(outputDir); err != nil {
		return "", fmt.Errorf("%w: output dir: %v", domain.ErrTranscode, err)
	}
	if _, err := os.Stat(inputPath); err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrInputNotFound, filepath.Base(inputPath))
	}

	probe, err := c.Probe(ctx, inputPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTranscode, err)
	}
	if !probe.HasAudio() {
		return "", domain.ErrNoAudioTrack
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("%w: create output dir: %v", domain.ErrTranscode, err)
	}

	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	outputPath := filepath.Join(outputDir, stem+".mp3")
	if outputPath == inputPath {
		outputPath = filepath.Join(outputDir, stem+"_audio.mp3")
	}

	logger.Debug.Printf("transcoding %s at %s", logger.SanitizeForLog(filepath.Base(inputPath)), bitrate)
	res, err := c.runner.Run(ctx, c.ffmpegPath,
		"-v", "error",
		"-i", inputPath,
		"-vn",
		"-c:a", "libmp3lame",
		"-b:a", string(bitrate),
		"-y",
		outputPath,
	)
	if err != nil {
		_ = os.Remove(outputPath)
		return "", fmt.Errorf("%w: %v: %s", domain.ErrTranscode, err, stderrTail(res.Stderr))
	}

	info, err := os.Stat(outputPath)
	if err != nil || info.Size() == 0 {
		_ = os.Remove(outputPath)
		return "", fmt.Errorf("%w: ffmpeg produced no output", domain.ErrTranscode)
	}

	logger.Info.Printf("transcoded %s to mp3 (%s)", logger.SanitizeForLog(filepath.Base(inputPath)), humanize.IBytes(uint64(info.Size())))
	return outputPath, nil
}

var (
	_ port.Transcoder = (*Converter)(nil)
	_ port.Splitter   = (*Converter)(nil)
)
