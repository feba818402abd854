package ffmpeg

import (
	"context"
	"fmt"
	"math/bits"
	"os"
	"path/filepath"

	"github.com/bnema/audiochunk/internal/domain"
	"github.com/bnema/audiochunk/internal/infrastructure/logger"
)

// Segment is a half-open time range [StartMs, EndMs) of the source audio.
type Segment struct {
	Part    int
	StartMs int64
	EndMs   int64
}

func (s Segment) DurationMs() int64 {
	return s.EndMs - s.StartMs
}

// PlanSegments cuts durationMs into equal-length segments sized so that each
// holds at most maxChunkBytes at the file's average byte rate. The last
// segment may be shorter.
func PlanSegments(sizeBytes, durationMs, maxChunkBytes int64) ([]Segment, error) {
	if sizeBytes <= 0 || durationMs <= 0 {
		return nil, fmt.Errorf("%w: unknown size or duration", domain.ErrSplit)
	}
	if maxChunkBytes <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive", domain.ErrSplit)
	}

	// floor(maxChunkBytes / (sizeBytes / durationMs)) without losing precision.
	segmentMs := durationMs
	hi, lo := bits.Mul64(uint64(maxChunkBytes), uint64(durationMs))
	if hi < uint64(sizeBytes) {
		q, _ := bits.Div64(hi, lo, uint64(sizeBytes))
		if q < uint64(durationMs) {
			segmentMs = int64(q)
		}
	}
	if segmentMs < 1 {
		segmentMs = 1
	}

	count := (durationMs + segmentMs - 1) / segmentMs
	segments := make([]Segment, 0, count)
	for i := int64(0); i < count; i++ {
		start := i * segmentMs
		end := min(start+segmentMs, durationMs)
		segments = append(segments, Segment{Part: int(i) + 1, StartMs: start, EndMs: end})
	}
	return segments, nil
}

// PartName is the file name of one part.
func PartName(baseName string, part int) string {
	return fmt.Sprintf("%s_part%d.mp3", baseName, part)
}

// Split cuts audioPath into {baseName}_part{N}.mp3 files in outputDir. Parts
// already written are removed if any cut fails.
func (c *Converter) Split(ctx context.Context, audioPath, outputDir, baseName string, maxChunkBytes int64) ([]string, error) {
	if err := validatePath(audioPath); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInputNotFound, err)
	}
	if err := validatePath(outputDir); err != nil {
		return nil, fmt.Errorf("%w: output dir: %v", domain.ErrSplit, err)
	}
	info, err := os.Stat(audioPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInputNotFound, filepath.Base(audioPath))
	}

	probe, err := c.Probe(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSplit, err)
	}

	segments, err := PlanSegments(info.Size(), probe.DurationMs(), maxChunkBytes)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: create output dir: %v", domain.ErrSplit, err)
	}

	logger.Info.Printf("splitting %s into %d part(s)", logger.SanitizeForLog(filepath.Base(audioPath)), len(segments))

	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		out := filepath.Join(outputDir, PartName(baseName, seg.Part))
		res, err := c.runner.Run(ctx, c.ffmpegPath,
			"-v", "error",
			"-ss", formatSeconds(seg.StartMs),
			"-t", formatSeconds(seg.DurationMs()),
			"-i", audioPath,
			"-c", "copy",
			"-y",
			out,
		)
		if err != nil {
			removeParts(append(parts, out))
			return nil, fmt.Errorf("%w: part %d: %v: %s", domain.ErrSplit, seg.Part, err, stderrTail(res.Stderr))
		}
		parts = append(parts, out)
	}

	return parts, nil
}

func formatSeconds(ms int64) string {
	return fmt.Sprintf("%d.%03d", ms/1000, ms%1000)
}

func removeParts(parts []string) {
	for _, p := range parts {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			logger.Warn.Printf("%v: remove %s: %v", domain.ErrCleanup, logger.SanitizeForLog(p), err)
		}
	}
}
