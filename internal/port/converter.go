package port

import (
	"context"

	"github.com/bnema/audiochunk/internal/domain"
)

type Transcoder interface {
	// Transcode extracts the audio track of inputPath into an MP3 inside outputDir.
	Transcode(ctx context.Context, inputPath, outputDir string, bitrate domain.Bitrate) (outputPath string, err error)
}

type Splitter interface {
	// Split cuts audioPath into {baseName}_part{N}.mp3 files of at most maxChunkBytes each.
	Split(ctx context.Context, audioPath, outputDir, baseName string, maxChunkBytes int64) (parts []string, err error)
}
