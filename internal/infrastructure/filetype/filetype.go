// Package filetype checks that media sources are containers the pipeline accepts.
package filetype

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
)

var (
	ErrDisallowedFileType = errors.New("file type not allowed")
	ErrEmptyFile          = errors.New("file is empty")
)

var allowedMIMETypes = map[string]bool{
	"video/mp4": true,
}

const magicBytesBufferSize = 512

// ValidateMagicBytes detects the content type of reader from its first bytes
// and rewinds it. allowed is true only for accepted containers.
func ValidateMagicBytes(reader io.ReadSeeker) (mime string, allowed bool, err error) {
	buf := make([]byte, magicBytesBufferSize)
	n, err := io.ReadFull(reader, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", false, err
	}

	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return "", false, err
	}

	if n == 0 {
		return "application/octet-stream", false, nil
	}
	buf = buf[:n]

	mime = detectContainer(buf)
	if mime == "" {
		mime = http.DetectContentType(buf)
	}

	return mime, allowedMIMETypes[mime], nil
}

// ValidateFile opens path and checks it is non-empty and an accepted container.
func ValidateFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		return ErrEmptyFile
	}

	mime, allowed, err := ValidateMagicBytes(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if !allowed {
		return fmt.Errorf("%w: %s", ErrDisallowedFileType, mime)
	}
	return nil
}

func detectContainer(buf []byte) string {
	if len(buf) < 4 {
		return ""
	}

	// EBML header
	if buf[0] == 0x1A && buf[1] == 0x45 && buf[2] == 0xDF && buf[3] == 0xA3 {
		return "video/webm"
	}

	// ISO base media: [size]["ftyp"][major brand]
	if len(buf) >= 12 && string(buf[4:8]) == "ftyp" {
		switch string(buf[8:12]) {
		case "qt  ":
			return "video/quicktime"
		case "M4A ", "M4B ":
			return "audio/mp4"
		default:
			return "video/mp4"
		}
	}

	return ""
}
