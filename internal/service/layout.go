package service

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

const (
	FailureMarker = "error.txt"
	partExt       = ".mp3"
)

var partPattern = regexp.MustCompile(`_part(\d+)\.mp3$`)

// Layout holds the on-disk conventions shared by the runner, the status
// reporter and the janitor.
type Layout struct {
	UploadDir string
	ResultDir string
	TempDir   string
}

func (l Layout) EnsureDirs() error {
	for _, dir := range []string{l.UploadDir, l.ResultDir, l.TempDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func (l Layout) ResultPath(jobID string) string {
	return filepath.Join(l.ResultDir, jobID)
}

func (l Layout) ScratchPath(jobID string) string {
	return filepath.Join(l.TempDir, jobID)
}

func (l Layout) UploadPath(jobID, filename string) string {
	return filepath.Join(l.UploadDir, jobID+"_"+filename)
}

func (l Layout) MarkerPath(jobID string) string {
	return filepath.Join(l.ResultPath(jobID), FailureMarker)
}

// Locator is the download URL of one produced part.
func (l Layout) Locator(jobID, name string) string {
	return "/api/download/" + url.PathEscape(jobID) + "/" + url.PathEscape(name)
}

// UploadTraces returns the uploaded sources still on disk for jobID.
func (l Layout) UploadTraces(jobID string) []string {
	matches, err := filepath.Glob(filepath.Join(l.UploadDir, globEscape(jobID)+"_*"))
	if err != nil {
		return nil
	}
	return matches
}

// ListParts returns the MP3 parts in dir ordered by part number.
func ListParts(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var parts []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != partExt {
			continue
		}
		parts = append(parts, filepath.Join(dir, e.Name()))
	}
	SortParts(parts)
	return parts, nil
}

// SortParts orders paths by their _partN suffix, numerically.
func SortParts(parts []string) {
	sort.SliceStable(parts, func(i, j int) bool {
		ni, nj := partNumber(parts[i]), partNumber(parts[j])
		if ni != nj {
			return ni < nj
		}
		return parts[i] < parts[j]
	})
}

func partNumber(path string) int {
	m := partPattern.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

func globEscape(s string) string {
	var out []rune
	for _, r := range s {
		switch r {
		case '*', '?', '[', '\\':
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
