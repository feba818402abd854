package validation

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const maxFilenameLength = 255

// fallbackFilename replaces names that sanitize to nothing.
const fallbackFilename = "file"

// unsafeRunes break Content-Disposition quoting or act as path separators.
var unsafeRunes = map[rune]bool{
	'"':  true,
	'\\': true,
	'/':  true,
	':':  true,
	'\n': true,
	'\r': true,
}

// SanitizeFilename makes a client-supplied name safe to store on disk and to
// echo in headers. Unsafe and control characters become underscores, leading
// dots are dropped so the result is never hidden or a parent reference, and
// the name is cut to 255 bytes keeping its extension.
func SanitizeFilename(name string) string {
	// Browsers on Windows may send the full client path.
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}

	var sb strings.Builder
	sb.Grow(len(name))
	for _, r := range name {
		if r < 32 || r == 127 || unsafeRunes[r] {
			sb.WriteRune('_')
			continue
		}
		sb.WriteRune(r)
	}

	result := strings.TrimLeft(strings.TrimSpace(sb.String()), ".")
	if strings.Trim(result, "_ ") == "" {
		return fallbackFilename
	}

	if len(result) > maxFilenameLength {
		result = truncateKeepingExt(result)
	}
	return result
}

// HasExtension reports whether name ends in ext, ignoring case.
func HasExtension(name, ext string) bool {
	return strings.EqualFold(filepath.Ext(name), ext)
}

func truncateKeepingExt(name string) string {
	ext := filepath.Ext(name)
	if ext == "" || len(ext) >= maxFilenameLength {
		return truncateToBytes(name, maxFilenameLength)
	}
	stem := name[:len(name)-len(ext)]
	return truncateToBytes(stem, maxFilenameLength-len(ext)) + ext
}

// truncateToBytes cuts s to at most maxBytes without splitting a rune.
func truncateToBytes(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}

// ContentDisposition returns an attachment header value for filename. Names
// outside ASCII also get an RFC 5987 filename* parameter.
func ContentDisposition(filename string) string {
	sanitized := SanitizeFilename(filename)

	ascii := true
	for i := 0; i < len(sanitized); i++ {
		if sanitized[i] >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if ascii {
		return fmt.Sprintf("attachment; filename=%q", sanitized)
	}

	fallback := strings.Map(func(r rune) rune {
		if r >= utf8.RuneSelf {
			return '_'
		}
		return r
	}, sanitized)
	return fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s", fallback, url.PathEscape(sanitized))
}
