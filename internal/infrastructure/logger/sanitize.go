package logger

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxLoggedLen caps how much of a client-supplied value reaches the log.
const maxLoggedLen = 256

// SanitizeForLog makes a user-controlled value (URL, filename, path) safe to
// put on a log line. Control characters, including C1 controls and the
// Unicode line separators, are escaped so a value can never forge a new
// entry or drive the terminal. Values longer than 256 bytes are cut with an
// ellipsis. Printable Unicode passes through.
func SanitizeForLog(s string) string {
	truncated := false
	if len(s) > maxLoggedLen {
		cut := maxLoggedLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
		truncated = true
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		case r >= 0x80 && r <= 0x9f, r == '\u2028', r == '\u2029':
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			b.WriteRune(r)
		}
	}
	if truncated {
		b.WriteString("...")
	}
	return b.String()
}
