package domain

import (
	"regexp"
	"strings"
)

var ansiPattern = regexp.MustCompile(`(\x1b\[|\x{9b})[0-?]*[ -/]*[@-~]|\x1b\][^\x07\x1b]*(\x07|\x1b\\)`)

// CleanText strips ANSI escape sequences and control characters from
// server-provided text before it is drawn in a terminal. C0 and C1 controls
// are removed, newlines and tabs are kept.
func CleanText(s string) string {
	s = ansiPattern.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r < 0x20 || (r >= 0x7f && r <= 0x9f):
			return -1
		default:
			return r
		}
	}, s)
}
