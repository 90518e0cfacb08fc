package display

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// clean strips what would break a one-line render of feed metadata.
// Escape sequences and remaining control characters are dropped, newlines
// included, as are invalid UTF-8 bytes. Tabs and non-breaking spaces become
// plain spaces. Surrounding blanks are trimmed.
func clean(s string) string {
	if !needsClean(s) {
		return strings.TrimSpace(s)
	}
	if strings.IndexByte(s, 0x1b) >= 0 {
		s = ansi.Strip(s)
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		switch {
		case r == utf8.RuneError && size <= 1:
		case r == '\t', r == '\u00a0':
			b.WriteByte(' ')
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func needsClean(s string) bool {
	if !utf8.ValidString(s) {
		return true
	}
	for _, r := range s {
		if r == '\u00a0' || unicode.IsControl(r) {
			return true
		}
	}
	return false
}

// truncate fits s into width terminal columns. width <= 0 disables it.
func truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
