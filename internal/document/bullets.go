package document

import (
	"strings"
	"unicode"
)

// SplitBullets breaks free text into bullet lines. A line ends at a newline,
// or at '.', '!' or '?' when followed by whitespace or the end of the text.
// Fragments are trimmed and empty ones dropped.
func SplitBullets(text string) []string {
	runes := []rune(text)
	bullets := []string{}
	start := 0

	emit := func(end int) {
		if fragment := strings.TrimSpace(string(runes[start:end])); fragment != "" {
			bullets = append(bullets, fragment)
		}
	}

	for i := 0; i < len(runes); i++ {
		switch r := runes[i]; {
		case r == '\n':
			emit(i)
			start = i + 1
		case r == '.' || r == '!' || r == '?':
			next := i + 1
			if next == len(runes) || unicode.IsSpace(runes[next]) {
				emit(next)
				start = next
			}
		}
	}
	if start < len(runes) {
		emit(len(runes))
	}
	return bullets
}
