package editor

import (
	"fmt"
	"strings"
)

// Format is an inline formatting action from the editing toolbar.
type Format string

const (
	FormatBold      Format = "bold"
	FormatItalic    Format = "italic"
	FormatUnderline Format = "underline"
	FormatList      Format = "list"
)

type formatRule struct {
	open, close string
	placeholder string
}

var formatRules = map[Format]formatRule{
	FormatBold:      {"<strong>", "</strong>", "Bold text"},
	FormatItalic:    {"<em>", "</em>", "Italic text"},
	FormatUnderline: {"<u>", "</u>", "Underlined text"},
	FormatList:      {"", "", "New list item"},
}

const bulletPrefix = "\n• "

// ParseFormat validates a toolbar action name.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := formatRules[f]; !ok {
		return "", fmt.Errorf("unknown format %q", name)
	}
	return f, nil
}

// ApplyFormatting wraps the selection [start, end) of content, counted in
// runes, with the markup for f. An empty selection inserts a placeholder.
// Out-of-range offsets are clamped. It returns the new content and the
// caret position just after the inserted text.
func ApplyFormatting(content string, start, end int, f Format) (string, int, error) {
	rule, ok := formatRules[f]
	if !ok {
		return content, 0, fmt.Errorf("unknown format %q", f)
	}

	runes := []rune(content)
	start = clamp(start, 0, len(runes))
	end = clamp(end, start, len(runes))

	selected := string(runes[start:end])
	var inserted string
	switch {
	case f == FormatList && selected != "":
		inserted = bulletPrefix + strings.Join(strings.Split(selected, "\n"), bulletPrefix)
	case f == FormatList:
		inserted = bulletPrefix + rule.placeholder
	case selected != "":
		inserted = rule.open + selected + rule.close
	default:
		inserted = rule.open + rule.placeholder + rule.close
	}

	out := string(runes[:start]) + inserted + string(runes[end:])
	return out, start + len([]rune(inserted)), nil
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
