package document

import (
	"regexp"
	"strings"
)

var groupSeparator = regexp.MustCompile(`\n[ \t\r]*\n`)

// SerializeDraft renders a section's content as the editable text buffer.
func SerializeDraft(s *Section) string {
	switch s.Type {
	case TypeText:
		return s.Text
	case TypeSkills:
		lines := make([]string, 0, len(s.Skills))
		for _, c := range s.Skills {
			items := strings.Join(c.Items, ", ")
			if c.Category == "" {
				lines = append(lines, items)
			} else {
				lines = append(lines, c.Category+": "+items)
			}
		}
		return strings.Join(lines, "\n")
	case TypeList:
		if s.Grouped {
			blocks := make([]string, 0, len(s.Groups))
			for _, g := range s.Groups {
				blocks = append(blocks, serializeGroup(g))
			}
			return strings.Join(blocks, "\n\n")
		}
		return strings.Join(s.Lines, "\n")
	default:
		return strings.Join(s.Lines, "\n")
	}
}

// descriptionMarker prefixes description bullets in a field-group draft.
// Title and field lines that would read as a bullet, or that start with
// draftEscape themselves, are written with a leading draftEscape.
const (
	descriptionMarker = "- "
	draftEscape       = `\`
)

func escapeGroupLine(v string) string {
	if strings.HasPrefix(v, descriptionMarker) || strings.HasPrefix(v, draftEscape) {
		return draftEscape + v
	}
	return v
}

func serializeGroup(g FieldGroup) string {
	var lines []string
	for _, f := range g {
		if f.Kind == KindDescription {
			for _, line := range f.Lines {
				lines = append(lines, descriptionMarker+line)
			}
		} else {
			lines = append(lines, escapeGroupLine(f.Value))
		}
	}
	return strings.Join(lines, "\n")
}

// ApplyDraft parses draft back into s, keeping s.Type. Text passes through
// untouched; every other type is split into lines and blank lines dropped.
func ApplyDraft(s *Section, draft string) {
	switch s.Type {
	case TypeText:
		s.Text = draft
	case TypeSkills:
		s.Skills = parseSkills(draft)
	case TypeList:
		if s.Grouped {
			s.Groups = parseGroups(draft)
			return
		}
		s.Lines = splitLines(draft)
	default:
		s.Lines = splitLines(draft)
	}
}

// splitLines splits on newlines and keeps lines with visible content.
func splitLines(draft string) []string {
	lines := []string{}
	for _, line := range strings.Split(draft, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// parseGroups reads blank-line separated blocks. Lines starting with "- "
// are description bullets; of the remaining lines the first is the title
// and the rest are fields, with one leading escape removed.
func parseGroups(draft string) []FieldGroup {
	groups := []FieldGroup{}
	for _, block := range groupSeparator.Split(draft, -1) {
		lines := splitLines(block)
		if len(lines) == 0 {
			continue
		}
		group := FieldGroup{}
		var description []string
		for _, line := range lines {
			if bullet, ok := strings.CutPrefix(line, descriptionMarker); ok {
				description = append(description, bullet)
				continue
			}
			kind := KindField
			if len(group) == 0 {
				kind = KindTitle
			}
			group = append(group, Field{Kind: kind, Value: strings.TrimPrefix(line, draftEscape)})
		}
		if len(description) > 0 {
			group = append(group, Field{Kind: KindDescription, Lines: description})
		}
		groups = append(groups, group)
	}
	return groups
}

// parseSkills reads "Category: a, b" lines. Lines without a colon belong to
// an unnamed category.
func parseSkills(draft string) []SkillCategory {
	categories := []SkillCategory{}
	for _, line := range splitLines(draft) {
		category, items, found := strings.Cut(line, ":")
		if !found {
			category, items = "", line
		}
		categories = append(categories, SkillCategory{
			Category: strings.TrimSpace(category),
			Items:    skillItems(items),
		})
	}
	return categories
}
