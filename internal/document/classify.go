package document

import (
	"fmt"
	"strings"
)

// Classify builds a section from one normalized field. The type depends on
// the value's shape, except for skills, contact and field-group keys.
// Empty arrays and objects still produce a section.
func Classify(label string, value any, opts Options) *Section {
	section := &Section{Key: label, Title: label}

	switch {
	case opts.skills(label):
		section.Type = TypeSkills
		section.Skills = skillCategories(value)
		return section
	case opts.contact(label):
		section.Type = TypeContact
		section.Lines = contactLines(value)
		return section
	case opts.flatten(label) && !opts.fieldGroups(label):
		if arr, ok := value.([]any); ok {
			section.Type = TypeList
			section.Lines = listLines(arr)
			return section
		}
	case opts.fieldGroups(label) && isCollection(value):
		section.Type = TypeList
		section.Grouped = true
		section.Groups = fieldGroups(value)
		return section
	}

	if arr, ok := value.([]any); ok {
		section.Type = TypeList
		section.Lines = listLines(arr)
		return section
	}
	if obj, ok := asObject(value); ok {
		section.Type = TypeList
		section.Lines = objectLines(obj)
		return section
	}

	section.Type = TypeText
	section.Text = flatten(value, ", ")
	return section
}

func isCollection(v any) bool {
	if _, ok := v.([]any); ok {
		return true
	}
	_, ok := asObject(v)
	return ok
}

// flatten renders any value as a single string, joining nested values with sep.
func flatten(v any, sep string) string {
	if s, ok := scalarString(v); ok {
		return s
	}
	if arr, ok := v.([]any); ok {
		parts := make([]string, 0, len(arr))
		for _, item := range arr {
			if s := flatten(item, sep); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, sep)
	}
	if obj, ok := asObject(v); ok {
		parts := make([]string, 0, obj.Len())
		for _, key := range obj.Keys {
			if s := flatten(obj.Values[key], sep); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, sep)
	}
	return fmt.Sprint(v)
}

// listLines maps array elements to lines. Object elements become their
// values joined by <br>. Elements that flatten to nothing are dropped.
func listLines(arr []any) []string {
	lines := make([]string, 0, len(arr))
	for _, item := range arr {
		var line string
		if obj, ok := asObject(item); ok {
			line = objectLine(obj)
		} else {
			line = oneLine(flatten(item, ", "))
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func objectLine(obj *Object) string {
	parts := make([]string, 0, obj.Len())
	for _, key := range obj.Keys {
		if s := oneLine(flatten(obj.Values[key], ", ")); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "<br>")
}

// objectLines keeps the non-empty values of an object, one per line.
func objectLines(obj *Object) []string {
	lines := make([]string, 0, obj.Len())
	for _, key := range obj.Keys {
		if s := oneLine(flatten(obj.Values[key], ", ")); s != "" {
			lines = append(lines, s)
		}
	}
	return lines
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// oneLine folds line breaks so a value occupies exactly one draft line.
func oneLine(s string) string {
	return strings.TrimSpace(lineBreaks.Replace(s))
}

func contactLines(v any) []string {
	if obj, ok := asObject(v); ok {
		return objectLines(obj)
	}
	arr, ok := v.([]any)
	if !ok {
		if s := oneLine(flatten(v, ", ")); s != "" {
			return []string{s}
		}
		return []string{}
	}
	lines := []string{}
	for _, item := range arr {
		if obj, ok := asObject(item); ok {
			lines = append(lines, objectLines(obj)...)
		} else if s := oneLine(flatten(item, ", ")); s != "" {
			lines = append(lines, s)
		}
	}
	return lines
}

func skillCategories(v any) []SkillCategory {
	categories := []SkillCategory{}

	if obj, ok := asObject(v); ok {
		for _, key := range obj.Keys {
			categories = append(categories, SkillCategory{
				Category: Label(key),
				Items:    skillItems(obj.Values[key]),
			})
		}
		return categories
	}

	arr, ok := v.([]any)
	if !ok {
		if items := skillItems(v); len(items) > 0 {
			categories = append(categories, SkillCategory{Items: items})
		}
		return categories
	}

	var loose []string
	for _, item := range arr {
		obj, ok := asObject(item)
		if !ok {
			loose = append(loose, skillItems(item)...)
			continue
		}
		// {"category": ..., "items": [...]} entries pass through as-is.
		if cat, hasCat := obj.Get("category"); hasCat {
			items, _ := obj.Get("items")
			categories = append(categories, SkillCategory{
				Category: flatten(cat, " "),
				Items:    skillItems(items),
			})
			continue
		}
		for _, key := range obj.Keys {
			categories = append(categories, SkillCategory{
				Category: Label(key),
				Items:    skillItems(obj.Values[key]),
			})
		}
	}
	if len(loose) > 0 {
		categories = append(categories, SkillCategory{Items: loose})
	}
	return categories
}

func skillItems(v any) []string {
	items := []string{}
	switch t := v.(type) {
	case nil:
	case string:
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
	case []any:
		for _, item := range t {
			if s := strings.TrimSpace(flatten(item, ", ")); s != "" {
				items = append(items, s)
			}
		}
	default:
		if s := flatten(v, ", "); s != "" {
			items = append(items, s)
		}
	}
	return items
}

func fieldGroups(v any) []FieldGroup {
	groups := []FieldGroup{}
	if obj, ok := asObject(v); ok {
		if g := decomposeGroup(obj); len(g) > 0 {
			groups = append(groups, g)
		}
		return groups
	}
	for _, item := range v.([]any) {
		if obj, ok := asObject(item); ok {
			if g := decomposeGroup(obj); len(g) > 0 {
				groups = append(groups, g)
			}
			continue
		}
		if s := oneLine(flatten(item, ", ")); s != "" {
			groups = append(groups, FieldGroup{{Kind: KindTitle, Value: s}})
		}
	}
	return groups
}

// decomposeGroup splits one entry into title, field and description parts.
// The title always comes first; an entry without a title key is headed by
// its first field. Empty values are skipped and free-text descriptions are
// broken into bullet lines.
func decomposeGroup(obj *Object) FieldGroup {
	var (
		title       string
		fields      []Field
		description []string
	)

	for _, key := range obj.Keys {
		value := obj.Values[key]
		if matchKey(groupDescriptionKeys, key) {
			if arr, ok := value.([]any); ok {
				for _, item := range arr {
					if s := oneLine(flatten(item, ", ")); s != "" {
						description = append(description, s)
					}
				}
			} else {
				for _, line := range SplitBullets(flatten(value, " ")) {
					description = append(description, oneLine(line))
				}
			}
			continue
		}

		s := oneLine(flatten(value, ", "))
		switch {
		case s == "":
		case title == "" && matchKey(groupTitleKeys, key):
			title = s
		default:
			// Dates and every other attribute are plain fields.
			fields = append(fields, Field{Kind: KindField, Value: s})
		}
	}

	if title == "" && len(fields) > 0 {
		title, fields = fields[0].Value, fields[1:]
	}
	group := FieldGroup{}
	if title != "" {
		group = append(group, Field{Kind: KindTitle, Value: title})
	}
	group = append(group, fields...)
	if len(description) > 0 {
		group = append(group, Field{Kind: KindDescription, Lines: description})
	}
	return group
}
