package document

import (
	"slices"
	"strings"
)

// ContactMode decides where "Contact Information" ends up.
type ContactMode string

const (
	// ContactHeader folds contact details into the page header and drops the section.
	ContactHeader ContactMode = "header"
	// ContactSection keeps contact details as a contact section.
	ContactSection ContactMode = "section"
	// ContactHidden keeps the contact section in the document but renderers skip it.
	ContactHidden ContactMode = "hidden"
)

// Valid reports whether m is a known mode.
func (m ContactMode) Valid() bool {
	switch m {
	case ContactHeader, ContactSection, ContactHidden:
		return true
	}
	return false
}

// Options parameterizes normalization and classification. Section key lists
// are matched against display labels case-insensitively, so
// "Work_Experience" and "Work Experience" are the same key.
type Options struct {
	// Emphasis lists original payload keys whose values are wrapped in
	// <strong>. They match exactly: "Project_Name" but not "project name".
	Emphasis []string
	// FieldGroupKeys are list sections decomposed into field-groups.
	FieldGroupKeys []string
	// SkillsKeys are classified as skills.
	SkillsKeys []string
	// FlattenKeys are list sections whose object elements collapse to one
	// <br>-joined line each instead of field-groups.
	FlattenKeys []string
	// ContactKeys name the contact information section.
	ContactKeys []string
	Contact     ContactMode
	// GithubFirst prefers the Github profile over Linkedin for the header link.
	GithubFirst bool
}

// DefaultOptions returns the settings shared by most templates.
func DefaultOptions() Options {
	return Options{
		Emphasis:       []string{"Name", "Title", "Role", "Project_Name"},
		FieldGroupKeys: []string{"Work Experience", "Projects"},
		SkillsKeys:     []string{"Skills"},
		ContactKeys:    []string{"Contact Information"},
		Contact:        ContactSection,
	}
}

var (
	groupTitleKeys       = []string{"Name", "Title", "Role", "Project Name"}
	groupDescriptionKeys = []string{"Responsibilities", "Description"}
)

// Label converts a payload key such as "Work_Experience" to "Work Experience".
func Label(key string) string {
	return strings.TrimSpace(strings.ReplaceAll(key, "_", " "))
}

func matchKey(list []string, key string) bool {
	label := Label(key)
	return slices.ContainsFunc(list, func(candidate string) bool {
		return strings.EqualFold(Label(candidate), label)
	})
}

func (o Options) emphasize(key string) bool { return slices.Contains(o.Emphasis, key) }
func (o Options) fieldGroups(key string) bool { return matchKey(o.FieldGroupKeys, key) }
func (o Options) skills(key string) bool { return matchKey(o.SkillsKeys, key) }
func (o Options) flatten(key string) bool { return matchKey(o.FlattenKeys, key) }
func (o Options) contact(key string) bool { return matchKey(o.ContactKeys, key) }
