package templates

import (
	"fmt"
	"slices"
	"strings"

	"resumecraft/internal/document"
	"resumecraft/internal/errors"
)

// Layout is the page arrangement of a template.
type Layout string

const (
	LayoutSingle    Layout = "single"
	LayoutTwoColumn Layout = "two-column"
)

// Theme holds the visual tokens a template renders with.
type Theme struct {
	Accent            string `yaml:"accent" json:"accent"`
	Heading           string `yaml:"heading" json:"heading"`
	Text              string `yaml:"text" json:"text"`
	Font              string `yaml:"font" json:"font"`
	SectionBackground string `yaml:"sectionBackground" json:"sectionBackground"`
	SidebarBackground string `yaml:"sidebarBackground" json:"sidebarBackground"`
}

// Descriptor describes one template variant as data.
type Descriptor struct {
	ID          string               `yaml:"id" json:"id"`
	Name        string               `yaml:"name" json:"name"`
	Description string               `yaml:"description" json:"description"`
	Layout      Layout               `yaml:"layout" json:"layout"`
	Sidebar     []string             `yaml:"sidebar" json:"sidebar,omitempty"`
	Contact     document.ContactMode `yaml:"contact" json:"contact"`
	GithubFirst bool                 `yaml:"githubFirst" json:"githubFirst,omitempty"`

	Emphasis       []string `yaml:"emphasis" json:"emphasis"`
	FieldGroupKeys []string `yaml:"fieldGroupKeys" json:"fieldGroupKeys"`
	FlattenKeys    []string `yaml:"flattenKeys" json:"flattenKeys,omitempty"`

	Theme    Theme  `yaml:"theme" json:"theme"`
	PrintCSS string `yaml:"printCSS" json:"printCSS,omitempty"`
}

// Options returns the normalization settings for d.
func (d Descriptor) Options() document.Options {
	opts := document.DefaultOptions()
	if len(d.Emphasis) > 0 {
		opts.Emphasis = slices.Clone(d.Emphasis)
	}
	if d.FieldGroupKeys != nil {
		opts.FieldGroupKeys = slices.Clone(d.FieldGroupKeys)
	}
	opts.FlattenKeys = slices.Clone(d.FlattenKeys)
	if d.Contact != "" {
		opts.Contact = d.Contact
	}
	opts.GithubFirst = d.GithubFirst
	return opts
}

// InSidebar reports whether the section key belongs in the sidebar column.
func (d Descriptor) InSidebar(key string) bool {
	if d.Layout != LayoutTwoColumn {
		return false
	}
	label := document.Label(key)
	return slices.ContainsFunc(d.Sidebar, func(s string) bool {
		return strings.EqualFold(document.Label(s), label)
	})
}

// Route is the path prefix the template is served under.
func (d Descriptor) Route() string {
	if d.ID == "1" {
		return "/improve_resume"
	}
	return "/improve_resume" + d.ID
}

// Validate checks that d is usable.
func (d Descriptor) Validate() error {
	var problems []string
	if strings.TrimSpace(d.ID) == "" {
		problems = append(problems, "id is required")
	}
	if strings.ContainsAny(d.ID, "/ ") {
		problems = append(problems, "id must not contain slashes or spaces")
	}
	if d.Layout != LayoutSingle && d.Layout != LayoutTwoColumn {
		problems = append(problems, fmt.Sprintf("layout must be %q or %q", LayoutSingle, LayoutTwoColumn))
	}
	if d.Contact != "" && !d.Contact.Valid() {
		problems = append(problems, fmt.Sprintf("unknown contact mode %q", d.Contact))
	}
	if len(problems) > 0 {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("invalid template %q: %s", d.ID, strings.Join(problems, "; ")), nil)
	}
	return nil
}

func (d Descriptor) clone() Descriptor {
	d.Sidebar = slices.Clone(d.Sidebar)
	d.Emphasis = slices.Clone(d.Emphasis)
	d.FieldGroupKeys = slices.Clone(d.FieldGroupKeys)
	d.FlattenKeys = slices.Clone(d.FlattenKeys)
	return d
}
