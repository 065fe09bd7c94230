// Package document holds the resume document model and the pipeline that
// turns a backend "improved resume" payload into renderable pages.
package document

import (
	"fmt"
	"slices"
)

// SectionType fixes how a section's content is stored and rendered.
type SectionType string

const (
	TypeText    SectionType = "text"
	TypeList    SectionType = "list"
	TypeSkills  SectionType = "skills"
	TypeContact SectionType = "contact"
)

// Valid reports whether t is one of the known section types.
func (t SectionType) Valid() bool {
	switch t {
	case TypeText, TypeList, TypeSkills, TypeContact:
		return true
	}
	return false
}

// FieldKind tags one part of a field-group.
type FieldKind string

const (
	KindTitle       FieldKind = "title"
	KindField       FieldKind = "field"
	KindDescription FieldKind = "description"
)

// Field is one part of a work-experience or project entry. Description
// fields carry their bullet lines in Lines; the other kinds use Value.
type Field struct {
	Kind  FieldKind
	Value string
	Lines []string
}

// FieldGroup is one decomposed entry, for example a single job.
type FieldGroup []Field

// SkillCategory is a named group of skills.
type SkillCategory struct {
	Category string   `json:"category"`
	Items    []string `json:"items"`
}

// Section is one titled block of resume content.
//
// Which content field is populated depends on Type:
//   - text: Text
//   - list: Lines, or Groups when Grouped is set
//   - skills: Skills
//   - contact: Lines
type Section struct {
	Key     string
	Title   string
	Type    SectionType
	Grouped bool

	Text   string
	Lines  []string
	Groups []FieldGroup
	Skills []SkillCategory
}

// Header is the contact block printed at the top of a page.
type Header struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Link    string `json:"link"`
	Github  string `json:"github,omitempty"`
}

// Page is a header plus sections in display order. Section keys are unique
// within a page.
type Page struct {
	Header   *Header
	Sections []*Section
}

// Document is an ordered list of pages.
type Document struct {
	Pages []*Page
}

const (
	DefaultName = "Your Name"
	DefaultLink = "https://linkedin.com/in/your-profile"
)

// Default is the document used when no usable payload is available.
func Default() *Document {
	return &Document{Pages: []*Page{NewPage(DefaultHeader())}}
}

// DefaultHeader returns the placeholder header.
func DefaultHeader() *Header {
	return &Header{Name: DefaultName, Link: DefaultLink}
}

// NewPage creates an empty page.
func NewPage(header *Header) *Page {
	return &Page{Header: header, Sections: []*Section{}}
}

// Page returns the page at index i.
func (d *Document) Page(i int) (*Page, error) {
	if i < 0 || i >= len(d.Pages) {
		return nil, fmt.Errorf("page %d out of range (document has %d)", i, len(d.Pages))
	}
	return d.Pages[i], nil
}

// Section looks a section up by key.
func (p *Page) Section(key string) (*Section, bool) {
	i := p.index(key)
	if i < 0 {
		return nil, false
	}
	return p.Sections[i], true
}

// Has reports whether key is present on the page.
func (p *Page) Has(key string) bool {
	return p.index(key) >= 0
}

func (p *Page) index(key string) int {
	return slices.IndexFunc(p.Sections, func(s *Section) bool { return s.Key == key })
}

// Add appends s. Adding a key that already exists is an error.
func (p *Page) Add(s *Section) error {
	if p.Has(s.Key) {
		return fmt.Errorf("%w: %q", ErrDuplicateKey, s.Key)
	}
	p.Sections = append(p.Sections, s)
	return nil
}

// Remove deletes the section with key entirely and reports whether it existed.
func (p *Page) Remove(key string) bool {
	i := p.index(key)
	if i < 0 {
		return false
	}
	p.Sections = slices.Delete(p.Sections, i, i+1)
	return true
}

// Keys returns the section keys in display order.
func (p *Page) Keys() []string {
	keys := make([]string, len(p.Sections))
	for i, s := range p.Sections {
		keys[i] = s.Key
	}
	return keys
}

// UniqueKey returns base, or base with a numeric suffix if base is taken.
func (p *Page) UniqueKey(base string) string {
	if !p.Has(base) {
		return base
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d", base, n)
		if !p.Has(candidate) {
			return candidate
		}
	}
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{Pages: make([]*Page, len(d.Pages))}
	for i, p := range d.Pages {
		out.Pages[i] = p.Clone()
	}
	return out
}

// Clone returns a deep copy of the page.
func (p *Page) Clone() *Page {
	out := &Page{Sections: make([]*Section, len(p.Sections))}
	if p.Header != nil {
		h := *p.Header
		out.Header = &h
	}
	for i, s := range p.Sections {
		out.Sections[i] = s.Clone()
	}
	return out
}

// Clone returns a deep copy of the section.
func (s *Section) Clone() *Section {
	out := *s
	out.Lines = slices.Clone(s.Lines)
	if s.Groups != nil {
		out.Groups = make([]FieldGroup, len(s.Groups))
		for i, g := range s.Groups {
			out.Groups[i] = g.Clone()
		}
	}
	if s.Skills != nil {
		out.Skills = make([]SkillCategory, len(s.Skills))
		for i, c := range s.Skills {
			out.Skills[i] = SkillCategory{Category: c.Category, Items: slices.Clone(c.Items)}
		}
	}
	return &out
}

// Clone returns a deep copy of the group.
func (g FieldGroup) Clone() FieldGroup {
	out := make(FieldGroup, len(g))
	for i, f := range g {
		out[i] = Field{Kind: f.Kind, Value: f.Value, Lines: slices.Clone(f.Lines)}
	}
	return out
}

// Title returns the group's first title value, if any.
func (g FieldGroup) Title() string {
	for _, f := range g {
		if f.Kind == KindTitle {
			return f.Value
		}
	}
	return ""
}
