package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrDuplicateKey = errors.New("duplicate section key")
	ErrUnknownType  = errors.New("unknown section type")
)

type fieldJSON struct {
	Kind  FieldKind       `json:"kind"`
	Value json.RawMessage `json:"value"`
}

func (f Field) MarshalJSON() ([]byte, error) {
	if f.Kind == KindDescription {
		lines := f.Lines
		if lines == nil {
			lines = []string{}
		}
		return json.Marshal(struct {
			Kind  FieldKind `json:"kind"`
			Value []string  `json:"value"`
		}{f.Kind, lines})
	}
	return json.Marshal(struct {
		Kind  FieldKind `json:"kind"`
		Value string    `json:"value"`
	}{f.Kind, f.Value})
}

func (f *Field) UnmarshalJSON(data []byte) error {
	var raw fieldJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	f.Kind = raw.Kind
	switch raw.Kind {
	case KindDescription:
		f.Value = ""
		return json.Unmarshal(raw.Value, &f.Lines)
	case KindTitle, KindField:
		f.Lines = nil
		return json.Unmarshal(raw.Value, &f.Value)
	default:
		return fmt.Errorf("unknown field kind %q", raw.Kind)
	}
}

type sectionJSON struct {
	Key     string          `json:"key"`
	Title   string          `json:"title"`
	Type    SectionType     `json:"type"`
	Grouped bool            `json:"grouped,omitempty"`
	Content json.RawMessage `json:"content"`
}

func (s *Section) MarshalJSON() ([]byte, error) {
	var content any
	switch s.Type {
	case TypeText:
		content = s.Text
	case TypeList:
		if s.Grouped {
			content = nonNil(s.Groups)
		} else {
			content = nonNil(s.Lines)
		}
	case TypeContact:
		content = nonNil(s.Lines)
	case TypeSkills:
		content = nonNil(s.Skills)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, s.Type)
	}

	raw, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}
	return json.Marshal(sectionJSON{
		Key:     s.Key,
		Title:   s.Title,
		Type:    s.Type,
		Grouped: s.Grouped,
		Content: raw,
	})
}

func (s *Section) UnmarshalJSON(data []byte) error {
	var raw sectionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Section{Key: raw.Key, Title: raw.Title, Type: raw.Type, Grouped: raw.Grouped}

	content := raw.Content
	if len(bytes.TrimSpace(content)) == 0 {
		content = []byte("null")
	}

	switch raw.Type {
	case TypeText:
		return json.Unmarshal(content, &s.Text)
	case TypeList:
		if raw.Grouped {
			s.Groups = []FieldGroup{}
			return json.Unmarshal(content, &s.Groups)
		}
		s.Lines = []string{}
		return json.Unmarshal(content, &s.Lines)
	case TypeContact:
		s.Lines = []string{}
		return json.Unmarshal(content, &s.Lines)
	case TypeSkills:
		s.Skills = []SkillCategory{}
		return json.Unmarshal(content, &s.Skills)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, raw.Type)
	}
}

type pageJSON struct {
	Header   *Header    `json:"header,omitempty"`
	Sections []*Section `json:"sections"`
}

func (p *Page) MarshalJSON() ([]byte, error) {
	return json.Marshal(pageJSON{Header: p.Header, Sections: nonNil(p.Sections)})
}

func (p *Page) UnmarshalJSON(data []byte) error {
	var raw pageJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	page := Page{Header: raw.Header, Sections: nonNil(raw.Sections)}
	seen := make(map[string]bool, len(page.Sections))
	for _, s := range page.Sections {
		if seen[s.Key] {
			return fmt.Errorf("%w: %q", ErrDuplicateKey, s.Key)
		}
		seen[s.Key] = true
	}
	*p = page
	return nil
}

type documentJSON struct {
	Pages []*Page `json:"pages"`
}

func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(documentJSON{Pages: nonNil(d.Pages)})
}

func (d *Document) UnmarshalJSON(data []byte) error {
	var raw documentJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.Pages = nonNil(raw.Pages)
	return nil
}

// Snapshot serializes the whole document.
func (d *Document) Snapshot() ([]byte, error) {
	return json.Marshal(d)
}

// Restore decodes a snapshot produced by Snapshot.
func Restore(snapshot []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(snapshot, &d); err != nil {
		return nil, fmt.Errorf("restore snapshot: %w", err)
	}
	return &d, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
