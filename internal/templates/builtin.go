package templates

import "resumecraft/internal/document"

var (
	fullEmphasis  = []string{"Name", "Title", "Role", "Project_Name"}
	shortEmphasis = []string{"Name", "Title", "Role"}
	groupedKeys   = []string{"Work Experience", "Projects"}
)

// Builtins returns the six bundled template variants, ordered by ID.
func Builtins() []Descriptor {
	return []Descriptor{
		{
			ID:          "1",
			Name:        "Classic Sidebar",
			Description: "Two columns with skills and education in a grey sidebar.",
			Layout:      LayoutTwoColumn,
			Sidebar:     []string{"Skills", "Education", "Languages", "Certifications", "Hobbies"},
			Contact:     document.ContactSection,
			Emphasis:    fullEmphasis,
			// Projects render one line per entry.
			FieldGroupKeys: []string{"Work Experience"},
			FlattenKeys:    []string{"Projects"},
			Theme: Theme{
				Accent:            "#3b82f6",
				Heading:           "#1f2937",
				Text:              "#374151",
				Font:              "ui-sans-serif, system-ui, sans-serif",
				SidebarBackground: "#f3f4f6",
			},
		},
		{
			ID:             "2",
			Name:           "Blue Professional",
			Description:    "Single column with tinted section headings.",
			Layout:         LayoutSingle,
			Contact:        document.ContactHeader,
			GithubFirst:    true,
			Emphasis:       shortEmphasis,
			FieldGroupKeys: groupedKeys,
			Theme: Theme{
				Accent:            "#1e40af",
				Heading:           "#1e3a8a",
				Text:              "#111827",
				Font:              "Georgia, 'Times New Roman', serif",
				SectionBackground: "#dbeafe",
			},
		},
		{
			ID:             "3",
			Name:           "Modern Split",
			Description:    "Contact, skills and certifications on the left, experience on the right.",
			Layout:         LayoutTwoColumn,
			Sidebar:        []string{"Contact Information", "Certifications", "Education", "Skills"},
			Contact:        document.ContactSection,
			Emphasis:       fullEmphasis,
			FieldGroupKeys: []string{"Work Experience"},
			FlattenKeys:    []string{"Projects"},
			Theme: Theme{
				Accent:            "#1e40af",
				Heading:           "#1e3a8a",
				Text:              "#111827",
				Font:              "ui-sans-serif, system-ui, sans-serif",
				SidebarBackground: "#eff6ff",
			},
		},
		{
			ID:             "4",
			Name:           "Clean Minimal",
			Description:    "Single column, contact details only in the header.",
			Layout:         LayoutSingle,
			Contact:        document.ContactHidden,
			GithubFirst:    true,
			Emphasis:       shortEmphasis,
			FieldGroupKeys: groupedKeys,
			Theme: Theme{
				Accent:            "#2563eb",
				Heading:           "#374151",
				Text:              "#374151",
				Font:              "'Helvetica Neue', Arial, sans-serif",
				SectionBackground: "#f3f4f6",
			},
		},
		{
			ID:             "5",
			Name:           "Compact",
			Description:    "Dense single column for one-page resumes.",
			Layout:         LayoutSingle,
			Contact:        document.ContactHeader,
			Emphasis:       fullEmphasis,
			FieldGroupKeys: groupedKeys,
			Theme: Theme{
				Accent:  "#0f766e",
				Heading: "#134e4a",
				Text:    "#1f2937",
				Font:    "ui-sans-serif, system-ui, sans-serif",
			},
			PrintCSS: "#print-container { font-size: 10pt; line-height: 1.3; }",
		},
		{
			ID:             "6",
			Name:           "Monochrome",
			Description:    "Greyscale single column.",
			Layout:         LayoutSingle,
			Contact:        document.ContactHeader,
			GithubFirst:    true,
			Emphasis:       shortEmphasis,
			FieldGroupKeys: groupedKeys,
			Theme: Theme{
				Accent:            "#4b5563",
				Heading:           "#111827",
				Text:              "#374151",
				Font:              "ui-sans-serif, system-ui, sans-serif",
				SectionBackground: "#e5e7eb",
			},
		},
	}
}
