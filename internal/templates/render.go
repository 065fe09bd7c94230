package templates

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"resumecraft/internal/document"
	"resumecraft/internal/editor"
	"resumecraft/internal/errors"
)

// Mode selects between the read-only and the editing rendition.
type Mode string

const (
	ModeView Mode = "view"
	ModeEdit Mode = "edit"
)

// RootID is the id of the element wrapping the printable resume.
const RootID = "resume-root"

//go:embed html/*.tmpl
var templateFS embed.FS

// View is everything needed to render a document. Page < 0 renders every
// page, which is what export uses.
type View struct {
	Document   *document.Document
	Descriptor Descriptor
	Mode       Mode
	Page       int

	// Edit mode only.
	Action       string // form target for editor operations
	Editing      string
	DraftTitle   string
	DraftContent string
	CanUndo      bool
}

// Renderer produces HTML for documents.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("resume").Funcs(template.FuncMap{
		"seq":         func(n int) []int { return make([]int, n) },
		"inc":         func(i int) int { return i + 1 },
		"keyData":     func(root *pageData, key string) keyContext { return keyContext{root, key} },
		"sectionData": func(root *pageData, s sectionView) sectionContext { return sectionContext{root, s} },
		"editorData":  newEditorContext,
	}).ParseFS(templateFS, "html/*.tmpl")
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidFormat, "failed to parse resume templates", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes every page of doc in the given mode.
func (r *Renderer) Render(w io.Writer, doc *document.Document, desc Descriptor, mode Mode) error {
	return r.RenderView(w, View{Document: doc, Descriptor: desc, Mode: mode, Page: -1})
}

// RenderView writes v as a complete HTML page.
func (r *Renderer) RenderView(w io.Writer, v View) error {
	data, err := buildPageData(v)
	if err != nil {
		return err
	}
	if err := r.tmpl.ExecuteTemplate(w, "page.html.tmpl", data); err != nil {
		return errors.NewInternalError(errors.ErrCodeInvalidFormat, "failed to render resume", err).
			WithContext("template_id", v.Descriptor.ID)
	}
	return nil
}

type pageData struct {
	Title     string
	Style     template.CSS
	PrintCSS  template.CSS
	Edit      bool
	TwoColumn bool
	Action    string
	CanUndo   bool
	Current   int
	PageCount int
	Kinds     []string
	Accent    string
	Accents   []string
	Pages     []pageView
	HeaderKey struct{ Name, Contact string }
}

type keyContext struct {
	Root *pageData
	Key  string
}

type sectionContext struct {
	Root *pageData
	S    sectionView
}

type editorContext struct {
	Root    *pageData
	Key     string
	Title   string
	Content string
}

func newEditorContext(root *pageData, content, key string, title ...string) editorContext {
	ec := editorContext{Root: root, Key: key, Content: content}
	if len(title) > 0 {
		ec.Title = title[0]
	}
	return ec
}

type pageView struct {
	Index   int
	Header  *headerView
	Main    []sectionView
	Sidebar []sectionView
}

type headerView struct {
	Name           template.HTML
	Contact        template.HTML
	Link           string
	EditingName    bool
	EditingContact bool
	Draft          string
}

type sectionView struct {
	Key          string
	Title        template.HTML
	Type         document.SectionType
	Text         template.HTML
	Lines        []template.HTML
	Groups       []groupView
	Skills       []skillView
	Editing      bool
	DraftTitle   string
	DraftContent string
}

type groupView struct {
	Title       template.HTML
	Fields      []template.HTML
	Description []template.HTML
}

type skillView struct {
	Category template.HTML
	Items    template.HTML
}

func buildPageData(v View) (*pageData, error) {
	if v.Document == nil || len(v.Document.Pages) == 0 {
		v.Document = document.Default()
	}
	data := &pageData{
		Title:     v.Descriptor.Name,
		Style:     themeCSS(v.Descriptor.Theme),
		PrintCSS:  template.CSS(StyleText(v.Descriptor.PrintCSS)),
		Edit:      v.Mode == ModeEdit,
		TwoColumn: v.Descriptor.Layout == LayoutTwoColumn,
		Action:    v.Action,
		CanUndo:   v.CanUndo,
		Current:   v.Page,
		PageCount: len(v.Document.Pages),
		Kinds:     editor.SectionKinds,
		Accent:    v.Descriptor.Theme.Accent,
		Accents:   editor.AccentPalette,
	}
	data.HeaderKey.Name = editor.HeaderName
	data.HeaderKey.Contact = editor.HeaderContact
	if data.Title == "" {
		data.Title = "Resume"
	}

	indexes := make([]int, 0, len(v.Document.Pages))
	if v.Page < 0 {
		for i := range v.Document.Pages {
			indexes = append(indexes, i)
		}
	} else {
		if _, err := v.Document.Page(v.Page); err != nil {
			return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, err.Error(), err)
		}
		indexes = append(indexes, v.Page)
	}

	for _, i := range indexes {
		page := v.Document.Pages[i]
		pv := pageView{Index: i, Header: buildHeader(page.Header, v)}
		for _, s := range page.Sections {
			if s.Type == document.TypeContact && v.Descriptor.Contact == document.ContactHidden {
				continue
			}
			sv := buildSection(s, v)
			if data.TwoColumn && v.Descriptor.InSidebar(s.Key) {
				pv.Sidebar = append(pv.Sidebar, sv)
			} else {
				pv.Main = append(pv.Main, sv)
			}
		}
		data.Pages = append(data.Pages, pv)
	}
	return data, nil
}

func buildHeader(h *document.Header, v View) *headerView {
	if h == nil {
		return nil
	}
	hv := &headerView{
		Name:    Inline(h.Name),
		Contact: Inline(h.Contact),
		Link:    h.Link,
	}
	if v.Mode == ModeEdit {
		hv.EditingName = v.Editing == editor.HeaderName
		hv.EditingContact = v.Editing == editor.HeaderContact
		if hv.EditingName || hv.EditingContact {
			hv.Draft = v.DraftContent
		}
	}
	return hv
}

func buildSection(s *document.Section, v View) sectionView {
	sv := sectionView{Key: s.Key, Title: Inline(s.Title), Type: s.Type}
	if v.Mode == ModeEdit && v.Editing == s.Key {
		sv.Editing = true
		sv.DraftTitle = v.DraftTitle
		sv.DraftContent = v.DraftContent
	}

	switch s.Type {
	case document.TypeText:
		sv.Text = Inline(s.Text)
	case document.TypeSkills:
		for _, c := range s.Skills {
			sv.Skills = append(sv.Skills, skillView{
				Category: Inline(c.Category),
				Items:    Inline(strings.Join(c.Items, ", ")),
			})
		}
	default:
		if s.Grouped {
			for _, g := range s.Groups {
				sv.Groups = append(sv.Groups, buildGroup(g))
			}
			break
		}
		for _, line := range s.Lines {
			sv.Lines = append(sv.Lines, Inline(line))
		}
	}
	return sv
}

func buildGroup(g document.FieldGroup) groupView {
	var gv groupView
	for _, f := range g {
		switch f.Kind {
		case document.KindTitle:
			gv.Title = Inline(f.Value)
		case document.KindDescription:
			for _, line := range f.Lines {
				gv.Description = append(gv.Description, Inline(line))
			}
		default:
			gv.Fields = append(gv.Fields, Inline(f.Value))
		}
	}
	return gv
}

func themeCSS(t Theme) template.CSS {
	var b strings.Builder
	b.WriteString(":root {")
	for _, v := range []struct{ name, value string }{
		{"--accent", t.Accent},
		{"--heading", t.Heading},
		{"--text", t.Text},
		{"--font", t.Font},
		{"--section-bg", t.SectionBackground},
		{"--sidebar-bg", t.SidebarBackground},
	} {
		if value := cssToken(v.value); value != "" {
			fmt.Fprintf(&b, " %s: %s;", v.name, value)
		}
	}
	b.WriteString(" }")
	return template.CSS(b.String())
}

var tokenReplacer = strings.NewReplacer(";", "", "{", "", "}", "", "<", "", ">", "")

// cssToken keeps a theme value inside its declaration.
func cssToken(s string) string {
	return strings.TrimSpace(tokenReplacer.Replace(s))
}

