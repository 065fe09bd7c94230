package templates

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"resumecraft/internal/document"
	"resumecraft/internal/editor"
	"resumecraft/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const payload = `{
  "improved_resume": {
    "Contact_Information": {"Name": "Ada Lovelace", "Phone": "555-0100", "Email": "ada@example.com", "Github": "https://github.com/ada"},
    "Summary": "Writes <script>alert(1)</script>programs & <em>notes</em>.",
    "Work_Experience": [{"Title": "Analyst", "Company": "Engines Ltd", "Responsibilities": "Wrote notes. Shipped."}],
    "Skills": {"Languages": ["Python", "Go"]}
  }
}`

func mustDescriptor(t *testing.T, id string) Descriptor {
	t.Helper()
	d, err := NewRegistry("", nil).Get(id)
	require.NoError(t, err)
	return d
}

func render(t *testing.T, v View) string {
	t.Helper()
	r, err := NewRenderer()
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, r.RenderView(&buf, v))
	return buf.String()
}

func TestBuiltins(t *testing.T) {
	builtins := Builtins()
	require.Len(t, builtins, 6)
	for i, d := range builtins {
		assert.Equal(t, string(rune('1'+i)), d.ID)
		assert.NoError(t, d.Validate(), d.ID)
		assert.NotEmpty(t, d.Name, d.ID)
	}
	assert.Equal(t, "/improve_resume", builtins[0].Route())
	assert.Equal(t, "/improve_resume6", builtins[5].Route())
}

func TestDescriptorOptions(t *testing.T) {
	opts := mustDescriptor(t, "2").Options()
	assert.Equal(t, []string{"Name", "Title", "Role"}, opts.Emphasis)
	assert.Equal(t, document.ContactHeader, opts.Contact)
	assert.True(t, opts.GithubFirst)

	opts = mustDescriptor(t, "1").Options()
	assert.Equal(t, []string{"Projects"}, opts.FlattenKeys)
	assert.Equal(t, document.ContactSection, opts.Contact)
	assert.Equal(t, []string{"Skills"}, opts.SkillsKeys, "unset lists keep their defaults")
}

func TestInSidebar(t *testing.T) {
	d := mustDescriptor(t, "1")
	assert.True(t, d.InSidebar("Skills"))
	assert.True(t, d.InSidebar("education"))
	assert.False(t, d.InSidebar("Work Experience"))

	single := mustDescriptor(t, "2")
	single.Sidebar = []string{"Skills"}
	assert.False(t, single.InSidebar("Skills"), "single-column layouts have no sidebar")
}

func TestDescriptorValidate(t *testing.T) {
	bad := []Descriptor{
		{ID: "", Layout: LayoutSingle},
		{ID: "a/b", Layout: LayoutSingle},
		{ID: "x", Layout: "grid"},
		{ID: "x", Layout: LayoutSingle, Contact: "footer"},
	}
	for _, d := range bad {
		err := d.Validate()
		assert.Error(t, err, d.ID)
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	}
}

func TestRegistryGet(t *testing.T) {
	r := NewRegistry("3", nil)

	d, err := r.Get("")
	require.NoError(t, err)
	assert.Equal(t, "3", d.ID)
	assert.Equal(t, "3", r.Default().ID)

	_, err = r.Get("99")
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))

	d.Sidebar[0] = "mutated"
	again, _ := r.Get("3")
	assert.NotEqual(t, "mutated", again.Sidebar[0], "descriptors are returned as copies")

	ids := []string{}
	for _, d := range r.List() {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6"}, ids)
}

func TestRegistryLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2.yaml"), []byte("id: \"2\"\nname: Navy\ntheme:\n  accent: \"#000080\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "serif.json"), []byte(`{"name":"Serif","layout":"single","contact":"header","theme":{"font":"serif"}}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	r := NewRegistry("", nil)
	require.NoError(t, r.LoadDir(dir))

	navy, err := r.Get("2")
	require.NoError(t, err)
	assert.Equal(t, "Navy", navy.Name)
	assert.Equal(t, "#000080", navy.Theme.Accent)
	assert.Equal(t, "#1e3a8a", navy.Theme.Heading, "unset fields keep the built-in value")
	assert.Equal(t, LayoutSingle, navy.Layout)

	serif, err := r.Get("serif")
	require.NoError(t, err, "the file name is the id when none is given")
	assert.Equal(t, "Serif", serif.Name)
	assert.Len(t, r.List(), 7)
}

func TestRegistryLoadDirInvalidKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: Custom\n"), 0o644))

	r := NewRegistry("", nil)
	require.NoError(t, r.LoadDir(dir))
	_, err := r.Get("custom")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("layout: diagonal\n"), 0o644))
	assert.Error(t, r.LoadDir(dir))
	r.Reload()

	custom, err := r.Get("custom")
	require.NoError(t, err)
	assert.Equal(t, "Custom", custom.Name)

	assert.Error(t, r.LoadDir(filepath.Join(dir, "missing")))
}

func TestWatcherReloads(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry("", nil)
	require.NoError(t, r.LoadDir(dir))

	var reloads atomic.Int32
	w := NewWatcher(dir, r, 20*time.Millisecond, func() { reloads.Add(1) }, nil)
	require.NoError(t, w.Start())
	defer func() { assert.NoError(t, w.Stop()) }()
	assert.True(t, w.IsRunning())
	assert.Error(t, w.Start())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "late.yaml"), []byte("name: Late\n"), 0o644))

	require.Eventually(t, func() bool {
		_, err := r.Get("late")
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
	assert.GreaterOrEqual(t, reloads.Load(), int32(1))
}

func TestStyleText(t *testing.T) {
	assert.Equal(t, "h1 { color: red; }", StyleText("  h1 { color: red; }\n"))
	assert.Equal(t, "a{}style>", StyleText("a{}<<//style>"))
	assert.Empty(t, StyleText("<<//"))
}

func TestInline(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"a & b", "a &amp; b"},
		{"<strong>Bold</strong> and <em>it</em>", "<strong>Bold</strong> and <em>it</em>"},
		{"line<br>break", "line<br>break"},
		{`<a href="javascript:x()">link</a>`, "link"},
		{`<strong onclick="x()">x</strong>`, "<strong>x</strong>"},
		{"<script>alert(1)</script>safe", "safe"},
		{"<u>under</u>", "<u>under</u>"},
		{`"quoted"`, "&#34;quoted&#34;"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, string(Inline(tt.in)), tt.in)
	}
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "Bold\nnext", PlainText("<strong>Bold</strong><br>next"))
	assert.Equal(t, "no tags", PlainText("no tags"))
	assert.Equal(t, "kept", PlainText("<script>x</script>kept"))
}

func TestRenderViewMode(t *testing.T) {
	desc := mustDescriptor(t, "1")
	doc := document.NormalizeJSON([]byte(payload), desc.Options())

	out := render(t, View{Document: doc, Descriptor: desc, Mode: ModeView, Page: -1})

	assert.Contains(t, out, `id="resume-root"`)
	assert.Contains(t, out, "<h1>Ada Lovelace</h1>")
	assert.Contains(t, out, `href="https://github.com/ada"`)
	assert.NotContains(t, out, "<button")
	assert.NotContains(t, out, "<textarea")
	assert.NotContains(t, out, "alert(1)")
	assert.Contains(t, out, "programs &amp; <em>notes</em>.")
	assert.Contains(t, out, "--accent: #3b82f6;")

	aside := out[strings.Index(out, "<aside>"):strings.Index(out, "</aside>")]
	assert.Contains(t, aside, `data-key="Skills"`)
	assert.NotContains(t, aside, `data-key="Work Experience"`)
	assert.Contains(t, out, "<li>Wrote notes.</li>")
}

func TestRenderHiddenContact(t *testing.T) {
	desc := mustDescriptor(t, "4")
	doc := document.NormalizeJSON([]byte(payload), desc.Options())
	require.True(t, doc.Pages[0].Has("Contact Information"))

	out := render(t, View{Document: doc, Descriptor: desc, Mode: ModeView, Page: -1})
	assert.NotContains(t, out, `data-key="Contact Information"`)
	assert.NotContains(t, out, "<aside>")
}

func TestRenderEditMode(t *testing.T) {
	desc := mustDescriptor(t, "2")
	doc := document.NormalizeJSON([]byte(payload), desc.Options())

	out := render(t, View{
		Document:     doc,
		Descriptor:   desc,
		Mode:         ModeEdit,
		Page:         0,
		Action:       "/workspaces/abc",
		Editing:      "Summary",
		DraftTitle:   "Profile",
		DraftContent: "draft <text>",
		CanUndo:      true,
	})

	assert.Contains(t, out, `action="/workspaces/abc"`)
	assert.Contains(t, out, `value="remove"`)
	assert.Contains(t, out, `value="undo"`)
	assert.Contains(t, out, `value="format:bold"`)
	assert.Contains(t, out, `<textarea name="content">draft &lt;text&gt;</textarea>`)
	assert.Contains(t, out, `value="Profile"`)
	assert.Contains(t, out, `value="`+editor.HeaderContact+`"`)
	for _, kind := range editor.SectionKinds {
		assert.Contains(t, out, `<option value="`+kind+`">`)
	}
}

func TestRenderPageOutOfRange(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)
	err = r.RenderView(&bytes.Buffer{}, View{Document: document.Default(), Descriptor: mustDescriptor(t, "1"), Page: 3})
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}
