package server

import (
	"net/url"
	"testing"
	"time"

	"resumecraft/internal/document"
	"resumecraft/internal/editor"
	"resumecraft/internal/errors"
	"resumecraft/internal/templates"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFixedRoutes(t *testing.T) {
	descriptors := templates.Builtins()

	tests := []struct {
		path  string
		view  string
		gated bool
		built bool
	}{
		{"/", ViewHome, false, true},
		{"/pricing/", ViewPricing, false, true},
		{"/job_recommendations", ViewJobRecommendations, true, true},
		{"/resume_template", ViewResumeTemplate, true, true},
		{"/resume_writer", ViewResumeWriter, false, true},
		{"/login", ViewLogin, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			m, ok := Resolve(tt.path, descriptors)
			require.True(t, ok)
			assert.Equal(t, tt.view, m.View)
			assert.Equal(t, tt.gated, m.Gated)
			assert.Equal(t, tt.built, m.Built)
		})
	}
}

func TestResolveTemplatePages(t *testing.T) {
	descriptors := templates.Builtins()

	m, ok := Resolve("/improve_resume/a1/classic-sidebar", descriptors)
	require.True(t, ok)
	assert.Equal(t, ViewImproveResume, m.View)
	assert.Equal(t, "1", m.Descriptor.ID)
	assert.Equal(t, "a1", m.AnalysisID)
	assert.Equal(t, "classic-sidebar", m.TemplateSlug)

	m, ok = Resolve("/improve_resume3/a9", descriptors)
	require.True(t, ok)
	assert.Equal(t, "3", m.Descriptor.ID)
	assert.Equal(t, "a9", m.AnalysisID)
	assert.Empty(t, m.TemplateSlug)

	m, ok = Resolve("/improve_resume2", descriptors)
	require.True(t, ok)
	assert.Equal(t, "2", m.Descriptor.ID)
	assert.Empty(t, m.AnalysisID)

	_, ok = Resolve("/improve_resume/a1/slug/extra", descriptors)
	assert.False(t, ok)
	_, ok = Resolve("/improve_resume99/a1", descriptors)
	assert.False(t, ok)
	_, ok = Resolve("/nowhere", descriptors)
	assert.False(t, ok)
}

func TestTemplatePathRoundTrips(t *testing.T) {
	for _, d := range templates.Builtins() {
		m, ok := Resolve(TemplatePath(d, "a 1"), templates.Builtins())
		require.True(t, ok, d.ID)
		assert.Equal(t, d.ID, m.Descriptor.ID)
		assert.Equal(t, Slug(d.Name), m.TemplateSlug)
	}
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "classic-sidebar", Slug("Classic Sidebar"))
	assert.Equal(t, "blue-professional", Slug("  Blue -- Professional! "))
	assert.Equal(t, "a1", Slug("a1"))
	assert.Empty(t, Slug("!!!"))
}

func TestOpFromForm(t *testing.T) {
	op := opFromForm(url.Values{
		"op":      {"format:bold"},
		"key":     {"Summary"},
		"start":   {"2"},
		"end":     {"5"},
		"title":   {"About"},
		"content": {"Hello world"},
	})
	name, format := op.name()
	assert.Equal(t, OpFormat, name)
	assert.Equal(t, "bold", format)
	assert.Equal(t, 2, op.Start)
	assert.Equal(t, 5, op.End)
	require.NotNil(t, op.Draft)
	assert.Equal(t, "About", op.Draft.Title)

	op = opFromForm(url.Values{"op": {"undo"}})
	assert.Nil(t, op.Draft)
}

func newTestEditor(t *testing.T) *editor.Editor {
	t.Helper()
	reg := editor.NewRegistry(time.Hour, 10, nil)
	t.Cleanup(reg.Close)

	doc := document.Default()
	page := doc.Pages[0]
	require.NoError(t, page.Add(&document.Section{Key: "Summary", Title: "Summary", Type: document.TypeText, Text: "Engineer who ships."}))
	return reg.Create("a1", "1", doc).Editor
}

func TestApplyOpSaveAndUndo(t *testing.T) {
	ed := newTestEditor(t)

	res, err := applyOp(ed, Op{Op: OpSave, Key: "Summary", Draft: &Draft{Title: "Profile", Content: "Builds things."}})
	require.NoError(t, err)
	assert.Equal(t, "Summary", res.Key)

	st := ed.State()
	assert.Equal(t, editor.Viewing, st.Mode)
	assert.Equal(t, 1, st.UndoDepth)
	s, ok := ed.Document().Pages[0].Section("Summary")
	require.True(t, ok)
	assert.Equal(t, "Profile", s.Title)

	_, err = applyOp(ed, Op{Op: OpUndo})
	require.NoError(t, err)
	s, _ = ed.Document().Pages[0].Section("Summary")
	assert.Equal(t, "Summary", s.Title)

	_, err = applyOp(ed, Op{Op: OpUndo})
	assert.True(t, errors.IsType(err, errors.ErrorTypePrecondition))
}

func TestApplyOpFormatKeepsEditing(t *testing.T) {
	ed := newTestEditor(t)

	_, err := applyOp(ed, Op{Op: "format:bold", Key: "Summary", Start: 0, End: 8, Draft: &Draft{Title: "Summary", Content: "Engineer who ships."}})
	require.NoError(t, err)

	st := ed.State()
	assert.Equal(t, editor.Editing, st.Mode)
	assert.Equal(t, "Summary", st.Key)
	assert.NotEqual(t, "Engineer who ships.", st.DraftContent)
}

func TestApplyOpPagesAndSections(t *testing.T) {
	ed := newTestEditor(t)

	res, err := applyOp(ed, Op{Op: OpAddPage})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Page)

	_, err = applyOp(ed, Op{Op: OpSelectPage, Page: 0})
	require.NoError(t, err)

	res, err = applyOp(ed, Op{Op: OpAddSection, Kind: "hobbies"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Key)
	_, err = applyOp(ed, Op{Op: OpCancel})
	require.NoError(t, err)

	_, err = applyOp(ed, Op{Op: OpRemove, Key: res.Key})
	require.NoError(t, err)
	_, ok := ed.Document().Pages[0].Section(res.Key)
	assert.False(t, ok)

	_, err = applyOp(ed, Op{Op: OpEdit, Key: "missing"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestApplyOpUnknown(t *testing.T) {
	_, err := applyOp(newTestEditor(t), Op{Op: "explode"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}
