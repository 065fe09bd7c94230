package formatters

import (
	"encoding/json"
	"strings"
	"testing"

	"resumecraft/internal/document"
	"resumecraft/internal/jobs"
	"resumecraft/internal/templates"
	"resumecraft/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResume(t *testing.T) Resume {
	t.Helper()
	doc := document.Default()
	doc.Pages[0].Header.Name = "Ada Lovelace"
	require.NoError(t, doc.Pages[0].Add(&document.Section{
		Key: "summary", Title: "Summary", Type: document.TypeText, Text: "Writes <strong>programs</strong>.",
	}))
	require.NoError(t, doc.Pages[0].Add(&document.Section{
		Key: "skills", Title: "Skills", Type: document.TypeSkills,
		Skills: []document.SkillCategory{{Category: "Languages", Items: []string{"Go", "Python"}}},
	}))
	require.NoError(t, doc.Pages[0].Add(&document.Section{
		Key: "awards", Title: "Awards", Type: document.TypeList, Lines: []string{"First", "Second"},
	}))
	return Resume{Document: doc, Descriptor: templates.Builtins()[0]}
}

func newRegistry(t *testing.T) *FormatterRegistry {
	t.Helper()
	r, err := templates.NewRenderer()
	require.NoError(t, err)
	return NewFormatterRegistry(r)
}

func TestSupportedFormats(t *testing.T) {
	assert.Equal(t, []string{"html", "json", "markdown", "text"}, newRegistry(t).GetSupportedFormats())
}

func TestResumeText(t *testing.T) {
	out, err := newRegistry(t).Format(sampleResume(t), "text")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "Ada Lovelace\n"))
	assert.Contains(t, out, "=== SUMMARY ===\nWrites programs.\n")
	assert.Contains(t, out, "Languages: Go, Python\n")
	assert.Contains(t, out, "- First\n- Second\n")
	assert.NotContains(t, out, "<strong>")
}

func TestResumeJSONIsTheDocument(t *testing.T) {
	res := sampleResume(t)
	out, err := newRegistry(t).Format(&res, "json")
	require.NoError(t, err)

	var doc document.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Pages, 1)
	assert.Equal(t, "Ada Lovelace", doc.Pages[0].Header.Name)
}

func TestResumeHTMLAndMarkdown(t *testing.T) {
	reg := newRegistry(t)
	res := sampleResume(t)

	page, err := reg.Format(res, "html")
	require.NoError(t, err)
	assert.Contains(t, page, `id="resume-root"`)

	md, err := reg.Format(res, "markdown")
	require.NoError(t, err)
	assert.Contains(t, md, "Ada Lovelace")
	assert.Contains(t, md, "**programs**")
	assert.NotContains(t, md, "<style")
}

func TestRecommendations(t *testing.T) {
	reg := newRegistry(t)
	recs, err := jobs.Apply(jobs.Seed(), jobs.Filter{}, jobs.MockProfile())
	require.NoError(t, err)
	require.NotEmpty(t, recs)

	text, err := reg.Format(recs, "text")
	require.NoError(t, err)
	assert.Contains(t, text, "1. "+recs[0].Listing.Title)

	md, err := reg.Format(recs, "markdown")
	require.NoError(t, err)
	assert.Contains(t, md, "| Score | Match |")

	empty, err := reg.Format([]jobs.Recommendation{}, "text")
	require.NoError(t, err)
	assert.Contains(t, empty, "No jobs match")
}

func TestScoreReportText(t *testing.T) {
	report := types.NewScoreReport(jobs.Seed()[0], jobs.MockProfile())

	out, err := newRegistry(t).Format(report, "text")
	require.NoError(t, err)
	assert.Contains(t, out, report.Listing.Title+" at "+report.Listing.Company)
	assert.Contains(t, out, report.Label)
	assert.Contains(t, out, "Profile: JavaScript, React")

	_, err = newRegistry(t).Format(report, "markdown")
	assert.Error(t, err)
}

func TestTemplatesText(t *testing.T) {
	out, err := newRegistry(t).Format(types.SummarizeTemplates(templates.Builtins()), "text")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, len(templates.Builtins())+1)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "Classic Sidebar")
	assert.Contains(t, lines[1], "/improve_resume")
}

func TestExportResultText(t *testing.T) {
	out, err := newRegistry(t).Format(types.ExportResult{
		Name:        "resume.pdf",
		ContentType: "application/pdf",
		Size:        2048,
		Output:      "out/resume.pdf",
	}, "text")
	require.NoError(t, err)
	assert.Equal(t, "Exported resume.pdf (2.0 KB, application/pdf)\nWritten to: out/resume.pdf\n", out)
}

func TestUnknownFormat(t *testing.T) {
	_, err := newRegistry(t).Format(sampleResume(t), "yaml")
	assert.Error(t, err)

	_, err = newRegistry(t).Format(42, "text")
	assert.Error(t, err, "no generic text formatter")
}
