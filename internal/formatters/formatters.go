package formatters

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"resumecraft/internal/document"
	"resumecraft/internal/jobs"
	"resumecraft/internal/templates"
	"resumecraft/internal/types"
	"resumecraft/internal/utils"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// Resume is a document together with the template it is rendered with.
type Resume struct {
	Document   *document.Document
	Descriptor templates.Descriptor
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry(renderer *templates.Renderer) *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	// Register default formatters
	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "Resume", &ResumeTextFormatter{})
	registry.RegisterFormatter("html", "Resume", &ResumeHTMLFormatter{renderer: renderer})
	registry.RegisterFormatter("markdown", "Resume", &ResumeMarkdownFormatter{renderer: renderer})
	registry.RegisterFormatter("text", "Recommendations", &RecommendationsTextFormatter{})
	registry.RegisterFormatter("markdown", "Recommendations", &RecommendationsMarkdownFormatter{})
	registry.RegisterFormatter("text", "ScoreReport", &ScoreReportTextFormatter{})
	registry.RegisterFormatter("text", "Templates", &TemplatesTextFormatter{})
	registry.RegisterFormatter("text", "ExportResult", &ExportResultTextFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	slices.Sort(formats)
	return formats
}

// ContentType is the MIME type served for a format.
func ContentType(format string) string {
	switch format {
	case "json":
		return "application/json"
	case "html":
		return "text/html; charset=utf-8"
	case "markdown":
		return "text/markdown; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

func getDataType(data any) string {
	switch data.(type) {
	case Resume, *Resume:
		return "Resume"
	case []jobs.Recommendation:
		return "Recommendations"
	case types.ScoreReport:
		return "ScoreReport"
	case []types.TemplateSummary:
		return "Templates"
	case types.ExportResult:
		return "ExportResult"
	default:
		return "any"
	}
}

func asResume(data any) (Resume, error) {
	switch r := data.(type) {
	case Resume:
		return r, nil
	case *Resume:
		if r != nil {
			return *r, nil
		}
	}
	return Resume{}, fmt.Errorf("expected Resume, got %T", data)
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	if r, err := asResume(data); err == nil {
		data = r.Document
	}
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// ResumeTextFormatter writes a resume as plain text
type ResumeTextFormatter struct{}

func (rtf *ResumeTextFormatter) Format(data any) (string, error) {
	r, err := asResume(data)
	if err != nil {
		return "", err
	}
	doc := r.Document
	if doc == nil {
		doc = document.Default()
	}

	var output strings.Builder
	for i, page := range doc.Pages {
		if i > 0 {
			output.WriteString("\n--- PAGE ")
			output.WriteString(fmt.Sprint(i + 1))
			output.WriteString(" ---\n\n")
		}
		writeTextHeader(&output, page.Header)
		for _, s := range page.Sections {
			if s.Type == document.TypeContact && r.Descriptor.Contact == document.ContactHidden {
				continue
			}
			output.WriteString("=== ")
			output.WriteString(strings.ToUpper(templates.PlainText(s.Title)))
			output.WriteString(" ===\n")
			writeTextSection(&output, s)
			output.WriteString("\n")
		}
	}
	return output.String(), nil
}

func (rtf *ResumeTextFormatter) SupportedType() string {
	return "Resume"
}

func writeTextHeader(output *strings.Builder, h *document.Header) {
	if h == nil {
		return
	}
	output.WriteString(templates.PlainText(h.Name))
	output.WriteString("\n")
	for _, line := range []string{h.Contact, h.Link, h.Github} {
		if line = templates.PlainText(line); line != "" {
			output.WriteString(line)
			output.WriteString("\n")
		}
	}
	output.WriteString("\n")
}

func writeTextSection(output *strings.Builder, s *document.Section) {
	switch {
	case s.Type == document.TypeText:
		output.WriteString(templates.PlainText(s.Text))
		output.WriteString("\n")
	case s.Type == document.TypeSkills:
		for _, cat := range s.Skills {
			fmt.Fprintf(output, "%s: %s\n", templates.PlainText(cat.Category), strings.Join(cat.Items, ", "))
		}
	case s.Grouped:
		for _, g := range s.Groups {
			for _, f := range g {
				switch f.Kind {
				case document.KindDescription:
					for _, line := range f.Lines {
						output.WriteString("  - ")
						output.WriteString(templates.PlainText(line))
						output.WriteString("\n")
					}
				default:
					output.WriteString(templates.PlainText(f.Value))
					output.WriteString("\n")
				}
			}
			output.WriteString("\n")
		}
	default:
		for _, line := range s.Lines {
			output.WriteString("- ")
			output.WriteString(templates.PlainText(line))
			output.WriteString("\n")
		}
	}
}

// ResumeHTMLFormatter renders a resume with its template, read-only
type ResumeHTMLFormatter struct {
	renderer *templates.Renderer
}

func (rhf *ResumeHTMLFormatter) Format(data any) (string, error) {
	r, err := asResume(data)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := rhf.renderer.Render(&buf, r.Document, r.Descriptor, templates.ModeView); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (rhf *ResumeHTMLFormatter) SupportedType() string {
	return "Resume"
}

// ResumeMarkdownFormatter converts the rendered resume root to markdown
type ResumeMarkdownFormatter struct {
	renderer *templates.Renderer
}

func (rmf *ResumeMarkdownFormatter) Format(data any) (string, error) {
	r, err := asResume(data)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := rmf.renderer.Render(&buf, r.Document, r.Descriptor, templates.ModeView); err != nil {
		return "", err
	}

	doc, err := html.Parse(&buf)
	if err != nil {
		return "", fmt.Errorf("failed to parse rendered resume: %w", err)
	}
	root := findByID(doc, templates.RootID)
	if root == nil {
		return "", fmt.Errorf("rendered resume has no #%s element", templates.RootID)
	}

	markdown, err := htmltomarkdown.ConvertNode(root)
	if err != nil {
		return "", fmt.Errorf("failed to convert resume to markdown: %w", err)
	}
	return strings.TrimSpace(string(markdown)) + "\n", nil
}

func (rmf *ResumeMarkdownFormatter) SupportedType() string {
	return "Resume"
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

// RecommendationsTextFormatter handles text formatting for job recommendations
type RecommendationsTextFormatter struct{}

func (rtf *RecommendationsTextFormatter) Format(data any) (string, error) {
	recs, ok := data.([]jobs.Recommendation)
	if !ok {
		return "", fmt.Errorf("expected []jobs.Recommendation, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== JOB RECOMMENDATIONS ===\n\n")
	if len(recs) == 0 {
		output.WriteString("No jobs match the current filters.\n")
		return output.String(), nil
	}

	for i, rec := range recs {
		l := rec.Listing
		output.WriteString(fmt.Sprintf("%d. %s at %s\n", i+1, l.Title, l.Company))
		output.WriteString(fmt.Sprintf("   Match: %d/100 (%s)\n", rec.Score, rec.Label))
		output.WriteString(fmt.Sprintf("   Skills %d, Experience %d, Location %d\n",
			rec.Components.Skills, rec.Components.Experience, rec.Components.Location))
		output.WriteString(fmt.Sprintf("   %s | %s | %s\n", l.Location, l.Salary, l.Experience))
		if len(l.Skills) > 0 {
			output.WriteString("   Required: ")
			output.WriteString(strings.Join(l.Skills, ", "))
			output.WriteString("\n")
		}
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (rtf *RecommendationsTextFormatter) SupportedType() string {
	return "Recommendations"
}

// RecommendationsMarkdownFormatter handles markdown formatting for job recommendations
type RecommendationsMarkdownFormatter struct{}

func (rmf *RecommendationsMarkdownFormatter) Format(data any) (string, error) {
	recs, ok := data.([]jobs.Recommendation)
	if !ok {
		return "", fmt.Errorf("expected []jobs.Recommendation, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Job Recommendations\n\n")
	if len(recs) == 0 {
		output.WriteString("_No jobs match the current filters._\n")
		return output.String(), nil
	}

	output.WriteString("| Score | Match | Title | Company | Location | Salary |\n")
	output.WriteString("|---|---|---|---|---|---|\n")
	for _, rec := range recs {
		l := rec.Listing
		output.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %s |\n",
			rec.Score, rec.Label, escapeCell(l.Title), escapeCell(l.Company), escapeCell(l.Location), escapeCell(l.Salary)))
	}

	return output.String(), nil
}

func (rmf *RecommendationsMarkdownFormatter) SupportedType() string {
	return "Recommendations"
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// ScoreReportTextFormatter prints a single listing match
type ScoreReportTextFormatter struct{}

func (stf *ScoreReportTextFormatter) Format(data any) (string, error) {
	report, ok := data.(types.ScoreReport)
	if !ok {
		return "", fmt.Errorf("expected types.ScoreReport, got %T", data)
	}

	var output strings.Builder
	l := report.Listing
	output.WriteString(fmt.Sprintf("%s at %s\n", l.Title, l.Company))
	output.WriteString(fmt.Sprintf("Match: %d/100 (%s)\n", report.Score, report.Label))
	output.WriteString(fmt.Sprintf("  Skills      %3d\n", report.Components.Skills))
	output.WriteString(fmt.Sprintf("  Experience  %3d\n", report.Components.Experience))
	output.WriteString(fmt.Sprintf("  Location    %3d\n", report.Components.Location))
	output.WriteString("\nProfile: ")
	output.WriteString(strings.Join(report.Profile.Skills, ", "))
	output.WriteString(fmt.Sprintf(" (%d years, %s)\n", report.Profile.Experience, report.Profile.Location))
	return output.String(), nil
}

func (stf *ScoreReportTextFormatter) SupportedType() string {
	return "ScoreReport"
}

// TemplatesTextFormatter lists template variants as a table
type TemplatesTextFormatter struct{}

func (ttf *TemplatesTextFormatter) Format(data any) (string, error) {
	summaries, ok := data.([]types.TemplateSummary)
	if !ok {
		return "", fmt.Errorf("expected []types.TemplateSummary, got %T", data)
	}

	var output strings.Builder
	w := tabwriter.NewWriter(&output, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tLAYOUT\tCONTACT\tROUTE")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.Name, s.Layout, s.Contact, s.Route)
	}
	if err := w.Flush(); err != nil {
		return "", err
	}
	return output.String(), nil
}

func (ttf *TemplatesTextFormatter) SupportedType() string {
	return "Templates"
}

// ExportResultTextFormatter summarizes a finished export
type ExportResultTextFormatter struct{}

func (etf *ExportResultTextFormatter) Format(data any) (string, error) {
	res, ok := data.(types.ExportResult)
	if !ok {
		return "", fmt.Errorf("expected types.ExportResult, got %T", data)
	}

	var output strings.Builder
	output.WriteString(fmt.Sprintf("Exported %s (%s, %s)\n", res.Name, utils.FormatFileSize(int64(res.Size)), res.ContentType))
	if res.Output != "" {
		output.WriteString(fmt.Sprintf("Written to: %s\n", res.Output))
	}
	if res.Location != "" {
		output.WriteString(fmt.Sprintf("Stored at: %s\n", res.Location))
	}
	return output.String(), nil
}

func (etf *ExportResultTextFormatter) SupportedType() string {
	return "ExportResult"
}
