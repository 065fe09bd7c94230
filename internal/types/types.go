package types

import (
	"resumecraft/internal/document"
	"resumecraft/internal/jobs"
	"resumecraft/internal/templates"
)

// TemplateSummary is a template variant as listed to clients
type TemplateSummary struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Layout      templates.Layout     `json:"layout"`
	Contact     document.ContactMode `json:"contact"`
	Route       string               `json:"route"`
}

// SummarizeTemplates lists descriptors in the order given
func SummarizeTemplates(descriptors []templates.Descriptor) []TemplateSummary {
	out := make([]TemplateSummary, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, TemplateSummary{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
			Layout:      d.Layout,
			Contact:     d.Contact,
			Route:       d.Route(),
		})
	}
	return out
}

// ScoreReport is the match of one profile against one listing
type ScoreReport struct {
	Listing    jobs.Listing    `json:"listing"`
	Profile    jobs.Profile    `json:"profile"`
	Components jobs.Components `json:"components"`
	Score      int             `json:"score"`
	Label      string          `json:"label"`
}

// NewScoreReport scores p against l
func NewScoreReport(l jobs.Listing, p *jobs.Profile) ScoreReport {
	c := jobs.Breakdown(l, p)
	report := ScoreReport{Listing: l, Components: c, Score: c.Total, Label: jobs.MatchLabel(c.Total)}
	if p != nil {
		report.Profile = *p
	}
	return report
}

// ExportResult describes a finished export
type ExportResult struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
	Location    string `json:"location,omitempty"`
	Output      string `json:"output,omitempty"`
}
