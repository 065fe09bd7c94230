package server

import (
	"net/url"
	"strings"

	"resumecraft/internal/templates"
)

// View names.
const (
	ViewHome               = "home"
	ViewResumeBuilder      = "resume-builder"
	ViewPricing            = "pricing"
	ViewATSScore           = "ats-score"
	ViewJobRecommendations = "job-recommendations"
	ViewResumeWriter       = "resume-writer"
	ViewResumeTemplate     = "resume-template"
	ViewImproveResume      = "improve-resume"
	ViewLogin              = "login"
	ViewSignup             = "signup"
	ViewLogout             = "logout"
	ViewUnderConstruction  = "under-construction"
)

// UnderConstructionPath is where unknown and unbuilt views end up.
const UnderConstructionPath = "/under_construction"

// Route maps a path to a view.
type Route struct {
	Path  string
	View  string
	Gated bool // requires a logged-in visitor
	Built bool // false sends visitors to UnderConstructionPath
}

// Routes is the fixed part of the route table. Template pages are resolved
// against the template registry, see Resolve.
var Routes = []Route{
	{Path: "/", View: ViewHome, Built: true},
	{Path: "/resume-builder", View: ViewResumeBuilder, Built: true},
	{Path: "/pricing", View: ViewPricing, Built: true},
	{Path: "/ats-score", View: ViewATSScore, Built: true},
	{Path: "/job_recommendations", View: ViewJobRecommendations, Gated: true, Built: true},
	{Path: "/resume_writer", View: ViewResumeWriter, Built: true},
	{Path: "/resume_template", View: ViewResumeTemplate, Gated: true, Built: true},
	{Path: "/login", View: ViewLogin, Built: true},
	{Path: "/signup", View: ViewSignup, Built: true},
	{Path: "/logout", View: ViewLogout, Built: true},
	{Path: UnderConstructionPath, View: ViewUnderConstruction, Built: true},
}

// Match is a resolved request path.
type Match struct {
	Route

	// Template pages only.
	Descriptor   templates.Descriptor
	AnalysisID   string
	TemplateSlug string
}

// Resolve finds the route for path. Template pages have the form
// <descriptor route>/<analysisId>/<templateId>; both trailing segments may be
// missing, in which case the visitor's last analysis is used.
func Resolve(path string, descriptors []templates.Descriptor) (Match, bool) {
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	for _, r := range Routes {
		if r.Path == path {
			return Match{Route: r}, true
		}
	}

	prefix, rest, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	for _, d := range descriptors {
		if strings.TrimPrefix(d.Route(), "/") != prefix {
			continue
		}
		m := Match{
			Route:      Route{Path: d.Route(), View: ViewImproveResume, Built: true},
			Descriptor: d,
		}
		if rest == "" {
			return m, true
		}
		parts := strings.Split(rest, "/")
		if len(parts) > 2 {
			return Match{}, false
		}
		m.AnalysisID = parts[0]
		if len(parts) == 2 {
			m.TemplateSlug = parts[1]
		}
		return m, true
	}
	return Match{}, false
}

// TemplatePath is the page that opens analysisID with d.
func TemplatePath(d templates.Descriptor, analysisID string) string {
	return d.Route() + "/" + url.PathEscape(analysisID) + "/" + Slug(d.Name)
}

// Slug lowercases s and joins its words with dashes.
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
		default:
			dash = true
		}
	}
	return b.String()
}
