package server

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"strings"

	"resumecraft/internal/backend"
	"resumecraft/internal/document"
	"resumecraft/internal/errors"
	"resumecraft/internal/jobs"
	"resumecraft/internal/observability"
	"resumecraft/internal/session"
	"resumecraft/internal/templates"
	"resumecraft/internal/viewer"

	"go.opentelemetry.io/otel/attribute"
)

//go:embed pages/*.html.tmpl
var pageFS embed.FS

// maxUploadMemory bounds the multipart form kept in memory.
const maxUploadMemory = 32 << 20

type pageRenderer struct {
	tmpl *template.Template
}

func newPageRenderer() (*pageRenderer, error) {
	tmpl, err := template.ParseFS(pageFS, "pages/*.html.tmpl")
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidFormat, "failed to parse page templates", err)
	}
	return &pageRenderer{tmpl: tmpl}, nil
}

// pageData is what every page template receives.
type pageData struct {
	Title         string
	Authenticated bool
	Notice        string
	Error         string
	Data          any
}

type plan struct {
	Name     string
	Price    string
	Features []string
}

var plans = []plan{
	{Name: "Free", Price: "0", Features: []string{"One ATS analysis per month", "Classic template"}},
	{Name: "Pro", Price: "499 / month", Features: []string{"Unlimited analyses", "All templates", "PDF export"}},
	{Name: "Team", Price: "Contact us", Features: []string{"Shared workspaces", "Priority support"}},
}

type atsForm struct {
	Roles []backend.Role
}

type atsResult struct {
	ID            string
	Items         []map[string]any
	TemplatesHref string
}

type jobsPage struct {
	Filter          jobs.Filter
	Locations       []string
	Recommendations []jobs.Recommendation
}

type templateCard struct {
	Descriptor templates.Descriptor
	Href       string
}

type loginForm struct {
	From       string
	Email      string
	GoogleHref string
}

type signupForm struct {
	Name  string
	Email string
}

// renderPage writes a complete page, buffering so a template failure never
// leaves a half-written response.
func (s *Server) renderPage(w http.ResponseWriter, status int, name string, data pageData) {
	var buf bytes.Buffer
	if err := s.pages.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		s.Logger.LogError(err, "Failed to render page", "page", name)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := io.Copy(w, &buf); err != nil {
		s.Logger.Debug("Failed to write page", "page", name, "error", err.Error())
	}
}

func (s *Server) newPage(ctx context.Context, auth *session.Auth, title string, data any) pageData {
	return pageData{Title: title, Authenticated: auth.IsAuthenticated(ctx), Data: data}
}

// createPageHandler resolves every non-API path against the route table.
func (s *Server) createPageHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, ok := Resolve(r.URL.Path, s.Templates.List())
		if !ok || !m.Built {
			http.Redirect(w, r, UnderConstructionPath, http.StatusSeeOther)
			return
		}

		auth := s.visitor(w, r)
		if d := auth.Guard(r.Context(), r.URL.RequestURI(), m.Gated); !d.Allow {
			s.Logger.Debug("Redirecting to login", "from", d.From)
			http.Redirect(w, r, d.Redirect, http.StatusSeeOther)
			return
		}

		post := r.Method == http.MethodPost
		if !post && r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		switch m.View {
		case ViewHome:
			s.renderPage(w, http.StatusOK, ViewHome, s.newPage(r.Context(), auth, "Home", nil))
		case ViewResumeBuilder:
			s.renderPage(w, http.StatusOK, ViewResumeBuilder, s.newPage(r.Context(), auth, "Resume Builder", nil))
		case ViewPricing:
			s.renderPage(w, http.StatusOK, ViewPricing, s.newPage(r.Context(), auth, "Pricing", plans))
		case ViewUnderConstruction:
			s.renderPage(w, http.StatusOK, ViewUnderConstruction, s.newPage(r.Context(), auth, "Under construction", nil))
		case ViewATSScore:
			if post {
				s.analyzeUpload(w, r, auth, om)
			} else {
				s.atsScorePage(w, r, auth)
			}
		case ViewJobRecommendations:
			s.jobRecommendationsPage(w, r, auth, om)
		case ViewResumeTemplate:
			s.resumeTemplatePage(w, r, auth)
		case ViewImproveResume:
			s.improveResume(w, r, m, auth, om)
		case ViewResumeWriter:
			s.resumeWriter(w, r)
		case ViewLogin:
			if post {
				s.login(w, r, auth)
			} else {
				s.loginPage(w, r, auth, http.StatusOK, "", "")
			}
		case ViewSignup:
			if post {
				s.signup(w, r, auth)
			} else {
				s.renderPage(w, http.StatusOK, ViewSignup, s.newPage(r.Context(), auth, "Sign up", signupForm{}))
			}
		case ViewLogout:
			if err := auth.Logout(r.Context()); err != nil {
				s.Logger.LogError(err, "Failed to log out")
			}
			http.Redirect(w, r, "/", http.StatusSeeOther)
		default:
			http.Redirect(w, r, UnderConstructionPath, http.StatusSeeOther)
		}
	}
}

func (s *Server) atsScorePage(w http.ResponseWriter, r *http.Request, auth *session.Auth) {
	page := s.newPage(r.Context(), auth, "ATS Score", nil)
	roles, err := s.Backend.Roles(r.Context())
	if err != nil {
		s.Logger.LogError(err, "Failed to load roles")
		page.Notice = "Target roles are unavailable right now. A general analysis will be run."
	}
	page.Data = atsForm{Roles: roles}
	s.renderPage(w, http.StatusOK, ViewATSScore, page)
}

func (s *Server) analyzeUpload(w http.ResponseWriter, r *http.Request, auth *session.Auth, om *observability.ObservabilityManager) {
	ctx := r.Context()
	page := s.newPage(ctx, auth, "ATS Score", atsForm{})

	up, err := readUpload(r)
	if err != nil {
		page.Error = userMessage(err)
		s.renderPage(w, errors.HTTPStatus(err), ViewATSScore, page)
		return
	}

	var analysis *backend.Analysis
	err = om.GetMetrics().TrackBackendOperation(ctx, "analyze", func(ctx context.Context) error {
		var err error
		analysis, err = s.Backend.Analyze(ctx, up, r.FormValue("role_id"), r.FormValue("job_description"))
		return err
	})
	if err != nil {
		page.Error = userMessage(err)
		s.renderPage(w, errors.HTTPStatus(err), ViewATSScore, page)
		return
	}

	id := string(analysis.ID)
	if err := auth.RememberAnalysis(ctx, id); err != nil {
		s.Logger.LogError(err, "Failed to remember analysis", "analysis_id", id)
	}
	page.Title = "Analysis"
	page.Data = atsResult{
		ID:            id,
		Items:         analysis.Items,
		TemplatesHref: "/resume_template?analysisId=" + url.QueryEscape(id),
	}
	s.renderPage(w, http.StatusOK, "ats-result", page)
}

// readUpload extracts the "resume" file of a multipart request.
func readUpload(r *http.Request) (backend.Upload, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return backend.Upload{}, errors.NewValidationError(errors.ErrCodeInvalidRequest, "Please choose a resume file to upload.", err)
	}
	file, header, err := r.FormFile("resume")
	if err != nil {
		return backend.Upload{}, errors.NewValidationError(errors.ErrCodeInvalidRequest, "Please choose a resume file to upload.", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return backend.Upload{}, errors.NewIOError(errors.ErrCodeFileNotReadable, "Failed to read the uploaded file.", err)
	}
	return backend.Upload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func filterFrom(q url.Values) jobs.Filter {
	return jobs.Filter{
		Location:   q.Get("location"),
		Salary:     q.Get("salary"),
		Experience: q.Get("experience"),
		Search:     strings.TrimSpace(q.Get("search")),
	}
}

func (s *Server) jobRecommendationsPage(w http.ResponseWriter, r *http.Request, auth *session.Auth, om *observability.ObservabilityManager) {
	ctx := r.Context()
	f := filterFrom(r.URL.Query())
	page := s.newPage(ctx, auth, "Job Recommendations", nil)

	recs, err := jobs.Apply(s.Listings, f, jobs.MockProfile())
	status := http.StatusOK
	if err != nil {
		page.Error = userMessage(err)
		status = errors.HTTPStatus(err)
	}
	s.recordScores(ctx, recs, om)

	page.Data = jobsPage{Filter: f, Locations: jobs.Locations(s.Listings), Recommendations: recs}
	s.renderPage(w, status, ViewJobRecommendations, page)
}

func (s *Server) recordScores(ctx context.Context, recs []jobs.Recommendation, om *observability.ObservabilityManager) {
	metrics := om.GetMetrics()
	for _, rec := range recs {
		metrics.RecordMatchScore(ctx, rec.Score)
	}
	metrics.RecordBusinessMetric(ctx, observability.MetricJobScored, true, attribute.Int("count", len(recs)))
}

func (s *Server) resumeTemplatePage(w http.ResponseWriter, r *http.Request, auth *session.Auth) {
	ctx := r.Context()
	page := s.newPage(ctx, auth, "Templates", nil)

	id := r.URL.Query().Get("analysisId")
	if !viewer.ValidID(id) {
		last, err := auth.LastAnalysis(ctx)
		if err != nil {
			s.Logger.LogError(err, "Failed to read last analysis")
		}
		id = last
	}
	if !viewer.ValidID(id) {
		id = ""
		page.Notice = "Analyze a resume first, then pick a template to open it in."
	}

	descriptors := s.Templates.List()
	cards := make([]templateCard, 0, len(descriptors))
	for _, d := range descriptors {
		card := templateCard{Descriptor: d}
		if id != "" {
			card.Href = TemplatePath(d, id)
		}
		cards = append(cards, card)
	}
	page.Data = cards
	s.renderPage(w, http.StatusOK, ViewResumeTemplate, page)
}

// improveResume loads the analysis for a template page and opens it in a new
// editing workspace.
func (s *Server) improveResume(w http.ResponseWriter, r *http.Request, m Match, auth *session.Auth, om *observability.ObservabilityManager) {
	ctx := r.Context()
	tracer := om.Tracer("resumecraft.pages")
	ctx, span := tracer.Start(ctx, "page.improve_resume")
	defer span.End()

	id := m.AnalysisID
	if !viewer.ValidID(id) {
		if last, err := auth.LastAnalysis(ctx); err == nil && viewer.ValidID(last) {
			id = last
		}
	}
	span.SetAttributes(
		attribute.String("analysis_id", id),
		attribute.String("template_id", m.Descriptor.ID),
	)

	v := s.Loader.Load(ctx, id, m.Descriptor)
	if v.State != viewer.StateDocument {
		span.RecordError(v.Err)
		page := s.newPage(ctx, auth, m.Descriptor.Name, v)
		s.renderPage(w, errors.HTTPStatus(v.Err), "viewer-error", page)
		return
	}

	if err := auth.RememberAnalysis(ctx, v.AnalysisID); err != nil {
		s.Logger.LogError(err, "Failed to remember analysis", "analysis_id", v.AnalysisID)
	}
	ws := s.Workspaces.CreateFor(s.visitorID(w, r), v.AnalysisID, m.Descriptor.ID, v.Document)
	http.Redirect(w, r, workspacePath(ws.ID), http.StatusSeeOther)
}

// resumeWriter opens a workspace on the starter document, laid out with the
// template named by ?template= or the default one.
func (s *Server) resumeWriter(w http.ResponseWriter, r *http.Request) {
	desc := s.Templates.Default()
	if id := r.URL.Query().Get("template"); id != "" {
		if d, err := s.Templates.Get(id); err == nil {
			desc = d
		} else {
			s.Logger.Debug("Unknown template for resume writer", "template_id", id)
		}
	}
	ws := s.Workspaces.CreateFor(s.visitorID(w, r), "", desc.ID, document.Starter())
	s.Logger.Info("Workspace created from scratch", "workspace_id", ws.ID, "template_id", desc.ID)
	http.Redirect(w, r, workspacePath(ws.ID), http.StatusSeeOther)
}

func (s *Server) loginPage(w http.ResponseWriter, r *http.Request, auth *session.Auth, status int, email, message string) {
	from := r.FormValue("from")
	form := loginForm{From: from, Email: email}
	if s.AppConfig.Auth.GoogleClientID != "" {
		form.GoogleHref = "/auth/google?from=" + url.QueryEscape(from)
	}
	page := s.newPage(r.Context(), auth, "Log in", form)
	page.Error = message
	s.renderPage(w, status, ViewLogin, page)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request, auth *session.Auth) {
	ctx := r.Context()
	creds := backend.Credentials{
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
	}
	result, err := s.Backend.Login(ctx, creds)
	if err != nil {
		s.loginPage(w, r, auth, errors.HTTPStatus(err), creds.Email, userMessage(err))
		return
	}
	if err := auth.Login(ctx, result.Token); err != nil {
		s.loginPage(w, r, auth, http.StatusInternalServerError, creds.Email, "Could not start your session. Please try again.")
		return
	}
	http.Redirect(w, r, session.RedirectAfterLogin(r.FormValue("from")), http.StatusSeeOther)
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request, auth *session.Auth) {
	ctx := r.Context()
	reg := backend.Registration{
		Name:     strings.TrimSpace(r.FormValue("name")),
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
	}
	result, err := s.Backend.Signup(ctx, reg)
	if err != nil {
		page := s.newPage(ctx, auth, "Sign up", signupForm{Name: reg.Name, Email: reg.Email})
		page.Error = userMessage(err)
		s.renderPage(w, errors.HTTPStatus(err), ViewSignup, page)
		return
	}
	if result.Token == "" {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if err := auth.Login(ctx, result.Token); err != nil {
		s.Logger.LogError(err, "Failed to start session after signup")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// googleLogin sends the visitor to the Google consent screen. The return leg
// is handled by the auth backend.
func (s *Server) googleLogin(w http.ResponseWriter, r *http.Request) {
	a := s.AppConfig.Auth
	if a.GoogleClientID == "" {
		http.Redirect(w, r, UnderConstructionPath, http.StatusSeeOther)
		return
	}
	state := session.RedirectAfterLogin(r.URL.Query().Get("from"))
	http.Redirect(w, r, backend.GoogleAuthURL(a.GoogleClientID, a.RedirectURI, a.Scopes, state), http.StatusFound)
}

// userMessage is the message of err when it is an application error.
func userMessage(err error) string {
	if appErr, ok := errors.As(err); ok {
		return appErr.Message
	}
	return "Something went wrong. Please try again."
}
