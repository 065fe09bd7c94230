package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"resumecraft/internal/backend"
	"resumecraft/internal/document"
	"resumecraft/internal/editor"
	"resumecraft/internal/errors"
	"resumecraft/internal/formatters"
	"resumecraft/internal/jobs"
	"resumecraft/internal/observability"
	"resumecraft/internal/session"
	"resumecraft/internal/types"
	"resumecraft/internal/viewer"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CreateWorkspaceRequest opens an analysis in a template. Blank starts from
// the starter document instead and ignores AnalysisID.
type CreateWorkspaceRequest struct {
	AnalysisID string `json:"analysisId"`
	TemplateID string `json:"templateId"`
	Blank      bool   `json:"blank"`
}

// WorkspaceResponse describes a workspace and its current document.
type WorkspaceResponse struct {
	ID         string             `json:"id"`
	AnalysisID string             `json:"analysisId"`
	TemplateID string             `json:"templateId"`
	Created    time.Time          `json:"created"`
	State      editor.State       `json:"state"`
	Document   *document.Document `json:"document"`
}

// OpResponse is returned after an editor operation.
type OpResponse struct {
	Result OpResult     `json:"result"`
	State  editor.State `json:"state"`
}

// ExportRequest selects the export strategy. Empty uses the configured one.
type ExportRequest struct {
	Strategy string `json:"strategy"`
}

// RecommendationsRequest scores the seeded listings. The candidate profile
// is taken from Profile, then from the workspace document, then the
// built-in sample profile.
type RecommendationsRequest struct {
	Filter      jobs.Filter   `json:"filter"`
	Profile     *jobs.Profile `json:"profile,omitempty"`
	WorkspaceID string        `json:"workspaceId,omitempty"`
	Experience  int           `json:"experience,omitempty"`
	Location    string        `json:"location,omitempty"`
}

// SessionResponse reports the visitor's login state.
type SessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	LastAnalysis  string `json:"lastAnalysis,omitempty"`
}

func workspaceResponse(ws *editor.Workspace) WorkspaceResponse {
	return WorkspaceResponse{
		ID:         ws.ID,
		AnalysisID: ws.AnalysisID,
		TemplateID: ws.TemplateID,
		Created:    ws.Created,
		State:      ws.Editor.State(),
		Document:   ws.Editor.Document(),
	}
}

// failSpan records err on span and writes it as the response.
func failSpan(w http.ResponseWriter, span trace.Span, err error) {
	span.RecordError(err)
	if appErr, ok := errors.As(err); ok {
		span.SetAttributes(attribute.String("error.type", string(appErr.Type)))
	}
	writeAppError(w, err)
}

func (s *Server) apiTemplatesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.SummarizeTemplates(s.Templates.List()))
}

func (s *Server) createRolesHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var roles []backend.Role
		err := om.GetMetrics().TrackBackendOperation(r.Context(), "roles", func(ctx context.Context) error {
			var err error
			roles, err = s.Backend.Roles(ctx)
			return err
		})
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, roles)
	}
}

// createAnalyzeHandler forwards a multipart resume upload to the backend.
func (s *Server) createAnalyzeHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumecraft.api")
		ctx, span := tracer.Start(ctx, "api.analyze")
		defer span.End()

		up, err := readUpload(r)
		if err != nil {
			failSpan(w, span, err)
			return
		}
		roleID, jd := r.FormValue("role_id"), r.FormValue("job_description")
		span.SetAttributes(
			attribute.Int("request.file_size", len(up.Data)),
			attribute.String("request.endpoint", backend.AnalyzeEndpoint(roleID, jd)),
		)

		var analysis *backend.Analysis
		err = om.GetMetrics().TrackBackendOperation(ctx, "analyze", func(ctx context.Context) error {
			var err error
			analysis, err = s.Backend.Analyze(ctx, up, roleID, jd)
			return err
		})
		if err != nil {
			failSpan(w, span, err)
			return
		}

		if err := s.visitor(w, r).RememberAnalysis(ctx, string(analysis.ID)); err != nil {
			s.Logger.LogError(err, "Failed to remember analysis", "analysis_id", string(analysis.ID))
		}
		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.String("analysis_id", string(analysis.ID)),
		)
		writeJSON(w, http.StatusOK, analysis)
	}
}

// createViewHandler loads an analysis into a template without opening a
// workspace.
func (s *Server) createViewHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumecraft.api")
		ctx, span := tracer.Start(ctx, "api.view")
		defer span.End()

		desc, err := s.Templates.Get(r.PathValue("templateId"))
		if err != nil {
			failSpan(w, span, err)
			return
		}
		v := s.Loader.Load(ctx, r.PathValue("analysisId"), desc)
		status := http.StatusOK
		if v.State != viewer.StateDocument {
			span.RecordError(v.Err)
			status = errors.HTTPStatus(v.Err)
		}
		writeJSON(w, status, v)
	}
}

func (s *Server) createWorkspaceHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumecraft.api")
		ctx, span := tracer.Start(ctx, "api.workspace.create")
		defer span.End()

		var req CreateWorkspaceRequest
		if err := parseJSONRequest(r, &req); err != nil {
			failSpan(w, span, err)
			return
		}
		desc := s.Templates.Default()
		if req.TemplateID != "" {
			var err error
			if desc, err = s.Templates.Get(req.TemplateID); err != nil {
				failSpan(w, span, err)
				return
			}
		}
		span.SetAttributes(
			attribute.String("analysis_id", req.AnalysisID),
			attribute.String("template_id", desc.ID),
		)

		var ws *editor.Workspace
		if req.Blank {
			ws = s.Workspaces.Create("", desc.ID, document.Starter())
		} else {
			v := s.Loader.Load(ctx, req.AnalysisID, desc)
			if v.State != viewer.StateDocument {
				failSpan(w, span, v.Err)
				return
			}
			ws = s.Workspaces.Create(v.AnalysisID, desc.ID, v.Document)
		}
		s.Logger.Info("Workspace created via API", "workspace_id", ws.ID, "template_id", desc.ID)
		writeJSON(w, http.StatusCreated, workspaceResponse(ws))
	}
}

func (s *Server) getWorkspaceHandler(w http.ResponseWriter, r *http.Request) {
	ws, err := s.apiWorkspace(r, r.PathValue("id"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workspaceResponse(ws))
}

func (s *Server) deleteWorkspaceHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.apiWorkspace(r, id); err != nil {
		writeAppError(w, err)
		return
	}
	s.Workspaces.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) createWorkspaceOpHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := s.apiWorkspace(r, r.PathValue("id"))
		if err != nil {
			writeAppError(w, err)
			return
		}
		var op Op
		if err := parseJSONRequest(r, &op); err != nil {
			writeAppError(w, err)
			return
		}
		res, err := s.runOp(r.Context(), ws, op, om)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, OpResponse{Result: res, State: ws.Editor.State()})
	}
}

// renderWorkspaceHandler formats the current document. The format defaults
// to html.
func (s *Server) renderWorkspaceHandler(w http.ResponseWriter, r *http.Request) {
	ws, err := s.apiWorkspace(r, r.PathValue("id"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "html"
	}
	out, err := s.Formatters.Format(formatters.Resume{
		Document:   ws.Editor.Document(),
		Descriptor: s.descriptorFor(ws),
	}, format)
	if err != nil {
		writeAppError(w, errors.NewValidationError(errors.ErrCodeInvalidFormat, err.Error(), err))
		return
	}
	w.Header().Set("Content-Type", formatters.ContentType(format))
	_, _ = w.Write([]byte(out))
}

func (s *Server) createExportHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := s.apiWorkspace(r, r.PathValue("id"))
		if err != nil {
			writeAppError(w, err)
			return
		}
		var req ExportRequest
		if r.ContentLength != 0 {
			if err := parseJSONRequest(r, &req); err != nil {
				writeAppError(w, err)
				return
			}
		}
		artifact, err := s.exportWorkspace(r.Context(), ws, req.Strategy, om)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeArtifact(w, artifact)
	}
}

func (s *Server) createRecommendationsHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumecraft.api")
		ctx, span := tracer.Start(ctx, "api.jobs.recommendations")
		defer span.End()

		var req RecommendationsRequest
		if err := parseJSONRequest(r, &req); err != nil {
			failSpan(w, span, err)
			return
		}

		profile := req.Profile
		source := "request"
		if profile == nil && req.WorkspaceID != "" {
			ws, err := s.apiWorkspace(r, req.WorkspaceID)
			if err != nil {
				failSpan(w, span, err)
				return
			}
			profile = jobs.ProfileFromDocument(ws.Editor.Document(), req.Experience, req.Location)
			source = "workspace"
		}
		if profile == nil {
			profile = jobs.MockProfile()
			source = "sample"
		}

		recs, err := jobs.Apply(s.Listings, req.Filter, profile)
		if err != nil {
			failSpan(w, span, err)
			return
		}
		s.recordScores(ctx, recs, om)
		span.SetAttributes(
			attribute.String("profile.source", source),
			attribute.Int("recommendations", len(recs)),
		)
		writeJSON(w, http.StatusOK, recs)
	}
}

func (s *Server) apiLoginHandler(w http.ResponseWriter, r *http.Request) {
	var creds backend.Credentials
	if err := parseJSONRequest(r, &creds); err != nil {
		writeAppError(w, err)
		return
	}
	result, err := s.Backend.Login(r.Context(), creds)
	if err != nil {
		writeAppError(w, err)
		return
	}
	s.startSession(w, r, result)
}

func (s *Server) apiSignupHandler(w http.ResponseWriter, r *http.Request) {
	var reg backend.Registration
	if err := parseJSONRequest(r, &reg); err != nil {
		writeAppError(w, err)
		return
	}
	result, err := s.Backend.Signup(r.Context(), reg)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if result.Token == "" {
		writeJSON(w, http.StatusCreated, SessionResponse{})
		return
	}
	s.startSession(w, r, result)
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, result *backend.AuthResult) {
	auth := s.visitor(w, r)
	if err := auth.Login(r.Context(), result.Token); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sessionState(r.Context(), auth))
}

func (s *Server) apiLogoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.visitor(w, r).Logout(r.Context()); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) apiSessionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sessionState(r.Context(), s.visitor(w, r)))
}

func (s *Server) sessionState(ctx context.Context, auth *session.Auth) SessionResponse {
	last, err := auth.LastAnalysis(ctx)
	if err != nil {
		s.Logger.LogError(err, "Failed to read last analysis")
	}
	return SessionResponse{Authenticated: auth.IsAuthenticated(ctx), LastAnalysis: last}
}

// trackedFetcher reports every improve fetch to the backend metrics.
type trackedFetcher struct {
	backend *backend.Client
	metrics *observability.Metrics
}

func (f trackedFetcher) DirectImprove(ctx context.Context, analysisID string) ([]byte, error) {
	var payload []byte
	err := f.metrics.TrackBackendOperation(ctx, "direct_improve", func(ctx context.Context) error {
		var err error
		payload, err = f.backend.DirectImprove(ctx, analysisID)
		return err
	})
	return payload, err
}

// createRateLimitMiddleware adds observability to rate limiting
func (s *Server) createRateLimitMiddleware(om *observability.ObservabilityManager) func(http.HandlerFunc) http.HandlerFunc {
	limit := s.rateLimitMiddleware()

	return func(next http.HandlerFunc) http.HandlerFunc {
		limited := limit(next)
		return func(w http.ResponseWriter, r *http.Request) {
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}

			limited(wrapper, r)

			if wrapper.statusCode == http.StatusTooManyRequests {
				om.GetMetrics().RecordBusinessMetric(r.Context(), observability.MetricRateLimitHit, true,
					attribute.String("endpoint", r.URL.Path),
					attribute.String("method", r.Method))
			}
		}
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
