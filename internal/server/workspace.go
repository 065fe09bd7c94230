package server

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"resumecraft/internal/editor"
	"resumecraft/internal/errors"
	"resumecraft/internal/export"
	"resumecraft/internal/observability"
	"resumecraft/internal/templates"

	"go.opentelemetry.io/otel/attribute"
)

// Editor operation names, as posted by the edit toolbar.
const (
	OpEdit       = "edit"
	OpSave       = "save"
	OpCancel     = "cancel"
	OpFormat     = "format"
	OpAddSection = "add-section"
	OpRemove     = "remove"
	OpAddPage    = "add-page"
	OpSelectPage = "select-page"
	OpUndo       = "undo"
	OpAccent     = "accent"
)

// Draft is the edit buffer sent with save and format operations.
type Draft = editor.Draft

// Op is one editor operation. Format operations may also be spelled
// "format:<name>".
type Op struct {
	Op     string `json:"op"`
	Key    string `json:"key,omitempty"`
	Kind   string `json:"kind,omitempty"`
	Page   int    `json:"page,omitempty"`
	Format string `json:"format,omitempty"`
	Start  int    `json:"start,omitempty"`
	End    int    `json:"end,omitempty"`
	Color  string `json:"color,omitempty"`
	Draft  *Draft `json:"draft,omitempty"`
}

// OpResult reports what an operation produced.
type OpResult struct {
	Key   string `json:"key,omitempty"`
	Page  int    `json:"page"`
	Caret int    `json:"caret,omitempty"`
}

func opFromForm(form url.Values) Op {
	op := Op{
		Op:   form.Get("op"),
		Key:  form.Get("key"),
		Kind:  form.Get("kind"),
		Color: form.Get("color"),
	}
	op.Page, _ = strconv.Atoi(form.Get("page"))
	op.Start, _ = strconv.Atoi(form.Get("start"))
	op.End, _ = strconv.Atoi(form.Get("end"))
	if form.Has("content") || form.Has("title") {
		op.Draft = &Draft{Title: form.Get("title"), Content: form.Get("content")}
	}
	return op
}

// name returns the operation and, for format operations, the format.
func (op Op) name() (string, string) {
	if f, ok := strings.CutPrefix(op.Op, OpFormat+":"); ok {
		return OpFormat, f
	}
	return op.Op, op.Format
}

// applyOp runs op against ed.
func applyOp(ed *editor.Editor, op Op) (OpResult, error) {
	name, format := op.name()
	var res OpResult
	var err error

	switch name {
	case OpEdit:
		err = ed.Begin(op.Key)
		res.Key = op.Key
	case OpSave:
		res.Key, err = ed.Commit(op.Key, op.Draft)
	case OpFormat:
		var f editor.Format
		if f, err = editor.ParseFormat(format); err != nil {
			break
		}
		res.Key, res.Caret, err = ed.FormatDraft(op.Key, op.Draft, op.Start, op.End, f)
	case OpCancel:
		ed.Cancel()
	case OpAddSection:
		res.Key, err = ed.AddSection(op.Kind)
	case OpRemove:
		err = ed.RemoveSection(op.Key)
	case OpAddPage:
		res.Page, err = ed.AddPage()
		return res, err
	case OpSelectPage:
		err = ed.SelectPage(op.Page)
	case OpUndo:
		err = ed.Undo()
	default:
		return res, errors.NewValidationError(errors.ErrCodeInvalidRequest, "unknown editor operation "+strconv.Quote(op.Op), nil)
	}
	res.Page = ed.State().Page
	return res, err
}

func workspacePath(id string) string {
	return "/workspaces/" + url.PathEscape(id)
}

// descriptorFor returns the workspace's template with its accent override,
// or the default when the template has since been removed from the registry.
func (s *Server) descriptorFor(ws *editor.Workspace) templates.Descriptor {
	d, err := s.Templates.Get(ws.TemplateID)
	if err != nil {
		s.Logger.Warn("Workspace template missing, using default", "template_id", ws.TemplateID)
		d = s.Templates.Default()
	}
	if accent := ws.Accent(); accent != "" {
		d.Theme.Accent = accent
	}
	return d
}

// ownedWorkspace answers as if the workspace did not exist when it belongs
// to another visitor.
func (s *Server) ownedWorkspace(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.workspaceFor(r, r.PathValue("id"), s.visitorID(w, r)); err != nil {
			s.workspaceError(w, r, err)
			return
		}
		next(w, r)
	}
}

// workspaceFor looks up a workspace on behalf of visitor. A workspace owned
// by someone else is reported as not found.
func (s *Server) workspaceFor(r *http.Request, id, visitor string) (*editor.Workspace, error) {
	ws, err := s.Workspaces.Get(id)
	if err != nil {
		return nil, err
	}
	if !ws.AccessibleBy(visitor) {
		s.Logger.Info("Workspace access denied", "workspace_id", ws.ID, "client_ip", getClientIP(r))
		return nil, errors.NewNotFoundError(errors.ErrCodeWorkspaceNotFound, "workspace not found or expired", nil).
			WithContext("workspace_id", ws.ID)
	}
	return ws, nil
}

// apiWorkspace is workspaceFor for API callers. It reads the visitor cookie
// without issuing one, so callers without a cookie only reach unowned
// workspaces.
func (s *Server) apiWorkspace(r *http.Request, id string) (*editor.Workspace, error) {
	return s.workspaceFor(r, id, s.requestVisitorID(r))
}

func (s *Server) workspaceError(w http.ResponseWriter, r *http.Request, err error) {
	page := s.newPage(r.Context(), s.visitor(w, r), "Workspace unavailable", userMessage(err))
	s.renderPage(w, errors.HTTPStatus(err), "error-page", page)
}

// workspacePageHandler renders a workspace in edit mode.
func (s *Server) workspacePageHandler(w http.ResponseWriter, r *http.Request) {
	ws, err := s.Workspaces.Get(r.PathValue("id"))
	if err != nil {
		s.workspaceError(w, r, err)
		return
	}
	st := ws.Editor.State()
	s.renderDocument(w, templates.View{
		Document:     ws.Editor.Document(),
		Descriptor:   s.descriptorFor(ws),
		Mode:         templates.ModeEdit,
		Page:         st.Page,
		Action:       workspacePath(ws.ID),
		Editing:      st.Key,
		DraftTitle:   st.DraftTitle,
		DraftContent: st.DraftContent,
		CanUndo:      st.UndoDepth > 0,
	})
}

// workspaceViewHandler renders every page read-only.
func (s *Server) workspaceViewHandler(w http.ResponseWriter, r *http.Request) {
	ws, err := s.Workspaces.Get(r.PathValue("id"))
	if err != nil {
		s.workspaceError(w, r, err)
		return
	}
	s.renderDocument(w, templates.View{
		Document:   ws.Editor.Document(),
		Descriptor: s.descriptorFor(ws),
		Mode:       templates.ModeView,
		Page:       -1,
	})
}

func (s *Server) renderDocument(w http.ResponseWriter, v templates.View) {
	var buf bytes.Buffer
	if err := s.Renderer.RenderView(&buf, v); err != nil {
		s.Logger.LogError(err, "Failed to render document", "template_id", v.Descriptor.ID)
		writeAppError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// createWorkspaceFormHandler applies a posted toolbar operation and
// redirects back to the editor.
func (s *Server) createWorkspaceFormHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := s.Workspaces.Get(r.PathValue("id"))
		if err != nil {
			s.workspaceError(w, r, err)
			return
		}
		if err := r.ParseForm(); err != nil {
			s.workspaceError(w, r, errors.NewValidationError(errors.ErrCodeInvalidRequest, "invalid form", err))
			return
		}

		op := opFromForm(r.PostForm)
		_, err = s.runOp(r.Context(), ws, op, om)
		switch {
		case err == nil:
		case errors.IsType(err, errors.ErrorTypePrecondition), errors.IsType(err, errors.ErrorTypeNotFound):
			// Undo with an empty history and stale section keys leave the
			// document as it is.
			s.Logger.Debug("Editor operation ignored", "op", op.Op, "reason", err.Error())
		default:
			s.workspaceError(w, r, err)
			return
		}
		http.Redirect(w, r, workspacePath(ws.ID), http.StatusSeeOther)
	}
}

func (s *Server) runOp(ctx context.Context, ws *editor.Workspace, op Op, om *observability.ObservabilityManager) (OpResult, error) {
	var (
		res OpResult
		err error
	)
	name, _ := op.name()
	if name == OpAccent {
		err = ws.SetAccent(op.Color)
		res.Page = ws.Editor.State().Page
	} else {
		res, err = applyOp(ws.Editor, op)
	}
	om.GetMetrics().RecordBusinessMetric(ctx, observability.MetricSectionEdited, err == nil,
		attribute.String("op", name),
		attribute.String("template", ws.TemplateID))
	if err != nil {
		s.Logger.Debug("Editor operation failed", "workspace_id", ws.ID, "op", op.Op, "error", err.Error())
	}
	return res, err
}

// exportWorkspace renders the workspace read-only and hands it to the
// exporter for strategy, or the configured one when strategy is empty. The
// artifact is then stored in the configured sink.
func (s *Server) exportWorkspace(ctx context.Context, ws *editor.Workspace, strategy string, om *observability.ObservabilityManager) (*export.Artifact, error) {
	tracer := om.Tracer("resumecraft.export")
	ctx, span := tracer.Start(ctx, "export.workspace")
	defer span.End()

	exporter := s.Exporter
	if strategy != "" && strategy != string(exporter.Strategy()) {
		var err error
		if exporter, err = export.New(strategy, s.exportOptions()); err != nil {
			return nil, err
		}
	}
	span.SetAttributes(attribute.String("strategy", string(exporter.Strategy())))

	desc := s.descriptorFor(ws)
	var buf bytes.Buffer
	if err := s.Renderer.Render(&buf, ws.Editor.Document(), desc, templates.ModeView); err != nil {
		return nil, err
	}

	metrics := om.GetMetrics()
	start := time.Now()
	artifact, err := exporter.Export(ctx, export.Input{
		Name:     exportName(desc, ws.AnalysisID),
		HTML:     buf.Bytes(),
		PrintCSS: desc.PrintCSS,
		PageSize: export.A4,
	})
	metrics.RecordExportDuration(ctx, string(exporter.Strategy()), time.Since(start))
	metrics.RecordBusinessMetric(ctx, observability.MetricResumeExported, err == nil,
		attribute.String("strategy", string(exporter.Strategy())),
		attribute.String("template", desc.ID))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if _, err := s.Sink.Store(ctx, artifact); err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.Logger.Info("Resume exported",
		"workspace_id", ws.ID,
		"strategy", string(exporter.Strategy()),
		"size", artifact.Size,
		"location", artifact.Location)
	return artifact, nil
}

func exportName(d templates.Descriptor, analysisID string) string {
	name := Slug(d.Name)
	if id := Slug(analysisID); id != "" {
		name += "-" + id
	}
	return name
}

// writeArtifact sends an export result. PDFs are offered as downloads and
// print pages open in place.
func writeArtifact(w http.ResponseWriter, a *export.Artifact) {
	w.Header().Set("Content-Type", a.ContentType)
	disposition := "inline"
	if strings.HasPrefix(a.ContentType, "application/pdf") {
		disposition = "attachment"
	}
	w.Header().Set("Content-Disposition", disposition+"; filename="+strconv.Quote(a.Name))
	if a.Location != "" {
		w.Header().Set("X-Artifact-Location", a.Location)
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(a.Data)))
	_, _ = w.Write(a.Data)
}

// createWorkspaceExportHandler exports from the edit toolbar.
func (s *Server) createWorkspaceExportHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := s.Workspaces.Get(r.PathValue("id"))
		if err != nil {
			s.workspaceError(w, r, err)
			return
		}
		artifact, err := s.exportWorkspace(r.Context(), ws, r.URL.Query().Get("strategy"), om)
		if err != nil {
			s.Logger.LogError(err, "Export failed", "workspace_id", ws.ID)
			s.workspaceError(w, r, err)
			return
		}
		writeArtifact(w, artifact)
	}
}
