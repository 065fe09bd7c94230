// Package viewer loads an improved resume for a template page and reports
// it as exactly one of three states: loading, error or document.
package viewer

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"resumecraft/internal/backend"
	"resumecraft/internal/document"
	"resumecraft/internal/errors"
	"resumecraft/internal/templates"

	"golang.org/x/sync/singleflight"
)

// State is the phase of one navigation.
type State string

const (
	StateLoading  State = "loading"
	StateError    State = "error"
	StateDocument State = "document"
)

// User-facing messages.
const (
	MsgInvalidID   = "Invalid or missing analysis ID. Please ensure a valid ID is provided in the URL."
	MsgNotFound    = "Resume not found. The analysis ID may be invalid."
	MsgServer      = "Server error. Please try again later."
	MsgUnreachable = "Could not reach the server."
	MsgMalformed   = "The server sent a response that could not be read."

	HintInvalidID   = "Check the URL or re-analyze your resume."
	HintNotFound    = "The analysis ID may be invalid or the server endpoint is unavailable. Please verify the ID or contact support."
	HintServer      = "If the problem persists, re-analyze your resume."
	HintUnreachable = "Check your connection and try again."
	HintGeneric     = "Check the analysis ID or server status."
)

// ErrInvalidID is reported for empty ids and unfilled route placeholders.
var ErrInvalidID = errors.NewValidationError(errors.ErrCodeInvalidAnalysisID, MsgInvalidID, nil)

// View is what a template page renders.
type View struct {
	State      State                `json:"state"`
	AnalysisID string               `json:"analysisId"`
	TemplateID string               `json:"templateId"`
	Document   *document.Document   `json:"document,omitempty"`
	Descriptor templates.Descriptor `json:"-"`
	Message    string               `json:"message,omitempty"`
	Hint       string               `json:"hint,omitempty"`
	Err        error                `json:"-"`
}

// Fetcher returns the raw improved-resume payload for an analysis.
type Fetcher interface {
	DirectImprove(ctx context.Context, analysisID string) ([]byte, error)
}

// Loader fetches and normalizes documents. Concurrent loads of the same
// analysis share one backend request.
type Loader struct {
	fetcher Fetcher
	group   singleflight.Group
	timeout time.Duration
	logger  *errors.Logger
	onLoad  func(v *View, elapsed time.Duration)
}

// Option configures a Loader.
type Option func(*Loader)

// WithTimeout bounds a single fetch. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(l *Loader) { l.timeout = d }
}

// WithObserver is called once per finished load.
func WithObserver(fn func(v *View, elapsed time.Duration)) Option {
	return func(l *Loader) { l.onLoad = fn }
}

func NewLoader(f Fetcher, logger *errors.Logger, opts ...Option) *Loader {
	if logger == nil {
		logger = errors.Discard()
	}
	l := &Loader{fetcher: f, logger: logger}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ValidID reports whether id can be sent to the backend.
func ValidID(id string) bool {
	id = strings.TrimSpace(id)
	switch {
	case id == "", strings.HasPrefix(id, ":"):
		return false
	case id == "undefined", id == "null":
		return false
	}
	return true
}

// Loading returns the initial view of a navigation.
func Loading(analysisID string, desc templates.Descriptor) *View {
	return &View{State: StateLoading, AnalysisID: analysisID, TemplateID: desc.ID, Descriptor: desc}
}

// Load fetches the analysis and returns a finished view, never a loading
// one.
func (l *Loader) Load(ctx context.Context, analysisID string, desc templates.Descriptor) *View {
	start := time.Now()
	v := l.load(ctx, analysisID, desc)
	if l.onLoad != nil {
		l.onLoad(v, time.Since(start))
	}
	return v
}

func (l *Loader) load(ctx context.Context, analysisID string, desc templates.Descriptor) *View {
	v := Loading(analysisID, desc)
	if !ValidID(analysisID) {
		return v.fail(ErrInvalidID, MsgInvalidID, HintInvalidID)
	}

	id := strings.TrimSpace(analysisID)
	ch := l.group.DoChan(id, func() (any, error) {
		fetchCtx := context.WithoutCancel(ctx)
		if l.timeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(fetchCtx, l.timeout)
			defer cancel()
		}
		return l.fetcher.DirectImprove(fetchCtx, id)
	})

	select {
	case <-ctx.Done():
		return v.fail(ctx.Err(), MsgUnreachable, HintUnreachable)
	case res := <-ch:
		if res.Shared {
			l.logger.Debug("Shared in-flight fetch", "analysis_id", id)
		}
		if res.Err != nil {
			l.logger.LogError(res.Err, "Failed to fetch improved resume", "analysis_id", id)
			msg, hint := describe(res.Err)
			return v.fail(res.Err, msg, hint)
		}
		body, _ := res.Val.([]byte)
		v.State = StateDocument
		v.Document = document.NormalizeJSON(body, desc.Options())
		l.logger.Debug("Improved resume loaded", "analysis_id", id, "template", desc.ID,
			"pages", len(v.Document.Pages))
		return v
	}
}

func (v *View) fail(err error, msg, hint string) *View {
	v.State = StateError
	v.Err = err
	v.Message = msg
	v.Hint = hint
	return v
}

// describe maps a fetch error to a message and hint. 404 and 5xx get
// their own wording.
func describe(err error) (string, string) {
	switch {
	case stderrors.Is(err, backend.ErrNotFound):
		return MsgNotFound, HintNotFound
	case stderrors.Is(err, backend.ErrServer):
		return MsgServer, HintServer
	case stderrors.Is(err, backend.ErrTransport):
		return MsgUnreachable, HintUnreachable
	case stderrors.Is(err, backend.ErrDecode):
		return MsgMalformed, HintGeneric
	case stderrors.Is(err, ErrInvalidID), errors.IsType(err, errors.ErrorTypeValidation):
		return MsgInvalidID, HintInvalidID
	}
	return fmt.Sprintf("Failed to fetch improved resume: %v.", err), HintGeneric
}

// Navigation tracks one page visit. Its view moves from loading to error or
// document exactly once; after Detach no further update is applied.
type Navigation struct {
	mu       sync.Mutex
	view     *View
	done     chan struct{}
	finished bool
	detached bool
	cancel   context.CancelFunc
}

// Start begins loading in the background and returns immediately.
func (l *Loader) Start(ctx context.Context, analysisID string, desc templates.Descriptor) *Navigation {
	ctx, cancel := context.WithCancel(ctx)
	n := &Navigation{view: Loading(analysisID, desc), done: make(chan struct{}), cancel: cancel}
	go func() {
		defer cancel()
		n.settle(l.Load(ctx, analysisID, desc))
	}()
	return n
}

func (n *Navigation) settle(v *View) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.finished {
		return
	}
	n.finished = true
	if !n.detached {
		n.view = v
	}
	close(n.done)
}

// View returns a copy of the current view.
func (n *Navigation) View() View {
	n.mu.Lock()
	defer n.mu.Unlock()
	return *n.view
}

// Done is closed when the load has finished.
func (n *Navigation) Done() <-chan struct{} { return n.done }

// Wait blocks until the load finishes or ctx ends and returns the view at
// that point.
func (n *Navigation) Wait(ctx context.Context) View {
	select {
	case <-n.done:
	case <-ctx.Done():
	}
	return n.View()
}

// Detach stops the navigation from applying its result, for a view that
// has been left.
func (n *Navigation) Detach() {
	n.mu.Lock()
	n.detached = true
	n.mu.Unlock()
	n.cancel()
}
