package editor

import (
	"regexp"
	"sync"
	"time"

	"resumecraft/internal/document"
	"resumecraft/internal/errors"

	"github.com/google/uuid"
)

// Workspace is a live editor bound to the analysis and template it was
// opened from. AnalysisID is empty for resumes built from scratch.
type Workspace struct {
	ID         string
	AnalysisID string
	TemplateID string
	// Owner is the visitor that opened the workspace. Empty means any
	// caller holding the id may use it.
	Owner   string
	Created time.Time
	Editor  *Editor

	lastUsed time.Time

	mu     sync.Mutex
	accent string
}

// AccentPalette is the set of accent colours offered by the builder.
var AccentPalette = []string{"#239ce2", "#48bb78", "#0bc5ea", "#a0aec0", "#ed8936"}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// AccessibleBy reports whether visitor may use the workspace.
func (w *Workspace) AccessibleBy(visitor string) bool {
	return w.Owner == "" || w.Owner == visitor
}

// Accent returns the accent colour override, or "" for the template's own.
func (w *Workspace) Accent() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.accent
}

// SetAccent overrides the template accent with a #rrggbb colour. An empty
// color restores the template's own.
func (w *Workspace) SetAccent(color string) error {
	if color != "" && !hexColor.MatchString(color) {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "accent must be a #rrggbb colour", nil).
			WithContext("color", color)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.accent = color
	return nil
}

// Registry keeps live workspaces keyed by a random id and evicts the ones
// idle for longer than the configured TTL.
type Registry struct {
	mu      sync.Mutex
	items   map[string]*Workspace
	ttl     time.Duration
	max     int
	opts    []Option
	now     func() time.Time
	done    chan struct{}
	stopped sync.Once
	logger  *errors.Logger
}

// NewRegistry creates a registry. maxItems caps the number of live workspaces;
// when it is reached the least recently used one is evicted. A zero ttl or
// maxItems disables that bound. opts are applied to every new editor.
func NewRegistry(ttl time.Duration, maxItems int, logger *errors.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = errors.Discard()
	}
	return &Registry{
		items:  make(map[string]*Workspace),
		ttl:    ttl,
		max:    maxItems,
		opts:   opts,
		now:    time.Now,
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Create opens a workspace over doc that any holder of its id may use.
func (r *Registry) Create(analysisID, templateID string, doc *document.Document) *Workspace {
	return r.CreateFor("", analysisID, templateID, doc)
}

// CreateFor opens a workspace over doc that only owner may use.
func (r *Registry) CreateFor(owner, analysisID, templateID string, doc *document.Document) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.max > 0 && len(r.items) >= r.max {
		r.evictOldestLocked()
	}

	now := r.now()
	ws := &Workspace{
		ID:         uuid.NewString(),
		AnalysisID: analysisID,
		TemplateID: templateID,
		Owner:      owner,
		Created:    now,
		Editor:     New(doc, r.opts...),
		lastUsed:   now,
	}
	r.items[ws.ID] = ws
	r.logger.Debug("Workspace created", "workspace_id", ws.ID, "analysis_id", analysisID, "template_id", templateID)
	return ws
}

// Get returns a live workspace and marks it used.
func (r *Registry) Get(id string) (*Workspace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ws, ok := r.items[id]
	if ok && r.expiredLocked(ws) {
		delete(r.items, id)
		ok = false
	}
	if !ok {
		return nil, errors.NewNotFoundError(errors.ErrCodeWorkspaceNotFound, "workspace not found or expired", nil).
			WithContext("workspace_id", id)
	}
	ws.lastUsed = r.now()
	return ws, nil
}

// Delete closes a workspace. Unknown ids are ignored.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
}

// Len reports the number of live workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Sweep removes expired workspaces and returns how many were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, ws := range r.items {
		if r.expiredLocked(ws) {
			delete(r.items, id)
			removed++
		}
	}
	if removed > 0 {
		r.logger.Debug("Workspace sweep completed", "removed", removed, "remaining", len(r.items))
	}
	return removed
}

// Start runs Sweep every interval until Close is called.
func (r *Registry) Start(interval time.Duration) {
	if r.ttl <= 0 || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.Sweep()
			case <-r.done:
				return
			}
		}
	}()
}

// Close stops the sweep loop.
func (r *Registry) Close() {
	r.stopped.Do(func() { close(r.done) })
}

func (r *Registry) expiredLocked(ws *Workspace) bool {
	return r.ttl > 0 && r.now().Sub(ws.lastUsed) > r.ttl
}

func (r *Registry) evictOldestLocked() {
	var oldest *Workspace
	for _, ws := range r.items {
		if oldest == nil || ws.lastUsed.Before(oldest.lastUsed) {
			oldest = ws
		}
	}
	if oldest != nil {
		delete(r.items, oldest.ID)
		r.logger.Debug("Workspace evicted", "workspace_id", oldest.ID)
	}
}
