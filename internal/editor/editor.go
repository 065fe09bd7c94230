package editor

import (
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"resumecraft/internal/document"
	"resumecraft/internal/errors"
)

// Header pseudo-keys address the page header instead of a section.
const (
	HeaderName    = "header.name"
	HeaderContact = "header.contact"
)

// NewSectionContent is the body of a freshly added section.
const NewSectionContent = "Enter your content here"

// SectionKinds are the section flavours offered when adding a section.
var SectionKinds = []string{"text", "experience", "achievements", "hobbies", "certifications", "languages"}

var (
	ErrNothingToUndo   = errors.NewPreconditionError(errors.ErrCodeNothingToUndo, "nothing to undo", nil)
	ErrNotEditing      = errors.NewPreconditionError(errors.ErrCodeInvalidRequest, "no section is being edited", nil)
	ErrSectionNotFound = errors.NewNotFoundError(errors.ErrCodeSectionNotFound, "section not found", nil)
)

// Mode is the editor state.
type Mode string

const (
	Viewing Mode = "viewing"
	Editing Mode = "editing"
)

// State is a point-in-time view of the editor.
type State struct {
	Mode         Mode   `json:"mode"`
	Key          string `json:"key,omitempty"`
	Page         int    `json:"page"`
	Pages        int    `json:"pages"`
	DraftTitle   string `json:"draftTitle,omitempty"`
	DraftContent string `json:"draftContent,omitempty"`
	UndoDepth    int    `json:"undoDepth"`
}

// Option configures an Editor.
type Option func(*Editor)

// WithHistoryDepth bounds the undo stack.
func WithHistoryDepth(depth int) Option {
	return func(e *Editor) { e.history = NewHistory(depth) }
}

// WithClock replaces time.Now, used for generated section keys.
func WithClock(now func() time.Time) Option {
	return func(e *Editor) { e.now = now }
}

// Editor owns one document and its edit session. At most one section or
// header field is in Editing mode at a time. All methods are safe for
// concurrent use.
type Editor struct {
	mu      sync.Mutex
	doc     *document.Document
	page    int
	active  string
	title   string
	content string
	history *History
	now     func() time.Time
}

// New wraps doc. A nil doc starts from document.Default().
func New(doc *document.Document, opts ...Option) *Editor {
	if doc == nil || len(doc.Pages) == 0 {
		doc = document.Default()
	}
	e := &Editor{
		doc:     doc,
		history: NewHistory(DefaultHistoryDepth),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Document returns a copy of the current document.
func (e *Editor) Document() *document.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.Clone()
}

// State reports the current mode, page and draft.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

func (e *Editor) stateLocked() State {
	s := State{
		Mode:      Viewing,
		Page:      e.page,
		Pages:     len(e.doc.Pages),
		UndoDepth: e.history.Len(),
	}
	if e.active != "" {
		s.Mode = Editing
		s.Key = e.active
		s.DraftTitle = e.title
		s.DraftContent = e.content
	}
	return s
}

// Begin enters Editing mode for key on the current page, pre-filling the
// draft. An edit already in progress on another key is discarded.
func (e *Editor) Begin(key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.beginLocked(key)
}

func (e *Editor) beginLocked(key string) error {
	page := e.doc.Pages[e.page]

	switch key {
	case HeaderName:
		header := headerOf(page)
		e.title, e.content = "", header.Name
	case HeaderContact:
		header := headerOf(page)
		e.title, e.content = "", header.Contact+"\n"+header.Link
	default:
		section, ok := page.Section(key)
		if !ok {
			return errors.NewNotFoundError(errors.ErrCodeSectionNotFound,
				fmt.Sprintf("section %q not found", key), nil).
				WithContext("page", e.page)
		}
		e.title, e.content = section.Title, document.SerializeDraft(section)
	}
	e.active = key
	return nil
}

// SetDraft replaces the draft buffers of the active edit.
func (e *Editor) SetDraft(title, content string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.setDraftLocked(title, content)
}

func (e *Editor) setDraftLocked(title, content string) error {
	if e.active == "" {
		return ErrNotEditing
	}
	e.title, e.content = title, content
	return nil
}

// Draft is a replacement edit buffer for Commit and FormatDraft.
type Draft struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// prepareLocked makes key the active edit unless it already is and installs
// draft. An empty key keeps whatever is being edited; a nil draft keeps the
// current buffers.
func (e *Editor) prepareLocked(key string, draft *Draft) error {
	if key != "" && key != e.active {
		if err := e.beginLocked(key); err != nil {
			return err
		}
	}
	if draft == nil {
		if e.active == "" {
			return ErrNotEditing
		}
		return nil
	}
	return e.setDraftLocked(draft.Title, draft.Content)
}

// Commit opens key, installs draft and saves as one step, so concurrent
// callers cannot interleave between the draft and the save. It returns the
// key that was committed.
func (e *Editor) Commit(key string, draft *Draft) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.prepareLocked(key, draft); err != nil {
		return "", err
	}
	committed := e.active
	return committed, e.saveLocked()
}

// FormatDraft opens key, installs draft and applies f to the selection as
// one step. The edit stays open. It returns the key and the caret position.
func (e *Editor) FormatDraft(key string, draft *Draft, start, end int, f Format) (string, int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.prepareLocked(key, draft); err != nil {
		return "", 0, err
	}
	caret, err := e.formatLocked(start, end, f)
	return e.active, caret, err
}

// Format applies a toolbar action to the draft content and returns the
// caret position after the inserted markup.
func (e *Editor) Format(start, end int, f Format) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.formatLocked(start, end, f)
}

func (e *Editor) formatLocked(start, end int, f Format) (int, error) {
	if e.active == "" {
		return 0, ErrNotEditing
	}
	content, caret, err := ApplyFormatting(e.content, start, end, f)
	if err != nil {
		return 0, errors.NewValidationError(errors.ErrCodeInvalidRequest, err.Error(), err)
	}
	e.content = content
	return caret, nil
}

// Save snapshots the document, commits the draft into the active section
// keeping its type, and returns to Viewing mode.
func (e *Editor) Save() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saveLocked()
}

func (e *Editor) saveLocked() error {
	if e.active == "" {
		return ErrNotEditing
	}

	page := e.doc.Pages[e.page]
	var section *document.Section
	if !isHeaderKey(e.active) {
		var ok bool
		if section, ok = page.Section(e.active); !ok {
			e.reset()
			return ErrSectionNotFound
		}
	}

	if err := e.snapshotLocked(); err != nil {
		return err
	}

	switch e.active {
	case HeaderName:
		ensureHeader(page).Name = e.content
	case HeaderContact:
		header := ensureHeader(page)
		contact, link, _ := strings.Cut(e.content, "\n")
		header.Contact = strings.TrimSpace(contact)
		header.Link = strings.TrimSpace(firstLine(link))
	default:
		document.ApplyDraft(section, e.content)
		if title := strings.TrimSpace(e.title); title != "" {
			section.Title = title
		}
	}
	e.reset()
	return nil
}

// Cancel discards the draft without taking a snapshot.
func (e *Editor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset()
}

// AddSection appends a text section titled after kind to the current page
// and starts editing it. It returns the generated key.
func (e *Editor) AddSection(kind string) (string, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" {
		kind = SectionKinds[0]
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.snapshotLocked(); err != nil {
		return "", err
	}
	e.reset()

	page := e.doc.Pages[e.page]
	key := page.UniqueKey(fmt.Sprintf("custom-%d", e.now().UnixMilli()))
	section := &document.Section{
		Key:   key,
		Title: capitalize(kind),
		Type:  document.TypeText,
		Text:  NewSectionContent,
	}
	if err := page.Add(section); err != nil {
		return "", errors.NewInternalError(errors.ErrCodeInvalidRequest, "failed to add section", err)
	}
	return key, e.beginLocked(key)
}

// RemoveSection snapshots the document and deletes key from the current
// page. Removing the section being edited cancels the edit.
func (e *Editor) RemoveSection(key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	page := e.doc.Pages[e.page]
	if !page.Has(key) {
		return errors.NewNotFoundError(errors.ErrCodeSectionNotFound,
			fmt.Sprintf("section %q not found", key), nil)
	}
	if err := e.snapshotLocked(); err != nil {
		return err
	}
	page.Remove(key)
	if e.active == key {
		e.reset()
	}
	return nil
}

// AddPage snapshots the document, appends an empty page and selects it.
func (e *Editor) AddPage() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.snapshotLocked(); err != nil {
		return e.page, err
	}
	e.reset()
	e.doc.Pages = append(e.doc.Pages, document.NewPage(&document.Header{}))
	e.page = len(e.doc.Pages) - 1
	return e.page, nil
}

// SelectPage switches the current page, cancelling any edit in progress.
func (e *Editor) SelectPage(i int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.doc.Page(i); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, err.Error(), err)
	}
	e.reset()
	e.page = i
	return nil
}

// Undo restores the most recent snapshot. Any edit in progress is dropped.
func (e *Editor) Undo() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot, ok := e.history.Pop()
	if !ok {
		return ErrNothingToUndo
	}
	doc, err := document.Restore(snapshot)
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeMalformedPayload, "failed to restore snapshot", err)
	}
	e.doc = doc
	e.reset()
	if e.page >= len(doc.Pages) {
		e.page = len(doc.Pages) - 1
	}
	return nil
}

func (e *Editor) snapshotLocked() error {
	snapshot, err := e.doc.Snapshot()
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeMalformedPayload, "failed to snapshot document", err)
	}
	e.history.Push(snapshot)
	return nil
}

func (e *Editor) reset() {
	e.active, e.title, e.content = "", "", ""
}

func isHeaderKey(key string) bool {
	return key == HeaderName || key == HeaderContact
}

func headerOf(page *document.Page) document.Header {
	if page.Header == nil {
		return document.Header{}
	}
	return *page.Header
}

func ensureHeader(page *document.Page) *document.Header {
	if page.Header == nil {
		page.Header = &document.Header{}
	}
	return page.Header
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
