package templates

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"resumecraft/internal/errors"

	"gopkg.in/yaml.v3"
)

// Registry serves template descriptors: the built-ins, optionally overridden
// or extended by descriptor files from a directory.
type Registry struct {
	mu          sync.RWMutex
	descriptors map[string]Descriptor
	defaultID   string
	dir         string
	logger      *errors.Logger
}

// NewRegistry creates a registry holding the built-ins. defaultID selects
// the descriptor returned for an empty id.
func NewRegistry(defaultID string, logger *errors.Logger) *Registry {
	if logger == nil {
		logger = errors.Discard()
	}
	if defaultID == "" {
		defaultID = "1"
	}
	r := &Registry{defaultID: defaultID, logger: logger}
	r.descriptors = builtinMap()
	return r
}

func builtinMap() map[string]Descriptor {
	m := make(map[string]Descriptor)
	for _, d := range Builtins() {
		m[d.ID] = d
	}
	return m
}

// Get returns the descriptor for id. An empty id yields the default.
func (r *Registry) Get(id string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if id == "" {
		id = r.defaultID
	}
	d, ok := r.descriptors[id]
	if !ok {
		return Descriptor{}, errors.NewNotFoundError(errors.ErrCodeTemplateNotFound,
			fmt.Sprintf("template %q not found", id), nil).
			WithContext("template_id", id)
	}
	return d.clone(), nil
}

// Default returns the default descriptor.
func (r *Registry) Default() Descriptor {
	d, err := r.Get("")
	if err != nil {
		return Builtins()[0]
	}
	return d
}

// List returns every descriptor ordered by ID.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		out = append(out, d.clone())
	}
	slices.SortFunc(out, func(a, b Descriptor) int { return strings.Compare(a.ID, b.ID) })
	return out
}

// LoadDir reads every *.yaml, *.yml and *.json file in dir. A file whose id
// matches a built-in overrides only the fields it sets. The loaded set
// replaces any previous overrides atomically; on error nothing changes.
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("failed to read template directory %s", dir), err)
	}

	next := builtinMap()
	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !isDescriptorFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		d, err := readDescriptor(path, next)
		if err != nil {
			return err
		}
		next[d.ID] = d
		loaded++
	}

	r.mu.Lock()
	r.descriptors = next
	r.dir = dir
	r.mu.Unlock()

	r.logger.Info("Template descriptors loaded", "directory", dir, "files", loaded, "templates", len(next))
	return nil
}

// Reload re-reads the directory given to the last successful LoadDir.
func (r *Registry) Reload() {
	r.mu.RLock()
	dir := r.dir
	r.mu.RUnlock()
	if dir == "" {
		return
	}
	if err := r.LoadDir(dir); err != nil {
		r.logger.LogError(err, "Failed to reload template descriptors, keeping previous set", "directory", dir)
	}
}

func isDescriptorFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// readDescriptor decodes path on top of the descriptor it overrides, if any.
func readDescriptor(path string, known map[string]Descriptor) (Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Descriptor{}, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("failed to read %s", path), err)
	}

	var head struct {
		ID string `yaml:"id" json:"id"`
	}
	isJSON := strings.EqualFold(filepath.Ext(path), ".json")
	if err := unmarshal(data, isJSON, &head); err != nil {
		return Descriptor{}, invalidFile(path, err)
	}
	if head.ID == "" {
		head.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	d, ok := known[head.ID]
	if ok {
		d = d.clone()
	} else {
		d = Descriptor{ID: head.ID, Layout: LayoutSingle}
	}
	if err := unmarshal(data, isJSON, &d); err != nil {
		return Descriptor{}, invalidFile(path, err)
	}
	d.ID = head.ID
	if err := d.Validate(); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

func unmarshal(data []byte, isJSON bool, v any) error {
	if isJSON {
		dec := json.NewDecoder(bytes.NewReader(data))
		return dec.Decode(v)
	}
	return yaml.Unmarshal(data, v)
}

func invalidFile(path string, err error) error {
	return errors.NewValidationError(errors.ErrCodeInvalidFormat,
		fmt.Sprintf("failed to parse template file %s", path), err)
}
