// Package session keeps per-visitor state (auth token, last analysis) and
// lets views react when it changes.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"resumecraft/internal/config"
	"resumecraft/internal/errors"
)

// Well-known keys.
const (
	KeyAuthToken  = "authToken"
	KeyAnalysisID = "analysisId"
)

// DefaultChannel carries change notifications between processes.
const DefaultChannel = "resumecraft:session"

// Change describes one write to a store.
type Change struct {
	Key     string `json:"key"`
	Value   string `json:"value,omitempty"`
	Deleted bool   `json:"deleted,omitempty"`
}

// Store is a string key/value store with change subscription.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// Subscribe calls fn for every change until the returned function is
	// called.
	Subscribe(fn func(Change)) (unsubscribe func())
}

// NewStore builds the store selected by cfg.Session.Backend.
func NewStore(ctx context.Context, cfg *config.Config, logger *errors.Logger) (Store, error) {
	switch strings.ToLower(cfg.Session.Backend) {
	case "", "memory":
		return NewMemoryStore(cfg.Session.TTL), nil
	case "redis":
		s, err := NewRedisStore(ctx, cfg.Redis, cfg.Session, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
		"unknown session backend "+cfg.Session.Backend, nil)
}

// subscribers is a set of change callbacks.
type subscribers struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(Change)
}

func (s *subscribers) add(fn func(Change)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[int]func(Change))
	}
	id := s.next
	s.next++
	s.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.fns, id)
			s.mu.Unlock()
		})
	}
}

func (s *subscribers) notify(c Change) {
	s.mu.Lock()
	fns := make([]func(Change), 0, len(s.fns))
	for _, fn := range s.fns {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(c)
	}
}

type entry struct {
	value   string
	expires time.Time
}

// MemoryStore keeps values in process. A zero TTL keeps them forever.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]entry
	ttl    time.Duration
	now    func() time.Time
	subs   subscribers
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{values: make(map[string]entry), ttl: ttl, now: time.Now}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	e, ok := m.values[key]
	m.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	if !e.expires.IsZero() && m.now().After(e.expires) {
		m.mu.Lock()
		if cur, still := m.values[key]; still && cur == e {
			delete(m.values, key)
		}
		m.mu.Unlock()
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	e := entry{value: value}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.mu.Lock()
	m.values[key] = e
	m.mu.Unlock()
	m.subs.notify(Change{Key: key, Value: value})
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	_, existed := m.values[key]
	delete(m.values, key)
	m.mu.Unlock()
	if existed {
		m.subs.notify(Change{Key: key, Deleted: true})
	}
	return nil
}

func (m *MemoryStore) Subscribe(fn func(Change)) func() { return m.subs.add(fn) }

// Len reports the number of stored keys, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

// scoped prefixes every key with a visitor id.
type scoped struct {
	store  Store
	prefix string
}

// Scoped returns the view of store that belongs to one visitor.
func Scoped(store Store, sessionID string) Store {
	return &scoped{store: store, prefix: sessionID + ":"}
}

func (s *scoped) Get(ctx context.Context, key string) (string, bool, error) {
	return s.store.Get(ctx, s.prefix+key)
}

func (s *scoped) Set(ctx context.Context, key, value string) error {
	return s.store.Set(ctx, s.prefix+key, value)
}

func (s *scoped) Delete(ctx context.Context, key string) error {
	return s.store.Delete(ctx, s.prefix+key)
}

// Subscribe only reports changes to this visitor's keys, without the prefix.
func (s *scoped) Subscribe(fn func(Change)) func() {
	return s.store.Subscribe(func(c Change) {
		if key, ok := strings.CutPrefix(c.Key, s.prefix); ok {
			c.Key = key
			fn(c)
		}
	})
}
