package session

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/mnordvik/statbot/pkg/api"
)

// watcher is an internal subscription to store mutations.
type watcher struct {
	ch chan api.WatchEvent
}

// MemoryStore is a thread-safe, in-memory Store backed by a simple map.
// Useful for unit tests and short-lived processes.
type MemoryStore struct {
	mu       sync.RWMutex
	data     map[string][]byte // id -> JSON bytes
	watchers []*watcher
}

// NewMemoryStore creates a ready-to-use in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Create(s *api.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.data[s.Metadata.ID]; exists {
		return ErrAlreadyExists
	}
	m.data[s.Metadata.ID] = raw

	m.notify(api.WatchEvent{
		Type:   api.EventAdded,
		Kind:   api.KindSession,
		Key:    Key(s.Metadata.ID),
		Object: s,
	})
	return nil
}

func (m *MemoryStore) Get(id string) (*api.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	raw, ok := m.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	var s api.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *MemoryStore) Update(s *api.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.data[s.Metadata.ID]; !exists {
		return ErrNotFound
	}
	m.data[s.Metadata.ID] = raw

	m.notify(api.WatchEvent{
		Type:   api.EventModified,
		Kind:   api.KindSession,
		Key:    Key(s.Metadata.ID),
		Object: s,
	})
	return nil
}

func (m *MemoryStore) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, exists := m.data[id]
	if !exists {
		return ErrNotFound
	}
	delete(m.data, id)

	// Deserialise the old value so watchers receive the deleted session.
	var s api.Session
	_ = json.Unmarshal(raw, &s)

	m.notify(api.WatchEvent{
		Type:   api.EventDeleted,
		Kind:   api.KindSession,
		Key:    Key(id),
		Object: &s,
	})
	return nil
}

func (m *MemoryStore) List() ([]*api.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := make([]*api.Session, 0, len(m.data))
	for _, raw := range m.data {
		var s api.Session
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		sessions = append(sessions, &s)
	}
	sortNewestFirst(sessions)
	return sessions, nil
}

func (m *MemoryStore) Watch() (<-chan api.WatchEvent, func()) {
	w := &watcher{ch: make(chan api.WatchEvent, 64)}

	m.mu.Lock()
	m.watchers = append(m.watchers, w)
	m.mu.Unlock()

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, existing := range m.watchers {
			if existing == w {
				m.watchers = append(m.watchers[:i], m.watchers[i+1:]...)
				close(w.ch)
				return
			}
		}
	}

	return w.ch, cancel
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, w := range m.watchers {
		close(w.ch)
	}
	m.watchers = nil
	m.data = make(map[string][]byte)
	return nil
}

// notify sends the event to every watcher. Must be called while m.mu is held.
func (m *MemoryStore) notify(evt api.WatchEvent) {
	for _, w := range m.watchers {
		select {
		case w.ch <- evt:
		default:
			// Drop event if the watcher is not consuming fast enough.
		}
	}
}

// sortNewestFirst orders sessions by creation time descending, breaking ties
// by id for stable output.
func sortNewestFirst(sessions []*api.Session) {
	sort.Slice(sessions, func(i, j int) bool {
		ti, tj := sessions[i].Metadata.CreatedAt, sessions[j].Metadata.CreatedAt
		if ti.Equal(tj) {
			return sessions[i].Metadata.ID < sessions[j].Metadata.ID
		}
		return ti.After(tj)
	})
}
