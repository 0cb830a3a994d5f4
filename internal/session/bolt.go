package session

import (
	"encoding/json"
	"sync"

	bolt "go.etcd.io/bbolt"

	"github.com/mnordvik/statbot/pkg/api"
)

var sessionBucket = []byte("sessions")

// BoltStore persists sessions to a BoltDB file on disk.
type BoltStore struct {
	db       *bolt.DB
	mu       sync.RWMutex // protects watchers slice only
	watchers []*watcher   // in-memory watchers; same pattern as MemoryStore
}

// NewBoltStore opens (or creates) a BoltDB database at path.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}

	// Ensure the bucket exists.
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (b *BoltStore) Create(s *api.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}

	err = b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(sessionBucket)
		if bkt.Get([]byte(s.Metadata.ID)) != nil {
			return ErrAlreadyExists
		}
		return bkt.Put([]byte(s.Metadata.ID), raw)
	})
	if err != nil {
		return err
	}

	b.notify(api.WatchEvent{
		Type:   api.EventAdded,
		Kind:   api.KindSession,
		Key:    Key(s.Metadata.ID),
		Object: s,
	})
	return nil
}

func (b *BoltStore) Get(id string) (*api.Session, error) {
	var s api.Session
	err := b.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(sessionBucket).Get([]byte(id))
		if raw == nil {
			return ErrNotFound
		}
		return json.Unmarshal(raw, &s)
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (b *BoltStore) Update(s *api.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}

	err = b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(sessionBucket)
		if bkt.Get([]byte(s.Metadata.ID)) == nil {
			return ErrNotFound
		}
		return bkt.Put([]byte(s.Metadata.ID), raw)
	})
	if err != nil {
		return err
	}

	b.notify(api.WatchEvent{
		Type:   api.EventModified,
		Kind:   api.KindSession,
		Key:    Key(s.Metadata.ID),
		Object: s,
	})
	return nil
}

func (b *BoltStore) Delete(id string) error {
	var s api.Session

	err := b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(sessionBucket)
		raw := bkt.Get([]byte(id))
		if raw == nil {
			return ErrNotFound
		}
		// Capture the session before deletion so watchers receive it.
		_ = json.Unmarshal(raw, &s)
		return bkt.Delete([]byte(id))
	})
	if err != nil {
		return err
	}

	b.notify(api.WatchEvent{
		Type:   api.EventDeleted,
		Kind:   api.KindSession,
		Key:    Key(id),
		Object: &s,
	})
	return nil
}

func (b *BoltStore) List() ([]*api.Session, error) {
	var sessions []*api.Session

	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionBucket).ForEach(func(k, v []byte) error {
			var s api.Session
			if err := json.Unmarshal(v, &s); err != nil {
				return err
			}
			sessions = append(sessions, &s)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortNewestFirst(sessions)
	return sessions, nil
}

func (b *BoltStore) Watch() (<-chan api.WatchEvent, func()) {
	w := &watcher{ch: make(chan api.WatchEvent, 64)}

	b.mu.Lock()
	b.watchers = append(b.watchers, w)
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, existing := range b.watchers {
			if existing == w {
				b.watchers = append(b.watchers[:i], b.watchers[i+1:]...)
				close(w.ch)
				return
			}
		}
	}

	return w.ch, cancel
}

func (b *BoltStore) Close() error {
	b.mu.Lock()
	for _, w := range b.watchers {
		close(w.ch)
	}
	b.watchers = nil
	b.mu.Unlock()

	return b.db.Close()
}

func (b *BoltStore) notify(evt api.WatchEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, w := range b.watchers {
		select {
		case w.ch <- evt:
		default:
			// Drop event if the watcher is not consuming fast enough.
		}
	}
}
