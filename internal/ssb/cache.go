package ssb

import (
	"sync"

	bolt "go.etcd.io/bbolt"
)

// Cache stores raw Statbank responses keyed by query hash. The survey data
// is revised rarely, so cached responses are served indefinitely.
type Cache interface {
	Get(key string) ([]byte, bool)
	Put(key string, data []byte) error
	Close() error
}

var cacheBucket = []byte("ssb_responses")

// BoltCache persists responses to a BoltDB file on disk.
type BoltCache struct {
	db *bolt.DB
}

// NewBoltCache opens (or creates) the cache database at path.
func NewBoltCache(path string) (*BoltCache, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(cacheBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &BoltCache{db: db}, nil
}

func (c *BoltCache) Get(key string) ([]byte, bool) {
	var data []byte
	c.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(cacheBucket).Get([]byte(key))
		if raw != nil {
			data = make([]byte, len(raw))
			copy(data, raw)
		}
		return nil
	})
	return data, data != nil
}

func (c *BoltCache) Put(key string, data []byte) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(cacheBucket).Put([]byte(key), data)
	})
}

func (c *BoltCache) Close() error {
	return c.db.Close()
}

// MemoryCache is a thread-safe in-memory Cache for tests and one-shot runs
// where persisting responses is not worth a database file.
type MemoryCache struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryCache creates a ready-to-use in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: make(map[string][]byte)}
}

func (c *MemoryCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.data[key]
	return data, ok
}

func (c *MemoryCache) Put(key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
	return nil
}

func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	return nil
}
