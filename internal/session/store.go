// Package session provides persistence for question-answering sessions.
//
// Keys follow the convention "/Session/{id}". The store emits watch events
// on every mutation; the runner consumes them to pick up pending sessions
// without polling.
package session

import (
	"fmt"

	"github.com/mnordvik/statbot/pkg/api"
)

// Store is the persistence interface for sessions.
type Store interface {
	// Create stores a new session. Returns ErrAlreadyExists if the id is taken.
	Create(s *api.Session) error

	// Get retrieves a session by id. Returns ErrNotFound if it does not exist.
	Get(id string) (*api.Session, error)

	// Update replaces a stored session. Returns ErrNotFound if it does not exist.
	Update(s *api.Session) error

	// Delete removes a session. Returns ErrNotFound if it does not exist.
	Delete(id string) error

	// List returns all sessions, newest first.
	List() ([]*api.Session, error)

	// Watch returns a channel emitting an event for every session mutation.
	// The returned cancel function removes the watcher and closes the channel.
	Watch() (<-chan api.WatchEvent, func())

	// Close releases any resources held by the store.
	Close() error
}

// Common sentinel errors.
var (
	ErrAlreadyExists = fmt.Errorf("session already exists")
	ErrNotFound      = fmt.Errorf("session not found")
)

// Key builds the canonical store key for a session id.
//
//	Key("3f2a...") => "/Session/3f2a..."
func Key(id string) string {
	return fmt.Sprintf("/%s/%s", api.KindSession, id)
}
