package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/mnordvik/statbot/pkg/api"
)

// newTestSession creates a pending session for testing.
func newTestSession(id, question string) *api.Session {
	return &api.Session{
		APIVersion: api.APIVersion,
		Kind:       api.KindSession,
		Metadata: api.ObjectMeta{
			ID:        id,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
		Spec: api.SessionSpec{
			Question:      question,
			MaxIterations: 5,
		},
		Status: api.SessionStatus{Phase: api.SessionPending},
	}
}

// storeFixtures runs each test against both implementations.
func storeFixtures(t *testing.T) map[string]Store {
	t.Helper()

	boltStore, err := NewBoltStore(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("opening bolt store: %v", err)
	}

	return map[string]Store{
		"memory": NewMemoryStore(),
		"bolt":   boltStore,
	}
}

func TestCreateAndGet(t *testing.T) {
	for name, s := range storeFixtures(t) {
		t.Run(name, func(t *testing.T) {
			defer s.Close()

			sess := newTestSession("s1", "How much is housing?")
			if err := s.Create(sess); err != nil {
				t.Fatalf("unexpected error on Create: %v", err)
			}

			got, err := s.Get("s1")
			if err != nil {
				t.Fatalf("unexpected error on Get: %v", err)
			}
			if got.Spec.Question != "How much is housing?" {
				t.Errorf("expected question round-trip, got %q", got.Spec.Question)
			}
			if got.Status.Phase != api.SessionPending {
				t.Errorf("expected Pending phase, got %s", got.Status.Phase)
			}
		})
	}
}

func TestCreateDuplicate(t *testing.T) {
	for name, s := range storeFixtures(t) {
		t.Run(name, func(t *testing.T) {
			defer s.Close()

			sess := newTestSession("dup", "q")
			if err := s.Create(sess); err != nil {
				t.Fatalf("unexpected error on first Create: %v", err)
			}
			if err := s.Create(sess); err != ErrAlreadyExists {
				t.Fatalf("expected ErrAlreadyExists, got %v", err)
			}
		})
	}
}

func TestGetNotFound(t *testing.T) {
	for name, s := range storeFixtures(t) {
		t.Run(name, func(t *testing.T) {
			defer s.Close()

			if _, err := s.Get("nonexistent"); err != ErrNotFound {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestUpdate(t *testing.T) {
	for name, s := range storeFixtures(t) {
		t.Run(name, func(t *testing.T) {
			defer s.Close()

			sess := newTestSession("u1", "q")
			if err := s.Create(sess); err != nil {
				t.Fatalf("unexpected error on Create: %v", err)
			}

			sess.Status.Phase = api.SessionCompleted
			sess.Status.Answer = "11,332 NOK per month"
			sess.Status.Iterations = 2
			if err := s.Update(sess); err != nil {
				t.Fatalf("unexpected error on Update: %v", err)
			}

			got, err := s.Get("u1")
			if err != nil {
				t.Fatalf("unexpected error on Get: %v", err)
			}
			if got.Status.Phase != api.SessionCompleted {
				t.Errorf("expected Completed after update, got %s", got.Status.Phase)
			}
			if got.Status.Answer != "11,332 NOK per month" {
				t.Errorf("expected answer after update, got %q", got.Status.Answer)
			}
		})
	}
}

func TestUpdateNotFound(t *testing.T) {
	for name, s := range storeFixtures(t) {
		t.Run(name, func(t *testing.T) {
			defer s.Close()

			if err := s.Update(newTestSession("ghost", "q")); err != ErrNotFound {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	for name, s := range storeFixtures(t) {
		t.Run(name, func(t *testing.T) {
			defer s.Close()

			if err := s.Create(newTestSession("d1", "q")); err != nil {
				t.Fatalf("unexpected error on Create: %v", err)
			}
			if err := s.Delete("d1"); err != nil {
				t.Fatalf("unexpected error on Delete: %v", err)
			}
			if _, err := s.Get("d1"); err != ErrNotFound {
				t.Fatalf("expected ErrNotFound after Delete, got %v", err)
			}
			if err := s.Delete("d1"); err != ErrNotFound {
				t.Fatalf("expected ErrNotFound on second Delete, got %v", err)
			}
		})
	}
}

func TestListNewestFirst(t *testing.T) {
	for name, s := range storeFixtures(t) {
		t.Run(name, func(t *testing.T) {
			defer s.Close()

			old := newTestSession("old", "q1")
			old.Metadata.CreatedAt = time.Now().Add(-time.Hour)
			recent := newTestSession("recent", "q2")

			if err := s.Create(old); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := s.Create(recent); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			sessions, err := s.List()
			if err != nil {
				t.Fatalf("unexpected error on List: %v", err)
			}
			if len(sessions) != 2 {
				t.Fatalf("expected 2 sessions, got %d", len(sessions))
			}
			if sessions[0].Metadata.ID != "recent" || sessions[1].Metadata.ID != "old" {
				t.Errorf("expected newest first, got %s then %s",
					sessions[0].Metadata.ID, sessions[1].Metadata.ID)
			}
		})
	}
}

func TestWatch(t *testing.T) {
	for name, s := range storeFixtures(t) {
		t.Run(name, func(t *testing.T) {
			defer s.Close()

			events, cancel := s.Watch()
			defer cancel()

			sess := newTestSession("w1", "q")
			if err := s.Create(sess); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			sess.Status.Phase = api.SessionRunning
			if err := s.Update(sess); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := s.Delete("w1"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			want := []api.EventType{api.EventAdded, api.EventModified, api.EventDeleted}
			for _, expected := range want {
				select {
				case evt := <-events:
					if evt.Type != expected {
						t.Errorf("expected event %s, got %s", expected, evt.Type)
					}
					if evt.Key != Key("w1") {
						t.Errorf("expected key %s, got %s", Key("w1"), evt.Key)
					}
				case <-time.After(time.Second):
					t.Fatalf("timed out waiting for %s event", expected)
				}
			}
		})
	}
}

func TestWatchCancel(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	events, cancel := s.Watch()
	cancel()

	if _, ok := <-events; ok {
		t.Error("expected channel closed after cancel")
	}

	// Mutations after cancel must not panic.
	if err := s.Create(newTestSession("post-cancel", "q")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBoltPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")

	s, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	if err := s.Create(newTestSession("p1", "persists?")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("closing store: %v", err)
	}

	reopened, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get("p1")
	if err != nil {
		t.Fatalf("unexpected error after reopen: %v", err)
	}
	if got.Spec.Question != "persists?" {
		t.Errorf("expected session to persist, got %q", got.Spec.Question)
	}
}
