package apiserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/mnordvik/statbot/internal/session"
	"github.com/mnordvik/statbot/pkg/api"
)

func newTestServer() (*Server, session.Store) {
	store := session.NewMemoryStore()
	return NewServer("127.0.0.1:0", store, zap.NewNop()), store
}

func doRequest(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer()

	rec := doRequest(t, srv, "GET", "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCreateSession(t *testing.T) {
	srv, store := newTestServer()
	defer store.Close()

	body := api.Session{Spec: api.SessionSpec{Question: "How much is housing?", MaxIterations: 3}}
	rec := doRequest(t, srv, "POST", "/api/v1/sessions", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created api.Session
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if created.Metadata.ID == "" {
		t.Error("expected server-assigned id")
	}
	if created.Status.Phase != api.SessionPending {
		t.Errorf("expected Pending phase, got %s", created.Status.Phase)
	}
	if created.APIVersion != api.APIVersion || created.Kind != api.KindSession {
		t.Errorf("expected type meta filled in, got %s/%s", created.APIVersion, created.Kind)
	}

	stored, err := store.Get(created.Metadata.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Spec.MaxIterations != 3 {
		t.Errorf("expected maxIterations persisted, got %d", stored.Spec.MaxIterations)
	}
}

func TestCreateSessionIgnoresClientStatus(t *testing.T) {
	srv, store := newTestServer()
	defer store.Close()

	body := api.Session{
		Spec:   api.SessionSpec{Question: "q"},
		Status: api.SessionStatus{Phase: api.SessionCompleted, Answer: "forged"},
	}
	rec := doRequest(t, srv, "POST", "/api/v1/sessions", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var created api.Session
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if created.Status.Phase != api.SessionPending || created.Status.Answer != "" {
		t.Errorf("expected status reset to Pending, got %+v", created.Status)
	}
}

func TestCreateSessionMissingQuestion(t *testing.T) {
	srv, _ := newTestServer()

	rec := doRequest(t, srv, "POST", "/api/v1/sessions", api.Session{Spec: api.SessionSpec{Question: "   "}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	srv, _ := newTestServer()

	rec := doRequest(t, srv, "GET", "/api/v1/sessions/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListSessionsPhaseFilter(t *testing.T) {
	srv, store := newTestServer()
	defer store.Close()

	for _, q := range []string{"first", "second"} {
		rec := doRequest(t, srv, "POST", "/api/v1/sessions", api.Session{Spec: api.SessionSpec{Question: q}})
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
	}

	// Move one session to a terminal phase directly through the store.
	sessions, err := store.List()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sessions[0].Status.Phase = api.SessionCompleted
	if err := store.Update(sessions[0]); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := doRequest(t, srv, "GET", "/api/v1/sessions?phase=pending", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var listed []*api.Session
	if err := json.NewDecoder(rec.Body).Decode(&listed); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 pending session, got %d", len(listed))
	}
	if listed[0].Status.Phase != api.SessionPending {
		t.Errorf("expected Pending, got %s", listed[0].Status.Phase)
	}
}

func TestListSessionsEmpty(t *testing.T) {
	srv, _ := newTestServer()

	rec := doRequest(t, srv, "GET", "/api/v1/sessions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	// Must be an empty JSON array, not null.
	if got := bytes.TrimSpace(rec.Body.Bytes()); string(got) != "[]" {
		t.Errorf("expected empty array, got %s", got)
	}
}

func TestDeleteSession(t *testing.T) {
	srv, _ := newTestServer()

	rec := doRequest(t, srv, "POST", "/api/v1/sessions", api.Session{Spec: api.SessionSpec{Question: "q"}})
	var created api.Session
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decoding response: %v", err)
	}

	rec = doRequest(t, srv, "DELETE", "/api/v1/sessions/"+created.Metadata.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec = doRequest(t, srv, "DELETE", "/api/v1/sessions/"+created.Metadata.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rec.Code)
	}
}

func TestListCategories(t *testing.T) {
	srv, _ := newTestServer()

	rec := doRequest(t, srv, "GET", "/api/v1/categories", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var categories []api.Category
	if err := json.NewDecoder(rec.Body).Decode(&categories); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(categories) == 0 {
		t.Fatal("expected categories listed")
	}

	found := false
	for _, c := range categories {
		if c.Name == "housing" && c.Code == "04" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected housing -> 04 in %+v", categories)
	}
}
