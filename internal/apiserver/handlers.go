package apiserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/mnordvik/statbot/internal/session"
	"github.com/mnordvik/statbot/internal/ssb"
	"github.com/mnordvik/statbot/pkg/api"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// writeJSON serialises data as JSON and writes it to the response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// writeError writes a JSON error envelope to the response.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// ---------------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------------

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ---------------------------------------------------------------------------
// Sessions
// ---------------------------------------------------------------------------

// handleCreateSession accepts a session spec and stores it Pending. The
// runner picks it up from there; the response carries the assigned id so the
// caller can poll for the outcome.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var sess api.Session
	if err := json.NewDecoder(r.Body).Decode(&sess); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess.Spec.Question = strings.TrimSpace(sess.Spec.Question)
	if sess.Spec.Question == "" {
		s.writeError(w, http.StatusBadRequest, "spec.question is required")
		return
	}
	if sess.Spec.MaxIterations < 0 {
		s.writeError(w, http.StatusBadRequest, "spec.maxIterations must be >= 0")
		return
	}

	sess.APIVersion = api.APIVersion
	sess.Kind = api.KindSession
	sess.Metadata.ID = uuid.New().String()
	now := time.Now()
	sess.Metadata.CreatedAt = now
	sess.Metadata.UpdatedAt = now
	sess.Status = api.SessionStatus{Phase: api.SessionPending}

	if err := s.store.Create(&sess); err != nil {
		if err == session.ErrAlreadyExists {
			s.writeError(w, http.StatusConflict, "session already exists")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.logger.Info("session accepted",
		zap.String("session", sess.Metadata.ID),
		zap.String("question", sess.Spec.Question),
	)

	s.writeJSON(w, http.StatusCreated, &sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	sess, err := s.store.Get(id)
	if err != nil {
		if err == session.ErrNotFound {
			s.writeError(w, http.StatusNotFound, "session not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, sess)
}

// handleListSessions returns sessions newest first, optionally filtered by
// ?phase=Pending|Running|Completed|Exhausted|Failed.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.List()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if phase := r.URL.Query().Get("phase"); phase != "" {
		filtered := make([]*api.Session, 0, len(sessions))
		for _, sess := range sessions {
			if strings.EqualFold(string(sess.Status.Phase), phase) {
				filtered = append(filtered, sess)
			}
		}
		sessions = filtered
	}

	if sessions == nil {
		sessions = []*api.Session{}
	}
	s.writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.store.Delete(id); err != nil {
		if err == session.ErrNotFound {
			s.writeError(w, http.StatusNotFound, "session not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Categories
// ---------------------------------------------------------------------------

// handleListCategories returns every category alias the spending tools
// accept, with the COICOP code each one resolves to.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	aliases := ssb.Aliases()
	categories := make([]api.Category, 0, len(aliases))
	for _, a := range aliases {
		categories = append(categories, api.Category{Name: a.Name, Code: a.Code})
	}
	s.writeJSON(w, http.StatusOK, categories)
}
