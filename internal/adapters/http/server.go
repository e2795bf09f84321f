// Package http exposes the session manager over a small JSON API, used by
// the serve command.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/session"
)

// Server wraps a session manager with HTTP handlers.
type Server struct {
	manager *session.Manager
}

// NewHandler creates the HTTP handler for a session manager.
func NewHandler(manager *session.Manager) http.Handler {
	s := &Server{manager: manager}

	r := chi.NewRouter()
	r.Get("/healthz", s.health)
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.createSession)
		r.Get("/", s.listSessions)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Delete("/", s.deleteSession)
			r.Post("/transition", s.requestTransition)
			r.Post("/advance", s.advance)
		})
	})
	return r
}

type createSessionRequest struct {
	Tree string `json:"tree"`
}

type sessionResponse struct {
	ID          string    `json:"id"`
	Tree        string    `json:"tree"`
	ActiveState string    `json:"active_state"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type transitionRequest struct {
	State string `json:"state"`
}

type advanceRequest struct {
	ElapsedMS int64 `json:"elapsed_ms"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var body createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Tree == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "body must include a tree name"})
		return
	}

	id, snap, err := s.manager.Create(r.Context(), body.Tree)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResponse(id, snap))
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": s.manager.List()})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	snap, err := s.manager.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(id, snap))
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.End(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) requestTransition(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	var body transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.State == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "body must include a state name"})
		return
	}

	snap, err := s.manager.RequestTransition(r.Context(), id, body.State)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(id, snap))
}

func (s *Server) advance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	var body advanceRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ElapsedMS < 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "body must include elapsed_ms"})
		return
	}

	snap, err := s.manager.Advance(r.Context(), id, time.Duration(body.ElapsedMS)*time.Millisecond)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(id, snap))
}

func toResponse(id string, snap *domain.Snapshot) sessionResponse {
	return sessionResponse{
		ID:          id,
		Tree:        snap.Tree,
		ActiveState: snap.ActiveState,
		UpdatedAt:   snap.UpdatedAt,
	}
}

// writeError maps the domain error taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrMissingNode):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrNotLeaf):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrConfiguration), errors.Is(err, domain.ErrMissingArgument):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
