package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/vantagehq/go-session-gateway/permissions"
	"github.com/vantagehq/go-session-gateway/session"
)

// SessionHandler bootstraps client state: it returns the stored session
// as a structured result, never an error page. A corrupted cookie is
// cleared and reported as an empty session.
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")

		jar := newRequestJar(w, r)
		loaded := s.store.GetSession(jar)
		if loaded.ShouldClear {
			s.store.ClearSession(jar)
		}

		writeJSON(w, http.StatusOK, session.Result{
			Data:   &loaded.Session,
			Status: http.StatusOK,
		})
	}
}

// RefreshHandler exchanges the stored refresh token for a new pair. On
// any failure the session is already cleared by the store; the client
// gets the structured result either way.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")

		jar := newRequestJar(w, r)
		result := s.store.RefreshTokens(r.Context(), jar)
		if !result.OK() {
			s.broadcast.Publish(permissions.TopicSync)
		}
		writeJSON(w, result.Status, result)
	}
}

// LogoutHandler clears the session and permission cookies and tells
// other contexts to re-read theirs.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jar := newRequestJar(w, r)
		s.store.ClearSession(jar)
		s.store.ClearPermissions(jar)
		s.broadcast.Publish(permissions.TopicSync)

		http.Redirect(w, r, s.config.GetAppURL(), http.StatusSeeOther)
	}
}

func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Err(err).Msg("failed to encode response body")
	}
}
