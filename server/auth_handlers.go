package server

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/vantagehq/go-session-gateway/handshake"
	"github.com/vantagehq/go-session-gateway/permissions"
	"github.com/vantagehq/go-session-gateway/session"
)

// SSOStartHandler begins the redirect-mode handshake: it mints a state
// nonce, remembers it, and sends the browser to the provider login page.
func (s *Server) SSOStartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		nonce, err := handshake.NewNonce()
		if err != nil {
			log.Err(err).Msg("failed to generate state nonce")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		s.states.Put(nonce, "redirect")
		http.Redirect(w, r, s.sso.LoginURL(nonce), http.StatusFound)
	}
}

// SSOCallbackHandler is the redirect fallback entry: the provider sends
// the token pair and state back as query parameters. The state must match
// a nonce minted by SSOStartHandler; the token pair then goes through the
// same sign-in path as a popup delivery.
func (s *Server) SSOCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		accessToken := q.Get("accessToken")
		refreshToken := q.Get("refreshToken")
		state := q.Get("state")

		if accessToken == "" || refreshToken == "" || state == "" {
			http.Error(w, "missing token or state parameter", http.StatusBadRequest)
			return
		}

		if _, ok := s.states.Get(state); !ok {
			log.Warn().Msg("sso callback carried an unknown state nonce")
			http.Error(w, handshake.ErrInvalidState.Error(), http.StatusUnauthorized)
			return
		}
		s.states.Remove(state)

		jar := newRequestJar(w, r)
		result := s.store.AuthenticateWithTokens(r.Context(), jar, session.Tokens{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
		})
		if !result.OK() {
			log.Warn().Str("error", result.Err).Msg("sso callback sign-in failed")
			http.Error(w, result.Err, result.Status)
			return
		}

		s.broadcast.Publish(permissions.TopicSync)
		http.Redirect(w, r, RouteDashboard, http.StatusSeeOther)
	}
}
