package server

import (
	"net/http"

	"github.com/vantagehq/go-session-gateway/permissions"
	"github.com/vantagehq/go-session-gateway/routeguard"
)

// guardStateFor derives the guard inputs from a request's cookies. On the
// server the session read is synchronous, so the loading state never
// applies here; a corrupted session cookie surfaces as a session error so
// the route still renders with the session-expired signal.
func (s *Server) guardStateFor(r *http.Request) (routeguard.State, routeguard.PermissionChecker) {
	jar := readOnlyJar{r: r}

	loaded := s.store.GetSession(jar)
	cache := permissions.New(jar, s.config.GetPermissionCookieName())
	cache.Refresh()

	return routeguard.State{SessionError: loaded.ShouldClear}, cache
}

// DashboardHandler serves the bootstrap payload for guarded dashboard
// routes: the current user plus the permission codes the UI gates with.
func (s *Server) DashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jar := readOnlyJar{r: r}
		loaded := s.store.GetSession(jar)

		cache := permissions.New(jar, s.config.GetPermissionCookieName())
		cache.Refresh()

		writeJSON(w, http.StatusOK, map[string]any{
			"user":        loaded.Session.User,
			"permissions": cache.Codes(),
		})
	}
}
