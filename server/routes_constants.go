package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Session API
	RouteAPISession        = "/api/session"
	RouteAPISessionRefresh = "/api/session/refresh"

	// SSO flow
	RouteSSOStart    = "/auth/sso/start"
	RouteSSOCallback = "/auth/callback"
	RouteLogout      = "/auth/logout"

	// Guarded dashboard surface
	RouteDashboard = "/dashboard"

	// Operational
	RouteHealthz = "/healthz"
)
