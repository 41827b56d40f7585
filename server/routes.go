package server

import "net/http"

func (s *Server) initRoutes() {
	// Session API
	s.RegisterRouteHandler("GET "+RouteAPISession, ChainMiddleware(s.SessionHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPISessionRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))

	// SSO flow
	s.RegisterRouteFunc("GET "+RouteSSOStart, s.SSOStartHandler())
	s.RegisterRouteFunc("GET "+RouteSSOCallback, s.SSOCallbackHandler())
	s.RegisterRouteFunc("GET "+RouteLogout, s.LogoutHandler())

	// Guarded dashboard surface
	s.RegisterRouteHandler("GET "+RouteDashboard, s.guardedDashboard())
	s.RegisterRouteHandler("GET "+RouteDashboard+"/{rest...}", s.guardedDashboard())

	s.RegisterRouteFunc("GET "+RouteHealthz, s.HealthzHandler())
}

func (s *Server) guardedDashboard() http.HandlerFunc {
	return ChainMiddleware(
		s.DashboardHandler(),
		append(s.HTMLMiddleware(), s.guard.Middleware(s.guardStateFor))...,
	)
}
