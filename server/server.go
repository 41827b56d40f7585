package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/vantagehq/go-session-gateway/internal/config"
	"github.com/vantagehq/go-session-gateway/platform"
	"github.com/vantagehq/go-session-gateway/routeguard"
	"github.com/vantagehq/go-session-gateway/session"
	"github.com/vantagehq/go-session-gateway/session/seal"
	"github.com/vantagehq/go-session-gateway/ssoclient"
)

// stateTTL bounds how long a redirect-flow state nonce stays valid.
const stateTTL = 15 * time.Minute

type Server struct {
	env    string
	mux    *http.ServeMux
	routes []string
	config config.Config

	store     *session.Store
	sso       *ssoclient.Client
	states    platform.Scratch
	broadcast platform.Broadcast
	guard     *routeguard.Guard
}

func New(cfg config.Config) (*Server, error) {
	secret := cfg.GetEncryptionSecret()
	if secret == "" {
		if cfg.GetEnv() != "DEV" {
			return nil, errors.New("[Server New] ENCRYPTION_SECRET is required outside DEV")
		}
		secret = "dev-only-secret"
		log.Warn().Msg("ENCRYPTION_SECRET unset; using DEV fallback secret")
	}

	sealer, err := seal.New(secret)
	if err != nil {
		return nil, errors.Wrap(err, "[Server New] creating sealer")
	}

	sso, err := ssoclient.New(cfg.GetSSOURL(), cfg.GetSSOAPIURL(), cfg.GetSSOClientID(), cfg.GetRedirectURI())
	if err != nil {
		return nil, errors.Wrap(err, "[Server New] creating sso client")
	}

	store, err := session.NewStore(sealer, sso,
		session.WithCookieNames(cfg.GetSessionCookieName(), cfg.GetPermissionCookieName()),
		session.WithMaxAge(cfg.GetSessionMaxAge()),
		session.WithSecureCookies(cfg.GetEnv() != "DEV"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "[Server New] creating session store")
	}

	s := &Server{
		env:       cfg.GetEnv(),
		mux:       http.NewServeMux(),
		config:    cfg,
		store:     store,
		sso:       sso,
		states:    platform.NewMemoryScratch(stateTTL),
		broadcast: platform.NewMemoryBroadcast(),
		guard:     routeguard.New(true, routeguard.DefaultRules),
	}

	s.initRoutes()
	s.logRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			log.Info().Str("method", parts[0]).Str("path", parts[1]).Msg("route")
		} else {
			log.Info().Str("path", parts[0]).Msg("route")
		}
	}
}
