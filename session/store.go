package session

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/vantagehq/go-session-gateway/platform"
	"github.com/vantagehq/go-session-gateway/session/seal"
)

// Provider is the SSO provider surface the store depends on.
type Provider interface {
	Refresh(ctx context.Context, refreshToken string) (Tokens, error)
	Profile(ctx context.Context, accessToken string) (Profile, error)
}

const (
	// PermissionSeparator joins permission codes in the permission cookie.
	PermissionSeparator = "."

	defaultSessionCookie    = "session"
	defaultPermissionCookie = "prm"
	defaultMaxAge           = 7 * 24 * time.Hour
)

// Store implements the session server actions over an encrypted cookie.
type Store struct {
	sealer   *seal.Sealer
	provider Provider

	sessionCookie    string
	permissionCookie string
	maxAge           time.Duration
	secure           bool

	onError func(error)
	nowTime func() time.Time

	// Collapses concurrent refresh attempts for the same refresh token
	// into a single provider call.
	refreshGroup singleflight.Group
}

// StoreOption modifies a Store.
type StoreOption func(*Store)

// WithCookieNames overrides the session and permission cookie names.
func WithCookieNames(session, permission string) StoreOption {
	return func(s *Store) {
		s.sessionCookie = session
		s.permissionCookie = permission
	}
}

// WithMaxAge overrides the session cookie lifetime.
func WithMaxAge(d time.Duration) StoreOption {
	return func(s *Store) { s.maxAge = d }
}

// WithSecureCookies marks written cookies Secure.
func WithSecureCookies(secure bool) StoreOption {
	return func(s *Store) { s.secure = secure }
}

// WithErrorCallback sets a callback invoked whenever a store write fails.
func WithErrorCallback(cb func(error)) StoreOption {
	return func(s *Store) { s.onError = cb }
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) StoreOption {
	return func(s *Store) { s.nowTime = nowFunc }
}

// NewStore initializes a Store with required dependencies.
func NewStore(sealer *seal.Sealer, provider Provider, options ...StoreOption) (*Store, error) {
	if sealer == nil {
		return nil, errors.New("[NewStore] sealer is required")
	}
	if provider == nil {
		return nil, errors.New("[NewStore] provider is required")
	}

	store := &Store{
		sealer:           sealer,
		provider:         provider,
		sessionCookie:    defaultSessionCookie,
		permissionCookie: defaultPermissionCookie,
		maxAge:           defaultMaxAge,
		onError:          func(error) {},
		nowTime:          time.Now,
	}
	for _, opt := range options {
		opt(store)
	}
	return store, nil
}

// StoreSession seals the session and overwrites the session cookie.
func (s *Store) StoreSession(jar platform.CookieJar, sess Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		err = errors.Wrap(err, "[StoreSession] marshalling session")
		s.onError(err)
		return err
	}

	sealed, err := s.sealer.Seal(string(payload))
	if err != nil {
		err = errors.Wrap(err, "[StoreSession] sealing session")
		s.onError(err)
		return err
	}

	jar.Set(platform.Cookie{
		Name:     s.sessionCookie,
		Value:    sealed,
		MaxAge:   s.maxAge,
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// GetSession reads the session cookie. An absent cookie is an empty
// session; a cookie that cannot be opened or parsed is an empty session
// flagged ShouldClear.
func (s *Store) GetSession(jar platform.CookieJar) Loaded {
	sealed, ok := jar.Get(s.sessionCookie)
	if !ok {
		return Loaded{}
	}

	payload, err := s.sealer.Open(sealed)
	if err != nil {
		log.Warn().Err(err).Msg("stored session cookie could not be opened")
		return Loaded{ShouldClear: true}
	}

	var sess Session
	if err := json.Unmarshal([]byte(payload), &sess); err != nil {
		log.Warn().Err(err).Msg("stored session cookie held invalid JSON")
		return Loaded{ShouldClear: true}
	}
	return Loaded{Session: sess}
}

// ClearSession deletes the session cookie.
func (s *Store) ClearSession(jar platform.CookieJar) {
	jar.Delete(s.sessionCookie)
}

// ClearPermissions deletes the permission cookie.
func (s *Store) ClearPermissions(jar platform.CookieJar) {
	jar.Delete(s.permissionCookie)
}

// AuthenticateWithTokens exchanges a fresh token pair for a stored
// session: the user profile is fetched with the access token, the session
// cookie is written, and the permission cookie is rebuilt from the
// profile's permission codes. Failures come back as a structured Result.
func (s *Store) AuthenticateWithTokens(ctx context.Context, jar platform.CookieJar, tokens Tokens) Result {
	profile, err := s.provider.Profile(ctx, tokens.AccessToken)
	if err != nil {
		log.Warn().Err(err).Msg("profile fetch failed during authentication")
		return Result{Status: http.StatusBadGateway, Err: ProfileFetchErr.Error()}
	}

	sess := Session{User: &profile.User, Tokens: &tokens}
	if err := s.StoreSession(jar, sess); err != nil {
		return Result{Status: http.StatusInternalServerError, Err: err.Error()}
	}
	s.writePermissions(jar, profile.Permissions)

	return Result{Data: &sess, Status: http.StatusOK}
}

// RefreshTokens posts the stored refresh token to the provider and
// re-stores the session. Any failure clears the session entirely; an
// ambiguous refresh outcome is treated as logout.
func (s *Store) RefreshTokens(ctx context.Context, jar platform.CookieJar) Result {
	loaded := s.GetSession(jar)
	if loaded.ShouldClear || loaded.Session.Tokens == nil {
		s.ClearSession(jar)
		return Result{Status: http.StatusUnauthorized, Err: NoSessionErr.Error()}
	}

	refreshToken := loaded.Session.Tokens.RefreshToken
	if refreshToken == "" {
		s.ClearSession(jar)
		return Result{Status: http.StatusUnauthorized, Err: NoRefreshTokenErr.Error()}
	}

	outcome, err, _ := s.refreshGroup.Do(refreshToken, func() (interface{}, error) {
		return s.refresh(ctx, loaded.Session)
	})
	if err != nil {
		log.Warn().Err(err).Msg("refresh failed; clearing session")
		s.ClearSession(jar)
		s.ClearPermissions(jar)
		return Result{Status: http.StatusUnauthorized, Err: RefreshFailedErr.Error()}
	}

	refreshed := outcome.(refreshOutcome)
	if err := s.StoreSession(jar, refreshed.session); err != nil {
		return Result{Status: http.StatusInternalServerError, Err: err.Error()}
	}
	if refreshed.fetchedProfile {
		s.writePermissions(jar, refreshed.permissions)
	}

	return Result{Data: &refreshed.session, Status: http.StatusOK}
}

type refreshOutcome struct {
	session        Session
	permissions    []string
	fetchedProfile bool
}

func (s *Store) refresh(ctx context.Context, prior Session) (refreshOutcome, error) {
	tokens, err := s.provider.Refresh(ctx, prior.Tokens.RefreshToken)
	if err != nil {
		return refreshOutcome{}, errors.Wrap(err, "[refresh] provider.Refresh")
	}

	// Re-fetch the profile only when the prior session did not carry one.
	if prior.User != nil {
		return refreshOutcome{
			session: Session{User: prior.User, Tokens: &tokens},
		}, nil
	}

	profile, err := s.provider.Profile(ctx, tokens.AccessToken)
	if err != nil {
		return refreshOutcome{}, errors.Wrap(err, "[refresh] provider.Profile")
	}
	return refreshOutcome{
		session:        Session{User: &profile.User, Tokens: &tokens},
		permissions:    profile.Permissions,
		fetchedProfile: true,
	}, nil
}

func (s *Store) writePermissions(jar platform.CookieJar, perms []string) {
	jar.Set(platform.Cookie{
		Name:   s.permissionCookie,
		Value:  strings.Join(perms, PermissionSeparator),
		MaxAge: s.maxAge,
		// Deliberately not HttpOnly: the permission cookie is a UI
		// convenience read by page scripts, not a trust boundary.
		HTTPOnly: false,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
