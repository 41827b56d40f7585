package session_test

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/vantagehq/go-session-gateway/internal/utils"
	"github.com/vantagehq/go-session-gateway/platform"
	"github.com/vantagehq/go-session-gateway/session"
	"github.com/vantagehq/go-session-gateway/session/seal"
)

type fakeProvider struct {
	mu           sync.Mutex
	refreshCalls int
	profileCalls int

	refreshTokens session.Tokens
	refreshErr    error
	profile       session.Profile
	profileErr    error
}

func (f *fakeProvider) Refresh(_ context.Context, _ string) (session.Tokens, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++
	return f.refreshTokens, f.refreshErr
}

func (f *fakeProvider) Profile(_ context.Context, _ string) (session.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profileCalls++
	return f.profile, f.profileErr
}

type storeFixture struct {
	store    *session.Store
	provider *fakeProvider
	jar      *platform.MemoryCookies
}

func newStoreFixture(t *testing.T, options ...session.StoreOption) *storeFixture {
	t.Helper()

	sealer, err := seal.New("test-encryption-secret")
	require.NoError(t, err)

	provider := &fakeProvider{
		refreshTokens: session.Tokens{AccessToken: "new-access", RefreshToken: "new-refresh"},
		profile: session.Profile{
			User:        session.User{Name: "Ada", Emails: []string{"ada@example.com"}},
			Permissions: []string{"dashboard:view", "users:view"},
		},
	}

	store, err := session.NewStore(sealer, provider, options...)
	require.NoError(t, err)

	return &storeFixture{store: store, provider: provider, jar: platform.NewMemoryCookies()}
}

func (f *storeFixture) seedSession(t *testing.T, sess session.Session) {
	t.Helper()
	require.NoError(t, f.store.StoreSession(f.jar, sess))
}

func authenticatedSession() session.Session {
	return session.Session{
		User:   &session.User{Name: "Ada", Emails: []string{"ada@example.com"}},
		Tokens: &session.Tokens{AccessToken: "access", RefreshToken: "refresh"},
	}
}

func TestStore_StoreAndGetSession(t *testing.T) {
	t.Run("round trips the session", func(t *testing.T) {
		f := newStoreFixture(t)
		f.seedSession(t, authenticatedSession())

		loaded := f.store.GetSession(f.jar)
		require.False(t, loaded.ShouldClear)
		require.Equal(t, authenticatedSession(), loaded.Session)
	})

	t.Run("cookie value is sealed", func(t *testing.T) {
		f := newStoreFixture(t)
		f.seedSession(t, authenticatedSession())

		raw, ok := f.jar.Get("session")
		require.True(t, ok)
		require.NotContains(t, raw, "access")
		require.NotContains(t, raw, "Ada")
	})

	t.Run("absent cookie is an empty session", func(t *testing.T) {
		f := newStoreFixture(t)

		loaded := f.store.GetSession(f.jar)
		require.False(t, loaded.ShouldClear)
		require.True(t, loaded.Session.Empty())
	})

	t.Run("unreadable cookie asks to be cleared", func(t *testing.T) {
		f := newStoreFixture(t)
		f.jar.Set(platform.Cookie{Name: "session", Value: "not:a:sealed:value"})

		loaded := f.store.GetSession(f.jar)
		require.True(t, loaded.ShouldClear)
		require.True(t, loaded.Session.Empty())
	})

	t.Run("custom cookie names are honored", func(t *testing.T) {
		f := newStoreFixture(t, session.WithCookieNames("sid", "perms"))
		f.seedSession(t, authenticatedSession())

		_, ok := f.jar.Get("sid")
		require.True(t, ok)
		_, ok = f.jar.Get("session")
		require.False(t, ok)
	})
}

func TestStore_AuthenticateWithTokens(t *testing.T) {
	t.Run("stores the session and permission cookies", func(t *testing.T) {
		f := newStoreFixture(t)

		result := f.store.AuthenticateWithTokens(context.Background(), f.jar, session.Tokens{
			AccessToken:  "access",
			RefreshToken: "refresh",
		})
		require.True(t, result.OK())
		require.NotNil(t, result.Data)
		require.Equal(t, "Ada", result.Data.User.Name)

		loaded := f.store.GetSession(f.jar)
		require.Equal(t, "access", loaded.Session.Tokens.AccessToken)

		perms, ok := f.jar.Get("prm")
		require.True(t, ok)
		require.Equal(t, "dashboard:view.users:view", perms)
	})

	t.Run("profile failure is a bad gateway and writes nothing", func(t *testing.T) {
		f := newStoreFixture(t)
		f.provider.profileErr = errors.New("provider down")

		result := f.store.AuthenticateWithTokens(context.Background(), f.jar, session.Tokens{
			AccessToken:  "access",
			RefreshToken: "refresh",
		})
		require.False(t, result.OK())
		require.Equal(t, 502, result.Status)
		require.Equal(t, session.ProfileFetchErr.Error(), result.Err)

		_, ok := f.jar.Get("session")
		require.False(t, ok)
		_, ok = f.jar.Get("prm")
		require.False(t, ok)
	})
}

func TestStore_RefreshTokens(t *testing.T) {
	t.Run("no stored session is unauthorized", func(t *testing.T) {
		f := newStoreFixture(t)

		result := f.store.RefreshTokens(context.Background(), f.jar)
		require.Equal(t, 401, result.Status)
		require.Equal(t, session.NoSessionErr.Error(), result.Err)
	})

	t.Run("missing refresh token is unauthorized and clears the session", func(t *testing.T) {
		f := newStoreFixture(t)
		f.seedSession(t, session.Session{
			User:   utils.Ptr(session.User{Name: "Ada"}),
			Tokens: &session.Tokens{AccessToken: "access"},
		})

		result := f.store.RefreshTokens(context.Background(), f.jar)
		require.Equal(t, 401, result.Status)
		require.Equal(t, session.NoRefreshTokenErr.Error(), result.Err)

		_, ok := f.jar.Get("session")
		require.False(t, ok)
	})

	t.Run("provider failure clears both cookies", func(t *testing.T) {
		f := newStoreFixture(t)
		f.provider.refreshErr = errors.New("refresh token revoked")
		f.seedSession(t, authenticatedSession())
		f.jar.Set(platform.Cookie{Name: "prm", Value: "dashboard:view"})

		result := f.store.RefreshTokens(context.Background(), f.jar)
		require.Equal(t, 401, result.Status)
		require.Equal(t, session.RefreshFailedErr.Error(), result.Err)

		_, ok := f.jar.Get("session")
		require.False(t, ok)
		_, ok = f.jar.Get("prm")
		require.False(t, ok)
	})

	t.Run("keeps the cached user without a profile refetch", func(t *testing.T) {
		f := newStoreFixture(t)
		f.seedSession(t, authenticatedSession())

		result := f.store.RefreshTokens(context.Background(), f.jar)
		require.True(t, result.OK())
		require.Equal(t, "new-access", result.Data.Tokens.AccessToken)
		require.Equal(t, "Ada", result.Data.User.Name)
		require.Equal(t, 0, f.provider.profileCalls)

		loaded := f.store.GetSession(f.jar)
		require.Equal(t, "new-refresh", loaded.Session.Tokens.RefreshToken)
	})

	t.Run("refetches the profile when the user is missing", func(t *testing.T) {
		f := newStoreFixture(t)
		f.seedSession(t, session.Session{
			Tokens: &session.Tokens{AccessToken: "access", RefreshToken: "refresh"},
		})

		result := f.store.RefreshTokens(context.Background(), f.jar)
		require.True(t, result.OK())
		require.Equal(t, "Ada", result.Data.User.Name)
		require.Equal(t, 1, f.provider.profileCalls)

		perms, ok := f.jar.Get("prm")
		require.True(t, ok)
		require.Equal(t, "dashboard:view.users:view", perms)
	})
}

func TestResult_OK(t *testing.T) {
	require.True(t, session.Result{Status: 200}.OK())
	require.False(t, session.Result{Status: 200, Err: "boom"}.OK())
	require.False(t, session.Result{Status: 401}.OK())
}
