package permissions_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vantagehq/go-session-gateway/permissions"
	"github.com/vantagehq/go-session-gateway/platform"
)

const testCookieName = "prm"

func TestParseCookieValue(t *testing.T) {
	t.Run("sorts without deduplicating", func(t *testing.T) {
		codes := permissions.ParseCookieValue("a.b.a.c")
		require.Equal(t, []string{"a", "a", "b", "c"}, codes)
	})

	t.Run("drops empty segments", func(t *testing.T) {
		codes := permissions.ParseCookieValue(".a..b.")
		require.Equal(t, []string{"a", "b"}, codes)
	})

	t.Run("empty value parses to no codes", func(t *testing.T) {
		require.Empty(t, permissions.ParseCookieValue(""))
	})
}

func TestCache_Refresh(t *testing.T) {
	t.Run("loads codes from the cookie", func(t *testing.T) {
		jar := platform.NewMemoryCookies()
		jar.Set(platform.Cookie{Name: testCookieName, Value: "users:view.dashboard:view"})

		cache := permissions.New(jar, testCookieName)
		require.False(t, cache.Loaded())

		changed := cache.Refresh()
		require.True(t, changed)
		require.True(t, cache.Loaded())
		require.Equal(t, []string{"dashboard:view", "users:view"}, cache.Codes())
	})

	t.Run("identical value does not report a change", func(t *testing.T) {
		jar := platform.NewMemoryCookies()
		jar.Set(platform.Cookie{Name: testCookieName, Value: "a.b"})

		cache := permissions.New(jar, testCookieName)
		require.True(t, cache.Refresh())
		require.False(t, cache.Refresh())
	})

	t.Run("duplicate count is part of equality", func(t *testing.T) {
		jar := platform.NewMemoryCookies()
		jar.Set(platform.Cookie{Name: testCookieName, Value: "a.b"})

		cache := permissions.New(jar, testCookieName)
		require.True(t, cache.Refresh())

		jar.Set(platform.Cookie{Name: testCookieName, Value: "a.a.b"})
		require.True(t, cache.Refresh())
		require.Equal(t, []string{"a", "a", "b"}, cache.Codes())
	})

	t.Run("missing cookie parses to no codes but counts as loaded", func(t *testing.T) {
		cache := permissions.New(platform.NewMemoryCookies(), testCookieName)
		require.False(t, cache.Refresh())
		require.True(t, cache.Loaded())
		require.Empty(t, cache.Codes())
	})
}

func TestCache_Membership(t *testing.T) {
	jar := platform.NewMemoryCookies()
	jar.Set(platform.Cookie{Name: testCookieName, Value: "users:view.users:create.roles:view"})

	cache := permissions.New(jar, testCookieName)
	cache.Refresh()

	t.Run("Has", func(t *testing.T) {
		require.True(t, cache.Has("users:view"))
		require.False(t, cache.Has("payments:view"))
	})

	t.Run("HasEvery", func(t *testing.T) {
		require.True(t, cache.HasEvery("users:view", "roles:view"))
		require.False(t, cache.HasEvery("users:view", "payments:view"))
	})

	t.Run("HasSome", func(t *testing.T) {
		require.True(t, cache.HasSome("payments:view", "roles:view"))
		require.False(t, cache.HasSome("payments:view", "stores:view"))
	})
}

func TestCache_Watch(t *testing.T) {
	t.Run("sync broadcast triggers a refresh", func(t *testing.T) {
		jar := platform.NewMemoryCookies()
		cache := permissions.New(jar, testCookieName)
		cache.Refresh()
		require.Empty(t, cache.Codes())

		broadcast := platform.NewMemoryBroadcast()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		cache.Watch(ctx, broadcast, 0)

		jar.Set(platform.Cookie{Name: testCookieName, Value: "users:view"})
		broadcast.Publish(permissions.TopicSync)

		require.Eventually(t, func() bool {
			return cache.Has("users:view")
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("wake broadcast triggers a refresh", func(t *testing.T) {
		jar := platform.NewMemoryCookies()
		cache := permissions.New(jar, testCookieName)
		cache.Refresh()

		broadcast := platform.NewMemoryBroadcast()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		cache.Watch(ctx, broadcast, 0)

		jar.Set(platform.Cookie{Name: testCookieName, Value: "roles:view"})
		broadcast.Publish(permissions.TopicWake)

		require.Eventually(t, func() bool {
			return cache.Has("roles:view")
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("polling triggers a refresh", func(t *testing.T) {
		jar := platform.NewMemoryCookies()
		cache := permissions.New(jar, testCookieName)
		cache.Refresh()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		cache.Watch(ctx, platform.NewMemoryBroadcast(), 10*time.Millisecond)

		jar.Set(platform.Cookie{Name: testCookieName, Value: "stores:view"})

		require.Eventually(t, func() bool {
			return cache.Has("stores:view")
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("cancelled context stops refreshing", func(t *testing.T) {
		jar := platform.NewMemoryCookies()
		cache := permissions.New(jar, testCookieName)
		cache.Refresh()

		broadcast := platform.NewMemoryBroadcast()
		ctx, cancel := context.WithCancel(context.Background())
		cache.Watch(ctx, broadcast, 0)
		cancel()
		time.Sleep(20 * time.Millisecond)

		jar.Set(platform.Cookie{Name: testCookieName, Value: "users:view"})
		broadcast.Publish(permissions.TopicSync)
		time.Sleep(20 * time.Millisecond)

		require.False(t, cache.Has("users:view"))
	})
}
