package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vantagehq/go-session-gateway/platform"
)

func TestRequestJar(t *testing.T) {
	t.Run("reads the request cookies", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "session", Value: "sealed"})

		jar := newRequestJar(httptest.NewRecorder(), req)
		value, ok := jar.Get("session")
		require.True(t, ok)
		require.Equal(t, "sealed", value)
	})

	t.Run("a write shadows the request cookie for later reads", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "session", Value: "stale"})
		recorder := httptest.NewRecorder()

		jar := newRequestJar(recorder, req)
		jar.Set(platform.Cookie{Name: "session", Value: "fresh"})

		value, ok := jar.Get("session")
		require.True(t, ok)
		require.Equal(t, "fresh", value)
		require.NotEmpty(t, recorder.Result().Cookies())
	})

	t.Run("a delete shadows the request cookie as absent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "session", Value: "stale"})
		recorder := httptest.NewRecorder()

		jar := newRequestJar(recorder, req)
		jar.Delete("session")

		_, ok := jar.Get("session")
		require.False(t, ok)

		cookies := recorder.Result().Cookies()
		require.Len(t, cookies, 1)
		require.Negative(t, cookies[0].MaxAge)
	})
}

func TestReadOnlyJar(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "prm", Value: "a.b"})

	jar := readOnlyJar{r: req}
	value, ok := jar.Get("prm")
	require.True(t, ok)
	require.Equal(t, "a.b", value)

	// Writes are silently dropped.
	jar.Set(platform.Cookie{Name: "prm", Value: "c"})
	value, _ = jar.Get("prm")
	require.Equal(t, "a.b", value)
}
