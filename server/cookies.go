package server

import (
	"net/http"

	"github.com/vantagehq/go-session-gateway/platform"
)

// requestJar adapts one request/response pair to platform.CookieJar.
// Writes go out as Set-Cookie headers and shadow the request's cookies so
// a read later in the same request sees the fresh value.
type requestJar struct {
	w       http.ResponseWriter
	r       *http.Request
	written map[string]*string // name -> value, nil means deleted
}

var _ platform.CookieJar = (*requestJar)(nil)

func newRequestJar(w http.ResponseWriter, r *http.Request) *requestJar {
	return &requestJar{w: w, r: r, written: make(map[string]*string)}
}

func (j *requestJar) Get(name string) (string, bool) {
	if v, ok := j.written[name]; ok {
		if v == nil {
			return "", false
		}
		return *v, true
	}
	cookie, err := j.r.Cookie(name)
	if err != nil {
		return "", false
	}
	return cookie.Value, true
}

func (j *requestJar) Set(c platform.Cookie) {
	http.SetCookie(j.w, &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     "/",
		MaxAge:   int(c.MaxAge.Seconds()),
		HttpOnly: c.HTTPOnly,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	})
	value := c.Value
	j.written[c.Name] = &value
}

func (j *requestJar) Delete(name string) {
	http.SetCookie(j.w, &http.Cookie{
		Name:   name,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	j.written[name] = nil
}

// readOnlyJar exposes a request's cookies without a response writer, for
// middleware that only inspects state.
type readOnlyJar struct {
	r *http.Request
}

var _ platform.CookieJar = readOnlyJar{}

func (j readOnlyJar) Get(name string) (string, bool) {
	cookie, err := j.r.Cookie(name)
	if err != nil {
		return "", false
	}
	return cookie.Value, true
}

func (readOnlyJar) Set(platform.Cookie) {}

func (readOnlyJar) Delete(string) {}
