// Package session is the single source of truth for the authenticated
// session, persisted as an encrypted cookie. Tokens and the user profile
// are set and cleared together; a token pair is never stored without its
// matching user record.
package session

import "net/http"

// Tokens is the access/refresh token pair issued by the SSO provider.
// The JSON field names are part of the sealed-cookie wire format.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// User is the profile record returned by the provider's profile endpoint.
type User struct {
	Name     string   `json:"name"`
	Emails   []string `json:"emails"`
	Phones   []string `json:"phones"`
	PhotoURL string   `json:"photoUrl"`
}

// Session pairs the user with their tokens. Both fields are nil for an
// anonymous session.
type Session struct {
	User   *User   `json:"user"`
	Tokens *Tokens `json:"tokens"`
}

// Empty reports whether the session carries no authenticated user.
func (s Session) Empty() bool {
	return s.User == nil || s.Tokens == nil
}

// Loaded is the result of reading the session cookie. ShouldClear is set
// when a cookie was present but could not be opened or parsed; the caller
// is expected to clear it rather than surface an error, so a corrupted
// cookie cannot cause a crash loop.
type Loaded struct {
	Session     Session
	ShouldClear bool
}

// Profile is what the provider's profile endpoint yields: the user record
// plus the permission codes the dashboard gates its UI with.
type Profile struct {
	User        User
	Permissions []string
}

// Result is the structured outcome of a session operation at the
// server/client boundary. Errors become data here, not panics.
type Result struct {
	Data   *Session `json:"data,omitempty"`
	Status int      `json:"status"`
	Err    string   `json:"error,omitempty"`
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool {
	return r.Status >= http.StatusOK && r.Status < http.StatusMultipleChoices && r.Err == ""
}
