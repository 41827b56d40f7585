package config

type SSOConfig interface {
	GetSSOURL() string
	GetSSOAPIURL() string
	GetSSOClientID() string
	GetRedirectURI() string
}

type SSO struct{}

var _ SSOConfig = SSO{}

// GetSSOURL returns the base URL of the external SSO provider's login UI.
func (SSO) GetSSOURL() string {
	return GetEnv("SSO_URL", "http://localhost:9000")
}

// GetSSOAPIURL returns the base URL of the provider API used for the
// refresh and profile endpoints. Defaults to the SSO URL itself.
func (s SSO) GetSSOAPIURL() string {
	return GetEnv("SSO_API_URL", s.GetSSOURL())
}

func (SSO) GetSSOClientID() string {
	return GetEnv("SSO_CLIENT_ID", "admin-dashboard")
}

// GetRedirectURI returns the callback URL the provider redirects back to
// when the popup flow is unavailable.
func (SSO) GetRedirectURI() string {
	return GetEnv("SSO_REDIRECT_URI", EnvVars{}.GetAppURL()+"/auth/callback")
}
