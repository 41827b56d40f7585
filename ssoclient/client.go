// Package ssoclient talks to the external SSO provider: the hosted login
// page, the token refresh endpoint, and the bearer-authenticated profile
// endpoint.
package ssoclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/vantagehq/go-session-gateway/session"
)

const (
	refreshPath = "/auth/refresh"
	profilePath = "/users/me"
	loginPath   = "/login"

	defaultTimeout = 10 * time.Second
)

var _ session.Provider = (*Client)(nil)

// Client is an HTTP client for one SSO provider deployment.
type Client struct {
	ssoURL      string // login UI base
	apiURL      string // refresh/profile API base
	clientID    string
	redirectURI string
	httpClient  *http.Client
}

// ClientOption modifies a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client (primarily for
// testing against httptest servers).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

func New(ssoURL, apiURL, clientID, redirectURI string, options ...ClientOption) (*Client, error) {
	if ssoURL == "" {
		return nil, errors.New("[ssoclient.New] ssoURL is required")
	}
	if apiURL == "" {
		apiURL = ssoURL
	}

	client := &Client{
		ssoURL:      ssoURL,
		apiURL:      apiURL,
		clientID:    clientID,
		redirectURI: redirectURI,
		httpClient:  &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range options {
		opt(client)
	}
	return client, nil
}

// Origin returns the provider origin messages must come from.
func (c *Client) Origin() string {
	u, err := url.Parse(c.ssoURL)
	if err != nil {
		return c.ssoURL
	}
	return u.Scheme + "://" + u.Host
}

// LoginURL builds the provider login URL carrying the client ID, the
// state nonce, and the redirect URI for the fallback flow.
func (c *Client) LoginURL(state string) string {
	q := url.Values{}
	q.Set("client", c.clientID)
	q.Set("state", state)
	q.Set("redirect_uri", c.redirectURI)
	return c.ssoURL + loginPath + "?" + q.Encode()
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh exchanges a refresh token for a new token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (session.Tokens, error) {
	body, err := json.Marshal(refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return session.Tokens{}, errors.Wrap(err, "[Refresh] marshalling request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+refreshPath, bytes.NewReader(body))
	if err != nil {
		return session.Tokens{}, errors.Wrap(err, "[Refresh] building request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return session.Tokens{}, errors.Wrap(err, "[Refresh] executing request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return session.Tokens{}, fmt.Errorf("[Refresh] refresh endpoint returned status %d", resp.StatusCode)
	}

	var tokens session.Tokens
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return session.Tokens{}, errors.Wrap(err, "[Refresh] decoding response")
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return session.Tokens{}, errors.New("[Refresh] incomplete token pair in response")
	}
	return tokens, nil
}

type profileResponse struct {
	Name        string   `json:"name"`
	Emails      []string `json:"emails"`
	Phones      []string `json:"phones"`
	PhotoURL    string   `json:"photoUrl"`
	Permissions []string `json:"permissions"`
}

// Profile fetches the user profile with a bearer access token.
func (c *Client) Profile(ctx context.Context, accessToken string) (session.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+profilePath, nil)
	if err != nil {
		return session.Profile{}, errors.Wrap(err, "[Profile] building request")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return session.Profile{}, errors.Wrap(err, "[Profile] executing request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return session.Profile{}, fmt.Errorf("[Profile] profile endpoint returned status %d", resp.StatusCode)
	}

	var payload profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return session.Profile{}, errors.Wrap(err, "[Profile] decoding response")
	}

	return session.Profile{
		User: session.User{
			Name:     payload.Name,
			Emails:   payload.Emails,
			Phones:   payload.Phones,
			PhotoURL: payload.PhotoURL,
		},
		Permissions: payload.Permissions,
	}, nil
}
