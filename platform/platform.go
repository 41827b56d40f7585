// Package platform abstracts the host environment the coordination layer
// runs against: cookie access, short-lived scratch storage, cross-context
// broadcast, and popup windows with a message channel. The state machines
// in handshake, permissions, and session depend only on these interfaces,
// so they are testable with the in-memory implementations in this package.
package platform

import (
	"net/http"
	"time"
)

// Cookie is the subset of cookie attributes the gateway sets.
type Cookie struct {
	Name     string
	Value    string
	MaxAge   time.Duration
	HTTPOnly bool
	Secure   bool
	SameSite http.SameSite
}

// CookieJar reads and writes cookies for the current context. On the
// server a jar wraps one request/response pair; writes are last-write-wins
// with no locking, matching cookie semantics.
type CookieJar interface {
	Get(name string) (string, bool)
	Set(c Cookie)
	Delete(name string)
}

// Scratch is session-scoped storage for ephemeral handshake state, such
// as the outstanding state nonce. Entries may expire.
type Scratch interface {
	Put(key, value string)
	Get(key string) (string, bool)
	Remove(key string)
}

// Broadcast is a best-effort cross-context pub/sub, standing in for the
// focus/storage events the dashboard relies on. Delivery is not
// guaranteed; a context that never receives an event may stay stale
// until its next poll or manual refresh.
type Broadcast interface {
	Publish(topic string)
	// Subscribe returns a signal channel for the topic and a cancel
	// function that releases the subscription.
	Subscribe(topic string) (<-chan struct{}, func())
}

// Message is a token delivery received from the SSO popup.
type Message struct {
	Type         string
	Origin       string
	AccessToken  string
	RefreshToken string
	State        string
}

// Popup is an open SSO login window.
type Popup interface {
	// Closed reports whether the user has closed the window.
	Closed() bool
	Close()
}

// PopupOpener opens a sized popup to the given URL. A blocked popup is
// reported as an error so the caller can fall back to a full redirect.
type PopupOpener interface {
	Open(url string, width, height int) (Popup, <-chan Message, error)
}

// Navigator performs top-level navigation: the redirect fallback to the
// provider and the post-login move to the dashboard root.
type Navigator interface {
	Navigate(url string)
}
