// Package permissions caches the dashboard permission codes carried by a
// lightweight cookie, so permission checks never need a server round trip.
// The cache is a UI-gating convenience only; the cookie is readable by any
// page script, and real authorization is enforced by the backend API.
package permissions

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vantagehq/go-session-gateway/platform"
)

const (
	// Separator joins permission codes in the cookie value.
	Separator = "."

	// TopicWake is published when the host context regains focus.
	TopicWake = "wake"
	// TopicSync is published to force other contexts to re-read the
	// permission cookie, e.g. after a logout elsewhere.
	TopicSync = "permissions.sync"
)

// ParseCookieValue splits a permission cookie value into a sorted list of
// codes. Empty segments are dropped. Duplicates are preserved: dedup
// happens in the membership set at consumption time, not at parse time.
func ParseCookieValue(value string) []string {
	segments := strings.Split(value, Separator)
	codes := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg != "" {
			codes = append(codes, seg)
		}
	}
	sort.Strings(codes)
	return codes
}

// Cache holds the parsed permission codes for one host context.
type Cache struct {
	jar        platform.CookieJar
	cookieName string

	mu     sync.RWMutex
	codes  []string
	set    map[string]struct{}
	loaded bool
}

func New(jar platform.CookieJar, cookieName string) *Cache {
	return &Cache{
		jar:        jar,
		cookieName: cookieName,
		set:        map[string]struct{}{},
	}
}

// Refresh re-parses the cookie. Internal state is replaced only when the
// new sorted list differs element-wise (duplicates included) from the
// current one, so downstream observers are not churned needlessly.
// It reports whether the state changed.
func (c *Cache) Refresh() bool {
	value, _ := c.jar.Get(c.cookieName)
	codes := ParseCookieValue(value)

	c.mu.Lock()
	defer c.mu.Unlock()

	changed := !equal(c.codes, codes)
	if changed {
		set := make(map[string]struct{}, len(codes))
		for _, code := range codes {
			set[code] = struct{}{}
		}
		c.codes = codes
		c.set = set
	}
	c.loaded = true
	return changed
}

// Has reports whether the permission code is present.
func (c *Cache) Has(perm string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.set[perm]
	return ok
}

// HasEvery reports whether every given code is present.
func (c *Cache) HasEvery(perms ...string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range perms {
		if _, ok := c.set[p]; !ok {
			return false
		}
	}
	return true
}

// HasSome reports whether at least one of the given codes is present.
func (c *Cache) HasSome(perms ...string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range perms {
		if _, ok := c.set[p]; ok {
			return true
		}
	}
	return false
}

// Loaded reports whether at least one parse has completed. Render gating
// waits for this so checks never run against the empty default state.
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Codes returns a copy of the current sorted code list.
func (c *Cache) Codes() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.codes...)
}

// Watch refreshes the cache until ctx is done: on wake events, on sync
// broadcasts, and on a fixed interval when pollInterval is positive.
// Subscriptions and the ticker are torn down when ctx ends. Delivery is
// best-effort; a context that receives no event holds stale permissions
// until its next tick or manual Refresh.
func (c *Cache) Watch(ctx context.Context, broadcast platform.Broadcast, pollInterval time.Duration) {
	wake, cancelWake := broadcast.Subscribe(TopicWake)
	syncCh, cancelSync := broadcast.Subscribe(TopicSync)

	var tick <-chan time.Time
	var ticker *time.Ticker
	if pollInterval > 0 {
		ticker = time.NewTicker(pollInterval)
		tick = ticker.C
	}

	go func() {
		defer cancelWake()
		defer cancelSync()
		if ticker != nil {
			defer ticker.Stop()
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-wake:
				c.Refresh()
			case <-syncCh:
				c.Refresh()
			case <-tick:
				c.Refresh()
			}
		}
	}()
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
