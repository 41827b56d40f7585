package platform

import (
	"errors"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// ErrPopupBlocked is returned by a PopupOpener that refuses to open a
// window, triggering the redirect fallback.
var ErrPopupBlocked = errors.New("popup blocked")

// MemoryCookies is a thread-safe in-memory CookieJar.
type MemoryCookies struct {
	mu      sync.RWMutex
	cookies map[string]Cookie
}

func NewMemoryCookies() *MemoryCookies {
	return &MemoryCookies{cookies: make(map[string]Cookie)}
}

func (m *MemoryCookies) Get(name string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.cookies[name]
	if !ok {
		return "", false
	}
	return c.Value, true
}

func (m *MemoryCookies) Set(c Cookie) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cookies[c.Name] = c
}

func (m *MemoryCookies) Delete(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cookies, name)
}

// MemoryScratch is a TTL-bound Scratch. Handshake state is only useful
// for the duration of one login attempt, so entries expire on their own
// even if a handshake is abandoned mid-flight.
type MemoryScratch struct {
	store *gocache.Cache
}

func NewMemoryScratch(ttl time.Duration) *MemoryScratch {
	return &MemoryScratch{store: gocache.New(ttl, 2*ttl)}
}

func (m *MemoryScratch) Put(key, value string) {
	m.store.Set(key, value, gocache.DefaultExpiration)
}

func (m *MemoryScratch) Get(key string) (string, bool) {
	v, ok := m.store.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (m *MemoryScratch) Remove(key string) {
	m.store.Delete(key)
}

// MemoryBroadcast fans a published topic out to all current subscribers.
// Sends never block; a subscriber that is not draining its channel simply
// misses the signal, which matches the best-effort contract.
type MemoryBroadcast struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan struct{}
}

func NewMemoryBroadcast() *MemoryBroadcast {
	return &MemoryBroadcast{subs: make(map[string]map[int]chan struct{})}
}

func (b *MemoryBroadcast) Publish(topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[topic] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (b *MemoryBroadcast) Subscribe(topic string) (<-chan struct{}, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[topic]; !ok {
		b.subs[topic] = make(map[int]chan struct{})
	}
	id := b.nextID
	b.nextID++
	ch := make(chan struct{}, 1)
	b.subs[topic][id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[topic], id)
	}
	return ch, cancel
}

// MemoryPopup is a scriptable Popup for tests and embedded hosts.
type MemoryPopup struct {
	mu       sync.Mutex
	closed   bool
	messages chan Message
}

func (p *MemoryPopup) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *MemoryPopup) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

// Deliver posts a message from the popup to its parent.
func (p *MemoryPopup) Deliver(msg Message) {
	p.messages <- msg
}

// MemoryPopupOpener opens MemoryPopups, optionally simulating a popup
// blocker.
type MemoryPopupOpener struct {
	Blocked bool

	mu     sync.Mutex
	opened []*MemoryPopup
	urls   []string
}

func (o *MemoryPopupOpener) Open(url string, width, height int) (Popup, <-chan Message, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Blocked {
		return nil, nil, ErrPopupBlocked
	}
	p := &MemoryPopup{messages: make(chan Message, 4)}
	o.opened = append(o.opened, p)
	o.urls = append(o.urls, url)
	return p, p.messages, nil
}

// Opened returns the popups opened so far.
func (o *MemoryPopupOpener) Opened() []*MemoryPopup {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*MemoryPopup(nil), o.opened...)
}

// URLs returns the URLs the opener was asked to open.
func (o *MemoryPopupOpener) URLs() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.urls...)
}

// MemoryNavigator records top-level navigations.
type MemoryNavigator struct {
	mu   sync.Mutex
	urls []string
}

func (n *MemoryNavigator) Navigate(url string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.urls = append(n.urls, url)
}

func (n *MemoryNavigator) Visited() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.urls...)
}
