// Package refresher proactively refreshes the access token once, shortly
// before it expires, instead of polling.
package refresher

import (
	"context"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// DefaultThreshold is how long before expiry the refresh fires.
const DefaultThreshold = 30 * time.Second

// Delay computes how long to wait before refreshing a token that expires
// at exp. The second return is false when the token carries no usable
// expiry claim, in which case nothing should be scheduled.
func Delay(accessToken string, now time.Time, threshold time.Duration) (time.Duration, bool) {
	// The claim is only a scheduling hint; signature verification is the
	// provider's job, not ours.
	token, _, err := jwtlib.NewParser().ParseUnverified(accessToken, jwtlib.MapClaims{})
	if err != nil {
		return 0, false
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0, false
	}

	delay := exp.Time.Sub(now) - threshold
	if delay < 0 {
		delay = 0
	}
	return delay, true
}

// Refresher schedules at most one pending refresh per token pair. Arming
// with a new pair always cancels the previous timer first.
type Refresher struct {
	threshold time.Duration
	refresh   func(context.Context) error
	onResult  func(err error)

	mu     sync.Mutex
	timer  *time.Timer
	failed bool
}

// Option modifies a Refresher.
type Option func(*Refresher)

// WithThreshold overrides the pre-expiry refresh threshold.
func WithThreshold(d time.Duration) Option {
	return func(r *Refresher) { r.threshold = d }
}

// WithResultCallback observes the outcome of each fired refresh.
func WithResultCallback(cb func(err error)) Option {
	return func(r *Refresher) { r.onResult = cb }
}

func New(refresh func(context.Context) error, options ...Option) *Refresher {
	r := &Refresher{
		threshold: DefaultThreshold,
		refresh:   refresh,
		onResult:  func(error) {},
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Arm schedules a one-shot refresh for the given access token. A token
// without an expiry claim is a silent no-op. Any previously pending timer
// is cancelled, so re-arming on every token change keeps the invariant of
// at most one pending refresh.
func (r *Refresher) Arm(accessToken string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cancelLocked()

	delay, ok := Delay(accessToken, NowTimeFunc(), r.threshold)
	if !ok {
		return
	}

	r.timer = time.AfterFunc(delay, r.fire)
}

// Stop cancels any pending refresh.
func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelLocked()
}

// Failed reports whether the most recent fired refresh returned an error.
// There is no automatic retry; the next Arm clears the flag.
func (r *Refresher) Failed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failed
}

func (r *Refresher) cancelLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.failed = false
}

func (r *Refresher) fire() {
	err := r.refresh(context.Background())
	if err != nil {
		log.Warn().Err(err).Msg("scheduled token refresh failed")
	}

	r.mu.Lock()
	r.failed = err != nil
	r.timer = nil
	r.mu.Unlock()

	r.onResult(err)
}
