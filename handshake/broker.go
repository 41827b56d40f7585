package handshake

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/vantagehq/go-session-gateway/platform"
	"github.com/vantagehq/go-session-gateway/session"
)

const (
	// StateScratchKey is where the outstanding nonce lives for the
	// duration of one login attempt.
	StateScratchKey = "sso.handshake.state"

	nonceLength = 16

	defaultWatchdogEvery = time.Second
	defaultPopupWidth    = 480
	defaultPopupHeight   = 640
	defaultDashboardURL  = "/dashboard"
)

// Authenticator exchanges a received token pair for a stored session.
type Authenticator interface {
	AuthenticateWithTokens(ctx context.Context, jar platform.CookieJar, tokens session.Tokens) session.Result
}

// ProviderGateway supplies the provider login URL and expected origin.
type ProviderGateway interface {
	LoginURL(state string) string
	Origin() string
}

// Broker is the side-effecting glue around the handshake state machine.
// At most one handshake is in flight at a time; re-entrant starts are
// rejected without side effects.
type Broker struct {
	auth     Authenticator
	provider ProviderGateway
	jar      platform.CookieJar
	opener   platform.PopupOpener
	nav      platform.Navigator
	scratch  platform.Scratch

	watchdogEvery time.Duration
	popupWidth    int
	popupHeight   int
	dashboardURL  string

	mu       sync.Mutex
	state    State
	inFlight bool
}

// BrokerOption modifies a Broker.
type BrokerOption func(*Broker)

// WithWatchdogInterval overrides the popup-closed poll interval
// (primarily for testing).
func WithWatchdogInterval(d time.Duration) BrokerOption {
	return func(b *Broker) { b.watchdogEvery = d }
}

// WithPopupSize overrides the popup window dimensions.
func WithPopupSize(width, height int) BrokerOption {
	return func(b *Broker) {
		b.popupWidth = width
		b.popupHeight = height
	}
}

// WithDashboardURL overrides where a successful sign-in navigates to.
func WithDashboardURL(url string) BrokerOption {
	return func(b *Broker) { b.dashboardURL = url }
}

func NewBroker(
	auth Authenticator,
	provider ProviderGateway,
	jar platform.CookieJar,
	opener platform.PopupOpener,
	nav platform.Navigator,
	scratch platform.Scratch,
	options ...BrokerOption,
) (*Broker, error) {
	if auth == nil {
		return nil, errors.New("[NewBroker] authenticator is required")
	}
	if provider == nil {
		return nil, errors.New("[NewBroker] provider gateway is required")
	}
	if jar == nil || opener == nil || nav == nil || scratch == nil {
		return nil, errors.New("[NewBroker] platform dependencies are required")
	}

	broker := &Broker{
		auth:          auth,
		provider:      provider,
		jar:           jar,
		opener:        opener,
		nav:           nav,
		scratch:       scratch,
		watchdogEvery: defaultWatchdogEvery,
		popupWidth:    defaultPopupWidth,
		popupHeight:   defaultPopupHeight,
		dashboardURL:  defaultDashboardURL,
		state:         State{Status: StatusIdle},
	}
	for _, opt := range options {
		opt(broker)
	}
	return broker, nil
}

// State returns the current handshake state.
func (b *Broker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Start begins a handshake: nonce, provider URL, popup. A blocked popup
// falls back to a full-page redirect to the same URL. Returns ErrInFlight
// while a previous handshake is still running; that call has no effects.
func (b *Broker) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.inFlight {
		b.mu.Unlock()
		return ErrInFlight
	}
	b.inFlight = true
	b.mu.Unlock()

	nonce, err := NewNonce()
	if err != nil {
		b.clearInFlight()
		return errors.Wrap(err, "[Start] generating state nonce")
	}
	b.scratch.Put(StateScratchKey, nonce)

	attemptID := uuid.New().String()
	url := b.provider.LoginURL(nonce)

	popup, messages, err := b.opener.Open(url, b.popupWidth, b.popupHeight)
	if err != nil {
		// Popup blocked: leave this page entirely instead of waiting
		// for a message that cannot arrive.
		log.Info().Str("attempt", attemptID).Msg("sso popup blocked; falling back to redirect")
		b.clearInFlight()
		b.nav.Navigate(url)
		return nil
	}

	b.mu.Lock()
	b.state = Next(State{Status: StatusIdle}, EventPopupOpened{Nonce: nonce})
	b.state = Next(b.state, EventListenerRegistered{})
	b.mu.Unlock()

	go b.run(ctx, popup, messages, nonce, attemptID)
	return nil
}

func (b *Broker) run(ctx context.Context, popup platform.Popup, messages <-chan platform.Message, nonce, attemptID string) {
	watchdog := time.NewTicker(b.watchdogEvery)
	defer watchdog.Stop()

	for {
		select {
		case <-ctx.Done():
			popup.Close()
			b.transition(EventPopupClosed{})
			b.clearInFlight()
			return

		case <-watchdog.C:
			if popup.Closed() {
				log.Debug().Str("attempt", attemptID).Msg("sso popup closed manually")
				b.transition(EventPopupClosed{})
				b.clearInFlight()
				return
			}

		case msg, ok := <-messages:
			if !ok {
				b.transition(EventPopupClosed{})
				b.clearInFlight()
				return
			}

			switch ValidateMessage(msg, b.provider.Origin(), nonce) {
			case VerdictIgnore:
				// Noise from other message sources.
				continue

			case VerdictStateMismatch:
				log.Warn().Str("attempt", attemptID).Msg("sso message carried a mismatched state nonce")
				b.transition(EventStateMismatch{})
				b.clearInFlight()
				return

			case VerdictAccept:
				b.transition(EventMessageAccepted{})
				b.signIn(ctx, popup, session.Tokens{
					AccessToken:  msg.AccessToken,
					RefreshToken: msg.RefreshToken,
				})
				return
			}
		}
	}
}

func (b *Broker) signIn(ctx context.Context, popup platform.Popup, tokens session.Tokens) {
	result := b.auth.AuthenticateWithTokens(ctx, b.jar, tokens)
	if !result.OK() {
		b.transition(EventSignInFailed{Err: result.Err})
		b.clearInFlight()
		return
	}

	b.scratch.Remove(StateScratchKey)
	b.transition(EventSignInSucceeded{})
	popup.Close()
	b.clearInFlight()
	b.nav.Navigate(b.dashboardURL)
}

// CompleteFromRedirect is the second entry path: the token pair and state
// arrived as URL query parameters after the full-page redirect fallback.
// The same state and token validation applies.
func (b *Broker) CompleteFromRedirect(ctx context.Context, accessToken, refreshToken, state string) (session.Result, error) {
	expected, ok := b.scratch.Get(StateScratchKey)
	if !ok || state != expected {
		b.setState(State{Status: StatusError, Err: ErrInvalidState.Error()})
		return session.Result{}, ErrInvalidState
	}

	b.setState(State{Status: StatusValidating, Nonce: state})
	result := b.auth.AuthenticateWithTokens(ctx, b.jar, session.Tokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
	if !result.OK() {
		b.setState(State{Status: StatusError, Err: result.Err})
		return result, nil
	}

	b.scratch.Remove(StateScratchKey)
	b.setState(State{Status: StatusSignedIn})
	b.nav.Navigate(b.dashboardURL)
	return result, nil
}

func (b *Broker) transition(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Next(b.state, e)
}

func (b *Broker) setState(s State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = s
}

func (b *Broker) clearInFlight() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inFlight = false
}

// NewNonce returns a fresh 16-byte random state nonce, hex encoded.
func NewNonce() (string, error) {
	buf := make([]byte, nonceLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
