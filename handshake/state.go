// Package handshake runs the SSO login handshake: a popup window to the
// provider's login page, a one-time state nonce, and token delivery over
// a message channel, with a full-page redirect fallback when the popup is
// blocked. The state machine is a tagged-union value with pure transition
// logic; all host effects live in the Broker.
package handshake

import "github.com/vantagehq/go-session-gateway/platform"

// MessageTypeSSOToken is the sentinel type of a token delivery message.
const MessageTypeSSOToken = "SSO_TOKEN"

// Status enumerates the handshake states.
type Status string

const (
	StatusIdle            Status = "idle"
	StatusPopupOpened     Status = "popup_opened"
	StatusAwaitingMessage Status = "awaiting_message"
	StatusValidating      Status = "validating"
	StatusSignedIn        Status = "signed_in"
	StatusError           Status = "error"
)

// State is the current handshake state. Err is set only in StatusError.
type State struct {
	Status Status
	Nonce  string
	Err    string
}

// Verdict classifies an incoming message against the handshake state.
type Verdict int

const (
	// VerdictIgnore drops the message silently: wrong type or wrong
	// origin is expected noise from other message sources.
	VerdictIgnore Verdict = iota
	// VerdictStateMismatch is an explicit error: a correct-looking
	// message with the wrong nonce indicates a forgery attempt and must
	// not be swallowed.
	VerdictStateMismatch
	// VerdictAccept lets the message proceed to validation/sign-in.
	VerdictAccept
)

// ValidateMessage applies the guards that precede the validating state.
func ValidateMessage(msg platform.Message, wantOrigin, wantState string) Verdict {
	if msg.Type != MessageTypeSSOToken {
		return VerdictIgnore
	}
	if msg.Origin != wantOrigin {
		return VerdictIgnore
	}
	if msg.State != wantState {
		return VerdictStateMismatch
	}
	return VerdictAccept
}

// Event drives a state transition.
type Event interface{ isEvent() }

type EventPopupOpened struct{ Nonce string }
type EventListenerRegistered struct{}
type EventMessageAccepted struct{}
type EventStateMismatch struct{}
type EventSignInSucceeded struct{}
type EventSignInFailed struct{ Err string }
type EventPopupClosed struct{}

func (EventPopupOpened) isEvent()        {}
func (EventListenerRegistered) isEvent() {}
func (EventMessageAccepted) isEvent()    {}
func (EventStateMismatch) isEvent()      {}
func (EventSignInSucceeded) isEvent()    {}
func (EventSignInFailed) isEvent()       {}
func (EventPopupClosed) isEvent()        {}

// Next is the pure transition function. Events that do not apply to the
// current state leave it unchanged.
func Next(s State, e Event) State {
	switch ev := e.(type) {
	case EventPopupOpened:
		if s.Status == StatusIdle || s.Status == StatusError {
			return State{Status: StatusPopupOpened, Nonce: ev.Nonce}
		}
	case EventListenerRegistered:
		if s.Status == StatusPopupOpened {
			return State{Status: StatusAwaitingMessage, Nonce: s.Nonce}
		}
	case EventMessageAccepted:
		if s.Status == StatusAwaitingMessage {
			return State{Status: StatusValidating, Nonce: s.Nonce}
		}
	case EventStateMismatch:
		if s.Status == StatusAwaitingMessage {
			return State{Status: StatusError, Err: ErrInvalidState.Error()}
		}
	case EventSignInSucceeded:
		if s.Status == StatusValidating {
			return State{Status: StatusSignedIn}
		}
	case EventSignInFailed:
		if s.Status == StatusValidating {
			return State{Status: StatusError, Err: ev.Err}
		}
	case EventPopupClosed:
		// Manual close resets the machine so a fresh attempt can start.
		if s.Status == StatusPopupOpened || s.Status == StatusAwaitingMessage {
			return State{Status: StatusIdle}
		}
	}
	return s
}
