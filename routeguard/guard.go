package routeguard

import "net/http"

// Decision is the render outcome for a guarded route.
type Decision int

const (
	// DecisionLoading blocks rendering until session/permission state is
	// ready.
	DecisionLoading Decision = iota
	// DecisionAllow renders the route.
	DecisionAllow
	// DecisionAllowSessionExpired renders the route but signals a
	// session error alongside it: some routes, e.g. login, must stay
	// reachable without a session.
	DecisionAllowSessionExpired
	// DecisionForbidden replaces the route with a forbidden response.
	DecisionForbidden
)

// PermissionChecker is the slice of the permission cache the guard needs.
type PermissionChecker interface {
	Loaded() bool
	HasSome(perms ...string) bool
}

// State captures the session/permission readiness the decision depends on.
type State struct {
	SessionLoading bool
	SessionError   bool
}

// Decide applies the rendering rule for one pathname. Required
// permissions are OR-combined: holding any one of them is enough.
func Decide(pathname string, state State, perms PermissionChecker, enforce bool, rules []Rule) Decision {
	if state.SessionLoading {
		return DecisionLoading
	}
	if enforce && !perms.Loaded() {
		return DecisionLoading
	}

	if enforce {
		required := Resolve(pathname, rules)
		if len(required) > 0 && !perms.HasSome(required...) {
			return DecisionForbidden
		}
	}

	if state.SessionError {
		return DecisionAllowSessionExpired
	}
	return DecisionAllow
}

// Guard is the HTTP middleware form of the decision.
type Guard struct {
	enforce bool
	rules   []Rule
}

func New(enforce bool, rules []Rule) *Guard {
	if rules == nil {
		rules = DefaultRules
	}
	return &Guard{enforce: enforce, rules: rules}
}

// SessionExpiredHeader is set on responses that render despite a session
// error, so the dashboard can show its session-expired notice.
const SessionExpiredHeader = "X-Session-Expired"

// Middleware wires Decide into a handler chain. stateFor derives the
// session state and permission checker from the request, typically from
// the request's cookies.
func (g *Guard) Middleware(stateFor func(*http.Request) (State, PermissionChecker)) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			state, perms := stateFor(r)
			switch Decide(r.URL.Path, state, perms, g.enforce, g.rules) {
			case DecisionLoading:
				w.Header().Set("Retry-After", "1")
				http.Error(w, "session state loading", http.StatusServiceUnavailable)
			case DecisionForbidden:
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			case DecisionAllowSessionExpired:
				w.Header().Set(SessionExpiredHeader, "1")
				next(w, r)
			default:
				next(w, r)
			}
		}
	}
}
