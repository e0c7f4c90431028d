package session

import (
	"time"

	"postforge/internal/domain/auth"
)

// State is a frozen snapshot of the session store. Consumers only ever read
// copies; the store owns the single mutable instance.
type State struct {
	Session           *auth.Session
	User              *auth.SessionUser
	IsLoading         bool
	IsAuthenticated   bool
	IsInitialized     bool
	Error             *AuthError
	SessionExpiry     *time.Time
	IsSessionExpiring bool
	IsRefreshing      bool
	LastRefresh       *time.Time
}

// Action is a session state transition. The set of actions is closed: every
// implementation lives in this package and the reducer's type switch is
// exhaustive over it.
type Action interface {
	isAction()
}

// setSession installs a validated session and its derived expiry fields.
type setSession struct {
	session  *auth.Session
	user     *auth.SessionUser
	expiry   time.Time
	expiring bool
}

// clearSession drops the session and all derived fields.
type clearSession struct{}

// setLoading toggles the loading flag.
type setLoading struct {
	loading bool
}

// setInitialized marks the store as having processed its first upstream signal.
type setInitialized struct{}

// setError records a classified failure.
type setError struct {
	err *AuthError
}

// clearError explicitly discards the recorded failure.
type clearError struct{}

// startRefresh marks a refresh as in flight.
type startRefresh struct{}

// completeRefresh marks the in-flight refresh as finished.
type completeRefresh struct {
	at time.Time
}

// checkSessionExpiry re-derives the expiring flag from a clock reading. The
// reading travels inside the action so replaying a transition log is
// deterministic.
type checkSessionExpiry struct {
	now    time.Time
	window time.Duration
}

func (setSession) isAction()         {}
func (clearSession) isAction()       {}
func (setLoading) isAction()         {}
func (setInitialized) isAction()     {}
func (setError) isAction()           {}
func (clearError) isAction()         {}
func (startRefresh) isAction()       {}
func (completeRefresh) isAction()    {}
func (checkSessionExpiry) isAction() {}

// reduce applies an action to a state and returns the next state. It is a
// pure function: no clocks, no I/O, no mutation of the input.
func reduce(s State, a Action) State {
	switch action := a.(type) {
	case setSession:
		expiry := action.expiry
		s.Session = action.session
		s.User = action.user
		s.IsAuthenticated = true
		s.IsLoading = false
		s.IsInitialized = true
		s.Error = nil
		s.SessionExpiry = &expiry
		s.IsSessionExpiring = action.expiring
		return s

	case clearSession:
		s.Session = nil
		s.User = nil
		s.IsAuthenticated = false
		s.IsLoading = false
		s.IsInitialized = true
		s.SessionExpiry = nil
		s.IsSessionExpiring = false
		s.IsRefreshing = false
		return s

	case setLoading:
		s.IsLoading = action.loading
		return s

	case setInitialized:
		s.IsInitialized = true
		s.IsLoading = false
		return s

	case setError:
		s.Error = action.err
		return s

	case clearError:
		s.Error = nil
		return s

	case startRefresh:
		s.IsRefreshing = true
		return s

	case completeRefresh:
		at := action.at
		s.IsRefreshing = false
		s.LastRefresh = &at
		return s

	case checkSessionExpiry:
		if s.SessionExpiry == nil {
			s.IsSessionExpiring = false
			return s
		}
		s.IsSessionExpiring = s.SessionExpiry.Sub(action.now) <= action.window
		return s
	}

	return s
}
