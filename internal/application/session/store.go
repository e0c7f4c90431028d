package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"postforge/internal/domain/auth"
)

// Client is the external identity-session collaborator the store delegates
// refresh and sign-out to. Timeouts are its concern; the store imposes none.
type Client interface {
	Refresh(ctx context.Context) (*auth.Session, error)
	SignOut(ctx context.Context) error
}

// Navigator performs navigation requests on behalf of the store and guard.
type Navigator interface {
	NavigateTo(path string)
}

// Config controls the store's expiry scheduling policy.
type Config struct {
	WarningWindow time.Duration // how close to expiry counts as "expiring"
	CheckInterval time.Duration // how often the expiry timer re-evaluates
	AutoRefresh   bool          // refresh automatically inside the warning window
	SignInPath    string        // navigation target after sign-out
}

// DefaultConfig returns the standard scheduling policy.
func DefaultConfig() Config {
	return Config{
		WarningWindow: 5 * time.Minute,
		CheckInterval: 60 * time.Second,
		AutoRefresh:   true,
		SignInPath:    "/auth/signin",
	}
}

func (c Config) withDefaults() Config {
	if c.WarningWindow <= 0 {
		c.WarningWindow = 5 * time.Minute
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = 60 * time.Second
	}
	if c.SignInPath == "" {
		c.SignInPath = "/auth/signin"
	}
	return c
}

// Store is the reducer-driven session state machine. All transitions go
// through dispatch, which serializes them; consumers read frozen snapshots
// or subscribe for updates.
type Store struct {
	cfg    Config
	client Client
	nav    Navigator
	logger zerolog.Logger

	mu      sync.Mutex
	state   State
	subs    map[int]func(State)
	nextSub int
	closed  bool

	// epoch is the session generation. Every clear bumps it, so a refresh
	// that was in flight when the session was cleared can detect that its
	// result belongs to a previous generation and discard it.
	epoch uint64

	// Expiry timer. Owned by this store instance and torn down
	// synchronously on every unauthenticated transition and on Close.
	ticker   *time.Ticker
	stopTick chan struct{}
}

// NewStore creates a session store in the uninitialized/loading state. The
// store does nothing until upstream session signals arrive through
// HandleSessionChange.
func NewStore(client Client, nav Navigator, cfg Config, logger zerolog.Logger) *Store {
	return &Store{
		cfg:    cfg.withDefaults(),
		client: client,
		nav:    nav,
		logger: logger.With().Str("component", "session-store").Logger(),
		state:  State{IsLoading: true},
		subs:   make(map[int]func(State)),
	}
}

// dispatch applies an action under the lock and notifies subscribers with
// the resulting snapshot after the lock is released.
func (s *Store) dispatch(actions ...Action) {
	s.dispatchIfFresh(nil, actions...)
}

// dispatchIfFresh is dispatch gated on the session generation: when epoch is
// non-nil the actions are applied only if the store is still open and no
// clear happened since the generation was observed. The check and the state
// transition happen under one lock acquisition so a concurrent clear cannot
// slip between them. Reports whether the actions were applied.
func (s *Store) dispatchIfFresh(epoch *uint64, actions ...Action) bool {
	s.mu.Lock()
	if epoch != nil && (s.closed || s.epoch != *epoch) {
		s.mu.Unlock()
		return false
	}
	for _, a := range actions {
		s.state = reduce(s.state, a)
	}
	snapshot := s.state
	listeners := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
	return true
}

// invalidateRefresh advances the session generation so any in-flight refresh
// result is discarded instead of re-installing a cleared session.
func (s *Store) invalidateRefresh() {
	s.mu.Lock()
	s.epoch++
	s.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers a listener invoked with a snapshot after every
// transition. The returned function unsubscribes it.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// HandleSessionChange processes an upstream session signal. Invalid non-nil
// sessions are rejected with a classified error and the session cleared;
// external session data is never adopted without validation. A plain
// unauthenticated signal is not an error: the session is cleared silently.
func (s *Store) HandleSessionChange(sess *auth.Session, status auth.SessionStatus) {
	switch status {
	case auth.StatusLoading:
		s.dispatch(setLoading{loading: true})
		return

	case auth.StatusUnauthenticated:
		s.stopExpiryTimer()
		s.invalidateRefresh()
		s.dispatch(clearSession{})
		return

	case auth.StatusAuthenticated:
		if err := sess.Validate(time.Now()); err != nil {
			authErr := classifyValidationError(err)
			s.logger.Warn().Str("code", string(authErr.Code)).Err(err).Msg("rejecting invalid upstream session")
			s.stopExpiryTimer()
			s.invalidateRefresh()
			s.dispatch(clearSession{}, setError{err: authErr})
			return
		}

		expiry, _ := sess.ExpiryTime()
		expiring := time.Until(expiry) <= s.cfg.WarningWindow
		s.dispatch(setSession{
			session:  sess,
			user:     sess.User,
			expiry:   expiry,
			expiring: expiring,
		})
		s.startExpiryTimer()
	}
}

// HandleAuthFailure records an explicitly reported upstream authentication
// failure. Unlike a plain unauthenticated signal, this is an error state.
func (s *Store) HandleAuthFailure(details string) {
	s.stopExpiryTimer()
	s.invalidateRefresh()
	s.dispatch(clearSession{}, setError{
		err: NewAuthError(CodeInvalidSession, "authentication failed", details),
	})
}

// CheckSessionExpiry re-evaluates the session against the wall clock. A
// lapsed session is force-cleared with a SessionExpired error; a session
// inside the warning window triggers a refresh when auto-refresh is enabled
// and none is already in flight.
func (s *Store) CheckSessionExpiry() {
	s.mu.Lock()
	if !s.state.IsAuthenticated || s.state.SessionExpiry == nil {
		s.mu.Unlock()
		return
	}
	expiry := *s.state.SessionExpiry
	refreshing := s.state.IsRefreshing
	s.mu.Unlock()

	now := time.Now()
	if !expiry.After(now) {
		s.logger.Info().Time("expiry", expiry).Msg("session lapsed, clearing")
		s.stopExpiryTimer()
		s.invalidateRefresh()
		s.dispatch(clearSession{}, setError{
			err: NewAuthError(CodeSessionExpired, "session has expired", ""),
		})
		return
	}

	s.dispatch(checkSessionExpiry{now: now, window: s.cfg.WarningWindow})

	if s.cfg.AutoRefresh && !refreshing && expiry.Sub(now) <= s.cfg.WarningWindow {
		go func() {
			if err := s.RefreshSession(context.Background()); err != nil {
				s.logger.Warn().Err(err).Msg("scheduled refresh failed")
			}
		}()
	}
}

// TimeUntilExpiry returns the remaining authorization window. The second
// return value is false when no expiry is known.
func (s *Store) TimeUntilExpiry() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.SessionExpiry == nil {
		return 0, false
	}
	return time.Until(*s.state.SessionExpiry), true
}

// RefreshSession obtains a fresh session from the collaborator. Only one
// refresh runs at a time; a failed attempt records RefreshFailed but never
// destroys a session that has not actually expired. A result arriving after
// the session was cleared (sign-out, upstream unauthenticated signal, expiry)
// or the store was closed belongs to a previous generation and is discarded,
// so a stale refresh can never re-authenticate a signed-out store.
func (s *Store) RefreshSession(ctx context.Context) error {
	s.mu.Lock()
	if s.closed || s.state.IsRefreshing {
		s.mu.Unlock()
		return nil
	}
	epoch := s.epoch
	s.state = reduce(s.state, startRefresh{})
	s.mu.Unlock()

	sess, err := s.client.Refresh(ctx)

	if err != nil {
		authErr := NewAuthError(CodeRefreshFailed, "failed to refresh session", err.Error())
		if !s.dispatchIfFresh(&epoch, completeRefresh{at: time.Now()}, setError{err: authErr}) {
			return nil
		}
		return authErr
	}

	if vErr := sess.Validate(time.Now()); vErr != nil {
		authErr := NewAuthError(CodeRefreshFailed, "refresh returned an invalid session", vErr.Error())
		if !s.dispatchIfFresh(&epoch, completeRefresh{at: time.Now()}, setError{err: authErr}) {
			return nil
		}
		return authErr
	}

	expiry, _ := sess.ExpiryTime()
	installed := s.dispatchIfFresh(&epoch,
		setSession{
			session:  sess,
			user:     sess.User,
			expiry:   expiry,
			expiring: time.Until(expiry) <= s.cfg.WarningWindow,
		},
		completeRefresh{at: time.Now()},
	)
	if !installed {
		return nil
	}
	s.startExpiryTimer()
	s.logger.Info().Time("expiry", expiry).Msg("session refreshed")
	return nil
}

// SignOut delegates to the collaborator's sign-out, then unconditionally
// clears local state and requests navigation to the sign-in path. Local
// state never remains authenticated after a user-initiated sign-out, even
// when the delegate fails. Sign-out is an explicit error-discarding flow:
// the user is leaving for the sign-in page, so any recorded failure is
// cleared along with the session rather than shown on a signed-out screen.
func (s *Store) SignOut(ctx context.Context) error {
	err := s.client.SignOut(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("sign-out delegate failed, clearing local session anyway")
	}

	s.stopExpiryTimer()
	s.invalidateRefresh()
	s.dispatch(clearSession{}, clearError{})
	if s.nav != nil {
		s.nav.NavigateTo(s.cfg.SignInPath)
	}
	return err
}

// ClearError discards the recorded error. Idempotent.
func (s *Store) ClearError() {
	s.dispatch(clearError{})
}

// Close tears the store down: the expiry timer is stopped synchronously and
// no further transitions are applied. An in-flight refresh is allowed to
// finish; its result is discarded.
func (s *Store) Close() {
	s.stopExpiryTimer()
	s.mu.Lock()
	s.closed = true
	s.subs = make(map[int]func(State))
	s.mu.Unlock()
}

// startExpiryTimer begins the recurring expiry check if not already running.
// Only an authenticated store gets a timer, so a clear that races the tail of
// a refresh cannot leave one ticking over an empty session.
func (s *Store) startExpiryTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker != nil || s.closed || !s.state.IsAuthenticated {
		return
	}
	s.ticker = time.NewTicker(s.cfg.CheckInterval)
	s.stopTick = make(chan struct{})

	ticker, stop := s.ticker, s.stopTick
	go func() {
		for {
			select {
			case <-ticker.C:
				s.CheckSessionExpiry()
			case <-stop:
				return
			}
		}
	}()
}

// stopExpiryTimer halts the recurring check. Safe to call when no timer is
// running; synchronous so no tick can fire after an unauthenticated
// transition completes.
func (s *Store) stopExpiryTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.stopTick)
	s.ticker = nil
	s.stopTick = nil
}
