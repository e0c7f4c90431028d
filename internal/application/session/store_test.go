package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"postforge/internal/domain/auth"
)

type mockClient struct {
	mu           sync.Mutex
	refreshCalls int
	signOutCalls int
	refreshFunc  func(ctx context.Context) (*auth.Session, error)
	signOutErr   error
}

func (m *mockClient) Refresh(ctx context.Context) (*auth.Session, error) {
	m.mu.Lock()
	m.refreshCalls++
	fn := m.refreshFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx)
	}
	return validSession(time.Hour), nil
}

func (m *mockClient) SignOut(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signOutCalls++
	return m.signOutErr
}

func (m *mockClient) refreshCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshCalls
}

type mockNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (m *mockNavigator) NavigateTo(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths = append(m.paths, path)
}

func (m *mockNavigator) last() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.paths) == 0 {
		return ""
	}
	return m.paths[len(m.paths)-1]
}

func validSession(ttl time.Duration) *auth.Session {
	return &auth.Session{
		User: &auth.SessionUser{
			ID:    "550e8400-e29b-41d4-a716-446655440000",
			Email: "test@example.com",
		},
		Expires: time.Now().Add(ttl).UTC().Format(time.RFC3339Nano),
	}
}

func newTestStore(t *testing.T, client *mockClient, nav *mockNavigator, cfg Config) *Store {
	t.Helper()
	if client == nil {
		client = &mockClient{}
	}
	if nav == nil {
		nav = &mockNavigator{}
	}
	store := NewStore(client, nav, cfg, zerolog.Nop())
	t.Cleanup(store.Close)
	return store
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestStore_InitialState(t *testing.T) {
	store := newTestStore(t, nil, nil, DefaultConfig())

	state := store.Snapshot()
	if !state.IsLoading {
		t.Error("Expected initial state to be loading")
	}
	if state.IsInitialized {
		t.Error("Expected initial state to be uninitialized")
	}
	if state.IsAuthenticated {
		t.Error("Expected initial state to be unauthenticated")
	}
}

func TestStore_ValidSessionAuthenticates(t *testing.T) {
	store := newTestStore(t, nil, nil, DefaultConfig())

	sess := &auth.Session{
		User: &auth.SessionUser{
			ID:    "550e8400-e29b-41d4-a716-446655440000",
			Email: "test@example.com",
		},
		Expires: time.Now().Add(time.Hour).UTC().Format(time.RFC3339Nano),
	}
	store.HandleSessionChange(sess, auth.StatusAuthenticated)

	state := store.Snapshot()
	if !state.IsAuthenticated {
		t.Error("Expected authenticated state")
	}
	if state.Error != nil {
		t.Errorf("Expected no error, got %v", state.Error)
	}
	if state.User == nil || state.User.ID != "550e8400-e29b-41d4-a716-446655440000" {
		t.Error("Expected user to be adopted from session")
	}

	want, _ := sess.ExpiryTime()
	if state.SessionExpiry == nil || !state.SessionExpiry.Equal(want) {
		t.Errorf("Expected session expiry %v, got %v", want, state.SessionExpiry)
	}
	if state.IsSessionExpiring {
		t.Error("Expected session not to be expiring an hour out")
	}
}

func TestStore_InvalidSessionRejected(t *testing.T) {
	store := newTestStore(t, nil, nil, DefaultConfig())

	// Structurally broken upstream data must not be adopted.
	store.HandleSessionChange(&auth.Session{User: nil, Expires: "invalid-date"}, auth.StatusAuthenticated)

	state := store.Snapshot()
	if state.IsAuthenticated {
		t.Error("Expected unauthenticated state")
	}
	if state.Session != nil {
		t.Error("Expected session to be cleared")
	}
	if state.Error == nil {
		t.Fatal("Expected a classified error")
	}
	if state.Error.Code != CodeInvalidSession {
		t.Errorf("Expected code %q, got %q", CodeInvalidSession, state.Error.Code)
	}
}

func TestStore_ExpiredUpstreamSessionRejected(t *testing.T) {
	store := newTestStore(t, nil, nil, DefaultConfig())

	store.HandleSessionChange(validSession(-time.Minute), auth.StatusAuthenticated)

	state := store.Snapshot()
	if state.IsAuthenticated {
		t.Error("Expected unauthenticated state for expired session")
	}
	if state.Error == nil {
		t.Fatal("Expected a classified error")
	}
	if state.Error.Code != CodeSessionExpired {
		t.Errorf("Expected code %q, got %q", CodeSessionExpired, state.Error.Code)
	}
}

func TestStore_InvalidUserIDClassified(t *testing.T) {
	store := newTestStore(t, nil, nil, DefaultConfig())

	sess := validSession(time.Hour)
	sess.User.ID = "not-a-uuid"
	store.HandleSessionChange(sess, auth.StatusAuthenticated)

	state := store.Snapshot()
	if state.Error == nil || state.Error.Code != CodeInvalidUserID {
		t.Errorf("Expected InvalidUserID error, got %v", state.Error)
	}
}

func TestStore_UnauthenticatedIsNotAnError(t *testing.T) {
	store := newTestStore(t, nil, nil, DefaultConfig())

	store.HandleSessionChange(validSession(time.Hour), auth.StatusAuthenticated)
	store.HandleSessionChange(nil, auth.StatusUnauthenticated)

	state := store.Snapshot()
	if state.IsAuthenticated {
		t.Error("Expected unauthenticated state")
	}
	if state.Error != nil {
		t.Errorf("Expected no error on plain unauthenticated signal, got %v", state.Error)
	}
	if !state.IsInitialized {
		t.Error("Expected store to be initialized after a definite signal")
	}
}

func TestStore_ExplicitAuthFailureIsAnError(t *testing.T) {
	store := newTestStore(t, nil, nil, DefaultConfig())

	store.HandleAuthFailure("provider rejected credentials")

	state := store.Snapshot()
	if state.IsAuthenticated {
		t.Error("Expected unauthenticated state")
	}
	if state.Error == nil || state.Error.Code != CodeInvalidSession {
		t.Errorf("Expected InvalidSession error, got %v", state.Error)
	}
}

func TestStore_ClearErrorIdempotent(t *testing.T) {
	store := newTestStore(t, nil, nil, DefaultConfig())

	store.HandleAuthFailure("boom")
	if store.Snapshot().Error == nil {
		t.Fatal("Expected an error before clearing")
	}

	store.ClearError()
	if store.Snapshot().Error != nil {
		t.Error("Expected error to be nil after first clear")
	}

	store.ClearError()
	if store.Snapshot().Error != nil {
		t.Error("Expected error to be nil after second clear")
	}
}

func TestStore_SuccessfulTransitionSupersedesError(t *testing.T) {
	store := newTestStore(t, nil, nil, DefaultConfig())

	store.HandleAuthFailure("boom")
	store.HandleSessionChange(validSession(time.Hour), auth.StatusAuthenticated)

	state := store.Snapshot()
	if state.Error != nil {
		t.Errorf("Expected error to be superseded, got %v", state.Error)
	}
	if !state.IsAuthenticated {
		t.Error("Expected authenticated state")
	}
}

func TestStore_RefreshSuccess(t *testing.T) {
	client := &mockClient{}
	store := newTestStore(t, client, nil, DefaultConfig())
	store.HandleSessionChange(validSession(time.Hour), auth.StatusAuthenticated)

	if err := store.RefreshSession(context.Background()); err != nil {
		t.Fatalf("RefreshSession failed: %v", err)
	}

	state := store.Snapshot()
	if state.IsRefreshing {
		t.Error("Expected refresh to be complete")
	}
	if state.LastRefresh == nil {
		t.Error("Expected LastRefresh to be recorded")
	}
	if !state.IsAuthenticated {
		t.Error("Expected authenticated state after refresh")
	}
	if client.refreshCount() != 1 {
		t.Errorf("Expected 1 refresh call, got %d", client.refreshCount())
	}
}

func TestStore_RefreshFailureKeepsSession(t *testing.T) {
	client := &mockClient{
		refreshFunc: func(ctx context.Context) (*auth.Session, error) {
			return nil, errors.New("network down")
		},
	}
	store := newTestStore(t, client, nil, DefaultConfig())
	store.HandleSessionChange(validSession(time.Hour), auth.StatusAuthenticated)

	err := store.RefreshSession(context.Background())
	if err == nil {
		t.Fatal("Expected refresh error")
	}

	state := store.Snapshot()
	if state.Error == nil || state.Error.Code != CodeRefreshFailed {
		t.Errorf("Expected RefreshFailed error, got %v", state.Error)
	}
	if !state.Error.Retryable() {
		t.Error("Expected RefreshFailed to be retryable")
	}
	// A failed refresh must not destroy a still-valid session.
	if !state.IsAuthenticated || state.Session == nil {
		t.Error("Expected existing session to survive a failed refresh")
	}
}

func TestStore_RefreshSingleFlight(t *testing.T) {
	release := make(chan struct{})
	client := &mockClient{
		refreshFunc: func(ctx context.Context) (*auth.Session, error) {
			<-release
			return validSession(time.Hour), nil
		},
	}
	store := newTestStore(t, client, nil, DefaultConfig())
	store.HandleSessionChange(validSession(time.Hour), auth.StatusAuthenticated)

	done := make(chan error, 1)
	go func() { done <- store.RefreshSession(context.Background()) }()

	waitFor(t, time.Second, func() bool { return store.Snapshot().IsRefreshing }, "first refresh never started")

	// Second call while the first is in flight is a no-op.
	if err := store.RefreshSession(context.Background()); err != nil {
		t.Errorf("Expected concurrent refresh to be a no-op, got %v", err)
	}
	if client.refreshCount() != 1 {
		t.Errorf("Expected a single refresh call, got %d", client.refreshCount())
	}

	close(release)
	if err := <-done; err != nil {
		t.Errorf("First refresh failed: %v", err)
	}
}

func TestStore_SignOutClearsStateEvenOnDelegateFailure(t *testing.T) {
	client := &mockClient{signOutErr: errors.New("provider unreachable")}
	nav := &mockNavigator{}
	store := newTestStore(t, client, nav, DefaultConfig())
	store.HandleSessionChange(validSession(time.Hour), auth.StatusAuthenticated)

	err := store.SignOut(context.Background())
	if err == nil {
		t.Error("Expected delegate error to be reported")
	}

	state := store.Snapshot()
	if state.IsAuthenticated || state.Session != nil {
		t.Error("Expected local state to be cleared regardless of delegate failure")
	}
	if nav.last() != "/auth/signin" {
		t.Errorf("Expected navigation to sign-in path, got %q", nav.last())
	}
}

func TestStore_TimerForceClearsLapsedSession(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CheckInterval = 10 * time.Millisecond
	cfg.WarningWindow = time.Millisecond
	cfg.AutoRefresh = false

	store := newTestStore(t, nil, nil, cfg)
	store.HandleSessionChange(validSession(50*time.Millisecond), auth.StatusAuthenticated)

	waitFor(t, 2*time.Second, func() bool {
		state := store.Snapshot()
		return !state.IsAuthenticated && state.Error != nil
	}, "timer never cleared the lapsed session")

	state := store.Snapshot()
	if state.Error.Code != CodeSessionExpired {
		t.Errorf("Expected SessionExpired, got %q", state.Error.Code)
	}
	if state.Session != nil {
		t.Error("Expected session to be cleared")
	}
}

func TestStore_TimerTriggersAutoRefresh(t *testing.T) {
	client := &mockClient{}
	cfg := DefaultConfig()
	cfg.CheckInterval = 10 * time.Millisecond
	cfg.WarningWindow = 2 * time.Hour // always inside the window

	store := newTestStore(t, client, nil, cfg)
	store.HandleSessionChange(validSession(time.Hour), auth.StatusAuthenticated)

	waitFor(t, 2*time.Second, func() bool { return client.refreshCount() >= 1 }, "auto-refresh never fired")
}

func TestStore_TimerStoppedOnUnauthenticated(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CheckInterval = 10 * time.Millisecond

	store := newTestStore(t, nil, nil, cfg)
	store.HandleSessionChange(validSession(time.Hour), auth.StatusAuthenticated)

	store.mu.Lock()
	running := store.ticker != nil
	store.mu.Unlock()
	if !running {
		t.Fatal("Expected timer to be running while authenticated")
	}

	store.HandleSessionChange(nil, auth.StatusUnauthenticated)

	store.mu.Lock()
	running = store.ticker != nil
	store.mu.Unlock()
	if running {
		t.Error("Expected timer to be torn down on unauthenticated transition")
	}
}

func TestStore_SignOutDiscardsInFlightRefresh(t *testing.T) {
	release := make(chan struct{})
	client := &mockClient{
		refreshFunc: func(ctx context.Context) (*auth.Session, error) {
			<-release
			return validSession(time.Hour), nil
		},
	}
	nav := &mockNavigator{}
	store := newTestStore(t, client, nav, DefaultConfig())
	store.HandleSessionChange(validSession(time.Hour), auth.StatusAuthenticated)

	done := make(chan error, 1)
	go func() { done <- store.RefreshSession(context.Background()) }()
	waitFor(t, time.Second, func() bool { return store.Snapshot().IsRefreshing }, "refresh never started")

	if err := store.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}
	if store.Snapshot().IsAuthenticated {
		t.Fatal("Expected state to be cleared immediately after sign-out")
	}

	close(release)
	if err := <-done; err != nil {
		t.Errorf("Expected discarded refresh to return nil, got %v", err)
	}

	// The refresh completed after sign-out; its result must not
	// re-authenticate the store.
	state := store.Snapshot()
	if state.IsAuthenticated || state.Session != nil || state.User != nil {
		t.Error("Expected store to stay signed out after a stale refresh completed")
	}
	if state.Error != nil {
		t.Errorf("Expected no error after sign-out, got %v", state.Error)
	}
	if nav.last() != "/auth/signin" {
		t.Errorf("Expected navigation to sign-in path, got %q", nav.last())
	}
}

func TestStore_UnauthenticatedSignalDiscardsInFlightRefresh(t *testing.T) {
	release := make(chan struct{})
	client := &mockClient{
		refreshFunc: func(ctx context.Context) (*auth.Session, error) {
			<-release
			return validSession(time.Hour), nil
		},
	}
	store := newTestStore(t, client, nil, DefaultConfig())
	store.HandleSessionChange(validSession(time.Hour), auth.StatusAuthenticated)

	done := make(chan error, 1)
	go func() { done <- store.RefreshSession(context.Background()) }()
	waitFor(t, time.Second, func() bool { return store.Snapshot().IsRefreshing }, "refresh never started")

	store.HandleSessionChange(nil, auth.StatusUnauthenticated)

	close(release)
	if err := <-done; err != nil {
		t.Errorf("Expected discarded refresh to return nil, got %v", err)
	}

	state := store.Snapshot()
	if state.IsAuthenticated || state.Session != nil {
		t.Error("Expected upstream clear to win over a stale refresh result")
	}
}

func TestStore_SignOutDiscardsInFlightRefreshFailure(t *testing.T) {
	release := make(chan struct{})
	client := &mockClient{
		refreshFunc: func(ctx context.Context) (*auth.Session, error) {
			<-release
			return nil, errors.New("network down")
		},
	}
	store := newTestStore(t, client, nil, DefaultConfig())
	store.HandleSessionChange(validSession(time.Hour), auth.StatusAuthenticated)

	done := make(chan error, 1)
	go func() { done <- store.RefreshSession(context.Background()) }()
	waitFor(t, time.Second, func() bool { return store.Snapshot().IsRefreshing }, "refresh never started")

	if err := store.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Errorf("Expected discarded refresh to return nil, got %v", err)
	}

	// A stale failure must not surface an error on the signed-out state.
	if state := store.Snapshot(); state.Error != nil {
		t.Errorf("Expected no error after sign-out, got %v", state.Error)
	}
}

func TestStore_CloseDiscardsInFlightRefresh(t *testing.T) {
	release := make(chan struct{})
	client := &mockClient{
		refreshFunc: func(ctx context.Context) (*auth.Session, error) {
			<-release
			return validSession(time.Hour), nil
		},
	}
	store := newTestStore(t, client, nil, DefaultConfig())
	store.HandleSessionChange(validSession(time.Minute), auth.StatusAuthenticated)

	done := make(chan error, 1)
	go func() { done <- store.RefreshSession(context.Background()) }()
	waitFor(t, time.Second, func() bool { return store.Snapshot().IsRefreshing }, "refresh never started")

	store.Close()
	close(release)

	if err := <-done; err != nil {
		t.Errorf("Expected discarded refresh to return nil, got %v", err)
	}
}

func TestStore_SubscribeAndUnsubscribe(t *testing.T) {
	store := newTestStore(t, nil, nil, DefaultConfig())

	var mu sync.Mutex
	var seen []bool
	unsubscribe := store.Subscribe(func(s State) {
		mu.Lock()
		seen = append(seen, s.IsAuthenticated)
		mu.Unlock()
	})

	store.HandleSessionChange(validSession(time.Hour), auth.StatusAuthenticated)

	mu.Lock()
	got := len(seen)
	mu.Unlock()
	if got == 0 {
		t.Fatal("Expected subscriber to be notified")
	}

	unsubscribe()
	store.HandleSessionChange(nil, auth.StatusUnauthenticated)

	mu.Lock()
	after := len(seen)
	mu.Unlock()
	if after != got {
		t.Error("Expected no notifications after unsubscribe")
	}
}

func TestStore_TimeUntilExpiry(t *testing.T) {
	store := newTestStore(t, nil, nil, DefaultConfig())

	if _, ok := store.TimeUntilExpiry(); ok {
		t.Error("Expected no expiry before authentication")
	}

	store.HandleSessionChange(validSession(time.Hour), auth.StatusAuthenticated)

	d, ok := store.TimeUntilExpiry()
	if !ok {
		t.Fatal("Expected a known expiry while authenticated")
	}
	if d <= 55*time.Minute || d > time.Hour {
		t.Errorf("Expected roughly an hour until expiry, got %v", d)
	}
}

func TestStore_ExpiringSessionFlagged(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AutoRefresh = false

	store := newTestStore(t, nil, nil, cfg)
	store.HandleSessionChange(validSession(2*time.Minute), auth.StatusAuthenticated)

	state := store.Snapshot()
	if !state.IsSessionExpiring {
		t.Error("Expected session two minutes from expiry to be flagged as expiring")
	}
}
