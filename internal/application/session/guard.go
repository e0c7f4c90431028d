package session

import "time"

// GuardConfig configures a route guard for one protected view.
type GuardConfig struct {
	RedirectTo       string // sign-in entry point for unauthenticated visitors
	RequireAuth      bool
	AllowGuestAccess bool // short-circuits straight to content
	ValidateSession  bool // re-check session structure and expiry
}

// DefaultGuardConfig returns the standard protected-route configuration.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		RedirectTo:      "/auth/signin",
		RequireAuth:     true,
		ValidateSession: true,
	}
}

// OutcomeKind is what a guarded view should render.
type OutcomeKind int

const (
	OutcomeContent OutcomeKind = iota
	OutcomeLoading
	OutcomeError
	OutcomeRedirect
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeContent:
		return "content"
	case OutcomeLoading:
		return "loading"
	case OutcomeError:
		return "error"
	case OutcomeRedirect:
		return "redirect"
	}
	return "unknown"
}

// Outcome is the guard's decision for one state snapshot.
type Outcome struct {
	Kind       OutcomeKind
	Err        *AuthError // set when Kind is OutcomeError
	Retryable  bool       // whether the error outcome should offer a retry
	RedirectTo string     // set when Kind is OutcomeRedirect
}

// Resolve computes the renderable outcome for a session state, in strict
// priority order: loading, error, redirect, content. Guest-accessible routes
// short-circuit to content regardless of session state. Resolve itself is
// side-effect free; navigation is the Guard's job.
func Resolve(state State, cfg GuardConfig) Outcome {
	return resolveAt(state, cfg, time.Now())
}

func resolveAt(state State, cfg GuardConfig, now time.Time) Outcome {
	if cfg.AllowGuestAccess || !cfg.RequireAuth {
		return Outcome{Kind: OutcomeContent}
	}

	if !state.IsInitialized || state.IsLoading {
		return Outcome{Kind: OutcomeLoading}
	}

	if state.Error != nil {
		return Outcome{Kind: OutcomeError, Err: state.Error, Retryable: state.Error.Retryable()}
	}

	if !state.IsAuthenticated || state.Session == nil || state.User == nil {
		return Outcome{Kind: OutcomeRedirect, RedirectTo: cfg.RedirectTo}
	}

	if cfg.ValidateSession {
		if err := state.Session.Validate(now); err != nil {
			return Outcome{Kind: OutcomeRedirect, RedirectTo: cfg.RedirectTo}
		}
	}

	return Outcome{Kind: OutcomeContent}
}

// Guard tracks redirect state for one view so the navigation side effect
// fires once per transition into the redirect outcome, not on every
// evaluation.
type Guard struct {
	cfg        GuardConfig
	nav        Navigator
	redirected bool
}

// NewGuard creates a guard for a view. A nil Navigator disables the
// navigation side effect; Observe still reports the redirect outcome.
func NewGuard(cfg GuardConfig, nav Navigator) *Guard {
	if cfg.RedirectTo == "" {
		cfg.RedirectTo = "/auth/signin"
	}
	return &Guard{cfg: cfg, nav: nav}
}

// Observe evaluates a state snapshot and performs the redirect side effect
// when newly entering the redirect outcome. Intended to be registered as a
// store subscriber.
func (g *Guard) Observe(state State) Outcome {
	out := Resolve(state, g.cfg)
	if out.Kind == OutcomeRedirect {
		if !g.redirected && g.nav != nil {
			g.nav.NavigateTo(out.RedirectTo)
		}
		g.redirected = true
	} else {
		g.redirected = false
	}
	return out
}
