package services

import (
	"context"
	"sync"
	"time"

	"github.com/pipedeck/pipedeck/internal/domain"
)

// Navigator issues navigation commands for a guarded view. Navigate is the
// ordinary redirect; ForceNavigate is the hard fallback used when the
// ordinary one did not observably take effect.
type Navigator interface {
	Navigate(path string)
	ForceNavigate(path string)
}

// Locator reports the currently observed location of the guarded view.
type Locator interface {
	CurrentPath() string
}

// GuardDecision is the rendering outcome of one guard evaluation.
type GuardDecision int

const (
	// GuardLoading renders the loading placeholder; no side effects yet.
	GuardLoading GuardDecision = iota
	// GuardAllow renders the guarded content.
	GuardAllow
	// GuardRedirect means a navigation away has been issued (now or on an
	// earlier evaluation).
	GuardRedirect
)

// DefaultFallbackDelay is how long the guard waits after issuing a redirect
// before forcing a hard navigation if the location has not changed.
const DefaultFallbackDelay = 1000 * time.Millisecond

// RouteGuard gates one mounted view on the auth state. Protected guards
// redirect anonymous visitors to the sign-in destination; public-only guards
// (sign-in/sign-up views) mirror that and redirect authenticated visitors to
// the protected area.
//
// The guard holds a one-shot latch: at most one redirect is initiated per
// guard lifetime, no matter how many times Evaluate runs with the same
// triggering condition. The latch is set synchronously before the navigation
// call so re-evaluations triggered by the navigation itself cannot re-enter.
type RouteGuard struct {
	nav Navigator
	loc Locator

	guardedPath   string
	redirectTo    string
	publicOnly    bool
	fallbackDelay time.Duration

	mu                sync.Mutex
	redirectAttempted bool
	fallbackFired     bool
	fallbackTimer     *time.Timer
	released          bool
}

// GuardConfig configures a RouteGuard.
type GuardConfig struct {
	// GuardedPath is the location this guard protects.
	GuardedPath string
	// RedirectTo is the destination for rejected visitors.
	RedirectTo string
	// PublicOnly inverts the condition: authenticated visitors are the ones
	// redirected away.
	PublicOnly bool
	// FallbackDelay overrides DefaultFallbackDelay; zero keeps the default.
	FallbackDelay time.Duration
}

// NewRouteGuard creates a guard for one view lifetime. The latch resets only
// by constructing a new guard.
func NewRouteGuard(nav Navigator, loc Locator, cfg GuardConfig) *RouteGuard {
	delay := cfg.FallbackDelay
	if delay <= 0 {
		delay = DefaultFallbackDelay
	}
	return &RouteGuard{
		nav:           nav,
		loc:           loc,
		guardedPath:   cfg.GuardedPath,
		redirectTo:    cfg.RedirectTo,
		publicOnly:    cfg.PublicOnly,
		fallbackDelay: delay,
	}
}

// Evaluate runs the guard against a state snapshot. It is safe to call on
// every re-render; the redirect side effect fires at most once.
func (g *RouteGuard) Evaluate(state domain.AuthState) GuardDecision {
	g.mu.Lock()

	if g.redirectAttempted {
		g.mu.Unlock()
		return GuardRedirect
	}

	// Before initialization completes the guard renders the placeholder and
	// performs no side effects.
	if !state.IsInitialized {
		g.mu.Unlock()
		return GuardLoading
	}

	reject := !state.Authenticated()
	if g.publicOnly {
		reject = state.Authenticated()
	}
	if !reject {
		g.mu.Unlock()
		return GuardAllow
	}

	// Latch first, navigate second: a re-entrant evaluation triggered by the
	// navigation must already observe the latch.
	g.redirectAttempted = true
	g.fallbackTimer = time.AfterFunc(g.fallbackDelay, g.fireFallback)
	g.mu.Unlock()

	g.nav.Navigate(g.redirectTo)
	return GuardRedirect
}

// Watch evaluates every state delivered on the subscription channel until the
// context is canceled or the channel closes. It is the mount loop used by
// long-lived consumers such as realtime connections.
func (g *RouteGuard) Watch(ctx context.Context, states <-chan domain.AuthState) {
	defer g.Release()
	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-states:
			if !ok {
				return
			}
			g.Evaluate(state)
		}
	}
}

// Release cancels the fallback timer. Call on unmount; it does not reset the
// latch.
func (g *RouteGuard) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.released = true
	if g.fallbackTimer != nil {
		g.fallbackTimer.Stop()
		g.fallbackTimer = nil
	}
}

// fireFallback forces a hard navigation if the observed location still sits
// on the guarded path after the fallback delay. Fires at most once.
func (g *RouteGuard) fireFallback() {
	g.mu.Lock()
	if g.released || g.fallbackFired {
		g.mu.Unlock()
		return
	}
	if g.loc != nil && g.loc.CurrentPath() != g.guardedPath {
		g.mu.Unlock()
		return
	}
	g.fallbackFired = true
	g.mu.Unlock()

	g.nav.ForceNavigate(g.redirectTo)
}
