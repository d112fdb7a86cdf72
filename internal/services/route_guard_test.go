package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pipedeck/pipedeck/internal/domain"
	"github.com/pipedeck/pipedeck/internal/testutil"
)

// recordingNavigator captures navigation calls for assertions.
type recordingNavigator struct {
	mu     sync.Mutex
	navs   []string
	forced []string
}

func (n *recordingNavigator) Navigate(path string) {
	n.mu.Lock()
	n.navs = append(n.navs, path)
	n.mu.Unlock()
}

func (n *recordingNavigator) ForceNavigate(path string) {
	n.mu.Lock()
	n.forced = append(n.forced, path)
	n.mu.Unlock()
}

func (n *recordingNavigator) counts() (navigates, forces int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.navs), len(n.forced)
}

// staticLocator reports a fixed path.
type staticLocator struct {
	mu   sync.Mutex
	path string
}

func (l *staticLocator) CurrentPath() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.path
}

func (l *staticLocator) set(path string) {
	l.mu.Lock()
	l.path = path
	l.mu.Unlock()
}

func anonymousState() domain.AuthState {
	return domain.AuthState{IsInitialized: true}
}

func authenticatedState() domain.AuthState {
	user := testutil.MockUser("user1", "user1@example.com", "User One")
	return domain.AuthState{
		Session:       testutil.MockSession("tok-a", user),
		User:          user,
		IsInitialized: true,
	}
}

func protectedGuard(nav Navigator, loc Locator, delay time.Duration) *RouteGuard {
	return NewRouteGuard(nav, loc, GuardConfig{
		GuardedPath:   "/dashboard",
		RedirectTo:    "/login",
		FallbackDelay: delay,
	})
}

func TestEvaluate_LoadingBeforeInitialization(t *testing.T) {
	nav := &recordingNavigator{}
	guard := protectedGuard(nav, &staticLocator{path: "/dashboard"}, time.Minute)
	defer guard.Release()

	decision := guard.Evaluate(domain.AuthState{IsLoading: true})
	if decision != GuardLoading {
		t.Fatalf("expected GuardLoading, got %v", decision)
	}
	if n, f := nav.counts(); n != 0 || f != 0 {
		t.Error("no navigation may happen before initialization")
	}
}

func TestEvaluate_AllowsAuthenticated(t *testing.T) {
	nav := &recordingNavigator{}
	guard := protectedGuard(nav, &staticLocator{path: "/dashboard"}, time.Minute)
	defer guard.Release()

	if decision := guard.Evaluate(authenticatedState()); decision != GuardAllow {
		t.Fatalf("expected GuardAllow, got %v", decision)
	}
	if n, _ := nav.counts(); n != 0 {
		t.Error("allowed visitors must not be redirected")
	}
}

func TestEvaluate_RedirectsAnonymousExactlyOnce(t *testing.T) {
	nav := &recordingNavigator{}
	guard := protectedGuard(nav, &staticLocator{path: "/dashboard"}, time.Minute)
	defer guard.Release()

	for i := 0; i < 5; i++ {
		if decision := guard.Evaluate(anonymousState()); decision != GuardRedirect {
			t.Fatalf("evaluation %d: expected GuardRedirect, got %v", i, decision)
		}
	}

	n, _ := nav.counts()
	if n != 1 {
		t.Fatalf("expected exactly one Navigate across re-evaluations, got %d", n)
	}
	if nav.navs[0] != "/login" {
		t.Errorf("expected redirect to /login, got %s", nav.navs[0])
	}
}

func TestEvaluate_LatchHoldsAfterStateImproves(t *testing.T) {
	nav := &recordingNavigator{}
	guard := protectedGuard(nav, &staticLocator{path: "/dashboard"}, time.Minute)
	defer guard.Release()

	guard.Evaluate(anonymousState())

	// Even a now-authenticated state keeps reporting the redirect: the latch
	// resets only with a new guard.
	if decision := guard.Evaluate(authenticatedState()); decision != GuardRedirect {
		t.Fatalf("expected latched GuardRedirect, got %v", decision)
	}
}

func TestPublicOnly_MirrorsTheCondition(t *testing.T) {
	nav := &recordingNavigator{}
	guard := NewRouteGuard(nav, &staticLocator{path: "/login"}, GuardConfig{
		GuardedPath:   "/login",
		RedirectTo:    "/dashboard",
		PublicOnly:    true,
		FallbackDelay: time.Minute,
	})
	defer guard.Release()

	if decision := guard.Evaluate(anonymousState()); decision != GuardAllow {
		t.Fatalf("anonymous visitor must be allowed on a public-only view, got %v", decision)
	}
	if decision := guard.Evaluate(authenticatedState()); decision != GuardRedirect {
		t.Fatalf("authenticated visitor must be redirected off a public-only view, got %v", decision)
	}
	if n, _ := nav.counts(); n != 1 {
		t.Errorf("expected one Navigate, got %d", n)
	}
	if nav.navs[0] != "/dashboard" {
		t.Errorf("expected redirect to /dashboard, got %s", nav.navs[0])
	}
}

func TestFallback_FiresOnceWhenLocationUnchanged(t *testing.T) {
	nav := &recordingNavigator{}
	loc := &staticLocator{path: "/dashboard"}
	guard := protectedGuard(nav, loc, 20*time.Millisecond)
	defer guard.Release()

	guard.Evaluate(anonymousState())
	time.Sleep(80 * time.Millisecond)

	_, f := nav.counts()
	if f != 1 {
		t.Fatalf("expected one forced navigation, got %d", f)
	}
	if nav.forced[0] != "/login" {
		t.Errorf("expected forced navigation to /login, got %s", nav.forced[0])
	}
}

func TestFallback_SkippedWhenNavigationTookEffect(t *testing.T) {
	nav := &recordingNavigator{}
	loc := &staticLocator{path: "/dashboard"}
	guard := protectedGuard(nav, loc, 20*time.Millisecond)
	defer guard.Release()

	guard.Evaluate(anonymousState())
	loc.set("/login")
	time.Sleep(80 * time.Millisecond)

	if _, f := nav.counts(); f != 0 {
		t.Errorf("fallback must not fire once the location moved, got %d forces", f)
	}
}

func TestRelease_CancelsPendingFallback(t *testing.T) {
	nav := &recordingNavigator{}
	guard := protectedGuard(nav, &staticLocator{path: "/dashboard"}, 20*time.Millisecond)

	guard.Evaluate(anonymousState())
	guard.Release()
	time.Sleep(80 * time.Millisecond)

	if _, f := nav.counts(); f != 0 {
		t.Errorf("released guard must not force-navigate, got %d forces", f)
	}
}

func TestWatch_EvaluatesDeliveredStates(t *testing.T) {
	nav := &recordingNavigator{}
	guard := protectedGuard(nav, &staticLocator{path: "/dashboard"}, time.Minute)

	states := make(chan domain.AuthState, 4)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		guard.Watch(ctx, states)
		close(done)
	}()

	states <- domain.AuthState{IsLoading: true}
	states <- anonymousState()
	states <- anonymousState()

	deadline := time.After(time.Second)
	for {
		if n, _ := nav.counts(); n == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("Watch never issued the redirect")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch did not return on context cancel")
	}

	if n, _ := nav.counts(); n != 1 {
		t.Errorf("expected exactly one Navigate, got %d", n)
	}
}
