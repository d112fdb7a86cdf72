// Package services contains the application services: the auth state machine,
// the route guard, analytics aggregation, and data source connector checks.
package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pipedeck/pipedeck/internal/domain"
	"github.com/pipedeck/pipedeck/internal/hosted"
)

// AuthStateService owns the single authoritative AuthState for one client of
// the hosted auth service and broadcasts every transition to subscribers. All
// session mutations funnel through one writer path, so applying the same
// session twice is observably a no-op.
type AuthStateService interface {
	// Initialize performs the one-shot startup fetch: it registers the
	// change-notification listener, requests the current session, and marks
	// the state initialized. On hosted-service failure it falls open to the
	// anonymous state instead of blocking the application.
	Initialize(ctx context.Context)

	// SignIn verifies credentials with the hosted service. On failure the
	// session and user are left untouched and the error is returned with
	// loading cleared.
	SignIn(ctx context.Context, email, password string) error

	// SignUp registers a new account with the hosted service.
	SignUp(ctx context.Context, email, password, name string) error

	// SignOut clears the session best-effort: local state is cleared even
	// when the hosted call fails.
	SignOut(ctx context.Context)

	// State returns a snapshot of the current auth state.
	State() domain.AuthState

	// Subscribe registers a state observer. The current state is delivered
	// first, then every subsequent transition. The returned cancel func
	// releases the subscription.
	Subscribe() (<-chan domain.AuthState, func())

	// Close releases the hosted-service listener and all subscriptions.
	Close()
}

// subscriberBuffer bounds each observer channel; a slow consumer loses
// intermediate states but always observes the latest one eventually.
const subscriberBuffer = 16

type authStateService struct {
	client hosted.SessionClient
	logger *slog.Logger

	mu          sync.Mutex
	state       domain.AuthState
	listener    hosted.Subscription
	initialized bool
	closed      bool
	subscribers map[int]chan domain.AuthState
	nextSubID   int
}

// NewAuthStateService creates the state machine in its uninitialized state:
// no session, loading, not initialized.
func NewAuthStateService(client hosted.SessionClient, logger *slog.Logger) AuthStateService {
	if logger == nil {
		logger = slog.Default()
	}
	return &authStateService{
		client: client,
		logger: logger,
		state: domain.AuthState{
			IsLoading: true,
		},
		subscribers: make(map[int]chan domain.AuthState),
	}
}

func (s *authStateService) Initialize(ctx context.Context) {
	s.mu.Lock()
	if s.initialized || s.closed {
		s.mu.Unlock()
		return
	}
	s.initialized = true
	s.mu.Unlock()

	// The listener is registered before the session fetch so a notification
	// racing the fetch is never missed. Both funnel through applySession, so
	// either arrival order converges to the same state.
	s.listener = s.client.OnAuthStateChange(func(event domain.AuthEvent, session *domain.Session) {
		s.applySession(session)
	})

	session, err := s.client.GetSession(ctx)
	if err != nil {
		// Fail open to anonymous: the application must not hang waiting for
		// auth. No automatic retry.
		s.logger.Warn("initial session fetch failed, continuing anonymous", "error", err)
		session = nil
	}
	s.applySession(session)
	s.markInitialized()
}

func (s *authStateService) SignIn(ctx context.Context, email, password string) error {
	s.setLoading(true)

	session, err := s.client.SignInWithPassword(ctx, email, password)
	if err != nil {
		// Session and user stay untouched on failure.
		s.setLoading(false)
		return err
	}

	// The change listener will re-apply the same session asynchronously;
	// applying it here first closes the window where a missed broadcast
	// would leave the UI loading forever. The second application is a no-op.
	s.applySession(session)
	return nil
}

func (s *authStateService) SignUp(ctx context.Context, email, password, name string) error {
	s.setLoading(true)

	session, err := s.client.SignUp(ctx, email, password, name)
	if err != nil {
		s.setLoading(false)
		return err
	}

	s.applySession(session)
	return nil
}

func (s *authStateService) SignOut(ctx context.Context) {
	s.setLoading(true)

	if err := s.client.SignOut(ctx); err != nil {
		// Best-effort: local state clears regardless.
		s.logger.Warn("hosted sign-out failed, clearing local session anyway", "error", err)
	}
	s.applySession(nil)
}

func (s *authStateService) State() domain.AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *authStateService) Subscribe() (<-chan domain.AuthState, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan domain.AuthState, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch
	ch <- s.state

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (s *authStateService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	listener := s.listener
	s.listener = nil
	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}
	s.mu.Unlock()

	if listener != nil {
		listener.Unsubscribe()
	}
}

// applySession is the single writer of session and user. User is always
// derived from the session, never set independently, and loading always ends
// when a session value lands.
func (s *authStateService) applySession(session *domain.Session) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	if sameSession(s.state.Session, session) && !s.state.IsLoading {
		// Idempotent merge: re-applying the current session changes nothing.
		s.mu.Unlock()
		return
	}

	s.state.Session = session
	if session != nil {
		s.state.User = session.User
	} else {
		s.state.User = nil
	}
	s.state.IsLoading = false
	s.broadcastLocked()
	s.mu.Unlock()
}

func (s *authStateService) markInitialized() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state.IsInitialized {
		return
	}
	s.state.IsInitialized = true
	s.broadcastLocked()
}

func (s *authStateService) setLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state.IsLoading == loading {
		return
	}
	s.state.IsLoading = loading
	s.broadcastLocked()
}

// broadcastLocked delivers the current state to all subscribers without
// blocking; a full channel drops the intermediate state.
func (s *authStateService) broadcastLocked() {
	for _, ch := range s.subscribers {
		select {
		case ch <- s.state:
		default:
		}
	}
}

func sameSession(a, b *domain.Session) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.AccessToken == b.AccessToken
}
