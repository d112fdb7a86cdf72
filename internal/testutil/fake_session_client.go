package testutil

import (
	"context"
	"sync"

	"github.com/pipedeck/pipedeck/internal/domain"
	"github.com/pipedeck/pipedeck/internal/hosted"
)

// FakeSessionClient is a scripted hosted.SessionClient. Tests set the
// session, error, and call outcomes directly and drive listener
// notifications with Notify.
type FakeSessionClient struct {
	mu        sync.Mutex
	session   *domain.Session
	listeners map[int]hosted.AuthChangeCallback
	nextID    int

	// GetSessionErr, when set, is returned by GetSession.
	GetSessionErr error
	// SignInErr, when set, is returned by SignInWithPassword.
	SignInErr error
	// SignUpErr, when set, is returned by SignUp.
	SignUpErr error
	// SignOutErr, when set, is returned by SignOut. Local state is still
	// cleared, matching the real client.
	SignOutErr error

	// SignInSession is returned by SignInWithPassword and SignUp on success.
	SignInSession *domain.Session

	// SignOutCalls counts SignOut invocations.
	SignOutCalls int
}

// NewFakeSessionClient creates a fake with no current session.
func NewFakeSessionClient() *FakeSessionClient {
	return &FakeSessionClient{listeners: make(map[int]hosted.AuthChangeCallback)}
}

// SetSession sets the current session without notifying listeners.
func (f *FakeSessionClient) SetSession(session *domain.Session) {
	f.mu.Lock()
	f.session = session
	f.mu.Unlock()
}

// Notify invokes every registered listener with the given event and session,
// and updates the current session to match.
func (f *FakeSessionClient) Notify(event domain.AuthEvent, session *domain.Session) {
	f.mu.Lock()
	f.session = session
	cbs := make([]hosted.AuthChangeCallback, 0, len(f.listeners))
	for _, cb := range f.listeners {
		cbs = append(cbs, cb)
	}
	f.mu.Unlock()

	for _, cb := range cbs {
		cb(event, session)
	}
}

// GetSession returns the scripted session or error.
func (f *FakeSessionClient) GetSession(_ context.Context) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetSessionErr != nil {
		return nil, f.GetSessionErr
	}
	return f.session, nil
}

// SignInWithPassword returns the scripted session or error. On success the
// session becomes current and listeners are notified, matching the real
// client.
func (f *FakeSessionClient) SignInWithPassword(_ context.Context, _, _ string) (*domain.Session, error) {
	f.mu.Lock()
	err := f.SignInErr
	session := f.SignInSession
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	f.Notify(domain.AuthEventSignedIn, session)
	return session, nil
}

// SignUp behaves like SignInWithPassword with its own scripted error.
func (f *FakeSessionClient) SignUp(_ context.Context, _, _, _ string) (*domain.Session, error) {
	f.mu.Lock()
	err := f.SignUpErr
	session := f.SignInSession
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	f.Notify(domain.AuthEventSignedIn, session)
	return session, nil
}

// SignOut clears the session, notifies listeners, and returns the scripted
// error.
func (f *FakeSessionClient) SignOut(_ context.Context) error {
	f.mu.Lock()
	f.SignOutCalls++
	err := f.SignOutErr
	f.mu.Unlock()

	f.Notify(domain.AuthEventSignedOut, nil)
	return err
}

// OnAuthStateChange registers a listener.
func (f *FakeSessionClient) OnAuthStateChange(cb hosted.AuthChangeCallback) hosted.Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = cb
	return &fakeSubscription{client: f, id: id}
}

type fakeSubscription struct {
	client *FakeSessionClient
	once   sync.Once
	id     int
}

func (s *fakeSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.client.mu.Lock()
		delete(s.client.listeners, s.id)
		s.client.mu.Unlock()
	})
}
