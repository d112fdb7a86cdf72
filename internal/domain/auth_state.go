package domain

// AuthState is the single authoritative view of the current session. It is
// owned by the auth state service and mutated only through its writer path.
//
// Invariants:
//   - User is non-nil if and only if Session is non-nil (User is always
//     derived from Session).
//   - IsInitialized transitions false to true exactly once per service
//     instance and never reverts.
//   - IsLoading is true only while a sign-in, sign-out, or initial fetch is
//     outstanding, and returns to false after every operation completes,
//     including on failure.
type AuthState struct {
	Session       *Session `json:"session"`
	User          *User    `json:"user"`
	IsLoading     bool     `json:"is_loading"`
	IsInitialized bool     `json:"is_initialized"`
}

// Authenticated reports whether a user is present.
func (s AuthState) Authenticated() bool {
	return s.User != nil
}

// AuthEvent names a change-notification from the hosted auth service.
type AuthEvent string

const (
	// AuthEventSignedIn is broadcast when a session is established.
	AuthEventSignedIn AuthEvent = "SIGNED_IN"
	// AuthEventSignedOut is broadcast when the session is cleared.
	AuthEventSignedOut AuthEvent = "SIGNED_OUT"
	// AuthEventTokenRefreshed is broadcast when the access token is renewed.
	AuthEventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
	// AuthEventInitial is broadcast once after the initial session fetch.
	AuthEventInitial AuthEvent = "INITIAL_SESSION"
)
