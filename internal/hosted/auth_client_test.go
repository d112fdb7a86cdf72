package hosted

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipedeck/pipedeck/internal/domain"
)

func mintToken(t *testing.T, subject, email string, expiresAt time.Time) string {
	t.Helper()
	claims := &accessClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

// authServer is a minimal GoTrue-style stub.
func authServer(t *testing.T, accessToken string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/token" || r.URL.Path == "/signup":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(tokenResponse{
				AccessToken:  accessToken,
				RefreshToken: "refresh-1",
				TokenType:    "bearer",
				ExpiresIn:    3600,
			})
		case r.URL.Path == "/logout":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

// eventRecorder collects auth change notifications.
type eventRecorder struct {
	mu     sync.Mutex
	events []domain.AuthEvent
}

func (r *eventRecorder) callback(event domain.AuthEvent, _ *domain.Session) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

func (r *eventRecorder) recorded() []domain.AuthEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AuthEvent(nil), r.events...)
}

func TestSignInWithPassword_EstablishesSession(t *testing.T) {
	token := mintToken(t, "user1", "user1@example.com", time.Now().Add(time.Hour))
	server := authServer(t, token)
	defer server.Close()

	client := NewHTTPSessionClient(server.URL, "anon-key")
	recorder := &eventRecorder{}
	sub := client.OnAuthStateChange(recorder.callback)
	defer sub.Unsubscribe()

	session, err := client.SignInWithPassword(context.Background(), "user1@example.com", "password123")
	require.NoError(t, err)
	require.NotNil(t, session)

	assert.Equal(t, token, session.AccessToken)
	assert.Equal(t, "refresh-1", session.RefreshToken)
	require.NotNil(t, session.User)
	assert.Equal(t, "user1", session.User.ID)
	assert.Equal(t, "user1@example.com", session.User.Email)
	assert.Equal(t, []domain.AuthEvent{domain.AuthEventSignedIn}, recorder.recorded())

	current, err := client.GetSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, session.AccessToken, current.AccessToken)
}

func TestSignInWithPassword_BadCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer server.Close()

	client := NewHTTPSessionClient(server.URL, "anon-key")
	_, err := client.SignInWithPassword(context.Background(), "user1@example.com", "wrong")
	require.Error(t, err)

	var domainErr *domain.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.AuthenticationError, domainErr.Type)
	assert.Equal(t, "INVALID_CREDENTIALS", domainErr.Code)
}

func TestSignIn_UnreachableServiceIsExternalError(t *testing.T) {
	client := NewHTTPSessionClient("http://127.0.0.1:1", "anon-key")
	_, err := client.SignInWithPassword(context.Background(), "user1@example.com", "password123")
	require.Error(t, err)

	var domainErr *domain.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ExternalServiceError, domainErr.Type)
}

func TestGetSession_NoSessionIsNilNil(t *testing.T) {
	client := NewHTTPSessionClient("http://127.0.0.1:1", "anon-key")
	session, err := client.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestGetSession_RefreshesExpiredToken(t *testing.T) {
	fresh := mintToken(t, "user1", "user1@example.com", time.Now().Add(time.Hour))

	var grants []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		grants = append(grants, r.URL.Query().Get("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(tokenResponse{
			AccessToken:  fresh,
			RefreshToken: "refresh-2",
			TokenType:    "bearer",
			ExpiresIn:    3600,
		})
	}))
	defer server.Close()

	client := NewHTTPSessionClient(server.URL, "anon-key")
	recorder := &eventRecorder{}
	sub := client.OnAuthStateChange(recorder.callback)
	defer sub.Unsubscribe()

	client.RestoreSession(&domain.Session{
		AccessToken:  "stale",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(-time.Minute),
		User:         &domain.User{ID: "user1", Email: "user1@example.com"},
	})

	session, err := client.GetSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fresh, session.AccessToken)
	assert.Equal(t, []string{"refresh_token"}, grants)
	assert.Equal(t,
		[]domain.AuthEvent{domain.AuthEventSignedIn, domain.AuthEventTokenRefreshed},
		recorder.recorded())
}

func TestSignOut_ClearsSessionEvenWhenServiceUnreachable(t *testing.T) {
	client := NewHTTPSessionClient("http://127.0.0.1:1", "anon-key")
	recorder := &eventRecorder{}
	sub := client.OnAuthStateChange(recorder.callback)
	defer sub.Unsubscribe()

	client.RestoreSession(&domain.Session{
		AccessToken: "tok-a",
		ExpiresAt:   time.Now().Add(time.Hour),
		User:        &domain.User{ID: "user1", Email: "user1@example.com"},
	})

	err := client.SignOut(context.Background())
	require.Error(t, err, "revocation against an unreachable service should report the failure")

	session, getErr := client.GetSession(context.Background())
	require.NoError(t, getErr)
	assert.Nil(t, session, "local session must clear despite the failed revocation")
	assert.Equal(t,
		[]domain.AuthEvent{domain.AuthEventSignedIn, domain.AuthEventSignedOut},
		recorder.recorded())
}

func TestUnsubscribe_StopsNotifications(t *testing.T) {
	token := mintToken(t, "user1", "user1@example.com", time.Now().Add(time.Hour))
	server := authServer(t, token)
	defer server.Close()

	client := NewHTTPSessionClient(server.URL, "anon-key")
	recorder := &eventRecorder{}
	sub := client.OnAuthStateChange(recorder.callback)
	sub.Unsubscribe()
	sub.Unsubscribe() // safe to call twice

	_, err := client.SignInWithPassword(context.Background(), "user1@example.com", "password123")
	require.NoError(t, err)
	assert.Empty(t, recorder.recorded())
}
