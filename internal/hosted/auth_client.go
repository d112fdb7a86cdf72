package hosted

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pipedeck/pipedeck/internal/domain"
)

// AuthChangeCallback receives session-change notifications. The session is nil
// for sign-out and expiry events.
type AuthChangeCallback func(event domain.AuthEvent, session *domain.Session)

// Subscription is a registered auth-change listener. Unsubscribe releases it;
// it is safe to call more than once.
type Subscription interface {
	Unsubscribe()
}

// SessionClient is the call surface of the hosted authentication service.
type SessionClient interface {
	// GetSession returns the current session, refreshing it through the
	// hosted service when the access token has expired. Returns (nil, nil)
	// when no session is established.
	GetSession(ctx context.Context) (*domain.Session, error)

	// SignInWithPassword verifies credentials with the hosted service and
	// establishes a session.
	SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error)

	// SignUp registers a new account with the hosted service.
	SignUp(ctx context.Context, email, password, name string) (*domain.Session, error)

	// SignOut revokes the session with the hosted service and clears the
	// locally held tokens.
	SignOut(ctx context.Context) error

	// OnAuthStateChange registers a listener for session transitions
	// (sign-in, token refresh, sign-out).
	OnAuthStateChange(cb AuthChangeCallback) Subscription
}

// accessClaims is the subset of hosted-auth JWT claims this application reads.
// The token is issued and signature-verified by the hosted service; the client
// only decodes identity attributes from it.
type accessClaims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// HTTPSessionClient talks to a GoTrue-style REST auth surface. It holds the
// current token bundle in memory, mirroring the behavior of the hosted
// service's browser SDK.
type HTTPSessionClient struct {
	baseURL string
	apiKey  string
	http    *http.Client

	mu        sync.Mutex
	session   *domain.Session
	listeners map[int]AuthChangeCallback
	nextID    int

	now func() time.Time
}

// NewHTTPSessionClient creates a session client for the hosted auth service.
// apiKey is the public (anonymous) key; the privileged service key must never
// be passed here.
func NewHTTPSessionClient(baseURL, apiKey string) *HTTPSessionClient {
	return &HTTPSessionClient{
		baseURL:   baseURL,
		apiKey:    apiKey,
		http:      &http.Client{Timeout: 15 * time.Second},
		listeners: make(map[int]AuthChangeCallback),
		now:       time.Now,
	}
}

// tokenResponse is the hosted service's token grant payload.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// GetSession returns the current session, refreshing expired tokens through
// the hosted service.
func (c *HTTPSessionClient) GetSession(ctx context.Context) (*domain.Session, error) {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session == nil {
		return nil, nil
	}
	if !session.Expired(c.now()) {
		return session, nil
	}

	refreshed, err := c.refresh(ctx, session.RefreshToken)
	if err != nil {
		return nil, err
	}
	c.setSession(refreshed, domain.AuthEventTokenRefreshed)
	return refreshed, nil
}

// SignInWithPassword exchanges credentials for a session via the password
// grant.
func (c *HTTPSessionClient) SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error) {
	body := map[string]string{"email": email, "password": password}
	resp, err := c.post(ctx, "/token?grant_type=password", body)
	if err != nil {
		return nil, err
	}
	session, err := c.sessionFromToken(resp)
	if err != nil {
		return nil, err
	}
	c.setSession(session, domain.AuthEventSignedIn)
	return session, nil
}

// SignUp registers a new account. The hosted service issues a session
// immediately when email confirmation is disabled.
func (c *HTTPSessionClient) SignUp(ctx context.Context, email, password, name string) (*domain.Session, error) {
	body := map[string]interface{}{
		"email":    email,
		"password": password,
		"data":     map[string]string{"name": name},
	}
	resp, err := c.post(ctx, "/signup", body)
	if err != nil {
		return nil, err
	}
	session, err := c.sessionFromToken(resp)
	if err != nil {
		return nil, err
	}
	c.setSession(session, domain.AuthEventSignedIn)
	return session, nil
}

// SignOut revokes the session server-side and always clears local state, even
// when the revocation call fails.
func (c *HTTPSessionClient) SignOut(ctx context.Context) error {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	var revokeErr error
	if session != nil {
		revokeErr = c.RevokeToken(ctx, session.AccessToken)
	}

	c.setSession(nil, domain.AuthEventSignedOut)
	return revokeErr
}

// RevokeToken invalidates one access token with the hosted service without
// touching the locally held session. Used by server-side logout handlers.
func (c *HTTPSessionClient) RevokeToken(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/logout", nil)
	if err != nil {
		return domain.NewInternalError("REQUEST_FAILED", "Failed to build logout request", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.NewExternalServiceError("SIGN_OUT_FAILED",
			"Hosted auth service unreachable during sign-out", err)
	}
	_ = resp.Body.Close()
	return nil
}

// RestoreSession seeds the client with an existing token bundle (for example
// one carried by a browser cookie) and broadcasts it as a sign-in. Used by
// per-connection consumers that resume rather than create sessions.
func (c *HTTPSessionClient) RestoreSession(session *domain.Session) {
	c.setSession(session, domain.AuthEventSignedIn)
}

// OnAuthStateChange registers a listener. Listeners are invoked synchronously
// in registration order on every session transition.
func (c *HTTPSessionClient) OnAuthStateChange(cb AuthChangeCallback) Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = cb
	return &subscription{client: c, id: id}
}

type subscription struct {
	client *HTTPSessionClient
	once   sync.Once
	id     int
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.client.mu.Lock()
		delete(s.client.listeners, s.id)
		s.client.mu.Unlock()
	})
}

// setSession swaps the held session and broadcasts the transition.
func (c *HTTPSessionClient) setSession(session *domain.Session, event domain.AuthEvent) {
	c.mu.Lock()
	c.session = session
	cbs := make([]AuthChangeCallback, 0, len(c.listeners))
	for _, cb := range c.listeners {
		cbs = append(cbs, cb)
	}
	c.mu.Unlock()

	for _, cb := range cbs {
		cb(event, session)
	}
}

func (c *HTTPSessionClient) refresh(ctx context.Context, refreshToken string) (*domain.Session, error) {
	resp, err := c.post(ctx, "/token?grant_type=refresh_token", map[string]string{
		"refresh_token": refreshToken,
	})
	if err != nil {
		return nil, err
	}
	return c.sessionFromToken(resp)
}

// sessionFromToken decodes the user identity from the access token claims.
// Signature verification is the hosted service's responsibility; the client
// only reads identity attributes.
func (c *HTTPSessionClient) sessionFromToken(resp *tokenResponse) (*domain.Session, error) {
	claims := &accessClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(resp.AccessToken, claims); err != nil {
		return nil, domain.NewExternalServiceError("MALFORMED_TOKEN",
			"Hosted auth service returned an unreadable access token", err)
	}

	user := &domain.User{
		ID:    claims.Subject,
		Email: claims.Email,
		Name:  claims.Name,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	expiresAt := c.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	return &domain.Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		TokenType:    resp.TokenType,
		ExpiresAt:    expiresAt,
		User:         user,
	}, nil
}

func (c *HTTPSessionClient) post(ctx context.Context, path string, body interface{}) (*tokenResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, domain.NewInternalError("ENCODE_FAILED", "Failed to encode auth request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, domain.NewInternalError("REQUEST_FAILED", "Failed to build auth request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, domain.NewExternalServiceError("AUTH_SERVICE_UNREACHABLE",
			"Hosted auth service unreachable", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, domain.NewExternalServiceError("AUTH_READ_FAILED",
			"Failed to read auth service response", err)
	}

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized ||
		resp.StatusCode == http.StatusUnprocessableEntity {
		return nil, domain.NewAuthenticationError("INVALID_CREDENTIALS", "Invalid email or password")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewExternalServiceError("AUTH_SERVICE_ERROR",
			fmt.Sprintf("Hosted auth service returned status %d", resp.StatusCode), nil)
	}

	var token tokenResponse
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, domain.NewExternalServiceError("AUTH_DECODE_FAILED",
			"Failed to decode auth service response", err)
	}
	return &token, nil
}
