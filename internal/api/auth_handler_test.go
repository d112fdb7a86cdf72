package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipedeck/pipedeck/internal/api/middleware"
	"github.com/pipedeck/pipedeck/internal/domain"
	"github.com/pipedeck/pipedeck/internal/testutil"
)

// fakeCredentials scripts the hosted credential surface.
type fakeCredentials struct {
	session     *domain.Session
	signInErr   error
	signUpErr   error
	revokeErr   error
	revokeCalls int
	revokedWith string
}

func (f *fakeCredentials) SignInWithPassword(_ context.Context, _, _ string) (*domain.Session, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return f.session, nil
}

func (f *fakeCredentials) SignUp(_ context.Context, _, _, _ string) (*domain.Session, error) {
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	return f.session, nil
}

func (f *fakeCredentials) RevokeToken(_ context.Context, accessToken string) error {
	f.revokeCalls++
	f.revokedWith = accessToken
	return f.revokeErr
}

func authTestSetup(t *testing.T, credentials *fakeCredentials) *testutil.HTTPTestHelper {
	t.Helper()
	handler := NewAuthHandler(credentials, nil, false)
	router, group := apiGroup(t)
	handler.RegisterRoutes(group, testSessionMiddleware(), nil)
	return testutil.NewHTTPTestHelper(t, router)
}

func cookieByName(recorder *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func TestLogin_SetsSessionCookies(t *testing.T) {
	session := testutil.MockSession("tok-a", testutil.MockUser("user1", "user1@example.com", "User One"))
	helper := authTestSetup(t, &fakeCredentials{session: session})

	recorder := helper.POST("/api/auth/login", map[string]string{
		"email":    "user1@example.com",
		"password": "password123",
	}, nil)
	helper.AssertStatus(recorder, http.StatusOK)

	sessionCookie := cookieByName(recorder, middleware.SessionCookieName)
	require.NotNil(t, sessionCookie, "login must set the session cookie")
	assert.Equal(t, "tok-a", sessionCookie.Value)
	assert.True(t, sessionCookie.HttpOnly)

	refreshCookie := cookieByName(recorder, middleware.RefreshCookieName)
	require.NotNil(t, refreshCookie)
	assert.Equal(t, "tok-a-refresh", refreshCookie.Value)

	assert.Contains(t, recorder.Body.String(), `"user1@example.com"`)
	assert.NotContains(t, recorder.Body.String(), `"tok-a"`,
		"tokens travel in cookies, not in the response body")
}

func TestLogin_InvalidCredentialsIs401(t *testing.T) {
	helper := authTestSetup(t, &fakeCredentials{
		signInErr: domain.NewAuthenticationError("INVALID_CREDENTIALS", "bad password"),
	})

	recorder := helper.POST("/api/auth/login", map[string]string{
		"email":    "user1@example.com",
		"password": "wrong-password",
	}, nil)

	helper.AssertStatus(recorder, http.StatusUnauthorized)
	assert.Contains(t, recorder.Body.String(), `"INVALID_CREDENTIALS"`)
	assert.Nil(t, cookieByName(recorder, middleware.SessionCookieName),
		"failed login must not set cookies")
}

func TestLogin_MalformedRequestIs400(t *testing.T) {
	helper := authTestSetup(t, &fakeCredentials{})

	cases := []testutil.TestCase{
		{
			Name:           "missing password",
			Method:         "POST",
			URL:            "/api/auth/login",
			Body:           map[string]string{"email": "user1@example.com"},
			ExpectedStatus: http.StatusBadRequest,
		},
		{
			Name:           "short password",
			Method:         "POST",
			URL:            "/api/auth/login",
			Body:           map[string]string{"email": "user1@example.com", "password": "short"},
			ExpectedStatus: http.StatusBadRequest,
		},
		{
			Name:           "invalid email",
			Method:         "POST",
			URL:            "/api/auth/login",
			Body:           map[string]string{"email": "not-an-email", "password": "password123"},
			ExpectedStatus: http.StatusBadRequest,
		},
	}
	helper.RunTestCases(cases)
}

func TestSignup_CreatesSessionWith201(t *testing.T) {
	session := testutil.MockSession("tok-new", testutil.MockUser("user2", "user2@example.com", "User Two"))
	helper := authTestSetup(t, &fakeCredentials{session: session})

	recorder := helper.POST("/api/auth/signup", map[string]string{
		"email":    "user2@example.com",
		"password": "password123",
		"name":     "User Two",
	}, nil)

	helper.AssertStatus(recorder, http.StatusCreated)
	require.NotNil(t, cookieByName(recorder, middleware.SessionCookieName))
}

func TestLogout_RevokesAndClearsCookies(t *testing.T) {
	credentials := &fakeCredentials{}
	helper := authTestSetup(t, credentials)

	recorder := helper.POST("/api/auth/logout", nil, nil,
		&http.Cookie{Name: middleware.SessionCookieName, Value: "tok-a"})
	helper.AssertStatus(recorder, http.StatusOK)

	assert.Equal(t, 1, credentials.revokeCalls)
	assert.Equal(t, "tok-a", credentials.revokedWith)

	cleared := cookieByName(recorder, middleware.SessionCookieName)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0, "logout must expire the session cookie")
}

func TestLogout_SucceedsWhenRevocationFails(t *testing.T) {
	credentials := &fakeCredentials{
		revokeErr: domain.NewExternalServiceError("SIGN_OUT_FAILED", "down", nil),
	}
	helper := authTestSetup(t, credentials)

	recorder := helper.POST("/api/auth/logout", nil, nil,
		&http.Cookie{Name: middleware.SessionCookieName, Value: "tok-a"})

	helper.AssertStatus(recorder, http.StatusOK)
	cleared := cookieByName(recorder, middleware.SessionCookieName)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value, "cookies clear even when the hosted call fails")
}

func TestSession_ReturnsAuthenticatedUser(t *testing.T) {
	helper := authTestSetup(t, &fakeCredentials{})

	recorder := helper.GET("/api/auth/session", nil, sessionCookie(t, "user1", "user1@example.com"))
	helper.AssertStatus(recorder, http.StatusOK)
	assert.Contains(t, recorder.Body.String(), `"user1@example.com"`)
}

func TestSession_RequiresSession(t *testing.T) {
	helper := authTestSetup(t, &fakeCredentials{})

	recorder := helper.GET("/api/auth/session", nil)
	helper.AssertStatus(recorder, http.StatusUnauthorized)
}
