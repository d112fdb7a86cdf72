package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pipedeck/pipedeck/internal/api/middleware"
	"github.com/pipedeck/pipedeck/internal/domain"
	"github.com/pipedeck/pipedeck/internal/hosted"
)

// CredentialClient is the slice of the hosted auth surface the HTTP handlers
// need: stateless credential verification and token revocation.
type CredentialClient interface {
	SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error)
	SignUp(ctx context.Context, email, password, name string) (*domain.Session, error)
	RevokeToken(ctx context.Context, accessToken string) error
}

// AuthHandler bridges browser form submissions to the hosted auth service
// and manages the session cookies.
type AuthHandler struct {
	credentials CredentialClient
	newFlow     func(provider string) *hosted.OAuthFlow
	secure      bool
}

// NewAuthHandler creates an auth handler. secure controls the cookie Secure
// flag and should be true outside development. newFlow builds a PKCE flow
// per provider sign-in request; nil disables provider sign-in.
func NewAuthHandler(
	credentials CredentialClient,
	newFlow func(provider string) *hosted.OAuthFlow,
	secure bool,
) *AuthHandler {
	return &AuthHandler{credentials: credentials, newFlow: newFlow, secure: secure}
}

// RegisterRoutes registers the auth routes.
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup, session *middleware.SessionMiddleware, loginLimiter gin.HandlerFunc) {
	auth := router.Group("/auth")
	{
		if loginLimiter != nil {
			auth.POST("/login", loginLimiter, h.Login)
			auth.POST("/signup", loginLimiter, h.Signup)
		} else {
			auth.POST("/login", h.Login)
			auth.POST("/signup", h.Signup)
		}
		auth.POST("/logout", h.Logout)
		auth.GET("/session", session.RequireSession(), h.Session)
		if h.newFlow != nil {
			auth.GET("/oauth/:provider", h.OAuthStart)
			auth.GET("/callback", h.OAuthCallback)
		}
	}
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name"`
}

// Login verifies credentials with the hosted service and sets the session
// cookies. Bad credentials surface as a 401 form-level error, never as a
// fatal condition.
func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SanitizedErrorResponse(c, domain.NewValidationError("INVALID_REQUEST",
			"Email and password are required", map[string]interface{}{"field": "email"}))
		return
	}

	session, err := h.credentials.SignInWithPassword(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		SanitizedErrorResponse(c, err)
		return
	}

	h.setSessionCookies(c, session)
	SuccessResponse(c, gin.H{
		"user":       session.User,
		"expires_at": session.ExpiresAt,
	})
}

// Signup registers an account with the hosted service.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SanitizedErrorResponse(c, domain.NewValidationError("INVALID_REQUEST",
			"Email and a password of at least 8 characters are required", nil))
		return
	}

	session, err := h.credentials.SignUp(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		SanitizedErrorResponse(c, err)
		return
	}

	h.setSessionCookies(c, session)
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"user":       session.User,
			"expires_at": session.ExpiresAt,
		},
	})
}

// Logout revokes the token best-effort and always clears the cookies: local
// sign-out succeeds even when the hosted call fails.
func (h *AuthHandler) Logout(c *gin.Context) {
	if cookie, err := c.Cookie(middleware.SessionCookieName); err == nil && cookie != "" {
		// Revocation failure is logged by the sanitizer path upstream; the
		// local session clears regardless.
		_ = h.credentials.RevokeToken(c.Request.Context(), cookie)
	}

	h.clearSessionCookies(c)
	SuccessResponse(c, gin.H{"signed_out": true})
}

// Session returns the authenticated user for the current session cookie.
func (h *AuthHandler) Session(c *gin.Context) {
	user, ok := GetUserFromContext(c)
	if !ok {
		SanitizedErrorResponse(c, domain.NewAuthenticationError("MISSING_SESSION", "No session"))
		return
	}
	SuccessResponse(c, gin.H{"user": user})
}

const (
	pkceVerifierCookie = "pd_pkce"
	oauthStateCookie   = "pd_state"
)

// OAuthStart begins the provider sign-in: it generates the PKCE verifier and
// state, parks them in short-lived cookies, and redirects the browser to the
// hosted authorize URL.
func (h *AuthHandler) OAuthStart(c *gin.Context) {
	provider := c.Param("provider")
	flow := h.newFlow(provider)

	state := uuid.New().String()
	authorizeURL, verifier := flow.Start(state)

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(pkceVerifierCookie, verifier, 600, "/", "", h.secure, true)
	c.SetCookie(oauthStateCookie, state, 600, "/", "", h.secure, true)
	c.Redirect(http.StatusFound, authorizeURL)
}

// OAuthCallback finishes the provider sign-in: it checks the state cookie,
// exchanges the code with the stored verifier, and sets the session cookies.
func (h *AuthHandler) OAuthCallback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")

	stateCookie, err := c.Cookie(oauthStateCookie)
	if err != nil || state == "" || state != stateCookie {
		SanitizedErrorResponse(c, domain.NewAuthenticationError("STATE_MISMATCH",
			"Provider sign-in state did not match"))
		return
	}
	verifier, err := c.Cookie(pkceVerifierCookie)
	if err != nil || verifier == "" {
		SanitizedErrorResponse(c, domain.NewAuthenticationError("MISSING_VERIFIER",
			"Provider sign-in verifier missing"))
		return
	}

	// The flow is rebuilt per request; the provider is irrelevant for the
	// code exchange itself.
	flow := h.newFlow("")
	session, err := flow.Exchange(c.Request.Context(), code, verifier)
	if err != nil {
		SanitizedErrorResponse(c, err)
		return
	}

	c.SetCookie(pkceVerifierCookie, "", -1, "/", "", h.secure, true)
	c.SetCookie(oauthStateCookie, "", -1, "/", "", h.secure, true)
	h.setSessionCookies(c, session)
	c.Redirect(http.StatusFound, "/dashboard")
}

func (h *AuthHandler) setSessionCookies(c *gin.Context, session *domain.Session) {
	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = 3600
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookieName, session.AccessToken, maxAge, "/", "", h.secure, true)
	c.SetCookie(middleware.RefreshCookieName, session.RefreshToken, 7*24*3600, "/", "", h.secure, true)
}

func (h *AuthHandler) clearSessionCookies(c *gin.Context) {
	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", h.secure, true)
	c.SetCookie(middleware.RefreshCookieName, "", -1, "/", "", h.secure, true)
}
