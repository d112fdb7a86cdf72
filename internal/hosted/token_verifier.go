package hosted

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pipedeck/pipedeck/internal/domain"
)

// TokenVerifier checks hosted-auth access tokens presented by browsers and
// derives the user identity from their claims. When the shared JWT secret is
// configured the HS256 signature is verified; without it (local development
// against a stub service) only the claim shape and expiry are checked.
type TokenVerifier struct {
	secret []byte
	now    func() time.Time
}

// NewTokenVerifier creates a verifier. secret may be empty in development.
func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), now: time.Now}
}

// Verify parses an access token and returns the user it identifies.
func (v *TokenVerifier) Verify(tokenString string) (*domain.User, error) {
	claims := &accessClaims{}

	if len(v.secret) > 0 {
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return v.secret, nil
		}, jwt.WithTimeFunc(v.now))
		if err != nil || !token.Valid {
			return nil, domain.NewAuthenticationError("INVALID_TOKEN", "Invalid or expired session token")
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
			return nil, domain.NewAuthenticationError("INVALID_TOKEN", "Invalid session token")
		}
		if claims.ExpiresAt != nil && v.now().After(claims.ExpiresAt.Time) {
			return nil, domain.NewAuthenticationError("EXPIRED_TOKEN", "Session token has expired")
		}
	}

	user := &domain.User{
		ID:    claims.Subject,
		Email: claims.Email,
		Name:  claims.Name,
	}
	if err := user.Validate(); err != nil {
		return nil, domain.NewAuthenticationError("INVALID_TOKEN", "Session token carries no identity")
	}
	return user, nil
}
