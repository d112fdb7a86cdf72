package hosted

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/pipedeck/pipedeck/internal/domain"
)

// OAuthFlow drives the hosted service's provider sign-in with PKCE. The
// authorize redirect happens in the browser; this type only builds the
// authorize URL and exchanges the returned code.
type OAuthFlow struct {
	config *oauth2.Config
	client *HTTPSessionClient
}

// NewOAuthFlow creates a PKCE flow against the hosted auth service for the
// named provider (for example "github" or "google").
func NewOAuthFlow(client *HTTPSessionClient, provider, redirectURL string) *OAuthFlow {
	return &OAuthFlow{
		client: client,
		config: &oauth2.Config{
			ClientID:    client.apiKey,
			RedirectURL: redirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:  client.baseURL + "/authorize?provider=" + provider,
				TokenURL: client.baseURL + "/token?grant_type=pkce",
			},
		},
	}
}

// Start returns the authorize URL to redirect the browser to, together with
// the PKCE verifier that must be kept for the code exchange.
func (f *OAuthFlow) Start(state string) (authorizeURL, verifier string) {
	verifier = oauth2.GenerateVerifier()
	authorizeURL = f.config.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	return authorizeURL, verifier
}

// Exchange trades the authorization code for a session and establishes it on
// the session client, broadcasting a sign-in notification.
func (f *OAuthFlow) Exchange(ctx context.Context, code, verifier string) (*domain.Session, error) {
	token, err := f.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, domain.NewExternalServiceError("PKCE_EXCHANGE_FAILED",
			"Hosted auth service rejected the authorization code", err)
	}

	session, err := f.client.sessionFromToken(&tokenResponse{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
	})
	if err != nil {
		return nil, err
	}
	f.client.setSession(session, domain.AuthEventSignedIn)
	return session, nil
}
