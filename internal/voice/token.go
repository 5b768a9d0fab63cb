package voice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ErrNotConfigured is returned when the Hume credentials are missing.
var ErrNotConfigured = errors.New("voice credentials not configured")

const (
	humeTokenURL = "https://api.hume.ai/oauth2-cc/token"
	httpTimeout  = 10 * time.Second
)

// TokenIssuer exchanges the Hume API key and secret for a short-lived
// access token using the OAuth2 client-credentials grant.
type TokenIssuer struct {
	cfg    *clientcredentials.Config
	client *http.Client
}

// NewTokenIssuer constructs a TokenIssuer against the production endpoint.
func NewTokenIssuer(apiKey, secretKey string) *TokenIssuer {
	return NewTokenIssuerWithURL(apiKey, secretKey, humeTokenURL)
}

// NewTokenIssuerWithURL constructs a TokenIssuer with a custom token URL (for tests).
func NewTokenIssuerWithURL(apiKey, secretKey, tokenURL string) *TokenIssuer {
	t := &TokenIssuer{client: &http.Client{Timeout: httpTimeout}}
	if apiKey != "" && secretKey != "" {
		t.cfg = &clientcredentials.Config{
			ClientID:     apiKey,
			ClientSecret: secretKey,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
	}
	return t
}

// Configured reports whether both credentials are set.
func (t *TokenIssuer) Configured() bool {
	return t.cfg != nil
}

// AccessToken fetches a fresh access token.
func (t *TokenIssuer) AccessToken(ctx context.Context) (string, error) {
	if t.cfg == nil {
		return "", ErrNotConfigured
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, t.client)
	tok, err := t.cfg.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("fetching voice access token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("fetching voice access token: empty token in response")
	}

	return tok.AccessToken, nil
}
