package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/zitadel/oidc/v3/pkg/client/rp"
	"github.com/zitadel/oidc/v3/pkg/oidc"
)

const GoogleIssuer = "https://accounts.google.com"

// IdentityProvider is the OAuth side of sign-in.
type IdentityProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*GoogleProfile, error)
}

// GoogleProvider is an OIDC relying party for Google accounts.
type GoogleProvider struct {
	rp rp.RelyingParty
}

// NewGoogleProvider runs OIDC discovery against Google, so it needs network.
func NewGoogleProvider(ctx context.Context, cfg AuthConfig) (*GoogleProvider, error) {
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		return nil, errors.New("google client id and secret are required")
	}
	party, err := rp.NewRelyingPartyOIDC(ctx,
		GoogleIssuer,
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.GoogleCallbackURL,
		[]string{oidc.ScopeOpenID, oidc.ScopeProfile, oidc.ScopeEmail},
		rp.WithHTTPClient(&http.Client{Timeout: 10 * time.Second}),
	)
	if err != nil {
		return nil, fmt.Errorf("create relying party: %w", err)
	}
	return &GoogleProvider{rp: party}, nil
}

func (g *GoogleProvider) AuthURL(state string) string {
	return rp.AuthURL(state, g.rp)
}

// Exchange trades an authorization code for the verified ID token claims.
func (g *GoogleProvider) Exchange(ctx context.Context, code string) (*GoogleProfile, error) {
	tokens, err := rp.CodeExchange[*oidc.IDTokenClaims](ctx, code, g.rp)
	if err != nil {
		return nil, fmt.Errorf("code exchange: %w", err)
	}
	claims := tokens.IDTokenClaims
	if claims == nil {
		return nil, errors.New("code exchange: no id token")
	}
	return &GoogleProfile{
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: bool(claims.EmailVerified),
		Name:          claims.Name,
		Picture:       claims.Picture,
	}, nil
}
