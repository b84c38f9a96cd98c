package auth

import (
	"context"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/LestDomzEDU/Project-3-Back-End/internal/config"
)

const googleIssuerURL = "https://accounts.google.com"

// GoogleNormalizer normalizes the claims of a verified Google ID token.
type GoogleNormalizer struct{}

// Normalize implements Normalizer. The sub claim is never synthesized;
// its absence is fatal.
func (GoogleNormalizer) Normalize(claims map[string]any) (Identity, error) {
	sub := claimString(claims, "sub")
	if sub == "" {
		return Identity{}, ErrMissingProviderIdentifier
	}

	email := claimString(claims, "email")

	return Identity{
		Provider:   "google",
		ProviderID: sub,
		Email:      email,
		Login:      email,
		Name:       claimString(claims, "name"),
		AvatarURL:  claimString(claims, "picture"),
	}, nil
}

// NewGoogle builds the Google provider. It runs OIDC discovery against
// the issuer, so it needs network access at startup.
func NewGoogle(ctx context.Context, cfg config.Provider, redirectBase string) (*Provider, error) {
	issuer := cfg.IssuerURL
	if issuer == "" {
		issuer = googleIssuerURL
	}

	oidcProvider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create google oidc provider")
	}

	verifier := oidcProvider.Verifier(&oidc.Config{
		ClientID: cfg.ClientID,
	})

	return &Provider{
		name: "google",
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  redirectBase + CallbackPathPrefix + "google",
			Endpoint:     oidcProvider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		normalizer: GoogleNormalizer{},
		verifier:   verifier,
		httpClient: &http.Client{Timeout: exchangeTimeout},
	}, nil
}
