package auth

import (
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/LestDomzEDU/Project-3-Back-End/internal/config"
)

const githubUserInfoURL = "https://api.github.com/user"

// GitHubNormalizer normalizes the claim map of the GitHub /user endpoint.
type GitHubNormalizer struct{}

// Normalize implements Normalizer.
func (GitHubNormalizer) Normalize(claims map[string]any) (Identity, error) {
	id := claimString(claims, "id")
	if id == "" {
		return Identity{}, ErrMissingProviderIdentifier
	}

	login := claimString(claims, "login")

	// email may be private; fall back to a synthetic address
	email := claimString(claims, "email")
	if email == "" && login != "" {
		email = login + GitHubFallbackSuffix
	}

	name := claimString(claims, "name")
	if name == "" {
		name = login
	}

	return Identity{
		Provider:   "github",
		ProviderID: id,
		Email:      email,
		Login:      login,
		Name:       name,
		AvatarURL:  claimString(claims, "avatar_url"),
	}, nil
}

// NewGitHub builds the GitHub provider from its client registration.
func NewGitHub(cfg config.Provider, redirectBase string) *Provider {
	endpoint := github.Endpoint
	if cfg.AuthURL != "" {
		endpoint = oauth2.Endpoint{AuthURL: cfg.AuthURL, TokenURL: cfg.TokenURL}
	}

	userInfoURL := cfg.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = githubUserInfoURL
	}

	return &Provider{
		name: "github",
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  redirectBase + CallbackPathPrefix + "github",
			Endpoint:     endpoint,
			Scopes:       []string{"read:user", "user:email"},
		},
		userInfoURL: userInfoURL,
		normalizer:  GitHubNormalizer{},
		httpClient:  &http.Client{Timeout: exchangeTimeout},
	}
}
