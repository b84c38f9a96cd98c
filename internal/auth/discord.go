package auth

import (
	"net/http"

	"golang.org/x/oauth2"

	"github.com/LestDomzEDU/Project-3-Back-End/internal/config"
)

const (
	discordAuthURL     = "https://discord.com/api/oauth2/authorize"
	discordTokenURL    = "https://discord.com/api/oauth2/token" //nolint:gosec // endpoint, not a credential
	discordUserInfoURL = "https://discord.com/api/users/@me"
	discordAvatarCDN   = "https://cdn.discordapp.com/avatars/"
)

// DiscordNormalizer normalizes the claim map of the Discord /users/@me endpoint.
type DiscordNormalizer struct{}

// Normalize implements Normalizer.
func (DiscordNormalizer) Normalize(claims map[string]any) (Identity, error) {
	id := claimString(claims, "id")
	if id == "" {
		return Identity{}, ErrMissingProviderIdentifier
	}

	username := claimString(claims, "username")
	globalName := claimString(claims, "global_name")

	// email can be withheld when not verified or not shared
	email := claimString(claims, "email")
	if email == "" && username != "" {
		email = username + DiscordFallbackSuffix
	}

	// pick the best display name available
	name := "Discord User"

	switch {
	case globalName != "":
		name = globalName
	case username != "":
		name = username
	case email != "":
		name = email
	}

	// avatar URL only exists when both id and avatar hash are present
	var avatarURL string
	if hash := claimString(claims, "avatar"); hash != "" {
		avatarURL = discordAvatarCDN + id + "/" + hash + ".png"
	}

	return Identity{
		Provider:   "discord",
		ProviderID: id,
		Email:      email,
		Login:      username,
		Name:       name,
		AvatarURL:  avatarURL,
	}, nil
}

// NewDiscord builds the Discord provider from its client registration.
func NewDiscord(cfg config.Provider, redirectBase string) *Provider {
	authURL, tokenURL, userInfoURL := discordAuthURL, discordTokenURL, discordUserInfoURL

	if cfg.AuthURL != "" {
		authURL, tokenURL = cfg.AuthURL, cfg.TokenURL
	}

	if cfg.UserInfoURL != "" {
		userInfoURL = cfg.UserInfoURL
	}

	return &Provider{
		name: "discord",
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  redirectBase + CallbackPathPrefix + "discord",
			Endpoint: oauth2.Endpoint{
				AuthURL:  authURL,
				TokenURL: tokenURL,
				// discord expects client_id / client_secret in the POST body
				AuthStyle: oauth2.AuthStyleInParams,
			},
			Scopes: []string{"identify", "email"},
		},
		userInfoURL: userInfoURL,
		normalizer:  DiscordNormalizer{},
		httpClient:  &http.Client{Timeout: exchangeTimeout},
	}
}
