package auth

import (
	"strings"
)

// Suffixes of synthesized fallback email addresses. A fallback address
// keeps the account row well-formed when a provider withholds the real
// email, but must never be used for cross-provider account matching.
const (
	GitHubFallbackSuffix  = "@github.noreply"
	DiscordFallbackSuffix = "@discord.noreply"
)

// Identity is the normalized, per-login claim set derived from one
// provider's response. It is never persisted directly; the reconciler
// consumes it immediately.
type Identity struct {
	Provider   string
	ProviderID string
	Email      string
	Login      string
	Name       string
	AvatarURL  string
}

// EmailIsReal reports whether the identity carries a provider-asserted
// address rather than a synthesized fallback.
func (i Identity) EmailIsReal() bool {
	if i.Email == "" {
		return false
	}

	return !strings.HasSuffix(i.Email, GitHubFallbackSuffix) &&
		!strings.HasSuffix(i.Email, DiscordFallbackSuffix)
}
