// Package models contains the gorm models of the backend.
package models

import (
	"time"
)

// Supported OAuth providers.
const (
	// ProviderGitHub identifies accounts created through GitHub login.
	ProviderGitHub = "github"
	// ProviderGoogle identifies accounts created through Google login.
	ProviderGoogle = "google"
	// ProviderDiscord identifies accounts created through Discord login.
	ProviderDiscord = "discord"
)

// Account represents the durable user record, keyed by the external
// identity that created it. At most one account exists per
// (provider, provider_id) pair, and a real email address belongs to at
// most one account.
type Account struct {
	// ID is the unique identifier for the account.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// Email is globally unique when present. Synthetic fallback addresses
	// (<login>@github.noreply, <username>@discord.noreply) are stored but
	// never used for cross-provider matching.
	Email *string `gorm:"uniqueIndex;size:255" json:"email"`
	// Name is the best-effort display name from the provider.
	Name string `gorm:"size:255" json:"name"`
	// AvatarURL points at the provider-hosted profile picture.
	AvatarURL string `gorm:"size:512" json:"avatar_url"`
	// Provider is the external identity issuer this account is bound to.
	Provider string `gorm:"size:20;not null;uniqueIndex:idx_accounts_external_identity" json:"provider"`
	// ProviderID is the provider-scoped stable identifier.
	ProviderID string `gorm:"size:255;not null;uniqueIndex:idx_accounts_external_identity" json:"provider_id"`
	// CreatedAt is the timestamp when the account was created (managed by GORM).
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is the timestamp when the account was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updated_at"`
}

// EmailValue returns the email or the empty string when unset.
func (a *Account) EmailValue() string {
	if a.Email == nil {
		return ""
	}

	return *a.Email
}
