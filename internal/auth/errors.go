package auth

import (
	"errors"
)

var (
	// ErrMissingProviderIdentifier is returned when a provider response
	// carries no stable external id. The login attempt must be aborted.
	ErrMissingProviderIdentifier = errors.New("oauth provider id is missing")

	// ErrUnsupportedProvider is returned for provider names outside
	// github, google and discord.
	ErrUnsupportedProvider = errors.New("unsupported oauth provider")

	// ErrProviderExchange is returned when the token exchange or the
	// profile fetch failed or timed out. The attempt is not retried; a
	// retry is a new user-initiated login.
	ErrProviderExchange = errors.New("provider token exchange or profile fetch failed")

	// ErrNoIDToken is returned when the google token response carries no id_token.
	ErrNoIDToken = errors.New("no id_token in token response")

	// ErrAccountConflict is returned when reconciliation would violate
	// the email uniqueness invariant.
	ErrAccountConflict = errors.New("email already belongs to another account")
)
