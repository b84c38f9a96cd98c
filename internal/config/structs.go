package config

import (
	"time"

	"github.com/LestDomzEDU/Project-3-Back-End/internal/logger"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	OAuth     OAuth
	Title     string
	Webserver Webserver
}

// Webserver implement webserver settings.
type Webserver struct {
	Domain       string  // domain name for the webserver
	Port         int     // listening port for the webserver
	ShutDownTime int     // wait time for shutdown
	URL          string  // base url for the webserver
	Session      Session // session settings
}

// OAuth holds the external login settings.
type OAuth struct {
	// RedirectBase is the externally visible base URL the providers
	// redirect back to, e.g. "https://gradquest.example.com".
	RedirectBase string `validate:"required,url"`

	// ContinuationSecret signs the short-lived return_to cookie.
	ContinuationSecret string `validate:"required"`

	GitHub  Provider
	Google  Provider
	Discord Provider
}

// Provider holds one OAuth client registration.
type Provider struct {
	Enabled      bool
	ClientID     string
	ClientSecret string

	// Endpoint overrides for dev and test setups. When empty the
	// provider's well-known endpoints are used.
	AuthURL     string
	TokenURL    string
	UserInfoURL string
	IssuerURL   string // google only, OIDC discovery
}

// Enabled returns the names of all enabled providers.
func (o OAuth) EnabledProviders() []string {
	var names []string

	if o.GitHub.Enabled {
		names = append(names, "github")
	}

	if o.Google.Enabled {
		names = append(names, "google")
	}

	if o.Discord.Enabled {
		names = append(names, "discord")
	}

	return names
}
