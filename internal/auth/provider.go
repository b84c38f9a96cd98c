package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

const (
	// CallbackPathPrefix is the route prefix the providers redirect back
	// to; the provider name is appended.
	CallbackPathPrefix = "/login/oauth2/code/"

	// exchangeTimeout bounds the token exchange and the profile fetch.
	exchangeTimeout = 10 * time.Second
)

// Provider wraps one OAuth client registration together with its claim
// normalizer. Google additionally carries an ID token verifier; the
// other providers fetch a userinfo endpoint.
type Provider struct {
	name        string
	oauth       *oauth2.Config
	userInfoURL string
	normalizer  Normalizer
	verifier    *oidc.IDTokenVerifier
	httpClient  *http.Client
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return p.name
}

// AuthCodeOptions implements the authorization customizer: with fresh
// set, google gets prompt=consent so the user can pick an account. All
// other parameters stay untouched; other providers are a no-op.
func (p *Provider) AuthCodeOptions(fresh bool) []oauth2.AuthCodeOption {
	if fresh && p.name == "google" {
		return []oauth2.AuthCodeOption{oauth2.SetAuthURLParam("prompt", "consent")}
	}

	return nil
}

// AuthCodeURL returns the provider authorization URL for the given state.
func (p *Provider) AuthCodeURL(state string, fresh bool) string {
	return p.oauth.AuthCodeURL(state, p.AuthCodeOptions(fresh)...)
}

// Authenticate exchanges the authorization code, fetches the profile and
// returns the normalized identity. Both network calls share one bounded
// deadline; on timeout or a non-2xx response the whole attempt fails.
func (p *Provider) Authenticate(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, exchangeTimeout)
	defer cancel()

	// route the exchange through the bounded client
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.oauth.Exchange(ctx, code, opts...)
	if err != nil {
		return Identity{}, errors.Wrap(ErrProviderExchange, err.Error())
	}

	claims, err := p.fetchClaims(ctx, token)
	if err != nil {
		return Identity{}, errors.Wrap(ErrProviderExchange, err.Error())
	}

	return p.normalizer.Normalize(claims)
}

// fetchClaims loads the raw claim map for the token, either from the
// verified ID token (google) or from the userinfo endpoint.
func (p *Provider) fetchClaims(ctx context.Context, token *oauth2.Token) (map[string]any, error) {
	if p.verifier != nil {
		rawIDToken, ok := token.Extra("id_token").(string)
		if !ok {
			return nil, ErrNoIDToken
		}

		idToken, err := p.verifier.Verify(ctx, rawIDToken)
		if err != nil {
			return nil, errors.Wrap(err, "failed to verify ID token")
		}

		var claims map[string]any
		if err := idToken.Claims(&claims); err != nil {
			return nil, errors.Wrap(err, "failed to parse claims")
		}

		return claims, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build userinfo request")
	}

	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "userinfo request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("userinfo request returned status %d", resp.StatusCode)
	}

	var claims map[string]any

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()

	if err := decoder.Decode(&claims); err != nil {
		return nil, errors.Wrap(err, "failed to decode userinfo response")
	}

	return claims, nil
}

// Registry holds the configured OAuth providers and allows lookup by
// provider name. It performs no auth logic itself.
type Registry struct {
	providers map[string]*Provider
}

// NewRegistry registers the given OAuth providers by name.
func NewRegistry(list ...*Provider) *Registry {
	m := make(map[string]*Provider, len(list))
	for _, p := range list {
		m[p.Name()] = p
	}

	return &Registry{providers: m}
}

// Get returns the provider by name or ErrUnsupportedProvider.
func (r *Registry) Get(name string) (*Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, errors.Wrap(ErrUnsupportedProvider, name)
	}

	return p, nil
}

// Names returns the registered provider names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}

	return names
}
