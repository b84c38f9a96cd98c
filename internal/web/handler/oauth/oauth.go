// Package oauth implements the browser-facing login round trip: the
// authorization start route, the provider callback and the landing
// page that hands the result back to the caller.
package oauth

import (
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/LestDomzEDU/Project-3-Back-End/internal/accounts"
	"github.com/LestDomzEDU/Project-3-Back-End/internal/auth"
	"github.com/LestDomzEDU/Project-3-Back-End/internal/config"
	"github.com/LestDomzEDU/Project-3-Back-End/internal/uniuri"
	"github.com/LestDomzEDU/Project-3-Back-End/internal/web/handler"
	"github.com/LestDomzEDU/Project-3-Back-End/internal/web/session"
)

const (
	// AuthorizePath starts a login round trip with the named provider.
	AuthorizePath = "/oauth2/authorization/:provider"

	// CallbackPath is where the provider redirects back to.
	CallbackPath = "/login/oauth2/code/:provider"

	// LandingPath renders the post-login handoff page.
	LandingPath = "/oauth2/final"

	// FailurePath is where every failed login attempt ends up.
	FailurePath = "/?login=failed"

	// stateTTL bounds the provider round trip.
	stateTTL = 5 * time.Minute

	// stateLen is the length of the state token.
	stateLen = 32
)

// Service implements the OAuth web handlers.
type Service struct {
	handler.Service

	cfg        *config.Config
	registry   *auth.Registry
	reconciler *accounts.Reconciler
	carrier    *Carrier
}

// New creates the OAuth handler service on the given provider registry.
func New(registry *auth.Registry) *Service {
	return &Service{registry: registry}
}

// Init initializes the handler and registers the routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.reconciler = accounts.New(db)
	s.carrier = NewCarrier(cfg.OAuth.ContinuationSecret, cfg.DevMode)

	app.Get(AuthorizePath, s.Authorize)
	app.Get(CallbackPath, s.Callback)
	app.Get(LandingPath, s.Landing)

	return nil
}

// Authorize starts a login round trip: it mints a single-use state
// token, remembers the requested return destination and redirects to
// the provider's authorization endpoint. fresh=1 asks google for an
// account picker instead of silent re-login.
func (s *Service) Authorize(c *fiber.Ctx) error {
	name := c.Params("provider")

	provider, err := s.registry.Get(name)
	if err != nil {
		log.Debug().Str("provider", name).Msg("login request for unknown provider")

		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "unknown provider: " + name,
		})
	}

	state := uniuri.NewLen(stateLen)

	if err := session.WriteState(state, session.State{Provider: name}, stateTTL); err != nil {
		log.Error().Err(err).Msg("failed to store login state")

		return c.SendStatus(fiber.StatusInternalServerError)
	}

	s.carrier.Persist(c, c.Query("return_to"))

	fresh := c.Query("fresh") == "1"

	return c.Redirect(provider.AuthCodeURL(state, fresh), fiber.StatusFound)
}

// Callback finishes the round trip: it consumes the state token,
// exchanges the code for a profile, reconciles the account and opens a
// session. Every failure ends at FailurePath; partial logins do not
// exist.
func (s *Service) Callback(c *fiber.Ctx) error {
	name := c.Params("provider")

	if errParam := c.Query("error"); errParam != "" {
		log.Info().Str("provider", name).Str("error", errParam).Msg("provider denied the login")

		return c.Redirect(FailurePath, fiber.StatusFound)
	}

	code := c.Query("code")
	state := c.Query("state")

	if code == "" || state == "" {
		log.Debug().Str("provider", name).Msg("callback without code or state")

		return c.Redirect(FailurePath, fiber.StatusFound)
	}

	stored, err := session.ReadState(state)
	if err != nil || stored.Provider != name {
		log.Warn().Str("provider", name).Msg("callback with unknown or mismatched state")

		return c.Redirect(FailurePath, fiber.StatusFound)
	}

	provider, err := s.registry.Get(name)
	if err != nil {
		return c.Redirect(FailurePath, fiber.StatusFound)
	}

	identity, err := provider.Authenticate(c.Context(), code)
	if err != nil {
		log.Error().Err(err).Str("provider", name).Msg("token exchange failed")

		return c.Redirect(FailurePath, fiber.StatusFound)
	}

	account, err := s.reconciler.Reconcile(c.Context(), identity)
	if err != nil {
		log.Error().Err(err).Str("provider", name).Msg("account reconciliation failed")

		return c.Redirect(FailurePath, fiber.StatusFound)
	}

	sessionID, err := session.GenerateSessionID()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate session ID")

		return c.Redirect(FailurePath, fiber.StatusFound)
	}

	data := session.Data{Account: *account, Login: identity.Login}
	if err := data.Write(sessionID, s.cfg.Webserver.Session.ExpiryTime); err != nil {
		log.Error().Err(err).Msg("failed to store session")

		return c.Redirect(FailurePath, fiber.StatusFound)
	}

	c.Cookie(&fiber.Cookie{
		Name:     handler.SessionCookieName,
		Value:    sessionID,
		Secure:   !s.cfg.DevMode,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		MaxAge:   int(s.cfg.Webserver.Session.ExpiryTime.Seconds()),
	})

	log.Info().
		Str("provider", name).
		Str("login", identity.Login).
		Uint64("account", account.ID).
		Msg("login succeeded")

	target := LandingPath

	if destination, fromCookie := s.carrier.Resolve(c); destination != "" {
		target += "?return_to=" + url.QueryEscape(destination)

		if fromCookie {
			// consumed, a later login must not replay it
			s.carrier.Clear(c)
		}
	}

	return c.Redirect(target, fiber.StatusFound)
}
