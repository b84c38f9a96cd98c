// Package mobile serves the native-app login endpoint. Mobile clients
// run the GitHub authorization step themselves and post the resulting
// code here instead of going through the browser callback.
package mobile

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/LestDomzEDU/Project-3-Back-End/internal/accounts"
	"github.com/LestDomzEDU/Project-3-Back-End/internal/auth"
	"github.com/LestDomzEDU/Project-3-Back-End/internal/config"
	"github.com/LestDomzEDU/Project-3-Back-End/internal/web/handler"
	"github.com/LestDomzEDU/Project-3-Back-End/internal/web/session"
)

// Path is the mobile GitHub login endpoint.
const Path = "/api/mobile/github/callback"

// codeRequest is the body the app posts after its own GitHub round
// trip. The redirect URI must match the one used for the code or the
// exchange fails at GitHub.
type codeRequest struct {
	Code        string `json:"code"        validate:"required"`
	RedirectURI string `json:"redirectUri" validate:"required,uri"`
}

// Service implements the mobile login handler.
type Service struct {
	handler.Service

	cfg        *config.Config
	registry   *auth.Registry
	reconciler *accounts.Reconciler
	validate   *validator.Validate
}

// New creates the mobile handler service on the given provider registry.
func New(registry *auth.Registry) *Service {
	return &Service{registry: registry}
}

// Init initializes the handler and registers the route.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.reconciler = accounts.New(db)
	s.validate = validator.New()

	app.Post(Path, s.Callback)

	return nil
}

// Callback exchanges an app-supplied GitHub code for a login session.
// Unlike the browser flow there is no redirect chain: failures come
// back as JSON errors.
func (s *Service) Callback(c *fiber.Ctx) error {
	var req codeRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"ok":    false,
			"error": "invalid request body",
		})
	}

	if err := s.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"ok":    false,
			"error": "code and redirectUri are required",
		})
	}

	provider, err := s.registry.Get("github")
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"ok":    false,
			"error": "github login is not enabled",
		})
	}

	// the exchange must repeat the redirect URI the app used
	identity, err := provider.Authenticate(c.Context(), req.Code,
		oauth2.SetAuthURLParam("redirect_uri", req.RedirectURI))
	if err != nil {
		log.Error().Err(err).Msg("mobile token exchange failed")

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"ok":    false,
			"error": "token exchange failed",
		})
	}

	account, err := s.reconciler.Reconcile(c.Context(), identity)
	if err != nil {
		log.Error().Err(err).Msg("mobile account reconciliation failed")

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"ok":    false,
			"error": "login failed",
		})
	}

	sessionID, err := session.GenerateSessionID()
	if err != nil {
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	data := session.Data{Account: *account, Login: identity.Login}
	if err := data.Write(sessionID, s.cfg.Webserver.Session.ExpiryTime); err != nil {
		log.Error().Err(err).Msg("failed to store session")

		return c.SendStatus(fiber.StatusInternalServerError)
	}

	c.Cookie(&fiber.Cookie{
		Name:     handler.SessionCookieName,
		Value:    sessionID,
		Secure:   !s.cfg.DevMode,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		MaxAge:   int(s.cfg.Webserver.Session.ExpiryTime.Seconds()),
	})

	log.Info().Str("login", identity.Login).Uint64("account", account.ID).Msg("mobile login succeeded")

	return c.JSON(fiber.Map{
		"ok":    true,
		"login": identity.Login,
	})
}
