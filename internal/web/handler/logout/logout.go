// Package logout serves the logout endpoint.
package logout

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/LestDomzEDU/Project-3-Back-End/internal/config"
	"github.com/LestDomzEDU/Project-3-Back-End/internal/web/handler"
	"github.com/LestDomzEDU/Project-3-Back-End/internal/web/session"
)

// Path is the logout endpoint.
const Path = "/api/logout"

// Service implements the logout handler.
type Service struct {
	handler.Service

	cfg *config.Config
}

// Handler is the package-level service instance.
var Handler = Service{} //nolint:gochecknoglobals

// Init initializes the handler and registers the route.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg

	app.Post(Path, s.Logout)

	return nil
}

// Logout drops the server-side session and expires the cookie. It is
// safe to call without a session and always reports success.
func (s *Service) Logout(c *fiber.Ctx) error {
	if sessionID := c.Cookies(handler.SessionCookieName); sessionID != "" {
		if err := session.Store.Delete(sessionID); err != nil {
			log.Error().Err(err).Msg("failed to delete session")
		}
	}

	c.Cookie(&fiber.Cookie{
		Name:     handler.SessionCookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		Secure:   !s.cfg.DevMode,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.JSON(fiber.Map{"logout": true})
}
