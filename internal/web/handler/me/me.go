// Package me serves the current-user endpoint.
package me

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/LestDomzEDU/Project-3-Back-End/internal/config"
	"github.com/LestDomzEDU/Project-3-Back-End/internal/web/handler"
)

// Path is the current-user endpoint.
const Path = "/api/me"

// Service implements the current-user handler.
type Service struct {
	handler.Service
}

// Handler is the package-level service instance.
var Handler = Service{} //nolint:gochecknoglobals

// Init initializes the handler and registers the route.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
	}

	app.Get(Path, s.Me)

	return nil
}

// Me answers with the logged-in account or authenticated=false. It
// never fails a request over a missing or expired session.
func (s *Service) Me(c *fiber.Ctx) error {
	data, ok := handler.CurrentSession(c)
	if !ok {
		return c.JSON(fiber.Map{"authenticated": false})
	}

	return c.JSON(fiber.Map{
		"authenticated": true,
		"id":            data.Account.ID,
		"userId":        data.Account.ID,
		"login":         data.Login,
		"name":          data.Account.Name,
		"email":         data.Account.Email,
		"avatar_url":    data.Account.AvatarURL,
	})
}
