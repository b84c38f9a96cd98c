package oauth

import (
	"encoding/json"
	"html/template"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/LestDomzEDU/Project-3-Back-End/internal/web/handler"
)

// Payload is the user info blob the landing page hands back to the
// caller, both inline and inside the deep link fragment.
type Payload struct {
	Authenticated bool    `json:"authenticated"`
	Name          string  `json:"name"`
	Login         string  `json:"login"`
	Email         *string `json:"email"`
	AvatarURL     string  `json:"avatar_url"`
}

// Landing renders the post-login handoff page. When a return
// destination is known the page deep-links back to it with the user
// info in the URL fragment; otherwise it just shows the result and
// tries to close itself.
func (s *Service) Landing(c *fiber.Ctx) error {
	payload := Payload{Authenticated: true}

	if data, ok := handler.CurrentSession(c); ok {
		payload.Name = data.Account.Name
		payload.Login = data.Login
		payload.Email = data.Account.Email
		payload.AvatarURL = data.Account.AvatarURL
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode landing payload")

		encoded = []byte(`{"authenticated":true}`)
	}

	destination, fromCookie := s.carrier.Resolve(c)
	if fromCookie {
		s.carrier.Clear(c)
	}

	// quotes would break out of the JS string literal in old webviews
	destination = strings.ReplaceAll(destination, `"`, "")

	var deepLink string
	if destination != "" {
		deepLink = destination + "#userinfo=" + url.QueryEscape(string(encoded))
	}

	return c.Render("oauth_final", fiber.Map{
		"Title":    s.cfg.Title,
		"Payload":  template.JS(encoded), //nolint:gosec // server-built JSON
		"DeepLink": deepLink,
	})
}
