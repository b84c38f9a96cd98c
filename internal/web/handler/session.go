package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/LestDomzEDU/Project-3-Back-End/internal/web/session"
)

// CurrentSession loads the session data for the request's session
// cookie. The second return is false when there is no valid session.
func CurrentSession(c *fiber.Ctx) (*session.Data, bool) {
	sessionID := c.Cookies(SessionCookieName)
	if sessionID == "" {
		return nil, false
	}

	data := new(session.Data)
	if err := data.Read(sessionID); err != nil {
		return nil, false
	}

	if data.Account.ID == 0 {
		return nil, false
	}

	return data, true
}
