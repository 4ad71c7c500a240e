package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/candidate-screener/internal/services"
)

const recruiterKey = "recruiter"

// RequireRecruiter admits requests carrying a valid recruiter bearer token
// and stores the username for later handlers.
func RequireRecruiter(auth services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		username, err := auth.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}

		c.Locals(recruiterKey, username)
		return c.Next()
	}
}

func recruiterFrom(c *fiber.Ctx) string {
	username, _ := c.Locals(recruiterKey).(string)
	return username
}
