package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mohammadHusnain/SKILLSWAPP/internal/auth"
	"github.com/mohammadHusnain/SKILLSWAPP/internal/httpx"
)

// AuthRequired verifies the bearer token and stores the user id in the
// request context under "userID".
func AuthRequired(verifier auth.Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get(fiber.HeaderAuthorization)
		if token == "" {
			return httpx.Unauthorized(c, "missing_access_token", "Missing access token")
		}

		userID, err := verifier.Verify(token)
		if err != nil {
			return httpx.Unauthorized(c, "invalid_access_token", "Invalid or expired token")
		}

		c.Locals("userID", userID)
		return c.Next()
	}
}
