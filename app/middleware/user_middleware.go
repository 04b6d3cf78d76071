package middleware

import (
	"github.com/gofiber/fiber/v2"
)

const userIDKey = "userID"

// RequireUser pulls the caller identity from the X-User-ID header into the
// request locals. Authentication itself lives in front of this service; the
// id is only needed to scope retrieval and storage per user.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		if userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing X-User-ID header")
		}
		c.Locals(userIDKey, userID)
		return c.Next()
	}
}

// UserID returns the identity set by RequireUser.
func UserID(c *fiber.Ctx) string {
	v, _ := c.Locals(userIDKey).(string)
	return v
}
