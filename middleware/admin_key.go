package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"assesshub/config"
)

// RequireBootstrapKey gates setup and destructive maintenance
// endpoints behind the admin bootstrap key. When the key is not
// configured the gated feature is disabled entirely.
func RequireBootstrapKey() fiber.Handler {
	return func(c *fiber.Ctx) error {
		configured := config.AppConfig.AdminBootstrapKey
		if configured == "" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Admin bootstrap key not configured",
			})
		}

		provided := c.Get("X-Admin-Key")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(configured)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid admin key",
			})
		}

		return c.Next()
	}
}
