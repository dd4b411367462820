package middleware

import (
	"log"

	"cartel-index-system/models"

	"github.com/gofiber/fiber/v2"
)

// UserContextMiddleware extracts the authenticated wallet address set by the
// Gateway. Session/wallet authentication itself lives upstream — this service
// only trusts the forwarded identity header.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		address := c.Get("X-User-Address")
		if address == "" {
			log.Printf("❌ [USER_CTX] X-User-Address missing on secured route: %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-Address — request must come through gateway with auth context",
			})
		}

		c.Locals("user_address", models.NormalizeAddress(address))
		return c.Next()
	}
}
