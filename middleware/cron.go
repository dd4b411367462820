package middleware

import (
	"log"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CronAuthMiddleware guards the internal trigger endpoints with a shared
// bearer secret. Outside production an unset secret bypasses the check so
// local cron and manual curl triggers just work; in production the service
// refuses unauthenticated triggers unconditionally.
func CronAuthMiddleware() fiber.Handler {
	secret := os.Getenv("INDEXER_CRON_SECRET")
	production := os.Getenv("APP_ENV") == "production"
	if production && secret == "" {
		log.Fatal("❌ INDEXER_CRON_SECRET is not set — cannot run trigger endpoints in production")
	}

	return func(c *fiber.Ctx) error {
		if secret == "" && !production {
			return c.Next()
		}

		token := strings.TrimPrefix(c.Get("Authorization"), "Bearer ")
		if token != secret {
			log.Printf("🚫 [CRON_AUTH] Rejected trigger call to %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid trigger secret",
			})
		}
		return c.Next()
	}
}

// AdminAuthMiddleware guards administrative endpoints with an out-of-band
// shared secret compared by exact string match.
func AdminAuthMiddleware() fiber.Handler {
	secret := os.Getenv("ADMIN_SHARED_SECRET")
	if secret == "" {
		log.Fatal("❌ ADMIN_SHARED_SECRET is not set — admin endpoints cannot be enabled")
	}

	return func(c *fiber.Ctx) error {
		if c.Get("X-Admin-Secret") != secret {
			log.Printf("🚫 [ADMIN_AUTH] Rejected admin call to %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid admin secret",
			})
		}
		return c.Next()
	}
}
