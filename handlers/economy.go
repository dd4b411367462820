// handlers/economy.go — invite redemption, clans, agent opt-in
package handlers

import (
	"errors"

	"cartel-index-system/middleware"
	"cartel-index-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupEconomyRoutes must be mounted last: gateway auth is already applied
// globally by then, and the user-context middleware added here only covers
// these mutating routes.
func SetupEconomyRoutes(app *fiber.App, referrals *services.ReferralService, clans *services.ClanService, agents *services.AgentService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Post("/invites/redeem", func(c *fiber.Ctx) error {
		var req struct {
			Code string `json:"code"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
		}

		referrer, err := referrals.Redeem(req.Code, c.Locals("user_address").(string))
		if err != nil {
			switch {
			case errors.Is(err, services.ErrInvalidInvite):
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid invite code"})
			case errors.Is(err, services.ErrInviteExhausted):
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "invite code exhausted"})
			default:
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "redemption failed",
					"cause": err.Error(),
				})
			}
		}
		return c.JSON(fiber.Map{"success": true, "referrer": referrer})
	})

	secured.Post("/clans", func(c *fiber.Ctx) error {
		var req struct {
			Name string `json:"name"`
			Tag  string `json:"tag"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
		}
		if req.Name == "" || req.Tag == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name and tag are required"})
		}

		clan, err := clans.CreateClan(req.Name, req.Tag, c.Locals("user_address").(string))
		if err != nil {
			switch {
			case errors.Is(err, services.ErrClanSlugTaken):
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "clan name or tag already taken"})
			case errors.Is(err, services.ErrAlreadyInClan):
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "leave your current clan first"})
			default:
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "failed to create clan",
					"cause": err.Error(),
				})
			}
		}
		return c.Status(fiber.StatusCreated).JSON(clan)
	})

	secured.Post("/clans/:slug/join", func(c *fiber.Ctx) error {
		err := clans.Join(c.Locals("user_address").(string), c.Params("slug"))
		if err != nil {
			switch {
			case errors.Is(err, services.ErrClanNotFound):
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "clan not found"})
			case errors.Is(err, services.ErrAlreadyInClan):
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "leave your current clan first"})
			default:
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "failed to join clan",
					"cause": err.Error(),
				})
			}
		}
		return c.JSON(fiber.Map{"success": true})
	})

	secured.Post("/clans/leave", func(c *fiber.Ctx) error {
		// Idempotent: leaving with no membership is still a success.
		if err := clans.Leave(c.Locals("user_address").(string)); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to leave clan",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"success": true})
	})

	secured.Post("/players/me/agent", func(c *fiber.Ctx) error {
		var req struct {
			Enabled bool `json:"enabled"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
		}
		if err := agents.SetAgentEnabled(c.Locals("user_address").(string), req.Enabled); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to update agent opt-in",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"success": true, "agent_enabled": req.Enabled})
	})
}
