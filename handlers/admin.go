// handlers/admin.go — shared-secret administrative tooling
package handlers

import (
	"errors"
	"fmt"
	"time"

	"cartel-index-system/middleware"
	"cartel-index-system/models"
	"cartel-index-system/services"
	"cartel-index-system/utils"

	"github.com/gofiber/fiber/v2"
)

func SetupAdminRoutes(app *fiber.App, referrals *services.ReferralService, shares *services.PendingShareService, ledger *services.ReputationLedger, aggregator *services.Aggregator, fraud *services.FraudService) {
	// 🔒 Out-of-band shared secret, exact match — never routed via the gateway.
	admin := app.Group("/admin", middleware.AdminAuthMiddleware())

	admin.Post("/invites/generate", func(c *fiber.Ctx) error {
		var req struct {
			Type    models.InviteType `json:"type"`
			Count   int               `json:"count"`
			MaxUses int               `json:"max_uses"`
			Creator string            `json:"creator,omitempty"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
		}
		if req.Type != models.InviteTypeFounder && req.Type != models.InviteTypeUser {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "type must be founder or user"})
		}

		invites, err := referrals.GenerateInvites(req.Type, req.Count, req.MaxUses, req.Creator)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "invite generation failed",
				"cause": err.Error(),
			})
		}
		codes := make([]string, len(invites))
		for i, inv := range invites {
			codes[i] = inv.Code
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "codes": codes})
	})

	admin.Post("/invites/backfill", func(c *fiber.Ctx) error {
		var req struct {
			MaxUses int `json:"max_uses"`
		}
		_ = c.BodyParser(&req) // empty body means defaults

		created, err := referrals.BackfillUserInvites(req.MaxUses)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "backfill failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"success": true, "created": created})
	})

	admin.Get("/shares", func(c *fiber.Ctx) error {
		grants, err := shares.List(models.PendingShareStatus(c.Query("status")), 50)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to list pending shares",
				"cause": err.Error(),
			})
		}
		return c.JSON(grants)
	})

	admin.Post("/shares/:id/approve", func(c *fiber.Ctx) error {
		if err := shares.Approve(c.Params("id")); err != nil {
			if errors.Is(err, services.ErrShareNotPending) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "share grant already resolved"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "approval failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"success": true})
	})

	admin.Post("/shares/:id/reject", func(c *fiber.Ctx) error {
		var req struct {
			Reason string `json:"reason"`
		}
		_ = c.BodyParser(&req)

		if err := shares.Reject(c.Params("id"), req.Reason); err != nil {
			if errors.Is(err, services.ErrShareNotPending) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "share grant already resolved"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "rejection failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"success": true})
	})

	admin.Get("/fraud", func(c *fiber.Ctx) error {
		flags, err := fraud.Report(50)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load fraud report",
				"cause": err.Error(),
			})
		}
		return c.JSON(flags)
	})

	admin.Post("/reports/export", func(c *fiber.Ctx) error {
		ranking, err := aggregator.MostWanted(24, 50)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to build most-wanted snapshot",
				"cause": err.Error(),
			})
		}
		chart, err := aggregator.RevenueChart(30)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to build revenue snapshot",
				"cause": err.Error(),
			})
		}

		key := fmt.Sprintf("reports/daily-%s.json", time.Now().UTC().Format("2006-01-02"))
		url, err := utils.UploadReportJSON(c.Context(), key, fiber.Map{
			"generated_at": time.Now().UTC(),
			"most_wanted":  ranking,
			"revenue":      chart,
		})
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "report upload failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"success": true, "url": url})
	})

	admin.Post("/reset/:address", func(c *fiber.Ctx) error {
		if err := ledger.AdministrativeReset(c.Params("address")); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "reset failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"success": true})
	})
}
