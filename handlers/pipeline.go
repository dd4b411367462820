// handlers/pipeline.go — internal trigger endpoints (cron-invoked)
package handlers

import (
	"strconv"
	"time"

	"cartel-index-system/middleware"
	"cartel-index-system/services"
	"cartel-index-system/workers"

	"github.com/gofiber/fiber/v2"
)

func SetupPipelineRoutes(app *fiber.App, indexer *workers.IndexerWorker, engine *services.QuestEngine, agents *services.AgentService, fraud *services.FraudService) {
	// 🔐 Internal triggers — cron secret, never exposed through the gateway.
	internal := app.Group("/internal", middleware.CronAuthMiddleware())

	// One indexing pass followed by a quest-engine drain. Safe to re-trigger
	// mid-flight; both halves are idempotent.
	internal.Post("/index", func(c *fiber.Ctx) error {
		indexSummary, err := indexer.RunOnce(c.Context())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "indexing run failed",
				"cause":   err.Error(),
			})
		}

		questSummary, err := engine.ProcessPending(c.Context(), 200)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "quest engine run failed",
				"cause":   err.Error(),
			})
		}

		total, unprocessed, err := engine.Store.CountEvents()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "failed to count events",
				"cause":   err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"success": true,
			"index":   indexSummary,
			"quests":  questSummary,
			"events": fiber.Map{
				"total":   total,
				"backlog": unprocessed,
			},
		})
	})

	internal.Post("/agents", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "25"))
		summary, err := agents.RunOnce(c.Context(), c.Query("address"), limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "agent run failed",
				"cause":   err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"success": true,
			"agents":  summary,
		})
	})

	internal.Post("/fraud-scan", func(c *fiber.Ctx) error {
		hours, _ := strconv.Atoi(c.Query("hours", "1"))
		threshold, _ := strconv.Atoi(c.Query("threshold", "10"))
		flagged, err := fraud.ScanClaims(time.Duration(hours)*time.Hour, threshold)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "fraud scan failed",
				"cause":   err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"success": true,
			"flagged": flagged,
		})
	})
}
