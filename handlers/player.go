// handlers/player.go — read-only projections of users, quests and rankings
package handlers

import (
	"errors"
	"strconv"

	"cartel-index-system/models"
	"cartel-index-system/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SetupPlayerRoutes registers the read-only query routes. Gateway auth is
// applied globally in main (after the internal/admin mounts), so these need
// no per-user context of their own.
func SetupPlayerRoutes(app *fiber.App, ledger *services.ReputationLedger, engine *services.QuestEngine, aggregator *services.Aggregator, clans *services.ClanService) {
	q := app.Group("/")

	q.Get("/players/:address", func(c *fiber.Ctx) error {
		address := c.Params("address")
		user, err := ledger.GetByAddress(address)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "player not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load player",
				"cause": err.Error(),
			})
		}

		clan, err := clans.MembershipOf(user.Address)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load clan membership",
				"cause": err.Error(),
			})
		}

		response := fiber.Map{
			"address":                  user.Address,
			"reputation":               user.Reputation,
			"shares":                   user.Shares,
			"referral_rewards_claimed": user.ReferralRewardsClaimed,
			"fid":                      user.FID,
			"farcaster_handle":         user.FarcasterHandle,
			"x_handle":                 user.XHandle,
			"agent_enabled":            user.AgentEnabled,
		}
		if clan != nil {
			response["clan"] = fiber.Map{"slug": clan.Slug, "tag": clan.Tag, "name": clan.Name}
		}
		return c.JSON(response)
	})

	q.Get("/players/:address/quests", func(c *fiber.Ctx) error {
		progress, err := engine.ProgressFor(c.Params("address"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load quest progress",
				"cause": err.Error(),
			})
		}

		entries := make([]fiber.Map, len(progress))
		for i, row := range progress {
			entry := fiber.Map{
				"quest_slug":    row.QuestSlug,
				"season":        row.Season,
				"current_count": row.CurrentCount,
				"target_count":  row.TargetCount,
				"completed":     row.Completed,
				"completed_at":  row.CompletedAt,
			}
			if quest, ok := models.QuestBySlug(row.QuestSlug); ok {
				entry["name"] = quest.Name
				entry["reward_rep"] = quest.RewardRep
				entry["reward_shares"] = quest.RewardShares
			}
			entries[i] = entry
		}
		return c.JSON(entries)
	})

	q.Get("/players/by-fid/:fid", func(c *fiber.Ctx) error {
		fid, err := strconv.ParseInt(c.Params("fid"), 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid fid"})
		}
		user, err := ledger.GetByFID(fid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "player not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load player",
				"cause": err.Error(),
			})
		}
		return c.JSON(user)
	})

	q.Get("/leaderboard", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "25"))
		users, err := ledger.Leaderboard(limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load leaderboard",
				"cause": err.Error(),
			})
		}

		entries := make([]fiber.Map, len(users))
		for i, u := range users {
			entries[i] = fiber.Map{
				"rank":       i + 1,
				"address":    u.Address,
				"reputation": u.Reputation,
				"shares":     u.Shares,
			}
		}
		return c.JSON(entries)
	})

	q.Get("/most-wanted", func(c *fiber.Ctx) error {
		hours, _ := strconv.Atoi(c.Query("hours", "24"))
		limit, _ := strconv.Atoi(c.Query("limit", "10"))
		ranking, err := aggregator.MostWanted(hours, limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to build most-wanted ranking",
				"cause": err.Error(),
			})
		}
		return c.JSON(ranking)
	})

	q.Get("/revenue/chart", func(c *fiber.Ctx) error {
		days, _ := strconv.Atoi(c.Query("days", "7"))
		chart, err := aggregator.RevenueChart(days)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to build revenue chart",
				"cause": err.Error(),
			})
		}
		return c.JSON(chart)
	})

	q.Get("/raids/target", func(c *fiber.Ctx) error {
		requester := c.Query("for")
		if requester == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing required query param: for"})
		}
		target, err := aggregator.RandomTarget(requester, c.Query("exclude"))
		if err != nil {
			if errors.Is(err, services.ErrNoTarget) {
				// Nobody to raid is a normal outcome, not a failure.
				return c.JSON(fiber.Map{"found": false})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to pick raid target",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"found":   true,
			"address": target.Address,
			"shares":  target.Shares,
		})
	})

	q.Get("/clans/:slug/members", func(c *fiber.Ctx) error {
		members, err := clans.Members(c.Params("slug"))
		if err != nil {
			if errors.Is(err, services.ErrClanNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "clan not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load clan members",
				"cause": err.Error(),
			})
		}
		addresses := make([]string, len(members))
		for i, m := range members {
			addresses[i] = m.Address
		}
		return c.JSON(fiber.Map{"members": addresses})
	})

	q.Get("/quests/catalog", func(c *fiber.Ctx) error {
		catalog := make([]fiber.Map, len(models.QuestCatalog))
		for i, quest := range models.QuestCatalog {
			catalog[i] = fiber.Map{
				"slug":          quest.Slug,
				"name":          quest.Name,
				"cadence":       quest.Cadence,
				"target_count":  quest.TargetCount,
				"reward_rep":    quest.RewardRep,
				"reward_shares": quest.RewardShares,
			}
		}
		return c.JSON(catalog)
	})
}
