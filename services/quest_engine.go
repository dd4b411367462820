package services

import (
	"context"
	"log"
	"time"

	"cartel-index-system/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuestEngine consumes unprocessed events and advances quest-progress state
// machines. Every event is handled in one transaction that first claims the
// event with a compare-and-set on its processed flag; overlapping cron
// triggers therefore never double-apply progress or rewards — the loser of
// the claim sees zero rows updated and walks away.
type QuestEngine struct {
	DB      *gorm.DB
	Store   *EventStore
	Ledger  *ReputationLedger
	Catalog []models.QuestDefinition
}

func NewQuestEngine(db *gorm.DB, store *EventStore, ledger *ReputationLedger) *QuestEngine {
	return &QuestEngine{
		DB:      db,
		Store:   store,
		Ledger:  ledger,
		Catalog: models.QuestCatalog,
	}
}

// ProcessSummary reports what one engine run did.
type ProcessSummary struct {
	Fetched     int `json:"fetched"`
	Claimed     int `json:"claimed"`
	AlreadyDone int `json:"already_done"`
	Unresolved  int `json:"unresolved"`
	Matched     int `json:"matched"`
	Completed   int `json:"completed"`
	Failed      int `json:"failed"`
}

// ProcessPending drains up to limit unprocessed events. A failure is scoped
// to its one event: logged, skipped, retried on the next trigger.
func (e *QuestEngine) ProcessPending(ctx context.Context, limit int) (ProcessSummary, error) {
	var summary ProcessSummary

	events, err := e.Store.FetchUnprocessed(nil, limit)
	if err != nil {
		return summary, err
	}
	summary.Fetched = len(events)

	for i := range events {
		ev := &events[i]
		if err := e.processOne(ctx, ev, &summary); err != nil {
			summary.Failed++
			log.Printf("❌ [QUEST] Failed to process event %s (%s): %v", ev.TxHash, ev.Kind, err)
		}
	}
	return summary, nil
}

func (e *QuestEngine) processOne(ctx context.Context, ev *models.ChainEvent, summary *ProcessSummary) error {
	return e.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claimed, err := e.Store.ClaimEvent(tx, ev.ID)
		if err != nil {
			return err
		}
		if !claimed {
			// An overlapping run got here first.
			summary.AlreadyDone++
			return nil
		}
		summary.Claimed++

		// Fee-bearing events feed the revenue series inside the claim
		// transaction, so re-indexing never double-counts a fee.
		if ev.FeePaid > 0 {
			if err := tx.Create(&models.RevenueTransaction{
				Amount:       ev.FeePaid,
				SourceTxHash: ev.TxHash,
				OccurredAt:   ev.BlockTime,
			}).Error; err != nil {
				return err
			}
		}

		// JOIN is the registration event: it creates the user record.
		if ev.Kind == models.EventKindJoin {
			if _, err := e.Ledger.EnsureUser(tx, ev.Actor); err != nil {
				return err
			}
		}

		var user models.User
		if err := tx.Where("address = ?", ev.Actor).First(&user).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				// Unregistered actors are valid chain participants who
				// haven't opted into quests — consume the event and move on.
				summary.Unresolved++
				return nil
			}
			return err
		}

		season := SeasonFor(ev.BlockTime)
		for _, quest := range e.Catalog {
			if !quest.Matches(ev) {
				continue
			}
			summary.Matched++
			completed, err := e.advance(tx, quest, ev, user.Address, season)
			if err != nil {
				return err
			}
			if completed {
				summary.Completed++
			}
		}
		return nil
	})
}

// advance applies one event's contribution to one quest. The increment is an
// additive UPDATE guarded by completed=false and the completion flip is a
// separate compare-and-set, so concurrent events for the same user sum
// correctly and the reward fires exactly once per season.
func (e *QuestEngine) advance(tx *gorm.DB, quest models.QuestDefinition, ev *models.ChainEvent, address string, season int) (bool, error) {
	prog := models.QuestProgress{
		Address:     address,
		QuestSlug:   quest.Slug,
		Season:      season,
		TargetCount: quest.TargetCount,
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}, {Name: "quest_slug"}, {Name: "season"}},
		DoNothing: true,
	}).Create(&prog).Error; err != nil {
		return false, err
	}

	res := tx.Model(&models.QuestProgress{}).
		Where("address = ? AND quest_slug = ? AND season = ? AND completed = ?", address, quest.Slug, season, false).
		Update("current_count", gorm.Expr("current_count + ?", quest.Contribution(ev)))
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		// Terminal for the season; extra matching events are no-ops.
		return false, nil
	}

	now := time.Now()
	flip := tx.Model(&models.QuestProgress{}).
		Where("address = ? AND quest_slug = ? AND season = ? AND completed = ? AND current_count >= target_count",
			address, quest.Slug, season, false).
		Updates(map[string]interface{}{
			"completed":    true,
			"completed_at": &now,
		})
	if flip.Error != nil {
		return false, flip.Error
	}
	if flip.RowsAffected == 0 {
		return false, nil
	}

	// Completion and reward land together or not at all — the surrounding
	// transaction rolls back both on any failure. Reputation is credited
	// directly; share grants go through PendingShare so on-chain issuance
	// stays decoupled (the external minting process watches for APPROVED).
	if err := e.Ledger.ApplyReward(tx, address, quest.RewardRep, 0); err != nil {
		return false, err
	}
	if quest.RewardShares > 0 {
		if err := tx.Create(&models.PendingShare{
			Address:   address,
			QuestSlug: quest.Slug,
			Amount:    quest.RewardShares,
			Status:    models.PendingShareStatusPending,
		}).Error; err != nil {
			return false, err
		}
	}
	log.Printf("🏆 Quest completed: %s → %s (season %d, +%d rep, +%.2f shares)",
		address, quest.Slug, season, quest.RewardRep, quest.RewardShares)
	return true, nil
}

// ProgressFor returns all progress rows for a user in the current season.
func (e *QuestEngine) ProgressFor(address string) ([]models.QuestProgress, error) {
	var rows []models.QuestProgress
	err := e.DB.Where("address = ? AND season = ?", models.NormalizeAddress(address), SeasonFor(time.Now())).
		Order("quest_slug ASC").
		Find(&rows).Error
	return rows, err
}
