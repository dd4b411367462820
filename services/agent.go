package services

import (
	"context"
	"errors"
	"log"

	"cartel-index-system/models"

	"cartel-index-system/chain"

	"gorm.io/gorm"
)

// AgentService performs one bounded unit of autonomous game action per
// opted-in user and yields. Every invocation is independent: nothing is
// assumed from a previous run beyond what is durably persisted in AgentRun.
type AgentService struct {
	DB         *gorm.DB
	Aggregator *Aggregator
	Chain      *chain.LogClient
}

func NewAgentService(db *gorm.DB, aggregator *Aggregator, chainClient *chain.LogClient) *AgentService {
	return &AgentService{DB: db, Aggregator: aggregator, Chain: chainClient}
}

// AgentSummary reports what one scheduler invocation did.
type AgentSummary struct {
	Users     int `json:"users"`
	Submitted int `json:"submitted"`
	NoTarget  int `json:"no_target"`
	Failed    int `json:"failed"`
}

// RunOnce acts for each opted-in user, or just onlyAddress when given. Never
// loops: at most limit users, one action each — the external caller enforces
// the wall-clock budget.
func (s *AgentService) RunOnce(ctx context.Context, onlyAddress string, limit int) (AgentSummary, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	q := s.DB.Where("agent_enabled = ?", true)
	if onlyAddress != "" {
		q = q.Where("address = ?", models.NormalizeAddress(onlyAddress))
	}
	var users []models.User
	if err := q.Limit(limit).Find(&users).Error; err != nil {
		return AgentSummary{}, err
	}

	summary := AgentSummary{Users: len(users)}
	for _, user := range users {
		run := models.AgentRun{Address: user.Address}

		target, err := s.Aggregator.RandomTarget(user.Address, "")
		if err != nil {
			if errors.Is(err, ErrNoTarget) {
				summary.NoTarget++
				run.Outcome = "no_target"
				s.recordRun(&run)
				continue
			}
			return summary, err
		}

		run.TargetAddress = target.Address
		if err := s.Chain.SubmitRaid(ctx, user.Address, target.Address); err != nil {
			summary.Failed++
			run.Outcome = "failed"
			run.Detail = err.Error()
			log.Printf("❌ [AGENT] Raid submission failed for %s: %v", user.Address, err)
		} else {
			summary.Submitted++
			run.Outcome = "submitted"
		}
		s.recordRun(&run)
	}
	return summary, nil
}

func (s *AgentService) recordRun(run *models.AgentRun) {
	if err := s.DB.Create(run).Error; err != nil {
		log.Printf("⚠️ [AGENT] Failed to record run for %s: %v", run.Address, err)
	}
}

// SetAgentEnabled flips a user's opt-in flag.
func (s *AgentService) SetAgentEnabled(address string, enabled bool) error {
	res := s.DB.Model(&models.User{}).
		Where("address = ?", models.NormalizeAddress(address)).
		Update("agent_enabled", enabled)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
