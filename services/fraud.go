package services

import (
	"fmt"
	"log"
	"time"

	"cartel-index-system/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FraudKindClaimBurst flags abnormally frequent claims inside one window.
const FraudKindClaimBurst = "CLAIM_BURST"

// FraudService appends anomaly flags for the reporting side. It never blocks
// or reverses anything — the contracts enforce the economics; this only
// surfaces suspicious patterns.
type FraudService struct {
	DB *gorm.DB
}

func NewFraudService(db *gorm.DB) *FraudService {
	return &FraudService{DB: db}
}

// ScanClaims flags actors whose CLAIM count exceeds threshold. The count
// covers everything from the start of the previous aligned window up to now
// (between one and two window lengths), and the flag is keyed on that
// aligned boundary, so re-running before the next boundary upserts nothing
// new.
func (s *FraudService) ScanClaims(window time.Duration, threshold int) (int, error) {
	if window <= 0 {
		window = time.Hour
	}
	if threshold <= 0 {
		threshold = 10
	}
	windowStart := time.Now().UTC().Truncate(window)
	since := windowStart.Add(-window)

	type claimCount struct {
		Actor string
		N     int
	}
	var counts []claimCount
	if err := s.DB.Model(&models.ChainEvent{}).
		Select("actor, COUNT(*) as n").
		Where("kind = ? AND block_time >= ?", models.EventKindClaim, since).
		Group("actor").
		Having("COUNT(*) > ?", threshold).
		Scan(&counts).Error; err != nil {
		return 0, err
	}

	flagged := 0
	for _, c := range counts {
		flag := models.FraudEvent{
			Address:     c.Actor,
			Kind:        FraudKindClaimBurst,
			WindowStart: since,
			WindowEnd:   windowStart,
			Count:       c.N,
			Detail:      fmt.Sprintf("%d claims in %s (threshold %d)", c.N, window, threshold),
		}
		res := s.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "address"}, {Name: "kind"}, {Name: "window_start"}},
			DoNothing: true,
		}).Create(&flag)
		if res.Error != nil {
			return flagged, res.Error
		}
		if res.RowsAffected > 0 {
			flagged++
			log.Printf("🚩 Fraud flag: %s — %s", c.Actor, flag.Detail)
		}
	}
	return flagged, nil
}

// Report returns the most recent fraud flags.
func (s *FraudService) Report(limit int) ([]models.FraudEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var flags []models.FraudEvent
	err := s.DB.Order("created_at DESC").Limit(limit).Find(&flags).Error
	return flags, err
}
