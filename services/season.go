package services

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Seasons are consecutive fixed-length epochs counted from a configured
// genesis. Quest progress is keyed by season number and never carries over.
const DefaultSeasonDays = 90

var (
	seasonGenesis = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	seasonLength  = DefaultSeasonDays * 24 * time.Hour
)

// LoadSeasonConfig reads SEASON_GENESIS (RFC3339) and SEASON_DAYS from the
// environment. Called once from main; defaults are fine for dev.
func LoadSeasonConfig() {
	if raw := os.Getenv("SEASON_GENESIS"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			log.Printf("⚠️  Invalid SEASON_GENESIS %q, keeping default: %v", raw, err)
		} else {
			seasonGenesis = t.UTC()
		}
	}
	if raw := os.Getenv("SEASON_DAYS"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days <= 0 {
			log.Printf("⚠️  Invalid SEASON_DAYS %q, keeping default", raw)
		} else {
			seasonLength = time.Duration(days) * 24 * time.Hour
		}
	}
}

// SeasonFor returns the season number containing t. Derived from the event's
// block time, not wall clock, so replaying old events lands in the right
// season. Times before genesis collapse into season 0.
func SeasonFor(t time.Time) int {
	if t.Before(seasonGenesis) {
		return 0
	}
	return int(t.Sub(seasonGenesis)/seasonLength) + 1
}
