package services

import (
	"errors"
	"math/rand"
	"sort"
	"time"

	"cartel-index-system/models"

	"gorm.io/gorm"
)

// ErrNoTarget means no eligible raid target exists. Callers surface it as an
// empty result, never a 500.
var ErrNoTarget = errors.New("no eligible raid target")

// Most-wanted weighting: one point per raid plus a slice of the value stolen.
const (
	wantedRaidWeight  = 1.0
	wantedValueWeight = 0.001
)

// Aggregator produces windowed, read-only projections: revenue charts, the
// most-wanted ranking and random raid targets. It never mutates state.
type Aggregator struct {
	DB *gorm.DB
}

func NewAggregator(db *gorm.DB) *Aggregator {
	return &Aggregator{DB: db}
}

// RevenueBucket is one calendar day of fee revenue.
type RevenueBucket struct {
	Date  string  `json:"date"` // YYYY-MM-DD, UTC
	Total float64 `json:"total"`
}

// RevenueChart returns one bucket per calendar day (UTC) for the trailing
// window, ascending, with zero-filled gaps — a 7-day chart always has 7
// buckets even when six days had no fees.
func (a *Aggregator) RevenueChart(days int) ([]RevenueBucket, error) {
	if days <= 0 || days > 365 {
		days = 7
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	start := today.AddDate(0, 0, -(days - 1))

	var txs []models.RevenueTransaction
	if err := a.DB.Where("occurred_at >= ?", start).Find(&txs).Error; err != nil {
		return nil, err
	}

	totals := make(map[string]float64, days)
	for _, t := range txs {
		totals[t.OccurredAt.UTC().Format("2006-01-02")] += t.Amount
	}

	buckets := make([]RevenueBucket, 0, days)
	for d := 0; d < days; d++ {
		key := start.AddDate(0, 0, d).Format("2006-01-02")
		buckets = append(buckets, RevenueBucket{Date: key, Total: totals[key]})
	}
	return buckets, nil
}

// WantedEntry is one row of the most-wanted ranking.
type WantedEntry struct {
	Address      string    `json:"address"`
	Raids        int       `json:"raids"`
	SharesStolen float64   `json:"shares_stolen"`
	Score        float64   `json:"score"`
	LastRaidAt   time.Time `json:"last_raid_at"`
}

// MostWanted ranks actors by weighted raid frequency and value stolen within
// the trailing window, descending, ties broken by most recent activity.
func (a *Aggregator) MostWanted(windowHours, limit int) ([]WantedEntry, error) {
	if windowHours <= 0 {
		windowHours = 24
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	since := time.Now().UTC().Add(-time.Duration(windowHours) * time.Hour)

	var raids []models.ChainEvent
	if err := a.DB.Where("kind IN ? AND block_time >= ?", models.RaidKinds, since).
		Find(&raids).Error; err != nil {
		return nil, err
	}

	byActor := make(map[string]*WantedEntry)
	for _, ev := range raids {
		entry, ok := byActor[ev.Actor]
		if !ok {
			entry = &WantedEntry{Address: ev.Actor}
			byActor[ev.Actor] = entry
		}
		entry.Raids++
		entry.SharesStolen += ev.SharesMoved
		if ev.BlockTime.After(entry.LastRaidAt) {
			entry.LastRaidAt = ev.BlockTime
		}
	}

	ranking := make([]WantedEntry, 0, len(byActor))
	for _, entry := range byActor {
		entry.Score = float64(entry.Raids)*wantedRaidWeight + entry.SharesStolen*wantedValueWeight
		ranking = append(ranking, *entry)
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Score != ranking[j].Score {
			return ranking[i].Score > ranking[j].Score
		}
		return ranking[i].LastRaidAt.After(ranking[j].LastRaidAt)
	})
	if len(ranking) > limit {
		ranking = ranking[:limit]
	}
	return ranking, nil
}

// RandomTarget picks one eligible raid target uniformly at random, excluding
// the requester and the optional excluded address. Returns ErrNoTarget (not
// an infrastructure error) when nobody qualifies.
func (a *Aggregator) RandomTarget(requester, exclude string) (*models.User, error) {
	excluded := []string{models.NormalizeAddress(requester)}
	if exclude != "" {
		excluded = append(excluded, models.NormalizeAddress(exclude))
	}

	q := a.DB.Model(&models.User{}).Where("address NOT IN ?", excluded)

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrNoTarget
	}

	var target models.User
	if err := q.Offset(rand.Intn(int(count))).Order("address ASC").First(&target).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNoTarget
		}
		return nil, err
	}
	return &target, nil
}
