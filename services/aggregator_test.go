package services

import (
	"testing"
	"time"

	"cartel-index-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevenueChartZeroFillsGaps(t *testing.T) {
	db := openTestDB(t)
	agg := NewAggregator(db)

	now := time.Now().UTC()
	seedRevenue := func(amount float64, at time.Time) {
		require.NoError(t, db.Create(&models.RevenueTransaction{
			Amount:       amount,
			SourceTxHash: "0xrev",
			OccurredAt:   at,
		}).Error)
	}
	seedRevenue(1.5, now)
	seedRevenue(2.5, now)
	seedRevenue(4, now.AddDate(0, 0, -2))
	seedRevenue(99, now.AddDate(0, 0, -10)) // outside the window

	buckets, err := agg.RevenueChart(7)
	require.NoError(t, err)
	require.Len(t, buckets, 7)

	assert.Equal(t, now.Format("2006-01-02"), buckets[6].Date)
	assert.Equal(t, 4.0, buckets[6].Total)
	assert.Equal(t, 4.0, buckets[4].Total)

	// The five other days exist with zero totals.
	var zeroDays int
	for _, b := range buckets {
		if b.Total == 0 {
			zeroDays++
		}
	}
	assert.Equal(t, 5, zeroDays)
}

func TestMostWantedWeighsRaidsAndValue(t *testing.T) {
	db := openTestDB(t)
	agg := NewAggregator(db)
	store := NewEventStore(db)

	now := time.Now().UTC()
	record := func(txHash, actor string, shares float64, at time.Time) {
		_, err := store.Record(raidAt(txHash, actor, "0xvictim", shares, at))
		require.NoError(t, err)
	}

	// Three raids beat one big raid: 3.03 vs 2.0 under the 1.0/raid +
	// 0.001/share weighting.
	record("0xw1", "0xfrequent", 10, now.Add(-time.Hour))
	record("0xw2", "0xfrequent", 10, now.Add(-2*time.Hour))
	record("0xw3", "0xfrequent", 10, now.Add(-3*time.Hour))
	record("0xw4", "0xbigshot", 1000, now.Add(-time.Hour))
	record("0xw5", "0xstale", 10, now.Add(-48*time.Hour)) // outside the window

	ranking, err := agg.MostWanted(24, 10)
	require.NoError(t, err)
	require.Len(t, ranking, 2)

	assert.Equal(t, "0xfrequent", ranking[0].Address)
	assert.Equal(t, 3, ranking[0].Raids)
	assert.InDelta(t, 3.03, ranking[0].Score, 1e-9)
	assert.Equal(t, "0xbigshot", ranking[1].Address)
	assert.InDelta(t, 2.0, ranking[1].Score, 1e-9)
}

func TestMostWantedEmptyWindow(t *testing.T) {
	db := openTestDB(t)
	agg := NewAggregator(db)

	ranking, err := agg.MostWanted(24, 10)
	require.NoError(t, err)
	assert.Empty(t, ranking)
}

func TestRandomTargetExcludesRequester(t *testing.T) {
	db := openTestDB(t)
	agg := NewAggregator(db)
	requester := seedUser(t, db, "0xrequester")

	// Alone in the mirror: no eligible target, and that is not a 500.
	_, err := agg.RandomTarget(requester, "")
	assert.ErrorIs(t, err, ErrNoTarget)

	victim := seedUser(t, db, "0xvictim")
	target, err := agg.RandomTarget(requester, "")
	require.NoError(t, err)
	assert.Equal(t, victim, target.Address)

	// Excluding the only candidate empties the pool again.
	_, err = agg.RandomTarget(requester, victim)
	assert.ErrorIs(t, err, ErrNoTarget)
}

func TestRandomTargetNeverReturnsRequester(t *testing.T) {
	db := openTestDB(t)
	agg := NewAggregator(db)
	requester := seedUser(t, db, "0xrequester")
	seedUser(t, db, "0xother1")
	seedUser(t, db, "0xother2")

	for i := 0; i < 20; i++ {
		target, err := agg.RandomTarget(requester, "")
		require.NoError(t, err)
		assert.NotEqual(t, requester, target.Address)
	}
}
