package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSeasonForFixedEpochs(t *testing.T) {
	genesis := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, SeasonFor(genesis.Add(-time.Second)))
	assert.Equal(t, 1, SeasonFor(genesis))
	assert.Equal(t, 1, SeasonFor(genesis.AddDate(0, 0, 89)))
	assert.Equal(t, 2, SeasonFor(genesis.AddDate(0, 0, 90)))
	assert.Equal(t, 3, SeasonFor(genesis.AddDate(0, 0, 180)))
}
