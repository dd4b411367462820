package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestBySlug(t *testing.T) {
	quest, ok := QuestBySlug("serial-raider")
	require.True(t, ok)
	assert.Equal(t, "Serial Raider", quest.Name)
	assert.Equal(t, float64(3), quest.TargetCount)

	_, ok = QuestBySlug("no-such-quest")
	assert.False(t, ok)
}

func TestQuestCatalogSlugsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, quest := range QuestCatalog {
		assert.False(t, seen[quest.Slug], quest.Slug)
		seen[quest.Slug] = true
	}
}

func TestQuestMatchesFiltersKindAndShares(t *testing.T) {
	quest := QuestDefinition{Trigger: EventKindRaid, MinShares: 10}

	assert.False(t, quest.Matches(&ChainEvent{Kind: EventKindClaim, SharesMoved: 50}))
	assert.False(t, quest.Matches(&ChainEvent{Kind: EventKindRaid, SharesMoved: 10}))
	assert.True(t, quest.Matches(&ChainEvent{Kind: EventKindRaid, SharesMoved: 10.5}))
}

func TestQuestContribution(t *testing.T) {
	ev := &ChainEvent{Kind: EventKindRaid, SharesMoved: 12.5}

	counting := QuestDefinition{Trigger: EventKindRaid}
	assert.Equal(t, float64(1), counting.Contribution(ev))

	summing := QuestDefinition{Trigger: EventKindRaid, SumsPayload: true}
	assert.Equal(t, 12.5, summing.Contribution(ev))
}
