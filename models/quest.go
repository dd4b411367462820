package models

import "time"

// QuestCadence scopes how often a quest resets.
type QuestCadence string

const (
	QuestCadenceDaily  QuestCadence = "daily"
	QuestCadenceWeekly QuestCadence = "weekly"
	QuestCadenceSeason QuestCadence = "season"
)

// QuestDefinition is a static catalog entry: which events advance the quest,
// how far it must go and what it pays out. Read-only at runtime.
type QuestDefinition struct {
	Slug    string
	Name    string
	Cadence QuestCadence

	// Trigger predicate: event kind plus optional filters.
	Trigger   EventKind
	MinShares float64 // only events moving more than this many shares count

	// SumsPayload quests accumulate the event's share payload instead of 1.
	SumsPayload bool

	TargetCount  float64
	RewardRep    int64
	RewardShares float64
}

// Matches reports whether an event advances this quest.
func (q QuestDefinition) Matches(ev *ChainEvent) bool {
	if ev.Kind != q.Trigger {
		return false
	}
	if q.MinShares > 0 && ev.SharesMoved <= q.MinShares {
		return false
	}
	return true
}

// Contribution is how much the event adds to the progress count.
func (q QuestDefinition) Contribution(ev *ChainEvent) float64 {
	if q.SumsPayload {
		return ev.SharesMoved
	}
	return 1
}

// QuestCatalog is the full quest configuration. Slugs are stable identifiers
// persisted in quest_progress rows — never reuse one for different semantics.
var QuestCatalog = []QuestDefinition{
	{
		Slug:        "first-blood",
		Name:        "First Blood",
		Cadence:     QuestCadenceSeason,
		Trigger:     EventKindRaid,
		TargetCount: 1,
		RewardRep:   50,
	},
	{
		Slug:        "serial-raider",
		Name:        "Serial Raider",
		Cadence:     QuestCadenceSeason,
		Trigger:     EventKindRaid,
		TargetCount: 3,
		RewardRep:   150,
	},
	{
		Slug:         "high-roller",
		Name:         "High Roller",
		Cadence:      QuestCadenceSeason,
		Trigger:      EventKindHighStakesRaid,
		TargetCount:  1,
		RewardRep:    300,
		RewardShares: 1,
	},
	{
		Slug:        "share-hoarder",
		Name:        "Share Hoarder",
		Cadence:     QuestCadenceSeason,
		Trigger:     EventKindRaid,
		MinShares:   0,
		SumsPayload: true,
		TargetCount: 100, // total shares stolen this season
		RewardRep:   500,
	},
	{
		Slug:        "cartel-recruit",
		Name:        "Cartel Recruit",
		Cadence:     QuestCadenceSeason,
		Trigger:     EventKindJoin,
		TargetCount: 1,
		RewardRep:   25,
	},
	{
		Slug:        "tax-collector",
		Name:        "Tax Collector",
		Cadence:     QuestCadenceSeason,
		Trigger:     EventKindClaim,
		TargetCount: 5,
		RewardRep:   100,
	},
}

// QuestBySlug looks up a catalog entry; second return is false when unknown.
func QuestBySlug(slug string) (QuestDefinition, bool) {
	for _, q := range QuestCatalog {
		if q.Slug == slug {
			return q, true
		}
	}
	return QuestDefinition{}, false
}

// QuestProgress is the per (user, quest, season) state machine row.
// CurrentCount never decreases; Completed is terminal for the season.
type QuestProgress struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	Address   string `gorm:"uniqueIndex:idx_quest_progress_key;type:varchar(128);not null" json:"address"`
	QuestSlug string `gorm:"uniqueIndex:idx_quest_progress_key;type:varchar(64);not null" json:"quest_slug"`
	Season    int    `gorm:"uniqueIndex:idx_quest_progress_key;not null" json:"season"`

	CurrentCount float64    `json:"current_count" gorm:"default:0"`
	TargetCount  float64    `json:"target_count" gorm:"not null"` // denormalized from the catalog
	Completed    bool       `json:"completed" gorm:"default:false;index"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`

	Timestamps
}

// PendingShareStatus is the approval state of a share grant.
type PendingShareStatus string

const (
	PendingShareStatusPending  PendingShareStatus = "PENDING"
	PendingShareStatusApproved PendingShareStatus = "APPROVED"
	PendingShareStatusRejected PendingShareStatus = "REJECTED"
)

// PendingShare is a share grant awaiting approval. Quest completion creates
// these instead of minting directly; an external minting process watches for
// APPROVED rows. Status transitions exactly once out of PENDING.
type PendingShare struct {
	ID        string             `gorm:"primaryKey;type:uuid" json:"id"`
	Address   string             `gorm:"index;type:varchar(128);not null" json:"address"`
	QuestSlug string             `json:"quest_slug,omitempty"`
	Amount    float64            `json:"amount" gorm:"not null"`
	Status    PendingShareStatus `gorm:"type:varchar(16);not null;default:'PENDING';index" json:"status"`
	Reason    string             `json:"reason,omitempty"` // set on rejection

	Timestamps
}
