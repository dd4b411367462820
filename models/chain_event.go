package models

import (
	"strings"
	"time"
)

// EventKind is the closed set of decoded on-chain event types.
type EventKind string

const (
	EventKindRaid           EventKind = "RAID"
	EventKindHighStakesRaid EventKind = "HIGH_STAKES_RAID"
	EventKindClaim          EventKind = "CLAIM"
	EventKindJoin           EventKind = "JOIN"
	EventKindTransfer       EventKind = "TRANSFER"
	EventKindSharePurchase  EventKind = "SHARE_PURCHASE"
)

// RaidKinds covers both regular and high-stakes raids.
var RaidKinds = []EventKind{EventKindRaid, EventKindHighStakesRaid}

// ZeroAddress is the "no referrer" sentinel.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// NormalizeAddress canonicalizes a chain address for storage and comparison.
// Chain addresses are not case-stable, so everything is lowercased on write —
// queries can then compare raw column values.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// ChainEvent is the immutable record of one decoded on-chain occurrence.
// (tx_hash, log_index) is the dedup key the whole pipeline relies on:
// re-recording the same pair is a silent no-op.
type ChainEvent struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	TxHash   string `gorm:"uniqueIndex:idx_chain_events_tx_log;type:varchar(128);not null" json:"tx_hash"`
	LogIndex uint   `gorm:"uniqueIndex:idx_chain_events_tx_log;not null;default:0" json:"log_index"`

	Kind        EventKind `gorm:"type:varchar(32);index;not null" json:"kind"`
	BlockNumber uint64    `gorm:"index" json:"block_number"`

	Actor        string `gorm:"type:varchar(128);index;not null" json:"actor"`
	Counterparty string `gorm:"type:varchar(128);index" json:"counterparty"`

	// Numeric payload — which fields are meaningful depends on Kind.
	FeePaid     float64 `json:"fee_paid"`
	SharesMoved float64 `json:"shares_moved"`
	Amount      float64 `json:"amount"`

	BlockTime time.Time `gorm:"index" json:"block_time"`

	// Flipped exactly once by the quest engine's claim transaction.
	Processed bool `gorm:"index;not null;default:false" json:"processed"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// IndexCursor is the single-row persisted position of the log reader.
// Only advanced monotonically, so overlapping indexing runs cannot move it back.
type IndexCursor struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	BlockNumber uint64    `json:"block_number"`
	LogIndex    uint      `json:"log_index"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
