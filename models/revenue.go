package models

import "time"

// RevenueTransaction is an append-only fee record used purely for
// aggregation. One row per fee-bearing chain event, written inside the same
// transaction that claims the event, so re-indexing never double-counts.
type RevenueTransaction struct {
	ID           string    `gorm:"primaryKey;type:uuid" json:"id"`
	Amount       float64   `json:"amount" gorm:"not null"`
	SourceTxHash string    `gorm:"index;type:varchar(128)" json:"source_tx_hash"`
	OccurredAt   time.Time `gorm:"index;not null" json:"occurred_at"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// FraudEvent is an append-only anomaly flag consumed only by reporting.
// The (address, kind, window_start) key keeps repeated scans over the same
// window from stacking duplicate flags.
type FraudEvent struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	Address     string    `gorm:"uniqueIndex:idx_fraud_events_key;type:varchar(128);not null" json:"address"`
	Kind        string    `gorm:"uniqueIndex:idx_fraud_events_key;type:varchar(32);not null" json:"kind"`
	WindowStart time.Time `gorm:"uniqueIndex:idx_fraud_events_key;not null" json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	Count       int       `json:"count"`
	Detail      string    `json:"detail,omitempty"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// AgentRun records one bounded autonomous action taken for an opted-in user.
type AgentRun struct {
	ID            string    `gorm:"primaryKey;type:uuid" json:"id"`
	Address       string    `gorm:"index;type:varchar(128);not null" json:"address"`
	TargetAddress string    `gorm:"type:varchar(128)" json:"target_address,omitempty"`
	Outcome       string    `gorm:"type:varchar(32);not null" json:"outcome"` // submitted / no_target / failed
	Detail        string    `json:"detail,omitempty"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}
