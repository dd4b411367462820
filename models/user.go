package models

import (
	"time"

	"gorm.io/gorm"
)

// User mirrors one chain participant who has opted into the off-chain game
// layer. Created on the first qualifying JOIN event or explicit registration.
// Reputation and shares only ever grow outside an administrative reset.
type User struct {
	ID      string `gorm:"primaryKey;type:uuid" json:"id"`
	Address string `gorm:"uniqueIndex;type:varchar(128);not null" json:"address"` // normalized lowercase

	Reputation             int64   `json:"reputation" gorm:"default:0"`
	Shares                 float64 `json:"shares" gorm:"default:0"`
	ReferralRewardsClaimed float64 `json:"referral_rewards_claimed" gorm:"default:0"`

	// Optional linked social identity (verified by an external service).
	FID             *int64  `gorm:"index" json:"fid,omitempty"`
	FarcasterHandle *string `json:"farcaster_handle,omitempty"`
	XHandle         *string `json:"x_handle,omitempty"`

	// Opt-in for the autonomous agent scheduler.
	AgentEnabled bool `json:"agent_enabled" gorm:"default:false;index"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
