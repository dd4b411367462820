package models

import "time"

// Clan is a player-owned group with a unique slug and tag.
type Clan struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	Slug         string `gorm:"uniqueIndex;type:varchar(64);not null" json:"slug"`
	Tag          string `gorm:"uniqueIndex;type:varchar(8);not null" json:"tag"`
	Name         string `gorm:"not null" json:"name"`
	OwnerAddress string `gorm:"index;type:varchar(128);not null" json:"owner_address"`
	Active       bool   `json:"active" gorm:"default:true;index"`

	Timestamps
}

// ClanMembership links a user to their one active clan. The unique index on
// address is what enforces the single-membership invariant — joining a second
// clan fails at the database even when two requests race.
type ClanMembership struct {
	ID       string    `gorm:"primaryKey;type:uuid" json:"id"`
	Address  string    `gorm:"uniqueIndex;type:varchar(128);not null" json:"address"`
	ClanID   string    `gorm:"index;type:uuid;not null" json:"clan_id"`
	JoinedAt time.Time `json:"joined_at" gorm:"autoCreateTime"`
}
