package models

// InviteType distinguishes founder-seeded codes from user-generated ones.
type InviteType string

const (
	InviteTypeFounder InviteType = "founder"
	InviteTypeUser    InviteType = "user"
)

// InviteStatus is the lifecycle of an invite code.
type InviteStatus string

const (
	InviteStatusUnused  InviteStatus = "unused"
	InviteStatusUsed    InviteStatus = "used"
	InviteStatusExpired InviteStatus = "expired"
)

// Invite is a usage-capped referral code. UsedCount <= MaxUses must hold
// after any sequence of concurrent redemptions — the ledger enforces it with
// a guarded increment, never check-then-write.
type Invite struct {
	ID             string       `gorm:"primaryKey;type:uuid" json:"id"`
	Code           string       `gorm:"uniqueIndex;type:varchar(32);not null" json:"code"`
	CreatorAddress *string      `gorm:"index;type:varchar(128)" json:"creator_address,omitempty"`
	Type           InviteType   `gorm:"type:varchar(16);not null" json:"type"`
	MaxUses        int          `json:"max_uses" gorm:"not null;default:1"`
	UsedCount      int          `json:"used_count" gorm:"not null;default:0"`
	Status         InviteStatus `gorm:"type:varchar(16);not null;default:'unused';index" json:"status"`

	Timestamps
}

// Referral is the attribution edge from a referred user to their referrer,
// created at most once per referred address.
type Referral struct {
	ID              string `gorm:"primaryKey;type:uuid" json:"id"`
	ReferrerAddress string `gorm:"index;type:varchar(128);not null" json:"referrer_address"`
	ReferredAddress string `gorm:"uniqueIndex;type:varchar(128);not null" json:"referred_address"`
	CodeUsed        string `gorm:"not null" json:"code_used"`

	Timestamps
}
