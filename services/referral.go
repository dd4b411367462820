package services

import (
	"errors"
	"log"
	"strings"

	"cartel-index-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrInvalidInvite: the code does not exist or has expired.
	ErrInvalidInvite = errors.New("invalid invite code")
	// ErrInviteExhausted: the code exists but all uses are taken.
	ErrInviteExhausted = errors.New("invite code exhausted")
)

// RewardPerReferral is credited to the referrer's claimed total on each
// successful first-time attribution.
const RewardPerReferral = 10.0

// ReferralService owns invite issuance, usage caps and referral attribution.
// It is the sole mutator of Invite.used_count.
type ReferralService struct {
	DB *gorm.DB
}

func NewReferralService(db *gorm.DB) *ReferralService {
	return &ReferralService{DB: db}
}

// Redeem consumes one use of an invite code on behalf of a redeemer and
// returns the referrer's address. An empty code is the open-access path: it
// succeeds and resolves to the zero address, by design.
//
// The validity check and the increment are one guarded UPDATE, so concurrent
// redemptions can never push used_count past max_uses.
func (s *ReferralService) Redeem(code, redeemer string) (string, error) {
	redeemer = models.NormalizeAddress(redeemer)
	code = strings.TrimSpace(code)
	if code == "" {
		return models.ZeroAddress, nil
	}

	var referrer string
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Invite{}).
			Where("code = ? AND status <> ? AND used_count < max_uses", code, models.InviteStatusExpired).
			Update("used_count", gorm.Expr("used_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Distinguish unknown/expired from exhausted for the caller.
			var inv models.Invite
			if err := tx.Where("code = ?", code).First(&inv).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return ErrInvalidInvite
				}
				return err
			}
			if inv.Status == models.InviteStatusExpired {
				return ErrInvalidInvite
			}
			return ErrInviteExhausted
		}

		if err := tx.Model(&models.Invite{}).
			Where("code = ? AND status = ?", code, models.InviteStatusUnused).
			Update("status", models.InviteStatusUsed).Error; err != nil {
			return err
		}

		var inv models.Invite
		if err := tx.Where("code = ?", code).First(&inv).Error; err != nil {
			return err
		}
		referrer = models.ZeroAddress
		if inv.CreatorAddress != nil {
			referrer = *inv.CreatorAddress
		}

		if referrer == models.ZeroAddress || redeemer == "" {
			return nil
		}

		// Attribution is set once and immutable: the unique index on
		// referred_address plus DoNothing makes a second redemption by the
		// same user a no-op edge-wise.
		attribution := models.Referral{
			ReferrerAddress: referrer,
			ReferredAddress: redeemer,
			CodeUsed:        code,
		}
		res = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "referred_address"}},
			DoNothing: true,
		}).Create(&attribution)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			// First attribution for this redeemer: credit the referrer.
			if err := tx.Model(&models.User{}).
				Where("address = ?", referrer).
				Update("referral_rewards_claimed", gorm.Expr("referral_rewards_claimed + ?", RewardPerReferral)).
				Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return referrer, nil
}

// ReferrerOf returns who referred an address, or the zero address.
func (s *ReferralService) ReferrerOf(address string) (string, error) {
	var ref models.Referral
	err := s.DB.Where("referred_address = ?", models.NormalizeAddress(address)).First(&ref).Error
	if err == gorm.ErrRecordNotFound {
		return models.ZeroAddress, nil
	}
	if err != nil {
		return "", err
	}
	return ref.ReferrerAddress, nil
}

// GenerateInvites mints a batch of codes. creator is optional (founder codes
// have none).
func (s *ReferralService) GenerateInvites(inviteType models.InviteType, count, maxUses int, creator string) ([]models.Invite, error) {
	if count <= 0 || count > 500 {
		count = 1
	}
	if maxUses <= 0 {
		maxUses = 1
	}

	var creatorAddr *string
	if creator != "" {
		normalized := models.NormalizeAddress(creator)
		creatorAddr = &normalized
	}

	invites := make([]models.Invite, 0, count)
	for i := 0; i < count; i++ {
		invites = append(invites, models.Invite{
			Code:           generateInviteCode(),
			CreatorAddress: creatorAddr,
			Type:           inviteType,
			MaxUses:        maxUses,
			Status:         models.InviteStatusUnused,
		})
	}
	if err := s.DB.Create(&invites).Error; err != nil {
		return nil, err
	}
	log.Printf("🎟️ Generated %d %s invite(s), max_uses=%d", count, inviteType, maxUses)
	return invites, nil
}

// BackfillUserInvites gives every registered user without an owned invite one
// personal code. Re-running is harmless.
func (s *ReferralService) BackfillUserInvites(maxUses int) (int, error) {
	if maxUses <= 0 {
		maxUses = 5
	}

	var users []models.User
	if err := s.DB.
		Where("address NOT IN (?)",
			s.DB.Model(&models.Invite{}).Select("creator_address").Where("creator_address IS NOT NULL")).
		Find(&users).Error; err != nil {
		return 0, err
	}

	created := 0
	for _, u := range users {
		addr := u.Address
		inv := models.Invite{
			Code:           generateInviteCode(),
			CreatorAddress: &addr,
			Type:           models.InviteTypeUser,
			MaxUses:        maxUses,
			Status:         models.InviteStatusUnused,
		}
		if err := s.DB.Create(&inv).Error; err != nil {
			log.Printf("⚠️ Backfill failed for %s: %v", addr, err)
			continue
		}
		created++
	}
	return created, nil
}

func generateInviteCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}
