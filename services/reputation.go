package services

import (
	"errors"
	"fmt"
	"log"

	"cartel-index-system/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNegativeDelta guards the monotonicity contract: reputation and shares
// only ever decrease through AdministrativeReset.
var ErrNegativeDelta = errors.New("reward deltas must be non-negative")

// ReputationLedger owns all reputation/share mutations triggered by quest
// completion. Deltas are applied as additive SQL expressions so simultaneous
// completions for one user sum instead of overwriting each other.
type ReputationLedger struct {
	DB *gorm.DB
}

func NewReputationLedger(db *gorm.DB) *ReputationLedger {
	return &ReputationLedger{DB: db}
}

// EnsureUser creates the user row for an address if missing (idempotent) and
// returns it. tx may be a transaction handle or the root DB.
func (l *ReputationLedger) EnsureUser(tx *gorm.DB, address string) (*models.User, error) {
	address = models.NormalizeAddress(address)
	user := models.User{Address: address}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoNothing: true,
	}).Create(&user).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("address = ?", address).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ApplyReward adds rep/share deltas to a user inside the caller's
// transaction. The user must already exist — the quest engine only rewards
// resolved actors.
func (l *ReputationLedger) ApplyReward(tx *gorm.DB, address string, repDelta int64, shareDelta float64) error {
	if repDelta < 0 || shareDelta < 0 {
		return ErrNegativeDelta
	}
	if repDelta == 0 && shareDelta == 0 {
		return nil
	}
	res := tx.Model(&models.User{}).
		Where("address = ?", models.NormalizeAddress(address)).
		Updates(map[string]interface{}{
			"reputation": gorm.Expr("reputation + ?", repDelta),
			"shares":     gorm.Expr("shares + ?", shareDelta),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("no user record for %s", address)
	}
	return nil
}

// GetByAddress returns a user by normalized address.
func (l *ReputationLedger) GetByAddress(address string) (*models.User, error) {
	var user models.User
	err := l.DB.Where("address = ?", models.NormalizeAddress(address)).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByFID returns a user by linked Farcaster ID.
func (l *ReputationLedger) GetByFID(fid int64) (*models.User, error) {
	var user models.User
	err := l.DB.Where("fid = ?", fid).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Leaderboard returns the top users by reputation.
func (l *ReputationLedger) Leaderboard(limit int) ([]models.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	var users []models.User
	err := l.DB.Order("reputation DESC").Order("shares DESC").Limit(limit).Find(&users).Error
	return users, err
}

// AdministrativeReset zeroes a user's ledgers. The only sanctioned decrease;
// loud on purpose.
func (l *ReputationLedger) AdministrativeReset(address string) error {
	address = models.NormalizeAddress(address)
	res := l.DB.Model(&models.User{}).
		Where("address = ?", address).
		Updates(map[string]interface{}{
			"reputation":               0,
			"shares":                   0,
			"referral_rewards_claimed": 0,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("no user record for %s", address)
	}
	log.Printf("🧨 ADMIN RESET: ledgers zeroed for %s", address)
	return nil
}
