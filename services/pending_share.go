package services

import (
	"errors"

	"cartel-index-system/models"

	"gorm.io/gorm"
)

// ErrShareNotPending: the grant was already approved or rejected — the
// PENDING → terminal transition happens exactly once.
var ErrShareNotPending = errors.New("pending share already resolved")

// PendingShareService resolves share grants. Approval mirrors the granted
// shares onto the user's balance; the on-chain mint itself is an external
// process watching for APPROVED rows.
type PendingShareService struct {
	DB     *gorm.DB
	Ledger *ReputationLedger
}

func NewPendingShareService(db *gorm.DB, ledger *ReputationLedger) *PendingShareService {
	return &PendingShareService{DB: db, Ledger: ledger}
}

// Approve transitions one grant PENDING → APPROVED and credits the shares.
// The compare-and-set on status makes a double approval impossible.
func (s *PendingShareService) Approve(id string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var grant models.PendingShare
		if err := tx.Where("id = ?", id).First(&grant).Error; err != nil {
			return err
		}
		res := tx.Model(&models.PendingShare{}).
			Where("id = ? AND status = ?", id, models.PendingShareStatusPending).
			Update("status", models.PendingShareStatusApproved)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrShareNotPending
		}
		return s.Ledger.ApplyReward(tx, grant.Address, 0, grant.Amount)
	})
}

// Reject transitions one grant PENDING → REJECTED with a reason.
func (s *PendingShareService) Reject(id, reason string) error {
	res := s.DB.Model(&models.PendingShare{}).
		Where("id = ? AND status = ?", id, models.PendingShareStatusPending).
		Updates(map[string]interface{}{
			"status": models.PendingShareStatusRejected,
			"reason": reason,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrShareNotPending
	}
	return nil
}

// List returns grants filtered by status ("" = all), newest first.
func (s *PendingShareService) List(status models.PendingShareStatus, limit int) ([]models.PendingShare, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := s.DB.Order("created_at DESC").Limit(limit)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var grants []models.PendingShare
	err := q.Find(&grants).Error
	return grants, err
}
