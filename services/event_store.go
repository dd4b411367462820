package services

import (
	"cartel-index-system/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EventStore owns the append-only, deduplicated record of decoded chain
// events. Its (tx_hash, log_index) uniqueness is the one dedup contract the
// rest of the pipeline may rely on when the log reader re-scans overlapping
// block ranges.
type EventStore struct {
	DB *gorm.DB
}

func NewEventStore(db *gorm.DB) *EventStore {
	return &EventStore{DB: db}
}

// Record inserts a decoded event. Returns true when the row is new; a
// duplicate is a silent no-op, not an error.
func (s *EventStore) Record(ev *models.ChainEvent) (bool, error) {
	ev.Actor = models.NormalizeAddress(ev.Actor)
	ev.Counterparty = models.NormalizeAddress(ev.Counterparty)

	res := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tx_hash"}, {Name: "log_index"}},
		DoNothing: true,
	}).Create(ev)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FetchUnprocessed returns up to limit unprocessed events, oldest first
// (block then log index), so replayed history is consumed fairly and
// staleness stays bounded. Empty kinds means all kinds.
func (s *EventStore) FetchUnprocessed(kinds []models.EventKind, limit int) ([]models.ChainEvent, error) {
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	q := s.DB.Where("processed = ?", false)
	if len(kinds) > 0 {
		q = q.Where("kind IN ?", kinds)
	}
	var events []models.ChainEvent
	err := q.Order("block_number ASC").Order("log_index ASC").Limit(limit).Find(&events).Error
	return events, err
}

// ClaimEvent flips processed false→true as a compare-and-set inside the
// caller's transaction. Returns false when another overlapping run already
// claimed the event — the caller must then skip it entirely.
func (s *EventStore) ClaimEvent(tx *gorm.DB, eventID string) (bool, error) {
	res := tx.Model(&models.ChainEvent{}).
		Where("id = ? AND processed = ?", eventID, false).
		Update("processed", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkProcessed is the double-invocation-safe standalone variant: marking an
// already-processed event is a no-op success.
func (s *EventStore) MarkProcessed(eventID string) error {
	_, err := s.ClaimEvent(s.DB, eventID)
	return err
}

// CountEvents reports total and unprocessed counts for trigger summaries.
func (s *EventStore) CountEvents() (total int64, unprocessed int64, err error) {
	if err = s.DB.Model(&models.ChainEvent{}).Count(&total).Error; err != nil {
		return
	}
	err = s.DB.Model(&models.ChainEvent{}).Where("processed = ?", false).Count(&unprocessed).Error
	return
}
