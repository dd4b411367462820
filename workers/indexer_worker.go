package workers

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cartel-index-system/chain"
	"cartel-index-system/models"
	"cartel-index-system/services"

	"gorm.io/gorm"
)

const indexCursorID = 1

// IndexerWorker is the log reader: load the persisted cursor, fetch every log
// since it, decode, record through the event store, advance the cursor. It
// is safe to trigger while a previous run is still in flight — inserts dedup
// on (tx_hash, log_index) and the cursor only moves forward.
type IndexerWorker struct {
	DB     *gorm.DB
	Store  *services.EventStore
	Client *chain.LogClient
}

func NewIndexerWorker(db *gorm.DB, store *services.EventStore, client *chain.LogClient) *IndexerWorker {
	return &IndexerWorker{DB: db, Store: store, Client: client}
}

// IndexSummary reports what one indexing run did.
type IndexSummary struct {
	Scanned    int    `json:"scanned"`
	Inserted   int    `json:"inserted"`
	Duplicates int    `json:"duplicates"`
	Skipped    int    `json:"skipped"`
	Cursor     uint64 `json:"cursor"`
}

// RunOnce performs one bounded indexing pass. A failed decode of a single
// log never blocks advancement past it; a failed fetch or store insert
// fails the whole invocation with the cursor capped at the last log that
// was actually kept, so the next trigger re-reads the unconsumed tail.
func (w *IndexerWorker) RunOnce(ctx context.Context) (IndexSummary, error) {
	var summary IndexSummary

	cursor, err := w.loadCursor()
	if err != nil {
		return summary, err
	}
	summary.Cursor = cursor.BlockNumber

	logs, err := w.Client.FetchLogs(ctx, cursor.BlockNumber, cursor.LogIndex)
	if err != nil {
		return summary, err
	}
	summary.Scanned = len(logs)
	if len(logs) == 0 {
		return summary, nil
	}

	maxBlock, maxLog := cursor.BlockNumber, cursor.LogIndex
	consume := func(raw chain.RawLog) {
		if raw.BlockNumber > maxBlock || (raw.BlockNumber == maxBlock && raw.LogIndex > maxLog) {
			maxBlock, maxLog = raw.BlockNumber, raw.LogIndex
		}
	}

	for _, raw := range logs {
		ev, err := chain.DecodeLog(raw)
		if err != nil {
			// Undecodable logs are consumed: unknown topics come from newer
			// contract versions and a malformed payload never improves on a
			// re-read.
			summary.Skipped++
			if !errors.Is(err, chain.ErrUnknownTopic) {
				log.Printf("⚠️ [INDEX] Skipping undecodable log %s/%d: %v", raw.TxHash, raw.LogIndex, err)
			}
			consume(raw)
			continue
		}

		inserted, err := w.Store.Record(ev)
		if err != nil {
			// A store failure is infrastructure, not data. The cursor stops
			// before this log, so the next trigger re-reads it from the
			// chain service; everything already kept stays consumed.
			if cerr := w.advanceCursor(maxBlock, maxLog); cerr != nil {
				log.Printf("❌ [INDEX] Failed to advance cursor after record failure: %v", cerr)
			}
			return summary, fmt.Errorf("failed to record event %s/%d: %w", raw.TxHash, raw.LogIndex, err)
		}
		if inserted {
			summary.Inserted++
		} else {
			summary.Duplicates++
		}
		consume(raw)
	}

	if err := w.advanceCursor(maxBlock, maxLog); err != nil {
		return summary, err
	}
	summary.Cursor = maxBlock

	log.Printf("📥 [INDEX] Scanned %d log(s): %d new, %d duplicate, %d skipped (cursor → %d/%d)",
		summary.Scanned, summary.Inserted, summary.Duplicates, summary.Skipped, maxBlock, maxLog)
	return summary, nil
}

func (w *IndexerWorker) loadCursor() (*models.IndexCursor, error) {
	cursor := models.IndexCursor{ID: indexCursorID}
	if err := w.DB.FirstOrCreate(&cursor, models.IndexCursor{ID: indexCursorID}).Error; err != nil {
		return nil, err
	}
	return &cursor, nil
}

// advanceCursor moves the cursor forward with a monotone guarded UPDATE, so
// an overlapping run that finished an older window cannot rewind it.
func (w *IndexerWorker) advanceCursor(block uint64, logIndex uint) error {
	return w.DB.Model(&models.IndexCursor{}).
		Where("id = ? AND (block_number < ? OR (block_number = ? AND log_index < ?))",
			indexCursorID, block, block, logIndex).
		Updates(map[string]interface{}{
			"block_number": block,
			"log_index":    logIndex,
		}).Error
}
