package services

import (
	"testing"
	"time"

	"cartel-index-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordDeduplicatesOnTxHashAndLogIndex(t *testing.T) {
	db := openTestDB(t)
	store := NewEventStore(db)
	at := time.Date(2025, 2, 10, 12, 0, 0, 0, time.UTC)

	inserted, err := store.Record(raidAt("0xaaa", "0xActorOne", "0xTarget", 5, at))
	require.NoError(t, err)
	assert.True(t, inserted)

	// Same (tx_hash, log_index) again, as a re-scan would produce it.
	inserted, err = store.Record(raidAt("0xaaa", "0xActorOne", "0xTarget", 5, at))
	require.NoError(t, err)
	assert.False(t, inserted)

	// Same tx, different log index is a distinct event.
	ev := raidAt("0xaaa", "0xActorOne", "0xTarget", 5, at)
	ev.LogIndex = 1
	inserted, err = store.Record(ev)
	require.NoError(t, err)
	assert.True(t, inserted)

	total, unprocessed, err := store.CountEvents()
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, int64(2), unprocessed)
}

func TestRecordNormalizesAddresses(t *testing.T) {
	db := openTestDB(t)
	store := NewEventStore(db)

	_, err := store.Record(raidAt("0xbbb", "0xABCDEF", "0xFEDCBA", 5, time.Now().UTC()))
	require.NoError(t, err)

	var stored models.ChainEvent
	require.NoError(t, db.Where("tx_hash = ?", "0xbbb").First(&stored).Error)
	assert.Equal(t, "0xabcdef", stored.Actor)
	assert.Equal(t, "0xfedcba", stored.Counterparty)
}

func TestFetchUnprocessedOrdersByBlockThenLogIndex(t *testing.T) {
	db := openTestDB(t)
	store := NewEventStore(db)
	at := time.Date(2025, 2, 10, 12, 0, 0, 0, time.UTC)

	mk := func(txHash string, block uint64, logIndex uint) {
		ev := raidAt(txHash, "0xactor", "0xtarget", 1, at)
		ev.BlockNumber = block
		ev.LogIndex = logIndex
		_, err := store.Record(ev)
		require.NoError(t, err)
	}
	mk("0xc", 300, 0)
	mk("0xa", 100, 2)
	mk("0xb", 100, 1)

	events, err := store.FetchUnprocessed(nil, 10)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "0xb", events[0].TxHash)
	assert.Equal(t, "0xa", events[1].TxHash)
	assert.Equal(t, "0xc", events[2].TxHash)

	// Processed events fall out of the queue.
	require.NoError(t, store.MarkProcessed(events[0].ID))
	events, err = store.FetchUnprocessed(nil, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "0xa", events[0].TxHash)

	// Kind filter.
	events, err = store.FetchUnprocessed([]models.EventKind{models.EventKindClaim}, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestClaimEventFlipsExactlyOnce(t *testing.T) {
	db := openTestDB(t)
	store := NewEventStore(db)

	_, err := store.Record(raidAt("0xddd", "0xactor", "0xtarget", 1, time.Now().UTC()))
	require.NoError(t, err)
	var ev models.ChainEvent
	require.NoError(t, db.Where("tx_hash = ?", "0xddd").First(&ev).Error)

	claimed, err := store.ClaimEvent(db, ev.ID)
	require.NoError(t, err)
	assert.True(t, claimed)

	// The overlapping run loses the claim.
	claimed, err = store.ClaimEvent(db, ev.ID)
	require.NoError(t, err)
	assert.False(t, claimed)

	// MarkProcessed on an already-processed event is a no-op success.
	require.NoError(t, store.MarkProcessed(ev.ID))
}
