package services

import (
	"testing"
	"time"

	"cartel-index-system/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB returns an isolated in-memory database with the full schema.
// Capped at one connection: in-memory SQLite gives every connection its own
// database, so the pool must never open a second one.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.ChainEvent{},
		&models.IndexCursor{},
		&models.User{},
		&models.QuestProgress{},
		&models.PendingShare{},
		&models.Invite{},
		&models.Referral{},
		&models.Clan{},
		&models.ClanMembership{},
		&models.RevenueTransaction{},
		&models.FraudEvent{},
		&models.AgentRun{},
	))
	return db
}

// seedUser registers an address and returns its normalized form.
func seedUser(t *testing.T, db *gorm.DB, address string) string {
	t.Helper()
	ledger := NewReputationLedger(db)
	user, err := ledger.EnsureUser(db, address)
	require.NoError(t, err)
	return user.Address
}

// raidAt builds a regular raid event fixture.
func raidAt(txHash, actor, target string, shares float64, at time.Time) *models.ChainEvent {
	return &models.ChainEvent{
		TxHash:       txHash,
		LogIndex:     0,
		Kind:         models.EventKindRaid,
		BlockNumber:  uint64(at.Unix()),
		Actor:        actor,
		Counterparty: target,
		SharesMoved:  shares,
		BlockTime:    at,
	}
}
