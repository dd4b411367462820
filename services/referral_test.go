package services

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"cartel-index-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedeemEmptyCodeIsOpenAccess(t *testing.T) {
	db := openTestDB(t)
	referrals := NewReferralService(db)

	referrer, err := referrals.Redeem("", "0xanyone")
	require.NoError(t, err)
	assert.Equal(t, models.ZeroAddress, referrer)

	referrer, err = referrals.Redeem("   ", "0xanyone")
	require.NoError(t, err)
	assert.Equal(t, models.ZeroAddress, referrer)
}

func TestRedeemUnknownOrExpiredCode(t *testing.T) {
	db := openTestDB(t)
	referrals := NewReferralService(db)

	_, err := referrals.Redeem("NOSUCHCODE", "0xanyone")
	assert.ErrorIs(t, err, ErrInvalidInvite)

	invites, err := referrals.GenerateInvites(models.InviteTypeFounder, 1, 3, "")
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Invite{}).
		Where("code = ?", invites[0].Code).
		Update("status", models.InviteStatusExpired).Error)

	_, err = referrals.Redeem(invites[0].Code, "0xanyone")
	assert.ErrorIs(t, err, ErrInvalidInvite)
}

func TestRedeemNeverExceedsMaxUses(t *testing.T) {
	db := openTestDB(t)
	referrals := NewReferralService(db)
	creator := seedUser(t, db, "0xcreator")

	invites, err := referrals.GenerateInvites(models.InviteTypeUser, 1, 2, creator)
	require.NoError(t, err)
	code := invites[0].Code

	for i := 0; i < 2; i++ {
		referrer, err := referrals.Redeem(code, fmt.Sprintf("0xredeemer%d", i))
		require.NoError(t, err)
		assert.Equal(t, creator, referrer)
	}

	_, err = referrals.Redeem(code, "0xredeemer2")
	assert.ErrorIs(t, err, ErrInviteExhausted)

	var inv models.Invite
	require.NoError(t, db.Where("code = ?", code).First(&inv).Error)
	assert.Equal(t, 2, inv.UsedCount)
	assert.Equal(t, models.InviteStatusUsed, inv.Status)
}

func TestConcurrentRedemptionsNeverExceedMaxUses(t *testing.T) {
	db := openTestDB(t)
	referrals := NewReferralService(db)
	creator := seedUser(t, db, "0xcreator")

	invites, err := referrals.GenerateInvites(models.InviteTypeUser, 1, 3, creator)
	require.NoError(t, err)
	code := invites[0].Code

	const attempts = 8
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := referrals.Redeem(code, fmt.Sprintf("0xconcurrent%d", n))
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var succeeded, exhausted int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrInviteExhausted):
			exhausted++
		default:
			t.Fatalf("unexpected redemption error: %v", err)
		}
	}
	assert.Equal(t, 3, succeeded)
	assert.Equal(t, attempts-3, exhausted)

	var inv models.Invite
	require.NoError(t, db.Where("code = ?", code).First(&inv).Error)
	assert.Equal(t, 3, inv.UsedCount)
}

func TestAttributionIsSetOnceAndPaysOnce(t *testing.T) {
	db := openTestDB(t)
	referrals := NewReferralService(db)
	creator := seedUser(t, db, "0xcreator")
	other := seedUser(t, db, "0xother")

	first, err := referrals.GenerateInvites(models.InviteTypeUser, 1, 5, creator)
	require.NoError(t, err)
	second, err := referrals.GenerateInvites(models.InviteTypeUser, 1, 5, other)
	require.NoError(t, err)

	_, err = referrals.Redeem(first[0].Code, "0xredeemer")
	require.NoError(t, err)

	// A later redemption by the same user burns a use but cannot move the
	// attribution or pay a second reward.
	_, err = referrals.Redeem(second[0].Code, "0xredeemer")
	require.NoError(t, err)

	referrer, err := referrals.ReferrerOf("0xredeemer")
	require.NoError(t, err)
	assert.Equal(t, creator, referrer)

	creatorUser, err := NewReputationLedger(db).GetByAddress(creator)
	require.NoError(t, err)
	assert.Equal(t, RewardPerReferral, creatorUser.ReferralRewardsClaimed)

	otherUser, err := NewReputationLedger(db).GetByAddress(other)
	require.NoError(t, err)
	assert.Zero(t, otherUser.ReferralRewardsClaimed)
}

func TestReferrerOfUnattributedIsZeroAddress(t *testing.T) {
	db := openTestDB(t)
	referrals := NewReferralService(db)

	referrer, err := referrals.ReferrerOf("0xloner")
	require.NoError(t, err)
	assert.Equal(t, models.ZeroAddress, referrer)
}

func TestBackfillUserInvitesIsRerunSafe(t *testing.T) {
	db := openTestDB(t)
	referrals := NewReferralService(db)
	seedUser(t, db, "0xalpha")
	seedUser(t, db, "0xbeta")

	created, err := referrals.BackfillUserInvites(5)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	created, err = referrals.BackfillUserInvites(5)
	require.NoError(t, err)
	assert.Zero(t, created)

	var count int64
	require.NoError(t, db.Model(&models.Invite{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}
