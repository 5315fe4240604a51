package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"daykart/internal/domain"

	"github.com/google/uuid"
)

func seedReferredProfile(t *testing.T, referrerID uuid.UUID) uuid.UUID {
	t.Helper()

	id := uuid.New()
	now := time.Now()
	_, err := testDB.Exec(`
		INSERT INTO profiles (id, email, password_hash, full_name, phone, address, is_admin,
			referral_code, referred_by, referral_activated,
			total_referral_rewards, pending_referral_rewards, created_at, updated_at)
		VALUES ($1, $2, 'x', 'Referred User', '', '', FALSE, $3, $4, FALSE, 0, 0, $5, $5)
	`, id, fmt.Sprintf("%s@test.local", id), domain.ReferralCodeFor(id), referrerID, now)
	if err != nil {
		t.Fatalf("failed to seed referred profile: %v", err)
	}

	t.Cleanup(func() {
		_, _ = testDB.Exec("DELETE FROM referral_transactions WHERE referred_id = $1", id)
		_, _ = testDB.Exec("DELETE FROM profiles WHERE id = $1", id)
	})

	return id
}

func TestReferralActivateCreditsExactlyOnce(t *testing.T) {
	referrals := NewReferralRepository(testDB)
	profiles := NewProfileRepository(testDB)
	ctx := context.Background()

	referrerID := seedTestProfile(t)
	referredID := seedReferredProfile(t, referrerID)

	txn, err := referrals.Activate(ctx, referredID, 50)
	if err != nil {
		t.Fatalf("activation failed: %v", err)
	}
	if txn.ReferrerID != referrerID {
		t.Fatalf("transaction credited wrong referrer: got %s, want %s", txn.ReferrerID, referrerID)
	}
	if txn.ReferredID != referredID {
		t.Fatalf("transaction recorded wrong referred user: got %s", txn.ReferredID)
	}
	if txn.Amount != 50 {
		t.Fatalf("expected reward 50, got %v", txn.Amount)
	}
	if txn.Status != domain.ReferralTransactionCompleted {
		t.Fatalf("expected completed status, got %q", txn.Status)
	}

	referrer, err := profiles.FindByID(ctx, referrerID)
	if err != nil {
		t.Fatalf("failed to load referrer: %v", err)
	}
	if referrer.TotalReferralRewards != 50 {
		t.Fatalf("expected balance 50 after activation, got %v", referrer.TotalReferralRewards)
	}

	// A second qualifying order for the same user must not pay again
	if _, err := referrals.Activate(ctx, referredID, 50); err != ErrReferralNotEligible {
		t.Fatalf("expected ErrReferralNotEligible on repeat activation, got %v", err)
	}

	referrer, err = profiles.FindByID(ctx, referrerID)
	if err != nil {
		t.Fatalf("failed to reload referrer: %v", err)
	}
	if referrer.TotalReferralRewards != 50 {
		t.Fatalf("balance changed on repeat activation: got %v", referrer.TotalReferralRewards)
	}

	referred, err := profiles.FindByID(ctx, referredID)
	if err != nil {
		t.Fatalf("failed to load referred user: %v", err)
	}
	if !referred.ReferralActivated {
		t.Fatal("expected referred user to be marked activated")
	}
}

func TestReferralActivateRejectsOrganicSignup(t *testing.T) {
	referrals := NewReferralRepository(testDB)
	ctx := context.Background()

	organicID := seedTestProfile(t)

	if _, err := referrals.Activate(ctx, organicID, 50); err != ErrReferralNotEligible {
		t.Fatalf("expected ErrReferralNotEligible for organic signup, got %v", err)
	}
}

func TestReferralLedgerAndCount(t *testing.T) {
	referrals := NewReferralRepository(testDB)
	ctx := context.Background()

	referrerID := seedTestProfile(t)
	firstReferred := seedReferredProfile(t, referrerID)
	seedReferredProfile(t, referrerID)

	if _, err := referrals.Activate(ctx, firstReferred, 50); err != nil {
		t.Fatalf("activation failed: %v", err)
	}

	count, err := referrals.CountReferred(ctx, referrerID)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 referred signups, got %d", count)
	}

	txns, err := referrals.ListByReferrer(ctx, referrerID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(txns) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(txns))
	}
	if txns[0].ReferredID != firstReferred {
		t.Fatalf("ledger entry names wrong referred user: got %s", txns[0].ReferredID)
	}
}

func TestRedemptionEnforcesBalanceInPredicate(t *testing.T) {
	referrals := NewReferralRepository(testDB)
	profiles := NewProfileRepository(testDB)
	ctx := context.Background()

	userID := seedTestProfile(t)
	if _, err := testDB.Exec(
		"UPDATE profiles SET total_referral_rewards = 150 WHERE id = $1", userID,
	); err != nil {
		t.Fatalf("failed to set balance: %v", err)
	}
	t.Cleanup(func() {
		_, _ = testDB.Exec("DELETE FROM referral_redemptions WHERE user_id = $1", userID)
	})

	if _, err := referrals.CreateRedemption(ctx, userID, 200); err != ErrInsufficientRewards {
		t.Fatalf("expected ErrInsufficientRewards, got %v", err)
	}

	redemption, err := referrals.CreateRedemption(ctx, userID, 150)
	if err != nil {
		t.Fatalf("redemption failed: %v", err)
	}
	if redemption.Status != domain.RedemptionPending {
		t.Fatalf("expected pending redemption, got %q", redemption.Status)
	}
	if redemption.Amount != 150 {
		t.Fatalf("expected amount 150, got %v", redemption.Amount)
	}

	profile, err := profiles.FindByID(ctx, userID)
	if err != nil {
		t.Fatalf("failed to load profile: %v", err)
	}
	if profile.TotalReferralRewards != 0 {
		t.Fatalf("expected available balance 0, got %v", profile.TotalReferralRewards)
	}
	if profile.PendingReferralRewards != 150 {
		t.Fatalf("expected pending balance 150, got %v", profile.PendingReferralRewards)
	}

	// Balance is spent, another request must bounce
	if _, err := referrals.CreateRedemption(ctx, userID, 1); err != ErrInsufficientRewards {
		t.Fatalf("expected ErrInsufficientRewards on drained balance, got %v", err)
	}
}
