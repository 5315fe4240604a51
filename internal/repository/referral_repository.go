package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"daykart/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrReferralNotEligible = errors.New("user is not eligible for referral activation")
	ErrInsufficientRewards = errors.New("insufficient reward balance")
)

// ReferralRepository defines the interface for the referral reward
// ledger: one-time activation, append-only transactions, and redemption
// requests.
type ReferralRepository interface {
	Activate(ctx context.Context, referredID uuid.UUID, reward float64) (*domain.ReferralTransaction, error)
	ListByReferrer(ctx context.Context, referrerID uuid.UUID) ([]*domain.ReferralTransaction, error)
	CountReferred(ctx context.Context, referrerID uuid.UUID) (int, error)
	CreateRedemption(ctx context.Context, userID uuid.UUID, amount float64) (*domain.ReferralRedemption, error)
}

type referralRepository struct {
	db *sql.DB
}

// NewReferralRepository creates a new instance of ReferralRepository
func NewReferralRepository(db *sql.DB) ReferralRepository {
	return &referralRepository{db: db}
}

// Activate flips the referred user's activation flag and credits the
// referrer, all inside one transaction. The flag flip is conditional in
// the statement itself (activated only if currently false), so two
// concurrent qualifying orders produce exactly one reward: the loser of
// the race updates zero rows and gets ErrReferralNotEligible.
func (r *referralRepository) Activate(ctx context.Context, referredID uuid.UUID, reward float64) (*domain.ReferralTransaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var referrerID uuid.UUID
	err = tx.QueryRowContext(ctx, `
		UPDATE profiles
		SET referral_activated = TRUE, updated_at = NOW()
		WHERE id = $1 AND referred_by IS NOT NULL AND NOT referral_activated
		RETURNING referred_by
	`, referredID).Scan(&referrerID)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrReferralNotEligible
		}
		return nil, fmt.Errorf("failed to activate referral: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE profiles
		SET total_referral_rewards = total_referral_rewards + $2, updated_at = NOW()
		WHERE id = $1
	`, referrerID, reward)
	if err != nil {
		return nil, fmt.Errorf("failed to credit referrer: %w", err)
	}

	now := time.Now()
	txn := &domain.ReferralTransaction{
		ID:          uuid.New(),
		ReferrerID:  referrerID,
		ReferredID:  referredID,
		Amount:      reward,
		Status:      domain.ReferralTransactionCompleted,
		CompletedAt: now,
		CreatedAt:   now,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO referral_transactions (id, referrer_id, referred_id, amount, status, completed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, txn.ID, txn.ReferrerID, txn.ReferredID, txn.Amount, txn.Status, txn.CompletedAt, txn.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to append referral transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit referral activation: %w", err)
	}

	return txn, nil
}

// ListByReferrer returns the referrer's ledger entries, newest first
func (r *referralRepository) ListByReferrer(ctx context.Context, referrerID uuid.UUID) ([]*domain.ReferralTransaction, error) {
	query := `
		SELECT id, referrer_id, referred_id, amount, status, completed_at, created_at
		FROM referral_transactions
		WHERE referrer_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, referrerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list referral transactions: %w", err)
	}
	defer rows.Close()

	txns := []*domain.ReferralTransaction{}
	for rows.Next() {
		txn := &domain.ReferralTransaction{}
		err := rows.Scan(
			&txn.ID,
			&txn.ReferrerID,
			&txn.ReferredID,
			&txn.Amount,
			&txn.Status,
			&txn.CompletedAt,
			&txn.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan referral transaction: %w", err)
		}
		txns = append(txns, txn)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating referral transactions: %w", err)
	}

	return txns, nil
}

// CountReferred returns how many signups carry this referrer's id
func (r *referralRepository) CountReferred(ctx context.Context, referrerID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM profiles WHERE referred_by = $1`

	var count int
	if err := r.db.QueryRowContext(ctx, query, referrerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count referred users: %w", err)
	}

	return count, nil
}

// CreateRedemption moves an amount from the referrer's available balance
// to pending and records the cash-out request. The balance check sits in
// the UPDATE predicate, so a concurrent request cannot overdraw.
func (r *referralRepository) CreateRedemption(ctx context.Context, userID uuid.UUID, amount float64) (*domain.ReferralRedemption, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE profiles
		SET total_referral_rewards = total_referral_rewards - $2,
		    pending_referral_rewards = pending_referral_rewards + $2,
		    updated_at = NOW()
		WHERE id = $1 AND total_referral_rewards >= $2
	`, userID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve redemption amount: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrInsufficientRewards
	}

	redemption := &domain.ReferralRedemption{
		ID:        uuid.New(),
		UserID:    userID,
		Amount:    amount,
		Status:    domain.RedemptionPending,
		CreatedAt: time.Now(),
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO referral_redemptions (id, user_id, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, redemption.ID, redemption.UserID, redemption.Amount, redemption.Status, redemption.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create redemption request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit redemption request: %w", err)
	}

	return redemption, nil
}
