package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"daykart/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrProfileNotFound      = errors.New("profile not found")
	ErrProfileAlreadyExists = errors.New("profile with this email already exists")
)

// ProfileRepository defines the interface for profile data access
type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.Profile) error
	FindByEmail(ctx context.Context, email string) (*domain.Profile, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	FindByReferralCode(ctx context.Context, code string) (*domain.Profile, error)
	UpdateContact(ctx context.Context, id uuid.UUID, fullName, phone, address string) error
}

type profileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new instance of ProfileRepository
func NewProfileRepository(db *sql.DB) ProfileRepository {
	return &profileRepository{db: db}
}

const profileColumns = `id, email, password_hash, full_name, phone, address, is_admin,
	referral_code, referred_by, referral_activated,
	total_referral_rewards, pending_referral_rewards, created_at, updated_at`

// Create inserts a new profile. The referral code is written at account
// creation and never regenerated.
func (r *profileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	query := `
		INSERT INTO profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		profile.ID,
		profile.Email,
		profile.PasswordHash,
		profile.FullName,
		profile.Phone,
		profile.Address,
		profile.IsAdmin,
		profile.ReferralCode,
		profile.ReferredBy,
		profile.ReferralActivated,
		profile.TotalReferralRewards,
		profile.PendingReferralRewards,
		profile.CreatedAt,
		profile.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrProfileAlreadyExists
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return nil
}

// FindByEmail retrieves a profile by email using parameterized queries
func (r *profileRepository) FindByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE email = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

// FindByID retrieves a profile by ID using parameterized queries
func (r *profileRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// FindByReferralCode resolves a referral code to the owning profile
func (r *profileRepository) FindByReferralCode(ctx context.Context, code string) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE referral_code = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, code))
}

// UpdateContact updates the mutable contact fields of a profile
func (r *profileRepository) UpdateContact(ctx context.Context, id uuid.UUID, fullName, phone, address string) error {
	query := `
		UPDATE profiles
		SET full_name = $2, phone = $3, address = $4, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, fullName, phone, address)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProfileNotFound
	}

	return nil
}

func (r *profileRepository) scanOne(row *sql.Row) (*domain.Profile, error) {
	profile := &domain.Profile{}
	err := row.Scan(
		&profile.ID,
		&profile.Email,
		&profile.PasswordHash,
		&profile.FullName,
		&profile.Phone,
		&profile.Address,
		&profile.IsAdmin,
		&profile.ReferralCode,
		&profile.ReferredBy,
		&profile.ReferralActivated,
		&profile.TotalReferralRewards,
		&profile.PendingReferralRewards,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}

	return profile, nil
}
