package service

import (
	"context"
	"errors"
	"fmt"

	"daykart/internal/domain"
	"daykart/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrBelowMinimumRedemption = errors.New("reward balance below minimum redemption amount")
	ErrInsufficientRewards    = errors.New("insufficient reward balance")
)

// ReferralConfig carries the reward ledger tunables.
type ReferralConfig struct {
	RewardAmount      float64 // credited to the referrer, once per referred user
	QualifyingTotal   float64 // minimum order total that triggers activation
	MinimumRedemption float64
}

// ReferralStats is the dashboard view of a referrer's ledger.
type ReferralStats struct {
	ReferralCode   string                        `json:"referral_code"`
	ReferredUsers  int                           `json:"referred_users"`
	TotalRewards   float64                       `json:"total_rewards"`
	PendingRewards float64                       `json:"pending_rewards"`
	History        []*domain.ReferralTransaction `json:"history"`
}

// ReferralService awards the fixed referral bonus exactly once per
// referred user and handles cash-out requests.
type ReferralService interface {
	EvaluateReferral(ctx context.Context, referredUserID uuid.UUID, orderTotal float64) error
	Stats(ctx context.Context, userID uuid.UUID) (*ReferralStats, error)
	RequestRedemption(ctx context.Context, userID uuid.UUID, amount float64) (*domain.ReferralRedemption, error)
}

type referralService struct {
	referralRepo repository.ReferralRepository
	profileRepo  repository.ProfileRepository
	cfg          ReferralConfig
	logger       *zap.Logger
}

// NewReferralService creates a new instance of ReferralService
func NewReferralService(
	referralRepo repository.ReferralRepository,
	profileRepo repository.ProfileRepository,
	cfg ReferralConfig,
	logger *zap.Logger,
) ReferralService {
	return &referralService{
		referralRepo: referralRepo,
		profileRepo:  profileRepo,
		cfg:          cfg,
		logger:       logger,
	}
}

// EvaluateReferral runs after each successful checkout. It is a no-op
// unless the order total meets the qualifying threshold AND the buyer
// was referred AND the buyer has never activated before. The
// eligibility check and the activation flip happen in one conditional
// statement, so two concurrent qualifying orders credit the referrer
// exactly once.
func (s *referralService) EvaluateReferral(ctx context.Context, referredUserID uuid.UUID, orderTotal float64) error {
	if orderTotal < s.cfg.QualifyingTotal {
		return nil
	}

	txn, err := s.referralRepo.Activate(ctx, referredUserID, s.cfg.RewardAmount)
	if err != nil {
		if err == repository.ErrReferralNotEligible {
			// Not referred, or reward already granted
			return nil
		}
		return fmt.Errorf("failed to evaluate referral: %w", err)
	}

	s.logger.Info("Referral reward granted",
		zap.String("referrer_id", txn.ReferrerID.String()),
		zap.String("referred_id", txn.ReferredID.String()),
		zap.Float64("amount", txn.Amount),
	)

	return nil
}

// Stats assembles the referrer's dashboard data
func (s *referralService) Stats(ctx context.Context, userID uuid.UUID) (*ReferralStats, error) {
	profile, err := s.profileRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	referred, err := s.referralRepo.CountReferred(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count referred users: %w", err)
	}

	history, err := s.referralRepo.ListByReferrer(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load referral history: %w", err)
	}

	return &ReferralStats{
		ReferralCode:   profile.ReferralCode,
		ReferredUsers:  referred,
		TotalRewards:   profile.TotalReferralRewards,
		PendingRewards: profile.PendingReferralRewards,
		History:        history,
	}, nil
}

// RequestRedemption records a pending cash-out once the available
// balance covers both the requested amount and the configured minimum.
// Payout itself is manual and external.
func (s *referralService) RequestRedemption(ctx context.Context, userID uuid.UUID, amount float64) (*domain.ReferralRedemption, error) {
	if amount < s.cfg.MinimumRedemption {
		return nil, ErrBelowMinimumRedemption
	}

	redemption, err := s.referralRepo.CreateRedemption(ctx, userID, amount)
	if err != nil {
		if err == repository.ErrInsufficientRewards {
			return nil, ErrInsufficientRewards
		}
		return nil, fmt.Errorf("failed to request redemption: %w", err)
	}

	return redemption, nil
}
