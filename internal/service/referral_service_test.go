package service

import (
	"context"
	"testing"
	"time"

	"daykart/internal/domain"
	"daykart/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type mockProfileRepository struct {
	profiles map[uuid.UUID]*domain.Profile
}

func newMockProfileRepository() *mockProfileRepository {
	return &mockProfileRepository{
		profiles: make(map[uuid.UUID]*domain.Profile),
	}
}

func (m *mockProfileRepository) addProfile(referredBy *uuid.UUID) *domain.Profile {
	id := uuid.New()
	p := &domain.Profile{
		ID:           id,
		Email:        id.String() + "@example.com",
		ReferralCode: domain.ReferralCodeFor(id),
		ReferredBy:   referredBy,
	}
	m.profiles[id] = p
	return p
}

func (m *mockProfileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	for _, p := range m.profiles {
		if p.Email == profile.Email {
			return repository.ErrProfileAlreadyExists
		}
	}
	m.profiles[profile.ID] = profile
	return nil
}

func (m *mockProfileRepository) FindByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	for _, p := range m.profiles {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, repository.ErrProfileNotFound
}

func (m *mockProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return nil, repository.ErrProfileNotFound
	}
	return p, nil
}

func (m *mockProfileRepository) FindByReferralCode(ctx context.Context, code string) (*domain.Profile, error) {
	for _, p := range m.profiles {
		if p.ReferralCode == code {
			return p, nil
		}
	}
	return nil, repository.ErrProfileNotFound
}

func (m *mockProfileRepository) UpdateContact(ctx context.Context, id uuid.UUID, fullName, phone, address string) error {
	p, ok := m.profiles[id]
	if !ok {
		return repository.ErrProfileNotFound
	}
	p.FullName = fullName
	p.Phone = phone
	p.Address = address
	return nil
}

// mockReferralRepository mirrors the conditional-update semantics of the
// postgres implementation: activation succeeds at most once per
// referred user, and only when referred_by is set.
type mockReferralRepository struct {
	profiles     *mockProfileRepository
	transactions []*domain.ReferralTransaction
	redemptions  []*domain.ReferralRedemption
}

func newMockReferralRepository(profiles *mockProfileRepository) *mockReferralRepository {
	return &mockReferralRepository{profiles: profiles}
}

func (m *mockReferralRepository) Activate(ctx context.Context, referredID uuid.UUID, reward float64) (*domain.ReferralTransaction, error) {
	referred, ok := m.profiles.profiles[referredID]
	if !ok || referred.ReferredBy == nil || referred.ReferralActivated {
		return nil, repository.ErrReferralNotEligible
	}

	referred.ReferralActivated = true

	referrer := m.profiles.profiles[*referred.ReferredBy]
	referrer.TotalReferralRewards += reward
	referrer.PendingReferralRewards += reward

	txn := &domain.ReferralTransaction{
		ID:          uuid.New(),
		ReferrerID:  referrer.ID,
		ReferredID:  referredID,
		Amount:      reward,
		Status:      domain.ReferralTransactionCompleted,
		CompletedAt: time.Now(),
		CreatedAt:   time.Now(),
	}
	m.transactions = append(m.transactions, txn)
	return txn, nil
}

func (m *mockReferralRepository) ListByReferrer(ctx context.Context, referrerID uuid.UUID) ([]*domain.ReferralTransaction, error) {
	var out []*domain.ReferralTransaction
	for _, txn := range m.transactions {
		if txn.ReferrerID == referrerID {
			out = append(out, txn)
		}
	}
	return out, nil
}

func (m *mockReferralRepository) CountReferred(ctx context.Context, referrerID uuid.UUID) (int, error) {
	count := 0
	for _, p := range m.profiles.profiles {
		if p.ReferredBy != nil && *p.ReferredBy == referrerID {
			count++
		}
	}
	return count, nil
}

func (m *mockReferralRepository) CreateRedemption(ctx context.Context, userID uuid.UUID, amount float64) (*domain.ReferralRedemption, error) {
	p, ok := m.profiles.profiles[userID]
	if !ok || p.PendingReferralRewards < amount {
		return nil, repository.ErrInsufficientRewards
	}
	p.PendingReferralRewards -= amount

	redemption := &domain.ReferralRedemption{
		ID:        uuid.New(),
		UserID:    userID,
		Amount:    amount,
		Status:    domain.RedemptionPending,
		CreatedAt: time.Now(),
	}
	m.redemptions = append(m.redemptions, redemption)
	return redemption, nil
}

func newReferralServiceForTest() (ReferralService, *mockReferralRepository, *mockProfileRepository) {
	profiles := newMockProfileRepository()
	referrals := newMockReferralRepository(profiles)
	cfg := ReferralConfig{
		RewardAmount:      50,
		QualifyingTotal:   1999,
		MinimumRedemption: 100,
	}
	svc := NewReferralService(referrals, profiles, cfg, zap.NewNop())
	return svc, referrals, profiles
}

func TestEvaluateReferralBelowThresholdIsNoop(t *testing.T) {
	svc, referralRepo, profiles := newReferralServiceForTest()
	ctx := context.Background()

	referrer := profiles.addProfile(nil)
	referred := profiles.addProfile(&referrer.ID)

	if err := svc.EvaluateReferral(ctx, referred.ID, 1998.99); err != nil {
		t.Fatalf("EvaluateReferral failed: %v", err)
	}

	if referred.ReferralActivated {
		t.Error("Referral activated below qualifying total")
	}
	if referrer.TotalReferralRewards != 0 {
		t.Errorf("Referrer credited %f below threshold", referrer.TotalReferralRewards)
	}
	if len(referralRepo.transactions) != 0 {
		t.Errorf("Ledger entry created below threshold")
	}
}

func TestEvaluateReferralCreditsExactlyOnce(t *testing.T) {
	svc, referralRepo, profiles := newReferralServiceForTest()
	ctx := context.Background()

	referrer := profiles.addProfile(nil)
	referred := profiles.addProfile(&referrer.ID)

	// First qualifying order activates and credits
	if err := svc.EvaluateReferral(ctx, referred.ID, 1999); err != nil {
		t.Fatalf("First EvaluateReferral failed: %v", err)
	}

	if !referred.ReferralActivated {
		t.Fatal("Referral not activated on qualifying order")
	}
	if referrer.TotalReferralRewards != 50 || referrer.PendingReferralRewards != 50 {
		t.Errorf("Referrer balance total/pending = %f/%f, want 50/50",
			referrer.TotalReferralRewards, referrer.PendingReferralRewards)
	}

	// Subsequent qualifying orders are no-ops, not errors
	for i := 0; i < 3; i++ {
		if err := svc.EvaluateReferral(ctx, referred.ID, 5000); err != nil {
			t.Fatalf("Repeat EvaluateReferral failed: %v", err)
		}
	}

	if referrer.TotalReferralRewards != 50 {
		t.Errorf("Referrer credited more than once: %f", referrer.TotalReferralRewards)
	}
	if len(referralRepo.transactions) != 1 {
		t.Errorf("Ledger has %d entries, want 1", len(referralRepo.transactions))
	}
}

func TestEvaluateReferralWithoutReferrerIsNoop(t *testing.T) {
	svc, referralRepo, profiles := newReferralServiceForTest()

	organic := profiles.addProfile(nil)

	if err := svc.EvaluateReferral(context.Background(), organic.ID, 5000); err != nil {
		t.Fatalf("EvaluateReferral failed: %v", err)
	}

	if organic.ReferralActivated {
		t.Error("Activated a user with no referrer")
	}
	if len(referralRepo.transactions) != 0 {
		t.Error("Ledger entry created for organic signup")
	}
}

func TestRequestRedemptionEnforcesMinimumAndBalance(t *testing.T) {
	svc, referralRepo, profiles := newReferralServiceForTest()
	ctx := context.Background()

	user := profiles.addProfile(nil)
	user.PendingReferralRewards = 150

	if _, err := svc.RequestRedemption(ctx, user.ID, 99.99); err != ErrBelowMinimumRedemption {
		t.Errorf("Redemption below minimum = %v, want ErrBelowMinimumRedemption", err)
	}

	if _, err := svc.RequestRedemption(ctx, user.ID, 200); err != ErrInsufficientRewards {
		t.Errorf("Redemption above balance = %v, want ErrInsufficientRewards", err)
	}

	redemption, err := svc.RequestRedemption(ctx, user.ID, 150)
	if err != nil {
		t.Fatalf("Valid redemption failed: %v", err)
	}

	if redemption.Status != domain.RedemptionPending {
		t.Errorf("Redemption status = %s, want pending", redemption.Status)
	}
	if user.PendingReferralRewards != 0 {
		t.Errorf("Pending balance = %f, want 0", user.PendingReferralRewards)
	}
	if len(referralRepo.redemptions) != 1 {
		t.Errorf("Recorded %d redemptions, want 1", len(referralRepo.redemptions))
	}
}

func TestStatsAssemblesLedgerView(t *testing.T) {
	svc, _, profiles := newReferralServiceForTest()
	ctx := context.Background()

	referrer := profiles.addProfile(nil)
	first := profiles.addProfile(&referrer.ID)
	second := profiles.addProfile(&referrer.ID)

	if err := svc.EvaluateReferral(ctx, first.ID, 2500); err != nil {
		t.Fatalf("EvaluateReferral failed: %v", err)
	}
	_ = second

	stats, err := svc.Stats(ctx, referrer.ID)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}

	if stats.ReferralCode != referrer.ReferralCode {
		t.Errorf("Stats code = %s, want %s", stats.ReferralCode, referrer.ReferralCode)
	}
	if stats.ReferredUsers != 2 {
		t.Errorf("Referred users = %d, want 2", stats.ReferredUsers)
	}
	if stats.TotalRewards != 50 || stats.PendingRewards != 50 {
		t.Errorf("Stats balances = %f/%f, want 50/50", stats.TotalRewards, stats.PendingRewards)
	}
	if len(stats.History) != 1 {
		t.Errorf("History has %d entries, want 1", len(stats.History))
	}
}
