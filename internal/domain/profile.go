package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Profile is a shopper account. The referral fields form a small ledger
// head: ReferredBy is set once at signup and never reassigned,
// ReferralActivated flips true at most once (on the first qualifying
// order), and the reward totals accumulate from referral transactions.
type Profile struct {
	ID                     uuid.UUID  `json:"id" db:"id"`
	Email                  string     `json:"email" db:"email"`
	PasswordHash           string     `json:"-" db:"password_hash"`
	FullName               string     `json:"full_name" db:"full_name"`
	Phone                  string     `json:"phone" db:"phone"`
	Address                string     `json:"address" db:"address"`
	IsAdmin                bool       `json:"is_admin" db:"is_admin"`
	ReferralCode           string     `json:"referral_code" db:"referral_code"`
	ReferredBy             *uuid.UUID `json:"referred_by,omitempty" db:"referred_by"`
	ReferralActivated      bool       `json:"referral_activated" db:"referral_activated"`
	TotalReferralRewards   float64    `json:"total_referral_rewards" db:"total_referral_rewards"`
	PendingReferralRewards float64    `json:"pending_referral_rewards" db:"pending_referral_rewards"`
	CreatedAt              time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at" db:"updated_at"`
}

// ReferralCodeFor derives the unique referral code for a user id. The
// code is deterministic: the same account always yields the same code.
func ReferralCodeFor(userID uuid.UUID) string {
	compact := strings.ReplaceAll(userID.String(), "-", "")
	return fmt.Sprintf("DK%s", strings.ToUpper(compact[:8]))
}

// RefreshToken is a stored refresh token for session renewal
type RefreshToken struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Token     string    `json:"token" db:"token"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Revoked   bool      `json:"revoked" db:"revoked"`
}
