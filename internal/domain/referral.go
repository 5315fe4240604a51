package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReferralTransactionStatus tracks whether a ledger entry has been paid
// out. Entries are created completed; payout bookkeeping is external.
type ReferralTransactionStatus string

const (
	ReferralTransactionCompleted ReferralTransactionStatus = "completed"
	ReferralTransactionPending   ReferralTransactionStatus = "pending"
)

// ReferralTransaction is an append-only ledger entry: one per qualifying
// first order of a referred user.
type ReferralTransaction struct {
	ID          uuid.UUID                 `json:"id" db:"id"`
	ReferrerID  uuid.UUID                 `json:"referrer_id" db:"referrer_id"`
	ReferredID  uuid.UUID                 `json:"referred_id" db:"referred_id"`
	Amount      float64                   `json:"amount" db:"amount"`
	Status      ReferralTransactionStatus `json:"status" db:"status"`
	CompletedAt time.Time                 `json:"completed_at" db:"completed_at"`
	CreatedAt   time.Time                 `json:"created_at" db:"created_at"`
}

// RedemptionStatus is the state of a cash-out request.
type RedemptionStatus string

const (
	RedemptionPending RedemptionStatus = "pending"
	RedemptionPaid    RedemptionStatus = "paid"
)

// ReferralRedemption records a referrer's request to cash out accumulated
// rewards. Creating one only moves the amount to pending; actual payout
// is manual and out of band.
type ReferralRedemption struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	UserID    uuid.UUID        `json:"user_id" db:"user_id"`
	Amount    float64          `json:"amount" db:"amount"`
	Status    RedemptionStatus `json:"status" db:"status"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}
