package models

import "time"

type LedgerType string

const (
	LedgerWelcomeBonus    LedgerType = "welcome_bonus"
	LedgerDeposit         LedgerType = "deposit"
	LedgerPurchase        LedgerType = "purchase"
	LedgerEscrowHold      LedgerType = "escrow_hold"
	LedgerEscrowRelease   LedgerType = "escrow_release"
	LedgerPlatformFee     LedgerType = "platform_fee"
	LedgerRefund          LedgerType = "refund"
	LedgerWithdrawal      LedgerType = "withdrawal"
	LedgerSecurityDeposit LedgerType = "security_deposit"
	LedgerLoginReward     LedgerType = "login_reward"
	LedgerReferralBonus   LedgerType = "referral_bonus"
)

type LedgerDirection string

const (
	DirectionCredit LedgerDirection = "credit"
	DirectionDebit  LedgerDirection = "debit"
)

type LedgerStatus string

const (
	LedgerPending   LedgerStatus = "pending"
	LedgerCompleted LedgerStatus = "completed"
	LedgerFailed    LedgerStatus = "failed"
)

// LedgerEntry is append-only: once written, only Status may change
// (pending -> completed|failed).
type LedgerEntry struct {
	ID               string          `json:"id"`
	WalletID         string          `json:"wallet_id"`
	Type             LedgerType      `json:"type"`
	Direction        LedgerDirection `json:"direction"`
	Amount           int64           `json:"amount"`
	Description      string          `json:"description"`
	RelatedUserID    *string         `json:"related_user_id,omitempty"`
	RelatedProductID *string         `json:"related_product_id,omitempty"`
	Status           LedgerStatus    `json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Signed returns the entry amount signed by direction, as used for
// balance reconciliation.
func (e LedgerEntry) Signed() int64 {
	if e.Direction == DirectionDebit {
		return -e.Amount
	}
	return e.Amount
}
