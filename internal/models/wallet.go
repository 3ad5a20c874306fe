package models

import "time"

// Wallet holds all per-user fund buckets. Rows are mutated only through the
// wallet repository's atomic operations, never written directly by callers.
type Wallet struct {
	UserID                string    `json:"user_id"`
	Balance               int64     `json:"balance"`
	EscrowBalance         int64     `json:"escrow_balance"`
	TotalEarned           int64     `json:"total_earned"`
	TotalSpent            int64     `json:"total_spent"`
	SecurityDepositLocked int64     `json:"security_deposit_locked"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}
