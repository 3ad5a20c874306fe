package models

import "time"

type EscrowStatus string

const (
	EscrowPending  EscrowStatus = "pending"
	EscrowHeld     EscrowStatus = "held"
	EscrowDisputed EscrowStatus = "disputed"
	EscrowReleased EscrowStatus = "released"
	EscrowRefunded EscrowStatus = "refunded"
)

// DefaultHoldDays is how long funds stay held before the sweeper may
// auto-release them to the seller.
const DefaultHoldDays = 7

// EscrowTransaction is one buyer->seller fund hold. Records are never deleted;
// status only moves forward (pending -> held -> {released, refunded, disputed};
// disputed -> {released, refunded}; an unfunded pending hold closes straight
// to refunded).
type EscrowTransaction struct {
	ID               string       `json:"id"`
	BuyerID          string       `json:"buyer_id"`
	SellerID         string       `json:"seller_id"`
	ProductID        *string      `json:"product_id,omitempty"`
	Amount           int64        `json:"amount"`
	PlatformFee      int64        `json:"platform_fee"`
	Status           EscrowStatus `json:"status"`
	BuyerConfirmed   bool         `json:"buyer_confirmed"`
	SellerConfirmed  bool         `json:"seller_confirmed"`
	HoldDurationDays int          `json:"hold_duration_days"`
	AutoReleaseDate  time.Time    `json:"auto_release_date"`
	ReleasedAt       *time.Time   `json:"released_at,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
}

// IsTerminal reports whether the hold has been resolved.
func (e EscrowTransaction) IsTerminal() bool {
	return e.Status == EscrowReleased || e.Status == EscrowRefunded
}
