package repository

import (
	"context"
	"time"

	"github.com/chineduogbonna/marketpay/internal/models"
)

type Wallets interface {
	GetOrCreate(ctx context.Context, userID string) (models.Wallet, bool, error) // bool: created now
	Get(ctx context.Context, userID string) (models.Wallet, error)

	// Credit adds to balance. The spent/earned counters are touched only by
	// the dedicated operations below.
	Credit(ctx context.Context, userID string, amount int64) (models.Wallet, error)

	// Debit is a single conditional update: it fails with ErrInsufficientFunds
	// when balance < amount and applies nothing. total_spent advances on success.
	Debit(ctx context.Context, userID string, amount int64) (models.Wallet, error)

	// LockSecurityDeposit moves balance -> security_deposit_locked under the
	// same conditional guard as Debit.
	LockSecurityDeposit(ctx context.Context, userID string, amount int64) (models.Wallet, error)

	// Escrow fund moves. Composite single-transaction operations, used only by
	// the escrow engine; no finer-grained escrow mutation is exposed.
	HoldEscrow(ctx context.Context, buyerID, sellerID string, amount int64) error
	ReleaseEscrow(ctx context.Context, sellerID string, amount, fee int64) error
	RefundEscrow(ctx context.Context, sellerID, buyerID string, amount int64) error
}

type Ledger interface {
	Append(ctx context.Context, e models.LedgerEntry) (models.LedgerEntry, error)
	UpdateStatus(ctx context.Context, id string, status models.LedgerStatus) error
	ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]models.LedgerEntry, error)
}

type Escrows interface {
	Create(ctx context.Context, e models.EscrowTransaction) (models.EscrowTransaction, error)
	GetByID(ctx context.Context, id string) (models.EscrowTransaction, error)
	SetConfirmed(ctx context.Context, id string, byBuyer bool) error

	// Transition is a compare-and-set on status: it fails with
	// ErrInvalidStateTransition unless the current status is one of from.
	Transition(ctx context.Context, id string, from []models.EscrowStatus, to models.EscrowStatus) error

	// ListDueForRelease returns held escrows whose auto-release date has
	// elapsed or where either party has confirmed.
	ListDueForRelease(ctx context.Context, now time.Time, limit int) ([]models.EscrowTransaction, error)
}

type Schedules interface {
	Create(ctx context.Context, s models.ScheduledPurchase) (models.ScheduledPurchase, error)
	GetByID(ctx context.Context, id string) (models.ScheduledPurchase, error)
	ListByUser(ctx context.Context, userID string) ([]models.ScheduledPurchase, error)
	ListDue(ctx context.Context, now time.Time) ([]models.ScheduledPurchase, error)
	Pause(ctx context.Context, id, reason string) error
	Resume(ctx context.Context, id string, nextRunAt time.Time) error

	// MarkRun records a successful execution: last_run_at, next_run_at and
	// run_count advance together.
	MarkRun(ctx context.Context, id string, lastRunAt, nextRunAt time.Time) error

	// AdvanceNextRun moves next_run_at without touching the run bookkeeping
	// (provider-failure skip policy).
	AdvanceNextRun(ctx context.Context, id string, nextRunAt time.Time) error
}

type Plans interface {
	GetByID(ctx context.Context, id string) (models.DataPlan, error)
	List(ctx context.Context) ([]models.DataPlan, error)
}
