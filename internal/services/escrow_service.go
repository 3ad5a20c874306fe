package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chineduogbonna/marketpay/internal/metrics"
	"github.com/chineduogbonna/marketpay/internal/models"
	"github.com/chineduogbonna/marketpay/internal/provider"
	repo "github.com/chineduogbonna/marketpay/internal/repository"
)

// EscrowService moves buyer funds into a held state and resolves every hold to
// exactly one of seller-credit or buyer-refund. The fee is always borne by the
// seller, deducted after credit, never from the held amount.
type EscrowService struct {
	wallets  repo.Wallets
	escrows  repo.Escrows
	ledger   repo.Ledger
	tiers    provider.TrustTiers
	holdDays int
}

func NewEscrowService(w repo.Wallets, e repo.Escrows, l repo.Ledger, t provider.TrustTiers, holdDays int) *EscrowService {
	if holdDays <= 0 {
		holdDays = models.DefaultHoldDays
	}
	return &EscrowService{wallets: w, escrows: e, ledger: l, tiers: t, holdDays: holdDays}
}

// CreateEscrowTransaction debits the buyer, parks the amount in the seller's
// escrow balance and records the hold. The record is inserted as pending and
// flipped to held only after the funds actually moved; a failed funding closes
// the row straight to refunded.
func (s *EscrowService) CreateEscrowTransaction(ctx context.Context, buyerID, sellerID string, productID *string, amount int64) (models.EscrowTransaction, error) {
	if amount <= 0 {
		return models.EscrowTransaction{}, errors.New("amount must be > 0")
	}
	if buyerID == sellerID {
		return models.EscrowTransaction{}, errors.New("buyer and seller must differ")
	}
	// either side may have never touched their wallet yet; a fresh buyer
	// wallet simply fails the funds guard below
	if _, _, err := s.wallets.GetOrCreate(ctx, buyerID); err != nil {
		return models.EscrowTransaction{}, err
	}
	if _, _, err := s.wallets.GetOrCreate(ctx, sellerID); err != nil {
		return models.EscrowTransaction{}, err
	}

	feePct, err := s.tiers.FeePercent(ctx, sellerID)
	if err != nil {
		// the lookup is advisory; fall back to the standard tier
		slog.Warn("trust tier lookup failed, using standard fee", "seller_id", sellerID, "err", err)
		feePct = provider.StandardFeePercent
	}
	fee := amount * int64(feePct) / 100

	e, err := s.escrows.Create(ctx, models.EscrowTransaction{
		BuyerID:          buyerID,
		SellerID:         sellerID,
		ProductID:        productID,
		Amount:           amount,
		PlatformFee:      fee,
		Status:           models.EscrowPending,
		HoldDurationDays: s.holdDays,
		AutoReleaseDate:  time.Now().AddDate(0, 0, s.holdDays),
	})
	if err != nil {
		return models.EscrowTransaction{}, err
	}

	if err := s.wallets.HoldEscrow(ctx, buyerID, sellerID, amount); err != nil {
		// committed but never funded: close the row out so no pending record
		// lingers in an unreachable state
		if terr := s.escrows.Transition(ctx, e.ID,
			[]models.EscrowStatus{models.EscrowPending}, models.EscrowRefunded); terr != nil {
			slog.Error("escrow: close unfunded hold", "escrow_id", e.ID, "err", terr)
		}
		return models.EscrowTransaction{}, err
	}
	if err := s.escrows.Transition(ctx, e.ID, []models.EscrowStatus{models.EscrowPending}, models.EscrowHeld); err != nil {
		return models.EscrowTransaction{}, err
	}
	e.Status = models.EscrowHeld

	if _, err := s.ledger.Append(ctx, models.LedgerEntry{
		WalletID:         buyerID,
		Type:             models.LedgerEscrowHold,
		Direction:        models.DirectionDebit,
		Amount:           amount,
		Description:      "funds held in escrow",
		RelatedUserID:    &sellerID,
		RelatedProductID: productID,
	}); err != nil {
		return models.EscrowTransaction{}, err
	}

	metrics.EscrowTransitions.WithLabelValues(string(models.EscrowHeld)).Inc()
	return e, nil
}

// ConfirmByBuyer flags the buyer's confirmation. Pure metadata, no fund
// movement; the sweeper or a manual release acts on it.
func (s *EscrowService) ConfirmByBuyer(ctx context.Context, id string) error {
	return s.confirm(ctx, id, true)
}

func (s *EscrowService) ConfirmBySeller(ctx context.Context, id string) error {
	return s.confirm(ctx, id, false)
}

func (s *EscrowService) confirm(ctx context.Context, id string, byBuyer bool) error {
	e, err := s.escrows.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if e.IsTerminal() {
		return models.ErrInvalidStateTransition
	}
	return s.escrows.SetConfirmed(ctx, id, byBuyer)
}

// ReleaseEscrowFunds resolves a hold in the seller's favour. The status CAS
// runs first: whoever loses the held->released race gets
// ErrInvalidStateTransition and no funds move twice. A failure after the CAS
// is a reconciliation case, surfaced loudly, never silently re-applied.
func (s *EscrowService) ReleaseEscrowFunds(ctx context.Context, id string) error {
	e, err := s.escrows.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.escrows.Transition(ctx, id,
		[]models.EscrowStatus{models.EscrowHeld, models.EscrowDisputed}, models.EscrowReleased); err != nil {
		return err
	}

	if err := s.wallets.ReleaseEscrow(ctx, e.SellerID, e.Amount, e.PlatformFee); err != nil {
		metrics.ReconciliationAlerts.Inc()
		slog.Error("escrow: RECONCILIATION ALERT: release marked but funds not moved",
			"escrow_id", id, "seller_id", e.SellerID, "amount", e.Amount, "err", err)
		return fmt.Errorf("release funds for escrow %s: %w", id, err)
	}

	// The release entry is gross; together with the fee debit the pair sums to
	// the net balance delta, so the seller's wallet stays reconcilable against
	// its completed entries.
	if _, err := s.ledger.Append(ctx, models.LedgerEntry{
		WalletID:         e.SellerID,
		Type:             models.LedgerEscrowRelease,
		Direction:        models.DirectionCredit,
		Amount:           e.Amount,
		Description:      "escrow released",
		RelatedUserID:    &e.BuyerID,
		RelatedProductID: e.ProductID,
	}); err != nil {
		return err
	}
	if e.PlatformFee > 0 {
		if _, err := s.ledger.Append(ctx, models.LedgerEntry{
			WalletID:    e.SellerID,
			Type:        models.LedgerPlatformFee,
			Direction:   models.DirectionDebit,
			Amount:      e.PlatformFee,
			Description: "platform fee",
		}); err != nil {
			return err
		}
	}

	metrics.EscrowTransitions.WithLabelValues(string(models.EscrowReleased)).Inc()
	metrics.PlatformFeesCollected.Add(float64(e.PlatformFee))
	return nil
}

// RefundEscrow resolves a hold in the buyer's favour, returning the full
// amount. Same CAS-first discipline as release.
func (s *EscrowService) RefundEscrow(ctx context.Context, id string) error {
	e, err := s.escrows.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.escrows.Transition(ctx, id,
		[]models.EscrowStatus{models.EscrowHeld, models.EscrowDisputed}, models.EscrowRefunded); err != nil {
		return err
	}

	if err := s.wallets.RefundEscrow(ctx, e.SellerID, e.BuyerID, e.Amount); err != nil {
		metrics.ReconciliationAlerts.Inc()
		slog.Error("escrow: RECONCILIATION ALERT: refund marked but funds not moved",
			"escrow_id", id, "buyer_id", e.BuyerID, "amount", e.Amount, "err", err)
		return fmt.Errorf("refund funds for escrow %s: %w", id, err)
	}

	if _, err := s.ledger.Append(ctx, models.LedgerEntry{
		WalletID:         e.BuyerID,
		Type:             models.LedgerRefund,
		Direction:        models.DirectionCredit,
		Amount:           e.Amount,
		Description:      "escrow refunded",
		RelatedUserID:    &e.SellerID,
		RelatedProductID: e.ProductID,
	}); err != nil {
		return err
	}

	metrics.EscrowTransitions.WithLabelValues(string(models.EscrowRefunded)).Inc()
	return nil
}

// MarkDisputed freezes a held escrow pending admin resolution. From disputed,
// only release or refund remain valid.
func (s *EscrowService) MarkDisputed(ctx context.Context, id string) error {
	if err := s.escrows.Transition(ctx, id,
		[]models.EscrowStatus{models.EscrowHeld}, models.EscrowDisputed); err != nil {
		return err
	}
	metrics.EscrowTransitions.WithLabelValues(string(models.EscrowDisputed)).Inc()
	return nil
}

func (s *EscrowService) Get(ctx context.Context, id string) (models.EscrowTransaction, error) {
	return s.escrows.GetByID(ctx, id)
}
