package services

import (
	"context"
	"errors"
	"testing"

	"github.com/chineduogbonna/marketpay/internal/models"
	"github.com/chineduogbonna/marketpay/internal/repository/memory"
)

type fakeTiers struct {
	pct int
	err error
}

func (f fakeTiers) FeePercent(context.Context, string) (int, error) { return f.pct, f.err }

func setupEscrow(t *testing.T, buyerBalance int64, feePct int) (*EscrowService, *memory.Stores) {
	t.Helper()
	stores := memory.NewStores()
	ctx := context.Background()
	if _, _, err := stores.Wallets.GetOrCreate(ctx, "buyer"); err != nil {
		t.Fatal(err)
	}
	if buyerBalance > 0 {
		if _, err := stores.Wallets.Credit(ctx, "buyer", buyerBalance); err != nil {
			t.Fatal(err)
		}
	}
	svc := NewEscrowService(stores.Wallets, stores.Escrows, stores.Ledger, fakeTiers{pct: feePct}, 7)
	return svc, stores
}

func TestCreateEscrowHoldsFunds(t *testing.T) {
	svc, stores := setupEscrow(t, 10000, 6)
	ctx := context.Background()

	e, err := svc.CreateEscrowTransaction(ctx, "buyer", "seller", nil, 5000)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if e.Status != models.EscrowHeld {
		t.Fatalf("expected held, got %s", e.Status)
	}
	if e.PlatformFee != 300 {
		t.Fatalf("expected fee 300 at 6%%, got %d", e.PlatformFee)
	}

	buyer, _ := stores.Wallets.Get(ctx, "buyer")
	if buyer.Balance != 5000 {
		t.Fatalf("expected buyer balance 5000, got %d", buyer.Balance)
	}
	seller, _ := stores.Wallets.Get(ctx, "seller")
	if seller.EscrowBalance != 5000 {
		t.Fatalf("expected seller escrow 5000, got %d", seller.EscrowBalance)
	}

	entries, _ := stores.Ledger.ListByWallet(ctx, "buyer", 10, 0)
	if len(entries) != 1 || entries[0].Type != models.LedgerEscrowHold {
		t.Fatalf("expected one escrow_hold entry, got %+v", entries)
	}
}

func TestCreateEscrowInsufficientFunds(t *testing.T) {
	svc, stores := setupEscrow(t, 1000, 6)
	ctx := context.Background()

	_, err := svc.CreateEscrowTransaction(ctx, "buyer", "seller", nil, 5000)
	if !errors.Is(err, models.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	buyer, _ := stores.Wallets.Get(ctx, "buyer")
	if buyer.Balance != 1000 {
		t.Fatalf("expected buyer balance untouched at 1000, got %d", buyer.Balance)
	}

	// the unfunded record must not linger in pending
	for _, e := range stores.Escrows.All() {
		if e.Status == models.EscrowPending {
			t.Fatalf("unfunded hold left pending: %+v", e)
		}
		if e.Status != models.EscrowRefunded {
			t.Fatalf("expected unfunded hold closed as refunded, got %s", e.Status)
		}
	}
}

func TestReleaseEscrowFunds(t *testing.T) {
	svc, stores := setupEscrow(t, 10000, 6)
	ctx := context.Background()

	e, err := svc.CreateEscrowTransaction(ctx, "buyer", "seller", nil, 5000)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.ReleaseEscrowFunds(ctx, e.ID); err != nil {
		t.Fatalf("release: %v", err)
	}

	seller, _ := stores.Wallets.Get(ctx, "seller")
	if seller.Balance != 4700 {
		t.Fatalf("expected seller balance 4700, got %d", seller.Balance)
	}
	if seller.TotalEarned != 4700 {
		t.Fatalf("expected total earned 4700, got %d", seller.TotalEarned)
	}
	if seller.EscrowBalance != 0 {
		t.Fatalf("expected seller escrow 0, got %d", seller.EscrowBalance)
	}

	got, _ := svc.Get(ctx, e.ID)
	if got.Status != models.EscrowReleased || got.ReleasedAt == nil {
		t.Fatalf("expected released with timestamp, got %+v", got)
	}

	// two entries: gross release 5000 credit, fee 300 debit
	entries, _ := stores.Ledger.ListByWallet(ctx, "seller", 10, 0)
	if len(entries) != 2 {
		t.Fatalf("expected 2 seller entries, got %d", len(entries))
	}
	var sum int64
	for _, en := range entries {
		sum += en.Signed()
	}
	if sum != 4700 {
		t.Fatalf("expected seller entries to net 4700, got %d", sum)
	}
	if sum != seller.Balance {
		t.Fatalf("seller balance %d != entry sum %d", seller.Balance, sum)
	}
}

// the seller wallet must reconcile against its completed entries after a
// release: the gross credit and the fee debit sum to the balance delta
func TestSellerBalanceMatchesLedgerAfterRelease(t *testing.T) {
	svc, stores := setupEscrow(t, 10000, 6)
	ctx := context.Background()

	e, err := svc.CreateEscrowTransaction(ctx, "buyer", "seller", nil, 5000)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.ReleaseEscrowFunds(ctx, e.ID); err != nil {
		t.Fatal(err)
	}

	seller, _ := stores.Wallets.Get(ctx, "seller")
	entries, _ := stores.Ledger.ListByWallet(ctx, "seller", 100, 0)
	var sum int64
	for _, en := range entries {
		if en.Status != models.LedgerCompleted {
			continue
		}
		sum += en.Signed()
	}
	if seller.Balance != sum {
		t.Fatalf("seller balance %d != completed ledger sum %d", seller.Balance, sum)
	}
}

func TestRefundEscrow(t *testing.T) {
	svc, stores := setupEscrow(t, 2000, 6)
	ctx := context.Background()

	e, err := svc.CreateEscrowTransaction(ctx, "buyer", "seller", nil, 2000)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.RefundEscrow(ctx, e.ID); err != nil {
		t.Fatalf("refund: %v", err)
	}

	buyer, _ := stores.Wallets.Get(ctx, "buyer")
	if buyer.Balance != 2000 {
		t.Fatalf("expected buyer balance restored to 2000, got %d", buyer.Balance)
	}
	seller, _ := stores.Wallets.Get(ctx, "seller")
	if seller.EscrowBalance != 0 || seller.Balance != 0 {
		t.Fatalf("seller must not be credited on refund, got %+v", seller)
	}
	got, _ := svc.Get(ctx, e.ID)
	if got.Status != models.EscrowRefunded {
		t.Fatalf("expected refunded, got %s", got.Status)
	}
}

func TestTerminalTransitionsAreGuarded(t *testing.T) {
	svc, stores := setupEscrow(t, 10000, 6)
	ctx := context.Background()

	e, err := svc.CreateEscrowTransaction(ctx, "buyer", "seller", nil, 5000)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.ReleaseEscrowFunds(ctx, e.ID); err != nil {
		t.Fatal(err)
	}

	before, _ := stores.Wallets.Get(ctx, "seller")
	entriesBefore, _ := stores.Ledger.ListByWallet(ctx, "seller", 100, 0)

	if err := svc.ReleaseEscrowFunds(ctx, e.ID); !errors.Is(err, models.ErrInvalidStateTransition) {
		t.Fatalf("double release must fail, got %v", err)
	}
	if err := svc.RefundEscrow(ctx, e.ID); !errors.Is(err, models.ErrInvalidStateTransition) {
		t.Fatalf("refund after release must fail, got %v", err)
	}

	after, _ := stores.Wallets.Get(ctx, "seller")
	if after != before {
		t.Fatalf("terminal retry changed wallet: %+v -> %+v", before, after)
	}
	entriesAfter, _ := stores.Ledger.ListByWallet(ctx, "seller", 100, 0)
	if len(entriesAfter) != len(entriesBefore) {
		t.Fatalf("terminal retry appended ledger entries")
	}
}

func TestDisputeFlow(t *testing.T) {
	svc, _ := setupEscrow(t, 5000, 3)
	ctx := context.Background()

	e, err := svc.CreateEscrowTransaction(ctx, "buyer", "seller", nil, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.MarkDisputed(ctx, e.ID); err != nil {
		t.Fatalf("dispute: %v", err)
	}
	if err := svc.MarkDisputed(ctx, e.ID); !errors.Is(err, models.ErrInvalidStateTransition) {
		t.Fatalf("double dispute must fail, got %v", err)
	}
	// disputed escrows can still be refunded by admin resolution
	if err := svc.RefundEscrow(ctx, e.ID); err != nil {
		t.Fatalf("refund from disputed: %v", err)
	}
}

func TestTrustedSellerFee(t *testing.T) {
	svc, _ := setupEscrow(t, 10000, 3)
	e, err := svc.CreateEscrowTransaction(context.Background(), "buyer", "seller", nil, 5000)
	if err != nil {
		t.Fatal(err)
	}
	if e.PlatformFee != 150 {
		t.Fatalf("expected 3%% fee 150, got %d", e.PlatformFee)
	}
}

func TestTierLookupFailureFallsBackToStandard(t *testing.T) {
	stores := memory.NewStores()
	ctx := context.Background()
	if _, _, err := stores.Wallets.GetOrCreate(ctx, "buyer"); err != nil {
		t.Fatal(err)
	}
	if _, err := stores.Wallets.Credit(ctx, "buyer", 10000); err != nil {
		t.Fatal(err)
	}
	svc := NewEscrowService(stores.Wallets, stores.Escrows, stores.Ledger,
		fakeTiers{err: errors.New("down")}, 7)

	e, err := svc.CreateEscrowTransaction(ctx, "buyer", "seller", nil, 5000)
	if err != nil {
		t.Fatal(err)
	}
	if e.PlatformFee != 300 {
		t.Fatalf("expected standard 6%% fee 300, got %d", e.PlatformFee)
	}
}

func TestConfirmationsAreMetadataOnly(t *testing.T) {
	svc, stores := setupEscrow(t, 10000, 6)
	ctx := context.Background()

	e, err := svc.CreateEscrowTransaction(ctx, "buyer", "seller", nil, 5000)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.ConfirmByBuyer(ctx, e.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.ConfirmBySeller(ctx, e.ID); err != nil {
		t.Fatal(err)
	}

	got, _ := svc.Get(ctx, e.ID)
	if !got.BuyerConfirmed || !got.SellerConfirmed {
		t.Fatalf("expected both confirmations set, got %+v", got)
	}
	if got.Status != models.EscrowHeld {
		t.Fatalf("confirmation must not move funds or status, got %s", got.Status)
	}
	seller, _ := stores.Wallets.Get(ctx, "seller")
	if seller.Balance != 0 {
		t.Fatalf("confirmation must not credit seller, got %d", seller.Balance)
	}

	if err := svc.ReleaseEscrowFunds(ctx, e.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.ConfirmByBuyer(ctx, e.ID); !errors.Is(err, models.ErrInvalidStateTransition) {
		t.Fatalf("confirming a terminal escrow must fail, got %v", err)
	}
}
