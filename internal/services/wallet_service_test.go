package services

import (
	"context"
	"errors"
	"testing"

	"github.com/chineduogbonna/marketpay/internal/models"
	"github.com/chineduogbonna/marketpay/internal/repository/memory"
)

func TestGetOrCreateWalletGrantsBonusOnce(t *testing.T) {
	stores := memory.NewStores()
	svc := NewWalletService(stores.Wallets, stores.Ledger, 500)
	ctx := context.Background()

	w, err := svc.GetOrCreateWallet(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if w.Balance != 500 {
		t.Fatalf("expected welcome bonus 500, got %d", w.Balance)
	}

	// second call must not grant again
	w, err = svc.GetOrCreateWallet(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if w.Balance != 500 {
		t.Fatalf("bonus granted twice, balance %d", w.Balance)
	}

	entries, _ := stores.Ledger.ListByWallet(ctx, "u1", 10, 0)
	if len(entries) != 1 || entries[0].Type != models.LedgerWelcomeBonus {
		t.Fatalf("expected exactly one welcome_bonus entry, got %+v", entries)
	}
}

func TestWithdrawInsufficientFunds(t *testing.T) {
	stores := memory.NewStores()
	svc := NewWalletService(stores.Wallets, stores.Ledger, 0)
	ctx := context.Background()

	if _, err := svc.Deposit(ctx, "u1", 1000, "top-up"); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Withdraw(ctx, "u1", 1500, "cash out")
	if !errors.Is(err, models.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	w, _ := svc.Get(ctx, "u1")
	if w.Balance != 1000 {
		t.Fatalf("failed withdrawal changed balance to %d", w.Balance)
	}
	entries, _ := stores.Ledger.ListByWallet(ctx, "u1", 10, 0)
	if len(entries) != 1 {
		t.Fatalf("failed withdrawal wrote a ledger entry: %+v", entries)
	}
}

func TestWithdrawUpdatesTotalSpent(t *testing.T) {
	stores := memory.NewStores()
	svc := NewWalletService(stores.Wallets, stores.Ledger, 0)
	ctx := context.Background()

	if _, err := svc.Deposit(ctx, "u1", 5000, ""); err != nil {
		t.Fatal(err)
	}
	w, err := svc.Withdraw(ctx, "u1", 2000, "")
	if err != nil {
		t.Fatal(err)
	}
	if w.Balance != 3000 || w.TotalSpent != 2000 {
		t.Fatalf("expected balance 3000 / spent 2000, got %+v", w)
	}
}

func TestLockSecurityDeposit(t *testing.T) {
	stores := memory.NewStores()
	svc := NewWalletService(stores.Wallets, stores.Ledger, 0)
	ctx := context.Background()

	if _, err := svc.Deposit(ctx, "u1", 3000, ""); err != nil {
		t.Fatal(err)
	}
	w, err := svc.LockSecurityDeposit(ctx, "u1", 1000)
	if err != nil {
		t.Fatal(err)
	}
	if w.Balance != 2000 || w.SecurityDepositLocked != 1000 {
		t.Fatalf("expected 2000 available / 1000 locked, got %+v", w)
	}

	if _, err := svc.LockSecurityDeposit(ctx, "u1", 5000); !errors.Is(err, models.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

// balance must equal the signed sum of completed ledger entries after any mix
// of operations
func TestLedgerBalanceConservation(t *testing.T) {
	stores := memory.NewStores()
	svc := NewWalletService(stores.Wallets, stores.Ledger, 250)
	ctx := context.Background()

	if _, err := svc.GetOrCreateWallet(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Deposit(ctx, "u1", 4000, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Withdraw(ctx, "u1", 1200, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.LockSecurityDeposit(ctx, "u1", 800); err != nil {
		t.Fatal(err)
	}
	// a rejected withdrawal must not disturb the sum
	if _, err := svc.Withdraw(ctx, "u1", 99999, ""); !errors.Is(err, models.ErrInsufficientFunds) {
		t.Fatal("expected rejection")
	}

	w, _ := svc.Get(ctx, "u1")
	entries, _ := stores.Ledger.ListByWallet(ctx, "u1", 100, 0)
	var sum int64
	for _, e := range entries {
		if e.Status != models.LedgerCompleted {
			continue
		}
		sum += e.Signed()
	}
	if w.Balance != sum {
		t.Fatalf("balance %d != completed ledger sum %d", w.Balance, sum)
	}
}

func TestDepositRejectsNonPositiveAmount(t *testing.T) {
	stores := memory.NewStores()
	svc := NewWalletService(stores.Wallets, stores.Ledger, 0)
	for _, amt := range []int64{0, -100} {
		if _, err := svc.Deposit(context.Background(), "u1", amt, ""); err == nil {
			t.Fatalf("deposit of %d must fail", amt)
		}
	}
}
