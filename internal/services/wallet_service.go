package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/chineduogbonna/marketpay/internal/models"
	repo "github.com/chineduogbonna/marketpay/internal/repository"
)

// WalletService is the only surface through which request handlers touch
// balances. Every balance change it applies is paired with exactly one ledger
// entry of matching magnitude.
type WalletService struct {
	wallets repo.Wallets
	ledger  repo.Ledger

	// welcome bonus granted once, on first wallet creation; 0 disables
	welcomeBonus int64
}

func NewWalletService(w repo.Wallets, l repo.Ledger, welcomeBonus int64) *WalletService {
	return &WalletService{wallets: w, ledger: l, welcomeBonus: welcomeBonus}
}

// GetOrCreateWallet returns the user's wallet, creating it on first access.
// Concurrent first access yields one wallet row and at most one welcome bonus.
func (s *WalletService) GetOrCreateWallet(ctx context.Context, userID string) (models.Wallet, error) {
	w, created, err := s.wallets.GetOrCreate(ctx, userID)
	if err != nil {
		return models.Wallet{}, err
	}
	if created && s.welcomeBonus > 0 {
		w, err = s.wallets.Credit(ctx, userID, s.welcomeBonus)
		if err != nil {
			return models.Wallet{}, fmt.Errorf("welcome bonus: %w", err)
		}
		if _, err := s.ledger.Append(ctx, models.LedgerEntry{
			WalletID:    userID,
			Type:        models.LedgerWelcomeBonus,
			Direction:   models.DirectionCredit,
			Amount:      s.welcomeBonus,
			Description: "welcome bonus",
		}); err != nil {
			return models.Wallet{}, err
		}
	}
	return w, nil
}

// Deposit lands a gateway top-up in the balance.
func (s *WalletService) Deposit(ctx context.Context, userID string, amount int64, description string) (models.Wallet, error) {
	if amount <= 0 {
		return models.Wallet{}, errors.New("amount must be > 0")
	}
	if _, err := s.GetOrCreateWallet(ctx, userID); err != nil {
		return models.Wallet{}, err
	}
	w, err := s.wallets.Credit(ctx, userID, amount)
	if err != nil {
		return models.Wallet{}, err
	}
	if _, err := s.ledger.Append(ctx, models.LedgerEntry{
		WalletID:    userID,
		Type:        models.LedgerDeposit,
		Direction:   models.DirectionCredit,
		Amount:      amount,
		Description: description,
	}); err != nil {
		return models.Wallet{}, err
	}
	return w, nil
}

// Withdraw debits available funds. The insufficient-funds guard is atomic at
// the store; no partial application on failure.
func (s *WalletService) Withdraw(ctx context.Context, userID string, amount int64, description string) (models.Wallet, error) {
	if amount <= 0 {
		return models.Wallet{}, errors.New("amount must be > 0")
	}
	w, err := s.wallets.Debit(ctx, userID, amount)
	if err != nil {
		return models.Wallet{}, err
	}
	if _, err := s.ledger.Append(ctx, models.LedgerEntry{
		WalletID:    userID,
		Type:        models.LedgerWithdrawal,
		Direction:   models.DirectionDebit,
		Amount:      amount,
		Description: description,
	}); err != nil {
		return models.Wallet{}, err
	}
	return w, nil
}

// LockSecurityDeposit moves funds from balance into the locked deposit bucket.
func (s *WalletService) LockSecurityDeposit(ctx context.Context, userID string, amount int64) (models.Wallet, error) {
	if amount <= 0 {
		return models.Wallet{}, errors.New("amount must be > 0")
	}
	w, err := s.wallets.LockSecurityDeposit(ctx, userID, amount)
	if err != nil {
		return models.Wallet{}, err
	}
	if _, err := s.ledger.Append(ctx, models.LedgerEntry{
		WalletID:    userID,
		Type:        models.LedgerSecurityDeposit,
		Direction:   models.DirectionDebit,
		Amount:      amount,
		Description: "security deposit locked",
	}); err != nil {
		return models.Wallet{}, err
	}
	return w, nil
}

func (s *WalletService) Get(ctx context.Context, userID string) (models.Wallet, error) {
	return s.wallets.Get(ctx, userID)
}

func (s *WalletService) ListTransactions(ctx context.Context, walletID string, limit, offset int) ([]models.LedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.ledger.ListByWallet(ctx, walletID, limit, offset)
}
