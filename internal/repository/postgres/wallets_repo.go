package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chineduogbonna/marketpay/internal/models"
)

type walletsRepo struct{ pool *pgxpool.Pool }

const walletCols = `user_id, balance, escrow_balance, total_earned, total_spent, security_deposit_locked, created_at, updated_at`

func scanWallet(row pgx.Row) (models.Wallet, error) {
	var w models.Wallet
	err := row.Scan(&w.UserID, &w.Balance, &w.EscrowBalance, &w.TotalEarned,
		&w.TotalSpent, &w.SecurityDepositLocked, &w.CreatedAt, &w.UpdatedAt)
	return w, err
}

func (r *walletsRepo) GetOrCreate(ctx context.Context, userID string) (models.Wallet, bool, error) {
	// INSERT .. ON CONFLICT DO NOTHING is safe under concurrent first access:
	// exactly one caller sees created=true.
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO wallets(user_id) VALUES($1)
		 ON CONFLICT (user_id) DO NOTHING`,
		userID,
	)
	if err != nil {
		return models.Wallet{}, false, err
	}
	w, err := r.Get(ctx, userID)
	return w, tag.RowsAffected() == 1, err
}

func (r *walletsRepo) Get(ctx context.Context, userID string) (models.Wallet, error) {
	w, err := scanWallet(r.pool.QueryRow(ctx,
		`SELECT `+walletCols+` FROM wallets WHERE user_id=$1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Wallet{}, models.ErrWalletNotFound
	}
	return w, err
}

func (r *walletsRepo) Credit(ctx context.Context, userID string, amount int64) (models.Wallet, error) {
	w, err := scanWallet(r.pool.QueryRow(ctx,
		`UPDATE wallets
		    SET balance = balance + $2, updated_at = now()
		  WHERE user_id = $1
		  RETURNING `+walletCols, userID, amount))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Wallet{}, models.ErrWalletNotFound
	}
	return w, err
}

// Debit is the check-then-mutate collapsed into one statement: the balance
// guard lives in the WHERE clause, so two racing debits can never both pass it.
func (r *walletsRepo) Debit(ctx context.Context, userID string, amount int64) (models.Wallet, error) {
	w, err := scanWallet(r.pool.QueryRow(ctx,
		`UPDATE wallets
		    SET balance = balance - $2,
		        total_spent = total_spent + $2,
		        updated_at = now()
		  WHERE user_id = $1 AND balance >= $2
		  RETURNING `+walletCols, userID, amount))
	if errors.Is(err, pgx.ErrNoRows) {
		// no row affected: either the wallet is missing or the guard failed
		if _, gerr := r.Get(ctx, userID); gerr != nil {
			return models.Wallet{}, gerr
		}
		return models.Wallet{}, models.ErrInsufficientFunds
	}
	return w, err
}

func (r *walletsRepo) LockSecurityDeposit(ctx context.Context, userID string, amount int64) (models.Wallet, error) {
	w, err := scanWallet(r.pool.QueryRow(ctx,
		`UPDATE wallets
		    SET balance = balance - $2,
		        security_deposit_locked = security_deposit_locked + $2,
		        updated_at = now()
		  WHERE user_id = $1 AND balance >= $2
		  RETURNING `+walletCols, userID, amount))
	if errors.Is(err, pgx.ErrNoRows) {
		if _, gerr := r.Get(ctx, userID); gerr != nil {
			return models.Wallet{}, gerr
		}
		return models.Wallet{}, models.ErrInsufficientFunds
	}
	return w, err
}

// HoldEscrow debits the buyer and credits the seller's escrow balance in one
// DB transaction. The buyer debit keeps the conditional guard.
func (r *walletsRepo) HoldEscrow(ctx context.Context, buyerID, sellerID string, amount int64) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE wallets
		    SET balance = balance - $2,
		        total_spent = total_spent + $2,
		        updated_at = now()
		  WHERE user_id = $1 AND balance >= $2`, buyerID, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, gerr := r.Get(ctx, buyerID); gerr != nil {
			return gerr
		}
		return models.ErrInsufficientFunds
	}

	tag, err = tx.Exec(ctx,
		`UPDATE wallets
		    SET escrow_balance = escrow_balance + $2, updated_at = now()
		  WHERE user_id = $1`, sellerID, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrWalletNotFound
	}

	return tx.Commit(ctx)
}

// ReleaseEscrow lands held funds in the seller's balance net of the fee as a
// single statement, so there is no partial-failure window between the credit
// and the fee deduction.
func (r *walletsRepo) ReleaseEscrow(ctx context.Context, sellerID string, amount, fee int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE wallets
		    SET escrow_balance = escrow_balance - $2,
		        balance = balance + $2 - $3,
		        total_earned = total_earned + $2 - $3,
		        updated_at = now()
		  WHERE user_id = $1 AND escrow_balance >= $2`, sellerID, amount, fee)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, gerr := r.Get(ctx, sellerID); gerr != nil {
			return gerr
		}
		return models.ErrInsufficientFunds
	}
	return nil
}

func (r *walletsRepo) RefundEscrow(ctx context.Context, sellerID, buyerID string, amount int64) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE wallets
		    SET escrow_balance = escrow_balance - $2, updated_at = now()
		  WHERE user_id = $1 AND escrow_balance >= $2`, sellerID, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, gerr := r.Get(ctx, sellerID); gerr != nil {
			return gerr
		}
		return models.ErrInsufficientFunds
	}

	tag, err = tx.Exec(ctx,
		`UPDATE wallets
		    SET balance = balance + $2, updated_at = now()
		  WHERE user_id = $1`, buyerID, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrWalletNotFound
	}

	return tx.Commit(ctx)
}
