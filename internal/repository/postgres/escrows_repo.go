package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chineduogbonna/marketpay/internal/models"
)

type escrowsRepo struct{ pool *pgxpool.Pool }

const escrowCols = `id, buyer_id, seller_id, product_id, amount, platform_fee, status,
 buyer_confirmed, seller_confirmed, hold_duration_days, auto_release_date, released_at, created_at`

func scanEscrow(row pgx.Row) (models.EscrowTransaction, error) {
	var e models.EscrowTransaction
	err := row.Scan(&e.ID, &e.BuyerID, &e.SellerID, &e.ProductID, &e.Amount, &e.PlatformFee,
		&e.Status, &e.BuyerConfirmed, &e.SellerConfirmed, &e.HoldDurationDays,
		&e.AutoReleaseDate, &e.ReleasedAt, &e.CreatedAt)
	return e, err
}

func (r *escrowsRepo) Create(ctx context.Context, e models.EscrowTransaction) (models.EscrowTransaction, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return scanEscrow(r.pool.QueryRow(ctx, `
INSERT INTO escrow_transactions (
  id, buyer_id, seller_id, product_id, amount, platform_fee, status, hold_duration_days, auto_release_date
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
RETURNING `+escrowCols,
		e.ID, e.BuyerID, e.SellerID, e.ProductID, e.Amount, e.PlatformFee,
		e.Status, e.HoldDurationDays, e.AutoReleaseDate))
}

func (r *escrowsRepo) GetByID(ctx context.Context, id string) (models.EscrowTransaction, error) {
	e, err := scanEscrow(r.pool.QueryRow(ctx,
		`SELECT `+escrowCols+` FROM escrow_transactions WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.EscrowTransaction{}, models.ErrEscrowNotFound
	}
	return e, err
}

func (r *escrowsRepo) SetConfirmed(ctx context.Context, id string, byBuyer bool) error {
	col := "seller_confirmed"
	if byBuyer {
		col = "buyer_confirmed"
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE escrow_transactions SET `+col+`=true WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrEscrowNotFound
	}
	return nil
}

// Transition is the status compare-and-set: a double release/refund race loses
// here, at the data store, regardless of how the calls interleave.
func (r *escrowsRepo) Transition(ctx context.Context, id string, from []models.EscrowStatus, to models.EscrowStatus) error {
	states := make([]string, len(from))
	for i, s := range from {
		states[i] = string(s)
	}
	q := `UPDATE escrow_transactions SET status=$2 WHERE id=$1 AND status = ANY($3)`
	if to == models.EscrowReleased {
		q = `UPDATE escrow_transactions SET status=$2, released_at=now() WHERE id=$1 AND status = ANY($3)`
	}
	tag, err := r.pool.Exec(ctx, q, id, to, states)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, gerr := r.GetByID(ctx, id); gerr != nil {
			return gerr
		}
		return models.ErrInvalidStateTransition
	}
	return nil
}

func (r *escrowsRepo) ListDueForRelease(ctx context.Context, now time.Time, limit int) ([]models.EscrowTransaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+escrowCols+`
		   FROM escrow_transactions
		  WHERE status=$1
		    AND (auto_release_date <= $2 OR buyer_confirmed OR seller_confirmed)
		  ORDER BY auto_release_date
		  LIMIT $3`, models.EscrowHeld, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.EscrowTransaction
	for rows.Next() {
		e, err := scanEscrow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
