package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chineduogbonna/marketpay/internal/models"
)

type ledgerRepo struct{ pool *pgxpool.Pool }

const ledgerCols = `id, wallet_id, type, direction, amount, description, related_user_id, related_product_id, status, created_at`

func (r *ledgerRepo) Append(ctx context.Context, e models.LedgerEntry) (models.LedgerEntry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Status == "" {
		e.Status = models.LedgerCompleted
	}
	err := r.pool.QueryRow(ctx, `
INSERT INTO ledger_entries (
  id, wallet_id, type, direction, amount, description, related_user_id, related_product_id, status
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
RETURNING `+ledgerCols,
		e.ID, e.WalletID, e.Type, e.Direction, e.Amount, e.Description,
		e.RelatedUserID, e.RelatedProductID, e.Status,
	).Scan(&e.ID, &e.WalletID, &e.Type, &e.Direction, &e.Amount, &e.Description,
		&e.RelatedUserID, &e.RelatedProductID, &e.Status, &e.CreatedAt)
	return e, err
}

func (r *ledgerRepo) UpdateStatus(ctx context.Context, id string, status models.LedgerStatus) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE ledger_entries SET status=$2 WHERE id=$1`, id, status)
	return err
}

func (r *ledgerRepo) ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]models.LedgerEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+ledgerCols+`
		   FROM ledger_entries
		  WHERE wallet_id=$1
		  ORDER BY created_at DESC
		  LIMIT $2 OFFSET $3`, walletID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.LedgerEntry
	for rows.Next() {
		var e models.LedgerEntry
		if err := rows.Scan(&e.ID, &e.WalletID, &e.Type, &e.Direction, &e.Amount,
			&e.Description, &e.RelatedUserID, &e.RelatedProductID, &e.Status, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
