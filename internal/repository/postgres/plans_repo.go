package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chineduogbonna/marketpay/internal/models"
)

type plansRepo struct{ pool *pgxpool.Pool }

func (r *plansRepo) GetByID(ctx context.Context, id string) (models.DataPlan, error) {
	var p models.DataPlan
	err := r.pool.QueryRow(ctx,
		`SELECT id, network, name, amount FROM data_plans WHERE id=$1`, id,
	).Scan(&p.ID, &p.Network, &p.Name, &p.Amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.DataPlan{}, models.ErrPlanNotFound
	}
	return p, err
}

func (r *plansRepo) List(ctx context.Context) ([]models.DataPlan, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, network, name, amount FROM data_plans ORDER BY network, amount`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DataPlan
	for rows.Next() {
		var p models.DataPlan
		if err := rows.Scan(&p.ID, &p.Network, &p.Name, &p.Amount); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
