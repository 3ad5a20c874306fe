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

type schedulesRepo struct{ pool *pgxpool.Pool }

const scheduleCols = `id, user_id, service_type, plan_id, amount, phone_number, frequency,
 day_of_week, day_of_month, time_of_day, status, pause_reason, last_run_at, next_run_at, run_count, created_at`

func scanSchedule(row pgx.Row) (models.ScheduledPurchase, error) {
	var s models.ScheduledPurchase
	err := row.Scan(&s.ID, &s.UserID, &s.ServiceType, &s.PlanID, &s.Amount, &s.PhoneNumber,
		&s.Frequency, &s.DayOfWeek, &s.DayOfMonth, &s.TimeOfDay, &s.Status, &s.PauseReason,
		&s.LastRunAt, &s.NextRunAt, &s.RunCount, &s.CreatedAt)
	return s, err
}

func (r *schedulesRepo) Create(ctx context.Context, s models.ScheduledPurchase) (models.ScheduledPurchase, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return scanSchedule(r.pool.QueryRow(ctx, `
INSERT INTO scheduled_purchases (
  id, user_id, service_type, plan_id, amount, phone_number, frequency,
  day_of_week, day_of_month, time_of_day, status, next_run_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
RETURNING `+scheduleCols,
		s.ID, s.UserID, s.ServiceType, s.PlanID, s.Amount, s.PhoneNumber, s.Frequency,
		s.DayOfWeek, s.DayOfMonth, s.TimeOfDay, s.Status, s.NextRunAt))
}

func (r *schedulesRepo) GetByID(ctx context.Context, id string) (models.ScheduledPurchase, error) {
	s, err := scanSchedule(r.pool.QueryRow(ctx,
		`SELECT `+scheduleCols+` FROM scheduled_purchases WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ScheduledPurchase{}, models.ErrScheduleNotFound
	}
	return s, err
}

func (r *schedulesRepo) ListByUser(ctx context.Context, userID string) ([]models.ScheduledPurchase, error) {
	return r.list(ctx,
		`SELECT `+scheduleCols+` FROM scheduled_purchases WHERE user_id=$1 ORDER BY created_at DESC`,
		userID)
}

func (r *schedulesRepo) ListDue(ctx context.Context, now time.Time) ([]models.ScheduledPurchase, error) {
	return r.list(ctx,
		`SELECT `+scheduleCols+`
		   FROM scheduled_purchases
		  WHERE status=$1 AND next_run_at <= $2
		  ORDER BY next_run_at`,
		models.ScheduleActive, now)
}

func (r *schedulesRepo) list(ctx context.Context, q string, args ...any) ([]models.ScheduledPurchase, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ScheduledPurchase
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *schedulesRepo) Pause(ctx context.Context, id, reason string) error {
	return r.exec(ctx,
		`UPDATE scheduled_purchases SET status=$2, pause_reason=$3 WHERE id=$1`,
		id, models.SchedulePaused, reason)
}

func (r *schedulesRepo) Resume(ctx context.Context, id string, nextRunAt time.Time) error {
	return r.exec(ctx,
		`UPDATE scheduled_purchases SET status=$2, pause_reason='', next_run_at=$3 WHERE id=$1`,
		id, models.ScheduleActive, nextRunAt)
}

func (r *schedulesRepo) MarkRun(ctx context.Context, id string, lastRunAt, nextRunAt time.Time) error {
	return r.exec(ctx,
		`UPDATE scheduled_purchases
		    SET last_run_at=$2, next_run_at=$3, run_count = run_count + 1
		  WHERE id=$1`, id, lastRunAt, nextRunAt)
}

func (r *schedulesRepo) AdvanceNextRun(ctx context.Context, id string, nextRunAt time.Time) error {
	return r.exec(ctx,
		`UPDATE scheduled_purchases SET next_run_at=$2 WHERE id=$1`, id, nextRunAt)
}

func (r *schedulesRepo) exec(ctx context.Context, q string, args ...any) error {
	tag, err := r.pool.Exec(ctx, q, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrScheduleNotFound
	}
	return nil
}
