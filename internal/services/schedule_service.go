package services

import (
	"context"
	"fmt"
	"time"

	"github.com/chineduogbonna/marketpay/internal/models"
	"github.com/chineduogbonna/marketpay/internal/provider"
	repo "github.com/chineduogbonna/marketpay/internal/repository"
	"github.com/chineduogbonna/marketpay/internal/scheduler"
)

type ScheduleService struct {
	schedules repo.Schedules
	wallets   repo.Wallets
	plans     repo.Plans
}

func NewScheduleService(s repo.Schedules, w repo.Wallets, p repo.Plans) *ScheduleService {
	return &ScheduleService{schedules: s, wallets: w, plans: p}
}

type CreateScheduleInput struct {
	UserID      string             `json:"user_id"`
	ServiceType models.ServiceType `json:"service_type"`
	PlanID      *string            `json:"plan_id,omitempty"`
	Amount      int64              `json:"amount"`
	PhoneNumber string             `json:"phone_number"`
	Frequency   models.Frequency   `json:"frequency"`
	DayOfWeek   int                `json:"day_of_week"`
	DayOfMonth  int                `json:"day_of_month"`
	TimeOfDay   string             `json:"time_of_day"`
}

func (s *ScheduleService) Create(ctx context.Context, in CreateScheduleInput) (models.ScheduledPurchase, error) {
	if err := s.validate(ctx, in); err != nil {
		return models.ScheduledPurchase{}, err
	}
	if _, _, err := s.wallets.GetOrCreate(ctx, in.UserID); err != nil {
		return models.ScheduledPurchase{}, err
	}

	sched := models.ScheduledPurchase{
		UserID:      in.UserID,
		ServiceType: in.ServiceType,
		PlanID:      in.PlanID,
		Amount:      in.Amount,
		PhoneNumber: in.PhoneNumber,
		Frequency:   in.Frequency,
		DayOfWeek:   in.DayOfWeek,
		DayOfMonth:  in.DayOfMonth,
		TimeOfDay:   in.TimeOfDay,
		Status:      models.ScheduleActive,
	}
	next, err := scheduler.NextRun(time.Now(), sched)
	if err != nil {
		return models.ScheduledPurchase{}, err
	}
	sched.NextRunAt = next

	return s.schedules.Create(ctx, sched)
}

func (s *ScheduleService) validate(ctx context.Context, in CreateScheduleInput) error {
	fail := func(msg string) error {
		return fmt.Errorf("%w: %s", models.ErrInvalidScheduleConfig, msg)
	}
	if in.UserID == "" {
		return fail("user_id required")
	}
	if _, _, err := scheduler.ParseTimeOfDay(in.TimeOfDay); err != nil {
		return err
	}
	if _, err := provider.DetectNetwork(in.PhoneNumber); err != nil {
		return err
	}

	switch in.ServiceType {
	case models.ServiceData:
		if in.PlanID == nil || *in.PlanID == "" {
			return fail("plan_id required for data schedules")
		}
		if _, err := s.plans.GetByID(ctx, *in.PlanID); err != nil {
			return err
		}
	case models.ServiceAirtime:
		if in.Amount <= 0 {
			return fail("amount must be > 0 for airtime schedules")
		}
	default:
		return fail("service_type must be data or airtime")
	}

	switch in.Frequency {
	case models.FreqDaily:
	case models.FreqWeekly:
		if in.DayOfWeek < 0 || in.DayOfWeek > 6 {
			return fail("day_of_week must be 0-6")
		}
	case models.FreqMonthly:
		if in.DayOfMonth < 1 || in.DayOfMonth > 31 {
			return fail("day_of_month must be 1-31")
		}
	default:
		return fail("frequency must be daily, weekly or monthly")
	}
	return nil
}

func (s *ScheduleService) Pause(ctx context.Context, id, reason string) error {
	return s.schedules.Pause(ctx, id, reason)
}

// Resume reactivates a paused schedule. A next_run_at left in the past (the
// insufficient-funds pause path leaves it untouched) makes the schedule due on
// the very next tick, so the user does not lose their cadence.
func (s *ScheduleService) Resume(ctx context.Context, id string) error {
	sched, err := s.schedules.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.schedules.Resume(ctx, id, sched.NextRunAt)
}

func (s *ScheduleService) Get(ctx context.Context, id string) (models.ScheduledPurchase, error) {
	return s.schedules.GetByID(ctx, id)
}

func (s *ScheduleService) ListByUser(ctx context.Context, userID string) ([]models.ScheduledPurchase, error) {
	return s.schedules.ListByUser(ctx, userID)
}

// ListDue is the runner's query, exposed for introspection.
func (s *ScheduleService) ListDue(ctx context.Context) ([]models.ScheduledPurchase, error) {
	return s.schedules.ListDue(ctx, time.Now())
}

func (s *ScheduleService) ListPlans(ctx context.Context) ([]models.DataPlan, error) {
	return s.plans.List(ctx)
}
