package models

import "time"

type ServiceType string

const (
	ServiceData    ServiceType = "data"
	ServiceAirtime ServiceType = "airtime"
)

type Frequency string

const (
	FreqDaily   Frequency = "daily"
	FreqWeekly  Frequency = "weekly"
	FreqMonthly Frequency = "monthly"
)

type ScheduleStatus string

const (
	ScheduleActive ScheduleStatus = "active"
	SchedulePaused ScheduleStatus = "paused"
)

// ScheduledPurchase is a recurring debit intent. Only the runner advances its
// run bookkeeping; pause/resume are the only external mutations.
type ScheduledPurchase struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	ServiceType ServiceType    `json:"service_type"`
	PlanID      *string        `json:"plan_id,omitempty"`
	Amount      int64          `json:"amount"`
	PhoneNumber string         `json:"phone_number"`
	Frequency   Frequency      `json:"frequency"`
	DayOfWeek   int            `json:"day_of_week"`  // 0=Sunday, weekly only
	DayOfMonth  int            `json:"day_of_month"` // 1-31, monthly only
	TimeOfDay   string         `json:"time_of_day"`  // "HH:MM"
	Status      ScheduleStatus `json:"status"`
	PauseReason string         `json:"pause_reason,omitempty"`
	LastRunAt   *time.Time     `json:"last_run_at,omitempty"`
	NextRunAt   time.Time      `json:"next_run_at"`
	RunCount    int            `json:"run_count"`
	CreatedAt   time.Time      `json:"created_at"`
}

// DataPlan is one provider bundle a data schedule can point at.
type DataPlan struct {
	ID      string `json:"id"`
	Network string `json:"network"`
	Name    string `json:"name"`
	Amount  int64  `json:"amount"`
}
