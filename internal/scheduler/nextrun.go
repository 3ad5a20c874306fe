package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chineduogbonna/marketpay/internal/models"
)

// ParseTimeOfDay validates an "HH:MM" clock string.
func ParseTimeOfDay(s string) (hour, minute int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: time_of_day %q", models.ErrInvalidScheduleConfig, s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: time_of_day %q", models.ErrInvalidScheduleConfig, s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: time_of_day %q", models.ErrInvalidScheduleConfig, s)
	}
	return hour, minute, nil
}

// NextRun returns the first cadence slot strictly after from.
//
// Weekly anchors to the configured day-of-week, computed modulo 7 days
// forward. Monthly anchors to the configured day-of-month, clamped to the last
// day of the target month when that day does not exist.
func NextRun(from time.Time, s models.ScheduledPurchase) (time.Time, error) {
	hour, minute, err := ParseTimeOfDay(s.TimeOfDay)
	if err != nil {
		return time.Time{}, err
	}
	loc := from.Location()

	switch s.Frequency {
	case models.FreqDaily:
		cand := time.Date(from.Year(), from.Month(), from.Day(), hour, minute, 0, 0, loc)
		if !cand.After(from) {
			cand = cand.AddDate(0, 0, 1)
		}
		return cand, nil

	case models.FreqWeekly:
		days := (s.DayOfWeek - int(from.Weekday()) + 7) % 7
		cand := time.Date(from.Year(), from.Month(), from.Day(), hour, minute, 0, 0, loc).
			AddDate(0, 0, days)
		if !cand.After(from) {
			cand = cand.AddDate(0, 0, 7)
		}
		return cand, nil

	case models.FreqMonthly:
		cand := monthlySlot(from.Year(), from.Month(), s.DayOfMonth, hour, minute, loc)
		if !cand.After(from) {
			y, m := from.Year(), from.Month()+1
			cand = monthlySlot(y, m, s.DayOfMonth, hour, minute, loc)
		}
		return cand, nil

	default:
		return time.Time{}, fmt.Errorf("%w: frequency %q", models.ErrInvalidScheduleConfig, s.Frequency)
	}
}

func monthlySlot(year int, month time.Month, day, hour, minute int, loc *time.Location) time.Time {
	if last := lastDayOfMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, hour, minute, 0, 0, loc)
}

func lastDayOfMonth(year int, month time.Month) int {
	// day 0 of the following month
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
