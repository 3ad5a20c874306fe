package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chineduogbonna/marketpay/internal/models"
	"github.com/chineduogbonna/marketpay/internal/repository/memory"
)

func newScheduleService(t *testing.T) (*ScheduleService, *memory.Stores) {
	t.Helper()
	stores := memory.NewStores()
	stores.Plans.Put(models.DataPlan{ID: "mtn-1gb", Network: "mtn", Name: "1GB Monthly", Amount: 1000})
	return NewScheduleService(stores.Schedules, stores.Wallets, stores.Plans), stores
}

func strptr(s string) *string { return &s }

func TestCreateScheduleComputesNextRun(t *testing.T) {
	svc, _ := newScheduleService(t)

	sched, err := svc.Create(context.Background(), CreateScheduleInput{
		UserID:      "u1",
		ServiceType: models.ServiceData,
		PlanID:      strptr("mtn-1gb"),
		PhoneNumber: "08031234567",
		Frequency:   models.FreqDaily,
		TimeOfDay:   "09:00",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sched.Status != models.ScheduleActive {
		t.Fatalf("expected active, got %s", sched.Status)
	}
	if sched.NextRunAt.IsZero() || !sched.NextRunAt.After(time.Now()) {
		t.Fatalf("expected next_run_at in the future, got %v", sched.NextRunAt)
	}
	if h, m := sched.NextRunAt.Hour(), sched.NextRunAt.Minute(); h != 9 || m != 0 {
		t.Fatalf("expected 09:00 slot, got %02d:%02d", h, m)
	}
}

func TestCreateScheduleValidation(t *testing.T) {
	svc, _ := newScheduleService(t)
	ctx := context.Background()

	base := CreateScheduleInput{
		UserID:      "u1",
		ServiceType: models.ServiceAirtime,
		Amount:      500,
		PhoneNumber: "08031234567",
		Frequency:   models.FreqDaily,
		TimeOfDay:   "09:00",
	}

	cases := []struct {
		name    string
		mutate  func(*CreateScheduleInput)
		wantErr error
	}{
		{"missing user", func(in *CreateScheduleInput) { in.UserID = "" }, models.ErrInvalidScheduleConfig},
		{"bad time", func(in *CreateScheduleInput) { in.TimeOfDay = "25:00" }, models.ErrInvalidScheduleConfig},
		{"unknown prefix", func(in *CreateScheduleInput) { in.PhoneNumber = "01234567890" }, models.ErrNetworkDetectionFailed},
		{"airtime zero amount", func(in *CreateScheduleInput) { in.Amount = 0 }, models.ErrInvalidScheduleConfig},
		{"data without plan", func(in *CreateScheduleInput) {
			in.ServiceType = models.ServiceData
			in.PlanID = nil
		}, models.ErrInvalidScheduleConfig},
		{"data with unknown plan", func(in *CreateScheduleInput) {
			in.ServiceType = models.ServiceData
			in.PlanID = strptr("nope")
		}, models.ErrPlanNotFound},
		{"weekly day out of range", func(in *CreateScheduleInput) {
			in.Frequency = models.FreqWeekly
			in.DayOfWeek = 7
		}, models.ErrInvalidScheduleConfig},
		{"monthly day out of range", func(in *CreateScheduleInput) {
			in.Frequency = models.FreqMonthly
			in.DayOfMonth = 32
		}, models.ErrInvalidScheduleConfig},
		{"bad frequency", func(in *CreateScheduleInput) { in.Frequency = "hourly" }, models.ErrInvalidScheduleConfig},
	}

	for _, c := range cases {
		in := base
		c.mutate(&in)
		if _, err := svc.Create(ctx, in); !errors.Is(err, c.wantErr) {
			t.Fatalf("%s: expected %v, got %v", c.name, c.wantErr, err)
		}
	}
}

func TestPauseAndResumeKeepsCadence(t *testing.T) {
	svc, stores := newScheduleService(t)
	ctx := context.Background()

	sched, err := svc.Create(ctx, CreateScheduleInput{
		UserID:      "u1",
		ServiceType: models.ServiceAirtime,
		Amount:      500,
		PhoneNumber: "08031234567",
		Frequency:   models.FreqDaily,
		TimeOfDay:   "09:00",
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Pause(ctx, sched.ID, "insufficient funds"); err != nil {
		t.Fatal(err)
	}
	got, _ := svc.Get(ctx, sched.ID)
	if got.Status != models.SchedulePaused || got.PauseReason != "insufficient funds" {
		t.Fatalf("expected paused with reason, got %+v", got)
	}

	// paused schedules are never due
	due, _ := stores.Schedules.ListDue(ctx, got.NextRunAt.Add(time.Hour))
	if len(due) != 0 {
		t.Fatalf("paused schedule listed as due")
	}

	if err := svc.Resume(ctx, sched.ID); err != nil {
		t.Fatal(err)
	}
	got, _ = svc.Get(ctx, sched.ID)
	if got.Status != models.ScheduleActive {
		t.Fatalf("expected active after resume, got %s", got.Status)
	}
	if !got.NextRunAt.Equal(sched.NextRunAt) {
		t.Fatalf("resume must keep next_run_at %v, got %v", sched.NextRunAt, got.NextRunAt)
	}
}

func TestListByUser(t *testing.T) {
	svc, _ := newScheduleService(t)
	ctx := context.Background()

	for _, user := range []string{"u1", "u1", "u2"} {
		if _, err := svc.Create(ctx, CreateScheduleInput{
			UserID:      user,
			ServiceType: models.ServiceAirtime,
			Amount:      200,
			PhoneNumber: "08051234567",
			Frequency:   models.FreqDaily,
			TimeOfDay:   "07:00",
		}); err != nil {
			t.Fatal(err)
		}
	}

	list, err := svc.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 schedules for u1, got %d", len(list))
	}
}
