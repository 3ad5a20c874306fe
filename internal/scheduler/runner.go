// Package scheduler owns the periodic jobs: the recurring purchase runner and
// the escrow auto-release sweeper. All run state lives on the instances so
// tests can run several in isolation.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chineduogbonna/marketpay/internal/metrics"
	"github.com/chineduogbonna/marketpay/internal/models"
	"github.com/chineduogbonna/marketpay/internal/notify"
	"github.com/chineduogbonna/marketpay/internal/provider"
	repo "github.com/chineduogbonna/marketpay/internal/repository"
)

type RunnerConfig struct {
	Interval   time.Duration
	BatchSize  int
	BatchPause time.Duration
}

// Runner executes due recurring purchases. One tick at a time: if a tick is
// still in flight when the timer fires, the new tick is skipped outright.
type Runner struct {
	schedules repo.Schedules
	wallets   repo.Wallets
	ledger    repo.Ledger
	plans     repo.Plans
	purchase  provider.PurchaseClient
	notifier  notify.Notifier
	cfg       RunnerConfig

	running atomic.Bool
	stop    chan struct{}
	done    chan struct{}
	now     func() time.Time
}

func NewRunner(
	schedules repo.Schedules,
	wallets repo.Wallets,
	ledger repo.Ledger,
	plans repo.Plans,
	purchase provider.PurchaseClient,
	notifier notify.Notifier,
	cfg RunnerConfig,
) *Runner {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	return &Runner{
		schedules: schedules,
		wallets:   wallets,
		ledger:    ledger,
		plans:     plans,
		purchase:  purchase,
		notifier:  notifier,
		cfg:       cfg,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		now:       time.Now,
	}
}

func (r *Runner) Start(ctx context.Context) {
	go func() {
		defer close(r.done)
		t := time.NewTicker(r.cfg.Interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stop:
				return
			case <-t.C:
				r.Tick(ctx)
			}
		}
	}()
}

func (r *Runner) Stop() {
	close(r.stop)
	<-r.done
}

// Tick runs one polling cycle. Safe to call directly; concurrent calls beyond
// the first are no-ops.
func (r *Runner) Tick(ctx context.Context) {
	if !r.running.CompareAndSwap(false, true) {
		metrics.SchedulerSkippedTicks.Inc()
		return
	}
	defer r.running.Store(false)

	now := r.now()
	due, err := r.schedules.ListDue(ctx, now)
	if err != nil {
		slog.Error("scheduler: list due", "err", err)
		return
	}

	for start := 0; start < len(due); start += r.cfg.BatchSize {
		end := start + r.cfg.BatchSize
		if end > len(due) {
			end = len(due)
		}

		var wg sync.WaitGroup
		for _, s := range due[start:end] {
			wg.Add(1)
			go func(s models.ScheduledPurchase) {
				defer wg.Done()
				defer func() {
					if rec := recover(); rec != nil {
						metrics.ScheduleExecutions.WithLabelValues("error").Inc()
						slog.Error("scheduler: execution panic", "schedule_id", s.ID, "err", rec)
					}
				}()
				r.execute(ctx, s)
			}(s)
		}
		wg.Wait()

		if end < len(due) && r.cfg.BatchPause > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(r.cfg.BatchPause):
			}
		}
	}

	metrics.SchedulerTicks.Inc()
}

// execute settles exactly one due schedule: it either succeeds and
// reschedules, or fails and is paused/refunded. Never retried mid-cycle, and a
// failure here must not leak to the rest of the batch.
func (r *Runner) execute(ctx context.Context, s models.ScheduledPurchase) {
	cost, planID, err := r.resolveCost(ctx, s)
	if err != nil {
		r.pauseWithReason(ctx, s, fmt.Sprintf("configuration problem: %v", err))
		metrics.ScheduleExecutions.WithLabelValues("error").Inc()
		return
	}

	network, err := provider.DetectNetwork(s.PhoneNumber)
	if err != nil {
		r.pauseWithReason(ctx, s, "could not detect network for "+s.PhoneNumber)
		metrics.ScheduleExecutions.WithLabelValues("error").Inc()
		return
	}

	// Debit first. Insufficient funds pauses the schedule and leaves
	// next_run_at untouched, so a resume picks the cadence back up.
	if _, err := r.wallets.Debit(ctx, s.UserID, cost); err != nil {
		if errors.Is(err, models.ErrInsufficientFunds) {
			r.pauseWithReason(ctx, s, "insufficient balance for scheduled purchase")
			metrics.ScheduleExecutions.WithLabelValues("insufficient_funds").Inc()
			return
		}
		slog.Error("scheduler: debit", "schedule_id", s.ID, "err", err)
		metrics.ScheduleExecutions.WithLabelValues("error").Inc()
		return
	}

	entry, err := r.ledger.Append(ctx, models.LedgerEntry{
		WalletID:    s.UserID,
		Type:        models.LedgerPurchase,
		Direction:   models.DirectionDebit,
		Amount:      cost,
		Description: fmt.Sprintf("scheduled %s purchase for %s", s.ServiceType, s.PhoneNumber),
		Status:      models.LedgerPending,
	})
	if err != nil {
		// without a ledger record the debit must not stand and the provider
		// must not be dialed; next_run_at stays put so the next tick retries
		slog.Error("scheduler: ledger append", "schedule_id", s.ID, "err", err)
		if _, cerr := r.wallets.Credit(ctx, s.UserID, cost); cerr != nil {
			metrics.ReconciliationAlerts.Inc()
			slog.Error("scheduler: RECONCILIATION ALERT: refund after ledger failure did not apply",
				"schedule_id", s.ID, "user_id", s.UserID, "amount", cost, "err", cerr)
		}
		metrics.ScheduleExecutions.WithLabelValues("error").Inc()
		_ = r.notifier.Notify(ctx, s.UserID, "Scheduled purchase failed",
			fmt.Sprintf("Your %s purchase for %s could not be recorded. You have been refunded.", s.ServiceType, s.PhoneNumber), "")
		return
	}

	res, err := r.purchase.Purchase(ctx, provider.PurchaseRequest{
		ServiceType: string(s.ServiceType),
		Network:     network,
		PhoneNumber: s.PhoneNumber,
		PlanID:      planID,
		Amount:      cost,
		Reference:   entry.ID,
	})
	if err != nil || !res.Success {
		r.settleFailure(ctx, s, entry.ID, cost, res.Message, err)
		return
	}

	r.settleSuccess(ctx, s, entry.ID, cost)
}

func (r *Runner) resolveCost(ctx context.Context, s models.ScheduledPurchase) (int64, string, error) {
	if s.ServiceType == models.ServiceData {
		if s.PlanID == nil {
			return 0, "", models.ErrPlanNotFound
		}
		plan, err := r.plans.GetByID(ctx, *s.PlanID)
		if err != nil {
			return 0, "", err
		}
		return plan.Amount, plan.ID, nil
	}
	if s.Amount <= 0 {
		return 0, "", models.ErrInvalidScheduleConfig
	}
	return s.Amount, "", nil
}

func (r *Runner) settleSuccess(ctx context.Context, s models.ScheduledPurchase, entryID string, cost int64) {
	if err := r.ledger.UpdateStatus(ctx, entryID, models.LedgerCompleted); err != nil {
		slog.Error("scheduler: complete ledger entry", "entry_id", entryID, "err", err)
	}

	now := r.now()
	next, err := NextRun(now, s)
	if err != nil {
		// cadence config went bad after creation; stop the schedule rather
		// than looping on it
		r.pauseWithReason(ctx, s, fmt.Sprintf("cadence problem: %v", err))
		return
	}
	if err := r.schedules.MarkRun(ctx, s.ID, now, next); err != nil {
		slog.Error("scheduler: mark run", "schedule_id", s.ID, "err", err)
	}

	metrics.ScheduleExecutions.WithLabelValues("success").Inc()
	_ = r.notifier.Notify(ctx, s.UserID, "Scheduled purchase successful",
		fmt.Sprintf("Your %s purchase of %d for %s went through.", s.ServiceType, cost, s.PhoneNumber), "")
}

// settleFailure refunds the full debited amount before the user hears about
// the failure. A failed refund is the one unrecoverable case: it is debited
// money with no owner, so it is surfaced loudly instead of swallowed.
func (r *Runner) settleFailure(ctx context.Context, s models.ScheduledPurchase, entryID string, cost int64, providerMsg string, callErr error) {
	if _, err := r.wallets.Credit(ctx, s.UserID, cost); err != nil {
		metrics.ReconciliationAlerts.Inc()
		slog.Error("scheduler: RECONCILIATION ALERT: refund after provider failure did not apply",
			"schedule_id", s.ID, "user_id", s.UserID, "amount", cost, "entry_id", entryID, "err", err)
	}
	if err := r.ledger.UpdateStatus(ctx, entryID, models.LedgerFailed); err != nil {
		slog.Error("scheduler: fail ledger entry", "entry_id", entryID, "err", err)
	}

	// Skip this cycle: next_run_at advances to the next cadence slot so a
	// broken provider is not redialed every tick.
	if next, err := NextRun(r.now(), s); err == nil {
		if err := r.schedules.AdvanceNextRun(ctx, s.ID, next); err != nil {
			slog.Error("scheduler: advance next run", "schedule_id", s.ID, "err", err)
		}
	}

	msg := providerMsg
	if msg == "" && callErr != nil {
		msg = callErr.Error()
	}
	metrics.ScheduleExecutions.WithLabelValues("provider_failed").Inc()
	_ = r.notifier.Notify(ctx, s.UserID, "Scheduled purchase failed",
		fmt.Sprintf("Your %s purchase for %s failed: %s. You have been refunded.", s.ServiceType, s.PhoneNumber, msg), "")
}

func (r *Runner) pauseWithReason(ctx context.Context, s models.ScheduledPurchase, reason string) {
	if err := r.schedules.Pause(ctx, s.ID, reason); err != nil {
		slog.Error("scheduler: pause", "schedule_id", s.ID, "err", err)
	}
	_ = r.notifier.Notify(ctx, s.UserID, "Scheduled purchase paused", reason, "")
}
