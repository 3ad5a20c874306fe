package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	repo "github.com/chineduogbonna/marketpay/internal/repository"
)

// EscrowReleaser is the one engine operation the sweeper needs.
type EscrowReleaser interface {
	ReleaseEscrowFunds(ctx context.Context, id string) error
}

// EscrowSweeper periodically releases held escrows whose auto-release date has
// elapsed or where a party has confirmed. The original data model carried
// auto_release_date with nothing enforcing it; this is the enforcing process.
type EscrowSweeper struct {
	escrows  repo.Escrows
	releaser EscrowReleaser
	interval time.Duration
	limit    int

	running atomic.Bool
	stop    chan struct{}
	done    chan struct{}
	now     func() time.Time
}

func NewEscrowSweeper(escrows repo.Escrows, releaser EscrowReleaser, interval time.Duration) *EscrowSweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &EscrowSweeper{
		escrows:  escrows,
		releaser: releaser,
		interval: interval,
		limit:    100,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		now:      time.Now,
	}
}

func (s *EscrowSweeper) Start(ctx context.Context) {
	go func() {
		defer close(s.done)
		t := time.NewTicker(s.interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case <-t.C:
				s.Sweep(ctx)
			}
		}
	}()
}

func (s *EscrowSweeper) Stop() {
	close(s.stop)
	<-s.done
}

// Sweep releases everything currently due. Per-item failures are isolated;
// a release that loses the status race to a concurrent manual release is not
// an error worth more than a debug line.
func (s *EscrowSweeper) Sweep(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		return
	}
	defer s.running.Store(false)

	due, err := s.escrows.ListDueForRelease(ctx, s.now(), s.limit)
	if err != nil {
		slog.Error("escrow sweep: list due", "err", err)
		return
	}
	for _, e := range due {
		if err := s.releaser.ReleaseEscrowFunds(ctx, e.ID); err != nil {
			slog.Debug("escrow sweep: release", "escrow_id", e.ID, "err", err)
		}
	}
}
