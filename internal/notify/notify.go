// Package notify delivers user notifications. Delivery is fire-and-forget:
// failures are logged, never allowed to abort a wallet or ledger operation.
package notify

import (
	"context"
	"log/slog"

	"github.com/chineduogbonna/marketpay/internal/worker"
)

type Notifier interface {
	Notify(ctx context.Context, userID, title, message, link string) error
}

// LogNotifier is the dev-mode fallback when no bus is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, userID, title, message, link string) error {
	slog.Info("notify", "user_id", userID, "title", title, "message", message, "link", link)
	return nil
}

// Service pushes deliveries onto the worker pool so callers never block on the
// notifier backend.
type Service struct {
	n  Notifier
	wp *worker.Pool
}

func NewService(n Notifier, wp *worker.Pool) *Service {
	return &Service{n: n, wp: wp}
}

func (s *Service) Notify(_ context.Context, userID, title, message, link string) error {
	s.wp.Submit(func() {
		if err := s.n.Notify(context.Background(), userID, title, message, link); err != nil {
			slog.Error("notification delivery", "user_id", userID, "title", title, "err", err)
		}
	})
	return nil
}
