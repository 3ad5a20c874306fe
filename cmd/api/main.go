package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chineduogbonna/marketpay/internal/api"
	"github.com/chineduogbonna/marketpay/internal/config"
	"github.com/chineduogbonna/marketpay/internal/db"
	"github.com/chineduogbonna/marketpay/internal/logger"
	"github.com/chineduogbonna/marketpay/internal/metrics"
	"github.com/chineduogbonna/marketpay/internal/notify"
	"github.com/chineduogbonna/marketpay/internal/provider"
	"github.com/chineduogbonna/marketpay/internal/repository/postgres"
	"github.com/chineduogbonna/marketpay/internal/scheduler"
	"github.com/chineduogbonna/marketpay/internal/services"
	"github.com/chineduogbonna/marketpay/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if os.Getenv("APP_MIGRATE") == "true" {
		if err := db.RunMigrations(ctx, pool); err != nil {
			log.Error("migrations", "err", err)
			os.Exit(1)
		}
	}

	metrics.Init()

	repos := postgres.NewRepositories(pool)
	wp := worker.NewPool(4)
	defer wp.Stop()

	var base notify.Notifier = notify.LogNotifier{}
	if cfg.NatsURL != "" {
		nn, err := notify.NewNatsNotifier(cfg.NatsURL)
		if err != nil {
			log.Error("nats connect", "err", err)
			os.Exit(1)
		}
		defer nn.Close()
		base = nn
	}
	notifier := notify.NewService(base, wp)

	purchaseClient := provider.NewClient(cfg.ProviderBaseURL, cfg.ProviderTimeout)
	trustClient := provider.NewTrustClient(cfg.TrustBaseURL, cfg.ProviderTimeout)

	walletSvc := services.NewWalletService(repos.Wallets, repos.Ledger, cfg.WelcomeBonus)
	escrowSvc := services.NewEscrowService(repos.Wallets, repos.Escrows, repos.Ledger, trustClient, cfg.EscrowHoldDays)
	scheduleSvc := services.NewScheduleService(repos.Schedules, repos.Wallets, repos.Plans)

	runner := scheduler.NewRunner(repos.Schedules, repos.Wallets, repos.Ledger, repos.Plans,
		purchaseClient, notifier, scheduler.RunnerConfig{
			Interval:   cfg.SchedulerInterval,
			BatchSize:  cfg.SchedulerBatchSize,
			BatchPause: cfg.SchedulerPause,
		})
	runner.Start(ctx)
	defer runner.Stop()

	sweeper := scheduler.NewEscrowSweeper(repos.Escrows, escrowSvc, cfg.SweepInterval)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	r := api.NewRouter(cfg, walletSvc, escrowSvc, scheduleSvc)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
