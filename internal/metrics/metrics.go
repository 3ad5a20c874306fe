package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_latency_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)

	// Escrow engine
	EscrowTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "escrow_transitions_total",
			Help: "Escrow status transitions",
		},
		[]string{"to"}, // held|disputed|released|refunded
	)
	PlatformFeesCollected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "platform_fees_collected_total",
			Help: "Sum of platform fees deducted at escrow release (minor units)",
		},
	)

	// Scheduler
	SchedulerTicks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scheduler_ticks_total",
			Help: "Completed scheduler ticks",
		},
	)
	SchedulerSkippedTicks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scheduler_skipped_ticks_total",
			Help: "Ticks skipped because a previous tick was still running",
		},
	)
	ScheduleExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedule_executions_total",
			Help: "Scheduled purchase executions by outcome",
		},
		[]string{"outcome"}, // success|provider_failed|insufficient_funds|error
	)

	// Debited-but-unrefunded money. Anything above zero needs manual
	// reconciliation.
	ReconciliationAlerts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reconciliation_alerts_total",
			Help: "Refund-after-failure attempts that themselves failed",
		},
	)

	// Worker queue
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestLatency)
	prometheus.MustRegister(EscrowTransitions)
	prometheus.MustRegister(PlatformFeesCollected)
	prometheus.MustRegister(SchedulerTicks)
	prometheus.MustRegister(SchedulerSkippedTicks)
	prometheus.MustRegister(ScheduleExecutions)
	prometheus.MustRegister(ReconciliationAlerts)
	prometheus.MustRegister(WorkerQueueDepth)
}
