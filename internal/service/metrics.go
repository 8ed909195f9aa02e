package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var messageProcessDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "scamguard_message_duration_sec",
	Help:    "Total duration of inbound message moderation",
	Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
}, []string{"branch"})

var messageProcessCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "scamguard_messages_processed",
	Help: "Number of inbound messages processed",
}, []string{"branch", "outcome", "reason"})

var messagePanicCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "scamguard_message_panics",
	Help: "Number of message handlers which panicked",
})

var actionCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "scamguard_actions",
	Help: "Number of platform actions attempted",
}, []string{"action", "result"})

var classifyAttemptCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "scamguard_classify_attempts",
	Help: "Number of classification attempts by result",
}, []string{"result"})

var classifyAttemptDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "scamguard_classify_attempt_duration_sec",
	Help:    "Duration of single classification attempts",
	Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
})

var ledgerCleanupCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "scamguard_ledger_rows_pruned",
	Help: "Number of ledger rows removed by retention cleanup",
})
