package businessflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	webhookResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_webhook_results_total",
			Help: "Order webhook results by status and message",
		},
		[]string{"status", "message"},
	)

	historyWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_history_write_failures_total",
			Help: "Notifications dispatched to the customer whose history record could not be stored",
		},
	)
)
