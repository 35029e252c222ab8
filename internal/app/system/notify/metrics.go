// internal/app/system/notify/metrics.go
package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	deliveredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "decisionjar_push_delivered_total",
		Help: "Push notifications delivered successfully.",
	})
	failedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "decisionjar_push_failed_total",
		Help: "Push deliveries that failed for a transient reason.",
	})
	skippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "decisionjar_push_skipped_total",
		Help: "Audience members skipped by preference flags or missing subscriptions.",
	})
	prunedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "decisionjar_push_pruned_total",
		Help: "Subscriptions deleted after the endpoint reported gone.",
	})
)
