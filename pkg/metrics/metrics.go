// Package metrics exposes the bot's Prometheus counters, served at
// /metrics by the HTTP server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpdatesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bottele",
		Name:      "updates_received_total",
		Help:      "Webhook updates received (including keep-alive pings).",
	})

	UpdatesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bottele",
		Name:      "updates_dropped_total",
		Help:      "Webhook updates dropped by the per-IP rate limiter.",
	})

	Admissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bottele",
		Name:      "admissions_total",
		Help:      "Key requests by admission outcome.",
	}, []string{"outcome"})

	ItemsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bottele",
		Name:      "items_processed_total",
		Help:      "Queue items fully processed by the worker.",
	})

	FilesDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bottele",
		Name:      "files_delivered_total",
		Help:      "Archive files copied to users successfully.",
	})

	FilesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bottele",
		Name:      "files_failed_total",
		Help:      "Archive file copies that failed.",
	})

	Reloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bottele",
		Name:      "reloads_total",
		Help:      "Key table reloads by result.",
	}, []string{"result"})
)

// RegisterQueueDepth exposes the live queue depth as a gauge. Called
// once during app wiring with the queue's Len.
func RegisterQueueDepth(depth func() float64) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "bottele",
		Name:      "queue_depth",
		Help:      "Items currently waiting in the delivery queue.",
	}, depth)
}
