// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts requests by route, method and status code
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fivem_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"route", "method", "code"})

	// HTTPDuration observes request latency by route and method
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fivem_http_request_duration_seconds",
		Help:    "Histogram of response latency (seconds) for HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	// Spins counts completed spins by prize type
	Spins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fivem_spins_total",
		Help: "Completed spin wheel spins",
	}, []string{"prize_type"})

	// CoinsAwarded sums coins created by rewards, by source
	CoinsAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fivem_coins_awarded_total",
		Help: "Coins granted by daily rewards, spins and admins",
	}, []string{"source"})

	// Downloads counts issued download grants
	Downloads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fivem_download_grants_total",
		Help: "Download grants issued",
	})

	// AutoBans counts accounts banned automatically
	AutoBans = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fivem_autobans_total",
		Help: "Accounts banned by the auto-ban rules",
	}, []string{"rule"})

	// SocketsOpen is the number of open realtime sockets
	SocketsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fivem_realtime_sockets",
		Help: "Open realtime websocket connections",
	})
)
