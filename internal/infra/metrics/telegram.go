package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(telegramRequestsTotal, telegramRequestLatencyMs, updatesTotal, floodLimitedTotal) }

var telegramRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "telegram_requests_total",
		Help: "Outbound Telegram API calls by method and outcome kind.",
	},
	[]string{"method", "kind"}, // kind="ok" or the classified error kind
)

var telegramRequestLatencyMs = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "telegram_request_latency_ms",
		Help:    "Telegram API call latency distribution in milliseconds.",
		Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
	},
	[]string{"method"},
)

var updatesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "updates_total",
		Help: "Incoming updates by payload kind.",
	},
	[]string{"kind"}, // 'message', 'callback', 'edited', ...
)

var floodLimitedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "flood_limited_total",
		Help: "Updates dropped by the per-sender flood limiter.",
	},
)

func ObserveTelegramRequest(method, kind string, start time.Time) {
	telegramRequestsTotal.WithLabelValues(norm(method), norm(kind)).Inc()
	telegramRequestLatencyMs.WithLabelValues(norm(method)).Observe(float64(time.Since(start).Milliseconds()))
}

func IncUpdate(kind string) {
	updatesTotal.WithLabelValues(norm(kind)).Inc()
}

func IncFloodLimited() { floodLimitedTotal.Inc() }
