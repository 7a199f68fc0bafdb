package promclient

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// ResyncTotal counts sequence-gap resynchronizations per symbol. A
	// steadily climbing value is the health signal for a degraded feed.
	ResyncTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderbook_resync_total",
			Help: "number of order book resynchronizations triggered by sequence gaps",
		},
		[]string{"symbol"},
	)

	UpdatesApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderbook_updates_applied_total",
			Help: "depth updates applied to the order book",
		},
		[]string{"symbol"},
	)

	UpdatesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderbook_updates_dropped_total",
			Help: "depth updates dropped (stale, gap or malformed)",
		},
		[]string{"symbol", "reason"},
	)

	// UpdateApplyDuration times one pass through the synchronizer,
	// validation and book mutation included. Buckets span the expected
	// hot-path microseconds up through occasional snapshot bootstraps.
	UpdateApplyDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orderbook_update_apply_duration_seconds",
			Help:    "time spent processing one depth update",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
		},
		[]string{"symbol"},
	)

	SnapshotFetchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderbook_snapshot_fetch_failures_total",
			Help: "failed snapshot fetch attempts during bootstrap",
		},
		[]string{"symbol"},
	)

	BookLevels = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "orderbook_levels",
			Help: "distinct resting price levels per side",
		},
		[]string{"symbol", "side"},
	)
)

// StartPromClientServer serves /metrics on addr. Blocks; run it in its own
// goroutine.
func StartPromClientServer(addr string, log zerolog.Logger) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		ResyncTotal,
		UpdatesApplied,
		UpdatesDropped,
		UpdateApplyDuration,
		SnapshotFetchFailures,
		BookLevels,
		collectors.NewGoCollector(),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	log.Info().Str("addr", addr).Msg("prometheus metrics listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error().Err(err).Msg("metrics server stopped")
	}
}
