package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder records domain-level metrics: ingest activity, store errors,
// provider failovers, and the last seen TAO price.
type Recorder struct {
	snapshotsIngested *prometheus.CounterVec
	storeErrors       *prometheus.CounterVec
	providerFailovers *prometheus.CounterVec
	lastPrice         prometheus.Gauge
	latency           *prometheus.HistogramVec
}

// New creates a Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		snapshotsIngested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taometrics_snapshots_ingested_total",
				Help: "Snapshot refresh messages written to the KV store",
			},
			[]string{"key"},
		),
		storeErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taometrics_store_errors_total",
				Help: "KV store errors by kind",
			},
			[]string{"kind"},
		),
		providerFailovers: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taometrics_provider_failovers_total",
				Help: "Upstream provider failovers to the backup credential",
			},
			[]string{"provider"},
		),
		lastPrice: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "taometrics_tao_price_usd",
				Help: "Last observed TAO price in USD",
			},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taometrics_operation_duration_seconds",
				Help:    "Duration of internal operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordSnapshotIngested counts one snapshot write for a KV key.
func (r *Recorder) RecordSnapshotIngested(key string) {
	r.snapshotsIngested.WithLabelValues(key).Inc()
}

// RecordStoreError counts a KV error occurrence.
func (r *Recorder) RecordStoreError(kind string) {
	r.storeErrors.WithLabelValues(kind).Inc()
}

// RecordProviderFailover counts a fallback to the backup API key.
func (r *Recorder) RecordProviderFailover(provider string) {
	r.providerFailovers.WithLabelValues(provider).Inc()
}

// RecordLastPrice records the last seen price.
func (r *Recorder) RecordLastPrice(price float64) {
	r.lastPrice.Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
