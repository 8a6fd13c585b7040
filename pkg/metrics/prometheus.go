package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	providerRequests *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
	symbolsScanned   *prometheus.CounterVec
	scanDuration     prometheus.Histogram
	snapshotsRouted  *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		providerRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bdrscan_provider_requests_total",
				Help: "Total number of upstream provider requests",
			},
			[]string{"provider", "result"},
		),
		cacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bdrscan_cache_hits_total",
				Help: "Total number of cache hits per provider",
			},
			[]string{"provider"},
		),
		symbolsScanned: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bdrscan_symbols_scanned_total",
				Help: "Total number of symbols scanned",
			},
			[]string{"result"},
		),
		scanDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bdrscan_scan_duration_seconds",
				Help:    "Duration of full analysis scans in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
		),
		snapshotsRouted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bdrscan_snapshots_routed_total",
				Help: "Total number of snapshots routed to a sink backend",
			},
			[]string{"backend"},
		),
	}
}

// RecordProviderRequest records one upstream request and its result.
func (r *Recorder) RecordProviderRequest(provider, result string) {
	r.providerRequests.WithLabelValues(provider, result).Inc()
}

// RecordCacheHit records a memoized fetch that skipped the provider.
func (r *Recorder) RecordCacheHit(provider string) {
	r.cacheHits.WithLabelValues(provider).Inc()
}

// RecordSymbolScanned records a per-symbol scan outcome.
func (r *Recorder) RecordSymbolScanned(result string) {
	r.symbolsScanned.WithLabelValues(result).Inc()
}

// RecordScanDuration records how long a full scan took.
func (r *Recorder) RecordScanDuration(seconds float64) {
	r.scanDuration.Observe(seconds)
}

// RecordSnapshotsRouted records snapshots delivered to a sink.
func (r *Recorder) RecordSnapshotsRouted(backend string, n int) {
	r.snapshotsRouted.WithLabelValues(backend).Add(float64(n))
}
