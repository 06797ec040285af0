package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// ImagesProcessedTotal counts analyzed images by analysis status.
	ImagesProcessedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "thermal",
		Subsystem: "pipeline",
		Name:      "images_processed_total",
		Help:      "Total number of thermal images analyzed, labeled by analysis status.",
	}, []string{"status"})

	// ProcessingDurationSeconds is end-to-end time per image, measured inside the pipeline.
	ProcessingDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "thermal",
		Subsystem: "pipeline",
		Name:      "processing_duration_seconds",
		Help:      "End-to-end time to analyze one thermal image (extraction through persistence).",
		// Keep buckets fairly coarse to avoid high-cardinality time series.
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 60},
	}, []string{"status"})

	// FaultLevelTotal counts classification outcomes by fault level.
	FaultLevelTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "thermal",
		Subsystem: "pipeline",
		Name:      "fault_level_total",
		Help:      "Total number of fault classifications, labeled by level.",
	}, []string{"level"})

	// BatchWorkerInFlight is the current number of images being processed by batch workers.
	BatchWorkerInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "thermal",
		Subsystem: "pipeline",
		Name:      "batch_worker_in_flight",
		Help:      "Current number of batch images being processed by worker goroutines.",
	})

	// BatchDurationSeconds is wall-clock time per batch run.
	BatchDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "thermal",
		Subsystem: "pipeline",
		Name:      "batch_duration_seconds",
		Help:      "Wall-clock time to process one batch of thermal images.",
		Buckets:   []float64{1, 2, 5, 10, 30, 60, 120, 300, 600},
	})

	// AmbientFallbackTotal counts reports that fell back to the nominal ambient constant.
	AmbientFallbackTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "thermal",
		Subsystem: "pipeline",
		Name:      "ambient_fallback_total",
		Help:      "Total number of reports classified against the nominal ambient constant because the weather service was unavailable.",
	})

	// NarrativeFallbackTotal counts narratives served by the rule-based generator.
	NarrativeFallbackTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "thermal",
		Subsystem: "pipeline",
		Name:      "narrative_fallback_total",
		Help:      "Total number of narratives produced by the rule-based fallback instead of the llm provider, labeled by mode.",
	}, []string{"mode"})

	// CriticalAlertsTotal counts critical alert emails handed to the notifier.
	CriticalAlertsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "thermal",
		Subsystem: "pipeline",
		Name:      "critical_alerts_total",
		Help:      "Total number of critical alert emails handed to the notifier.",
	})

	// EmailParkedTotal counts messages deposited into the outbox after a delivery failure.
	EmailParkedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "thermal",
		Subsystem: "pipeline",
		Name:      "email_parked_total",
		Help:      "Total number of emails parked in the outbox because delivery failed.",
	})
)

// Register registers pipeline metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			ImagesProcessedTotal,
			ProcessingDurationSeconds,
			FaultLevelTotal,
			BatchWorkerInFlight,
			BatchDurationSeconds,
			AmbientFallbackTotal,
			NarrativeFallbackTotal,
			CriticalAlertsTotal,
			EmailParkedTotal,
		)
	})
}
