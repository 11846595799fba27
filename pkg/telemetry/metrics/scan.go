package metrics

import "github.com/prometheus/client_golang/prometheus"

// ScanMetrics tracks scan runs and their outcomes.
type ScanMetrics struct {
	runsTotal          *prometheus.CounterVec
	runDuration        prometheus.Histogram
	lastRun            prometheus.Gauge
	itemsFound         *prometheus.CounterVec
	itemsTransitioned  *prometheus.CounterVec
	transitionFailures *prometheus.CounterVec
	mailsTotal         *prometheus.CounterVec
	expirationsSet     *prometheus.CounterVec
}

// NewScanMetrics creates and registers scan metrics.
func NewScanMetrics(namespace string, registry *prometheus.Registry) *ScanMetrics {
	sm := &ScanMetrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of autopublishing scans by outcome",
			},
			[]string{"status"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of autopublishing scans in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
			},
		),
		lastRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the last scan finished",
			},
		),
		itemsFound: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "items_found_total",
				Help:      "Items whose dates qualified them for a transition",
			},
			[]string{"phase"},
		),
		itemsTransitioned: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "items_transitioned_total",
				Help:      "Items transitioned by the autopublisher",
			},
			[]string{"phase"},
		),
		transitionFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transition_failures_total",
				Help:      "Transitions the workflow refused",
			},
			[]string{"phase"},
		),
		mailsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mails_total",
				Help:      "Audit mails by outcome",
			},
			[]string{"status"},
		),
		expirationsSet: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "expirations_set_total",
				Help:      "Expiration dates set when an item was retracted or rejected",
			},
			[]string{"transition"},
		),
	}

	registry.MustRegister(
		sm.runsTotal,
		sm.runDuration,
		sm.lastRun,
		sm.itemsFound,
		sm.itemsTransitioned,
		sm.transitionFailures,
		sm.mailsTotal,
		sm.expirationsSet,
	)

	return sm
}
