package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/autopublish/pkg/config"
)

// Run outcomes for RecordRun.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// Collector owns the registry and every metric the autopublisher exports.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	scan *ScanMetrics
	http *HTTPMetrics
}

// NewCollector creates a collector and registers its metrics. If registry is
// nil a fresh one is created, so collectors in tests do not collide.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if cfg == nil {
		cfg = &config.MetricsConfig{Enabled: true}
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	return &Collector{
		config:   cfg,
		registry: registry,
		scan:     NewScanMetrics(cfg.Namespace, registry),
		http:     NewHTTPMetrics(cfg.Namespace, registry),
	}
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordRun records a finished scan.
func (c *Collector) RecordRun(status string, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.scan.runsTotal.WithLabelValues(status).Inc()
	if status != StatusSkipped {
		c.scan.runDuration.Observe(duration.Seconds())
		c.scan.lastRun.SetToCurrentTime()
	}
}

// RecordPhase records the counts of one publish or retract phase.
func (c *Collector) RecordPhase(phase string, found, affected, failed int) {
	if !c.enabled() {
		return
	}
	c.scan.itemsFound.WithLabelValues(phase).Add(float64(found))
	c.scan.itemsTransitioned.WithLabelValues(phase).Add(float64(affected))
	c.scan.transitionFailures.WithLabelValues(phase).Add(float64(failed))
}

// RecordMail records an audit mail attempt.
func (c *Collector) RecordMail(status string) {
	if !c.enabled() {
		return
	}
	c.scan.mailsTotal.WithLabelValues(status).Inc()
}

// RecordExpirationSet records an expiration date set by a transition.
func (c *Collector) RecordExpirationSet(transition string) {
	if !c.enabled() {
		return
	}
	c.scan.expirationsSet.WithLabelValues(transition).Inc()
}

// RecordHTTPRequest records a served admin API request.
func (c *Collector) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.http.requestsTotal.WithLabelValues(method, route, status).Inc()
	c.http.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Registry returns the Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
