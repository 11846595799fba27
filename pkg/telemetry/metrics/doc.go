// Package metrics provides Prometheus metrics for the autopublisher.
//
// # Metrics
//
//   - autopublish_runs_total{status}: scans by outcome (success, error, skipped)
//   - autopublish_run_duration_seconds: scan duration histogram
//   - autopublish_last_run_timestamp_seconds: when the last scan finished
//   - autopublish_items_found_total{phase}: candidates that passed the date check
//   - autopublish_items_transitioned_total{phase}: candidates actually transitioned
//   - autopublish_transition_failures_total{phase}: transitions the workflow refused
//   - autopublish_mails_total{status}: audit mails by outcome
//   - autopublish_expirations_set_total{transition}: expiration dates set on retract
//   - autopublish_http_requests_total{method,route,status}: admin API requests
//   - autopublish_http_request_duration_seconds{method,route}: admin API latency
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RecordRun("success", time.Since(start))
//	http.Handle("/metrics", collector.Handler())
//
// A nil *Collector, or one built from a disabled config, records nothing.
package metrics
