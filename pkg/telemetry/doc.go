// Package telemetry bundles the autopublisher's observability.
//
// # Components
//
//   - logging: slog setup with credential redaction
//   - metrics: Prometheus scan and admin API metrics
//   - tracing: OpenTelemetry spans per scan and per request
//   - health: liveness, readiness and version endpoints
//
// # Usage
//
//	cfg := config.GetConfig()
//	tel, err := telemetry.New(&cfg.Telemetry, health.VersionInfo{Version: version.Version})
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	slog.SetDefault(tel.Logger())
//	tel.Metrics().RecordRun(metrics.StatusSuccess, time.Second)
//
//	ctx, span := tel.Tracer().Start(ctx, "autopublish.run")
//	defer span.End()
package telemetry
