// Package tracing provides OpenTelemetry tracing for scans and the admin API.
//
// Every scan opens an "autopublish.run" span with one child span per phase.
// Admin API requests continue any W3C trace context sent by the caller.
// Spans are exported over OTLP gRPC when telemetry.tracing.enabled is set;
// otherwise a no-op tracer is used.
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "autopublish.run")
//	defer span.End()
package tracing
