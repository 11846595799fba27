// Package server provides the admin HTTP API of the autopublisher.
//
// The server exposes liveness, readiness and version probes, Prometheus
// metrics, read and write access to catalog items, manual workflow
// transitions and on-demand scan runs.
//
// # Routes
//
//	GET  /health                                      liveness
//	GET  /ready                                       readiness (catalog, scheduler)
//	GET  /version                                     build information
//	GET  /metrics                                     Prometheus metrics
//	GET  /v1/items                                    list items (?state=&type=&path=&autopublish=)
//	GET  /v1/items/{id}                               show an item
//	PUT  /v1/items/{id}                               create or replace an item
//	POST /v1/items/{id}/transitions/{transition}      apply a workflow transition
//	POST /v1/runs?dry_run=true                        run a scan now
//	GET  /v1/runs?limit=20                            recent runs
//
// # Authentication
//
// When server.api_tokens (or AUTOPUBLISH_SERVER_API_TOKEN) is set, the /v1
// routes require "Authorization: Bearer <token>" or an X-API-Key header.
// Probes and metrics stay open.
//
// # Middleware
//
// Requests pass through, outermost first: panic recovery, request ID,
// tracing, access logging and per-route metrics.
//
// # Basic Usage
//
//	srv := server.NewServer(&cfg.Server, server.Deps{
//	    Catalog:   catalog,
//	    Engine:    engine,
//	    Runner:    scheduler,
//	    History:   store,
//	    Telemetry: tel,
//	})
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Start blocks until ctx is cancelled and then shuts down gracefully within
// the configured shutdown timeout.
package server
