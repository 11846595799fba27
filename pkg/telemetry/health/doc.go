// Package health provides liveness, readiness and version endpoints.
//
// Readiness runs every registered check concurrently with a per-check
// timeout. The daemon registers checks for the catalog, the history store
// and the scheduler:
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("catalog", health.PingCheck(catalog))
//	checker.RegisterCheck("scheduler", health.RunningCheck("scheduler", sched.IsRunning))
//	checker.Register(mux, health.VersionInfo{Version: version.Version})
package health
