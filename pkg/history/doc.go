// Package history records autopublishing runs.
//
// Each scan produces a Record with its counts, the audit text and any error.
// Records are kept in SQLite (modernc.org/sqlite, no cgo) or in memory and
// pruned on a schedule by the autopublish scheduler.
package history
