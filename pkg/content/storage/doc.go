// Package storage provides catalog backends.
//
// # Backends
//
//   - MemoryStorage: map-backed catalog for tests and development
//   - SQLiteStorage: durable catalog on SQLite (mattn/go-sqlite3)
//
// Both backends keep the real, nullable item dates apart from the indexed,
// always-populated ones. The SQLite schema stores effective_date and
// expiration_date as nullable columns next to the effective_idx and
// expires_idx columns that searches run against.
//
// # Usage
//
//	catalog, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
//	    Path:    "data/catalog.db",
//	    WALMode: true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer catalog.Close()
package storage
