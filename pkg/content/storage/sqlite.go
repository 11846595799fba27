package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"mercator-hq/autopublish/pkg/content"
)

// SQLiteConfig contains configuration for the SQLite catalog.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/catalog.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements content.Catalog using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

const itemColumns = `id, path, title, portal_type, review_state,
	effective_date, expiration_date, enable_autopublishing, modified`

const brainColumns = `id, path, portal_type, review_state,
	effective_idx, expires_idx, enable_autopublishing`

// NewSQLiteStorage opens the catalog database and creates the schema.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.MaxOpenConns <= 0 {
		config.MaxOpenConns = 10
	}
	if config.MaxIdleConns <= 0 {
		config.MaxIdleConns = 5
	}

	logger := slog.Default().With("component", "content.storage.sqlite")

	if config.Path != ":memory:" && !strings.HasPrefix(config.Path, "file:") {
		if err := os.MkdirAll(filepath.Dir(config.Path), 0o755); err != nil {
			return nil, content.NewStorageError("sqlite", "open", err)
		}
	}

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, content.NewStorageError("sqlite", "open", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite catalog initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
	)

	return s, nil
}

// initialize sets pragmas, creates the schema and verifies its version.
func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return content.NewStorageError("sqlite", "enable_wal", err)
		}
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return content.NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return content.NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return content.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return content.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return content.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	return nil
}

// Get loads a single item.
func (s *SQLiteStorage) Get(ctx context.Context, id string) (*content.Item, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+itemColumns+" FROM items WHERE id = ?", id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, content.ErrNotFound
	}
	if err != nil {
		return nil, content.NewStorageError("sqlite", "get", err)
	}
	return item, nil
}

// Put inserts or replaces an item together with its index columns.
func (s *SQLiteStorage) Put(ctx context.Context, item *content.Item) error {
	if err := content.Validate(item); err != nil {
		return err
	}

	modified := item.Modified
	if modified.IsZero() {
		modified = time.Now().UTC()
	}

	query := `
		INSERT INTO items (
			id, path, title, portal_type, review_state,
			effective_date, expiration_date,
			effective_idx, expires_idx,
			enable_autopublishing, modified
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			path = excluded.path,
			title = excluded.title,
			portal_type = excluded.portal_type,
			review_state = excluded.review_state,
			effective_date = excluded.effective_date,
			expiration_date = excluded.expiration_date,
			effective_idx = excluded.effective_idx,
			expires_idx = excluded.expires_idx,
			enable_autopublishing = excluded.enable_autopublishing,
			modified = excluded.modified
	`

	_, err := s.db.ExecContext(ctx, query,
		item.ID, item.Path, item.Title, item.PortalType, item.ReviewState,
		nullableMillis(item.EffectiveDate), nullableMillis(item.ExpirationDate),
		content.IndexedEffective(item).UnixMilli(), content.IndexedExpires(item).UnixMilli(),
		item.EnableAutopublishing, modified.UnixMilli(),
	)
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return content.NewStorageError("sqlite", "put", fmt.Errorf("%w: %s", content.ErrDuplicatePath, item.Path))
	}
	if err != nil {
		return content.NewStorageError("sqlite", "put", err)
	}
	return nil
}

// Delete removes an item.
func (s *SQLiteStorage) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id)
	if err != nil {
		return content.NewStorageError("sqlite", "delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return content.NewStorageError("sqlite", "delete", err)
	}
	if n == 0 {
		return content.ErrNotFound
	}
	return nil
}

// Search runs the query against the index columns.
func (s *SQLiteStorage) Search(ctx context.Context, query *content.Query) ([]*content.Brain, error) {
	if query == nil {
		query = &content.Query{}
	}

	whereClause, args := buildWhereClause(query)
	sqlQuery := "SELECT " + brainColumns + " FROM items"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}
	sqlQuery += " ORDER BY path ASC"
	if query.Limit > 0 {
		sqlQuery += fmt.Sprintf(" LIMIT %d", query.Limit)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, content.NewStorageError("sqlite", "search", err)
	}
	defer rows.Close()

	var brains []*content.Brain
	for rows.Next() {
		var (
			b                  content.Brain
			effective, expires int64
		)
		if err := rows.Scan(&b.ID, &b.Path, &b.PortalType, &b.ReviewState,
			&effective, &expires, &b.EnableAutopublishing); err != nil {
			return nil, content.NewStorageError("sqlite", "search_scan", err)
		}
		b.Effective = time.UnixMilli(effective).UTC()
		b.Expires = time.UnixMilli(expires).UTC()
		brains = append(brains, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, content.NewStorageError("sqlite", "search_rows", err)
	}

	return brains, nil
}

// buildWhereClause translates a query into SQL conditions over index columns.
func buildWhereClause(query *content.Query) (string, []interface{}) {
	var (
		conditions []string
		args       []interface{}
	)

	if len(query.ReviewStates) > 0 {
		conditions = append(conditions, "review_state IN ("+placeholders(len(query.ReviewStates))+")")
		for _, st := range query.ReviewStates {
			args = append(args, st)
		}
	}
	if len(query.PortalTypes) > 0 {
		conditions = append(conditions, "portal_type IN ("+placeholders(len(query.PortalTypes))+")")
		for _, pt := range query.PortalTypes {
			args = append(args, pt)
		}
	}
	if query.EffectiveAt != nil {
		at := query.EffectiveAt.UnixMilli()
		conditions = append(conditions, "effective_idx <= ? AND expires_idx >= ?")
		args = append(args, at, at)
	}
	if query.ExpiresBefore != nil {
		conditions = append(conditions, "expires_idx <= ?")
		args = append(args, query.ExpiresBefore.UnixMilli())
	}
	if query.AutopublishOnly {
		conditions = append(conditions, "enable_autopublishing = 1")
	}
	if query.PathPrefix != "" {
		prefix := strings.TrimSuffix(query.PathPrefix, "/")
		conditions = append(conditions, "(path = ? OR path LIKE ? ESCAPE '\\')")
		args = append(args, prefix, escapeLike(prefix)+"/%")
	}

	return strings.Join(conditions, " AND "), args
}

// List returns all items ordered by path.
func (s *SQLiteStorage) List(ctx context.Context) ([]*content.Item, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+itemColumns+" FROM items ORDER BY path ASC")
	if err != nil {
		return nil, content.NewStorageError("sqlite", "list", err)
	}
	defer rows.Close()

	var items []*content.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, content.NewStorageError("sqlite", "list_scan", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, content.NewStorageError("sqlite", "list_rows", err)
	}
	return items, nil
}

// Indexes reports the catalog indexes present in the database.
func (s *SQLiteStorage) Indexes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = 'items'")
	if err != nil {
		return nil, content.NewStorageError("sqlite", "indexes", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, content.NewStorageError("sqlite", "indexes_scan", err)
		}
		if logical, ok := sqliteIndexNames[name]; ok {
			names = append(names, logical)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, content.NewStorageError("sqlite", "indexes_rows", err)
	}
	sort.Strings(names)
	return names, nil
}

// Ping verifies the database connection.
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return content.NewStorageError("sqlite", "ping", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return content.NewStorageError("sqlite", "close", err)
	}
	s.logger.Debug("SQLite catalog closed")
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (*content.Item, error) {
	var (
		item               content.Item
		effective, expires sql.NullInt64
		modified           int64
	)
	err := row.Scan(&item.ID, &item.Path, &item.Title, &item.PortalType, &item.ReviewState,
		&effective, &expires, &item.EnableAutopublishing, &modified)
	if err != nil {
		return nil, err
	}
	item.EffectiveDate = fromNullMillis(effective)
	item.ExpirationDate = fromNullMillis(expires)
	item.Modified = time.UnixMilli(modified).UTC()
	return &item, nil
}

func nullableMillis(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

func fromNullMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64).UTC()
	return &t
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
