package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// SQLite driver names accepted by NewSQLStore.
const (
	DriverCGO  = "sqlite3" // github.com/mattn/go-sqlite3
	DriverPure = "sqlite"  // modernc.org/sqlite
)

// SQLiteConfig configures a SQLite-backed store.
type SQLiteConfig struct {
	// Driver is DriverCGO or DriverPure.
	Driver string

	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables write-ahead logging.
	WALMode bool

	// BusyTimeout is how long to wait on a locked database.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// SQLStore implements Store on SQLite.
type SQLStore struct {
	db     *sql.DB
	config SQLiteConfig
	insert *sql.Stmt
	mu     sync.RWMutex
	closed bool
	logger *slog.Logger
}

// NewSQLStore opens the database, applies pragmas and creates the schema.
func NewSQLStore(cfg SQLiteConfig) (*SQLStore, error) {
	if cfg.Driver != DriverCGO && cfg.Driver != DriverPure {
		return nil, fmt.Errorf("unknown sqlite driver %q", cfg.Driver)
	}
	if cfg.Path == "" {
		return nil, NewStorageError(cfg.Driver, "open", errors.New("path is required"))
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = 10
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = 5
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	logger := slog.Default().With("component", "audit.sqlite", "driver", cfg.Driver)

	db, err := sql.Open(cfg.Driver, dsn(cfg))
	if err != nil {
		return nil, NewStorageError(cfg.Driver, "open", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	s := &SQLStore{db: db, config: cfg, logger: logger}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("audit store initialized",
		"path", cfg.Path,
		"wal_mode", cfg.WALMode,
		"max_open_conns", cfg.MaxOpenConns,
	)
	return s, nil
}

// dsn carries the busy timeout so every pooled connection gets it.
func dsn(cfg SQLiteConfig) string {
	ms := cfg.BusyTimeout.Milliseconds()
	if cfg.Driver == DriverPure {
		return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", cfg.Path, ms)
	}
	return fmt.Sprintf("file:%s?_busy_timeout=%d", cfg.Path, ms)
}

func (s *SQLStore) initialize() error {
	backend := s.config.Driver
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return NewStorageError(backend, "enable_wal", err)
		}
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", s.config.BusyTimeout.Milliseconds())); err != nil {
		return NewStorageError(backend, "set_busy_timeout", err)
	}
	if _, err := s.db.Exec(schema); err != nil {
		return NewStorageError(backend, "create_schema", err)
	}
	if _, err := s.db.Exec(insertSchemaVersion, SchemaVersion, time.Now().UnixNano()); err != nil {
		return NewStorageError(backend, "insert_schema_version", err)
	}

	var version int
	if err := s.db.QueryRow(getSchemaVersion).Scan(&version); err != nil {
		return NewStorageError(backend, "get_schema_version", err)
	}
	if version != SchemaVersion {
		return NewStorageError(backend, "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	stmt, err := s.db.Prepare(insertRecord)
	if err != nil {
		return NewStorageError(backend, "prepare", err)
	}
	s.insert = stmt
	return nil
}

func (s *SQLStore) Store(ctx context.Context, r *Record) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return NewStorageError(s.config.Driver, "store", ErrClosed)
	}
	_, err := s.insert.ExecContext(ctx,
		r.ID, r.RequestID, r.Action, r.Shape, r.Status, r.EntityCount, r.FieldCount,
		r.SourceIP, r.ClientID, int64(r.Duration), r.CreatedAt.UnixNano(),
	)
	if err != nil {
		return NewStorageError(s.config.Driver, "store", err)
	}
	return nil
}

func (s *SQLStore) Query(ctx context.Context, q *Query) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, NewStorageError(s.config.Driver, "query", ErrClosed)
	}

	where, args := buildWhereClause(q)
	query := selectRecords + where + " ORDER BY created_at DESC"
	if q != nil && (q.Limit > 0 || q.Offset > 0) {
		limit := q.Limit
		if limit <= 0 {
			limit = -1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, NewStorageError(s.config.Driver, "query", err)
	}
	defer rows.Close()

	records := []*Record{}
	for rows.Next() {
		var (
			r         Record
			durNanos  int64
			createdNs int64
		)
		if err := rows.Scan(&r.ID, &r.RequestID, &r.Action, &r.Shape, &r.Status,
			&r.EntityCount, &r.FieldCount, &r.SourceIP, &r.ClientID, &durNanos, &createdNs); err != nil {
			return nil, NewStorageError(s.config.Driver, "scan", err)
		}
		r.Duration = time.Duration(durNanos)
		r.CreatedAt = time.Unix(0, createdNs).UTC()
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError(s.config.Driver, "query", err)
	}
	return records, nil
}

func (s *SQLStore) Count(ctx context.Context, q *Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, NewStorageError(s.config.Driver, "count", ErrClosed)
	}
	where, args := buildWhereClause(q)
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_records"+where, args...).Scan(&n); err != nil {
		return 0, NewStorageError(s.config.Driver, "count", err)
	}
	return n, nil
}

func (s *SQLStore) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, NewStorageError(s.config.Driver, "delete", ErrClosed)
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM audit_records WHERE created_at < ?", t.UnixNano())
	if err != nil {
		return 0, NewStorageError(s.config.Driver, "delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, NewStorageError(s.config.Driver, "delete", err)
	}
	return n, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return NewStorageError(s.config.Driver, "ping", ErrClosed)
	}
	if err := s.db.PingContext(ctx); err != nil {
		return NewStorageError(s.config.Driver, "ping", err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.insert != nil {
		s.insert.Close()
	}
	return s.db.Close()
}

func buildWhereClause(q *Query) (string, []any) {
	if q == nil {
		return "", nil
	}
	var (
		conds []string
		args  []any
	)
	if q.Action != "" {
		conds = append(conds, "action = ?")
		args = append(args, q.Action)
	}
	if q.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, q.Status)
	}
	if q.ClientID != "" {
		conds = append(conds, "client_id = ?")
		args = append(args, q.ClientID)
	}
	if !q.StartTime.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, q.StartTime.UnixNano())
	}
	if !q.EndTime.IsZero() {
		conds = append(conds, "created_at <= ?")
		args = append(args, q.EndTime.UnixNano())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
