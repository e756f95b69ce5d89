package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

// Dialect selects placeholder and upsert syntax for SQL.
type Dialect int

const (
	// DialectSQLite uses ? placeholders and ON CONFLICT upserts.
	DialectSQLite Dialect = iota
	// DialectPostgres uses $n placeholders and ON CONFLICT upserts.
	DialectPostgres
	// DialectMySQL uses ? placeholders and ON DUPLICATE KEY upserts.
	DialectMySQL
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQL stores items in one table:
//
//	CREATE TABLE sugar_items (
//	    item_key   VARCHAR(255) PRIMARY KEY,
//	    item_value TEXT NOT NULL,
//	    updated_at TIMESTAMP NOT NULL
//	);
type SQL struct {
	db      *sql.DB
	table   string
	dialect Dialect
	timeout time.Duration
	ownsDB  bool
	closed  atomic.Bool
}

// SQLOption configures SQL.
type SQLOption func(*SQL)

// WithTable sets the table name. Default: "sugar_items".
func WithTable(name string) SQLOption {
	return func(s *SQL) {
		s.table = name
	}
}

// WithDialect sets the SQL dialect. Default: DialectSQLite.
func WithDialect(d Dialect) SQLOption {
	return func(s *SQL) {
		s.dialect = d
	}
}

// WithTimeout bounds every statement. Default: 5s.
func WithTimeout(d time.Duration) SQLOption {
	return func(s *SQL) {
		s.timeout = d
	}
}

// NewSQL wraps db and creates the table if it does not exist.
func NewSQL(db *sql.DB, opts ...SQLOption) (*SQL, error) {
	s := &SQL{
		db:      db,
		table:   "sugar_items",
		dialect: DialectSQLite,
		timeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	if !tableNamePattern.MatchString(s.table) {
		return nil, fmt.Errorf("storage: invalid table name %q", s.table)
	}

	ctx, cancel := s.context()
	defer cancel()
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	item_key VARCHAR(255) PRIMARY KEY,
	item_value TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`, s.table)
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return nil, fmt.Errorf("storage: create table %s: %w", s.table, err)
	}
	return s, nil
}

// OpenSQLite opens (or creates) a SQLite database file and wraps it. Use
// ":memory:" for a private in-memory database. Close releases the handle.
func OpenSQLite(path string, opts ...SQLOption) (*SQL, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite %s: %w", path, err)
	}
	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	s, err := NewSQL(db, append([]SQLOption{WithDialect(DialectSQLite)}, opts...)...)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.ownsDB = true
	return s, nil
}

func (s *SQL) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func (s *SQL) placeholder(n int) string {
	if s.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// GetItem implements Storage.
func (s *SQL) GetItem(key string) (string, bool, error) {
	if s.closed.Load() {
		return "", false, ErrClosed
	}
	ctx, cancel := s.context()
	defer cancel()

	query := fmt.Sprintf("SELECT item_value FROM %s WHERE item_key = %s", s.table, s.placeholder(1))
	var value string
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("storage: get %q: %w", key, err)
	}
	return value, true, nil
}

// SetItem implements Storage.
func (s *SQL) SetItem(key, value string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	ctx, cancel := s.context()
	defer cancel()

	var query string
	switch s.dialect {
	case DialectMySQL:
		query = fmt.Sprintf(`INSERT INTO %s (item_key, item_value, updated_at) VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE item_value = VALUES(item_value), updated_at = VALUES(updated_at)`, s.table)
	default:
		query = fmt.Sprintf(`INSERT INTO %s (item_key, item_value, updated_at) VALUES (%s, %s, %s)
ON CONFLICT (item_key) DO UPDATE SET item_value = excluded.item_value, updated_at = excluded.updated_at`,
			s.table, s.placeholder(1), s.placeholder(2), s.placeholder(3))
	}
	if _, err := s.db.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("storage: set %q: %w", key, err)
	}
	return nil
}

// RemoveItem implements Remover.
func (s *SQL) RemoveItem(key string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	ctx, cancel := s.context()
	defer cancel()

	query := fmt.Sprintf("DELETE FROM %s WHERE item_key = %s", s.table, s.placeholder(1))
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("storage: remove %q: %w", key, err)
	}
	return nil
}

// Keys implements Lister. Keys are sorted.
func (s *SQL) Keys() ([]string, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	ctx, cancel := s.context()
	defer cancel()

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT item_key FROM %s ORDER BY item_key", s.table))
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("storage: list: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Close marks the storage closed and closes the database if OpenSQLite
// opened it.
func (s *SQL) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}
