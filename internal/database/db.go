package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when an analysis does not exist
var ErrNotFound = errors.New("analysis not found")

// pragmas applied to every connection in the pool
const pragmas = "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

// DB wraps the SQLite connection pool holding stored analyses
type DB struct {
	conn *sql.DB
}

// New opens the SQLite database at path, creating the file if needed. The
// parent directory must exist.
func New(path string) (*DB, error) {
	if path == "" {
		return nil, errors.New("database path is required")
	}

	conn, err := sql.Open("sqlite", "file:"+path+"?"+pragmas)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(8)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	db := &DB{conn: conn}
	if err := db.Ping(context.Background()); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Ping verifies the database is reachable
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn exposes the pool for statistics and ad hoc queries
func (db *DB) Conn() *sql.DB {
	return db.conn
}
