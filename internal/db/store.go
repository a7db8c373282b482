package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // register "duckdb" driver
	_ "github.com/mattn/go-sqlite3"   // register "sqlite3" driver

	"dyntable/internal/ddl"
)

// Store is an open physical table store together with its SQL dialect.
type Store struct {
	DB      *sql.DB
	Dialect ddl.Dialect
}

// Close releases the store pool.
func (s *Store) Close() error { return s.DB.Close() }

// OpenStore opens the physical table store for driver ("sqlite" or
// "duckdb") at path. An empty DuckDB path opens an in-memory database.
//
// SQLite stores use a single-connection write pool: every DDL and DML
// statement is serialised through it, and sessions hold that connection for
// their lifetime.
func OpenStore(driver, path string) (*Store, error) {
	dialect, err := ddl.DialectFor(driver)
	if err != nil {
		return nil, err
	}

	var conn *sql.DB
	switch dialect.(type) {
	case ddl.SQLite:
		if path == "" {
			return nil, fmt.Errorf("sqlite store requires a path")
		}
		conn, err = OpenSQLite(path, "write", 0)
	case ddl.DuckDB:
		conn, err = OpenDuckDB(path)
	}
	if err != nil {
		return nil, err
	}
	return &Store{DB: conn, Dialect: dialect}, nil
}

// OpenDuckDB opens a DuckDB database file, or an in-memory database when
// path is empty. All connections of the pool share one database instance.
func OpenDuckDB(path string) (*sql.DB, error) {
	conn, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}
	return conn, nil
}
