package ddl

import (
	"fmt"
	"strings"
)

// Dialect captures the statements that differ between the supported stores.
type Dialect interface {
	// Name returns the driver name the dialect targets ("sqlite3", "duckdb").
	Name() string
	// PrimaryKeyColumn renders the auto-incrementing "id" column definition.
	PrimaryKeyColumn(table string) string
	// BeforeCreate returns statements that must run before CREATE TABLE.
	BeforeCreate(table string) []string
	// DescribeQuery takes the table name as its only parameter and yields
	// (column name, declared type) rows in ordinal order.
	DescribeQuery() string
	// ListTablesQuery yields the name of every base table.
	ListTablesQuery() string
	// IsAlreadyExists classifies a driver error raised by CREATE TABLE or
	// ADD COLUMN because the object is already present.
	IsAlreadyExists(err error) bool
}

// DialectFor returns the dialect for a store driver name.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		return SQLite{}, nil
	case "duckdb":
		return DuckDB{}, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
}

// SQLite is the dialect of the embedded SQLite store.
type SQLite struct{}

func (SQLite) Name() string { return "sqlite3" }

func (SQLite) PrimaryKeyColumn(string) string {
	return QuoteIdentifier(PrimaryKey) + " INTEGER PRIMARY KEY AUTOINCREMENT"
}

func (SQLite) BeforeCreate(string) []string { return nil }

func (SQLite) DescribeQuery() string {
	return `SELECT name, type FROM pragma_table_info(?) ORDER BY cid`
}

func (SQLite) ListTablesQuery() string {
	return `SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`
}

func (SQLite) IsAlreadyExists(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "duplicate column name")
}

// DuckDB is the dialect of the embedded DuckDB store. Keys come from a
// per-table sequence.
type DuckDB struct{}

func (DuckDB) Name() string { return "duckdb" }

func (DuckDB) PrimaryKeyColumn(table string) string {
	return fmt.Sprintf("%s BIGINT PRIMARY KEY DEFAULT nextval(%s)",
		QuoteIdentifier(PrimaryKey), QuoteLiteral(sequenceName(table)))
}

func (DuckDB) BeforeCreate(table string) []string {
	return []string{"CREATE SEQUENCE IF NOT EXISTS " + QuoteIdentifier(sequenceName(table))}
}

func (DuckDB) DescribeQuery() string {
	return `SELECT column_name, data_type FROM information_schema.columns
WHERE table_catalog = current_database() AND table_schema = current_schema() AND table_name = ?
ORDER BY ordinal_position`
}

func (DuckDB) ListTablesQuery() string {
	return `SELECT table_name FROM information_schema.tables
WHERE table_catalog = current_database() AND table_schema = current_schema() AND table_type = 'BASE TABLE'
ORDER BY table_name`
}

func (DuckDB) IsAlreadyExists(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "already exists")
}

func sequenceName(table string) string { return table + "_id_seq" }
