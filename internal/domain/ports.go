package domain

import "context"

// CatalogRepository persists the logical name → table identity registry.
// Entries are never updated or deleted.
type CatalogRepository interface {
	// Get returns the entry with the given id, or a NotFoundError.
	Get(ctx context.Context, id int64) (*CatalogEntry, error)
	// GetByName returns the entry for a logical name, or a NotFoundError.
	GetByName(ctx context.Context, logicalName string) (*CatalogEntry, error)
	// Register inserts a new entry. It returns ErrAlreadyRegistered when the
	// name is taken; callers fetch the existing entry instead.
	Register(ctx context.Context, logicalName string) (*CatalogEntry, error)
	// List returns a page of entries ordered by id, plus the total count.
	List(ctx context.Context, page PageRequest) ([]CatalogEntry, int64, error)
	// Ping checks the metastore connection.
	Ping(ctx context.Context) error
}

// TableStore hands out sessions on the physical relational store. A session
// owns one connection for its whole lifetime; the connection is released when
// fn returns, whatever the outcome.
type TableStore interface {
	WithSession(ctx context.Context, fn func(StoreSession) error) error
	Ping(ctx context.Context) error
}

// StoreSession issues DDL and DML against the physical store over a single
// connection. DDL failures are returned as *StoreError.
type StoreSession interface {
	// Describe lists the columns of a physical table, primary key included,
	// in ordinal order. A missing table yields an empty slice, not an error.
	Describe(ctx context.Context, physicalID string) ([]ColumnInfo, error)
	// ListTables returns the physical tables whose name starts with prefix.
	ListTables(ctx context.Context, prefix string) ([]string, error)
	// CreateTable creates the table with an implicit auto-incrementing
	// primary key plus the given columns.
	CreateTable(ctx context.Context, physicalID string, columns []ColumnSpec) error
	// AddColumn issues ALTER TABLE ... ADD COLUMN.
	AddColumn(ctx context.Context, physicalID string, column ColumnSpec) error
	// DropColumn issues ALTER TABLE ... DROP COLUMN.
	DropColumn(ctx context.Context, physicalID string, column ColumnSpec) error
	// InsertRow inserts one record and returns its primary key.
	InsertRow(ctx context.Context, physicalID string, columns []string, values []any) (int64, error)
	// SelectAll scans every record. Each record holds the primary key first,
	// followed by the requested columns in order.
	SelectAll(ctx context.Context, physicalID string, columns []string) ([][]any, error)
}
