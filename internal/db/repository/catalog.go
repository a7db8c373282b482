package repository

import (
	"context"
	"database/sql"
	"fmt"

	dbstore "dyntable/internal/db/dbstore"
	"dyntable/internal/db/mapper"
	"dyntable/internal/domain"
)

// Compile-time interface check.
var _ domain.CatalogRepository = (*CatalogRepo)(nil)

// CatalogRepo implements domain.CatalogRepository on the SQLite metastore via
// sqlc-generated queries. Registrations go through the single-connection
// write pool; reads use the read pool.
type CatalogRepo struct {
	write *dbstore.Queries
	read  *dbstore.Queries
	db    *sql.DB
}

// NewCatalogRepo creates a CatalogRepo. readDB may equal writeDB.
func NewCatalogRepo(writeDB, readDB *sql.DB) *CatalogRepo {
	return &CatalogRepo{
		write: dbstore.New(writeDB),
		read:  dbstore.New(readDB),
		db:    readDB,
	}
}

// Get returns the entry with the given id.
func (r *CatalogRepo) Get(ctx context.Context, id int64) (*domain.CatalogEntry, error) {
	row, err := r.read.GetRegisteredTable(ctx, id)
	if err != nil {
		return nil, mapDBError(err)
	}
	return mapper.CatalogEntryFromDB(row), nil
}

// GetByName returns the entry for a logical table name.
func (r *CatalogRepo) GetByName(ctx context.Context, logicalName string) (*domain.CatalogEntry, error) {
	row, err := r.read.GetRegisteredTableByName(ctx, logicalName)
	if err != nil {
		return nil, mapDBError(err)
	}
	return mapper.CatalogEntryFromDB(row), nil
}

// Register inserts a new entry, or returns domain.ErrAlreadyRegistered.
func (r *CatalogRepo) Register(ctx context.Context, logicalName string) (*domain.CatalogEntry, error) {
	row, err := r.write.RegisterTable(ctx, logicalName)
	if err != nil {
		return nil, mapDBError(err)
	}
	return mapper.CatalogEntryFromDB(row), nil
}

// List returns a page of entries ordered by id.
func (r *CatalogRepo) List(ctx context.Context, page domain.PageRequest) ([]domain.CatalogEntry, int64, error) {
	total, err := r.read.CountRegisteredTables(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count tables: %w", err)
	}

	rows, err := r.read.ListRegisteredTables(ctx, dbstore.ListRegisteredTablesParams{
		Limit:  int64(page.Limit()),
		Offset: int64(page.Offset()),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list tables: %w", err)
	}
	return mapper.CatalogEntriesFromDB(rows), total, nil
}

// Ping checks the metastore connection.
func (r *CatalogRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
