// Package table turns client field lists into live relational tables, evolves
// their columns, and moves rows in and out of them.
//
// Nothing is cached between calls: every operation re-reads the catalog and
// re-introspects the physical table. Catalog calls never run inside a store
// session, so a store and catalog that share one SQLite file cannot block
// each other.
package table

import (
	"context"
	"fmt"
	"log/slog"

	"dyntable/internal/domain"
)

// Table is a registered table together with its current fields.
type Table struct {
	Entry  domain.CatalogEntry
	Schema domain.TableDescriptor
}

// InsertedRow identifies a freshly inserted row.
type InsertedRow struct {
	Entry domain.CatalogEntry
	RowID int64
}

// Service orchestrates the catalog and the physical store.
type Service struct {
	catalog domain.CatalogRepository
	store   domain.TableStore
	logger  *slog.Logger
}

// ServiceDeps holds dependencies for Service.
type ServiceDeps struct {
	Catalog domain.CatalogRepository
	Store   domain.TableStore
	Logger  *slog.Logger
}

// NewService creates a new Service.
func NewService(deps ServiceDeps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		catalog: deps.Catalog,
		store:   deps.Store,
		logger:  logger.With("component", "table-service"),
	}
}

// CreateTable validates the request, creates the physical table and
// registers its name.
func (s *Service) CreateTable(ctx context.Context, name string, fields []FieldRequest) (*domain.CatalogEntry, error) {
	fe := domain.FieldErrors{}
	for _, msg := range ValidateTableName(name) {
		fe.Add("table_name", msg)
	}
	logical, fieldErrs := ValidateFields("table_fields", fields)
	fe.Merge("", fieldErrs)
	if err := fe.Err(); err != nil {
		return nil, err
	}

	handle, err := Build(name, logical)
	if err != nil {
		return nil, err
	}

	if err := s.store.WithSession(ctx, func(sess domain.StoreSession) error {
		return materialize(ctx, sess, handle)
	}); err != nil {
		return nil, err
	}

	entry, err := register(ctx, s.catalog, name)
	if err != nil {
		return nil, err
	}
	attrs := []any{"table", name, "table_id", entry.ID, "fields", len(logical)}
	if p, ok := domain.PrincipalFromContext(ctx); ok {
		attrs = append(attrs, "principal", p.DisplayName())
	}
	s.logger.Info("table created", attrs...)
	return entry, nil
}

// UpdateStructure evolves a table's columns to match fields and returns the
// applied schema.
func (s *Service) UpdateStructure(ctx context.Context, id int64, fields []FieldRequest) (*Table, error) {
	desired, fieldErrs := ValidateFields("new_table_fields", fields)
	if err := fieldErrs.Err(); err != nil {
		return nil, err
	}

	entry, err := s.catalog.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	physicalID := entry.PhysicalID()

	var diff domain.AppliedDiff
	err = s.store.WithSession(ctx, func(sess domain.StoreSession) error {
		current, err := describe(ctx, sess, physicalID)
		if err != nil {
			return err
		}
		diff, err = evolve(ctx, sess, s.logger, physicalID, current, desired)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("table structure updated", "table", entry.LogicalName,
		"removed", len(diff.Removed), "added", len(diff.Added), "kept", len(diff.Kept))
	return &Table{
		Entry:  *entry,
		Schema: domain.NewTableDescriptor(entry.LogicalName, diff.Fields),
	}, nil
}

// AddRow validates input against the table's live fields and inserts it.
func (s *Service) AddRow(ctx context.Context, id int64, input map[string]any) (*InsertedRow, error) {
	entry, err := s.catalog.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var rowID int64
	err = s.store.WithSession(ctx, func(sess domain.StoreSession) error {
		fields, err := describe(ctx, sess, entry.PhysicalID())
		if err != nil {
			return err
		}
		rowID, err = insertRow(ctx, sess, domain.NewTableDescriptor(entry.LogicalName, fields), input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &InsertedRow{Entry: *entry, RowID: rowID}, nil
}

// ListRows returns every row of a table.
func (s *Service) ListRows(ctx context.Context, id int64) ([]domain.Row, error) {
	entry, err := s.catalog.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var rows []domain.Row
	err = s.store.WithSession(ctx, func(sess domain.StoreSession) error {
		fields, err := describe(ctx, sess, entry.PhysicalID())
		if err != nil {
			return err
		}
		rows, err = selectAll(ctx, sess, domain.NewTableDescriptor(entry.LogicalName, fields))
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// GetTable returns a registered table with its introspected fields.
func (s *Service) GetTable(ctx context.Context, id int64) (*Table, error) {
	entry, err := s.catalog.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var fields []domain.LogicalField
	err = s.store.WithSession(ctx, func(sess domain.StoreSession) error {
		var err error
		fields, err = describe(ctx, sess, entry.PhysicalID())
		return err
	})
	if err != nil {
		return nil, err
	}
	return &Table{Entry: *entry, Schema: domain.NewTableDescriptor(entry.LogicalName, fields)}, nil
}

// ListTables returns a page of catalog entries.
func (s *Service) ListTables(ctx context.Context, page domain.PageRequest) ([]domain.CatalogEntry, int64, error) {
	return s.catalog.List(ctx, page)
}

// Ping checks both the catalog and the store.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.catalog.Ping(ctx); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return nil
}
