package table

import (
	"context"
	"errors"
	"fmt"

	"dyntable/internal/domain"
	"dyntable/internal/fieldtype"
)

// TableHandle is the data-driven description of a physical table: its
// descriptor, the column specs backing each field, and the row codec.
type TableHandle struct {
	Descriptor domain.TableDescriptor
	Columns    []domain.ColumnSpec
	Codec      *fieldtype.RowCodec
}

// Build resolves the column specs and codec for a logical table.
func Build(logicalName string, fields []domain.LogicalField) (*TableHandle, error) {
	cols, err := fieldtype.ColumnsFor(fields)
	if err != nil {
		return nil, err
	}
	codec, err := fieldtype.NewRowCodec(fields)
	if err != nil {
		return nil, err
	}
	return &TableHandle{
		Descriptor: domain.NewTableDescriptor(logicalName, fields),
		Columns:    cols,
		Codec:      codec,
	}, nil
}

// materialize creates the physical table. A table that already exists is
// reported as a naming conflict.
func materialize(ctx context.Context, s domain.StoreSession, h *TableHandle) error {
	err := s.CreateTable(ctx, h.Descriptor.PhysicalID, h.Columns)
	if domain.IsAlreadyExists(err) {
		return domain.ErrConflict("Table %s already exists", h.Descriptor.LogicalName)
	}
	if err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return nil
}

// register records the logical name in the catalog. When another request
// registered the same name first, its entry is returned.
func register(ctx context.Context, catalog domain.CatalogRepository, logicalName string) (*domain.CatalogEntry, error) {
	entry, err := catalog.Register(ctx, logicalName)
	if errors.Is(err, domain.ErrAlreadyRegistered) {
		return catalog.GetByName(ctx, logicalName)
	}
	if err != nil {
		return nil, fmt.Errorf("register table: %w", err)
	}
	return entry, nil
}
