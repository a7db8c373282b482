package table

import (
	"context"
	"fmt"

	"dyntable/internal/domain"
	"dyntable/internal/fieldtype"
)

// MsgTableNotFound is reported when the store has no columns for a
// registered table.
const MsgTableNotFound = "Table not found."

// describe re-introspects a physical table and returns its logical fields,
// primary key excluded. No columns at all means the table does not exist; a
// table holding only the primary key has zero fields.
func describe(ctx context.Context, s domain.StoreSession, physicalID string) ([]domain.LogicalField, error) {
	cols, err := s.Describe(ctx, physicalID)
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", physicalID, err)
	}
	if len(cols) == 0 {
		return nil, domain.ErrNotFound(MsgTableNotFound)
	}

	fields := make([]domain.LogicalField, 0, len(cols))
	for _, c := range cols {
		if c.Name == domain.PrimaryKeyColumn {
			continue
		}
		kind, err := fieldtype.Normalize(c.PhysicalType)
		if err != nil {
			return nil, fmt.Errorf("describe %s column %q: %w", physicalID, c.Name, err)
		}
		fields = append(fields, domain.LogicalField{Name: c.Name, Kind: kind})
	}
	return fields, nil
}
