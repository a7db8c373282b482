package table

import (
	"context"
	"fmt"

	"dyntable/internal/domain"
	"dyntable/internal/fieldtype"
)

// insertRow validates input against the table's fields and inserts it.
func insertRow(ctx context.Context, s domain.StoreSession, desc domain.TableDescriptor, input map[string]any) (int64, error) {
	codec, err := fieldtype.NewRowCodec(desc.Fields)
	if err != nil {
		return 0, err
	}
	values, err := codec.Decode(input)
	if err != nil {
		return 0, err
	}
	id, err := s.InsertRow(ctx, desc.PhysicalID, codec.Columns(), values)
	if err != nil {
		return 0, fmt.Errorf("insert row: %w", err)
	}
	return id, nil
}

// selectAll reads every record of the table, in store order.
func selectAll(ctx context.Context, s domain.StoreSession, desc domain.TableDescriptor) ([]domain.Row, error) {
	codec, err := fieldtype.NewRowCodec(desc.Fields)
	if err != nil {
		return nil, err
	}
	records, err := s.SelectAll(ctx, desc.PhysicalID, codec.Columns())
	if err != nil {
		return nil, fmt.Errorf("select rows: %w", err)
	}

	rows := make([]domain.Row, 0, len(records))
	for _, rec := range records {
		row, err := codec.Encode(rec)
		if err != nil {
			return nil, fmt.Errorf("decode row from %s: %w", desc.PhysicalID, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
