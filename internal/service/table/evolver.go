package table

import (
	"context"
	"fmt"
	"log/slog"

	"dyntable/internal/domain"
	"dyntable/internal/fieldtype"
)

// evolve moves physicalID from current to desired, one ALTER per field.
//
// Fields missing from desired are dropped first, using their current kind.
// Every desired field is then added in order; an ADD rejected because the
// column exists is skipped. Nothing is rolled back on failure, and the
// returned schema is desired verbatim.
func evolve(ctx context.Context, s domain.StoreSession, logger *slog.Logger, physicalID string, current, desired []domain.LogicalField) (domain.AppliedDiff, error) {
	diff := domain.AppliedDiff{Fields: desired}

	keep := make(map[string]bool, len(desired))
	for _, f := range desired {
		keep[f.Name] = true
	}

	for _, f := range current {
		if keep[f.Name] {
			continue
		}
		col, err := fieldtype.ColumnFor(f)
		if err != nil {
			return diff, err
		}
		logger.Debug("dropping column", "table", physicalID, "column", f.Name, "kind", f.Kind)
		if err := s.DropColumn(ctx, physicalID, col); err != nil {
			return diff, fmt.Errorf("evolve %s: %w", physicalID, err)
		}
		diff.Removed = append(diff.Removed, f)
	}

	for _, f := range desired {
		col, err := fieldtype.ColumnFor(f)
		if err != nil {
			return diff, err
		}
		logger.Debug("adding column", "table", physicalID, "column", f.Name, "kind", f.Kind)
		err = s.AddColumn(ctx, physicalID, col)
		switch {
		case domain.IsAlreadyExists(err):
			logger.Info("column already exists, skipping", "table", physicalID, "column", f.Name)
			diff.Kept = append(diff.Kept, f)
		case err != nil:
			return diff, fmt.Errorf("evolve %s: %w", physicalID, err)
		default:
			diff.Added = append(diff.Added, f)
		}
	}

	return diff, nil
}
