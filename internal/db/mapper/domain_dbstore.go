// Package mapper provides conversion functions between domain and database types.
package mapper

import (
	"log/slog"
	"time"

	dbstore "dyntable/internal/db/dbstore"
	"dyntable/internal/domain"
)

const timeLayout = "2006-01-02 15:04:05"

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		slog.Default().Warn("failed to parse timestamp", "value", s, "error", err)
	}
	return t
}

// CatalogEntryFromDB converts a registry row to a domain.CatalogEntry.
func CatalogEntryFromDB(row dbstore.TableTablename) *domain.CatalogEntry {
	return &domain.CatalogEntry{
		ID:          row.ID,
		LogicalName: row.TableName,
		CreatedAt:   parseTime(row.CreatedAt),
	}
}

// CatalogEntriesFromDB converts a slice of registry rows.
func CatalogEntriesFromDB(rows []dbstore.TableTablename) []domain.CatalogEntry {
	out := make([]domain.CatalogEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, *CatalogEntryFromDB(row))
	}
	return out
}
