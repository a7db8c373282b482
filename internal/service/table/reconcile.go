package table

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"dyntable/internal/domain"
)

// Reconciler compares the catalog with the tables present in the store.
type Reconciler struct {
	catalog domain.CatalogRepository
	store   domain.TableStore
	logger  *slog.Logger
}

// NewReconciler creates a Reconciler.
func NewReconciler(catalog domain.CatalogRepository, store domain.TableStore, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{catalog: catalog, store: store, logger: logger.With("component", "reconciler")}
}

// Reconcile reports catalog entries without a physical table and physical
// tables without a catalog entry. With repair, unregistered tables are
// registered; orphaned entries are only reported.
func (r *Reconciler) Reconcile(ctx context.Context, repair bool) (domain.ReconcileReport, error) {
	var report domain.ReconcileReport

	entries, err := r.allEntries(ctx)
	if err != nil {
		return report, err
	}

	var physical []string
	if err := r.store.WithSession(ctx, func(sess domain.StoreSession) error {
		var err error
		physical, err = sess.ListTables(ctx, domain.PhysicalTablePrefix)
		return err
	}); err != nil {
		return report, fmt.Errorf("list physical tables: %w", err)
	}

	present := make(map[string]bool, len(physical))
	for _, name := range physical {
		present[name] = true
	}
	registered := make(map[string]bool, len(entries))
	for _, e := range entries {
		registered[e.PhysicalID()] = true
		if !present[e.PhysicalID()] {
			report.Orphaned = append(report.Orphaned, e)
		}
	}
	for _, name := range physical {
		if name == domain.RegistryTable || registered[name] {
			continue
		}
		report.Unregistered = append(report.Unregistered, name)
	}

	if repair {
		for _, name := range report.Unregistered {
			logical := strings.TrimPrefix(name, domain.PhysicalTablePrefix)
			entry, err := r.catalog.Register(ctx, logical)
			if errors.Is(err, domain.ErrAlreadyRegistered) {
				continue
			}
			if err != nil {
				return report, fmt.Errorf("register %s: %w", logical, err)
			}
			r.logger.Info("registered table", "table", logical, "table_id", entry.ID)
			report.Registered = append(report.Registered, *entry)
		}
	}

	r.logger.Info("reconcile finished",
		"orphaned", len(report.Orphaned),
		"unregistered", len(report.Unregistered),
		"registered", len(report.Registered))
	return report, nil
}

func (r *Reconciler) allEntries(ctx context.Context) ([]domain.CatalogEntry, error) {
	var all []domain.CatalogEntry
	page := domain.PageRequest{MaxResults: domain.MaxMaxResults}
	for {
		entries, total, err := r.catalog.List(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("list catalog: %w", err)
		}
		all = append(all, entries...)
		next := page.NextPageToken(total)
		if next == "" || len(entries) == 0 {
			return all, nil
		}
		page.PageToken = next
	}
}
