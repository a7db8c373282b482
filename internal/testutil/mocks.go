// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase. This follows the Go convention of a
// shared test utility package (like net/http/httptest).
package testutil

import (
	"context"
	"fmt"

	"dyntable/internal/domain"
)

// === Catalog Repository Mock ===

// MockCatalogRepo implements domain.CatalogRepository for testing.
type MockCatalogRepo struct {
	GetFn       func(ctx context.Context, id int64) (*domain.CatalogEntry, error)
	GetByNameFn func(ctx context.Context, logicalName string) (*domain.CatalogEntry, error)
	RegisterFn  func(ctx context.Context, logicalName string) (*domain.CatalogEntry, error)
	ListFn      func(ctx context.Context, page domain.PageRequest) ([]domain.CatalogEntry, int64, error)
	PingFn      func(ctx context.Context) error
}

// Get implements the interface method for testing.
func (m *MockCatalogRepo) Get(ctx context.Context, id int64) (*domain.CatalogEntry, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, id)
	}
	panic("unexpected call to MockCatalogRepo.Get")
}

// GetByName implements the interface method for testing.
func (m *MockCatalogRepo) GetByName(ctx context.Context, logicalName string) (*domain.CatalogEntry, error) {
	if m.GetByNameFn != nil {
		return m.GetByNameFn(ctx, logicalName)
	}
	panic("unexpected call to MockCatalogRepo.GetByName")
}

// Register implements the interface method for testing.
func (m *MockCatalogRepo) Register(ctx context.Context, logicalName string) (*domain.CatalogEntry, error) {
	if m.RegisterFn != nil {
		return m.RegisterFn(ctx, logicalName)
	}
	panic("unexpected call to MockCatalogRepo.Register")
}

// List implements the interface method for testing.
func (m *MockCatalogRepo) List(ctx context.Context, page domain.PageRequest) ([]domain.CatalogEntry, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, page)
	}
	panic("unexpected call to MockCatalogRepo.List")
}

// Ping implements the interface method for testing.
func (m *MockCatalogRepo) Ping(ctx context.Context) error {
	if m.PingFn != nil {
		return m.PingFn(ctx)
	}
	return nil
}

// === Table Store Mock ===

// MockTableStore implements domain.TableStore by handing Session to every
// WithSession call.
type MockTableStore struct {
	Session  domain.StoreSession
	PingFn   func(ctx context.Context) error
	Sessions int // number of sessions opened
	Released int // number of sessions released
}

// WithSession implements the interface method for testing.
func (m *MockTableStore) WithSession(_ context.Context, fn func(domain.StoreSession) error) error {
	if m.Session == nil {
		panic("unexpected call to MockTableStore.WithSession")
	}
	m.Sessions++
	defer func() { m.Released++ }()
	return fn(m.Session)
}

// Ping implements the interface method for testing.
func (m *MockTableStore) Ping(ctx context.Context) error {
	if m.PingFn != nil {
		return m.PingFn(ctx)
	}
	return nil
}

// === Store Session Mock ===

// MockStoreSession implements domain.StoreSession for testing. Every DDL or
// DML call is recorded in Calls as "<op> <object>".
type MockStoreSession struct {
	DescribeFn    func(ctx context.Context, physicalID string) ([]domain.ColumnInfo, error)
	ListTablesFn  func(ctx context.Context, prefix string) ([]string, error)
	CreateTableFn func(ctx context.Context, physicalID string, columns []domain.ColumnSpec) error
	AddColumnFn   func(ctx context.Context, physicalID string, column domain.ColumnSpec) error
	DropColumnFn  func(ctx context.Context, physicalID string, column domain.ColumnSpec) error
	InsertRowFn   func(ctx context.Context, physicalID string, columns []string, values []any) (int64, error)
	SelectAllFn   func(ctx context.Context, physicalID string, columns []string) ([][]any, error)
	Calls         []string
}

// Describe implements the interface method for testing.
func (m *MockStoreSession) Describe(ctx context.Context, physicalID string) ([]domain.ColumnInfo, error) {
	if m.DescribeFn != nil {
		return m.DescribeFn(ctx, physicalID)
	}
	panic("unexpected call to MockStoreSession.Describe")
}

// ListTables implements the interface method for testing.
func (m *MockStoreSession) ListTables(ctx context.Context, prefix string) ([]string, error) {
	if m.ListTablesFn != nil {
		return m.ListTablesFn(ctx, prefix)
	}
	panic("unexpected call to MockStoreSession.ListTables")
}

// CreateTable implements the interface method for testing.
func (m *MockStoreSession) CreateTable(ctx context.Context, physicalID string, columns []domain.ColumnSpec) error {
	m.Calls = append(m.Calls, "create "+physicalID)
	if m.CreateTableFn != nil {
		return m.CreateTableFn(ctx, physicalID, columns)
	}
	return nil
}

// AddColumn implements the interface method for testing.
func (m *MockStoreSession) AddColumn(ctx context.Context, physicalID string, column domain.ColumnSpec) error {
	m.Calls = append(m.Calls, "add "+column.Name)
	if m.AddColumnFn != nil {
		return m.AddColumnFn(ctx, physicalID, column)
	}
	return nil
}

// DropColumn implements the interface method for testing.
func (m *MockStoreSession) DropColumn(ctx context.Context, physicalID string, column domain.ColumnSpec) error {
	m.Calls = append(m.Calls, "drop "+column.Name)
	if m.DropColumnFn != nil {
		return m.DropColumnFn(ctx, physicalID, column)
	}
	return nil
}

// InsertRow implements the interface method for testing.
func (m *MockStoreSession) InsertRow(ctx context.Context, physicalID string, columns []string, values []any) (int64, error) {
	m.Calls = append(m.Calls, "insert "+physicalID)
	if m.InsertRowFn != nil {
		return m.InsertRowFn(ctx, physicalID, columns, values)
	}
	panic("unexpected call to MockStoreSession.InsertRow")
}

// SelectAll implements the interface method for testing.
func (m *MockStoreSession) SelectAll(ctx context.Context, physicalID string, columns []string) ([][]any, error) {
	m.Calls = append(m.Calls, "select "+physicalID)
	if m.SelectAllFn != nil {
		return m.SelectAllFn(ctx, physicalID, columns)
	}
	panic("unexpected call to MockStoreSession.SelectAll")
}

// AlreadyExists returns a StoreError tagged as "already exists".
func AlreadyExists(op, object string) error {
	return &domain.StoreError{Op: op, Object: object, AlreadyExists: true, Err: fmt.Errorf("%s already exists", object)}
}

// Columns builds introspection output: the primary key followed by the
// given name/type pairs.
func Columns(pairs ...string) []domain.ColumnInfo {
	cols := []domain.ColumnInfo{{Name: domain.PrimaryKeyColumn, PhysicalType: "INTEGER"}}
	for i := 0; i+1 < len(pairs); i += 2 {
		cols = append(cols, domain.ColumnInfo{Name: pairs[i], PhysicalType: pairs[i+1]})
	}
	return cols
}
