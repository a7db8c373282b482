package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "dyntable/internal/db"
	"dyntable/internal/domain"
)

var testColumns = []domain.ColumnSpec{
	{Name: "title", Type: "VARCHAR(255)", Default: "''"},
	{Name: "amount", Type: "BIGINT"},
	{Name: "paid", Type: "BOOLEAN", Default: "false"},
}

func setupStoreRepo(t *testing.T, driver string) *StoreRepo {
	t.Helper()
	store := internaldb.OpenTestStore(t, driver)
	return NewStoreRepo(store.DB, store.Dialect)
}

func TestStoreRepo_Lifecycle(t *testing.T) {
	for _, driver := range []string{"sqlite", "duckdb"} {
		t.Run(driver, func(t *testing.T) {
			repo := setupStoreRepo(t, driver)
			ctx := context.Background()

			err := repo.WithSession(ctx, func(s domain.StoreSession) error {
				cols, err := s.Describe(ctx, "table_orders")
				require.NoError(t, err)
				assert.Empty(t, cols)

				require.NoError(t, s.CreateTable(ctx, "table_orders", testColumns))

				cols, err = s.Describe(ctx, "table_orders")
				require.NoError(t, err)
				require.Len(t, cols, 4)
				names := make([]string, len(cols))
				for i, c := range cols {
					names[i] = c.Name
				}
				assert.Equal(t, []string{"id", "title", "amount", "paid"}, names)

				id1, err := s.InsertRow(ctx, "table_orders", []string{"title", "amount", "paid"}, []any{"a", int64(321), true})
				require.NoError(t, err)
				assert.Positive(t, id1)

				id2, err := s.InsertRow(ctx, "table_orders", []string{"title", "amount", "paid"}, []any{"b", nil, false})
				require.NoError(t, err)
				assert.Greater(t, id2, id1)

				records, err := s.SelectAll(ctx, "table_orders", []string{"title", "amount", "paid"})
				require.NoError(t, err)
				require.Len(t, records, 2)
				for _, r := range records {
					require.Len(t, r, 4)
				}

				tables, err := s.ListTables(ctx, domain.PhysicalTablePrefix)
				require.NoError(t, err)
				assert.Equal(t, []string{"table_orders"}, tables)

				err = s.CreateTable(ctx, "table_orders", testColumns)
				require.Error(t, err)
				assert.True(t, domain.IsAlreadyExists(err))
				return nil
			})
			require.NoError(t, err)
		})
	}
}

func TestStoreRepo_EvolveColumns(t *testing.T) {
	repo := setupStoreRepo(t, "sqlite")
	ctx := context.Background()

	err := repo.WithSession(ctx, func(s domain.StoreSession) error {
		require.NoError(t, s.CreateTable(ctx, "table_items", testColumns[:2]))

		require.NoError(t, s.DropColumn(ctx, "table_items", testColumns[1]))
		require.NoError(t, s.AddColumn(ctx, "table_items", testColumns[2]))

		err := s.AddColumn(ctx, "table_items", testColumns[0])
		require.Error(t, err)
		assert.True(t, domain.IsAlreadyExists(err))

		err = s.DropColumn(ctx, "table_items", domain.ColumnSpec{Name: "missing"})
		require.Error(t, err)
		assert.False(t, domain.IsAlreadyExists(err))

		cols, err := s.Describe(ctx, "table_items")
		require.NoError(t, err)
		require.Len(t, cols, 3)
		assert.Equal(t, "title", cols[1].Name)
		assert.Equal(t, "paid", cols[2].Name)
		assert.Equal(t, "BOOLEAN", cols[2].PhysicalType)
		return nil
	})
	require.NoError(t, err)
}

func TestStoreRepo_ZeroColumnTable(t *testing.T) {
	repo := setupStoreRepo(t, "sqlite")
	ctx := context.Background()

	err := repo.WithSession(ctx, func(s domain.StoreSession) error {
		require.NoError(t, s.CreateTable(ctx, "table_bare", nil))

		id, err := s.InsertRow(ctx, "table_bare", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), id)

		records, err := s.SelectAll(ctx, "table_bare", nil)
		require.NoError(t, err)
		assert.Equal(t, [][]any{{int64(1)}}, records)
		return nil
	})
	require.NoError(t, err)
}

func TestStoreRepo_SessionReleasesConnection(t *testing.T) {
	repo := setupStoreRepo(t, "sqlite")
	ctx := context.Background()

	// The SQLite store pool holds a single connection; a leaked session
	// would block the second one forever.
	boom := assert.AnError
	err := repo.WithSession(ctx, func(domain.StoreSession) error { return boom })
	require.ErrorIs(t, err, boom)

	err = repo.WithSession(ctx, func(s domain.StoreSession) error {
		_, err := s.Describe(ctx, "table_x")
		return err
	})
	require.NoError(t, err)
	require.NoError(t, repo.Ping(ctx))
}
