package ddl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTable(t *testing.T) {
	cols := []ColumnDef{
		{Name: "first", Type: "VARCHAR(255)", Default: "''"},
		{Name: "second", Type: "BIGINT"},
	}

	tests := []struct {
		name    string
		dialect Dialect
		table   string
		columns []ColumnDef
		want    []string
		wantErr string
	}{
		{
			name:    "sqlite",
			dialect: SQLite{},
			table:   "table_orders",
			columns: cols,
			want: []string{
				`CREATE TABLE "table_orders" ("id" INTEGER PRIMARY KEY AUTOINCREMENT, "first" VARCHAR(255) DEFAULT '', "second" BIGINT)`,
			},
		},
		{
			name:    "duckdb",
			dialect: DuckDB{},
			table:   "table_orders",
			columns: cols[1:],
			want: []string{
				`CREATE SEQUENCE IF NOT EXISTS "table_orders_id_seq"`,
				`CREATE TABLE "table_orders" ("id" BIGINT PRIMARY KEY DEFAULT nextval('table_orders_id_seq'), "second" BIGINT)`,
			},
		},
		{
			name:    "no_columns",
			dialect: SQLite{},
			table:   "table_empty",
			want:    []string{`CREATE TABLE "table_empty" ("id" INTEGER PRIMARY KEY AUTOINCREMENT)`},
		},
		{
			name:    "invalid_table",
			dialect: SQLite{},
			table:   "bad-name",
			wantErr: "invalid table name",
		},
		{
			name:    "reserved_column",
			dialect: SQLite{},
			table:   "table_x",
			columns: []ColumnDef{{Name: "ID", Type: "BIGINT"}},
			wantErr: "reserved for the primary key",
		},
		{
			name:    "bad_default",
			dialect: SQLite{},
			table:   "table_x",
			columns: []ColumnDef{{Name: "flag", Type: "BOOLEAN", Default: "now()"}},
			wantErr: "invalid default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CreateTable(tt.dialect, tt.table, tt.columns)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAlterColumns(t *testing.T) {
	got, err := AddColumn("table_orders", ColumnDef{Name: "flag", Type: "BOOLEAN", Default: "false"})
	require.NoError(t, err)
	assert.Equal(t, `ALTER TABLE "table_orders" ADD COLUMN "flag" BOOLEAN DEFAULT false`, got)

	got, err = DropColumn("table_orders", "flag")
	require.NoError(t, err)
	assert.Equal(t, `ALTER TABLE "table_orders" DROP COLUMN "flag"`, got)

	_, err = DropColumn("table_orders", "id")
	require.Error(t, err)

	_, err = AddColumn("table_orders", ColumnDef{Name: "x", Type: "INT; DROP TABLE t"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid column type")
}

func TestInsertRow(t *testing.T) {
	got, err := InsertRow("table_orders", []string{"first", "second"})
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "table_orders" ("first", "second") VALUES (?, ?) RETURNING "id"`, got)

	got, err = InsertRow("table_orders", nil)
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "table_orders" DEFAULT VALUES RETURNING "id"`, got)

	_, err = InsertRow("table_orders", []string{"a b"})
	require.Error(t, err)
}

func TestSelectAll(t *testing.T) {
	got, err := SelectAll("table_orders", []string{"first"})
	require.NoError(t, err)
	assert.Equal(t, `SELECT "id", "first" FROM "table_orders"`, got)

	got, err = SelectAll("table_orders", nil)
	require.NoError(t, err)
	assert.Equal(t, `SELECT "id" FROM "table_orders"`, got)
}

func TestDialectFor(t *testing.T) {
	d, err := DialectFor("SQLite")
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", d.Name())

	d, err = DialectFor("duckdb")
	require.NoError(t, err)
	assert.Equal(t, "duckdb", d.Name())

	_, err = DialectFor("postgres")
	require.Error(t, err)
}

func TestIsAlreadyExists(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		err     error
		want    bool
	}{
		{name: "sqlite_table", dialect: SQLite{}, err: errors.New(`table "table_x" already exists`), want: true},
		{name: "sqlite_column", dialect: SQLite{}, err: errors.New("duplicate column name: first"), want: true},
		{name: "sqlite_other", dialect: SQLite{}, err: errors.New("no such table: table_x"), want: false},
		{name: "duckdb_column", dialect: DuckDB{}, err: errors.New(`Catalog Error: Column with name first already exists!`), want: true},
		{name: "duckdb_other", dialect: DuckDB{}, err: errors.New("Binder Error"), want: false},
		{name: "nil", dialect: DuckDB{}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.dialect.IsAlreadyExists(tt.err))
		})
	}
}
