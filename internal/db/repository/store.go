package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"dyntable/internal/ddl"
	"dyntable/internal/domain"
)

// Compile-time interface checks.
var (
	_ domain.TableStore   = (*StoreRepo)(nil)
	_ domain.StoreSession = (*storeSession)(nil)
)

// StoreRepo implements domain.TableStore over a physical store pool.
type StoreRepo struct {
	db      *sql.DB
	dialect ddl.Dialect
}

// NewStoreRepo creates a StoreRepo issuing statements in the given dialect.
func NewStoreRepo(db *sql.DB, dialect ddl.Dialect) *StoreRepo {
	return &StoreRepo{db: db, dialect: dialect}
}

// WithSession pins one pooled connection for the duration of fn and returns
// it to the pool on every exit path.
func (r *StoreRepo) WithSession(ctx context.Context, fn func(domain.StoreSession) error) error {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return &domain.StoreError{Op: "acquire connection", Err: err}
	}
	defer conn.Close() //nolint:errcheck

	return fn(&storeSession{conn: conn, dialect: r.dialect})
}

// Ping checks the store connection.
func (r *StoreRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type storeSession struct {
	conn    *sql.Conn
	dialect ddl.Dialect
}

func (s *storeSession) fail(op, object string, err error) error {
	return &domain.StoreError{
		Op:            op,
		Object:        object,
		AlreadyExists: s.dialect.IsAlreadyExists(err),
		Err:           err,
	}
}

// Describe lists the columns of physicalID in ordinal order, primary key
// included. A missing table yields no columns.
func (s *storeSession) Describe(ctx context.Context, physicalID string) ([]domain.ColumnInfo, error) {
	rows, err := s.conn.QueryContext(ctx, s.dialect.DescribeQuery(), physicalID)
	if err != nil {
		return nil, s.fail("describe", physicalID, err)
	}
	defer rows.Close() //nolint:errcheck

	var cols []domain.ColumnInfo
	for rows.Next() {
		var c domain.ColumnInfo
		if err := rows.Scan(&c.Name, &c.PhysicalType); err != nil {
			return nil, s.fail("describe", physicalID, err)
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("describe", physicalID, err)
	}
	return cols, nil
}

func (s *storeSession) ListTables(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, s.dialect.ListTablesQuery())
	if err != nil {
		return nil, s.fail("list tables", "", err)
	}
	defer rows.Close() //nolint:errcheck

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, s.fail("list tables", "", err)
		}
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("list tables", "", err)
	}
	return names, nil
}

func (s *storeSession) CreateTable(ctx context.Context, physicalID string, columns []domain.ColumnSpec) error {
	stmts, err := ddl.CreateTable(s.dialect, physicalID, columnDefs(columns))
	if err != nil {
		return &domain.StoreError{Op: "create table", Object: physicalID, Err: err}
	}
	for _, stmt := range stmts {
		if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
			return s.fail("create table", physicalID, err)
		}
	}
	return nil
}

func (s *storeSession) AddColumn(ctx context.Context, physicalID string, column domain.ColumnSpec) error {
	stmt, err := ddl.AddColumn(physicalID, columnDef(column))
	if err != nil {
		return &domain.StoreError{Op: "add column", Object: column.Name, Err: err}
	}
	if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
		return s.fail("add column", column.Name, err)
	}
	return nil
}

func (s *storeSession) DropColumn(ctx context.Context, physicalID string, column domain.ColumnSpec) error {
	stmt, err := ddl.DropColumn(physicalID, column.Name)
	if err != nil {
		return &domain.StoreError{Op: "drop column", Object: column.Name, Err: err}
	}
	if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
		return s.fail("drop column", column.Name, err)
	}
	return nil
}

func (s *storeSession) InsertRow(ctx context.Context, physicalID string, columns []string, values []any) (int64, error) {
	if len(columns) != len(values) {
		return 0, fmt.Errorf("insert into %s: %d columns but %d values", physicalID, len(columns), len(values))
	}
	stmt, err := ddl.InsertRow(physicalID, columns)
	if err != nil {
		return 0, &domain.StoreError{Op: "insert", Object: physicalID, Err: err}
	}
	var id int64
	if err := s.conn.QueryRowContext(ctx, stmt, values...).Scan(&id); err != nil {
		return 0, s.fail("insert", physicalID, err)
	}
	return id, nil
}

func (s *storeSession) SelectAll(ctx context.Context, physicalID string, columns []string) ([][]any, error) {
	stmt, err := ddl.SelectAll(physicalID, columns)
	if err != nil {
		return nil, &domain.StoreError{Op: "select", Object: physicalID, Err: err}
	}
	rows, err := s.conn.QueryContext(ctx, stmt)
	if err != nil {
		return nil, s.fail("select", physicalID, err)
	}
	defer rows.Close() //nolint:errcheck

	width := len(columns) + 1
	var records [][]any
	for rows.Next() {
		record := make([]any, width)
		dest := make([]any, width)
		for i := range record {
			dest[i] = &record[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, s.fail("select", physicalID, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("select", physicalID, err)
	}
	return records, nil
}

func columnDef(c domain.ColumnSpec) ddl.ColumnDef {
	return ddl.ColumnDef{Name: c.Name, Type: c.Type, Default: c.Default}
}

func columnDefs(cols []domain.ColumnSpec) []ddl.ColumnDef {
	defs := make([]ddl.ColumnDef, len(cols))
	for i, c := range cols {
		defs[i] = columnDef(c)
	}
	return defs
}
