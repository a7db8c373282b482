// Package ddl builds the DDL and DML statements issued against the physical
// table store. Every identifier is validated and quoted; values always travel
// as bind parameters.
package ddl

import (
	"fmt"
	"strings"
)

// PrimaryKey is the implicit auto-incrementing key column of every table.
const PrimaryKey = "id"

// ColumnDef describes a column for CREATE TABLE and ADD COLUMN.
type ColumnDef struct {
	Name    string
	Type    string
	Default string // SQL literal; empty means no DEFAULT clause
}

func (c ColumnDef) render() (string, error) {
	if err := ValidateIdentifier(c.Name); err != nil {
		return "", fmt.Errorf("invalid column name %q: %w", c.Name, err)
	}
	if strings.EqualFold(c.Name, PrimaryKey) {
		return "", fmt.Errorf("column name %q is reserved for the primary key", c.Name)
	}
	if err := ValidateColumnType(c.Type); err != nil {
		return "", fmt.Errorf("invalid column type for %q: %w", c.Name, err)
	}
	if err := ValidateDefault(c.Default); err != nil {
		return "", fmt.Errorf("invalid default for %q: %w", c.Name, err)
	}
	def := QuoteIdentifier(c.Name) + " " + c.Type
	if c.Default != "" {
		def += " DEFAULT " + c.Default
	}
	return def, nil
}

// CreateTable returns the statements creating table with the dialect's
// primary key column followed by columns, in order.
func CreateTable(d Dialect, table string, columns []ColumnDef) ([]string, error) {
	if err := ValidateIdentifier(table); err != nil {
		return nil, fmt.Errorf("invalid table name: %w", err)
	}

	colDefs := []string{d.PrimaryKeyColumn(table)}
	for _, c := range columns {
		def, err := c.render()
		if err != nil {
			return nil, err
		}
		colDefs = append(colDefs, def)
	}

	stmts := d.BeforeCreate(table)
	stmts = append(stmts, fmt.Sprintf("CREATE TABLE %s (%s)",
		QuoteIdentifier(table),
		strings.Join(colDefs, ", "),
	))
	return stmts, nil
}

// AddColumn returns: ALTER TABLE "<table>" ADD COLUMN "<col>" TYPE [DEFAULT x].
func AddColumn(table string, column ColumnDef) (string, error) {
	if err := ValidateIdentifier(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	def, err := column.render()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", QuoteIdentifier(table), def), nil
}

// DropColumn returns: ALTER TABLE "<table>" DROP COLUMN "<col>".
func DropColumn(table, column string) (string, error) {
	if err := ValidateIdentifier(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	if err := ValidateIdentifier(column); err != nil {
		return "", fmt.Errorf("invalid column name %q: %w", column, err)
	}
	if strings.EqualFold(column, PrimaryKey) {
		return "", fmt.Errorf("cannot drop the primary key column")
	}
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", QuoteIdentifier(table), QuoteIdentifier(column)), nil
}

// InsertRow returns a single-row INSERT with one bind parameter per column
// that hands back the generated key. With no columns every column takes its
// default.
func InsertRow(table string, columns []string) (string, error) {
	if err := ValidateIdentifier(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	if len(columns) == 0 {
		return fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING %s",
			QuoteIdentifier(table), QuoteIdentifier(PrimaryKey)), nil
	}

	quoted := make([]string, len(columns))
	params := make([]string, len(columns))
	for i, c := range columns {
		if err := ValidateIdentifier(c); err != nil {
			return "", fmt.Errorf("invalid column name %q: %w", c, err)
		}
		quoted[i] = QuoteIdentifier(c)
		params[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		QuoteIdentifier(table),
		strings.Join(quoted, ", "),
		strings.Join(params, ", "),
		QuoteIdentifier(PrimaryKey),
	), nil
}

// SelectAll returns an unordered full scan of the primary key followed by
// columns.
func SelectAll(table string, columns []string) (string, error) {
	if err := ValidateIdentifier(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	quoted := []string{QuoteIdentifier(PrimaryKey)}
	for _, c := range columns {
		if err := ValidateIdentifier(c); err != nil {
			return "", fmt.Errorf("invalid column name %q: %w", c, err)
		}
		quoted = append(quoted, QuoteIdentifier(c))
	}
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoted, ", "), QuoteIdentifier(table)), nil
}
