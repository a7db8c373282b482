package domain

import (
	"strings"
	"time"
)

// FieldKind is the closed set of logical column kinds a client may request.
type FieldKind string

// Supported field kinds.
const (
	FieldKindString  FieldKind = "STRING"
	FieldKindNumber  FieldKind = "NUMBER"
	FieldKindBoolean FieldKind = "BOOLEAN"
)

// FieldKinds lists the supported kinds in their canonical order.
var FieldKinds = []FieldKind{FieldKindString, FieldKindNumber, FieldKindBoolean}

// PhysicalTablePrefix is prepended to every logical name to form the
// physical table identifier.
const PhysicalTablePrefix = "table_"

// RegistryTable is the metastore table holding catalog entries. It may share
// a database with the physical tables, so its name is reserved.
const RegistryTable = "table_tablename"

// PrimaryKeyColumn is the implicit auto-incrementing key of every physical table.
const PrimaryKeyColumn = "id"

// LogicalField is one client-visible column of a dynamic table.
type LogicalField struct {
	Name string
	Kind FieldKind
}

// TableDescriptor is the request-scoped description of a dynamic table.
type TableDescriptor struct {
	LogicalName string
	PhysicalID  string
	Fields      []LogicalField
}

// NewTableDescriptor derives the physical identifier from the logical name.
func NewTableDescriptor(logicalName string, fields []LogicalField) TableDescriptor {
	return TableDescriptor{
		LogicalName: logicalName,
		PhysicalID:  PhysicalTableID(logicalName),
		Fields:      fields,
	}
}

// FieldNames returns the names of the descriptor's fields in order.
func (d TableDescriptor) FieldNames() []string {
	names := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		names[i] = f.Name
	}
	return names
}

// PhysicalTableID maps a logical table name to its physical identifier.
func PhysicalTableID(logicalName string) string {
	return PhysicalTablePrefix + strings.ToLower(logicalName)
}

// CatalogEntry is a persisted row of the table registry.
type CatalogEntry struct {
	ID          int64
	LogicalName string
	CreatedAt   time.Time
}

// PhysicalID returns the physical table identifier backing this entry.
func (e CatalogEntry) PhysicalID() string {
	return PhysicalTableID(e.LogicalName)
}

// ColumnInfo is one column as reported by store introspection.
type ColumnInfo struct {
	Name         string
	PhysicalType string
}

// ColumnSpec is a column definition ready to be rendered into DDL.
type ColumnSpec struct {
	Name    string
	Type    string // e.g. VARCHAR(255), BIGINT, BOOLEAN
	Default string // SQL literal, empty for none
}

// Row is one stored record keyed by column name, including the primary key.
type Row map[string]any

// AppliedDiff reports what a schema evolution did.
type AppliedDiff struct {
	Removed []LogicalField // dropped, with their pre-diff kinds
	Added   []LogicalField // newly created columns
	Kept    []LogicalField // ADDs the store rejected as already existing
	Fields  []LogicalField // effective schema: the desired list verbatim
}

// ReconcileReport compares the catalog with the physical store.
type ReconcileReport struct {
	Orphaned     []CatalogEntry // catalog entries without a physical table
	Unregistered []string       // physical tables without a catalog entry
	Registered   []CatalogEntry // entries created by a repairing run
}
