// Package fieldtype maps logical field kinds to column definitions and to
// the codecs that move values between request JSON and store columns.
package fieldtype

import (
	"regexp"
	"strings"

	"dyntable/internal/domain"
)

// Type binds a field kind to its column definition and wire codec.
type Type struct {
	Kind domain.FieldKind
	// ColumnType and ColumnDefault render the physical column.
	ColumnType    string
	ColumnDefault string
	// Required fields must be present on insert; optional ones take Default.
	Required bool
	Default  any

	decode func(v any) (any, string)
	encode func(v any) (any, error)
}

// Decode validates a wire value and converts it to its store representation.
// On failure it returns the client-facing message.
func (t Type) Decode(v any) (any, string) { return t.decode(v) }

// Encode converts a value scanned from the store to its wire representation.
func (t Type) Encode(v any) (any, error) { return t.encode(v) }

// Column returns the DDL column spec for a field of this type.
func (t Type) Column(name string) domain.ColumnSpec {
	return domain.ColumnSpec{Name: name, Type: t.ColumnType, Default: t.ColumnDefault}
}

var types = map[domain.FieldKind]Type{
	domain.FieldKindString: {
		Kind:          domain.FieldKindString,
		ColumnType:    "VARCHAR(255)",
		ColumnDefault: "''",
		Required:      true,
		decode:        decodeString,
		encode:        encodeString,
	},
	domain.FieldKindNumber: {
		Kind:       domain.FieldKindNumber,
		ColumnType: "BIGINT",
		decode:     decodeNumber,
		encode:     encodeNumber,
	},
	domain.FieldKindBoolean: {
		Kind:          domain.FieldKindBoolean,
		ColumnType:    "BOOLEAN",
		ColumnDefault: "false",
		Default:       false,
		decode:        decodeBoolean,
		encode:        encodeBoolean,
	},
}

// synonyms maps lower-cased physical type names, stripped of any length or
// precision, to the kind they were created from.
var synonyms = map[string]domain.FieldKind{
	"varchar":           domain.FieldKindString,
	"character varying": domain.FieldKindString,
	"text":              domain.FieldKindString,
	"bigint":            domain.FieldKindNumber,
	"int8":              domain.FieldKindNumber,
	"integer":           domain.FieldKindNumber,
	"int":               domain.FieldKindNumber,
	"boolean":           domain.FieldKindBoolean,
	"bool":              domain.FieldKindBoolean,
}

var typeParamsRe = regexp.MustCompile(`\s*\(.*\)\s*$`)

// Lookup returns the Type registered for kind.
func Lookup(kind domain.FieldKind) (Type, error) {
	t, ok := types[kind]
	if !ok {
		return Type{}, &domain.UnsupportedFieldKindError{Kind: string(kind)}
	}
	return t, nil
}

// Parse accepts a client-supplied kind name, case-insensitively. Physical
// synonyms are not accepted here.
func Parse(s string) (domain.FieldKind, error) {
	kind := domain.FieldKind(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := types[kind]; !ok {
		return "", &domain.UnsupportedFieldKindError{Kind: s}
	}
	return kind, nil
}

// Normalize maps a type name reported by store introspection back to its
// logical kind. Logical kind names are accepted as well.
func Normalize(physicalType string) (domain.FieldKind, error) {
	if kind, err := Parse(physicalType); err == nil {
		return kind, nil
	}
	base := strings.ToLower(strings.TrimSpace(typeParamsRe.ReplaceAllString(physicalType, "")))
	if kind, ok := synonyms[base]; ok {
		return kind, nil
	}
	return "", &domain.UnsupportedFieldKindError{Kind: physicalType}
}

// ColumnFor resolves the DDL column spec for a field.
func ColumnFor(field domain.LogicalField) (domain.ColumnSpec, error) {
	t, err := Lookup(field.Kind)
	if err != nil {
		return domain.ColumnSpec{}, err
	}
	return t.Column(field.Name), nil
}

// ColumnsFor resolves column specs for every field, in order.
func ColumnsFor(fields []domain.LogicalField) ([]domain.ColumnSpec, error) {
	cols := make([]domain.ColumnSpec, 0, len(fields))
	for _, f := range fields {
		c, err := ColumnFor(f)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, nil
}
