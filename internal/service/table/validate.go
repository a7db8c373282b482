package table

import (
	"fmt"
	"strings"

	"dyntable/internal/ddl"
	"dyntable/internal/domain"
	"dyntable/internal/fieldtype"
)

// Length limits on client-supplied names.
const (
	MinNameLength      = 3
	MaxNameLength      = 255
	MaxFieldTypeLength = 20
)

// maxTableNameLength keeps the physical identifier within the identifier limit.
var maxTableNameLength = ddl.MaxIdentifierLen - len(domain.PhysicalTablePrefix)

var reservedPrefixes = []string{"auth_", "django_", "sqlite_", "duckdb_", "goose_", "pg_"}

// Validation messages.
const (
	MsgRequired          = "This field is required."
	MsgTableNameShort    = "Table name must be at least 3 symbols in length"
	MsgTableNameReserved = "You cannot use reserved table names, please choose another one"
	MsgTableNameChars    = "Table name may contain only letters, digits and underscores, and must not start with a digit."
	MsgMaxLength         = "Ensure this field has no more than 255 characters."
	MsgNoFields          = "Table should have at least one field"
	MsgFieldNameShort    = "Field name must be at least 3 symbols in length."
	MsgFieldNameChars    = "Field name may contain only letters, digits and underscores, and must not start with a digit."
	MsgFieldNameUnique   = "Field name must be unique within the table."
	MsgFieldNameID       = `Field name "id" is reserved for the primary key.`
	MsgFieldType         = "Field type must be one of the following types: STRING, NUMBER, BOOLEAN."
	MsgFieldTypeLength   = "Ensure this field has no more than 20 characters."
)

// FieldRequest is one client-supplied field definition, before validation.
type FieldRequest struct {
	Name string
	Type string
}

// IsReservedTableName reports whether name collides with the registry table or
// a system table namespace. The check is case-insensitive.
func IsReservedTableName(name string) bool {
	lower := strings.ToLower(name)
	if lower == domain.RegistryTable || domain.PhysicalTableID(lower) == domain.RegistryTable {
		return true
	}
	for _, p := range reservedPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// ValidateTableName returns the messages describing what is wrong with name.
func ValidateTableName(name string) []string {
	switch {
	case len(name) < MinNameLength:
		return []string{MsgTableNameShort}
	case len(name) > MaxNameLength:
		return []string{MsgMaxLength}
	case len(name) > maxTableNameLength:
		return []string{fmt.Sprintf("Ensure this field has no more than %d characters.", maxTableNameLength)}
	case IsReservedTableName(name):
		return []string{MsgTableNameReserved}
	case ddl.ValidateIdentifier(name) != nil:
		return []string{MsgTableNameChars}
	}
	return nil
}

// ValidateFields checks a field list and resolves each type to its kind.
// Messages are keyed by "<path>[i].field_name" / "<path>[i].field_type".
func ValidateFields(path string, fields []FieldRequest) ([]domain.LogicalField, domain.FieldErrors) {
	fe := domain.FieldErrors{}
	if len(fields) == 0 {
		fe.Add(path, MsgNoFields)
		return nil, fe
	}

	seen := make(map[string]bool, len(fields))
	out := make([]domain.LogicalField, 0, len(fields))
	for i, f := range fields {
		item := domain.FieldErrors{}
		if msg := validateFieldName(f.Name); msg != "" {
			item.Add("field_name", msg)
		} else if key := strings.ToLower(f.Name); seen[key] {
			item.Add("field_name", MsgFieldNameUnique)
		} else {
			seen[key] = true
		}

		kind, msg := validateFieldType(f.Type)
		if msg != "" {
			item.Add("field_type", msg)
		}

		if len(item) > 0 {
			fe.Merge(fmt.Sprintf("%s[%d]", path, i), item)
			continue
		}
		out = append(out, domain.LogicalField{Name: f.Name, Kind: kind})
	}
	if len(fe) > 0 {
		return nil, fe
	}
	return out, nil
}

func validateFieldName(name string) string {
	switch {
	case strings.EqualFold(name, domain.PrimaryKeyColumn):
		return MsgFieldNameID
	case len(name) < MinNameLength:
		return MsgFieldNameShort
	case len(name) > ddl.MaxIdentifierLen:
		return fmt.Sprintf("Ensure this field has no more than %d characters.", ddl.MaxIdentifierLen)
	case ddl.ValidateIdentifier(name) != nil:
		return MsgFieldNameChars
	}
	return ""
}

func validateFieldType(typ string) (domain.FieldKind, string) {
	if len(typ) > MaxFieldTypeLength {
		return "", MsgFieldTypeLength
	}
	kind, err := fieldtype.Parse(typ)
	if err != nil {
		return "", MsgFieldType
	}
	return kind, ""
}
